package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/cognicore/biomap/internal/cli"
	"github.com/cognicore/biomap/pkg/biomap/config"
	"github.com/cognicore/biomap/pkg/biomap/export"
)

func main() {
	var (
		dir        = flag.String("dir", "", "Output directory (default: osdr.metadata_dir)")
		configPath = flag.String("config", "", "biomap.yaml (optional)")
		envPath    = flag.String("env", ".env", "dotenv file (optional)")
		dbPath     = flag.String("db", "", "Run ledger database (optional)")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] ACCESSION...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}
	if err := cli.LoadEnv(*envPath); err != nil {
		log.Fatal(err)
	}

	if err := run(context.Background(), *configPath, *dir, *dbPath, flag.Args(), os.Stdout); err != nil {
		log.Fatal(err)
	}
}

// run exports each accession in order and stops at the first failure.
func run(ctx context.Context, configPath, dir, dbPath string, accessions []string, status io.Writer) error {
	exporter, cleanup, err := buildExporter(ctx, configPath, dir, dbPath)
	if err != nil {
		return err
	}
	defer cleanup()

	for _, acc := range accessions {
		res, err := exporter.Export(ctx, acc)
		if err != nil {
			return err
		}
		cli.Summary(status, acc, fmt.Sprintf("%d samples, %d groups, %d contrasts", res.Samples, res.Groups, res.Contrasts), res.Groups > 1)
		cli.Summary(status, "Samples", res.SampleTable, true)
		cli.Summary(status, "Contrasts", res.ContrastTable, true)
	}
	return nil
}

func buildExporter(ctx context.Context, configPath, dir, dbPath string) (*export.Exporter, func(), error) {
	loader := config.Loader{ConfigPath: configPath}
	components, err := loader.Load()
	if err != nil {
		return nil, nil, err
	}
	if dir == "" {
		dir = components.Config.OSDR.MetadataDir
	}

	ledger, cleanup, err := cli.OpenLedger(ctx, dbPath)
	if err != nil {
		return nil, nil, err
	}

	exporter := &export.Exporter{
		Source: components.OSDR,
		Dir:    dir,
		Ledger: ledger,
	}
	return exporter, cleanup, nil
}
