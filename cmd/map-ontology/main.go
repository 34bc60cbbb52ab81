package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/cognicore/biomap/internal/cli"
	"github.com/cognicore/biomap/pkg/biomap/config"
	"github.com/cognicore/biomap/pkg/biomap/mapper"
	"github.com/cognicore/biomap/pkg/biomap/store"
	"github.com/cognicore/biomap/pkg/biomap/table"
)

type options struct {
	in, out    string
	column     string
	output     string
	ontology   string
	delim      string
	configPath string
	vocabPath  string
	dbPath     string
}

func main() {
	var opts options
	flag.StringVar(&opts.in, "in", "", "Input table (required)")
	flag.StringVar(&opts.out, "out", "", "Output table (default stdout)")
	flag.StringVar(&opts.column, "column", "", "Column holding the terms to map (required)")
	flag.StringVar(&opts.output, "output", "", "Prefix of the appended columns (default: -column)")
	flag.StringVar(&opts.ontology, "ontology", "UBERON", "Target ontology acronym")
	flag.StringVar(&opts.delim, "delim", ",", "Field delimiter (use \\t or tab for TSV)")
	flag.StringVar(&opts.configPath, "config", "", "biomap.yaml (optional)")
	flag.StringVar(&opts.vocabPath, "vocab", "", "Normalization vocabulary YAML (optional)")
	envPath := flag.String("env", ".env", "dotenv file with BIOPORTAL_API_KEY")
	flag.StringVar(&opts.dbPath, "db", "", "Run ledger database (optional)")
	flag.Parse()

	if opts.in == "" {
		log.Fatal("--in required")
	}
	if opts.column == "" {
		log.Fatal("--column required")
	}
	if err := cli.LoadEnv(*envPath); err != nil {
		log.Fatal(err)
	}

	if err := run(context.Background(), opts, os.Stdout, os.Stderr); err != nil {
		log.Fatal(err)
	}
}

// run maps one table. The mapped table goes to stdout unless opts.out is
// set; the summary goes to status.
func run(ctx context.Context, opts options, stdout, status io.Writer) error {
	delim, err := parseDelim(opts.delim)
	if err != nil {
		return err
	}
	if opts.output == "" {
		opts.output = opts.column
	}

	loader := config.Loader{ConfigPath: opts.configPath, VocabularyPath: opts.vocabPath}
	components, err := loader.Load()
	if err != nil {
		return err
	}
	m, err := components.Mapper()
	if err != nil {
		return err
	}

	ledger, cleanup, err := cli.OpenLedger(ctx, opts.dbPath)
	if err != nil {
		return err
	}
	defer cleanup()

	tbl, err := readTable(opts.in, delim)
	if err != nil {
		return err
	}

	started := time.Now()
	results, err := m.MapColumn(ctx, tbl, opts.column, opts.output, opts.ontology)
	if err != nil {
		return fmt.Errorf("map %s: %w", opts.column, err)
	}

	if err := writeTable(tbl, opts.out, delim, stdout); err != nil {
		return err
	}

	var runID string
	if ledger != nil {
		runID, err = record(ctx, ledger, opts, started, results)
		if err != nil {
			return fmt.Errorf("record run: %w", err)
		}
	}

	stats := m.Stats()
	cli.Summary(status, "Ontology", opts.ontology, true)
	cli.Summary(status, "Mapped", fmt.Sprintf("%d/%d", stats.Mapped, stats.Rows), stats.Mapped == stats.Rows)
	for p := mapper.PassLower; p <= mapper.PassSingular; p++ {
		cli.Summary(status, p.String(), stats.ByPass[p], true)
	}
	cli.Summary(status, "Requests", stats.Requests, true)
	if runID != "" {
		cli.Summary(status, "Run", runID, true)
	}
	return nil
}

func readTable(path string, delim rune) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tbl, err := table.ReadCSV(f, delim)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return tbl, nil
}

func writeTable(tbl *table.Table, path string, delim rune, stdout io.Writer) error {
	if path == "" {
		return tbl.WriteCSV(stdout, delim)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := tbl.WriteCSV(f, delim); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func record(ctx context.Context, ledger store.Ledger, opts options, started time.Time, results []mapper.Result) (string, error) {
	run := store.Run{
		ID:        store.NewRunID(),
		Kind:      store.KindMapOntology,
		Subject:   opts.ontology,
		Source:    opts.in,
		StartedAt: started,
	}
	if err := ledger.RecordRun(ctx, run); err != nil {
		return "", err
	}
	ms := make([]store.Mapping, len(results))
	for i, r := range results {
		ms[i] = store.Mapping{
			Term:     r.Term,
			Ontology: opts.ontology,
			CURIE:    r.ID(),
			Name:     r.Concept.Name,
			URI:      r.Concept.URI,
		}
		if r.Mapped() {
			ms[i].Pass = r.Pass.String()
		}
	}
	if err := ledger.RecordMappings(ctx, run.ID, ms); err != nil {
		return "", err
	}
	return run.ID, nil
}

func parseDelim(s string) (rune, error) {
	switch s {
	case "\\t", "\t", "tab":
		return '\t', nil
	}
	r := []rune(s)
	if len(r) != 1 {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", s)
	}
	return r[0], nil
}
