// Package export writes the sample-to-group and contrast tables of an OSDR
// dataset.
package export

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/cognicore/biomap/pkg/biomap"
	"github.com/cognicore/biomap/pkg/biomap/groups"
	"github.com/cognicore/biomap/pkg/biomap/internalerr"
	"github.com/cognicore/biomap/pkg/biomap/store"
)

// Source provides dataset factors and sample tables.
type Source interface {
	Factors(ctx context.Context, accession string) ([]string, error)
	Samples(ctx context.Context, accession string, factors []string) ([][]string, error)
}

// Exporter runs the metadata export for one accession at a time.
type Exporter struct {
	Source Source
	Dir    string
	Ledger store.Ledger // optional
	Logger *log.Logger
}

// Result describes the files written for one accession.
type Result struct {
	Accession     string
	RunID         string
	Factors       []string
	SampleTable   string
	ContrastTable string
	Samples       int
	Groups        int
	Contrasts     int
}

// SampleTablePath is where the sample-to-group table of accession goes.
func SampleTablePath(dir, accession string) string {
	return filepath.Join(dir, accession+"_SampleTable.csv")
}

// ContrastTablePath is where the contrast table of accession goes.
func ContrastTablePath(dir, accession string) string {
	return filepath.Join(dir, accession+"_contrasts.csv")
}

// Export fetches factors and samples, then writes the sample table followed
// by the contrast table. Nothing is written when either request fails.
func (e *Exporter) Export(ctx context.Context, accession string) (Result, error) {
	res := Result{Accession: accession}
	if accession == "" {
		return res, fmt.Errorf("%w: empty accession", internalerr.ErrInvalidInput)
	}
	started := time.Now()

	factors, err := e.Source.Factors(ctx, accession)
	if err != nil {
		return res, fmt.Errorf("factors of %s: %w", accession, err)
	}
	res.Factors = factors

	records, err := e.Source.Samples(ctx, accession, factors)
	if err != nil {
		return res, fmt.Errorf("samples of %s: %w", accession, err)
	}
	if len(records) == 0 {
		return res, internalerr.Malformed("osdr", "sample table has no header", nil)
	}
	// first record is the header
	pairs, err := groups.SampleGroups(records[1:])
	if err != nil {
		return res, fmt.Errorf("samples of %s: %w", accession, err)
	}
	unique := groups.UniqueGroups(pairs)
	contrasts := groups.Contrasts(unique)
	e.logger().Printf("%d unique groups = %d pairwise combinations", len(unique), len(contrasts))

	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return res, err
	}
	res.SampleTable = SampleTablePath(e.Dir, accession)
	if err := writeFile(res.SampleTable, func(w io.Writer) error {
		return groups.WriteSampleTable(w, pairs)
	}); err != nil {
		return res, err
	}
	res.ContrastTable = ContrastTablePath(e.Dir, accession)
	if err := writeFile(res.ContrastTable, func(w io.Writer) error {
		return groups.WriteContrasts(w, contrasts)
	}); err != nil {
		return res, err
	}

	res.Samples = len(pairs)
	res.Groups = len(unique)
	res.Contrasts = len(contrasts)

	if e.Ledger != nil {
		runID, err := e.record(ctx, accession, started, pairs)
		if err != nil {
			return res, fmt.Errorf("record run: %w", err)
		}
		res.RunID = runID
	}
	return res, nil
}

func (e *Exporter) record(ctx context.Context, accession string, started time.Time, pairs []biomap.SampleGroup) (string, error) {
	run := store.Run{
		ID:        store.NewRunID(),
		Kind:      store.KindSaveMetadata,
		Subject:   accession,
		Source:    e.Dir,
		StartedAt: started,
	}
	if err := e.Ledger.RecordRun(ctx, run); err != nil {
		return "", err
	}
	if err := e.Ledger.RecordSampleGroups(ctx, run.ID, accession, pairs); err != nil {
		return "", err
	}
	return run.ID, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func (e *Exporter) logger() *log.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return log.Default()
}
