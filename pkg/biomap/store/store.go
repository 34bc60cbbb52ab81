package store

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/biomap/pkg/biomap"
)

// Ledger records what each pipeline run produced. It is write-mostly
// provenance; the pipelines never read their own results back.
type Ledger interface {
	Close() error

	// Runs
	RecordRun(ctx context.Context, r Run) error
	Runs(ctx context.Context) ([]Run, error)

	// Ontology mapping results
	RecordMappings(ctx context.Context, runID string, ms []Mapping) error
	Mappings(ctx context.Context, runID string) ([]Mapping, error)

	// Metadata export results
	RecordSampleGroups(ctx context.Context, runID, accession string, sgs []biomap.SampleGroup) error
	SampleGroups(ctx context.Context, runID string) ([]biomap.SampleGroup, error)
}

// Run kinds.
const (
	KindMapOntology  = "map-ontology"
	KindSaveMetadata = "save-metadata"
)

// Run describes one pipeline invocation.
type Run struct {
	ID        string
	Kind      string
	Subject   string // ontology code or dataset accession
	Source    string // input file or endpoint
	StartedAt time.Time
}

// Mapping is one coalesced row of an ontology mapping run.
type Mapping struct {
	Term     string
	Ontology string
	CURIE    string
	Name     string
	URI      string
	Pass     string
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewRunID returns a time-ordered unique run identifier.
func NewRunID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Now(), entropy).String()
}
