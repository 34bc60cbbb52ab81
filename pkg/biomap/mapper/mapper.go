// Package mapper maps free-text terms to ontology concepts.
//
// Each term is looked up in four passes, one per normalization variant, and
// the first pass that matches wins. A pass only sends the variants of rows
// that are still unmatched and that no earlier pass has already sent, so the
// result equals querying every variant while issuing fewer requests.
package mapper

import (
	"context"
	"fmt"
	"log"

	"github.com/cognicore/biomap/pkg/biomap"
	"github.com/cognicore/biomap/pkg/biomap/batch"
	"github.com/cognicore/biomap/pkg/biomap/internalerr"
	"github.com/cognicore/biomap/pkg/biomap/normalize"
	"github.com/cognicore/biomap/pkg/biomap/table"
)

// Pass identifies a normalization variant, in lookup priority order.
type Pass int

const (
	PassLower Pass = iota
	PassNoPos
	PassNoPosSingular
	PassSingular
	numPasses
)

func (p Pass) String() string {
	switch p {
	case PassLower:
		return "lower"
	case PassNoPos:
		return "nopos"
	case PassNoPosSingular:
		return "nopos_singular"
	case PassSingular:
		return "singular"
	}
	return fmt.Sprintf("pass(%d)", int(p))
}

// Recommender finds concepts for a batch of terms. Keys of the returned map
// are lowercased terms.
type Recommender interface {
	Recommend(ctx context.Context, terms []string, ontology string) (map[string]biomap.Concept, error)
}

// Stats summarizes one mapping run.
type Stats struct {
	Rows     int
	Mapped   int
	Requests int
	ByPass   [numPasses]int
}

// Mapper runs the four lookup passes.
type Mapper struct {
	Normalizer  *normalize.Normalizer
	Recommender Recommender
	BatchSize   int
	Logger      *log.Logger

	stats Stats
}

// New creates a mapper with the default vocabulary and batch size.
func New(rec Recommender) *Mapper {
	return &Mapper{
		Normalizer:  normalize.New(normalize.DefaultVocabulary()),
		Recommender: rec,
		BatchSize:   batch.DefaultSize,
	}
}

// Stats returns counters for the most recent MapTerms call.
func (m *Mapper) Stats() Stats {
	return m.stats
}

// MapTerms maps each term and returns one Result per input, in order.
// Unmapped terms get an empty Concept. Any recommender error aborts.
func (m *Mapper) MapTerms(ctx context.Context, terms []string, ontology string) ([]Result, error) {
	m.stats = Stats{Rows: len(terms)}

	variants := make([][numPasses]string, len(terms))
	for i, t := range terms {
		variants[i] = m.normalizer().Variants(t, ontology).All()
	}

	candidates := make([][numPasses]Candidate, len(terms))
	resolved := make([]bool, len(terms))
	known := make(map[string]Candidate) // every term sent so far

	for p := PassLower; p < numPasses; p++ {
		var pending []string
		for i := range terms {
			if resolved[i] {
				continue
			}
			if _, seen := known[variants[i][p]]; !seen {
				pending = append(pending, variants[i][p])
			}
		}

		if err := m.lookup(ctx, p, batch.Unique(pending), ontology, known); err != nil {
			return nil, err
		}

		for i := range terms {
			if resolved[i] {
				continue
			}
			c := known[variants[i][p]]
			candidates[i][p] = c
			if c.OK {
				resolved[i] = true
				m.stats.ByPass[p]++
			}
		}
	}

	results := make([]Result, len(terms))
	for i, t := range terms {
		results[i] = Result{Term: t, Concept: Coalesce(candidates[i][:]...)}
		for p := PassLower; p < numPasses; p++ {
			if candidates[i][p].OK {
				results[i].Pass = p
				break
			}
		}
		if results[i].Mapped() {
			m.stats.Mapped++
		}
	}
	return results, nil
}

func (m *Mapper) lookup(ctx context.Context, p Pass, terms []string, ontology string, known map[string]Candidate) error {
	chunks := batch.Chunk(terms, m.BatchSize)
	if len(chunks) > 0 {
		m.logger().Printf("pass %s: %d terms in %d batches", p, len(terms), len(chunks))
	}
	for _, chunk := range chunks {
		found, err := m.Recommender.Recommend(ctx, chunk, ontology)
		m.stats.Requests++
		if err != nil {
			return fmt.Errorf("pass %s: %w", p, err)
		}
		for _, term := range chunk {
			c, ok := found[term]
			known[term] = Candidate{Concept: c, OK: ok}
		}
	}
	return nil
}

// Column suffixes appended by MapColumn.
const (
	SuffixID   = "_id"
	SuffixName = "_name"
	SuffixURI  = "_uri"
)

// MapColumn maps the input column of tbl and appends <output>_id,
// <output>_name and <output>_uri. Unmapped rows get empty strings.
func (m *Mapper) MapColumn(ctx context.Context, tbl *table.Table, input, output, ontology string) ([]Result, error) {
	terms, err := tbl.Column(input)
	if err != nil {
		return nil, err
	}
	for _, suffix := range []string{SuffixID, SuffixName, SuffixURI} {
		if tbl.Index(output+suffix) >= 0 {
			return nil, fmt.Errorf("output column %q already exists: %w", output+suffix, internalerr.ErrInvalidInput)
		}
	}
	results, err := m.MapTerms(ctx, terms, ontology)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(results))
	names := make([]string, len(results))
	uris := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.ID()
		names[i] = r.Concept.Name
		uris[i] = r.Concept.URI
	}
	for _, col := range []struct {
		name   string
		values []string
	}{
		{output + SuffixID, ids},
		{output + SuffixName, names},
		{output + SuffixURI, uris},
	} {
		if err := tbl.AppendColumn(col.name, col.values); err != nil {
			return nil, err
		}
	}
	return results, nil
}

func (m *Mapper) normalizer() *normalize.Normalizer {
	if m.Normalizer == nil {
		m.Normalizer = normalize.New(normalize.DefaultVocabulary())
	}
	return m.Normalizer
}

func (m *Mapper) logger() *log.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return log.Default()
}
