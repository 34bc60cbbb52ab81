package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/cognicore/biomap/pkg/biomap"
	"github.com/cognicore/biomap/pkg/biomap/store"
)

// Store is an in-memory implementation of store.Ledger for tests.
type Store struct {
	mu       sync.RWMutex
	runs     map[string]store.Run
	mappings map[string][]store.Mapping
	groups   map[string][]biomap.SampleGroup
}

// New creates a new in-memory ledger.
func New() *Store {
	return &Store{
		runs:     make(map[string]store.Run),
		mappings: make(map[string][]store.Mapping),
		groups:   make(map[string][]biomap.SampleGroup),
	}
}

// Close implements store.Ledger.
func (s *Store) Close() error { return nil }

// RecordRun inserts or replaces a run, keyed by ID.
func (s *Store) RecordRun(ctx context.Context, r store.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[r.ID] = r
	return nil
}

// Runs returns all runs ordered by start time, then ID.
func (s *Store) Runs(ctx context.Context) ([]store.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.Run, 0, len(s.runs))
	for _, r := range s.runs {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.Before(out[j].StartedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// RecordMappings appends mapping rows to a run.
func (s *Store) RecordMappings(ctx context.Context, runID string, ms []store.Mapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mappings[runID] = append(s.mappings[runID], ms...)
	return nil
}

// Mappings returns a run's mapping rows in insertion order.
func (s *Store) Mappings(ctx context.Context, runID string) ([]store.Mapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]store.Mapping(nil), s.mappings[runID]...), nil
}

// RecordSampleGroups appends (sample, group) pairs to a run.
func (s *Store) RecordSampleGroups(ctx context.Context, runID, accession string, sgs []biomap.SampleGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[runID] = append(s.groups[runID], sgs...)
	return nil
}

// SampleGroups returns a run's pairs in insertion order.
func (s *Store) SampleGroups(ctx context.Context, runID string) ([]biomap.SampleGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]biomap.SampleGroup(nil), s.groups[runID]...), nil
}

var _ store.Ledger = (*Store)(nil)
