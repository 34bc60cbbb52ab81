package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/biomap/pkg/biomap"
	"github.com/cognicore/biomap/pkg/biomap/store"
)

// sqliteStore implements the Ledger interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite ledger with WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (store.Ledger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	// Enable foreign keys
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	// Initialize schema
	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	kind TEXT NOT NULL,
	subject TEXT,
	source TEXT,
	started_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS term_mappings (
	run_id TEXT NOT NULL,
	seq INTEGER NOT NULL,
	term TEXT NOT NULL,
	ontology TEXT NOT NULL,
	curie TEXT NOT NULL,
	name TEXT NOT NULL,
	uri TEXT NOT NULL,
	pass TEXT,
	PRIMARY KEY(run_id, seq),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS sample_groups (
	run_id TEXT NOT NULL,
	seq INTEGER NOT NULL,
	accession TEXT NOT NULL,
	sample TEXT NOT NULL,
	grp TEXT NOT NULL,
	PRIMARY KEY(run_id, seq),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_term_mappings_term ON term_mappings(term);
CREATE INDEX IF NOT EXISTS idx_sample_groups_accession ON sample_groups(accession);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// RecordRun inserts or replaces a run
func (s *sqliteStore) RecordRun(ctx context.Context, r store.Run) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO runs(id, kind, subject, source, started_at) VALUES(?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET kind=excluded.kind, subject=excluded.subject, source=excluded.source, started_at=excluded.started_at
`, r.ID, r.Kind, r.Subject, r.Source, r.StartedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("record run %s: %w", r.ID, err)
	}
	return nil
}

// Runs returns all runs ordered by start time
func (s *sqliteStore) Runs(ctx context.Context) ([]store.Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, kind, subject, source, started_at FROM runs ORDER BY started_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Run
	for rows.Next() {
		var r store.Run
		var subject, source sql.NullString
		var started string
		if err := rows.Scan(&r.ID, &r.Kind, &subject, &source, &started); err != nil {
			return nil, err
		}
		r.Subject = subject.String
		r.Source = source.String
		r.StartedAt, err = time.Parse(time.RFC3339Nano, started)
		if err != nil {
			return nil, fmt.Errorf("run %s: parse started_at: %w", r.ID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// RecordMappings appends mapping rows to a run in one transaction
func (s *sqliteStore) RecordMappings(ctx context.Context, runID string, ms []store.Mapping) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	next, err := nextSeq(ctx, tx, "term_mappings", runID)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO term_mappings(run_id, seq, term, ontology, curie, name, uri, pass) VALUES(?, ?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, m := range ms {
		if _, err := stmt.ExecContext(ctx, runID, next+int64(i), m.Term, m.Ontology, m.CURIE, m.Name, m.URI, m.Pass); err != nil {
			return fmt.Errorf("record mapping %q: %w", m.Term, err)
		}
	}
	return tx.Commit()
}

// Mappings returns a run's mapping rows in insertion order
func (s *sqliteStore) Mappings(ctx context.Context, runID string) ([]store.Mapping, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT term, ontology, curie, name, uri, pass FROM term_mappings WHERE run_id = ? ORDER BY seq
`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Mapping
	for rows.Next() {
		var m store.Mapping
		var pass sql.NullString
		if err := rows.Scan(&m.Term, &m.Ontology, &m.CURIE, &m.Name, &m.URI, &pass); err != nil {
			return nil, err
		}
		m.Pass = pass.String
		out = append(out, m)
	}
	return out, rows.Err()
}

// RecordSampleGroups appends (sample, group) pairs to a run in one transaction
func (s *sqliteStore) RecordSampleGroups(ctx context.Context, runID, accession string, sgs []biomap.SampleGroup) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	next, err := nextSeq(ctx, tx, "sample_groups", runID)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO sample_groups(run_id, seq, accession, sample, grp) VALUES(?, ?, ?, ?, ?)
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, sg := range sgs {
		if _, err := stmt.ExecContext(ctx, runID, next+int64(i), accession, sg.Sample, sg.Group); err != nil {
			return fmt.Errorf("record sample %q: %w", sg.Sample, err)
		}
	}
	return tx.Commit()
}

// SampleGroups returns a run's pairs in insertion order
func (s *sqliteStore) SampleGroups(ctx context.Context, runID string) ([]biomap.SampleGroup, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT sample, grp FROM sample_groups WHERE run_id = ? ORDER BY seq
`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []biomap.SampleGroup
	for rows.Next() {
		var sg biomap.SampleGroup
		if err := rows.Scan(&sg.Sample, &sg.Group); err != nil {
			return nil, err
		}
		out = append(out, sg)
	}
	return out, rows.Err()
}

// nextSeq returns the next free sequence number of a run in table.
// table is always one of the package's own constants.
func nextSeq(ctx context.Context, tx *sql.Tx, table, runID string) (int64, error) {
	var next int64
	err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq) + 1, 0) FROM `+table+` WHERE run_id = ?`, runID).Scan(&next)
	return next, err
}
