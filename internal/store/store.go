// Package store persists completed orchestration runs to SQLite so mapping
// reviews can happen after the fact. Mappings and steps are stored as JSON
// blobs; the relational columns exist for listing and lookup, not for
// querying inside a run.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"schemabridge/internal/orchestrator"
	"schemabridge/internal/schema"
)

// RunStore persists orchestration runs.
type RunStore struct {
	db *sql.DB
}

// RunSummary is the listing row for a stored run.
type RunSummary struct {
	ID           string            `json:"id"`
	SourceSystem schema.SystemType `json:"source_system"`
	TargetSystem schema.SystemType `json:"target_system"`
	MappingCount int               `json:"mapping_count"`
	CreatedAt    time.Time         `json:"created_at"`
}

// StoredRun is a fully rehydrated run.
type StoredRun struct {
	RunSummary
	Output *orchestrator.Output `json:"output"`
}

// Open initializes the store at the given path, creating the schema on
// first use.
func Open(path string) (*RunStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	s := &RunStore{db: db}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *RunStore) initialize() error {
	schemaSQL := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		source_system TEXT NOT NULL,
		target_system TEXT NOT NULL,
		mapping_count INTEGER NOT NULL,
		output TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_runs_systems ON runs(source_system, target_system);
	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	`
	if _, err := s.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to create store schema: %w", err)
	}
	return nil
}

// Close releases the underlying database.
func (s *RunStore) Close() error { return s.db.Close() }

// SaveRun persists a completed run and returns its id.
func (s *RunStore) SaveRun(ctx context.Context, source, target schema.SystemType, out *orchestrator.Output) (string, error) {
	if out == nil {
		return "", fmt.Errorf("cannot save nil run output")
	}
	blob, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("failed to marshal run output: %w", err)
	}
	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, source_system, target_system, mapping_count, output) VALUES (?, ?, ?, ?, ?)`,
		id, string(source), string(target), len(out.UpdatedFieldMappings), string(blob))
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}
	return id, nil
}

// LoadRun rehydrates one run by id.
func (s *RunStore) LoadRun(ctx context.Context, id string) (*StoredRun, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, source_system, target_system, mapping_count, output, created_at FROM runs WHERE id = ?`, id)

	var run StoredRun
	var blob string
	err := row.Scan(&run.ID, &run.SourceSystem, &run.TargetSystem, &run.MappingCount, &blob, &run.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run: %w", err)
	}
	run.Output = &orchestrator.Output{}
	if err := json.Unmarshal([]byte(blob), run.Output); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run output: %w", err)
	}
	return &run, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *RunStore) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_system, target_system, mapping_count, created_at FROM runs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.ID, &r.SourceSystem, &r.TargetSystem, &r.MappingCount, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return out, nil
}

// DeleteRun removes a stored run. Missing ids are not an error.
func (s *RunStore) DeleteRun(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	return nil
}
