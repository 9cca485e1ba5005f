// Package storage keeps a SQLite catalog of ingestion runs, used to tell
// whether the persisted index is stale relative to the docs directory.
package storage

import (
	"database/sql"
	"fmt"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// CatalogFileName is the SQLite database file under the data directory.
const CatalogFileName = "catalog.db"

// IngestionRun is one recorded full rebuild of the index.
type IngestionRun struct {
	ID            int64
	CreatedAt     int64 // unix seconds
	ModelName     string
	DocumentCount int
	ChunkCount    int
	DurationMs    int64
	CorpusHash    string
}

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// CatalogPath returns the catalog path under dataDir.
func CatalogPath(dataDir string) string {
	return filepath.Join(dataDir, CatalogFileName)
}

// OpenDB opens or creates the catalog database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}

	// SQLite doesn't support concurrent writes
	db.SetMaxOpenConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS ingestion_runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at INTEGER NOT NULL,
			model_name TEXT NOT NULL,
			document_count INTEGER NOT NULL,
			chunk_count INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			corpus_hash TEXT NOT NULL
		);
	`
	_, err := db.Exec(schema)
	return err
}

// RecordRun appends a completed ingestion run to the catalog.
func (d *DB) RecordRun(run IngestionRun) error {
	_, err := d.db.Exec(`
		INSERT INTO ingestion_runs (created_at, model_name, document_count, chunk_count, duration_ms, corpus_hash)
		VALUES (?, ?, ?, ?, ?, ?)`,
		run.CreatedAt, run.ModelName, run.DocumentCount, run.ChunkCount, run.DurationMs, run.CorpusHash,
	)
	if err != nil {
		return fmt.Errorf("recording ingestion run: %w", err)
	}
	return nil
}

// LastRun returns the most recent ingestion run, or nil if the catalog is
// empty.
func (d *DB) LastRun() (*IngestionRun, error) {
	row := d.db.QueryRow(`
		SELECT id, created_at, model_name, document_count, chunk_count, duration_ms, corpus_hash
		FROM ingestion_runs ORDER BY id DESC LIMIT 1`)

	var run IngestionRun
	err := row.Scan(&run.ID, &run.CreatedAt, &run.ModelName, &run.DocumentCount,
		&run.ChunkCount, &run.DurationMs, &run.CorpusHash)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading last ingestion run: %w", err)
	}
	return &run, nil
}

// ListRuns returns up to limit runs, most recent first. A limit of 0
// returns all runs.
func (d *DB) ListRuns(limit int) ([]IngestionRun, error) {
	query := `
		SELECT id, created_at, model_name, document_count, chunk_count, duration_ms, corpus_hash
		FROM ingestion_runs ORDER BY id DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := d.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("listing ingestion runs: %w", err)
	}
	defer rows.Close()

	var runs []IngestionRun
	for rows.Next() {
		var run IngestionRun
		if err := rows.Scan(&run.ID, &run.CreatedAt, &run.ModelName, &run.DocumentCount,
			&run.ChunkCount, &run.DurationMs, &run.CorpusHash); err != nil {
			return nil, fmt.Errorf("scanning ingestion run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
