package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/AJlearner46/Health-Call-Failure-Analyzer/internal/storage"
)

// Store is a SQLite implementation of DiagnosticStore.
type Store struct {
	db *sql.DB
}

var _ storage.DiagnosticStore = (*Store)(nil)

// New opens (or creates) the database at dbPath and initializes the schema.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *Store) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS diagnostics (
			id TEXT PRIMARY KEY,
			request_id TEXT,
			call_id TEXT,
			stage TEXT NOT NULL,
			model TEXT,
			kind TEXT NOT NULL,
			message TEXT NOT NULL,
			raw TEXT,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_diagnostics_created ON diagnostics(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_diagnostics_kind ON diagnostics(kind)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	return nil
}

func (s *Store) Record(ctx context.Context, d *storage.Diagnostic) error {
	storage.Prepare(d)

	query := `INSERT INTO diagnostics (id, request_id, call_id, stage, model, kind, message, raw, created_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		d.ID, d.RequestID, d.CallID, d.Stage, d.Model, string(d.Kind), d.Message, d.Raw, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record diagnostic: %w", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, opts storage.ListOptions) ([]*storage.Diagnostic, error) {
	query := `SELECT id, request_id, call_id, stage, model, kind, message, raw, created_at
	          FROM diagnostics`
	var args []any
	if opts.Kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, string(opts.Kind))
	}
	query += ` ORDER BY created_at DESC, rowid DESC`
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query diagnostics: %w", err)
	}
	defer rows.Close()

	result := []*storage.Diagnostic{}
	for rows.Next() {
		var (
			d                             storage.Diagnostic
			requestID, callID, model, raw sql.NullString
			kind                          string
		)
		if err := rows.Scan(&d.ID, &requestID, &callID, &d.Stage, &model, &kind, &d.Message, &raw, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan diagnostic: %w", err)
		}
		d.RequestID = requestID.String
		d.CallID = callID.String
		d.Model = model.String
		d.Raw = raw.String
		d.Kind = storage.Kind(kind)
		result = append(result, &d)
	}
	return result, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
