package archive

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - Initial schema (runs table + fingerprint index)
const currentSchemaVersion = 1

// Run directions.
const (
	DirectionImport = "import"
	DirectionExport = "export"
)

// Run is one recorded bridge invocation. Token identifies the run; Source is
// the input artifact (QASM text for imports, circuit JSON for exports) and
// Output the produced one. Options holds the JSON-encoded exporter options
// for export runs, empty otherwise.
type Run struct {
	ID          int64
	Token       string
	Direction   string
	Fingerprint string
	Source      string
	Output      string
	Options     string
	CreatedAt   string
}

// Archive is the SQLite-backed run log.
type Archive struct {
	db *sql.DB
}

// Open creates or opens the archive database at path. The connection is
// configured with WAL journaling, NORMAL synchronous mode, a 5-second busy
// timeout, and a single writer connection. Idempotent.
func Open(path string) (*Archive, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to archive: %w", err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY on concurrent recordings.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Archive{db: db}, nil
}

// Close closes the database connection.
func (a *Archive) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// RecordRun inserts a run. A missing token is assigned a fresh UUID.
// Re-recording an existing token is a silent no-op (the stored run wins).
// Returns the run with its token filled in.
func (a *Archive) RecordRun(ctx context.Context, run Run) (Run, error) {
	if run.Direction != DirectionImport && run.Direction != DirectionExport {
		return Run{}, fmt.Errorf("record run: invalid direction %q", run.Direction)
	}
	if run.Token == "" {
		run.Token = uuid.NewString()
	}
	_, err := a.db.ExecContext(ctx, `
		INSERT INTO runs (token, direction, fingerprint, source, output, options)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(token) DO NOTHING
	`,
		run.Token,
		run.Direction,
		run.Fingerprint,
		run.Source,
		run.Output,
		run.Options,
	)
	if err != nil {
		return Run{}, fmt.Errorf("record run: %w", err)
	}
	return run, nil
}

// FindRun looks a run up by token.
func (a *Archive) FindRun(ctx context.Context, token string) (Run, bool, error) {
	row := a.db.QueryRowContext(ctx, `
		SELECT id, token, direction, fingerprint, source, output, options, created_at
		FROM runs WHERE token = ?
	`, token)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return Run{}, false, nil
	}
	if err != nil {
		return Run{}, false, fmt.Errorf("find run: %w", err)
	}
	return run, true, nil
}

// RunsByFingerprint returns every run recorded for a circuit fingerprint, in
// recording order.
func (a *Archive) RunsByFingerprint(ctx context.Context, fingerprint string) ([]Run, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT id, token, direction, fingerprint, source, output, options, created_at
		FROM runs WHERE fingerprint = ?
		ORDER BY id
	`, fingerprint)
	if err != nil {
		return nil, fmt.Errorf("runs by fingerprint: %w", err)
	}
	defer rows.Close()
	return collectRuns(rows)
}

// ListRuns returns up to limit runs in recording order. limit <= 0 means all.
func (a *Archive) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `
		SELECT id, token, direction, fingerprint, source, output, options, created_at
		FROM runs
		ORDER BY id
	`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()
	return collectRuns(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var run Run
	err := row.Scan(
		&run.ID,
		&run.Token,
		&run.Direction,
		&run.Fingerprint,
		&run.Source,
		&run.Output,
		&run.Options,
		&run.CreatedAt,
	)
	return run, err
}

func collectRuns(rows *sql.Rows) ([]Run, error) {
	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}

// applySchema creates tables if they don't exist and stamps the schema
// version. Idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version < currentSchemaVersion {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
			return fmt.Errorf("set user_version: %w", err)
		}
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (a *Archive) verifyPragma(name, expected string) error {
	var value string
	if err := a.db.QueryRow(fmt.Sprintf("PRAGMA %s", name)).Scan(&value); err != nil {
		return fmt.Errorf("query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
