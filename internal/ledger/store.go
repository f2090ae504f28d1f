package ledger

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump when the schema
// changes; existing databases with another version are refused.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match
// the expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Record is one completed download.
type Record struct {
	ID          int64
	Workno      string
	Path        string
	Variant     string
	Bytes       int64
	Descrambled bool
	SessionID   string
	CreatedAt   time.Time
}

// Store persists download history in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the ledger database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("ledger path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure ledger directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?%s", filepath.ToSlash(path), url.Values{
		"_pragma": {"busy_timeout(5000)", "journal_mode(WAL)", "foreign_keys(1)"},
	}.Encode())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(ensureContext(ctx)); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the on-disk database location.
func (s *Store) Path() string {
	return s.path
}

// RecordDownload upserts a completed download.
func (s *Store) RecordDownload(ctx context.Context, rec Record) error {
	if rec.Workno == "" || rec.Path == "" || rec.Variant == "" {
		return errors.New("record requires workno, path, and variant")
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	return s.execWithRetry(ctx, `
INSERT INTO downloads (workno, path, variant, bytes, descrambled, session_id, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (workno, path, variant) DO UPDATE SET
    bytes = excluded.bytes,
    descrambled = excluded.descrambled,
    session_id = excluded.session_id,
    created_at = excluded.created_at`,
		rec.Workno, rec.Path, rec.Variant, rec.Bytes, boolToInt(rec.Descrambled), rec.SessionID, createdAt.Format(time.RFC3339))
}

// Downloads returns the records for one workno in path order.
func (s *Store) Downloads(ctx context.Context, workno string) ([]Record, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `
SELECT id, workno, path, variant, bytes, descrambled, session_id, created_at
FROM downloads WHERE workno = ? ORDER BY path`, workno)
	if err != nil {
		return nil, fmt.Errorf("query downloads: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Worknos returns every workno present in the ledger with its record
// count, most recent first.
func (s *Store) Worknos(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT workno, COUNT(1) FROM downloads GROUP BY workno`)
	if err != nil {
		return nil, fmt.Errorf("query worknos: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var workno string
		var count int
		if err := rows.Scan(&workno, &count); err != nil {
			return nil, fmt.Errorf("scan workno row: %w", err)
		}
		counts[workno] = count
	}
	return counts, rows.Err()
}

// Completed reports whether workno already has at least total recorded
// downloads for the given variant.
func (s *Store) Completed(ctx context.Context, workno, variant string, total int) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT COUNT(1) FROM downloads WHERE workno = ? AND variant = ?`, workno, variant).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("count downloads: %w", err)
	}
	return count >= total, nil
}

// Has reports whether a specific asset download is already recorded.
func (s *Store) Has(ctx context.Context, workno, path, variant string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT COUNT(1) FROM downloads WHERE workno = ? AND path = ? AND variant = ?`,
		workno, path, variant).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("count downloads: %w", err)
	}
	return count > 0, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to reset)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return tx.Commit()
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var rec Record
	var descrambled int
	var createdAt string
	if err := row.Scan(&rec.ID, &rec.Workno, &rec.Path, &rec.Variant, &rec.Bytes, &descrambled, &rec.SessionID, &createdAt); err != nil {
		return Record{}, fmt.Errorf("scan download row: %w", err)
	}
	rec.Descrambled = descrambled != 0
	if ts, err := time.Parse(time.RFC3339, createdAt); err == nil {
		rec.CreatedAt = ts
	}
	return rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}
