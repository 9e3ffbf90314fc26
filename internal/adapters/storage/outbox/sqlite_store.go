package outbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"addressbook/internal/adapters/storage"
	domain "addressbook/internal/domain/outbox"
)

const (
	dateLayout = "2006-01-02T15:04:05.999999999Z07:00"
	columns    = `id, contact_id, payload, status, attempts, max_attempts, last_attempted_at, created_at, message_id, error_message`
)

// ErrNotFound is returned when no entry has the requested ID.
var ErrNotFound = errors.New("receipt outbox entry not found")

// SQLiteStore implements the outbox Store interface using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new outbox store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves an outbox entry by its ID.
// PRE: id is non-empty
// POST: Returns the entry or ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Entry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+columns+` FROM receipt_outbox WHERE id = ?`, id)
	e, err := scanEntry(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Entry{}, ErrNotFound
	}
	return e, err
}

// Save persists an outbox entry to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, e domain.Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	payload, err := json.Marshal(e.Message)
	if err != nil {
		return fmt.Errorf("encode receipt payload: %w", err)
	}
	lastAttemptedAt := ""
	if !e.LastAttemptedAt.IsZero() {
		lastAttemptedAt = e.LastAttemptedAt.UTC().Format(dateLayout)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO receipt_outbox (`+columns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   payload=excluded.payload, status=excluded.status,
		   attempts=excluded.attempts, max_attempts=excluded.max_attempts,
		   last_attempted_at=excluded.last_attempted_at, message_id=excluded.message_id,
		   error_message=excluded.error_message`,
		e.ID, e.ContactID, string(payload), e.Status, e.Attempts, e.MaxAttempts,
		lastAttemptedAt, e.CreatedAt.UTC().Format(dateLayout), e.MessageID, e.ErrorMessage)
	return err
}

// ListPending returns entries that still need sending (pending or retrying).
// PRE: limit > 0, offset >= 0
// POST: Returns up to limit entries ordered by created_at, then id, skipping the first offset
func (s *SQLiteStore) ListPending(ctx context.Context, limit, offset int) ([]domain.Entry, error) {
	return s.list(ctx,
		`SELECT `+columns+` FROM receipt_outbox WHERE status IN (?, ?) ORDER BY created_at ASC, id ASC LIMIT ? OFFSET ?`,
		domain.StatusPending, domain.StatusRetrying, limit, offset)
}

// ListFailed returns entries that have permanently failed.
// PRE: limit > 0
// POST: Returns up to limit failed entries ordered by last_attempted_at desc
func (s *SQLiteStore) ListFailed(ctx context.Context, limit int) ([]domain.Entry, error) {
	return s.list(ctx,
		`SELECT `+columns+` FROM receipt_outbox WHERE status = ? ORDER BY last_attempted_at DESC LIMIT ?`,
		domain.StatusFailed, limit)
}

func (s *SQLiteStore) list(ctx context.Context, query string, args ...any) ([]domain.Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.Entry
	for rows.Next() {
		e, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// scanEntry scans one row through the given Scan func (from *sql.Row or *sql.Rows).
func scanEntry(scan func(dest ...any) error) (domain.Entry, error) {
	var e domain.Entry
	var payload, createdAt, lastAttemptedAt string
	err := scan(&e.ID, &e.ContactID, &payload, &e.Status, &e.Attempts, &e.MaxAttempts,
		&lastAttemptedAt, &createdAt, &e.MessageID, &e.ErrorMessage)
	if err != nil {
		return domain.Entry{}, err
	}
	if err := json.Unmarshal([]byte(payload), &e.Message); err != nil {
		return domain.Entry{}, fmt.Errorf("decode receipt payload %s: %w", e.ID, err)
	}
	e.CreatedAt, _ = time.Parse(dateLayout, createdAt)
	if lastAttemptedAt != "" {
		e.LastAttemptedAt, _ = time.Parse(dateLayout, lastAttemptedAt)
	}
	return e, nil
}
