package deletion

import (
	"context"
	"time"

	"addressbook/internal/adapters/storage"
	domain "addressbook/internal/domain/deletion"
)

const dateLayout = "2006-01-02T15:04:05.999999999Z07:00"

// SQLiteStore implements the deletion Store interface using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new deletion log store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Append records a completed deletion.
// PRE: entry has been validated
// POST: Entry is persisted; existing entries are never rewritten
func (s *SQLiteStore) Append(ctx context.Context, e domain.Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO deletion_log (id, contact_id, contact_name, request_kind, query, deleted_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.ContactID, e.ContactName, e.RequestKind, e.Query, e.DeletedAt.UTC().Format(dateLayout))
	return err
}

// ListRecent returns the newest entries first.
// PRE: limit > 0
// POST: Returns up to limit entries ordered by deleted_at descending
func (s *SQLiteStore) ListRecent(ctx context.Context, limit int) ([]domain.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, contact_id, contact_name, request_kind, query, deleted_at
		 FROM deletion_log ORDER BY deleted_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Entry
	for rows.Next() {
		var e domain.Entry
		var deletedAt string
		if err := rows.Scan(&e.ID, &e.ContactID, &e.ContactName, &e.RequestKind, &e.Query, &deletedAt); err != nil {
			return nil, err
		}
		e.DeletedAt, _ = time.Parse(dateLayout, deletedAt)
		results = append(results, e)
	}
	return results, rows.Err()
}
