package viewstate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"addressbook/internal/adapters/storage"
	domain "addressbook/internal/domain/viewstate"
)

// currentKey is the single row the address book reads and writes.
const currentKey = "current"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new view state store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Get returns the persisted view state.
// POST: Returns domain.All() when nothing has been saved yet
// INVARIANT: Store state is not mutated
func (s *SQLiteStore) Get(ctx context.Context) (domain.State, error) {
	var st domain.State
	var keywords string
	err := s.db.QueryRowContext(ctx,
		`SELECT mode, keywords FROM view_state WHERE key = ?`, currentKey).Scan(&st.Mode, &keywords)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.All(), nil
	}
	if err != nil {
		return domain.State{}, err
	}
	st.Keywords = strings.Fields(keywords)
	return st, nil
}

// Save upserts the view state.
// PRE: value passes Validate
// POST: Get returns value
func (s *SQLiteStore) Save(ctx context.Context, value domain.State) error {
	if err := value.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO view_state (key, mode, keywords) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET mode=excluded.mode, keywords=excluded.keywords`,
		currentKey, value.Mode, strings.Join(value.Keywords, " "))
	if err != nil {
		return fmt.Errorf("save view_state: %w", err)
	}
	return nil
}
