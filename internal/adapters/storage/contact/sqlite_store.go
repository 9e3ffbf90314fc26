package contact

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"addressbook/internal/adapters/storage"
	domain "addressbook/internal/domain/contact"
)

// ErrNotFound is returned when no contact has the requested ID.
var ErrNotFound = errors.New("contact not found")

const selectColumns = "SELECT id, position, name, phone, email, address, class, birthday, note, tags, favourite FROM contact"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new contact store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Contact by its ID.
// PRE: id is non-empty
// POST: Returns the entity or ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Contact, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id)
	c, err := scanContact(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Contact{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return c, err
}

// Save persists a Contact, appending it to the end of the list when it has no position yet.
// PRE: entity has been validated and has an ID
// POST: Entity is persisted (insert or update); the returned copy carries its position
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Contact) (domain.Contact, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Contact{}, err
	}
	defer tx.Rollback()

	if entity.Position <= 0 {
		var maxPos sql.NullInt64
		if err := tx.QueryRowContext(ctx, "SELECT MAX(position) FROM contact").Scan(&maxPos); err != nil {
			return domain.Contact{}, err
		}
		entity.Position = int(maxPos.Int64) + 1
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO contact (id, position, name, phone, email, address, class, birthday, note, tags, favourite)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			position=excluded.position, name=excluded.name, phone=excluded.phone, email=excluded.email,
			address=excluded.address, class=excluded.class, birthday=excluded.birthday, note=excluded.note,
			tags=excluded.tags, favourite=excluded.favourite`,
		entity.ID,
		entity.Position,
		entity.Name,
		entity.Phone,
		entity.Email,
		entity.Address,
		entity.Class,
		entity.Birthday,
		entity.Note,
		strings.Join(entity.Tags, " "),
		entity.Favourite,
	)
	if err != nil {
		return domain.Contact{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Contact{}, err
	}
	return entity, nil
}

// Delete removes a Contact from the database.
// PRE: id is non-empty
// POST: Entity with given id is removed; ErrNotFound if nothing was removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM contact WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// List returns every contact in insertion order.
// PRE: none
// POST: Returns entities ordered by position
func (s *SQLiteStore) List(ctx context.Context) ([]domain.Contact, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+" ORDER BY position ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Contact
	for rows.Next() {
		c, err := scanContact(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, c)
	}
	return results, rows.Err()
}

// Count returns the number of stored contacts.
// POST: Returns count >= 0
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM contact").Scan(&n)
	return n, err
}

// scanContact scans one row through the given scan function (Row.Scan or Rows.Scan).
func scanContact(scan func(dest ...any) error) (domain.Contact, error) {
	var c domain.Contact
	var tags string
	if err := scan(
		&c.ID,
		&c.Position,
		&c.Name,
		&c.Phone,
		&c.Email,
		&c.Address,
		&c.Class,
		&c.Birthday,
		&c.Note,
		&tags,
		&c.Favourite,
	); err != nil {
		return domain.Contact{}, err
	}
	c.Tags = strings.Fields(tags)
	return c, nil
}
