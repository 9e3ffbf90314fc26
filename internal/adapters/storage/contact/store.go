package contact

import (
	"context"

	domain "addressbook/internal/domain/contact"
)

// Store persists Contact state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Contact, error)
	Save(ctx context.Context, value domain.Contact) (domain.Contact, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]domain.Contact, error)
	Count(ctx context.Context) (int, error)
}

// Ensure SQLiteStore implements Store interface.
var _ Store = (*SQLiteStore)(nil)
