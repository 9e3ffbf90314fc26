package deletion

import (
	"context"

	domain "addressbook/internal/domain/deletion"
)

// Store persists the deletion log.
type Store interface {
	Append(ctx context.Context, entry domain.Entry) error
	ListRecent(ctx context.Context, limit int) ([]domain.Entry, error)
}

// Ensure SQLiteStore implements Store interface.
var _ Store = (*SQLiteStore)(nil)
