package viewstate

import (
	"context"

	domain "addressbook/internal/domain/viewstate"
)

// Store persists the current filtered view.
type Store interface {
	Get(ctx context.Context) (domain.State, error)
	Save(ctx context.Context, value domain.State) error
}

// Ensure SQLiteStore implements Store interface.
var _ Store = (*SQLiteStore)(nil)
