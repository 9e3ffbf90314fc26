// Package book holds the ordered contact list and the filtered view the user
// currently sees. It is the only writer of the contact table.
package book

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"addressbook/internal/domain/contact"
	"addressbook/internal/domain/viewstate"
)

var (
	// ErrNotInBook means a removal named a contact the book does not hold.
	ErrNotInBook = errors.New("contact is not in the address book")
	// ErrDuplicateContact rejects a contact with the same name and the same phone or email.
	ErrDuplicateContact = errors.New("this contact already exists in the address book")
)

// ContactStore persists contacts.
type ContactStore interface {
	List(ctx context.Context) ([]contact.Contact, error)
	Save(ctx context.Context, c contact.Contact) (contact.Contact, error)
	Delete(ctx context.Context, id string) error
}

// ViewStore persists the filtered view between invocations.
type ViewStore interface {
	Get(ctx context.Context) (viewstate.State, error)
	Save(ctx context.Context, s viewstate.State) error
}

// Book is the record store: every contact in insertion order plus the active filter.
type Book struct {
	mu       sync.RWMutex
	contacts []contact.Contact
	state    viewstate.State
	store    ContactStore
	views    ViewStore
}

// Open loads the book from its stores.
// PRE: store and views are non-nil and migrated
// POST: Book holds every persisted contact ordered by position and the saved filter
func Open(ctx context.Context, store ContactStore, views ViewStore) (*Book, error) {
	contacts, err := store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load contacts: %w", err)
	}
	state, err := views.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load view state: %w", err)
	}
	return &Book{contacts: contacts, state: state, store: store, views: views}, nil
}

// FilteredView returns a copy of the contacts the active filter lets through.
// INVARIANT: order follows insertion order
func (b *Book) FilteredView() []contact.Contact {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return contact.Filter(b.contacts, b.state.Predicate())
}

// PositionToRecord returns the contact at the 1-based index of the filtered view.
func (b *Book) PositionToRecord(index int) (contact.Contact, bool) {
	view := b.FilteredView()
	if index < 1 || index > len(view) {
		return contact.Contact{}, false
	}
	return view[index-1], true
}

// All returns a copy of every contact regardless of the filter.
func (b *Book) All() []contact.Contact {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]contact.Contact, len(b.contacts))
	copy(out, b.contacts)
	return out
}

// Size returns the number of contacts in the book, ignoring the filter.
func (b *Book) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.contacts)
}

// ViewState returns the active filter.
func (b *Book) ViewState() viewstate.State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// Add validates c, rejects duplicates and appends it to the book.
// PRE: c has no Position; an empty ID is replaced with a fresh UUID
// POST: c is persisted and is the last contact in insertion order
func (b *Book) Add(ctx context.Context, c contact.Contact) (contact.Contact, error) {
	c.Normalize()
	if err := c.Validate(); err != nil {
		return contact.Contact{}, err
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.Position = 0

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, existing := range b.contacts {
		if c.IsDuplicateOf(existing) {
			return contact.Contact{}, ErrDuplicateContact
		}
	}
	saved, err := b.store.Save(ctx, c)
	if err != nil {
		return contact.Contact{}, fmt.Errorf("save contact: %w", err)
	}
	b.contacts = append(b.contacts, saved)
	return saved, nil
}

// Remove deletes c by identity.
// PRE: c was read from this book
// POST: c is gone from memory and from the store; ErrNotInBook if it was not held
func (b *Book) Remove(ctx context.Context, c contact.Contact) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	at := -1
	for i, existing := range b.contacts {
		if existing.ID == c.ID {
			at = i
			break
		}
	}
	if at < 0 {
		return fmt.Errorf("%w: %s", ErrNotInBook, c.ID)
	}
	if err := b.store.Delete(ctx, c.ID); err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	b.contacts = append(b.contacts[:at], b.contacts[at+1:]...)
	return nil
}

// UpdateFilter replaces the active filter and persists it.
// PRE: state passes Validate
// POST: FilteredView reflects state, also for later invocations
func (b *Book) UpdateFilter(ctx context.Context, state viewstate.State) error {
	if err := state.Validate(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.views.Save(ctx, state); err != nil {
		return fmt.Errorf("save view state: %w", err)
	}
	b.state = state
	return nil
}

// String summarises the book for debug logs.
func (b *Book) String() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d contacts, showing %s", len(b.contacts), b.state.Describe())
	return sb.String()
}
