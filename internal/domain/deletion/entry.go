package deletion

import (
	"errors"
	"time"
)

// Entry records one completed deletion.
type Entry struct {
	ID          string
	ContactID   string
	ContactName string
	RequestKind string // index or name
	Query       string // the index or name as typed
	DeletedAt   time.Time
}

// Validate checks that the Entry has valid data.
// PRE: Entry fields may be empty
// POST: Returns nil if valid, error otherwise
// INVARIANT: ID, ContactID, RequestKind and DeletedAt must be set
func (e *Entry) Validate() error {
	if e.ID == "" {
		return errors.New("entry id is required")
	}
	if e.ContactID == "" {
		return errors.New("contact_id is required")
	}
	if e.RequestKind != KindIndex && e.RequestKind != KindName {
		return errors.New("request kind must be 'index' or 'name'")
	}
	if e.DeletedAt.IsZero() {
		return errors.New("deleted_at must be set")
	}
	return nil
}
