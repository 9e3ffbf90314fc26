package orchestrators

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"addressbook/internal/domain/contact"
	"addressbook/internal/domain/viewstate"
	"addressbook/internal/logging"
)

// BookForFilter is the part of the record store that owns the filtered view.
type BookForFilter interface {
	UpdateFilter(ctx context.Context, state viewstate.State) error
	FilteredView() []contact.Contact
}

// FilterContactsInput carries the view the user asked for.
type FilterContactsInput struct {
	State viewstate.State
}

// FilterContactsDeps holds dependencies for FilterContacts.
type FilterContactsDeps struct {
	Book BookForFilter
}

// FilterContactsResult is the new view and a summary line.
type FilterContactsResult struct {
	Message string
	View    []contact.Contact
}

// ExecuteFilterContacts replaces the filtered view (find, tag or clear).
// PRE: input.State passes Validate
// POST: The filter is persisted; positional indices now refer to View
func ExecuteFilterContacts(ctx context.Context, input FilterContactsInput, deps FilterContactsDeps) (FilterContactsResult, error) {
	if err := deps.Book.UpdateFilter(ctx, input.State); err != nil {
		return FilterContactsResult{}, err
	}
	view := deps.Book.FilteredView()
	logging.FromContext(ctx).Debug("contact_event",
		zap.String("event", "view_changed"),
		zap.String("view", input.State.Describe()),
		zap.Int("visible", len(view)),
	)
	return FilterContactsResult{Message: ListedMessage(input.State, len(view)), View: view}, nil
}

// ListedMessage summarises a view, e.g. "2 contacts listed (name: meier)".
func ListedMessage(state viewstate.State, n int) string {
	noun := "contacts"
	if n == 1 {
		noun = "contact"
	}
	if state.Mode == viewstate.ModeAll || state.Mode == "" {
		return fmt.Sprintf("Listed all %d %s", n, noun)
	}
	return fmt.Sprintf("%d %s listed (%s)", n, noun, state.Describe())
}
