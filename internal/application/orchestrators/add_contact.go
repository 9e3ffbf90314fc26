package orchestrators

import (
	"context"

	"go.uber.org/zap"

	"addressbook/internal/domain/contact"
	"addressbook/internal/logging"
)

// BookForAdd is the part of the record store used when adding contacts.
type BookForAdd interface {
	Add(ctx context.Context, c contact.Contact) (contact.Contact, error)
}

// AddContactInput carries input for the add orchestrator.
type AddContactInput struct {
	Contact contact.Contact
}

// AddContactDeps holds dependencies for AddContact.
type AddContactDeps struct {
	Book BookForAdd
}

// MessageAddSuccess is the label placed in front of a newly added contact.
const MessageAddSuccess = "New contact added: "

// ExecuteAddContact validates and appends a contact.
// PRE: input.Contact has a name, phone and email
// POST: Contact is persisted at the end of the list; returns the success message
func ExecuteAddContact(ctx context.Context, input AddContactInput, deps AddContactDeps) (string, contact.Contact, error) {
	saved, err := deps.Book.Add(ctx, input.Contact)
	if err != nil {
		return "", contact.Contact{}, err
	}
	logging.FromContext(ctx).Info("contact_event", zap.String("event", "contact_added"), zap.String("contact_id", saved.ID))
	return MessageAddSuccess + contact.Format(saved), saved, nil
}
