package orchestrators

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"addressbook/internal/application/book"
	"addressbook/internal/domain/contact"
	"addressbook/internal/logging"
)

// SeedContactsDeps holds dependencies for SeedContacts.
type SeedContactsDeps struct {
	Book BookForAdd
}

// SampleContacts returns the sample address book, including two different people named George Best.
func SampleContacts() []contact.Contact {
	return []contact.Contact{
		{Name: "Alice Pauline", Phone: "94351253", Email: "alice@example.com", Address: "123, Jurong West Ave 6, #08-111",
			Class: "K1A", Birthday: "15-03-2018", Note: "She likes aardvarks.", Tags: []string{"friends"}},
		{Name: "Benson Meier", Phone: "98765432", Email: "johnd@example.com", Address: "311, Clementi Ave 2, #02-25",
			Class: "K1B", Birthday: "24-12-2017", Note: "He can't take beer!", Tags: []string{"owesMoney", "friends"}},
		{Name: "Carl Kurz", Phone: "95352563", Email: "heinz@example.com", Address: "wall street",
			Class: "K1C", Birthday: "08-05-2018", Tags: []string{"colleague"}},
		{Name: "Daniel Meier", Phone: "87652533", Email: "cornelia@example.com", Address: "10th street",
			Class: "K2A", Birthday: "30-01-2017", Tags: []string{"friends"}},
		{Name: "Elle Meyer", Phone: "94822240", Email: "werner@example.com", Address: "michegan ave",
			Class: "K2B", Birthday: "14-07-2017", Tags: []string{"student"}},
		{Name: "Fiona Kunz", Phone: "94824270", Email: "lydia@example.com", Address: "little tokyo",
			Class: "K2C", Birthday: "03-11-2018"},
		{Name: "George Best", Phone: "94824420", Email: "anna@example.com", Address: "4th street",
			Class: "Nursery", Birthday: "19-09-2019"},
		{Name: "George Best", Phone: "94824888", Email: "annaa@example.com", Address: "4th street",
			Class: "Nursery", Birthday: "19-09-2019"},
	}
}

// ExecuteSeedContacts adds the sample contacts, skipping any already present.
// PRE: none
// POST: Every sample contact exists exactly once; returns how many were added
func ExecuteSeedContacts(ctx context.Context, deps SeedContactsDeps) (int, error) {
	added := 0
	for _, c := range SampleContacts() {
		_, err := deps.Book.Add(ctx, c)
		if errors.Is(err, book.ErrDuplicateContact) {
			continue
		}
		if err != nil {
			return added, err
		}
		added++
	}
	logging.FromContext(ctx).Info("contact_event", zap.String("event", "contacts_seeded"), zap.Int("added", added))
	return added, nil
}
