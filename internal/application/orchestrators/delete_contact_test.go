package orchestrators

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"addressbook/internal/application/book"
	"addressbook/internal/domain/contact"
	"addressbook/internal/domain/deletion"
)

// fakeBook is an in-memory BookForDeletion.
type fakeBook struct {
	contacts []contact.Contact
	removed  []string
}

func (b *fakeBook) FilteredView() []contact.Contact {
	out := make([]contact.Contact, len(b.contacts))
	copy(out, b.contacts)
	return out
}

func (b *fakeBook) Remove(_ context.Context, c contact.Contact) error {
	for i, existing := range b.contacts {
		if existing.ID == c.ID {
			b.contacts = append(b.contacts[:i], b.contacts[i+1:]...)
			b.removed = append(b.removed, c.ID)
			return nil
		}
	}
	return book.ErrNotInBook
}

func (b *fakeBook) size() int { return len(b.contacts) }

// scriptedConfirmer answers from fixed decisions and records what it was asked.
type scriptedConfirmer struct {
	confirm    bool
	pick       int // 1-based index into candidates, 0 declines
	err        error
	singleSeen []contact.Contact
	chooseSeen [][]contact.Contact
}

func (c *scriptedConfirmer) ConfirmSingle(_ context.Context, ct contact.Contact) (bool, error) {
	c.singleSeen = append(c.singleSeen, ct)
	return c.confirm, c.err
}

func (c *scriptedConfirmer) Choose(_ context.Context, candidates []contact.Contact) (contact.Contact, bool, error) {
	c.chooseSeen = append(c.chooseSeen, candidates)
	if c.err != nil || c.pick == 0 {
		return contact.Contact{}, false, c.err
	}
	return candidates[c.pick-1], true, nil
}

func (c *scriptedConfirmer) calls() int { return len(c.singleSeen) + len(c.chooseSeen) }

type recordingNotifier struct {
	messages []string
}

func (n *recordingNotifier) Notify(_ context.Context, msg string) {
	n.messages = append(n.messages, msg)
}

type memoryLog struct {
	entries []deletion.Entry
	err     error
}

func (l *memoryLog) Append(_ context.Context, e deletion.Entry) error {
	if l.err != nil {
		return l.err
	}
	l.entries = append(l.entries, e)
	return nil
}

var stubTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func stubNow() time.Time { return stubTime }
func stubID() string     { return "log-001" }

func typical() []contact.Contact {
	return []contact.Contact{
		{ID: "a", Name: "Alice Pauline", Phone: "94351253", Email: "alice@example.com", Address: "123, Jurong West Ave 6, #08-111", Tags: []string{"friends"}},
		{ID: "b", Name: "Benson Meier", Phone: "98765432", Email: "johnd@example.com", Address: "311, Clementi Ave 2, #02-25", Tags: []string{"owesMoney", "friends"}},
		{ID: "c", Name: "Carl Kurz", Phone: "95352563", Email: "heinz@example.com", Address: "wall street"},
	}
}

func withGeorges() []contact.Contact {
	return append(typical(),
		contact.Contact{ID: "g1", Name: "George Best", Phone: "94824420", Email: "anna@example.com"},
		contact.Contact{ID: "g2", Name: "George Best", Phone: "94824421", Email: "best@example.com"},
	)
}

func deps(b *fakeBook, c Confirmer, n *recordingNotifier, l *memoryLog) DeleteContactDeps {
	return DeleteContactDeps{
		Book:        b,
		Confirmer:   c,
		Notifier:    n,
		DeletionLog: l,
		GenerateID:  stubID,
		Now:         stubNow,
	}
}

func byName(t *testing.T, name string) deletion.Request {
	t.Helper()
	r, err := deletion.NewByName(name)
	require.NoError(t, err)
	return r
}

// TestExecuteDeleteContact_ByIndexConfirmed deletes the first contact after confirmation.
func TestExecuteDeleteContact_ByIndexConfirmed(t *testing.T) {
	b := &fakeBook{contacts: typical()}
	conf := &scriptedConfirmer{confirm: true}
	notif := &recordingNotifier{}
	log := &memoryLog{}
	alice := typical()[0]

	res, err := ExecuteDeleteContact(context.Background(),
		DeleteContactInput{Request: deletion.ByPosition{Index: 1}},
		deps(b, conf, notif, log))
	require.NoError(t, err)

	assert.Equal(t, deletion.MessageDeleteSuccess+contact.Format(alice), res.Message)
	assert.True(t, strings.HasPrefix(res.Message, "Deleted Contact: Alice Pauline; Phone: 94351253"))
	assert.Equal(t, "by_index", res.Outcome)
	assert.Equal(t, []string{"a"}, b.removed)
	assert.Equal(t, 2, b.size())
	assert.Equal(t, []contact.Contact{alice}, conf.singleSeen)
	assert.Empty(t, notif.messages)

	require.Len(t, log.entries, 1)
	assert.Equal(t, deletion.Entry{
		ID:          "log-001",
		ContactID:   "a",
		ContactName: "Alice Pauline",
		RequestKind: deletion.KindIndex,
		Query:       "1",
		DeletedAt:   stubTime,
	}, log.entries[0])
}

// TestExecuteDeleteContact_MultipleMatchesPickSecond removes only the chosen duplicate.
func TestExecuteDeleteContact_MultipleMatchesPickSecond(t *testing.T) {
	b := &fakeBook{contacts: withGeorges()}
	conf := &scriptedConfirmer{pick: 2}
	notif := &recordingNotifier{}

	res, err := ExecuteDeleteContact(context.Background(),
		DeleteContactInput{Request: byName(t, "george best")},
		deps(b, conf, notif, &memoryLog{}))
	require.NoError(t, err)

	require.Len(t, conf.chooseSeen, 1)
	var offeredIDs []string
	for _, c := range conf.chooseSeen[0] {
		offeredIDs = append(offeredIDs, c.ID)
	}
	if diff := cmp.Diff([]string{"g1", "g2"}, offeredIDs); diff != "" {
		t.Errorf("candidates mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, conf.singleSeen)
	assert.Equal(t, "g2", res.Deleted.ID)
	assert.Equal(t, []string{"g2"}, b.removed)
	assert.Equal(t, "multiple_matches", res.Outcome)
}

// TestExecuteDeleteContact_NoMatchNotifies raises NoMatchesFound after notifying once.
func TestExecuteDeleteContact_NoMatchNotifies(t *testing.T) {
	b := &fakeBook{contacts: typical()}
	conf := &scriptedConfirmer{confirm: true}
	notif := &recordingNotifier{}
	log := &memoryLog{}

	_, err := ExecuteDeleteContact(context.Background(),
		DeleteContactInput{Request: byName(t, "Random Name")},
		deps(b, conf, notif, log))

	assert.ErrorIs(t, err, deletion.ErrNoMatchesFound)
	assert.Equal(t, []string{"No matches found"}, notif.messages)
	assert.Zero(t, conf.calls())
	assert.Equal(t, 3, b.size())
	assert.Empty(t, log.entries)
}

// TestExecuteDeleteContact_InvalidIndexTouchesNoSurface covers out-of-range positions.
func TestExecuteDeleteContact_InvalidIndexTouchesNoSurface(t *testing.T) {
	for _, idx := range []int{99, 4, 0, -1} {
		b := &fakeBook{contacts: typical()}
		conf := &scriptedConfirmer{confirm: true}
		notif := &recordingNotifier{}

		_, err := ExecuteDeleteContact(context.Background(),
			DeleteContactInput{Request: deletion.ByPosition{Index: idx}},
			deps(b, conf, notif, &memoryLog{}))

		assert.ErrorIs(t, err, deletion.ErrInvalidIndex, "index %d", idx)
		assert.Equal(t, "The contact index provided is invalid", err.Error())
		assert.Zero(t, conf.calls())
		assert.Empty(t, notif.messages)
		assert.Equal(t, 3, b.size())
	}
}

// TestExecuteDeleteContact_DeclineNeverMutates covers both confirmation paths.
func TestExecuteDeleteContact_DeclineNeverMutates(t *testing.T) {
	tests := []struct {
		name string
		req  deletion.Request
	}{
		{name: "by index", req: deletion.ByPosition{Index: 2}},
		{name: "single match", req: deletion.ByName{Name: "Carl Kurz"}},
		{name: "multiple matches", req: deletion.ByName{Name: "George Best"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &fakeBook{contacts: withGeorges()}
			before := b.size()
			conf := &scriptedConfirmer{confirm: false, pick: 0}
			notif := &recordingNotifier{}
			log := &memoryLog{}

			_, err := ExecuteDeleteContact(context.Background(), DeleteContactInput{Request: tt.req}, deps(b, conf, notif, log))

			assert.ErrorIs(t, err, deletion.ErrDeletionCancelled)
			assert.Equal(t, before, b.size())
			assert.Equal(t, 1, conf.calls())
			assert.Empty(t, notif.messages)
			assert.Empty(t, log.entries)
		})
	}
}

// TestExecuteDeleteContact_RepeatResolvesDifferently checks a second identical request.
func TestExecuteDeleteContact_RepeatResolvesDifferently(t *testing.T) {
	b := &fakeBook{contacts: typical()}
	conf := &scriptedConfirmer{confirm: true}
	notif := &recordingNotifier{}
	d := deps(b, conf, notif, &memoryLog{})
	req := DeleteContactInput{Request: byName(t, "CARL KURZ")}

	res, err := ExecuteDeleteContact(context.Background(), req, d)
	require.NoError(t, err)
	assert.Equal(t, "single_match", res.Outcome)

	_, err = ExecuteDeleteContact(context.Background(), req, d)
	assert.ErrorIs(t, err, deletion.ErrNoMatchesFound)
	assert.Len(t, b.removed, 1)
}

// TestExecuteDeleteContact_SurfaceErrorLeavesBook propagates confirmer failures.
func TestExecuteDeleteContact_SurfaceErrorLeavesBook(t *testing.T) {
	b := &fakeBook{contacts: typical()}
	surfaceErr := errors.New("terminal closed")
	conf := &scriptedConfirmer{err: surfaceErr}

	_, err := ExecuteDeleteContact(context.Background(),
		DeleteContactInput{Request: deletion.ByPosition{Index: 1}},
		deps(b, conf, &recordingNotifier{}, &memoryLog{}))

	assert.ErrorIs(t, err, surfaceErr)
	assert.False(t, deletion.IsUserFacing(err))
	assert.Equal(t, 3, b.size())
}

// TestExecuteDeleteContact_LogFailureKeepsDeletion treats the log as best effort.
func TestExecuteDeleteContact_LogFailureKeepsDeletion(t *testing.T) {
	b := &fakeBook{contacts: typical()}
	log := &memoryLog{err: errors.New("disk full")}

	res, err := ExecuteDeleteContact(context.Background(),
		DeleteContactInput{Request: deletion.ByPosition{Index: 3}},
		deps(b, &scriptedConfirmer{confirm: true}, &recordingNotifier{}, log))

	require.NoError(t, err)
	assert.Equal(t, "c", res.Deleted.ID)
	assert.Equal(t, 2, b.size())
}

// TestExecuteDeleteContact_RejectsUnofferedChoice guards against a misbehaving surface.
func TestExecuteDeleteContact_RejectsUnofferedChoice(t *testing.T) {
	b := &fakeBook{contacts: withGeorges()}
	_, err := ExecuteDeleteContact(context.Background(),
		DeleteContactInput{Request: deletion.ByName{Name: "George Best"}},
		deps(b, &liarConfirmer{}, &recordingNotifier{}, &memoryLog{}))

	assert.ErrorIs(t, err, ErrChoiceNotOffered)
	assert.Equal(t, 5, b.size())
}

type liarConfirmer struct{}

func (liarConfirmer) ConfirmSingle(context.Context, contact.Contact) (bool, error) { return true, nil }
func (liarConfirmer) Choose(context.Context, []contact.Contact) (contact.Contact, bool, error) {
	return contact.Contact{ID: "a", Name: "Alice Pauline"}, true, nil
}

// TestExecuteDeleteContact_RequiresRequest rejects a nil request.
func TestExecuteDeleteContact_RequiresRequest(t *testing.T) {
	b := &fakeBook{contacts: typical()}
	_, err := ExecuteDeleteContact(context.Background(), DeleteContactInput{}, deps(b, &scriptedConfirmer{}, &recordingNotifier{}, &memoryLog{}))
	assert.Error(t, err)
}
