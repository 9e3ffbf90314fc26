package outbox_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"addressbook/internal/adapters/storage"
	store "addressbook/internal/adapters/storage/outbox"
	domain "addressbook/internal/domain/outbox"
)

func openStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	db, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, storage.MigrateDB(db))
	return store.NewSQLiteStore(db)
}

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func failed(id string, created time.Time) domain.Entry {
	return domain.NewFailedEntry(id, "c-"+id, domain.Message{
		To:      []string{"office@example.com", "desk@example.com"},
		From:    "Address Book <receipts@example.com>",
		Subject: "Contact deleted: " + id,
		HTML:    "<p>Deleted Contact: " + id + "</p>",
	}, errors.New("smtp down"), created)
}

func TestSaveAndGetRoundTripsMessage(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	e := failed("r1", t0)

	require.NoError(t, s.Save(ctx, e))
	got, err := s.GetByID(ctx, "r1")
	require.NoError(t, err)

	if diff := cmp.Diff(e, got); diff != "" {
		t.Errorf("entry mismatch (-want +got):\n%s", diff)
	}
}

func TestGetMissing(t *testing.T) {
	_, err := openStore(t).GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSaveRejectsInvalid(t *testing.T) {
	e := failed("r1", t0)
	e.Message.To = nil
	assert.ErrorIs(t, openStore(t).Save(context.Background(), e), domain.ErrEmptyRecipients)
}

func TestListPendingAndFailed(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	older := failed("older", t0)
	newer := failed("newer", t0.Add(time.Minute))
	done := failed("done", t0)
	done.MarkSuccess("msg-1")
	dead := failed("dead", t0)
	dead.Attempts = dead.MaxAttempts
	dead.MarkFailed(errors.New("gave up"))

	for _, e := range []domain.Entry{newer, done, dead, older} {
		require.NoError(t, s.Save(ctx, e))
	}

	pending, err := s.ListPending(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "older", pending[0].ID)
	assert.Equal(t, "newer", pending[1].ID)

	gone, err := s.ListFailed(ctx, 10)
	require.NoError(t, err)
	require.Len(t, gone, 1)
	assert.Equal(t, "dead", gone[0].ID)
}

func TestSaveUpdatesInPlace(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	e := failed("r1", t0)
	require.NoError(t, s.Save(ctx, e))

	e.MarkAttempt(t0.Add(time.Minute))
	e.MarkSuccess("msg-9")
	require.NoError(t, s.Save(ctx, e))

	got, err := s.GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDone, got.Status)
	assert.Equal(t, 2, got.Attempts)
	assert.Equal(t, "msg-9", got.MessageID)
}

func TestListPendingPages(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.Save(ctx, failed(id, t0)))
	}

	first, err := s.ListPending(ctx, 2, 0)
	require.NoError(t, err)
	rest, err := s.ListPending(ctx, 2, 2)
	require.NoError(t, err)

	require.Len(t, first, 2)
	assert.Equal(t, "a", first[0].ID)
	assert.Equal(t, "b", first[1].ID)
	require.Len(t, rest, 1)
	assert.Equal(t, "c", rest[0].ID)
}
