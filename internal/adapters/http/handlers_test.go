package web

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"addressbook/internal/adapters/storage"
	contactstore "addressbook/internal/adapters/storage/contact"
	deletionstore "addressbook/internal/adapters/storage/deletion"
	viewstore "addressbook/internal/adapters/storage/viewstate"
	"addressbook/internal/application/book"
	"addressbook/internal/application/orchestrators"
	"addressbook/internal/domain/contact"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"))
}

type fixture struct {
	handler  http.Handler
	book     *book.Book
	log      *deletionstore.SQLiteStore
	receipts []orchestrators.DeleteContactResult
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, storage.MigrateDB(db))

	b, err := book.Open(ctx, contactstore.NewSQLiteStore(db), viewstore.NewSQLiteStore(db))
	require.NoError(t, err)
	_, err = orchestrators.ExecuteSeedContacts(ctx, orchestrators.SeedContactsDeps{Book: b})
	require.NoError(t, err)

	f := &fixture{book: b, log: deletionstore.NewSQLiteStore(db)}
	srv, err := NewServer(Deps{
		Book:        b,
		DeletionLog: f.log,
		AfterDelete: func(_ context.Context, res orchestrators.DeleteContactResult) {
			f.receipts = append(f.receipts, res)
		},
		CSRFKey:            bytes.Repeat([]byte("k"), 32),
		RateLimitPerSecond: 1000,
	})
	require.NoError(t, err)
	t.Cleanup(srv.Close)
	f.handler = srv.Handler()
	return f
}

var tokenPattern = regexp.MustCompile(`name="gorilla.csrf.Token" value="([^"]+)"`)

type session struct {
	cookies []*http.Cookie
	token   string
}

func (f *fixture) get(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	return rr
}

func (f *fixture) session(t *testing.T) session {
	t.Helper()
	rr := f.get(t, "/contacts")
	require.Equal(t, http.StatusOK, rr.Code)
	m := tokenPattern.FindStringSubmatch(rr.Body.String())
	require.Len(t, m, 2, "csrf field missing from page")
	return session{cookies: rr.Result().Cookies(), token: m[1]}
}

func (f *fixture) post(t *testing.T, s session, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	return f.postTo(t, "/contacts/delete", s, form)
}

func (f *fixture) postTo(t *testing.T, path string, s session, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	if s.token != "" {
		form.Set("gorilla.csrf.Token", s.token)
	}
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range s.cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	return rr
}

func (f *fixture) idsNamed(name string) []string {
	var ids []string
	for _, c := range f.book.FilteredView() {
		if c.NameMatches(name) {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

func TestContactsPageNumbersTheView(t *testing.T) {
	f := newFixture(t)
	rr := f.get(t, "/contacts")

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, `id="contact-1"`)
	assert.Contains(t, body, `id="contact-8"`)
	assert.Contains(t, body, "Alice Pauline")
	assert.Equal(t, 2, strings.Count(body, "George Best</h3>"))
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
}

func TestDeleteByIndexAsksThenDeletes(t *testing.T) {
	f := newFixture(t)
	s := f.session(t)

	preview := f.post(t, s, url.Values{"target": {"1"}})
	require.Equal(t, http.StatusOK, preview.Code)
	assert.Contains(t, preview.Body.String(), "Delete this contact?")
	assert.Contains(t, preview.Body.String(), "Alice Pauline")
	assert.Equal(t, 8, f.book.Size(), "preview must not delete")

	alice := f.idsNamed("Alice Pauline")[0]
	rr := f.post(t, s, url.Values{"target": {"1"}, "confirm": {"yes"}, "choice": {alice}})

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Deleted Contact: Alice Pauline; Phone: 94351253")
	assert.Equal(t, 7, f.book.Size())
	require.Len(t, f.receipts, 1)
	assert.Equal(t, "Alice Pauline", f.receipts[0].Deleted.Name)

	entries, err := f.log.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, alice, entries[0].ContactID)
}

func TestDeleteByNamePicksAmongDuplicates(t *testing.T) {
	f := newFixture(t)
	s := f.session(t)

	preview := f.post(t, s, url.Values{"target": {"george best"}})
	require.Equal(t, http.StatusOK, preview.Code)
	assert.Equal(t, 2, strings.Count(preview.Body.String(), `type="radio"`))

	georges := f.idsNamed("George Best")
	require.Len(t, georges, 2)
	rr := f.post(t, s, url.Values{"target": {"george best"}, "confirm": {"yes"}, "choice": {georges[1]}})

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Phone: 94824888")
	assert.Equal(t, []string{georges[0]}, f.idsNamed("George Best"))
}

func TestDeleteCancelLeavesBook(t *testing.T) {
	f := newFixture(t)
	s := f.session(t)
	alice := f.idsNamed("Alice Pauline")[0]

	rr := f.post(t, s, url.Values{"target": {"Alice Pauline"}, "confirm": {"no"}, "choice": {alice}})

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Deletion cancelled")
	assert.Equal(t, 8, f.book.Size())
	assert.Empty(t, f.receipts)
}

func TestDeleteStaleChoiceIsCancelled(t *testing.T) {
	f := newFixture(t)
	s := f.session(t)

	rr := f.post(t, s, url.Values{"target": {"1"}, "confirm": {"yes"}, "choice": {"someone-else"}})

	assert.Contains(t, rr.Body.String(), "Deletion cancelled")
	assert.Equal(t, 8, f.book.Size())
}

func TestDeleteNoMatchReportedOnce(t *testing.T) {
	f := newFixture(t)
	s := f.session(t)

	rr := f.post(t, s, url.Values{"target": {"Nobody Here"}})

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, 1, strings.Count(rr.Body.String(), "No matches found"))
	assert.Equal(t, 8, f.book.Size())
}

func TestDeleteInvalidIndex(t *testing.T) {
	f := newFixture(t)
	s := f.session(t)

	for _, target := range []string{"99", "0", "-3"} {
		rr := f.post(t, s, url.Values{"target": {target}})
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code, target)
		assert.Contains(t, rr.Body.String(), "The contact index provided is invalid", target)
	}
	assert.Equal(t, 8, f.book.Size())
}

func TestDeleteEmptyTarget(t *testing.T) {
	f := newFixture(t)
	rr := f.post(t, f.session(t), url.Values{"target": {"   "}})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestDeleteUsesFilteredIndex(t *testing.T) {
	f := newFixture(t)

	s := f.session(t)
	rr := f.postTo(t, "/contacts/filter", s, url.Values{"find": {"meier"}})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "2 contacts listed (name: meier)")

	preview := f.post(t, s, url.Values{"target": {"2"}})
	assert.Contains(t, preview.Body.String(), "Daniel Meier")
	assert.NotContains(t, preview.Body.String(), "Benson Meier")
}

func TestContactsGetLeavesViewAlone(t *testing.T) {
	f := newFixture(t)
	rr := f.get(t, "/contacts?find=meier&tag=friends")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "all contacts", f.book.ViewState().Describe())
	assert.Len(t, f.book.FilteredView(), 8)
}

func TestFilterRejectsMissingCSRFToken(t *testing.T) {
	f := newFixture(t)
	rr := f.postTo(t, "/contacts/filter", session{}, url.Values{"find": {"meier"}})

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "all contacts", f.book.ViewState().Describe())
}

func TestFilterTagThenClear(t *testing.T) {
	f := newFixture(t)
	s := f.session(t)

	rr := f.postTo(t, "/contacts/filter", s, url.Values{"tag": {"friends"}})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "tag: friends", f.book.ViewState().Describe())

	rr = f.postTo(t, "/contacts/filter", s, url.Values{"clear": {"1"}})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, f.book.FilteredView(), 8)
}

func TestFilterWithoutKeywords(t *testing.T) {
	f := newFixture(t)
	rr := f.postTo(t, "/contacts/filter", f.session(t), url.Values{"find": {"  "}})

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "enter a name or tag to filter by")
}

func TestDeleteRejectsMissingCSRFToken(t *testing.T) {
	f := newFixture(t)
	rr := f.post(t, session{}, url.Values{"target": {"1"}, "confirm": {"yes"}})

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, 8, f.book.Size())
}

func TestDeletionsPageListsLog(t *testing.T) {
	f := newFixture(t)
	s := f.session(t)
	carl := f.idsNamed("Carl Kurz")[0]
	f.post(t, s, url.Values{"target": {"Carl Kurz"}, "confirm": {"yes"}, "choice": {carl}})

	rr := f.get(t, "/deletions")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Carl Kurz")
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t)

	rr := f.get(t, "/healthz")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok 8 contacts\n", rr.Body.String())

	rr = f.get(t, "/metrics")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "addressbook_")
}

func TestRootRedirects(t *testing.T) {
	f := newFixture(t)
	rr := f.get(t, "/")
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/contacts", rr.Header().Get("Location"))
}

func TestFormConfirmer(t *testing.T) {
	a := contact.Contact{ID: "a"}
	b := contact.Contact{ID: "b"}
	ctx := context.Background()

	ok, _ := formConfirmer{confirm: true, choice: "a"}.ConfirmSingle(ctx, a)
	assert.True(t, ok)
	ok, _ = formConfirmer{confirm: true, choice: "b"}.ConfirmSingle(ctx, a)
	assert.False(t, ok)

	got, ok, _ := formConfirmer{confirm: true, choice: "b"}.Choose(ctx, []contact.Contact{a, b})
	assert.True(t, ok)
	assert.Equal(t, "b", got.ID)
	_, ok, _ = formConfirmer{confirm: false, choice: "b"}.Choose(ctx, []contact.Contact{a, b})
	assert.False(t, ok)
}
