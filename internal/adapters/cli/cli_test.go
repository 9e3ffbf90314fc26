package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"addressbook/internal/metrics"
)

type result struct {
	code   int
	stdout string
	stderr string
}

// useTempBook points every command in the test at a fresh database.
func useTempBook(t *testing.T) {
	t.Helper()
	t.Setenv("ADDRESSBOOK_DB", filepath.Join(t.TempDir(), "book.db"))
	t.Setenv("ADDRESSBOOK_ENV", "test")
	t.Setenv("ADDRESSBOOK_LOG_LEVEL", "error")
}

func run(t *testing.T, args ...string) result {
	t.Helper()
	var out, errOut bytes.Buffer
	code := Execute(context.Background(), args, strings.NewReader(""), &out, &errOut)
	return result{code: code, stdout: out.String(), stderr: errOut.String()}
}

func seeded(t *testing.T) {
	t.Helper()
	useTempBook(t)
	r := run(t, "seed")
	require.Equal(t, 0, r.code, r.stderr)
	require.Equal(t, "Added 8 sample contacts\n", r.stdout)
}

func TestListNumbersContacts(t *testing.T) {
	seeded(t)
	r := run(t, "list")

	require.Equal(t, 0, r.code, r.stderr)
	lines := strings.Split(strings.TrimSpace(r.stdout), "\n")
	require.Len(t, lines, 9)
	assert.True(t, strings.HasPrefix(lines[0], "1. Alice Pauline; Phone: 94351253"))
	assert.True(t, strings.HasPrefix(lines[7], "8. George Best; Phone: 94824888"))
	assert.Equal(t, "Listed all 8 contacts", lines[8])
}

func TestDeleteByIndexWithYes(t *testing.T) {
	seeded(t)
	r := run(t, "delete", "1", "--yes")

	require.Equal(t, 0, r.code, r.stderr)
	assert.Equal(t, "Deleted Contact: Alice Pauline; Phone: 94351253; Email: alice@example.com; "+
		"Address: 123, Jurong West Ave 6, #08-111; Class: K1A; Birthday: 15-03-2018; Note: She likes aardvarks.; Tags: friends\n", r.stdout)

	r = run(t, "list")
	assert.NotContains(t, r.stdout, "Alice Pauline")
	assert.Contains(t, r.stdout, "Listed all 7 contacts")

	r = run(t, "log")
	assert.Contains(t, r.stdout, "Alice Pauline  (index 1)")
}

func TestDeleteByNamePick(t *testing.T) {
	seeded(t)
	r := run(t, "delete", "george", "BEST", "--pick", "2")

	require.Equal(t, 0, r.code, r.stderr)
	assert.Contains(t, r.stdout, "Deleted Contact: George Best; Phone: 94824888")

	r = run(t, "list")
	assert.Contains(t, r.stdout, "George Best; Phone: 94824420")
	assert.NotContains(t, r.stdout, "94824888")
}

func TestDeletePickOutOfRange(t *testing.T) {
	seeded(t)
	r := run(t, "delete", "George", "Best", "--pick", "3")

	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "only 2 contacts match")
	assert.Contains(t, run(t, "list").stdout, "Listed all 8 contacts")
}

func TestDeleteNoMatchPrintedOnce(t *testing.T) {
	seeded(t)
	r := run(t, "delete", "Nobody")

	assert.Equal(t, 1, r.code)
	assert.Equal(t, 1, strings.Count(r.stderr, "No matches found"))
	assert.Empty(t, r.stdout)
}

func TestDeleteInvalidIndex(t *testing.T) {
	seeded(t)
	for _, idx := range []string{"9", "0", "-1"} {
		r := run(t, "delete", "--yes", "--", idx)
		assert.Equal(t, 1, r.code, idx)
		assert.Contains(t, r.stderr, "The contact index provided is invalid", idx)
	}
	assert.Contains(t, run(t, "list").stdout, "Listed all 8 contacts")
}

func TestIndexFollowsPersistedFilter(t *testing.T) {
	seeded(t)
	r := run(t, "find", "meier")
	require.Equal(t, 0, r.code, r.stderr)
	assert.Contains(t, r.stdout, "2. Daniel Meier")
	assert.Contains(t, r.stdout, "2 contacts listed (name: meier)")

	r = run(t, "delete", "2", "--yes")
	require.Equal(t, 0, r.code, r.stderr)
	assert.Contains(t, r.stdout, "Deleted Contact: Daniel Meier")

	r = run(t, "clear")
	assert.Contains(t, r.stdout, "Benson Meier")
	assert.Contains(t, r.stdout, "Listed all 7 contacts")
}

func TestDeleteNameOutsideFilteredView(t *testing.T) {
	seeded(t)
	run(t, "tag", "colleague")

	r := run(t, "delete", "Alice", "Pauline", "--yes")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "No matches found")
}

func TestAddRejectsDuplicate(t *testing.T) {
	useTempBook(t)
	args := []string{"add", "-n", "Hoon Meier", "-p", "8482424", "-e", "stefan@example.com", "-t", "friends", "--favourite"}

	r := run(t, args...)
	require.Equal(t, 0, r.code, r.stderr)
	assert.True(t, strings.HasPrefix(r.stdout, "New contact added: Hoon Meier; Phone: 8482424"))

	r = run(t, args...)
	assert.Equal(t, 1, r.code)
	assert.Contains(t, run(t, "list").stdout, "Listed all 1 contact")
}

func TestAddRequiresFields(t *testing.T) {
	useTempBook(t)
	r := run(t, "add", "-n", "No Phone")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "required flag")
}

func TestLogEmpty(t *testing.T) {
	useTempBook(t)
	r := run(t, "log")
	require.Equal(t, 0, r.code, r.stderr)
	assert.Equal(t, "Nothing deleted yet\n", r.stdout)
}

func TestBadConfigFails(t *testing.T) {
	useTempBook(t)
	t.Setenv("ADDRESSBOOK_ENV", "staging")
	r := run(t, "list")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "invalid config")
}

func TestDeleteSendsReceiptWhenEnabled(t *testing.T) {
	seeded(t)
	t.Setenv("ADDRESSBOOK_RECEIPTS_TO", "office@example.com")
	sent := metrics.ReceiptsTotal.WithLabelValues("sent")
	before := testutil.ToFloat64(sent)

	r := run(t, "delete", "Carl", "Kurz", "--yes")

	require.Equal(t, 0, r.code, r.stderr)
	assert.Equal(t, before+1, testutil.ToFloat64(sent))
}

func TestCancelledDeletionSendsNoReceipt(t *testing.T) {
	seeded(t)
	t.Setenv("ADDRESSBOOK_RECEIPTS_TO", "office@example.com")
	sent := metrics.ReceiptsTotal.WithLabelValues("sent")
	before := testutil.ToFloat64(sent)

	r := run(t, "delete", "Nobody", "--yes")

	assert.Equal(t, 1, r.code)
	assert.Equal(t, before, testutil.ToFloat64(sent))
}

func TestReceiptsListEmpty(t *testing.T) {
	useTempBook(t)
	r := run(t, "receipts", "list")
	require.Equal(t, 0, r.code, r.stderr)
	assert.Equal(t, "No receipts waiting\n", r.stdout)
}

func TestReceiptsRetryNeedsReceipts(t *testing.T) {
	useTempBook(t)
	r := run(t, "receipts", "retry")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "receipts are disabled")
}

func TestReceiptsRetryWithNothingQueued(t *testing.T) {
	useTempBook(t)
	t.Setenv("ADDRESSBOOK_RECEIPTS_TO", "office@example.com")
	r := run(t, "receipts", "retry")
	require.Equal(t, 0, r.code, r.stderr)
	assert.Equal(t, "Sent 0, failed 0, waiting 0\n", r.stdout)
}
