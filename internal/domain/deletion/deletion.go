package deletion

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Deletion failures. Their messages are shown to the user as-is.
var (
	ErrInvalidIndex      = errors.New("The contact index provided is invalid")
	ErrNoMatchesFound    = errors.New("No matches found")
	ErrDeletionCancelled = errors.New("Deletion cancelled")
)

// ErrEmptyName rejects a by-name request with nothing to match.
var ErrEmptyName = errors.New("name to delete cannot be empty")

// MessageDeleteSuccess is the label placed in front of the formatted contact.
const MessageDeleteSuccess = "Deleted Contact: "

// IsUserFacing reports whether err is one of the recoverable deletion failures.
func IsUserFacing(err error) bool {
	return errors.Is(err, ErrInvalidIndex) ||
		errors.Is(err, ErrNoMatchesFound) ||
		errors.Is(err, ErrDeletionCancelled)
}

// Request is a deletion request: exactly one of ByPosition or ByName.
type Request interface {
	fmt.Stringer
	isRequest()
}

// ByPosition addresses a contact by its 1-based index in the filtered view.
type ByPosition struct {
	Index int
}

// ByName addresses contacts whose whole name equals Name, ignoring case.
type ByName struct {
	Name string
}

func (ByPosition) isRequest() {}
func (ByName) isRequest()     {}

func (r ByPosition) String() string { return fmt.Sprintf("index %d", r.Index) }
func (r ByName) String() string     { return fmt.Sprintf("name %q", r.Name) }

// NewByName builds a by-name request from a free-text query.
// PRE: none
// POST: Returns ErrEmptyName when query is blank; the stored name is trimmed
func NewByName(query string) (ByName, error) {
	name := strings.Join(strings.Fields(query), " ")
	if name == "" {
		return ByName{}, ErrEmptyName
	}
	return ByName{Name: name}, nil
}

// Kind returns a short label for logs and the deletion log.
func Kind(r Request) string {
	switch r.(type) {
	case ByPosition:
		return KindIndex
	case ByName:
		return KindName
	default:
		panic(fmt.Sprintf("deletion: unknown request type %T", r))
	}
}

// Request kinds recorded in the deletion log.
const (
	KindIndex = "index"
	KindName  = "name"
)

// ParseRequest reads the arguments of a delete command. A single integer
// argument addresses a position; anything else is a name, words joined by spaces.
// PRE: none
// POST: Returns ErrEmptyName when args hold no text
func ParseRequest(args []string) (Request, error) {
	if len(args) == 1 {
		if i, err := strconv.Atoi(strings.TrimSpace(args[0])); err == nil {
			return ByPosition{Index: i}, nil
		}
	}
	return NewByName(strings.Join(args, " "))
}
