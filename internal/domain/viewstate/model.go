package viewstate

import (
	"errors"
	"strings"

	"addressbook/internal/domain/contact"
)

// Filter modes.
const (
	ModeAll  = "all"
	ModeName = "name"
	ModeTag  = "tag"
)

var (
	ErrInvalidMode     = errors.New("view mode must be 'all', 'name' or 'tag'")
	ErrMissingKeywords = errors.New("name and tag views need at least one keyword")
)

// State describes the filtered view the user last asked for.
//
// It is persisted so that positional indices typed in one command refer to
// the list printed by the previous one.
type State struct {
	Mode     string
	Keywords []string
}

// All returns the unfiltered view state.
func All() State {
	return State{Mode: ModeAll}
}

// ByName returns a state filtering on whole-word name keywords.
func ByName(keywords ...string) State {
	return State{Mode: ModeName, Keywords: clean(keywords)}
}

// ByTag returns a state filtering on tags.
func ByTag(tags ...string) State {
	return State{Mode: ModeTag, Keywords: clean(tags)}
}

// Validate checks the state is usable.
// PRE: State struct is initialized
// POST: Returns error if validation fails, nil otherwise
func (s *State) Validate() error {
	switch s.Mode {
	case ModeAll:
		return nil
	case ModeName, ModeTag:
		if len(s.Keywords) == 0 {
			return ErrMissingKeywords
		}
		return nil
	default:
		return ErrInvalidMode
	}
}

// Predicate converts the state into the contact predicate it stands for.
// INVARIANT: s is not mutated
func (s State) Predicate() contact.Predicate {
	switch s.Mode {
	case ModeName:
		return contact.NameContainsKeywords(s.Keywords)
	case ModeTag:
		return contact.TagContainsKeywords(s.Keywords)
	default:
		return contact.ShowAll
	}
}

// Describe returns a short human label such as `name: alice, bob`.
func (s State) Describe() string {
	if s.Mode == ModeAll || s.Mode == "" {
		return "all contacts"
	}
	return s.Mode + ": " + strings.Join(s.Keywords, ", ")
}

func clean(words []string) []string {
	var out []string
	for _, w := range words {
		out = append(out, strings.Fields(w)...)
	}
	return out
}
