package deletion

import (
	"fmt"

	"addressbook/internal/domain/contact"
)

// Outcome is the result of resolving a Request against a filtered view.
// It is one of InvalidIndex, ByIndex, NoMatch, SingleMatch or MultipleMatches.
type Outcome interface {
	isOutcome()
}

// InvalidIndex: the position is outside [1, len(view)].
type InvalidIndex struct {
	Index int
}

// ByIndex: the position resolved to exactly one contact.
type ByIndex struct {
	Contact contact.Contact
}

// NoMatch: no contact in the view carries the name.
type NoMatch struct {
	Name string
}

// SingleMatch: exactly one contact in the view carries the name.
type SingleMatch struct {
	Contact contact.Contact
}

// MultipleMatches: several contacts carry the name, in view order.
type MultipleMatches struct {
	Candidates []contact.Contact
}

func (InvalidIndex) isOutcome()    {}
func (ByIndex) isOutcome()         {}
func (NoMatch) isOutcome()         {}
func (SingleMatch) isOutcome()     {}
func (MultipleMatches) isOutcome() {}

// Resolve computes the outcome of req against view.
// PRE: view is the filtered view the user currently sees
// POST: Returns exactly one Outcome; never fails and never mutates view
// INVARIANT: only view is searched, never the full store
func Resolve(req Request, view []contact.Contact) Outcome {
	switch r := req.(type) {
	case ByPosition:
		if r.Index < 1 || r.Index > len(view) {
			return InvalidIndex{Index: r.Index}
		}
		return ByIndex{Contact: view[r.Index-1]}
	case ByName:
		candidates := Candidates(r.Name, view)
		switch len(candidates) {
		case 0:
			return NoMatch{Name: r.Name}
		case 1:
			return SingleMatch{Contact: candidates[0]}
		default:
			return MultipleMatches{Candidates: candidates}
		}
	default:
		panic(fmt.Sprintf("deletion: unknown request type %T", req))
	}
}

// Candidates returns the contacts in view whose whole name equals name, ignoring case.
// PRE: none
// POST: Returns matches in view order (nil when none)
func Candidates(name string, view []contact.Contact) []contact.Contact {
	var out []contact.Contact
	for _, c := range view {
		if c.NameMatches(name) {
			out = append(out, c)
		}
	}
	return out
}

// Label names an outcome for metrics and logs.
func Label(o Outcome) string {
	switch o.(type) {
	case InvalidIndex:
		return "invalid_index"
	case ByIndex:
		return "by_index"
	case NoMatch:
		return "no_match"
	case SingleMatch:
		return "single_match"
	case MultipleMatches:
		return "multiple_matches"
	default:
		panic(fmt.Sprintf("deletion: unknown outcome type %T", o))
	}
}
