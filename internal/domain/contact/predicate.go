package contact

import "strings"

// Predicate selects the contacts that make up a filtered view.
type Predicate func(Contact) bool

// ShowAll keeps every contact.
func ShowAll(Contact) bool { return true }

// NameContainsKeywords keeps contacts whose name has any keyword as a whole word, ignoring case.
// PRE: keywords may be empty
// POST: Returns a predicate that never matches when keywords is empty
func NameContainsKeywords(keywords []string) Predicate {
	return func(c Contact) bool {
		words := strings.Fields(c.Name)
		for _, k := range keywords {
			for _, w := range words {
				if strings.EqualFold(w, k) {
					return true
				}
			}
		}
		return false
	}
}

// TagContainsKeywords keeps contacts carrying any of the tags, ignoring case.
func TagContainsKeywords(tags []string) Predicate {
	return func(c Contact) bool {
		for _, t := range tags {
			if c.HasTag(t) {
				return true
			}
		}
		return false
	}
}

// Filter returns the contacts accepted by p, preserving order.
func Filter(contacts []Contact, p Predicate) []Contact {
	out := make([]Contact, 0, len(contacts))
	for _, c := range contacts {
		if p(c) {
			out = append(out, c)
		}
	}
	return out
}
