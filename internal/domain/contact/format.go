package contact

import "strings"

// Format renders the contact for result messages.
// The layout is "<name>; Phone: ..; Email: ..; Address: ..; Class: ..; Birthday: ..; Note: ..; Tags: a b".
// The string ends in "Tags: " when the contact has no tags.
func Format(c Contact) string {
	var b strings.Builder
	b.WriteString(c.Name)
	b.WriteString("; Phone: ")
	b.WriteString(c.Phone)
	b.WriteString("; Email: ")
	b.WriteString(c.Email)
	b.WriteString("; Address: ")
	b.WriteString(c.Address)
	b.WriteString("; Class: ")
	b.WriteString(c.Class)
	b.WriteString("; Birthday: ")
	b.WriteString(c.Birthday)
	b.WriteString("; Note: ")
	b.WriteString(c.Note)
	b.WriteString("; Tags: ")
	b.WriteString(strings.Join(c.SortedTags(), " "))
	return b.String()
}
