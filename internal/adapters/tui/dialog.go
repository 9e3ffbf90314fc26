package tui

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"addressbook/internal/domain/contact"
)

// dialog is the confirmation surface on screen: a yes/no question for one
// contact or a pick-list for several.
type dialog struct {
	candidates []contact.Contact
	single     bool
	cursor     int
}

func newDialog(candidates []contact.Contact, single bool) dialog {
	return dialog{candidates: candidates, single: single}
}

// update applies one key. done is true once the user has decided.
func (d dialog) update(key tea.KeyMsg) (next dialog, a answer, done bool) {
	k := key.String()
	if d.single {
		switch k {
		case "y", "Y", "enter":
			return d, answer{chosen: d.candidates[0], ok: true}, true
		case "n", "N", "esc", "q", "ctrl+c":
			return d, answer{}, true
		}
		return d, answer{}, false
	}

	switch k {
	case "up", "k":
		if d.cursor > 0 {
			d.cursor--
		}
	case "down", "j", "tab":
		if d.cursor < len(d.candidates)-1 {
			d.cursor++
		}
	case "enter":
		return d, answer{chosen: d.candidates[d.cursor], ok: true}, true
	case "n", "N", "esc", "q", "ctrl+c":
		return d, answer{}, true
	default:
		if n, err := strconv.Atoi(k); err == nil && n >= 1 && n <= len(d.candidates) {
			return d, answer{chosen: d.candidates[n-1], ok: true}, true
		}
	}
	return d, answer{}, false
}

func (d dialog) view(s Styles) string {
	var b strings.Builder
	if d.single {
		c := d.candidates[0]
		b.WriteString(s.Danger.Render("Delete this contact?"))
		b.WriteString("\n\n")
		b.WriteString(contact.Format(c))
		b.WriteString("\n\n")
		b.WriteString(s.Help.Render("y/enter delete · n/esc cancel"))
		return s.Dialog.Render(b.String())
	}

	b.WriteString(s.Danger.Render(fmt.Sprintf("%d contacts share this name. Which one should be deleted?", len(d.candidates))))
	b.WriteString("\n\n")
	for i, c := range d.candidates {
		line := fmt.Sprintf("%d. %s", i+1, contact.Format(c))
		if i == d.cursor {
			b.WriteString(s.Cursor.Render("> " + line))
		} else {
			b.WriteString(s.Option.Render(line))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(s.Help.Render("↑/↓ move · enter or 1-9 delete · esc cancel"))
	return s.Dialog.Render(b.String())
}
