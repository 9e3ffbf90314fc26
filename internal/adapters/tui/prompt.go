package tui

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"addressbook/internal/domain/contact"
)

// promptModel runs a single dialog as its own program and quits on the answer.
type promptModel struct {
	dialog dialog
	styles Styles
	result answer
	done   bool
}

func (m promptModel) Init() tea.Cmd { return nil }

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	d, a, done := m.dialog.update(key)
	m.dialog = d
	if done {
		m.result, m.done = a, true
		return m, tea.Quit
	}
	return m, nil
}

func (m promptModel) View() string {
	if m.done {
		return ""
	}
	return m.dialog.view(m.styles) + "\n"
}

// TerminalConfirmer asks on the terminal, one program per question.
type TerminalConfirmer struct {
	In  io.Reader
	Out io.Writer
	// AssumeYes confirms single-candidate deletions without asking.
	AssumeYes bool
	// Pick answers a pick-list with the Pick-th candidate (1-based) when > 0.
	Pick int
}

// ConfirmSingle implements the confirmation surface for one contact.
func (t TerminalConfirmer) ConfirmSingle(ctx context.Context, c contact.Contact) (bool, error) {
	if t.AssumeYes {
		return true, nil
	}
	a, err := t.run(ctx, newDialog([]contact.Contact{c}, true))
	return a.ok, err
}

// Choose implements the confirmation surface for several contacts.
func (t TerminalConfirmer) Choose(ctx context.Context, candidates []contact.Contact) (contact.Contact, bool, error) {
	if t.Pick > 0 {
		if t.Pick > len(candidates) {
			return contact.Contact{}, false, fmt.Errorf("--pick %d: only %d contacts match", t.Pick, len(candidates))
		}
		return candidates[t.Pick-1], true, nil
	}
	a, err := t.run(ctx, newDialog(candidates, false))
	return a.chosen, a.ok, err
}

func (t TerminalConfirmer) run(ctx context.Context, d dialog) (answer, error) {
	p := tea.NewProgram(promptModel{dialog: d, styles: DefaultStyles()},
		tea.WithContext(ctx),
		tea.WithInput(t.In),
		tea.WithOutput(t.Out),
	)
	final, err := p.Run()
	if err != nil {
		return answer{}, fmt.Errorf("confirmation prompt: %w", err)
	}
	m := final.(promptModel)
	return m.result, nil
}

// TerminalNotifier prints notifications as a boxed notice.
type TerminalNotifier struct {
	Out io.Writer
}

// Notify implements the notification surface.
func (n TerminalNotifier) Notify(_ context.Context, msg string) {
	fmt.Fprintln(n.Out, DefaultStyles().Banner.Render(msg))
}
