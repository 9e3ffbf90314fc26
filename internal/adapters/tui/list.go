package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"addressbook/internal/domain/contact"
	"addressbook/internal/domain/deletion"
	"addressbook/internal/domain/viewstate"
)

// BookView is the read side of the record store.
type BookView interface {
	FilteredView() []contact.Contact
	ViewState() viewstate.State
	Size() int
}

// DeleteFunc runs one deletion request to completion and returns its message.
type DeleteFunc func(ctx context.Context, req deletion.Request) (string, error)

// FilterFunc replaces the filtered view and returns a summary line.
type FilterFunc func(ctx context.Context, state viewstate.State) (string, error)

// NoteRenderer renders markdown notes; *glamour.TermRenderer satisfies it.
type NoteRenderer interface {
	Render(in string) (string, error)
}

// Config wires the list view.
type Config struct {
	Book   BookView
	Bridge *Bridge
	Delete DeleteFunc
	Filter FilterFunc
	Notes  NoteRenderer // optional
}

type inputMode int

const (
	modeBrowse inputMode = iota
	modeFindName
	modeFindTag
	modeCommand
	modeDialog
)

type deleteDoneMsg struct {
	message string
	err     error
}

type filterDoneMsg struct {
	message string
	err     error
}

// Model is the list view.
type Model struct {
	ctx    context.Context
	cfg    Config
	styles Styles

	table table.Model
	input textinput.Model
	mode  inputMode

	dialog dialog
	reply  chan<- answer

	busy      bool // a deletion is in flight
	banner    string
	bannerErr bool
	view      []contact.Contact
	width     int
}

// NewModel builds the list view over cfg.Book.
// PRE: cfg.Book, cfg.Bridge, cfg.Delete and cfg.Filter are set
func NewModel(ctx context.Context, cfg Config) Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "#", Width: 4},
			{Title: "Name", Width: 24},
			{Title: "Phone", Width: 14},
			{Title: "Email", Width: 26},
			{Title: "Class", Width: 8},
			{Title: "Tags", Width: 20},
			{Title: "★", Width: 2},
		}),
		table.WithFocused(true),
		table.WithHeight(12),
	)

	in := textinput.New()
	in.CharLimit = 200
	in.Width = 50

	m := Model{ctx: ctx, cfg: cfg, styles: DefaultStyles(), table: t, input: in, width: 100}
	m.refresh()
	return m
}

// Init starts listening for prompts from the executor.
func (m Model) Init() tea.Cmd {
	return m.cfg.Bridge.Listen()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.table.SetHeight(max(3, msg.Height-12))
		return m, nil

	case promptMsg:
		m.mode = modeDialog
		m.dialog = newDialog(msg.candidates, msg.single)
		m.reply = msg.reply
		return m, m.cfg.Bridge.Listen()

	case noticeMsg:
		m.banner, m.bannerErr = string(msg), false
		return m, m.cfg.Bridge.Listen()

	case bridgeClosedMsg:
		return m, nil

	case deleteDoneMsg:
		m.busy = false
		switch {
		case msg.err == nil:
			m.banner, m.bannerErr = msg.message, false
		case errors.Is(msg.err, deletion.ErrNoMatchesFound):
			// the notification already told the user
		default:
			m.banner, m.bannerErr = msg.err.Error(), true
		}
		m.refresh()
		return m, nil

	case filterDoneMsg:
		if msg.err != nil {
			m.banner, m.bannerErr = msg.err.Error(), true
		} else {
			m.banner, m.bannerErr = msg.message, false
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeDialog:
		d, a, done := m.dialog.update(key)
		m.dialog = d
		if done {
			// reply is buffered, so this never blocks the event loop
			m.reply <- a
			m.reply = nil
			m.mode = modeBrowse
		}
		return m, nil

	case modeFindName, modeFindTag, modeCommand:
		switch key.Type {
		case tea.KeyEsc:
			m.stopInput()
			return m, nil
		case tea.KeyEnter:
			value, mode := m.input.Value(), m.mode
			m.stopInput()
			return m.submit(mode, value)
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(key)
		return m, cmd
	}

	switch key.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "/":
		return m.startInput(modeFindName, "name keywords")
	case "t":
		return m.startInput(modeFindTag, "tags")
	case ":":
		return m.startInput(modeCommand, "delete 2 · delete George Best · find alice · clear")
	case "c":
		return m, m.runFilter(viewstate.All())
	case "d", "delete":
		if len(m.view) == 0 {
			return m, nil
		}
		return m.runDelete(deletion.ByPosition{Index: m.table.Cursor() + 1})
	case "esc":
		m.banner = ""
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(key)
	return m, cmd
}

func (m Model) startInput(mode inputMode, placeholder string) (tea.Model, tea.Cmd) {
	m.mode = mode
	m.input.Reset()
	m.input.Placeholder = placeholder
	m.table.Blur()
	return m, m.input.Focus()
}

func (m *Model) stopInput() {
	m.mode = modeBrowse
	m.input.Blur()
	m.input.Reset()
	m.table.Focus()
}

func (m Model) submit(mode inputMode, value string) (tea.Model, tea.Cmd) {
	switch mode {
	case modeFindName:
		return m, m.runFilter(viewstate.ByName(value))
	case modeFindTag:
		return m, m.runFilter(viewstate.ByTag(value))
	}

	fields := strings.Fields(value)
	if len(fields) == 0 {
		return m, nil
	}
	switch strings.ToLower(fields[0]) {
	case "delete":
		req, err := deletion.ParseRequest(fields[1:])
		if err != nil {
			m.banner, m.bannerErr = err.Error(), true
			return m, nil
		}
		return m.runDelete(req)
	case "find":
		return m, m.runFilter(viewstate.ByName(fields[1:]...))
	case "tag":
		return m, m.runFilter(viewstate.ByTag(fields[1:]...))
	case "clear", "list":
		return m, m.runFilter(viewstate.All())
	case "exit", "quit":
		return m, tea.Quit
	default:
		m.banner, m.bannerErr = fmt.Sprintf("Unknown command %q", fields[0]), true
		return m, nil
	}
}

// runDelete starts the executor off the event loop; it blocks on the bridge
// while the dialog is open.
func (m Model) runDelete(req deletion.Request) (tea.Model, tea.Cmd) {
	if m.busy {
		m.banner, m.bannerErr = "A deletion is already waiting for an answer", true
		return m, nil
	}
	m.busy = true
	ctx, del := m.ctx, m.cfg.Delete
	return m, func() tea.Msg {
		msg, err := del(ctx, req)
		return deleteDoneMsg{message: msg, err: err}
	}
}

func (m Model) runFilter(state viewstate.State) tea.Cmd {
	ctx, filter := m.ctx, m.cfg.Filter
	return func() tea.Msg {
		msg, err := filter(ctx, state)
		return filterDoneMsg{message: msg, err: err}
	}
}

func (m *Model) refresh() {
	m.view = m.cfg.Book.FilteredView()
	rows := make([]table.Row, 0, len(m.view))
	for i, c := range m.view {
		fav := ""
		if c.Favourite {
			fav = "★"
		}
		rows = append(rows, table.Row{
			fmt.Sprint(i + 1), c.Name, c.Phone, c.Email, c.Class, strings.Join(c.SortedTags(), " "), fav,
		})
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(max(0, len(rows)-1))
	}
}

// View renders the list view.
func (m Model) View() string {
	var b strings.Builder
	state := m.cfg.Book.ViewState()
	b.WriteString(m.styles.Title.Render("Address Book"))
	b.WriteString("  ")
	b.WriteString(m.styles.Status.Render(fmt.Sprintf("%s · %d of %d shown", state.Describe(), len(m.view), m.cfg.Book.Size())))
	b.WriteString("\n\n")

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, m.table.View(), m.detail()))
	b.WriteString("\n")

	switch m.mode {
	case modeDialog:
		b.WriteString(m.dialog.view(m.styles))
		b.WriteString("\n")
	case modeFindName, modeFindTag, modeCommand:
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}

	if m.banner != "" {
		if m.bannerErr {
			b.WriteString(m.styles.Error.Render(m.banner))
		} else {
			b.WriteString(m.styles.Banner.Render(m.banner))
		}
		b.WriteString("\n")
	}
	b.WriteString(m.styles.Help.Render("↑/↓ move · d delete · / find · t tag · c clear · : command · q quit"))
	return b.String()
}

// detail shows the highlighted contact with its note rendered as markdown.
func (m Model) detail() string {
	if len(m.view) == 0 {
		return ""
	}
	c := m.view[min(m.table.Cursor(), len(m.view)-1)]
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s\n%s\n", c.Name, c.Address, c.Birthday)
	if c.Note != "" {
		note := c.Note
		if m.cfg.Notes != nil {
			if rendered, err := m.cfg.Notes.Render(c.Note); err == nil {
				note = strings.TrimSpace(rendered)
			}
		}
		b.WriteString(note)
	}
	return m.styles.Detail.Render(b.String())
}

// NewNoteRenderer returns a glamour renderer sized for the detail pane.
func NewNoteRenderer(width int) (*glamour.TermRenderer, error) {
	return glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
}

// Run shows the list view until the user quits.
// POST: the bridge is closed, so a deletion still waiting for an answer fails with ErrClosed
func Run(ctx context.Context, cfg Config, opts ...tea.ProgramOption) error {
	defer cfg.Bridge.Close()
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	_, err := tea.NewProgram(NewModel(ctx, cfg), opts...).Run()
	return err
}
