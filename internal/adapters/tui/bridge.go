package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"addressbook/internal/domain/contact"
)

// ErrClosed is returned to a waiting executor when the list view shuts down.
var ErrClosed = errors.New("terminal closed before the user answered")

// promptMsg asks the UI for a decision. single prompts are yes/no.
type promptMsg struct {
	candidates []contact.Contact
	single     bool
	reply      chan<- answer
}

// noticeMsg carries a notification for the banner.
type noticeMsg string

// bridgeClosedMsg tells the model the bridge stopped delivering.
type bridgeClosedMsg struct{}

type answer struct {
	chosen contact.Contact
	ok     bool
}

// Bridge hands confirmation and notification calls from the executor
// goroutine to the bubbletea event loop. It implements both surfaces.
//
// INVARIANT: at most one prompt is outstanding, since deletions run one at a time
type Bridge struct {
	prompts chan promptMsg
	notices chan string
	done    chan struct{}
}

// NewBridge creates an open bridge.
func NewBridge() *Bridge {
	return &Bridge{
		prompts: make(chan promptMsg),
		notices: make(chan string, 4),
		done:    make(chan struct{}),
	}
}

// Close releases every waiter. Safe to call once.
func (b *Bridge) Close() {
	close(b.done)
}

// ConfirmSingle blocks until the user answers the yes/no dialog.
func (b *Bridge) ConfirmSingle(ctx context.Context, c contact.Contact) (bool, error) {
	a, err := b.ask(ctx, promptMsg{candidates: []contact.Contact{c}, single: true})
	return a.ok, err
}

// Choose blocks until the user picks one candidate or declines.
func (b *Bridge) Choose(ctx context.Context, candidates []contact.Contact) (contact.Contact, bool, error) {
	a, err := b.ask(ctx, promptMsg{candidates: candidates})
	return a.chosen, a.ok, err
}

func (b *Bridge) ask(ctx context.Context, p promptMsg) (answer, error) {
	reply := make(chan answer, 1)
	p.reply = reply
	select {
	case b.prompts <- p:
	case <-b.done:
		return answer{}, ErrClosed
	case <-ctx.Done():
		return answer{}, ctx.Err()
	}
	select {
	case a := <-reply:
		return a, nil
	case <-b.done:
		return answer{}, ErrClosed
	case <-ctx.Done():
		return answer{}, ctx.Err()
	}
}

// Notify queues msg for the banner. It never blocks the executor.
func (b *Bridge) Notify(_ context.Context, msg string) {
	select {
	case b.notices <- msg:
	case <-b.done:
	default:
		// banner is still showing older notices; drop the oldest
		select {
		case <-b.notices:
		default:
		}
		select {
		case b.notices <- msg:
		default:
		}
	}
}

// Listen returns a command delivering the next prompt or notice to the model.
// The model re-issues it after each message.
func (b *Bridge) Listen() tea.Cmd {
	return func() tea.Msg {
		select {
		case p := <-b.prompts:
			return p
		case n := <-b.notices:
			return noticeMsg(n)
		case <-b.done:
			return bridgeClosedMsg{}
		}
	}
}
