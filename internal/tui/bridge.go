package tui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	datagrid "github.com/goliatone/go-datagrid"
)

type viewMsg datagrid.View

type noticeMsg struct {
	severity datagrid.Severity
	message  string
}

type errMsg struct{ err error }

// Bridge forwards grid frames and notices to a running program. It satisfies
// both datagrid.Renderer and datagrid.Notifier. Frames sent before Attach
// are kept and the latest one is replayed on attach.
type Bridge struct {
	mu      sync.Mutex
	send    func(tea.Msg)
	pending *datagrid.View
}

func NewBridge() *Bridge {
	return &Bridge{}
}

// Attach starts forwarding to send, usually (*tea.Program).Send.
func (b *Bridge) Attach(send func(tea.Msg)) {
	b.mu.Lock()
	b.send = send
	pending := b.pending
	b.pending = nil
	b.mu.Unlock()
	if pending != nil && send != nil {
		send(viewMsg(*pending))
	}
}

// Detach stops forwarding; later frames are dropped.
func (b *Bridge) Detach() {
	b.mu.Lock()
	b.send = nil
	b.mu.Unlock()
}

func (b *Bridge) Render(_ context.Context, view datagrid.View) error {
	b.mu.Lock()
	send := b.send
	if send == nil {
		b.pending = &view
	}
	b.mu.Unlock()
	if send != nil {
		send(viewMsg(view))
	}
	return nil
}

func (b *Bridge) Notify(_ context.Context, severity datagrid.Severity, message string) {
	b.mu.Lock()
	send := b.send
	b.mu.Unlock()
	if send != nil {
		send(noticeMsg{severity: severity, message: message})
	}
}
