package cli

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aymanbagabas/go-osc52/v2"
)

// terminalNotifier copies text with the OSC 52 escape sequence, which
// terminals forward to the system clipboard even over SSH, and keeps the
// current toast for whoever draws the screen.
type terminalNotifier struct {
	w io.Writer

	// changed is called after every toast change, outside the lock.
	changed func()

	mu     sync.Mutex
	toast  string
	copied string
}

func newTerminalNotifier(w io.Writer) *terminalNotifier {
	return &terminalNotifier{w: w}
}

func (n *terminalNotifier) CopyToClipboard(_ context.Context, text string) error {
	seq := osc52.New(text)
	switch {
	case os.Getenv("TMUX") != "":
		seq = seq.Tmux()
	case strings.HasPrefix(os.Getenv("TERM"), "screen"):
		seq = seq.Screen()
	}
	if _, err := seq.WriteTo(n.w); err != nil {
		return err
	}
	n.mu.Lock()
	n.copied = text
	n.mu.Unlock()
	return nil
}

func (n *terminalNotifier) ShowToast(msg string) {
	n.set(msg)
}

func (n *terminalNotifier) HideToast() {
	n.set("")
}

func (n *terminalNotifier) set(msg string) {
	n.mu.Lock()
	n.toast = msg
	fn := n.changed
	n.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Toast returns the visible toast, or "".
func (n *terminalNotifier) Toast() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.toast
}

func (n *terminalNotifier) onChange(fn func()) {
	n.mu.Lock()
	n.changed = fn
	n.mu.Unlock()
}
