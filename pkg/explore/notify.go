package explore

import (
	"context"
	"sync"
	"time"
)

// Notifier is the presentation boundary: clipboard and transient messages.
type Notifier interface {
	CopyToClipboard(ctx context.Context, text string) error
	ShowToast(message string)
	HideToast()
}

// NopNotifier discards everything.
type NopNotifier struct{}

func (NopNotifier) CopyToClipboard(context.Context, string) error { return nil }
func (NopNotifier) ShowToast(string)                              {}
func (NopNotifier) HideToast()                                    {}

// Toast shows at most one message at a time and hides it after a fixed
// duration.
type Toast struct {
	n        Notifier
	duration time.Duration

	mu     sync.Mutex
	active bool
}

// NewToast returns a toast that stays visible for d.
func NewToast(n Notifier, d time.Duration) *Toast {
	return &Toast{n: n, duration: d}
}

// Show displays msg unless a toast is already visible, and reports whether
// it did.
func (t *Toast) Show(msg string) bool {
	t.mu.Lock()
	if t.active {
		t.mu.Unlock()
		return false
	}
	t.active = true
	t.mu.Unlock()

	t.n.ShowToast(msg)
	time.AfterFunc(t.duration, func() {
		t.n.HideToast()
		t.mu.Lock()
		t.active = false
		t.mu.Unlock()
	})
	return true
}

// Active reports whether a toast is visible.
func (t *Toast) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}
