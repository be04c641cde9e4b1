package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/forgemap/pkg/explore"
	"github.com/matzehuels/forgemap/pkg/graph"
)

var (
	// ErrWorkspaceNotFound is returned for unknown or deleted workspaces.
	ErrWorkspaceNotFound = errors.New("workspace not found")

	// ErrWorkspaceExpired is returned for workspaces idle past their TTL.
	ErrWorkspaceExpired = errors.New("workspace expired")
)

// DefaultWorkspaceTTL is how long an idle workspace is kept.
const DefaultWorkspaceTTL = 30 * time.Minute

// Workspace is one client's exploration: a graph and the engine driving it.
type Workspace struct {
	ID        string
	CreatedAt time.Time

	Graph    *graph.Graph
	Explorer *explore.Explorer
	Notifier *toastNotifier

	mu       sync.Mutex
	lastUsed time.Time
	cancel   context.CancelFunc
}

func (w *Workspace) touch(now time.Time) {
	w.mu.Lock()
	w.lastUsed = now
	w.mu.Unlock()
}

// LastUsed returns the time of the last request against the workspace.
func (w *Workspace) LastUsed() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastUsed
}

func (w *Workspace) expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(w.LastUsed()) > ttl
}

// toastNotifier keeps the last toast for clients to poll. Clipboard writes
// happen in the browser, so CopyToClipboard only records the text.
type toastNotifier struct {
	mu     sync.Mutex
	toast  string
	copied string
}

func (n *toastNotifier) CopyToClipboard(_ context.Context, text string) error {
	n.mu.Lock()
	n.copied = text
	n.mu.Unlock()
	return nil
}

func (n *toastNotifier) ShowToast(msg string) {
	n.mu.Lock()
	n.toast = msg
	n.mu.Unlock()
}

func (n *toastNotifier) HideToast() {
	n.mu.Lock()
	n.toast = ""
	n.mu.Unlock()
}

// Toast returns the visible toast message, if any.
func (n *toastNotifier) Toast() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.toast
}

// StoreOptions configures a Store.
type StoreOptions struct {
	Forge        explore.Forge
	ShareBaseURL string
	TTL          time.Duration
	Logger       *log.Logger

	// now is replaced in tests.
	now func() time.Time
}

// Store keeps workspaces in memory and expires idle ones. Nothing is
// persisted; a restart drops every workspace.
type Store struct {
	opts StoreOptions
	base context.Context
	stop context.CancelFunc

	mu    sync.RWMutex
	items map[string]*Workspace
}

// NewStore creates an empty store. Every workspace event loop is stopped by
// Close.
func NewStore(opts StoreOptions) *Store {
	if opts.TTL <= 0 {
		opts.TTL = DefaultWorkspaceTTL
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.now == nil {
		opts.now = time.Now
	}
	base, stop := context.WithCancel(context.Background())
	return &Store{opts: opts, base: base, stop: stop, items: make(map[string]*Workspace)}
}

// Create starts a workspace whose explorer runs in mode.
func (s *Store) Create(mode explore.Mode) *Workspace {
	now := s.opts.now()
	g := graph.New()
	n := &toastNotifier{}
	ws := &Workspace{
		ID:        uuid.NewString(),
		CreatedAt: now,
		Graph:     g,
		Notifier:  n,
		lastUsed:  now,
	}
	ws.Explorer = explore.New(explore.Options{
		Forge:        s.opts.Forge,
		Visualizer:   g,
		Notifier:     n,
		Logger:       s.opts.Logger.With("workspace", ws.ID),
		ShareBaseURL: s.opts.ShareBaseURL,
		Mode:         mode,
	})

	ctx, cancel := context.WithCancel(s.base)
	ws.cancel = cancel
	go ws.Explorer.Run(ctx)

	s.mu.Lock()
	s.items[ws.ID] = ws
	s.mu.Unlock()
	s.opts.Logger.Debug("workspace created", "id", ws.ID, "mode", mode)
	return ws
}

// Get returns workspace id and marks it as used.
func (s *Store) Get(id string) (*Workspace, error) {
	s.mu.RLock()
	ws, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrWorkspaceNotFound
	}
	now := s.opts.now()
	if ws.expired(now, s.opts.TTL) {
		s.Delete(id)
		return nil, ErrWorkspaceExpired
	}
	ws.touch(now)
	return ws, nil
}

// Delete stops and removes workspace id. It reports whether it existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	ws, ok := s.items[id]
	delete(s.items, id)
	s.mu.Unlock()
	if ok {
		ws.cancel()
		ws.Explorer.Searcher.Cancel()
	}
	return ok
}

// Cleanup removes every expired workspace and returns how many it removed.
func (s *Store) Cleanup() int {
	now := s.opts.now()
	s.mu.RLock()
	var stale []string
	for id, ws := range s.items {
		if ws.expired(now, s.opts.TTL) {
			stale = append(stale, id)
		}
	}
	s.mu.RUnlock()

	n := 0
	for _, id := range stale {
		if s.Delete(id) {
			n++
		}
	}
	if n > 0 {
		s.opts.Logger.Debug("expired workspaces", "count", n)
	}
	return n
}

// Len returns the number of live workspaces.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// RunJanitor calls Cleanup every interval until ctx ends.
func (s *Store) RunJanitor(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Cleanup()
		}
	}
}

// Close stops every workspace.
func (s *Store) Close() {
	s.stop()
	s.mu.Lock()
	s.items = make(map[string]*Workspace)
	s.mu.Unlock()
}
