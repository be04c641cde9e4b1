package explore

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/forgemap/pkg/entity"
	"github.com/matzehuels/forgemap/pkg/forge"
	"github.com/matzehuels/forgemap/pkg/graph"
	"github.com/matzehuels/forgemap/pkg/share"
)

// Mode selects what a double-click on a project does.
type Mode int

const (
	// ModeRelations expands projects into their users and groups.
	ModeRelations Mode = iota
	// ModeForks expands projects into their forks and weights projects by
	// fork count.
	ModeForks
)

func (m Mode) String() string {
	if m == ModeForks {
		return "forks"
	}
	return "relations"
}

// CopiedMessage is the toast shown after a share link was copied.
const CopiedMessage = "Link copied to clipboard"

// ToastDuration is how long the copy confirmation stays visible.
const ToastDuration = time.Second

// Options configures an Explorer.
type Options struct {
	Forge      Forge
	Visualizer Visualizer
	Notifier   Notifier
	Logger     *log.Logger

	// ShareBaseURL is the origin used for shareable links.
	ShareBaseURL string
	Mode         Mode
}

// Explorer is the composition root of the engine.
type Explorer struct {
	forge    Forge
	vis      Visualizer
	repo     *entity.Repository
	notifier Notifier
	logger   *log.Logger
	mode     Mode
	base     string

	// mu serializes every mutation of vis and repo.
	mu sync.Mutex
	// epoch counts clears; results fetched for an older epoch are dropped.
	epoch uint64

	Expander   *Expander
	Searcher   *Searcher
	Restorer   *Restorer
	Panel      *Panel
	Dispatcher *Dispatcher
	Topics     *TopicBrowser
}

// New builds an Explorer and its components.
func New(opts Options) *Explorer {
	x := &Explorer{
		forge:    opts.Forge,
		vis:      opts.Visualizer,
		repo:     entity.NewRepository(),
		notifier: opts.Notifier,
		logger:   opts.Logger,
		mode:     opts.Mode,
		base:     opts.ShareBaseURL,
	}
	if x.notifier == nil {
		x.notifier = NopNotifier{}
	}
	if x.logger == nil {
		x.logger = log.Default()
	}
	if x.base == "" {
		x.base = "http://localhost:8080"
	}
	x.Expander = &Expander{x: x, states: make(map[string]State)}
	x.Searcher = &Searcher{x: x}
	x.Restorer = &Restorer{x: x}
	x.Panel = &Panel{x: x}
	x.Dispatcher = &Dispatcher{x: x, toast: NewToast(x.notifier, ToastDuration)}
	x.Topics = &TopicBrowser{x: x}
	return x
}

// Visualizer returns the visualizer the explorer drives.
func (x *Explorer) Visualizer() Visualizer { return x.vis }

// Repository returns the entity repository.
func (x *Explorer) Repository() *entity.Repository { return x.repo }

// Mode returns the double-click mode.
func (x *Explorer) Mode() Mode { return x.mode }

// State returns the materialized projects, users and groups as read from
// the visualizer.
func (x *Explorer) State() share.State {
	return share.State{
		Projects: x.entityIDs(entity.TypeProject),
		Users:    x.entityIDs(entity.TypeUser),
		Groups:   x.entityIDs(entity.TypeGroup),
	}
}

// ShareLink returns the shareable link for the current graph.
func (x *Explorer) ShareLink() string { return share.Link(x.base, x.State()) }

func (x *Explorer) entityIDs(t entity.Type) []int64 {
	ids := []int64{}
	for _, id := range x.vis.NodesIDByType(t) {
		if k, ok := x.vis.NodeKey(id); ok {
			ids = append(ids, k.ID)
		}
	}
	return ids
}

// Clear empties the graph, the repository, the expansion states and the
// details panel.
func (x *Explorer) Clear() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.clearLocked()
}

func (x *Explorer) clearLocked() {
	x.epoch++
	x.vis.Clear()
	x.repo.Clear()
	x.Expander.reset()
	x.Panel.Reset()
}

// Restore cancels any running search or topic load, clears the graph and
// rebuilds the shared selection st.
func (x *Explorer) Restore(ctx context.Context, st share.State) error {
	x.Searcher.Cancel()
	x.Topics.Cancel()
	x.mu.Lock()
	x.clearLocked()
	epoch := x.epoch
	x.mu.Unlock()
	return x.Restorer.restore(ctx, st, epoch)
}

// currentEpoch returns the clear counter.
func (x *Explorer) currentEpoch() uint64 {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.epoch
}

// Run dispatches visualizer events until ctx ends: a select loads the
// details panel, a double-click starts an expansion. Each event is handled
// in its own goroutine so a newer panel selection can supersede an older one.
func (x *Explorer) Run(ctx context.Context) error {
	selects := x.vis.OnNodeSelect(ctx)
	doubles := x.vis.OnNodeDoubleClick(ctx)

	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case id, ok := <-selects:
			if !ok {
				selects = nil
				continue
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = x.Panel.Select(ctx, id)
			}()
		case id, ok := <-doubles:
			if !ok {
				doubles = nil
				continue
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := x.Expander.Expand(ctx, id); err != nil && ctx.Err() == nil {
					x.logger.Warn("expansion failed", "node", id, "error", err)
				}
			}()
		}
	}
}

// weight returns the node weight of e under the current mode.
func (x *Explorer) weight(e entity.Entity) float64 {
	if p, ok := e.(forge.Project); ok && x.mode == ModeForks {
		return float64(p.ForksCount)
	}
	if t, ok := e.(forge.Topic); ok {
		return float64(t.TotalProjectsCount)
	}
	return 1
}

// materializeLocked records e in the repository and creates its node when
// it is new. It returns the node id whether or not the entity was new.
// x.mu must be held.
func (x *Explorer) materializeLocked(e entity.Entity) (string, bool) {
	k := e.Key()
	if !x.repo.TryAdd(e) {
		return x.vis.GenerateID(k.Type, k.ID), false
	}
	w := x.weight(e)
	switch v := e.(type) {
	case forge.Project:
		return x.vis.CreateProject(v, w), true
	case forge.User:
		return x.vis.CreateUser(v, w), true
	case forge.Group:
		return x.vis.CreateGroup(v, w), true
	case forge.Topic:
		return x.vis.CreateTopic(v, w), true
	}
	x.repo.Remove(k)
	x.logger.Warn("cannot materialize entity", "key", k)
	return "", false
}

// attach materializes each related entity kept by keep (nil keeps all) and
// connects it to origin. It returns the number of new nodes. Nothing
// happens when origin left the graph while its relations were being
// fetched, or when the graph was cleared since epoch, even if a later
// search brought the same node back.
func attach[E entity.Entity](x *Explorer, epoch uint64, origin string, related []E, kind graph.EdgeKind, keep func(E) bool) int {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.epoch != epoch || !x.vis.HasNode(origin) {
		return 0
	}
	added := 0
	for _, e := range related {
		if keep != nil && !keep(e) {
			continue
		}
		id, isNew := x.materializeLocked(e)
		if id == "" {
			continue
		}
		if isNew {
			added++
		}
		x.vis.ConnectNodes(origin, id, kind)
	}
	return added
}
