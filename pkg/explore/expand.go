package explore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/forgemap/pkg/entity"
	"github.com/matzehuels/forgemap/pkg/forge"
	"github.com/matzehuels/forgemap/pkg/graph"
	"github.com/matzehuels/forgemap/pkg/observability"
)

// State is the expansion state of a node.
type State int

const (
	Collapsed State = iota
	Expanding
	Expanded
)

func (s State) String() string {
	switch s {
	case Expanding:
		return "expanding"
	case Expanded:
		return "expanded"
	}
	return "collapsed"
}

// Expander fetches the relations of a node and attaches them to the graph.
// Expanding a node again is allowed; node and edge creation are idempotent
// so the graph does not change unless the forge returns new relations.
type Expander struct {
	x *Explorer

	mu     sync.Mutex
	states map[string]State
}

// State returns the expansion state of node id.
func (e *Expander) State(id string) State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.states[id]
}

func (e *Expander) setState(id string, s State) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s == Collapsed {
		delete(e.states, id)
		return
	}
	e.states[id] = s
}

func (e *Expander) forget(id string) { e.setState(id, Collapsed) }

func (e *Expander) reset() {
	e.mu.Lock()
	e.states = make(map[string]State)
	e.mu.Unlock()
}

// Expand attaches the relations of node id according to its type: users
// and groups for a project (forks in ModeForks), projects for a user, a
// group or a topic. It returns the number of nodes added.
func (e *Expander) Expand(ctx context.Context, id string) (int, error) {
	if e.x.mode == ModeForks {
		if k, ok := e.x.vis.NodeKey(id); ok && k.Type == entity.TypeProject {
			return e.ExpandForks(ctx, id)
		}
	}
	return e.run(ctx, id, graph.EdgeRelation, e.relations)
}

// ExpandForks attaches the direct forks of project node id with fork-of
// edges.
func (e *Expander) ExpandForks(ctx context.Context, id string) (int, error) {
	return e.run(ctx, id, graph.EdgeForkOf, func(ctx context.Context, id string, k entity.Key, epoch uint64) (int, error) {
		if k.Type != entity.TypeProject {
			return 0, fmt.Errorf("%w: %s is not a project", ErrUnknownNode, id)
		}
		forks, err := e.x.forge.ProjectForks(ctx, k.ID)
		if err != nil {
			return 0, err
		}
		return attach(e.x, epoch, id, forks, graph.EdgeForkOf, nil), nil
	})
}

type expandFunc func(ctx context.Context, id string, k entity.Key, epoch uint64) (int, error)

func (e *Expander) run(ctx context.Context, id string, kind graph.EdgeKind, fn expandFunc) (int, error) {
	k, ok := e.x.vis.NodeKey(id)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}

	mode := string(kind)
	observability.Explore().OnExpandStart(ctx, id, mode)
	start := time.Now()

	// The state is set under x.mu so a concurrent clear resets it.
	e.x.mu.Lock()
	epoch := e.x.epoch
	e.setState(id, Expanding)
	e.x.mu.Unlock()

	added, err := fn(ctx, id, k, epoch)

	observability.Explore().OnExpandComplete(ctx, id, mode, added, time.Since(start), err)

	e.x.mu.Lock()
	defer e.x.mu.Unlock()
	switch {
	case e.x.epoch != epoch:
		// Cleared mid-flight; the state map was reset with the graph.
		return added, err
	case !e.x.vis.HasNode(id):
		e.forget(id)
		return added, err
	case err != nil:
		e.setState(id, Collapsed)
		return added, fmt.Errorf("expand %s: %w", id, err)
	}
	e.setState(id, Expanded)
	e.x.logger.Debug("expanded node", "node", id, "kind", kind, "added", added)
	return added, nil
}

// relations dispatches on the node type.
func (e *Expander) relations(ctx context.Context, id string, k entity.Key, epoch uint64) (int, error) {
	f := e.x.forge
	switch k.Type {
	case entity.TypeProject:
		// Users and groups are fetched concurrently and each list is
		// attached as soon as it arrives.
		var added atomic.Int64
		var g errgroup.Group
		g.Go(func() error {
			users, err := f.ProjectUsers(ctx, k.ID)
			if err != nil {
				return err
			}
			added.Add(int64(attach(e.x, epoch, id, users, graph.EdgeRelation, nil)))
			return nil
		})
		g.Go(func() error {
			groups, err := f.ProjectGroups(ctx, k.ID)
			if err != nil {
				return err
			}
			added.Add(int64(attach(e.x, epoch, id, groups, graph.EdgeRelation, nil)))
			return nil
		})
		err := g.Wait()
		return int(added.Load()), err

	case entity.TypeUser:
		projects, err := f.UserProjects(ctx, k.ID)
		if err != nil {
			return 0, err
		}
		return attach(e.x, epoch, id, projects, graph.EdgeRelation, nil), nil

	case entity.TypeGroup:
		projects, err := f.GroupProjects(ctx, k.ID)
		if err != nil {
			return 0, err
		}
		return attach(e.x, epoch, id, projects, graph.EdgeRelation, nil), nil

	case entity.TypeTopic:
		data, _ := e.x.vis.NodeData(id)
		t, ok := data.(forge.Topic)
		if !ok {
			return 0, fmt.Errorf("%w: topic node %s has no topic payload", ErrUnknownNode, id)
		}
		added := 0
		for batch, err := range f.TopicProjects(ctx, t.Name) {
			if err != nil {
				return added, err
			}
			added += attach(e.x, epoch, id, batch, graph.EdgeRelation, nil)
		}
		return added, nil
	}
	return 0, fmt.Errorf("%w: %s", entity.ErrUnknownType, k.Type)
}

// ExpandAll expands every node in ids concurrently and joins the errors.
func (e *Expander) ExpandAll(ctx context.Context, ids []string) (int, error) {
	var (
		total atomic.Int64
		mu    sync.Mutex
		errs  []error
		g     errgroup.Group
	)
	for _, id := range ids {
		g.Go(func() error {
			n, err := e.Expand(ctx, id)
			total.Add(int64(n))
			if err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	g.Wait()
	return int(total.Load()), errors.Join(errs...)
}
