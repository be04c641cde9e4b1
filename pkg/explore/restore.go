package explore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/forgemap/pkg/forge"
	"github.com/matzehuels/forgemap/pkg/graph"
	"github.com/matzehuels/forgemap/pkg/observability"
	"github.com/matzehuels/forgemap/pkg/share"
)

// restoreConcurrency bounds the number of projects restored at once.
const restoreConcurrency = 8

// Restorer rebuilds a shared selection. Every listed project is
// materialized; of its live users and groups only those listed in the
// shared state are materialized and connected, so the result is the shared
// subgraph rather than a full re-expansion.
type Restorer struct {
	x *Explorer
}

// Restore materializes st into the current graph. Projects are restored
// concurrently; failures are joined and returned once every project has
// been attempted, leaving whatever succeeded in place.
func (r *Restorer) Restore(ctx context.Context, st share.State) error {
	return r.restore(ctx, st, r.x.currentEpoch())
}

func (r *Restorer) restore(ctx context.Context, st share.State, epoch uint64) error {
	start := time.Now()
	users := idSet(st.Users)
	groups := idSet(st.Groups)

	var (
		mu   sync.Mutex
		errs []error
		g    errgroup.Group
	)
	g.SetLimit(restoreConcurrency)
	for _, pid := range st.Projects {
		g.Go(func() error {
			if err := r.restoreProject(ctx, epoch, pid, users, groups); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	g.Wait()

	err := errors.Join(errs...)
	observability.Explore().OnRestoreComplete(ctx, r.x.repo.Len(), time.Since(start), err)
	if err != nil {
		r.x.logger.Warn("restore incomplete", "projects", len(st.Projects), "failed", len(errs))
	}
	return err
}

func (r *Restorer) restoreProject(ctx context.Context, epoch uint64, pid int64, users, groups map[int64]bool) error {
	p, err := r.x.forge.Project(ctx, pid)
	if err != nil {
		return fmt.Errorf("restore project %d: %w", pid, err)
	}

	r.x.mu.Lock()
	if r.x.epoch != epoch {
		r.x.mu.Unlock()
		return nil
	}
	origin, _ := r.x.materializeLocked(*p)
	r.x.mu.Unlock()

	var g errgroup.Group
	g.Go(func() error {
		list, err := r.x.forge.ProjectUsers(ctx, pid)
		if err != nil {
			return fmt.Errorf("restore users of project %d: %w", pid, err)
		}
		attach(r.x, epoch, origin, list, graph.EdgeRelation, func(u forge.User) bool { return users[u.ID] })
		return nil
	})
	g.Go(func() error {
		list, err := r.x.forge.ProjectGroups(ctx, pid)
		if err != nil {
			return fmt.Errorf("restore groups of project %d: %w", pid, err)
		}
		attach(r.x, epoch, origin, list, graph.EdgeRelation, func(gr forge.Group) bool { return groups[gr.ID] })
		return nil
	})
	return g.Wait()
}

func idSet(ids []int64) map[int64]bool {
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
