package explore

import (
	"context"
	"errors"
	"iter"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/forgemap/pkg/forge"
	"github.com/matzehuels/forgemap/pkg/observability"
)

// Searcher replaces the graph with search or topic results. Starting a new
// search cancels the previous one and clears the graph first; batches of a
// superseded search are never applied.
type Searcher struct {
	x *Explorer

	gen     atomic.Uint64
	loading atomic.Bool

	mu       sync.Mutex
	cancel   context.CancelFunc
	restrict string
}

// Restrict pins searches to a topic: afterwards every Search lists the
// topic's projects instead. An empty topic lifts the restriction.
func (s *Searcher) Restrict(topic string) {
	s.mu.Lock()
	s.restrict = topic
	s.mu.Unlock()
}

// Restriction returns the topic set by Restrict.
func (s *Searcher) Restriction() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.restrict
}

// Loading reports whether a search is in flight.
func (s *Searcher) Loading() bool { return s.loading.Load() }

// Cancel aborts the running search, if any.
func (s *Searcher) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen.Add(1)
	s.loading.Store(false)
}

// Search replaces the graph with the projects matching q. An empty query,
// or any query while a topic restriction is set, lists the restricted
// topic instead; with no restriction an empty query does nothing.
func (s *Searcher) Search(ctx context.Context, q string) (int, error) {
	if topic := s.Restriction(); q == "" || topic != "" {
		if topic == "" {
			return 0, nil
		}
		return s.Topic(ctx, topic)
	}
	ctx, gen := s.begin(ctx)
	return s.apply(ctx, gen, "projects", s.x.forge.SearchProjects(ctx, q))
}

// Topic replaces the graph with the projects tagged with topic.
func (s *Searcher) Topic(ctx context.Context, topic string) (int, error) {
	ctx, gen := s.begin(ctx)
	return s.apply(ctx, gen, "topic", s.x.forge.TopicProjects(ctx, topic))
}

// SearchRoots replaces the graph with the non-fork projects matching q.
func (s *Searcher) SearchRoots(ctx context.Context, q string) (int, error) {
	ctx, gen := s.begin(ctx)
	return s.apply(ctx, gen, "roots", s.rootProjects(ctx, q))
}

// rootProjects resolves root ids to projects, yielding them as one batch.
func (s *Searcher) rootProjects(ctx context.Context, q string) iter.Seq2[[]forge.Project, error] {
	return func(yield func([]forge.Project, error) bool) {
		ids, err := s.x.forge.RootProjectIDs(ctx, q)
		if err != nil {
			yield(nil, err)
			return
		}
		projects := make([]forge.Project, len(ids))
		var g errgroup.Group
		g.SetLimit(restoreConcurrency)
		for i, id := range ids {
			g.Go(func() error {
				p, err := s.x.forge.Project(ctx, id)
				if err != nil {
					return err
				}
				projects[i] = *p
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			yield(nil, err)
			return
		}
		yield(projects, nil)
	}
}

// begin supersedes the running search and clears the graph.
func (s *Searcher) begin(ctx context.Context) (context.Context, uint64) {
	s.x.Topics.Cancel()
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.cancel = cancel
	gen := s.gen.Add(1)
	s.loading.Store(true)
	s.mu.Unlock()

	s.clearIfCurrent(gen)
	return ctx, gen
}

// clearIfCurrent clears the graph unless a newer search started after gen,
// in which case the graph already belongs to that search.
func (s *Searcher) clearIfCurrent(gen uint64) bool {
	s.x.mu.Lock()
	defer s.x.mu.Unlock()
	if !s.current(gen) {
		return false
	}
	s.x.clearLocked()
	return true
}

func (s *Searcher) current(gen uint64) bool { return s.gen.Load() == gen }

// apply materializes batches while gen is still the current search.
func (s *Searcher) apply(ctx context.Context, gen uint64, kind string, seq iter.Seq2[[]forge.Project, error]) (int, error) {
	start := time.Now()
	added := 0
	var err error
	for batch, berr := range seq {
		if berr != nil {
			err = berr
			break
		}
		if !s.applyBatch(gen, batch, &added) {
			break
		}
	}

	superseded := !s.current(gen)
	observability.Explore().OnSearchComplete(ctx, kind, added, time.Since(start), superseded)
	if superseded {
		return added, ErrSuperseded
	}
	s.finish(gen)
	if err != nil && !errors.Is(err, context.Canceled) {
		s.x.logger.Warn("search stopped early", "kind", kind, "applied", added, "error", err)
	}
	return added, err
}

func (s *Searcher) applyBatch(gen uint64, batch []forge.Project, added *int) bool {
	s.x.mu.Lock()
	defer s.x.mu.Unlock()
	if !s.current(gen) {
		return false
	}
	for _, p := range batch {
		if _, isNew := s.x.materializeLocked(p); isNew {
			*added++
		}
	}
	return true
}

func (s *Searcher) finish(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current(gen) {
		s.loading.Store(false)
		if s.cancel != nil {
			s.cancel()
			s.cancel = nil
		}
	}
}
