package explore

import (
	"cmp"
	"context"
	"fmt"
	"iter"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/matzehuels/forgemap/pkg/entity"
	"github.com/matzehuels/forgemap/pkg/forge"
)

// TopicBrowser shows topics as graph nodes weighted by their project
// count. Loading or searching replaces the graph and supersedes the
// previous request in the same way Searcher does.
type TopicBrowser struct {
	x *Explorer

	gen atomic.Uint64

	mu     sync.Mutex
	cancel context.CancelFunc
	topics []forge.Topic
}

// Load replaces the graph with every topic of the forge.
func (b *TopicBrowser) Load(ctx context.Context) (int, error) {
	ctx, gen := b.begin(ctx)
	return b.apply(gen, b.x.forge.ListTopics(ctx))
}

// Search replaces the graph with the topics matching q. An empty query
// loads every topic.
func (b *TopicBrowser) Search(ctx context.Context, q string) (int, error) {
	if q == "" {
		return b.Load(ctx)
	}
	ctx, gen := b.begin(ctx)
	return b.apply(gen, b.x.forge.SearchTopics(ctx, q))
}

// Topics returns the loaded topics by descending project count, ties by
// name.
func (b *TopicBrowser) Topics() []forge.Topic {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.topics)
}

// Resolve returns the topic name behind node id.
func (b *TopicBrowser) Resolve(id string) (string, error) {
	k, ok := b.x.vis.NodeKey(id)
	if !ok || k.Type != entity.TypeTopic {
		return "", fmt.Errorf("%w: %s is not a topic", ErrUnknownNode, id)
	}
	data, _ := b.x.vis.NodeData(id)
	t, ok := data.(forge.Topic)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	return t.Name, nil
}

// Cancel aborts the running load, if any.
func (b *TopicBrowser) Cancel() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
	b.gen.Add(1)
}

func (b *TopicBrowser) begin(ctx context.Context) (context.Context, uint64) {
	b.x.Searcher.Cancel()
	ctx, cancel := context.WithCancel(ctx)

	b.mu.Lock()
	if b.cancel != nil {
		b.cancel()
	}
	b.cancel = cancel
	gen := b.gen.Add(1)
	b.topics = nil
	b.mu.Unlock()

	b.x.mu.Lock()
	if b.gen.Load() == gen {
		b.x.clearLocked()
	}
	b.x.mu.Unlock()
	return ctx, gen
}

func (b *TopicBrowser) apply(gen uint64, seq iter.Seq2[[]forge.Topic, error]) (int, error) {
	added := 0
	for batch, err := range seq {
		if err != nil {
			if b.gen.Load() != gen {
				return added, ErrSuperseded
			}
			return added, err
		}
		b.x.mu.Lock()
		if b.gen.Load() != gen {
			b.x.mu.Unlock()
			return added, ErrSuperseded
		}
		for _, t := range batch {
			if _, isNew := b.x.materializeLocked(t); isNew {
				added++
			}
		}
		b.x.mu.Unlock()

		b.mu.Lock()
		b.topics = append(b.topics, batch...)
		slices.SortStableFunc(b.topics, func(a, c forge.Topic) int {
			if n := cmp.Compare(c.TotalProjectsCount, a.TotalProjectsCount); n != 0 {
				return n
			}
			return cmp.Compare(a.Name, c.Name)
		})
		b.mu.Unlock()
	}
	if b.gen.Load() != gen {
		return added, ErrSuperseded
	}
	return added, nil
}
