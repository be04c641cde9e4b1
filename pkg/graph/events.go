package graph

import (
	"context"
	"sync"
)

const eventBuffer = 16

type subscription struct {
	ch   chan string
	done <-chan struct{}
}

type events struct {
	mu      sync.Mutex
	next    int
	clicks  map[int]*subscription
	doubles map[int]*subscription
}

func (e *events) subs(double bool) map[int]*subscription {
	if e.clicks == nil {
		e.clicks = make(map[int]*subscription)
		e.doubles = make(map[int]*subscription)
	}
	if double {
		return e.doubles
	}
	return e.clicks
}

func (e *events) subscribe(ctx context.Context, double bool) <-chan string {
	sub := &subscription{ch: make(chan string, eventBuffer), done: ctx.Done()}

	e.mu.Lock()
	id := e.next
	e.next++
	subs := e.subs(double)
	subs[id] = sub
	e.mu.Unlock()

	go func() {
		<-ctx.Done()
		e.mu.Lock()
		delete(subs, id)
		close(sub.ch)
		e.mu.Unlock()
	}()
	return sub.ch
}

// emit delivers id to every live subscriber, waiting for slow consumers
// unless their context ends.
func (e *events) emit(id string, double bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, sub := range e.subs(double) {
		select {
		case sub.ch <- id:
		case <-sub.done:
		}
	}
}

// OnNodeSelect streams the ids of clicked nodes until ctx ends, then closes
// the channel.
func (g *Graph) OnNodeSelect(ctx context.Context) <-chan string {
	return g.events.subscribe(ctx, false)
}

// OnNodeDoubleClick streams the ids of double-clicked nodes until ctx ends,
// then closes the channel.
func (g *Graph) OnNodeDoubleClick(ctx context.Context) <-chan string {
	return g.events.subscribe(ctx, true)
}

// Click selects id alone and emits a select event. Unknown ids are ignored.
func (g *Graph) Click(id string) bool {
	if !g.HasNode(id) {
		return false
	}
	g.Select(id)
	g.events.emit(id, false)
	return true
}

// DoubleClick emits a double-click event for id. Unknown ids are ignored.
func (g *Graph) DoubleClick(id string) bool {
	if !g.HasNode(id) {
		return false
	}
	g.events.emit(id, true)
	return true
}
