package explore

import (
	"bytes"
	"context"
	"fmt"
	"iter"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/forgemap/pkg/forge"
	"github.com/matzehuels/forgemap/pkg/graph"
)

// fakeForge serves canned data. Calls named in gates block until the gate
// is closed or the context ends; started receives the call name first.
type fakeForge struct {
	projects      map[int64]forge.Project
	users         map[int64][]forge.User
	groups        map[int64][]forge.Group
	forks         map[int64][]forge.Project
	userProjects  map[int64][]forge.Project
	groupProjects map[int64][]forge.Project
	members       map[int64][]forge.Member
	readmes       map[int64]string
	search        map[string][][]forge.Project
	topicProjects map[string][][]forge.Project
	roots         map[string][]int64
	topics        [][]forge.Topic
	topicSearch   map[string][][]forge.Topic
	fail          map[string]error

	mu      sync.Mutex
	gates   map[string]chan struct{}
	started chan string
}

func newFakeForge() *fakeForge {
	return &fakeForge{
		projects:      map[int64]forge.Project{},
		users:         map[int64][]forge.User{},
		groups:        map[int64][]forge.Group{},
		forks:         map[int64][]forge.Project{},
		userProjects:  map[int64][]forge.Project{},
		groupProjects: map[int64][]forge.Project{},
		members:       map[int64][]forge.Member{},
		readmes:       map[int64]string{},
		search:        map[string][][]forge.Project{},
		topicProjects: map[string][][]forge.Project{},
		roots:         map[string][]int64{},
		topicSearch:   map[string][][]forge.Topic{},
		fail:          map[string]error{},
		gates:         map[string]chan struct{}{},
		started:       make(chan string, 64),
	}
}

// gate makes call name block until the returned func is called.
func (f *fakeForge) gate(name string) (release func()) {
	ch := make(chan struct{})
	f.mu.Lock()
	f.gates[name] = ch
	f.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

func (f *fakeForge) enter(ctx context.Context, name string) error {
	f.mu.Lock()
	ch := f.gates[name]
	f.mu.Unlock()
	select {
	case f.started <- name:
	default:
	}
	if ch != nil {
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.fail[name]
}

func seq[T any](f *fakeForge, ctx context.Context, name string, batches [][]T) iter.Seq2[[]T, error] {
	return func(yield func([]T, error) bool) {
		if err := f.enter(ctx, name); err != nil {
			yield(nil, err)
			return
		}
		for _, b := range batches {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			if !yield(b, nil) {
				return
			}
		}
	}
}

func (f *fakeForge) Project(ctx context.Context, id int64) (*forge.Project, error) {
	if err := f.enter(ctx, fmt.Sprintf("project:%d", id)); err != nil {
		return nil, err
	}
	p, ok := f.projects[id]
	if !ok {
		return nil, fmt.Errorf("project %d: %w", id, forge.ErrNotFound)
	}
	return &p, nil
}

func (f *fakeForge) ProjectUsers(ctx context.Context, id int64) ([]forge.User, error) {
	if err := f.enter(ctx, fmt.Sprintf("users:%d", id)); err != nil {
		return nil, err
	}
	return f.users[id], nil
}

func (f *fakeForge) ProjectGroups(ctx context.Context, id int64) ([]forge.Group, error) {
	if err := f.enter(ctx, fmt.Sprintf("groups:%d", id)); err != nil {
		return nil, err
	}
	return f.groups[id], nil
}

func (f *fakeForge) ProjectForks(ctx context.Context, id int64) ([]forge.Project, error) {
	if err := f.enter(ctx, fmt.Sprintf("forks:%d", id)); err != nil {
		return nil, err
	}
	return f.forks[id], nil
}

func (f *fakeForge) ProjectReadme(ctx context.Context, id int64) (string, error) {
	if err := f.enter(ctx, fmt.Sprintf("readme:%d", id)); err != nil {
		return "", err
	}
	if r, ok := f.readmes[id]; ok {
		return r, nil
	}
	return forge.ReadmeUnavailable, nil
}

func (f *fakeForge) UserProjects(ctx context.Context, id int64) ([]forge.Project, error) {
	if err := f.enter(ctx, fmt.Sprintf("user-projects:%d", id)); err != nil {
		return nil, err
	}
	return f.userProjects[id], nil
}

func (f *fakeForge) GroupProjects(ctx context.Context, id int64) ([]forge.Project, error) {
	if err := f.enter(ctx, fmt.Sprintf("group-projects:%d", id)); err != nil {
		return nil, err
	}
	return f.groupProjects[id], nil
}

func (f *fakeForge) GroupMembers(ctx context.Context, id int64) ([]forge.Member, error) {
	if err := f.enter(ctx, fmt.Sprintf("members:%d", id)); err != nil {
		return nil, err
	}
	return f.members[id], nil
}

func (f *fakeForge) SearchProjects(ctx context.Context, q string) iter.Seq2[[]forge.Project, error] {
	return seq(f, ctx, "search:"+q, f.search[q])
}

func (f *fakeForge) TopicProjects(ctx context.Context, topic string) iter.Seq2[[]forge.Project, error] {
	return seq(f, ctx, "topic:"+topic, f.topicProjects[topic])
}

func (f *fakeForge) RootProjectIDs(ctx context.Context, q string) ([]int64, error) {
	if err := f.enter(ctx, "roots:"+q); err != nil {
		return nil, err
	}
	return f.roots[q], nil
}

func (f *fakeForge) ListTopics(ctx context.Context) iter.Seq2[[]forge.Topic, error] {
	return seq(f, ctx, "topics", f.topics)
}

func (f *fakeForge) SearchTopics(ctx context.Context, q string) iter.Seq2[[]forge.Topic, error] {
	return seq(f, ctx, "topics:"+q, f.topicSearch[q])
}

// waitStarted blocks until call name has been entered.
func (f *fakeForge) waitStarted(t *testing.T, name string) {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case got := <-f.started:
			if got == name {
				return
			}
		case <-timeout:
			t.Fatalf("call %q never started", name)
		}
	}
}

type fakeNotifier struct {
	mu      sync.Mutex
	copied  []string
	shown   []string
	hidden  int
	copyErr error
}

func (n *fakeNotifier) CopyToClipboard(_ context.Context, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.copied = append(n.copied, text)
	return n.copyErr
}

func (n *fakeNotifier) ShowToast(msg string) {
	n.mu.Lock()
	n.shown = append(n.shown, msg)
	n.mu.Unlock()
}

func (n *fakeNotifier) HideToast() {
	n.mu.Lock()
	n.hidden++
	n.mu.Unlock()
}

func (n *fakeNotifier) counts() (copied, shown, hidden int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.copied), len(n.shown), n.hidden
}

type fixture struct {
	forge    *fakeForge
	graph    *graph.Graph
	notifier *fakeNotifier
	logs     *syncWriter
	x        *Explorer
}

func newFixture(mode Mode) *fixture {
	fx := &fixture{
		forge:    newFakeForge(),
		graph:    graph.New(),
		notifier: &fakeNotifier{},
		logs:     &syncWriter{},
	}
	fx.x = New(Options{
		Forge:        fx.forge,
		Visualizer:   fx.graph,
		Notifier:     fx.notifier,
		Logger:       log.New(fx.logs),
		ShareBaseURL: "https://example.test",
		Mode:         mode,
	})
	return fx
}

// seed materializes entities as if a search had found them.
func (fx *fixture) seed(projects ...forge.Project) {
	fx.x.mu.Lock()
	defer fx.x.mu.Unlock()
	for _, p := range projects {
		fx.x.materializeLocked(p)
	}
}

func (fx *fixture) log() string { return fx.logs.String() }

type syncWriter struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (w *syncWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}

func (w *syncWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.String()
}

func project(id int64, name string) forge.Project { return forge.Project{ID: id, Name: name} }
func user(id int64, name string) forge.User       { return forge.User{ID: id, Username: name} }
func group(id int64, name string) forge.Group     { return forge.Group{ID: id, Name: name} }

func countEdges(g *graph.Graph, kind graph.EdgeKind) int {
	n := 0
	for _, e := range g.Edges() {
		if e.Kind == kind {
			n++
		}
	}
	return n
}
