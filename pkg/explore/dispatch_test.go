package explore

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/forgemap/pkg/entity"
	"github.com/matzehuels/forgemap/pkg/forge"
	"github.com/matzehuels/forgemap/pkg/graph"
	"github.com/matzehuels/forgemap/pkg/observability"
	"github.com/matzehuels/forgemap/pkg/share"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		in   string
		want Action
		err  bool
	}{
		{"expand", ActionExpand, false},
		{" Hide ", ActionHide, false},
		{"copy", ActionCopy, false},
		{"info", ActionInfo, false},
		{"explode", "", true},
	}
	for _, tt := range tests {
		got, err := ParseAction(tt.in)
		if (err != nil) != tt.err || got != tt.want {
			t.Errorf("ParseAction(%q) = %q, %v", tt.in, got, err)
		}
		if tt.err && !errors.Is(err, ErrUnknownAction) {
			t.Errorf("ParseAction(%q) err = %v, want ErrUnknownAction", tt.in, err)
		}
	}
}

func TestHideRemovesSelection(t *testing.T) {
	fx := newFixture(ModeRelations)
	fx.forge.users[1] = []forge.User{user(5, "ada")}
	fx.seed(project(1, "alpha"), project(2, "beta"))
	fx.x.Expander.Expand(context.Background(), "project-1")

	fx.graph.Select("project-1", "user-5")
	if n := fx.x.Dispatcher.Hide(context.Background()); n != 2 {
		t.Errorf("Hide() = %d, want 2", n)
	}
	if fx.graph.HasNode("project-1") || fx.graph.HasNode("user-5") {
		t.Error("hidden nodes still in graph")
	}
	if fx.x.Repository().Contains(entity.K(entity.TypeProject, 1)) {
		t.Error("hidden project still in repository")
	}
	if fx.x.Expander.State("project-1") != Collapsed {
		t.Error("expansion state kept for hidden node")
	}
	if !fx.graph.HasNode("project-2") || len(fx.graph.Edges()) != 0 {
		t.Error("unrelated graph state changed")
	}
}

// ghostSelection reports a selected node the graph does not know.
type ghostSelection struct{ *graph.Graph }

func (g ghostSelection) SelectedNodes() []string {
	return append(g.Graph.SelectedNodes(), "ghost")
}

func TestHideLogsUnknownNode(t *testing.T) {
	fx := newFixture(ModeRelations)
	fx.x.vis = ghostSelection{fx.graph}
	fx.seed(project(1, "alpha"))
	fx.graph.Select("project-1")

	if n := fx.x.Dispatcher.Hide(context.Background()); n != 1 {
		t.Errorf("Hide() = %d, want 1", n)
	}
	if !strings.Contains(fx.log(), "ghost") {
		t.Errorf("anomaly not logged: %q", fx.log())
	}
}

type hideHooks struct {
	observability.Noop
	removed, skipped int
	calls            int
}

func (h *hideHooks) OnHideComplete(_ context.Context, removed, skipped int) {
	h.calls++
	h.removed, h.skipped = removed, skipped
}

func TestHideReportsToHooks(t *testing.T) {
	hooks := &hideHooks{}
	observability.SetExploreHooks(hooks)
	t.Cleanup(observability.Reset)

	fx := newFixture(ModeRelations)
	fx.x.vis = ghostSelection{fx.graph}
	fx.seed(project(1, "alpha"), project(2, "beta"))
	fx.graph.Select("project-1", "project-2")
	fx.x.Dispatcher.Hide(context.Background())

	if hooks.calls != 1 || hooks.removed != 2 || hooks.skipped != 1 {
		t.Errorf("OnHideComplete calls=%d removed=%d skipped=%d, want 1/2/1",
			hooks.calls, hooks.removed, hooks.skipped)
	}
}

func TestCopyLink(t *testing.T) {
	fx := newFixture(ModeRelations)
	fx.forge.users[1] = []forge.User{user(5, "ada")}
	fx.forge.groups[1] = []forge.Group{group(3, "math")}
	fx.seed(project(1, "alpha"))
	fx.x.Expander.Expand(context.Background(), "project-1")

	link, err := fx.x.Dispatcher.CopyLink(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(link, "https://example.test"+share.RestorePath+"?") {
		t.Errorf("link = %q", link)
	}
	st, err := share.ParseLink(link)
	if err != nil {
		t.Fatal(err)
	}
	want := share.State{Projects: []int64{1}, Users: []int64{5}, Groups: []int64{3}}
	if !st.Equal(want) {
		t.Errorf("decoded %+v, want %+v", st, want)
	}
	if copied, shown, _ := fx.notifier.counts(); copied != 1 || shown != 1 {
		t.Errorf("copied=%d shown=%d", copied, shown)
	}
	if fx.notifier.shown[0] != CopiedMessage {
		t.Errorf("toast = %q", fx.notifier.shown[0])
	}
}

func TestCopyTwiceShowsOneToast(t *testing.T) {
	fx := newFixture(ModeRelations)
	ctx := context.Background()
	fx.x.Dispatcher.CopyLink(ctx)
	fx.x.Dispatcher.CopyLink(ctx)

	copied, shown, _ := fx.notifier.counts()
	if copied != 2 {
		t.Errorf("clipboard writes = %d, want 2", copied)
	}
	if shown != 1 {
		t.Errorf("toasts = %d, want 1", shown)
	}
	if !fx.x.Dispatcher.Toast().Active() {
		t.Error("toast not active")
	}
}

func TestCopyClipboardFailureIsLogged(t *testing.T) {
	fx := newFixture(ModeRelations)
	fx.notifier.copyErr = errors.New("no terminal")

	if _, err := fx.x.Dispatcher.CopyLink(context.Background()); err != nil {
		t.Fatalf("CopyLink returned %v", err)
	}
	if !strings.Contains(fx.log(), "no terminal") {
		t.Errorf("clipboard failure not logged: %q", fx.log())
	}
	if _, shown, _ := fx.notifier.counts(); shown != 1 {
		t.Error("toast not shown after clipboard failure")
	}
}

func TestToastHidesAfterDuration(t *testing.T) {
	n := &fakeNotifier{}
	toast := NewToast(n, 10*time.Millisecond)
	if !toast.Show("hi") {
		t.Fatal("first Show refused")
	}
	if toast.Show("again") {
		t.Error("second Show accepted while active")
	}

	deadline := time.Now().Add(2 * time.Second)
	for toast.Active() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if toast.Active() {
		t.Fatal("toast never hid")
	}
	if _, _, hidden := n.counts(); hidden != 1 {
		t.Errorf("hidden = %d, want 1", hidden)
	}
	if !toast.Show("later") {
		t.Error("Show refused after the toast hid")
	}
}

func TestDispatcherDo(t *testing.T) {
	fx := newFixture(ModeRelations)
	fx.forge.users[1] = []forge.User{user(5, "ada")}
	fx.seed(project(1, "alpha"))
	fx.graph.Select("project-1")
	ctx := context.Background()

	if err := fx.x.Dispatcher.Do(ctx, ActionExpand); err != nil {
		t.Fatal(err)
	}
	if !fx.graph.HasNode("user-5") {
		t.Error("expand action did not expand the selection")
	}
	if err := fx.x.Dispatcher.Do(ctx, ActionInfo); err != nil || !fx.x.Panel.Visible() {
		t.Errorf("info action: %v", err)
	}
	if err := fx.x.Dispatcher.Do(ctx, ActionCopy); err != nil {
		t.Fatal(err)
	}
	if err := fx.x.Dispatcher.Do(ctx, ActionHide); err != nil || fx.graph.HasNode("project-1") {
		t.Errorf("hide action: %v", err)
	}
	if err := fx.x.Dispatcher.Do(ctx, Action("nope")); !errors.Is(err, ErrUnknownAction) {
		t.Errorf("err = %v, want ErrUnknownAction", err)
	}
}
