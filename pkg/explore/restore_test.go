package explore

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/matzehuels/forgemap/pkg/entity"
	"github.com/matzehuels/forgemap/pkg/forge"
	"github.com/matzehuels/forgemap/pkg/share"
)

func TestRestoreMaterializesOnlySharedRelations(t *testing.T) {
	fx := newFixture(ModeRelations)
	fx.forge.projects[10] = project(10, "alpha")
	fx.forge.users[10] = []forge.User{user(5, "ada"), user(6, "bob")}
	fx.forge.groups[10] = []forge.Group{group(3, "math")}

	st := share.State{Projects: []int64{10}, Users: []int64{5}, Groups: []int64{}}
	if err := fx.x.Restore(context.Background(), st); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	var ids []string
	for _, n := range fx.graph.Nodes() {
		ids = append(ids, n.ID)
	}
	slices.Sort(ids)
	if want := []string{"project-10", "user-5"}; !slices.Equal(ids, want) {
		t.Errorf("nodes = %v, want %v", ids, want)
	}
	if n := len(fx.graph.Edges()); n != 1 {
		t.Errorf("edges = %d, want 1", n)
	}
	if got := fx.x.State(); !got.Equal(st) {
		t.Errorf("State() = %+v, want %+v", got, st)
	}
}

func TestRestoreSharedUserAcrossProjects(t *testing.T) {
	fx := newFixture(ModeRelations)
	fx.forge.projects[1] = project(1, "alpha")
	fx.forge.projects[2] = project(2, "beta")
	fx.forge.users[1] = []forge.User{user(5, "ada")}
	fx.forge.users[2] = []forge.User{user(5, "ada")}

	st := share.State{Projects: []int64{1, 2}, Users: []int64{5}}
	if err := fx.x.Restorer.Restore(context.Background(), st); err != nil {
		t.Fatal(err)
	}
	if n := len(fx.graph.NodesIDByType(entity.TypeUser)); n != 1 {
		t.Errorf("user nodes = %d, want 1", n)
	}
	if n := len(fx.graph.Edges()); n != 2 {
		t.Errorf("edges = %d, want 2", n)
	}
}

func TestRestoreJoinsErrorsAndKeepsSuccesses(t *testing.T) {
	fx := newFixture(ModeRelations)
	fx.forge.projects[1] = project(1, "alpha")
	fx.forge.projects[3] = project(3, "gamma")
	fx.forge.fail["groups:3"] = forge.ErrNetwork

	st := share.State{Projects: []int64{1, 2, 3}}
	err := fx.x.Restorer.Restore(context.Background(), st)
	if !errors.Is(err, forge.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound for project 2", err)
	}
	if !errors.Is(err, forge.ErrNetwork) {
		t.Errorf("err = %v, want ErrNetwork for project 3", err)
	}
	for _, id := range []string{"project-1", "project-3"} {
		if !fx.graph.HasNode(id) {
			t.Errorf("missing %s", id)
		}
	}
	if fx.graph.HasNode("project-2") {
		t.Error("project-2 should not exist")
	}
}

func TestExplorerRestoreReplacesGraph(t *testing.T) {
	fx := newFixture(ModeRelations)
	fx.forge.projects[1] = project(1, "alpha")
	fx.seed(project(99, "stale"))

	if err := fx.x.Restore(context.Background(), share.State{Projects: []int64{1}}); err != nil {
		t.Fatal(err)
	}
	if fx.graph.HasNode("project-99") {
		t.Error("restore kept the previous graph")
	}
	if !fx.graph.HasNode("project-1") {
		t.Error("restored project missing")
	}
}

func TestExplorerRestoreCancelsTopicLoad(t *testing.T) {
	fx := newFixture(ModeRelations)
	fx.forge.projects[10] = project(10, "alpha")
	fx.forge.topics = [][]forge.Topic{{{ID: 77, Name: "maths", TotalProjectsCount: 3}}}
	release := fx.forge.gate("topics")
	defer release()

	loaded := make(chan error, 1)
	go func() {
		_, err := fx.x.Topics.Load(context.Background())
		loaded <- err
	}()
	fx.forge.waitStarted(t, "topics")

	if err := fx.x.Restore(context.Background(), share.State{Projects: []int64{10}}); err != nil {
		t.Fatal(err)
	}
	release()

	select {
	case err := <-loaded:
		if !errors.Is(err, ErrSuperseded) {
			t.Errorf("topic load err = %v, want ErrSuperseded", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("topic load never returned")
	}
	if fx.graph.HasNode("topic-77") {
		t.Error("topic load applied into the restored graph")
	}
	if fx.graph.Len() != 1 {
		t.Errorf("graph has %d nodes, want 1", fx.graph.Len())
	}
}
