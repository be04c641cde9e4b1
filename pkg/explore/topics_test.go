package explore

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/matzehuels/forgemap/pkg/forge"
)

func TestTopicBrowserLoadSortsByProjectCount(t *testing.T) {
	fx := newFixture(ModeRelations)
	fx.forge.topics = [][]forge.Topic{
		{{ID: 1, Name: "go", TotalProjectsCount: 3}, {ID: 2, Name: "math", TotalProjectsCount: 10}},
		{{ID: 3, Name: "art", TotalProjectsCount: 3}},
	}
	fx.seed(project(1, "stale"))

	added, err := fx.x.Topics.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if added != 3 {
		t.Errorf("added = %d, want 3", added)
	}
	var names []string
	for _, tp := range fx.x.Topics.Topics() {
		names = append(names, tp.Name)
	}
	if want := []string{"math", "art", "go"}; !slices.Equal(names, want) {
		t.Errorf("order = %v, want %v", names, want)
	}
	if n, _ := fx.graph.Node("topic-2"); n.Weight != 10 {
		t.Errorf("weight = %v, want 10", n.Weight)
	}
	if fx.graph.HasNode("project-1") {
		t.Error("load kept the previous graph")
	}
}

func TestTopicBrowserSearchAndResolve(t *testing.T) {
	fx := newFixture(ModeRelations)
	fx.forge.topicSearch["ma"] = [][]forge.Topic{{{ID: 2, Name: "math", Title: "Mathematics"}}}

	if _, err := fx.x.Topics.Search(context.Background(), "ma"); err != nil {
		t.Fatal(err)
	}
	name, err := fx.x.Topics.Resolve("topic-2")
	if err != nil || name != "math" {
		t.Errorf("Resolve = %q, %v", name, err)
	}

	fx.seed(project(1, "alpha"))
	if _, err := fx.x.Topics.Resolve("project-1"); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("Resolve(project) err = %v", err)
	}
}

func TestTopicBrowserSupersededBySearch(t *testing.T) {
	fx := newFixture(ModeRelations)
	fx.forge.topics = [][]forge.Topic{{{ID: 1, Name: "go"}}}
	fx.forge.search["x"] = [][]forge.Project{{project(1, "a")}}
	release := fx.forge.gate("topics")
	defer release()

	done := make(chan error, 1)
	go func() {
		_, err := fx.x.Topics.Load(context.Background())
		done <- err
	}()
	fx.forge.waitStarted(t, "topics")

	if _, err := fx.x.Searcher.Search(context.Background(), "x"); err != nil {
		t.Fatal(err)
	}
	if err := <-done; !errors.Is(err, ErrSuperseded) {
		t.Errorf("load err = %v, want ErrSuperseded", err)
	}
	if fx.graph.HasNode("topic-1") {
		t.Error("superseded topics applied")
	}
}
