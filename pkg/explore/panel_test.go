package explore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/matzehuels/forgemap/pkg/forge"
)

func TestPanelSelectByType(t *testing.T) {
	fx := newFixture(ModeRelations)
	fx.forge.readmes[1] = "# alpha"
	fx.forge.userProjects[5] = []forge.Project{project(1, "alpha"), project(2, "beta")}
	fx.forge.members[3] = []forge.Member{{ID: 5, Name: "ada"}}

	fx.x.mu.Lock()
	fx.x.materializeLocked(project(1, "alpha"))
	fx.x.materializeLocked(user(5, "ada"))
	fx.x.materializeLocked(group(3, "math"))
	fx.x.mu.Unlock()

	ctx := context.Background()
	p := fx.x.Panel

	if err := p.Select(ctx, "project-1"); err != nil {
		t.Fatal(err)
	}
	if info := p.Info(); info.Readme != "# alpha" || info.Loading {
		t.Errorf("project panel = %+v", info)
	}

	if err := p.Select(ctx, "user-5"); err != nil {
		t.Fatal(err)
	}
	if info := p.Info(); len(info.UserProjects) != 2 || info.Readme != "" {
		t.Errorf("user panel = %+v", info)
	}

	if err := p.Select(ctx, "group-3"); err != nil {
		t.Fatal(err)
	}
	info := p.Info()
	if len(info.GroupMembers) != 1 || info.GroupMembers[0].Name != "ada" {
		t.Errorf("group panel = %+v", info)
	}
	if len(info.UserProjects) != 0 {
		t.Error("user projects survived a group selection")
	}
}

func TestPanelSelectUnknownNode(t *testing.T) {
	fx := newFixture(ModeRelations)
	if err := fx.x.Panel.Select(context.Background(), "user-1"); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("err = %v, want ErrUnknownNode", err)
	}
}

func TestPanelErrorLeavesEmptyPanel(t *testing.T) {
	fx := newFixture(ModeRelations)
	fx.forge.fail["members:3"] = forge.ErrNetwork
	fx.x.mu.Lock()
	fx.x.materializeLocked(group(3, "math"))
	fx.x.mu.Unlock()

	if err := fx.x.Panel.Select(context.Background(), "group-3"); err != nil {
		t.Fatalf("Select: %v", err)
	}
	info := fx.x.Panel.Info()
	if len(info.GroupMembers) != 0 || info.Loading {
		t.Errorf("panel = %+v, want empty", info)
	}
}

func TestPanelNewerSelectionSupersedes(t *testing.T) {
	fx := newFixture(ModeRelations)
	fx.forge.userProjects[5] = []forge.Project{project(1, "alpha")}
	fx.forge.members[3] = []forge.Member{{ID: 5, Name: "ada"}}
	release := fx.forge.gate("user-projects:5")
	defer release()

	fx.x.mu.Lock()
	fx.x.materializeLocked(user(5, "ada"))
	fx.x.materializeLocked(group(3, "math"))
	fx.x.mu.Unlock()

	first := make(chan error, 1)
	go func() { first <- fx.x.Panel.Select(context.Background(), "user-5") }()
	fx.forge.waitStarted(t, "user-projects:5")

	if err := fx.x.Panel.Select(context.Background(), "group-3"); err != nil {
		t.Fatal(err)
	}
	select {
	case <-first:
	case <-time.After(2 * time.Second):
		t.Fatal("first selection was not cancelled")
	}

	info := fx.x.Panel.Info()
	if info.Node != "group-3" {
		t.Errorf("panel node = %q, want group-3", info.Node)
	}
	if len(info.UserProjects) != 0 {
		t.Error("superseded user projects were applied")
	}
}

func TestPanelToggle(t *testing.T) {
	fx := newFixture(ModeRelations)
	if fx.x.Panel.Visible() {
		t.Fatal("panel visible by default")
	}
	if !fx.x.Dispatcher.ToggleInfo() || !fx.x.Panel.Info().Visible {
		t.Error("toggle did not show the panel")
	}
	if fx.x.Panel.Toggle() {
		t.Error("second toggle did not hide the panel")
	}
}
