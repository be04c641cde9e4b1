package explore

import (
	"context"
	"errors"
	"iter"

	"github.com/matzehuels/forgemap/pkg/entity"
	"github.com/matzehuels/forgemap/pkg/forge"
	"github.com/matzehuels/forgemap/pkg/graph"
)

var (
	// ErrUnknownNode is returned when a node id is not in the visualizer.
	ErrUnknownNode = errors.New("unknown node")

	// ErrSuperseded is returned by a search that a newer search replaced.
	ErrSuperseded = errors.New("superseded by a newer request")
)

// Forge is the subset of the forge API the engine calls. *forge.API
// implements it.
type Forge interface {
	Project(ctx context.Context, id int64) (*forge.Project, error)
	ProjectUsers(ctx context.Context, id int64) ([]forge.User, error)
	ProjectGroups(ctx context.Context, id int64) ([]forge.Group, error)
	ProjectForks(ctx context.Context, id int64) ([]forge.Project, error)
	ProjectReadme(ctx context.Context, id int64) (string, error)
	UserProjects(ctx context.Context, id int64) ([]forge.Project, error)
	GroupProjects(ctx context.Context, id int64) ([]forge.Project, error)
	GroupMembers(ctx context.Context, id int64) ([]forge.Member, error)
	SearchProjects(ctx context.Context, q string) iter.Seq2[[]forge.Project, error]
	TopicProjects(ctx context.Context, topic string) iter.Seq2[[]forge.Project, error]
	RootProjectIDs(ctx context.Context, q string) ([]int64, error)
	ListTopics(ctx context.Context) iter.Seq2[[]forge.Topic, error]
	SearchTopics(ctx context.Context, q string) iter.Seq2[[]forge.Topic, error]
}

// Visualizer is the graph front-end contract. Node creation must be
// idempotent per entity key and edge creation idempotent per pair.
// *graph.Graph implements it.
type Visualizer interface {
	GenerateID(t entity.Type, id int64) string
	CreateProject(p forge.Project, weight float64) string
	CreateUser(u forge.User, weight float64) string
	CreateGroup(g forge.Group, weight float64) string
	CreateTopic(t forge.Topic, weight float64) string
	ConnectNodes(a, b string, kind graph.EdgeKind) bool
	RemoveNode(id string) bool
	Clear()

	HasNode(id string) bool
	NodeKey(id string) (entity.Key, bool)
	NodeData(id string) (entity.Entity, bool)
	SelectedNodes() []string
	NodesIDByType(t entity.Type) []string
	SetRepulsion(r float64)

	OnNodeSelect(ctx context.Context) <-chan string
	OnNodeDoubleClick(ctx context.Context) <-chan string
}

var (
	_ Forge      = (*forge.API)(nil)
	_ Visualizer = (*graph.Graph)(nil)
)
