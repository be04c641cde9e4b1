package graph

import (
	"strconv"
	"sync"

	"github.com/matzehuels/forgemap/pkg/entity"
	"github.com/matzehuels/forgemap/pkg/forge"
)

// EdgeKind distinguishes discovered relations from fork lineage.
type EdgeKind string

const (
	// EdgeRelation links a project to a user or group. It is undirected.
	EdgeRelation EdgeKind = "relation"
	// EdgeForkOf links an origin project to one of its forks.
	EdgeForkOf EdgeKind = "fork-of"
)

// DefaultRepulsion is the layout hint used until SetRepulsion is called.
const DefaultRepulsion = 1.0

// GenerateID returns the node id for an entity: "<type>-<id>". It is a pure
// function of its arguments.
func GenerateID(t entity.Type, id int64) string {
	return string(t) + "-" + strconv.FormatInt(id, 10)
}

type node struct {
	key    entity.Key
	data   entity.Entity
	weight float64
}

type edgeKey struct {
	from, to string
	kind     EdgeKind
}

func newEdgeKey(a, b string, kind EdgeKind) edgeKey {
	if kind == EdgeRelation && b < a {
		a, b = b, a
	}
	return edgeKey{from: a, to: b, kind: kind}
}

// Graph is an in-memory entity graph with selection and event streams.
//
// All methods are safe for concurrent use.
type Graph struct {
	mu        sync.RWMutex
	nodes     map[string]*node
	order     []string
	edges     map[edgeKey]struct{}
	edgeOrder []edgeKey
	selected  []string
	repulsion float64

	events events
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		nodes:     make(map[string]*node),
		edges:     make(map[edgeKey]struct{}),
		repulsion: DefaultRepulsion,
	}
}

// GenerateID is the method form of the package function.
func (g *Graph) GenerateID(t entity.Type, id int64) string { return GenerateID(t, id) }

// CreateNode adds a node for e unless one with the same id exists. It
// returns the node id either way; the existing payload is kept.
func (g *Graph) CreateNode(e entity.Entity, weight float64) string {
	k := e.Key()
	id := GenerateID(k.Type, k.ID)

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.nodes[id]; ok {
		return id
	}
	g.nodes[id] = &node{key: k, data: e, weight: weight}
	g.order = append(g.order, id)
	return id
}

// CreateProject adds a project node.
func (g *Graph) CreateProject(p forge.Project, weight float64) string { return g.CreateNode(p, weight) }

// CreateUser adds a user node.
func (g *Graph) CreateUser(u forge.User, weight float64) string { return g.CreateNode(u, weight) }

// CreateGroup adds a group node.
func (g *Graph) CreateGroup(gr forge.Group, weight float64) string { return g.CreateNode(gr, weight) }

// CreateTopic adds a topic node.
func (g *Graph) CreateTopic(t forge.Topic, weight float64) string { return g.CreateNode(t, weight) }

// ConnectNodes adds an edge between a and b and reports whether it was new.
// Self-loops, unknown endpoints and already present edges are ignored.
func (g *Graph) ConnectNodes(a, b string, kind EdgeKind) bool {
	if a == b {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.nodes[a] == nil || g.nodes[b] == nil {
		return false
	}
	k := newEdgeKey(a, b, kind)
	if _, ok := g.edges[k]; ok {
		return false
	}
	g.edges[k] = struct{}{}
	g.edgeOrder = append(g.edgeOrder, k)
	return true
}

// RemoveNode deletes a node together with its edges and selection state.
func (g *Graph) RemoveNode(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.nodes[id]; !ok {
		return false
	}
	delete(g.nodes, id)
	g.order = without(g.order, id)
	g.selected = without(g.selected, id)

	kept := g.edgeOrder[:0]
	for _, k := range g.edgeOrder {
		if k.from == id || k.to == id {
			delete(g.edges, k)
			continue
		}
		kept = append(kept, k)
	}
	g.edgeOrder = kept
	return true
}

// Clear removes every node and edge.
func (g *Graph) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nodes = make(map[string]*node)
	g.edges = make(map[edgeKey]struct{})
	g.order = nil
	g.edgeOrder = nil
	g.selected = nil
}

// HasNode reports whether id is present.
func (g *Graph) HasNode(id string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nodes[id] != nil
}

// NodeKey returns the entity key behind a node.
func (g *Graph) NodeKey(id string) (entity.Key, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n := g.nodes[id]
	if n == nil {
		return entity.Key{}, false
	}
	return n.key, true
}

// NodeData returns the entity payload of a node.
func (g *Graph) NodeData(id string) (entity.Entity, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n := g.nodes[id]
	if n == nil {
		return nil, false
	}
	return n.data, true
}

// Node returns the serializable view of one node.
func (g *Graph) Node(id string) (Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n := g.nodes[id]
	if n == nil {
		return Node{}, false
	}
	return n.view(id), true
}

// Nodes returns every node in creation order.
func (g *Graph) Nodes() []Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nodesLocked()
}

func (g *Graph) nodesLocked() []Node {
	out := make([]Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id].view(id))
	}
	return out
}

// Edges returns every edge in creation order.
func (g *Graph) Edges() []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.edgesLocked()
}

func (g *Graph) edgesLocked() []Edge {
	out := make([]Edge, 0, len(g.edgeOrder))
	for _, k := range g.edgeOrder {
		out = append(out, Edge{From: k.from, To: k.to, Kind: k.kind})
	}
	return out
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// NodesIDByType returns the ids of nodes of type t in creation order.
func (g *Graph) NodesIDByType(t entity.Type) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []string
	for _, id := range g.order {
		if g.nodes[id].key.Type == t {
			out = append(out, id)
		}
	}
	return out
}

// Select replaces the selection with the given ids. Unknown ids are
// skipped.
func (g *Graph) Select(ids ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.selected = g.selected[:0]
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if g.nodes[id] != nil && !seen[id] {
			seen[id] = true
			g.selected = append(g.selected, id)
		}
	}
}

// ToggleSelect adds id to the selection or removes it, and reports whether
// it is selected afterwards.
func (g *Graph) ToggleSelect(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.nodes[id] == nil {
		return false
	}
	for _, s := range g.selected {
		if s == id {
			g.selected = without(g.selected, id)
			return false
		}
	}
	g.selected = append(g.selected, id)
	return true
}

// SelectedNodes returns the current selection in selection order.
func (g *Graph) SelectedNodes() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]string(nil), g.selected...)
}

// SetRepulsion stores the layout repulsion hint for front-ends.
func (g *Graph) SetRepulsion(r float64) {
	g.mu.Lock()
	g.repulsion = r
	g.mu.Unlock()
}

// Repulsion returns the layout repulsion hint.
func (g *Graph) Repulsion() float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.repulsion
}

// Snapshot captures the whole graph.
func (g *Graph) Snapshot() Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return Snapshot{
		Nodes:     g.nodesLocked(),
		Edges:     g.edgesLocked(),
		Selected:  append([]string(nil), g.selected...),
		Repulsion: g.repulsion,
	}
}

func without(ids []string, id string) []string {
	out := ids[:0]
	for _, s := range ids {
		if s != id {
			out = append(out, s)
		}
	}
	return out
}
