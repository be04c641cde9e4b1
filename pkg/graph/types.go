package graph

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/forgemap/pkg/entity"
)

// Node is the serializable view of a graph node. Data holds the entity
// payload as JSON.
type Node struct {
	ID       string          `json:"id"`
	Type     entity.Type     `json:"type"`
	EntityID int64           `json:"entity_id"`
	Label    string          `json:"label"`
	Weight   float64         `json:"weight,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
}

// Edge is the serializable view of a graph edge.
type Edge struct {
	From string   `json:"from"`
	To   string   `json:"to"`
	Kind EdgeKind `json:"kind"`
}

// Snapshot is a point-in-time copy of a graph.
type Snapshot struct {
	Nodes     []Node   `json:"nodes"`
	Edges     []Edge   `json:"edges"`
	Selected  []string `json:"selected,omitempty"`
	Repulsion float64  `json:"repulsion,omitempty"`
}

func (n *node) view(id string) Node {
	data, _ := json.Marshal(n.data)
	return Node{
		ID:       id,
		Type:     n.key.Type,
		EntityID: n.key.ID,
		Label:    n.data.Label(),
		Weight:   n.weight,
		Data:     data,
	}
}

// WriteSnapshot writes s as indented JSON.
func WriteSnapshot(w io.Writer, s Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteSnapshotFile writes s to path with 0644 permissions.
func WriteSnapshotFile(path string, s Snapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteSnapshot(f, s)
}

// ReadSnapshot decodes a snapshot and checks that every edge references
// known nodes.
func ReadSnapshot(r io.Reader) (Snapshot, error) {
	var s Snapshot
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return Snapshot{}, fmt.Errorf("decode: %w", err)
	}
	ids := make(map[string]bool, len(s.Nodes))
	for _, n := range s.Nodes {
		ids[n.ID] = true
	}
	for _, e := range s.Edges {
		if !ids[e.From] || !ids[e.To] {
			return Snapshot{}, fmt.Errorf("edge %s -> %s references an unknown node", e.From, e.To)
		}
	}
	return s, nil
}

// ReadSnapshotFile reads a snapshot from path.
func ReadSnapshotFile(path string) (Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadSnapshot(f)
}
