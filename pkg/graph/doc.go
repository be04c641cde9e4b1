// Package graph is a headless visualizer for forge entity graphs.
//
// A [Graph] holds nodes keyed by a deterministic id derived from the entity
// type and forge id ([GenerateID]), so creating the same entity twice yields
// the same node. Edges are idempotent: [EdgeRelation] edges are undirected,
// [EdgeForkOf] edges point from an origin project to its fork.
//
// Front-ends (the terminal UI, the HTTP server) drive the graph through
// [Graph.Click] and [Graph.DoubleClick]; consumers subscribe with
// [Graph.OnNodeSelect] and [Graph.OnNodeDoubleClick], which return channels
// closed when the subscription context ends.
//
// # Serialization
//
// [Graph.Snapshot] captures nodes, edges and selection in a JSON-friendly
// form:
//
//	{
//	  "nodes": [{"id": "project-42", "type": "project", "entity_id": 42, "label": "site"}],
//	  "edges": [{"from": "project-42", "to": "user-5", "kind": "relation"}]
//	}
//
// Use [WriteSnapshot] / [ReadSnapshotFile] for files and [ToDOT] plus
// [RenderSVG] to draw a snapshot with Graphviz.
package graph
