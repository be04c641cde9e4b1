// Package explore keeps a forge entity graph consistent while it is
// fetched, expanded, searched, shared and restored.
//
// An [Explorer] owns one [Visualizer] (normally a *graph.Graph) and one
// entity.Repository and guards both with a single mutex, so every
// check-then-insert-then-connect sequence runs to completion once a
// response arrives. Network I/O always happens outside that lock.
//
// The Explorer is composed of:
//
//   - [Expander]: double-click expansion of a node into its relations
//   - [Searcher]: project searches and topic listings that supersede each other
//   - [Restorer]: selective rehydration of a shared selection
//   - [Panel]: the details panel for the selected node
//   - [Dispatcher]: toolbar actions over the visualizer selection
//
// [Explorer.Run] wires the visualizer's select and double-click streams to
// the Panel and the Expander. [TopicBrowser] is the separate topic overview.
package explore
