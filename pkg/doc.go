// Package pkg provides the libraries behind forgemap, an explorer for the
// projects, users, groups and topics of a GitLab forge.
//
// # Overview
//
// Forgemap starts from a search and grows a graph one expansion at a time:
// a project brings in its members and groups, a user or group brings in its
// projects, a topic brings in the projects tagged with it. The pkg directory
// is organized into four areas:
//
//  1. [forge] - REST and GraphQL client with pagination, retries, rate
//     limiting and a response cache
//  2. [entity] and [graph] - the entity model, the deduplicating
//     repository and a headless graph that front-ends render
//  3. [explore] - the exploration engine: search, expansion, restore,
//     details panel and toolbar actions
//  4. [share] - shareable links that encode the visible selection
//
// Supporting packages: [cache] (file, Redis and MongoDB backends),
// [observability] (hooks with a Prometheus implementation), [errors]
// (error codes and input validation), [lzstring] (the compression used by
// share links) and [buildinfo].
//
// # Architecture
//
//	search / topic / shared link
//	         ↓
//	    [explore] (Searcher, Restorer)  ←→  [forge] API  ←→  [cache]
//	         ↓
//	    [entity] repository + [graph] nodes and edges
//	         ↓
//	    select / double-click events → [explore] (Panel, Expander)
//	         ↓
//	    JSON snapshot, DOT or SVG
//
// # Quick Start
//
//	api := forge.New(forge.Options{Cache: cache.NewNullCache()})
//	g := graph.New()
//	x := explore.New(explore.Options{Forge: api, Visualizer: g})
//
//	if _, err := x.Searcher.Search(ctx, "geometrie"); err != nil {
//	    return err
//	}
//	for _, id := range g.NodesIDByType(entity.TypeProject) {
//	    x.Expander.Expand(ctx, id)
//	}
//	fmt.Println(x.ShareLink())
//
// [forge]: https://pkg.go.dev/github.com/matzehuels/forgemap/pkg/forge
// [entity]: https://pkg.go.dev/github.com/matzehuels/forgemap/pkg/entity
// [graph]: https://pkg.go.dev/github.com/matzehuels/forgemap/pkg/graph
// [explore]: https://pkg.go.dev/github.com/matzehuels/forgemap/pkg/explore
// [share]: https://pkg.go.dev/github.com/matzehuels/forgemap/pkg/share
// [cache]: https://pkg.go.dev/github.com/matzehuels/forgemap/pkg/cache
// [observability]: https://pkg.go.dev/github.com/matzehuels/forgemap/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/forgemap/pkg/errors
// [lzstring]: https://pkg.go.dev/github.com/matzehuels/forgemap/pkg/lzstring
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/forgemap/pkg/buildinfo
package pkg
