// Package entity defines the identity model shared by every part of forgemap.
//
// # Identity
//
// Every forge object that can appear in an exploration graph is addressed by a
// [Key]: the pair of its [Type] (project, user, group or topic) and the
// forge-assigned numeric id. Two entities are the same if and only if their
// keys are equal, and the graph never holds two nodes for one key.
//
// # Repository
//
// [Repository] is the type-partitioned cache of entities already materialized
// into the current graph. It is write-once per key: [Repository.TryAdd]
// reports whether the key was new, and a second add of the same key is
// ignored rather than merged.
//
//	repo := entity.NewRepository()
//	if repo.TryAdd(project) {
//	    // first sighting: create the visual node
//	}
package entity
