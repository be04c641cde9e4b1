// Package share encodes exploration state into shareable links.
//
// A [State] lists the materialized project, user and group ids of a graph.
// [Encode] turns each category into one query parameter whose value is the
// lz-string compression of the comma-joined decimal ids; [Decode] reverses
// it. Topics are not part of a link.
//
//	link := share.Link("https://forgemap.example", share.State{
//	    Projects: []int64{10, 20},
//	    Users:    []int64{5},
//	})
//	// https://forgemap.example/favoris?groups=Q&projects=...&users=...
//
//	st, err := share.ParseLink(link)
package share
