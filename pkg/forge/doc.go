// Package forge is the client for a GitLab-compatible forge API.
//
// A [Client] implements [Transport]: cached and retried JSON GETs for single
// resources and relation lists, uncached single-page fetches for paginated
// collections, and parameterized GraphQL queries. The resource services
// ([ProjectService], [UserService], [GroupService], [TopicService]) each hold
// a Transport and build URLs for their endpoints; [API] bundles them behind
// the flat method set the exploration engine consumes.
//
// # Pagination
//
// Collections follow the x-next-page response header. [Pages] returns an
// iter.Seq2 that requests page 1, then the page named by the header, until a
// page comes back empty or without a cursor. Breaking out of the range loop
// stops further requests:
//
//	for batch, err := range forge.Pages[forge.Project](ctx, client, url) {
//	    if err != nil {
//	        return err
//	    }
//	    // use batch
//	}
//
// Paginated fetches are never retried and never cached.
//
// # GraphQL
//
// User-supplied text only ever travels in [Query.Variables]. Responses
// carrying an "error" or "errors" field are treated as empty data.
package forge
