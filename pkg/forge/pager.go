package forge

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"strconv"
	"strings"
)

// Page is one page of a paginated collection. Next is the page named by the
// x-next-page header, or 0 when there is none.
type Page struct {
	Items []json.RawMessage
	Next  int
}

// PageURL appends the page parameter to url.
func PageURL(url string, page int) string {
	sep := "&"
	if !strings.Contains(url, "?") {
		sep = "?"
	}
	return url + sep + "page=" + strconv.Itoa(page)
}

// parseNextPage treats a missing, empty or malformed header as no cursor.
func parseNextPage(v string) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

// Pages lazily walks a paginated collection, yielding one decoded batch per
// page in page order. The sequence ends after a page that is empty or has no
// next cursor; that last batch is still yielded. A request or decode error
// is yielded once as (nil, err) and ends the sequence. No further requests
// are issued once the consumer stops ranging or ctx is done.
func Pages[T any](ctx context.Context, t Transport, url string) iter.Seq2[[]T, error] {
	return func(yield func([]T, error) bool) {
		page := 1
		for {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			p, err := t.GetPage(ctx, url, page)
			if err != nil {
				yield(nil, err)
				return
			}

			batch := make([]T, 0, len(p.Items))
			for _, raw := range p.Items {
				var v T
				if err := json.Unmarshal(raw, &v); err != nil {
					yield(nil, fmt.Errorf("decode page %d: %w", page, err))
					return
				}
				batch = append(batch, v)
			}
			if !yield(batch, nil) {
				return
			}

			// A cursor that does not move forward would loop forever.
			if len(p.Items) == 0 || p.Next <= page {
				return
			}
			page = p.Next
		}
	}
}

// Collect drains seq, concatenating batches in order. On error it returns
// the items gathered so far along with the error.
func Collect[T any](seq iter.Seq2[[]T, error]) ([]T, error) {
	var all []T
	for batch, err := range seq {
		if err != nil {
			return all, err
		}
		all = append(all, batch...)
	}
	return all, nil
}
