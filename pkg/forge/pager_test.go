package forge

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
)

// pagedServer serves pages[n-1] for ?page=n with the given x-next-page
// headers ("" means no header).
func pagedServer(t *testing.T, pages []string, next []string, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		n, err := strconv.Atoi(r.URL.Query().Get("page"))
		if err != nil || n < 1 || n > len(pages) {
			t.Errorf("unexpected page request %q", r.URL.RawQuery)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if next[n-1] != "" {
			w.Header().Set("X-Next-Page", next[n-1])
		}
		w.Write([]byte(pages[n-1]))
	}))
}

func TestPagesTermination(t *testing.T) {
	tests := []struct {
		name      string
		pages     []string
		next      []string
		wantIDs   []int64
		wantCalls int32
	}{
		{
			name:      "empty page ends",
			pages:     []string{`[{"id":1}]`, `[{"id":2}]`, `[]`},
			next:      []string{"2", "3", ""},
			wantIDs:   []int64{1, 2},
			wantCalls: 3,
		},
		{
			name:      "missing header ends",
			pages:     []string{`[{"id":1},{"id":2}]`},
			next:      []string{""},
			wantIDs:   []int64{1, 2},
			wantCalls: 1,
		},
		{
			name:      "empty body with cursor ends",
			pages:     []string{`[{"id":1}]`, `[]`, `[{"id":3}]`},
			next:      []string{"2", "3", ""},
			wantIDs:   []int64{1},
			wantCalls: 2,
		},
		{
			name:      "malformed header is no cursor",
			pages:     []string{`[{"id":1}]`, `[{"id":2}]`},
			next:      []string{"two", ""},
			wantIDs:   []int64{1},
			wantCalls: 1,
		},
		{
			name:      "null body is empty",
			pages:     []string{`null`},
			next:      []string{"2"},
			wantIDs:   nil,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := pagedServer(t, tt.pages, tt.next, &calls)
			defer srv.Close()

			c := newTestClient(t, srv, nil)
			got, err := Collect(Pages[Project](context.Background(), c, srv.URL+"/projects?search=x"))
			if err != nil {
				t.Fatalf("Collect: %v", err)
			}
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("got %d projects, want %d", len(got), len(tt.wantIDs))
			}
			for i, p := range got {
				if p.ID != tt.wantIDs[i] {
					t.Errorf("project[%d] = %d, want %d", i, p.ID, tt.wantIDs[i])
				}
			}
			if calls.Load() != tt.wantCalls {
				t.Errorf("requests = %d, want %d", calls.Load(), tt.wantCalls)
			}
		})
	}
}

func TestPagesYieldsLastEmptyBatch(t *testing.T) {
	var calls atomic.Int32
	srv := pagedServer(t, []string{`[{"id":1}]`, `[]`}, []string{"2", ""}, &calls)
	defer srv.Close()

	var sizes []int
	for batch, err := range Pages[Project](context.Background(), newTestClient(t, srv, nil), srv.URL+"/projects?x=1") {
		if err != nil {
			t.Fatal(err)
		}
		sizes = append(sizes, len(batch))
	}
	if fmt.Sprint(sizes) != "[1 0]" {
		t.Errorf("batch sizes = %v, want [1 0]", sizes)
	}
}

func TestPagesBreakStopsRequests(t *testing.T) {
	var calls atomic.Int32
	srv := pagedServer(t,
		[]string{`[{"id":1}]`, `[{"id":2}]`, `[{"id":3}]`},
		[]string{"2", "3", ""}, &calls)
	defer srv.Close()

	for range Pages[Project](context.Background(), newTestClient(t, srv, nil), srv.URL+"/projects?x=1") {
		break
	}
	if calls.Load() != 1 {
		t.Errorf("requests after break = %d, want 1", calls.Load())
	}
}

func TestPagesCancelledContext(t *testing.T) {
	var calls atomic.Int32
	srv := pagedServer(t, []string{`[{"id":1}]`, `[{"id":2}]`}, []string{"2", ""}, &calls)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var errs []error
	for _, err := range Pages[Project](ctx, newTestClient(t, srv, nil), srv.URL+"/projects?x=1") {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		cancel()
	}
	if calls.Load() != 1 {
		t.Errorf("requests = %d, want 1", calls.Load())
	}
	if len(errs) != 1 || !errors.Is(errs[0], context.Canceled) {
		t.Errorf("errors = %v, want one context.Canceled", errs)
	}
}

func TestPagesErrorEndsSequence(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("X-Next-Page", "2")
			w.Write([]byte(`[{"id":1}]`))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	got, err := Collect(Pages[Project](context.Background(), newTestClient(t, srv, nil), srv.URL+"/projects?x=1"))
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("err = %v, want ErrNetwork", err)
	}
	if len(got) != 1 || got[0].ID != 1 {
		t.Errorf("partial result = %v", got)
	}
	if calls.Load() != 2 {
		t.Errorf("requests = %d, want 2 (pages are not retried)", calls.Load())
	}
}

func TestPageURL(t *testing.T) {
	tests := []struct {
		url  string
		page int
		want string
	}{
		{"https://f/projects?search=a", 2, "https://f/projects?search=a&page=2"},
		{"https://f/topics", 1, "https://f/topics?page=1"},
	}
	for _, tt := range tests {
		if got := PageURL(tt.url, tt.page); got != tt.want {
			t.Errorf("PageURL(%q, %d) = %q, want %q", tt.url, tt.page, got, tt.want)
		}
	}
}
