package forge

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestAPI(t *testing.T, h http.Handler) (*API, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewAPI(newTestClient(t, srv, nil), srv.URL, 20), srv
}

func TestReadme(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/projects/1/repository/tree", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"name":"src","path":"src","type":"tree"},{"name":"ReadMe.md","path":"ReadMe.md","type":"blob"}]`))
	})
	mux.HandleFunc("/projects/1/repository/files/ReadMe.md", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("ref") != "HEAD" {
			t.Errorf("ref = %q, want HEAD", r.URL.Query().Get("ref"))
		}
		content := base64.StdEncoding.EncodeToString([]byte("# Bonjour é"))
		w.Write([]byte(`{"encoding":"base64","content":"` + content + `"}`))
	})
	mux.HandleFunc("/projects/2/repository/tree", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"name":"main.go","path":"main.go"}]`))
	})
	api, _ := newTestAPI(t, mux)
	ctx := context.Background()

	got, err := api.ProjectReadme(ctx, 1)
	if err != nil {
		t.Fatalf("Readme: %v", err)
	}
	if got != "# Bonjour é" {
		t.Errorf("Readme = %q", got)
	}

	got, err = api.ProjectReadme(ctx, 2)
	if err != nil {
		t.Fatalf("Readme without file: %v", err)
	}
	if got != ReadmeUnavailable {
		t.Errorf("Readme = %q, want %q", got, ReadmeUnavailable)
	}
}

func TestRelationEndpoints(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/projects/3/users", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":5,"username":"ada","name":"Ada","state":"active"}]`))
	})
	mux.HandleFunc("/projects/3/groups", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":9,"name":"maths","full_path":"academie/maths"}]`))
	})
	mux.HandleFunc("/projects/3/forks", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":4,"name":"fork","forks_count":1,"forked_from_project":{"id":3}}]`))
	})
	mux.HandleFunc("/users/5/projects", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":3,"name":"p3"}]`))
	})
	mux.HandleFunc("/groups/9/projects", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("per_page") != "20" {
			t.Errorf("per_page = %q", r.URL.Query().Get("per_page"))
		}
		w.Write([]byte(`[{"id":3,"name":"p3"},{"id":8,"name":"p8"}]`))
	})
	api, _ := newTestAPI(t, mux)
	ctx := context.Background()

	users, err := api.ProjectUsers(ctx, 3)
	if err != nil || len(users) != 1 || users[0].Label() != "Ada" {
		t.Errorf("ProjectUsers = %v, %v", users, err)
	}
	groups, err := api.ProjectGroups(ctx, 3)
	if err != nil || len(groups) != 1 || groups[0].FullPath != "academie/maths" {
		t.Errorf("ProjectGroups = %v, %v", groups, err)
	}
	forks, err := api.ProjectForks(ctx, 3)
	if err != nil || len(forks) != 1 || forks[0].ForkedFrom == nil || forks[0].ForkedFrom.ID != 3 {
		t.Errorf("ProjectForks = %v, %v", forks, err)
	}
	projects, err := api.UserProjects(ctx, 5)
	if err != nil || len(projects) != 1 {
		t.Errorf("UserProjects = %v, %v", projects, err)
	}
	projects, err = api.GroupProjects(ctx, 9)
	if err != nil || len(projects) != 2 {
		t.Errorf("GroupProjects = %v, %v", projects, err)
	}
}

func TestSearchEscapesQuery(t *testing.T) {
	var raw string
	api, _ := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw = r.URL.Query().Get("search")
		w.Write([]byte(`[]`))
	}))

	if _, err := Collect(api.SearchProjects(context.Background(), "a&b c")); err != nil {
		t.Fatal(err)
	}
	if raw != "a&b c" {
		t.Errorf("search = %q, want %q", raw, "a&b c")
	}
}

func TestRootIDs(t *testing.T) {
	calls := 0
	api, _ := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		var q Query
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &q)
		if q.Variables["search"] != "maths" {
			t.Errorf("search variable = %v", q.Variables["search"])
		}
		switch q.Variables["after"] {
		case nil:
			w.Write([]byte(`{"data":{"projects":{"pageInfo":{"endCursor":"c1","hasNextPage":true},
				"nodes":[{"id":"gid://gitlab/Project/1","isForked":false},{"id":"gid://gitlab/Project/2","isForked":true}]}}}`))
		case "c1":
			w.Write([]byte(`{"data":{"projects":{"pageInfo":{"endCursor":"c2","hasNextPage":false},
				"nodes":[{"id":"gid://gitlab/Project/3","isForked":false}]}}}`))
		default:
			t.Errorf("unexpected cursor %v", q.Variables["after"])
		}
	}))

	ids, err := api.RootProjectIDs(context.Background(), "maths")
	if err != nil {
		t.Fatalf("RootIDs: %v", err)
	}
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 3 {
		t.Errorf("ids = %v, want [1 3]", ids)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestGroupMembers(t *testing.T) {
	api, _ := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var q Query
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &q)
		ids, _ := q.Variables["ids"].([]any)
		if len(ids) != 1 || ids[0] != "gid://gitlab/Group/7" {
			t.Errorf("ids variable = %v", q.Variables["ids"])
		}
		w.Write([]byte(`{"data":{"groups":{"nodes":[{"groupMembers":{"nodes":[
			{"user":{"id":"gid://gitlab/User/5","name":"Ada","webUrl":"https://f/ada"}},
			{"user":null},
			{"user":{"id":"gid://gitlab/User/6","name":"Bob","webUrl":"https://f/bob"}}]}}]}}}`))
	}))

	ids, err := api.Groups.MemberIDs(context.Background(), 7)
	if err != nil {
		t.Fatalf("MemberIDs: %v", err)
	}
	if len(ids) != 2 || ids[0] != 5 || ids[1] != 6 {
		t.Errorf("MemberIDs = %v, want [5 6]", ids)
	}
}

func TestTopics(t *testing.T) {
	api, _ := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("search") {
		case "":
			w.Write([]byte(`[{"id":1,"name":"maths","total_projects_count":12},{"id":2,"name":"nsi","title":"NSI","total_projects_count":30}]`))
		default:
			w.Write([]byte(`[{"id":2,"name":"nsi","title":"NSI","total_projects_count":30}]`))
		}
	}))
	ctx := context.Background()

	all, err := Collect(api.ListTopics(ctx))
	if err != nil || len(all) != 2 {
		t.Fatalf("ListTopics = %v, %v", all, err)
	}
	if all[1].Label() != "NSI" || all[0].Label() != "maths" {
		t.Errorf("labels = %q, %q", all[0].Label(), all[1].Label())
	}
	found, err := Collect(api.SearchTopics(ctx, "ns"))
	if err != nil || len(found) != 1 || found[0].TotalProjectsCount != 30 {
		t.Errorf("SearchTopics = %v, %v", found, err)
	}
}
