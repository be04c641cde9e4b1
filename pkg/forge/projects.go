package forge

import (
	"context"
	"encoding/base64"
	"fmt"
	"iter"
	"net/url"
	"strconv"
	"strings"
)

// ReadmeUnavailable is returned by [ProjectService.Readme] when the
// repository has no README.
const ReadmeUnavailable = "README unavailable"

// ProjectService covers the /projects endpoints.
type ProjectService struct {
	Transport Transport
	BaseURL   string
	PerPage   int
}

func (s *ProjectService) url(id int64, rest string) string {
	return s.BaseURL + "/projects/" + strconv.FormatInt(id, 10) + rest
}

// Get fetches one project.
func (s *ProjectService) Get(ctx context.Context, id int64) (*Project, error) {
	var p Project
	if err := s.Transport.GetJSON(ctx, s.url(id, ""), &p); err != nil {
		return nil, fmt.Errorf("project %d: %w", id, err)
	}
	return &p, nil
}

// Search pages through projects matching q.
func (s *ProjectService) Search(ctx context.Context, q string) iter.Seq2[[]Project, error] {
	u := s.BaseURL + "/projects?search=" + url.QueryEscape(q) + "&per_page=" + strconv.Itoa(s.PerPage)
	return Pages[Project](ctx, s.Transport, u)
}

// ByTopic pages through projects tagged with topic.
func (s *ProjectService) ByTopic(ctx context.Context, topic string) iter.Seq2[[]Project, error] {
	u := s.BaseURL + "/projects?topic=" + url.QueryEscape(topic) + "&per_page=" + strconv.Itoa(s.PerPage)
	return Pages[Project](ctx, s.Transport, u)
}

// Forks lists the direct forks of a project.
func (s *ProjectService) Forks(ctx context.Context, id int64) ([]Project, error) {
	var out []Project
	if err := s.Transport.GetJSON(ctx, s.url(id, "/forks"), &out); err != nil {
		return nil, fmt.Errorf("forks of project %d: %w", id, err)
	}
	return out, nil
}

// Users lists the users associated with a project.
func (s *ProjectService) Users(ctx context.Context, id int64) ([]User, error) {
	var out []User
	if err := s.Transport.GetJSON(ctx, s.url(id, "/users"), &out); err != nil {
		return nil, fmt.Errorf("users of project %d: %w", id, err)
	}
	return out, nil
}

// Groups lists the groups associated with a project.
func (s *ProjectService) Groups(ctx context.Context, id int64) ([]Group, error) {
	var out []Group
	if err := s.Transport.GetJSON(ctx, s.url(id, "/groups"), &out); err != nil {
		return nil, fmt.Errorf("groups of project %d: %w", id, err)
	}
	return out, nil
}

type treeEntry struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Type string `json:"type"`
}

type repoFile struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// Readme returns the text of the first top-level file whose name starts
// with "readme" (any case), or ReadmeUnavailable when there is none.
func (s *ProjectService) Readme(ctx context.Context, id int64) (string, error) {
	var tree []treeEntry
	if err := s.Transport.GetJSON(ctx, s.url(id, "/repository/tree"), &tree); err != nil {
		return "", fmt.Errorf("tree of project %d: %w", id, err)
	}

	var path string
	for _, e := range tree {
		if strings.HasPrefix(strings.ToLower(e.Name), "readme") {
			path = e.Path
			break
		}
	}
	if path == "" {
		return ReadmeUnavailable, nil
	}

	var f repoFile
	if err := s.Transport.GetJSON(ctx, s.url(id, "/repository/files/"+url.PathEscape(path)+"?ref=HEAD"), &f); err != nil {
		return "", fmt.Errorf("readme of project %d: %w", id, err)
	}
	if f.Encoding != "" && f.Encoding != "base64" {
		return f.Content, nil
	}
	text, err := base64.StdEncoding.DecodeString(f.Content)
	if err != nil {
		return "", fmt.Errorf("readme of project %d: %w", id, err)
	}
	return string(text), nil
}

const rootProjectsQuery = `query($search: String, $after: String) {
  projects(search: $search, after: $after) {
    pageInfo { endCursor hasNextPage }
    nodes { id isForked }
  }
}`

type rootProjectsData struct {
	Projects struct {
		PageInfo struct {
			EndCursor   string `json:"endCursor"`
			HasNextPage bool   `json:"hasNextPage"`
		} `json:"pageInfo"`
		Nodes []struct {
			ID       string `json:"id"`
			IsForked bool   `json:"isForked"`
		} `json:"nodes"`
	} `json:"projects"`
}

// RootIDs returns the ids of projects matching search that are not forks,
// following the GraphQL cursor until the last page.
func (s *ProjectService) RootIDs(ctx context.Context, search string) ([]int64, error) {
	var ids []int64
	cursor := ""
	for {
		vars := map[string]any{"search": search}
		if cursor != "" {
			vars["after"] = cursor
		}
		var data rootProjectsData
		if err := s.Transport.GraphQL(ctx, Query{Text: rootProjectsQuery, Variables: vars}, &data); err != nil {
			return ids, fmt.Errorf("root projects: %w", err)
		}
		for _, n := range data.Projects.Nodes {
			if n.IsForked {
				continue
			}
			id, err := parseGID(n.ID, gidProject)
			if err != nil {
				continue
			}
			ids = append(ids, id)
		}
		next := data.Projects.PageInfo
		if !next.HasNextPage || next.EndCursor == "" || next.EndCursor == cursor || len(data.Projects.Nodes) == 0 {
			return ids, nil
		}
		cursor = next.EndCursor
	}
}
