package forge

import (
	"context"
	"fmt"
	"iter"
	"net/url"
	"strconv"
)

// GroupService covers the /groups endpoints and group membership queries.
type GroupService struct {
	Transport Transport
	BaseURL   string
	PerPage   int
}

// Search pages through groups matching q.
func (s *GroupService) Search(ctx context.Context, q string) iter.Seq2[[]Group, error] {
	u := s.BaseURL + "/groups?search=" + url.QueryEscape(q) + "&per_page=" + strconv.Itoa(s.PerPage)
	return Pages[Group](ctx, s.Transport, u)
}

// Get fetches one group.
func (s *GroupService) Get(ctx context.Context, id int64) (*Group, error) {
	var g Group
	if err := s.Transport.GetJSON(ctx, s.BaseURL+"/groups/"+strconv.FormatInt(id, 10), &g); err != nil {
		return nil, fmt.Errorf("group %d: %w", id, err)
	}
	return &g, nil
}

// Projects lists the first page of a group's projects.
func (s *GroupService) Projects(ctx context.Context, id int64) ([]Project, error) {
	var out []Project
	u := s.BaseURL + "/groups/" + strconv.FormatInt(id, 10) + "/projects?page=1&per_page=" + strconv.Itoa(s.PerPage)
	if err := s.Transport.GetJSON(ctx, u, &out); err != nil {
		return nil, fmt.Errorf("projects of group %d: %w", id, err)
	}
	return out, nil
}

const groupMembersQuery = `query($ids: [ID!]) {
  groups(ids: $ids) {
    nodes {
      groupMembers(search: "") {
        nodes { user { id name webUrl } }
      }
    }
  }
}`

type groupMembersData struct {
	Groups struct {
		Nodes []struct {
			GroupMembers struct {
				Nodes []struct {
					User *struct {
						ID     string `json:"id"`
						Name   string `json:"name"`
						WebURL string `json:"webUrl"`
					} `json:"user"`
				} `json:"nodes"`
			} `json:"groupMembers"`
		} `json:"nodes"`
	} `json:"groups"`
}

// Members lists a group's members. An absent or malformed response yields
// an empty list.
func (s *GroupService) Members(ctx context.Context, id int64) ([]Member, error) {
	var data groupMembersData
	q := Query{Text: groupMembersQuery, Variables: map[string]any{"ids": []string{GlobalID("Group", id)}}}
	if err := s.Transport.GraphQL(ctx, q, &data); err != nil {
		return nil, fmt.Errorf("members of group %d: %w", id, err)
	}

	members := []Member{}
	if len(data.Groups.Nodes) == 0 {
		return members, nil
	}
	for _, n := range data.Groups.Nodes[0].GroupMembers.Nodes {
		if n.User == nil {
			continue
		}
		uid, err := parseGID(n.User.ID, gidUser)
		if err != nil {
			continue
		}
		members = append(members, Member{ID: uid, Name: n.User.Name, WebURL: n.User.WebURL})
	}
	return members, nil
}

// MemberIDs lists the user ids of a group's members.
func (s *GroupService) MemberIDs(ctx context.Context, id int64) ([]int64, error) {
	members, err := s.Members(ctx, id)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(members))
	for i, m := range members {
		ids[i] = m.ID
	}
	return ids, nil
}
