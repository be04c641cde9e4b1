package forge

import (
	"time"

	"github.com/matzehuels/forgemap/pkg/entity"
)

// Project is a forge project as returned by /projects endpoints.
type Project struct {
	ID                int64       `json:"id"`
	Name              string      `json:"name"`
	NameWithNamespace string      `json:"name_with_namespace"`
	PathWithNamespace string      `json:"path_with_namespace"`
	Description       string      `json:"description"`
	WebURL            string      `json:"web_url"`
	AvatarURL         string      `json:"avatar_url"`
	StarCount         int         `json:"star_count"`
	ForksCount        int         `json:"forks_count"`
	Topics            []string    `json:"topics"`
	Visibility        string      `json:"visibility"`
	LastActivityAt    *time.Time  `json:"last_activity_at,omitempty"`
	ForkedFrom        *ProjectRef `json:"forked_from_project,omitempty"`
}

// ProjectRef is the abbreviated project embedded in fork responses.
type ProjectRef struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	PathWithNamespace string `json:"path_with_namespace"`
}

func (p Project) Key() entity.Key { return entity.K(entity.TypeProject, p.ID) }
func (p Project) Label() string   { return p.Name }

// User is a forge account.
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Name      string `json:"name"`
	State     string `json:"state"`
	Locked    bool   `json:"locked"`
	AvatarURL string `json:"avatar_url"`
	WebURL    string `json:"web_url"`
}

func (u User) Key() entity.Key { return entity.K(entity.TypeUser, u.ID) }

func (u User) Label() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}

// Group is a forge group (namespace) with its membership settings.
type Group struct {
	ID                             int64      `json:"id"`
	Name                           string     `json:"name"`
	Path                           string     `json:"path"`
	FullName                       string     `json:"full_name"`
	FullPath                       string     `json:"full_path"`
	Description                    string     `json:"description"`
	Visibility                     string     `json:"visibility"`
	WebURL                         string     `json:"web_url"`
	ParentID                       *int64     `json:"parent_id,omitempty"`
	ShareWithGroupLock             bool       `json:"share_with_group_lock"`
	RequireTwoFactorAuthentication bool       `json:"require_two_factor_authentication"`
	ProjectCreationLevel           string     `json:"project_creation_level"`
	SubgroupCreationLevel          string     `json:"subgroup_creation_level"`
	RequestAccessEnabled           bool       `json:"request_access_enabled"`
	CreatedAt                      *time.Time `json:"created_at,omitempty"`
}

func (g Group) Key() entity.Key { return entity.K(entity.TypeGroup, g.ID) }
func (g Group) Label() string   { return g.Name }

// Topic is a project topic with its usage count.
type Topic struct {
	ID                 int64  `json:"id"`
	Name               string `json:"name"`
	Title              string `json:"title"`
	Description        string `json:"description"`
	TotalProjectsCount int    `json:"total_projects_count"`
	AvatarURL          string `json:"avatar_url"`
}

func (t Topic) Key() entity.Key { return entity.K(entity.TypeTopic, t.ID) }

func (t Topic) Label() string {
	if t.Title != "" {
		return t.Title
	}
	return t.Name
}

// Member is a group member as returned by the GraphQL API.
type Member struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	WebURL string `json:"web_url"`
}

var (
	_ entity.Entity = Project{}
	_ entity.Entity = User{}
	_ entity.Entity = Group{}
	_ entity.Entity = Topic{}
)
