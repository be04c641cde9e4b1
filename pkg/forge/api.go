package forge

import (
	"context"
	"iter"
)

// API bundles the resource services over one Transport and exposes the
// flat method set used by the exploration engine.
type API struct {
	Projects *ProjectService
	Users    *UserService
	Groups   *GroupService
	Topics   *TopicService
}

// NewAPI builds every service on t. baseURL is the REST root.
func NewAPI(t Transport, baseURL string, perPage int) *API {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	return &API{
		Projects: &ProjectService{Transport: t, BaseURL: baseURL, PerPage: perPage},
		Users:    &UserService{Transport: t, BaseURL: baseURL},
		Groups:   &GroupService{Transport: t, BaseURL: baseURL, PerPage: perPage},
		Topics:   &TopicService{Transport: t, BaseURL: baseURL, PerPage: perPage},
	}
}

// New builds a Client from opts and the API on top of it.
func New(opts Options) *API {
	c := NewClient(opts)
	return NewAPI(c, c.RESTURL(), c.PerPage())
}

func (a *API) Project(ctx context.Context, id int64) (*Project, error) {
	return a.Projects.Get(ctx, id)
}

func (a *API) ProjectUsers(ctx context.Context, id int64) ([]User, error) {
	return a.Projects.Users(ctx, id)
}

func (a *API) ProjectGroups(ctx context.Context, id int64) ([]Group, error) {
	return a.Projects.Groups(ctx, id)
}

func (a *API) ProjectForks(ctx context.Context, id int64) ([]Project, error) {
	return a.Projects.Forks(ctx, id)
}

func (a *API) ProjectReadme(ctx context.Context, id int64) (string, error) {
	return a.Projects.Readme(ctx, id)
}

func (a *API) UserProjects(ctx context.Context, id int64) ([]Project, error) {
	return a.Users.Projects(ctx, id)
}

func (a *API) GroupProjects(ctx context.Context, id int64) ([]Project, error) {
	return a.Groups.Projects(ctx, id)
}

func (a *API) GroupMembers(ctx context.Context, id int64) ([]Member, error) {
	return a.Groups.Members(ctx, id)
}

func (a *API) SearchProjects(ctx context.Context, q string) iter.Seq2[[]Project, error] {
	return a.Projects.Search(ctx, q)
}

func (a *API) TopicProjects(ctx context.Context, topic string) iter.Seq2[[]Project, error] {
	return a.Projects.ByTopic(ctx, topic)
}

func (a *API) RootProjectIDs(ctx context.Context, q string) ([]int64, error) {
	return a.Projects.RootIDs(ctx, q)
}

func (a *API) ListTopics(ctx context.Context) iter.Seq2[[]Topic, error] {
	return a.Topics.List(ctx)
}

func (a *API) SearchTopics(ctx context.Context, q string) iter.Seq2[[]Topic, error] {
	return a.Topics.Search(ctx, q)
}
