package explore

import (
	"context"
	"fmt"
	"sync"

	"github.com/matzehuels/forgemap/pkg/entity"
	"github.com/matzehuels/forgemap/pkg/forge"
)

// PanelInfo is the content of the details panel.
type PanelInfo struct {
	Node    string        `json:"node,omitempty"`
	Type    entity.Type   `json:"type,omitempty"`
	Entity  entity.Entity `json:"entity,omitempty"`
	Visible bool          `json:"visible"`
	Loading bool          `json:"loading"`

	Readme       string          `json:"readme,omitempty"`
	UserProjects []forge.Project `json:"user_projects"`
	GroupMembers []forge.Member  `json:"group_members"`
}

// Panel loads details for the selected node: a project's README, a user's
// projects or a group's members. Selecting another node cancels the
// outstanding load; a failed load leaves the lists empty.
type Panel struct {
	x *Explorer

	mu      sync.Mutex
	seq     uint64
	cancel  context.CancelFunc
	info    PanelInfo
	visible bool
}

// Toggle flips the panel visibility and returns the new value.
func (p *Panel) Toggle() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.visible = !p.visible
	return p.visible
}

// Visible reports whether the panel is shown.
func (p *Panel) Visible() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.visible
}

// Info returns a copy of the panel content.
func (p *Panel) Info() PanelInfo {
	p.mu.Lock()
	defer p.mu.Unlock()
	info := p.info
	info.Visible = p.visible
	info.UserProjects = append([]forge.Project{}, p.info.UserProjects...)
	info.GroupMembers = append([]forge.Member{}, p.info.GroupMembers...)
	return info
}

// Select shows node id in the panel and loads its details. It blocks until
// the load finishes or is superseded.
func (p *Panel) Select(ctx context.Context, id string) error {
	k, ok := p.x.vis.NodeKey(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	data, _ := p.x.vis.NodeData(id)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	p.seq++
	seq := p.seq
	p.cancel = cancel
	p.info = PanelInfo{Node: id, Type: k.Type, Entity: data, Loading: k.Type != entity.TypeTopic}
	p.mu.Unlock()

	var (
		readme   string
		projects []forge.Project
		members  []forge.Member
		err      error
	)
	switch k.Type {
	case entity.TypeProject:
		readme, err = p.x.forge.ProjectReadme(ctx, k.ID)
	case entity.TypeUser:
		projects, err = p.x.forge.UserProjects(ctx, k.ID)
	case entity.TypeGroup:
		members, err = p.x.forge.GroupMembers(ctx, k.ID)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.seq != seq {
		return nil
	}
	p.cancel = nil
	p.info.Loading = false
	if err != nil {
		p.x.logger.Warn("panel load failed", "node", id, "error", err)
		return nil
	}
	p.info.Readme = readme
	p.info.UserProjects = projects
	p.info.GroupMembers = members
	return nil
}

// Reset empties the panel and cancels any outstanding load.
func (p *Panel) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.seq++
	p.info = PanelInfo{}
}
