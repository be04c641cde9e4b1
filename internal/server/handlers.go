package server

import (
	"cmp"
	"context"
	"net/http"
	"slices"
	"strconv"

	"github.com/go-chi/chi/v5"

	apperr "github.com/matzehuels/forgemap/pkg/errors"
	"github.com/matzehuels/forgemap/pkg/explore"
	"github.com/matzehuels/forgemap/pkg/forge"
	"github.com/matzehuels/forgemap/pkg/graph"
	"github.com/matzehuels/forgemap/pkg/share"
)

type workspaceView struct {
	ID        string          `json:"id"`
	Mode      string          `json:"mode"`
	Nodes     int             `json:"nodes"`
	Edges     int             `json:"edges"`
	Selected  []string        `json:"selected"`
	Loading   bool            `json:"loading"`
	Toast     string          `json:"toast,omitempty"`
	Restrict  string          `json:"restrict,omitempty"`
	ShareLink string          `json:"share_link"`
	Warnings  []string        `json:"warnings,omitempty"`
	Graph     *graph.Snapshot `json:"graph,omitempty"`
}

func view(ws *Workspace) workspaceView {
	x := ws.Explorer
	return workspaceView{
		ID:        ws.ID,
		Mode:      x.Mode().String(),
		Nodes:     ws.Graph.Len(),
		Edges:     len(ws.Graph.Edges()),
		Selected:  ws.Graph.SelectedNodes(),
		Loading:   x.Searcher.Loading(),
		Toast:     ws.Notifier.Toast(),
		Restrict:  x.Searcher.Restriction(),
		ShareLink: x.ShareLink(),
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "workspaces": s.store.Len()})
}

func (s *Server) createWorkspace(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode string `json:"mode"`
	}
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	mode, err := parseMode(req.Mode)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ws := s.store.Create(mode)
	writeJSON(w, http.StatusCreated, view(ws))
}

func parseMode(s string) (explore.Mode, error) {
	switch s {
	case "", "relations":
		return explore.ModeRelations, nil
	case "forks":
		return explore.ModeForks, nil
	}
	return 0, apperr.New(apperr.ErrCodeInvalidInput, "unknown mode %q", s)
}

func (s *Server) getWorkspace(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, view(workspaceFrom(r)))
}

func (s *Server) deleteWorkspace(w http.ResponseWriter, r *http.Request) {
	s.store.Delete(workspaceFrom(r).ID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getGraph(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, workspaceFrom(r).Graph.Snapshot())
}

func (s *Server) getGraphSVG(w http.ResponseWriter, r *http.Request) {
	ws := workspaceFrom(r)
	detailed, _ := strconv.ParseBool(r.URL.Query().Get("detailed"))
	dot := graph.ToDOT(ws.Graph.Snapshot(), graph.DOTOptions{Detailed: detailed})
	svg, err := graph.RenderSVG(r.Context(), dot)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write(svg)
}

func (s *Server) getPanel(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, workspaceFrom(r).Explorer.Panel.Info())
}

func (s *Server) getShare(w http.ResponseWriter, r *http.Request) {
	x := workspaceFrom(r).Explorer
	writeJSON(w, http.StatusOK, map[string]any{"link": x.ShareLink(), "state": x.State()})
}

type searchResult struct {
	Added int            `json:"added"`
	Graph graph.Snapshot `json:"graph"`
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query    string  `json:"query"`
		Roots    bool    `json:"roots"`
		Restrict *string `json:"restrict"`
	}
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := apperr.ValidateQuery(req.Query); err != nil {
		s.fail(w, r, err)
		return
	}
	ws := workspaceFrom(r)
	searcher := ws.Explorer.Searcher
	if req.Restrict != nil {
		searcher.Restrict(*req.Restrict)
	}

	var (
		added int
		err   error
	)
	if req.Roots {
		added, err = searcher.SearchRoots(r.Context(), req.Query)
	} else {
		added, err = searcher.Search(r.Context(), req.Query)
	}
	if err != nil && added == 0 {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResult{Added: added, Graph: ws.Graph.Snapshot()})
}

func (s *Server) topic(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Topic string `json:"topic"`
	}
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := apperr.ValidateTopic(req.Topic); err != nil {
		s.fail(w, r, err)
		return
	}
	ws := workspaceFrom(r)
	added, err := ws.Explorer.Searcher.Topic(r.Context(), req.Topic)
	if err != nil && added == 0 {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResult{Added: added, Graph: ws.Graph.Snapshot()})
}

// browseTopics replaces the workspace graph with topic nodes.
func (s *Server) browseTopics(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Search string `json:"search"`
	}
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := apperr.ValidateQuery(req.Search); err != nil {
		s.fail(w, r, err)
		return
	}
	ws := workspaceFrom(r)
	added, err := ws.Explorer.Topics.Search(r.Context(), req.Search)
	if err != nil && added == 0 {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResult{Added: added, Graph: ws.Graph.Snapshot()})
}

func (s *Server) getTopics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, workspaceFrom(r).Explorer.Topics.Topics())
}

// listTopics lists forge topics by descending project count without a
// workspace.
func (s *Server) listTopics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("search")
	if err := apperr.ValidateQuery(q); err != nil {
		s.fail(w, r, err)
		return
	}
	seq := s.forge.ListTopics(r.Context())
	if q != "" {
		seq = s.forge.SearchTopics(r.Context(), q)
	}
	topics := []forge.Topic{}
	for batch, err := range seq {
		if err != nil {
			s.fail(w, r, err)
			return
		}
		topics = append(topics, batch...)
	}
	slices.SortStableFunc(topics, func(a, b forge.Topic) int {
		return cmp.Compare(b.TotalProjectsCount, a.TotalProjectsCount)
	})
	writeJSON(w, http.StatusOK, topics)
}

type expandResult struct {
	Node  string         `json:"node"`
	Added int            `json:"added"`
	State string         `json:"state"`
	Graph graph.Snapshot `json:"graph"`
}

func (s *Server) expand(w http.ResponseWriter, r *http.Request) {
	s.runExpand(w, r, workspaceFrom(r).Explorer.Expander.Expand)
}

func (s *Server) expandForks(w http.ResponseWriter, r *http.Request) {
	s.runExpand(w, r, workspaceFrom(r).Explorer.Expander.ExpandForks)
}

func (s *Server) runExpand(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id string) (int, error)) {
	ws := workspaceFrom(r)
	id := chi.URLParam(r, "node")
	added, err := fn(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, expandResult{
		Node:  id,
		Added: added,
		State: ws.Explorer.Expander.State(id).String(),
		Graph: ws.Graph.Snapshot(),
	})
}

// selectNode emits a click on the workspace graph; the explorer loads the
// panel asynchronously.
func (s *Server) selectNode(w http.ResponseWriter, r *http.Request) {
	s.emit(w, r, workspaceFrom(r).Graph.Click)
}

// doubleClick emits a double-click; the explorer expands the node
// asynchronously.
func (s *Server) doubleClick(w http.ResponseWriter, r *http.Request) {
	s.emit(w, r, workspaceFrom(r).Graph.DoubleClick)
}

func (s *Server) emit(w http.ResponseWriter, r *http.Request, fn func(string) bool) {
	id := chi.URLParam(r, "node")
	if !fn(id) {
		s.fail(w, r, apperr.Wrap(apperr.ErrCodeUnknownNode, explore.ErrUnknownNode, "unknown node %s", id))
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"node": id})
}

func (s *Server) setSelection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Nodes []string `json:"nodes"`
	}
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	ws := workspaceFrom(r)
	ws.Graph.Select(req.Nodes...)
	writeJSON(w, http.StatusOK, map[string][]string{"selected": ws.Graph.SelectedNodes()})
}

func (s *Server) setRepulsion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Repulsion float64 `json:"repulsion"`
	}
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if req.Repulsion <= 0 {
		s.fail(w, r, apperr.New(apperr.ErrCodeInvalidInput, "repulsion must be positive"))
		return
	}
	ws := workspaceFrom(r)
	ws.Graph.SetRepulsion(req.Repulsion)
	writeJSON(w, http.StatusOK, map[string]float64{"repulsion": ws.Graph.Repulsion()})
}

func (s *Server) action(w http.ResponseWriter, r *http.Request) {
	a, err := explore.ParseAction(chi.URLParam(r, "action"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ws := workspaceFrom(r)
	d := ws.Explorer.Dispatcher
	resp := map[string]any{"action": a}

	switch a {
	case explore.ActionCopy:
		link, err := d.CopyLink(r.Context())
		if err != nil {
			s.fail(w, r, err)
			return
		}
		resp["link"] = link
		resp["toast"] = ws.Notifier.Toast()
	case explore.ActionHide:
		resp["removed"] = d.Hide(r.Context())
	case explore.ActionInfo:
		resp["visible"] = d.ToggleInfo()
	case explore.ActionExpand:
		added, err := d.Expand(r.Context())
		resp["added"] = added
		if err != nil {
			resp["error"] = err.Error()
		}
	}
	resp["graph"] = ws.Graph.Snapshot()
	writeJSON(w, http.StatusOK, resp)
}

// restore creates a workspace from a shared link's query string. Every
// project costs three forge requests, so the id count is capped.
func (s *Server) restore(w http.ResponseWriter, r *http.Request) {
	st, err := share.Decode(r.URL.Query())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := apperr.ValidateIDCount(len(st.Projects)+len(st.Users)+len(st.Groups), s.maxRestore); err != nil {
		s.fail(w, r, err)
		return
	}
	ws := s.store.Create(explore.ModeRelations)
	err = ws.Explorer.Restore(r.Context(), st)
	v := view(ws)
	if err != nil {
		v.Warnings = []string{err.Error()}
	}
	snap := ws.Graph.Snapshot()
	v.Graph = &snap
	writeJSON(w, http.StatusCreated, v)
}
