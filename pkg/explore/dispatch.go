package explore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/matzehuels/forgemap/pkg/observability"
	"github.com/matzehuels/forgemap/pkg/share"
)

// Action is a toolbar command over the current selection.
type Action string

const (
	ActionExpand Action = "expand"
	ActionHide   Action = "hide"
	ActionCopy   Action = "copy"
	ActionInfo   Action = "info"
)

// ErrUnknownAction is returned by ParseAction.
var ErrUnknownAction = errors.New("unknown action")

// ParseAction converts a name to an Action.
func ParseAction(s string) (Action, error) {
	switch a := Action(strings.ToLower(strings.TrimSpace(s))); a {
	case ActionExpand, ActionHide, ActionCopy, ActionInfo:
		return a, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

// Dispatcher runs toolbar actions against the visualizer selection.
type Dispatcher struct {
	x     *Explorer
	toast *Toast
}

// Toast returns the copy confirmation toast.
func (d *Dispatcher) Toast() *Toast { return d.toast }

// Do runs action a.
func (d *Dispatcher) Do(ctx context.Context, a Action) error {
	switch a {
	case ActionExpand:
		_, err := d.Expand(ctx)
		return err
	case ActionHide:
		d.Hide(ctx)
		return nil
	case ActionCopy:
		_, err := d.CopyLink(ctx)
		return err
	case ActionInfo:
		d.ToggleInfo()
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownAction, a)
}

// Expand expands every selected node.
func (d *Dispatcher) Expand(ctx context.Context) (int, error) {
	return d.x.Expander.ExpandAll(ctx, d.x.vis.SelectedNodes())
}

// Hide removes every selected node from the repository and the visualizer
// and returns how many were removed. Nodes whose entity cannot be resolved
// are logged and skipped.
func (d *Dispatcher) Hide(ctx context.Context) int {
	x := d.x
	x.mu.Lock()
	removed, skipped := 0, 0
	for _, id := range x.vis.SelectedNodes() {
		k, ok := x.vis.NodeKey(id)
		if !ok || !k.Type.Valid() {
			x.logger.Warn("hide: unknown entity type", "node", id)
			skipped++
			continue
		}
		x.repo.Remove(k)
		x.vis.RemoveNode(id)
		x.Expander.forget(id)
		removed++
	}
	x.mu.Unlock()

	observability.Explore().OnHideComplete(ctx, removed, skipped)
	return removed
}

// CopyLink encodes the materialized projects, users and groups into a
// shareable link, writes it to the clipboard and shows the confirmation
// toast. A clipboard failure is logged; the toast is shown regardless.
func (d *Dispatcher) CopyLink(ctx context.Context) (string, error) {
	link := share.Link(d.x.base, d.x.State())
	if err := d.x.notifier.CopyToClipboard(ctx, link); err != nil {
		d.x.logger.Warn("clipboard write failed", "error", err)
	}
	d.toast.Show(CopiedMessage)
	d.x.logger.Debug("share link", "url", link)
	return link, nil
}

// ToggleInfo toggles the details panel and returns its visibility.
func (d *Dispatcher) ToggleInfo() bool { return d.x.Panel.Toggle() }
