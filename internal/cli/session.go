package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/forgemap/pkg/cache"
	"github.com/matzehuels/forgemap/pkg/entity"
	"github.com/matzehuels/forgemap/pkg/explore"
	"github.com/matzehuels/forgemap/pkg/forge"
	"github.com/matzehuels/forgemap/pkg/graph"
)

// session is an explorer over a headless graph, alive for one command.
type session struct {
	api    *forge.API
	store  cache.Cache
	graph  *graph.Graph
	x      *explore.Explorer
	notify *terminalNotifier
}

func (c *CLI) newSession(ctx context.Context, mode explore.Mode) (*session, error) {
	return c.newSessionWith(ctx, mode, c.Logger)
}

func (c *CLI) newSessionWith(ctx context.Context, mode explore.Mode, logger *log.Logger) (*session, error) {
	api, store, err := c.newForge(ctx, logger)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	g := graph.New()
	n := newTerminalNotifier(os.Stderr)
	x := explore.New(explore.Options{
		Forge:        api,
		Visualizer:   g,
		Notifier:     n,
		Logger:       logger,
		ShareBaseURL: c.cfg.Share.BaseURL,
		Mode:         mode,
	})
	return &session{api: api, store: store, graph: g, x: x, notify: n}, nil
}

func (s *session) Close() error { return s.store.Close() }

// collapsed returns the nodes not expanded yet. Fork expansion only applies
// to projects.
func (s *session) collapsed(forks bool) []string {
	var ids []string
	for _, n := range s.graph.Nodes() {
		if forks && n.Type != entity.TypeProject {
			continue
		}
		if s.x.Expander.State(n.ID) == explore.Collapsed {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

// expandLevels expands every collapsed node, depth times. Failures are
// collected and the remaining nodes are still expanded.
func (s *session) expandLevels(ctx context.Context, depth int, forks bool) (int, error) {
	var (
		total int
		errs  []error
	)
	for range depth {
		ids := s.collapsed(forks)
		if len(ids) == 0 {
			break
		}
		if !forks {
			n, err := s.x.Expander.ExpandAll(ctx, ids)
			total += n
			errs = append(errs, err)
		} else {
			for _, id := range ids {
				n, err := s.x.Expander.ExpandForks(ctx, id)
				total += n
				errs = append(errs, err)
			}
		}
		if ctx.Err() != nil {
			break
		}
	}
	return total, errors.Join(errs...)
}

// build seeds a graph, grows it depth levels and writes it out.
func (c *CLI) build(ctx context.Context, mode explore.Mode, out *outputOptions, depth int, msg string, seed func(context.Context, *session) (int, error)) error {
	if _, err := out.resolveFormat(); err != nil {
		return err
	}
	s, err := c.newSession(ctx, mode)
	if err != nil {
		return err
	}
	defer s.Close()

	prog := newProgress(c.Logger)
	spin := newSpinner(ctx, msg).WithStatus(func() string {
		return fmt.Sprintf("(%d nodes)", s.graph.Len())
	})
	spin.Start()

	added, err := seed(ctx, s)
	if added > 0 && depth > 0 {
		_, xerr := s.expandLevels(ctx, depth, mode == explore.ModeForks)
		err = errors.Join(err, xerr)
	}
	spin.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if s.graph.Len() == 0 {
		if err != nil {
			return err
		}
		printInfo("Nothing found")
		return nil
	}
	if err != nil {
		printWarning("incomplete result: %v", err)
	}
	prog.done(fmt.Sprintf("Built graph with %d nodes", s.graph.Len()))
	return out.write(ctx, s.graph.Snapshot(), s.x.ShareLink())
}
