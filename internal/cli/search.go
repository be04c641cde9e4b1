package cli

import (
	"context"

	"github.com/spf13/cobra"

	apperr "github.com/matzehuels/forgemap/pkg/errors"
	"github.com/matzehuels/forgemap/pkg/explore"
	"github.com/matzehuels/forgemap/pkg/share"
)

func (c *CLI) searchCommand() *cobra.Command {
	var (
		out      outputOptions
		roots    bool
		restrict string
		depth    int
	)
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search projects and print the resulting graph",
		Long: `Search projects by name or description and print them as a graph.

With --roots only the root projects returned by the GraphQL API are kept.
With --expand-depth N every node is expanded N times, adding members,
groups and their projects.`,
		Example: `  forgemap search geometrie
  forgemap search python --restrict nsi --expand-depth 1 -o python.svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := args[0]
			if err := apperr.ValidateQuery(q); err != nil {
				return err
			}
			return c.build(cmd.Context(), explore.ModeRelations, &out, depth, "Searching "+q,
				func(ctx context.Context, s *session) (int, error) {
					s.x.Searcher.Restrict(restrict)
					if roots {
						return s.x.Searcher.SearchRoots(ctx, q)
					}
					return s.x.Searcher.Search(ctx, q)
				})
		},
	}
	cmd.Flags().BoolVar(&roots, "roots", false, "keep root projects only")
	cmd.Flags().StringVar(&restrict, "restrict", "", "only keep projects carrying this topic")
	cmd.Flags().IntVar(&depth, "expand-depth", 0, "expand every node this many times")
	out.register(cmd)
	return cmd
}

func (c *CLI) topicCommand() *cobra.Command {
	var (
		out   outputOptions
		depth int
	)
	cmd := &cobra.Command{
		Use:   "topic <name>",
		Short: "Print the projects tagged with a topic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			topic := args[0]
			if err := apperr.ValidateTopic(topic); err != nil {
				return err
			}
			return c.build(cmd.Context(), explore.ModeRelations, &out, depth, "Loading topic "+topic,
				func(ctx context.Context, s *session) (int, error) {
					return s.x.Searcher.Topic(ctx, topic)
				})
		},
	}
	cmd.Flags().IntVar(&depth, "expand-depth", 0, "expand every node this many times")
	out.register(cmd)
	return cmd
}

func (c *CLI) forksCommand() *cobra.Command {
	var (
		out   outputOptions
		depth int
	)
	cmd := &cobra.Command{
		Use:   "forks <topic>",
		Short: "Show the fork lineage of the projects tagged with a topic",
		Long: `Load the projects tagged with a topic and follow their forks.

Each level adds the direct forks of every project found so far; fork-of
edges point from the fork to its parent.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			topic := args[0]
			if err := apperr.ValidateTopic(topic); err != nil {
				return err
			}
			return c.build(cmd.Context(), explore.ModeForks, &out, depth, "Following forks of "+topic,
				func(ctx context.Context, s *session) (int, error) {
					return s.x.Searcher.Topic(ctx, topic)
				})
		},
	}
	cmd.Flags().IntVar(&depth, "depth", 1, "number of fork levels to follow")
	out.register(cmd)
	return cmd
}

func (c *CLI) restoreCommand() *cobra.Command {
	var out outputOptions
	cmd := &cobra.Command{
		Use:   "restore <link>",
		Short: "Rebuild the graph behind a shareable link",
		Long: `Rebuild the graph behind a shareable link. The argument may be a full
link or just its query string.`,
		Example: `  forgemap restore 'http://localhost:8080/favoris?projects=...&users=...&groups=...'`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := share.ParseLink(args[0])
			if err != nil {
				return err
			}
			return c.build(cmd.Context(), explore.ModeRelations, &out, 0, "Restoring",
				func(ctx context.Context, s *session) (int, error) {
					err := s.x.Restore(ctx, st)
					return s.graph.Len(), err
				})
		},
	}
	out.register(cmd)
	return cmd
}
