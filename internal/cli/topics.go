package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	apperr "github.com/matzehuels/forgemap/pkg/errors"
	"github.com/matzehuels/forgemap/pkg/explore"
)

func (c *CLI) topicsCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "topics [search]",
		Short: "List forge topics by number of projects",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var q string
			if len(args) == 1 {
				q = args[0]
			}
			if err := apperr.ValidateQuery(q); err != nil {
				return err
			}
			s, err := c.newSession(ctx, explore.ModeRelations)
			if err != nil {
				return err
			}
			defer s.Close()

			spin := newSpinner(ctx, "Loading topics")
			spin.Start()
			n, err := s.x.Topics.Search(ctx, q)
			spin.Stop()
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err != nil && n == 0 {
				return err
			}
			if err != nil {
				printWarning("incomplete list: %v", err)
			}

			topics := s.x.Topics.Topics()
			if len(topics) == 0 {
				printInfo("No topics found")
				return nil
			}
			shown := topics
			if limit > 0 && len(shown) > limit {
				shown = shown[:limit]
			}
			fmt.Println(renderTopics(shown))
			if len(shown) < len(topics) {
				printDetail("%d of %d topics shown", len(shown), len(topics))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 25, "show at most this many topics (0 for all)")
	return cmd
}
