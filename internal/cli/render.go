package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/forgemap/pkg/graph"
)

func (c *CLI) renderCommand() *cobra.Command {
	var out outputOptions
	cmd := &cobra.Command{
		Use:   "render <snapshot.json>",
		Short: "Render a saved graph snapshot",
		Long: `Render a graph snapshot written with --format json to text, DOT or SVG.

The format defaults to the extension of --output.`,
		Example: `  forgemap search maths -f json -o maths.json
  forgemap render maths.json -o maths.svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := graph.ReadSnapshotFile(args[0])
			if err != nil {
				return err
			}
			c.Logger.Debug("snapshot loaded", "nodes", len(s.Nodes), "edges", len(s.Edges))
			return out.write(cmd.Context(), s, "")
		},
	}
	out.register(cmd)
	cmd.Flags().MarkHidden("share")
	return cmd
}
