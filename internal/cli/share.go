package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/forgemap/pkg/explore"
	"github.com/matzehuels/forgemap/pkg/share"
)

func (c *CLI) shareCommand() *cobra.Command {
	var (
		st     share.State
		toClip bool
	)
	cmd := &cobra.Command{
		Use:     "share",
		Short:   "Print the shareable link for a set of projects, users and groups",
		Example: `  forgemap share --projects 12,40 --users 7 --copy`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			link := share.Link(c.cfg.Share.BaseURL, st)
			printLink(link)
			if !toClip {
				return nil
			}
			n := newTerminalNotifier(cmd.ErrOrStderr())
			if err := n.CopyToClipboard(cmd.Context(), link); err != nil {
				c.Logger.Warn("clipboard write failed", "error", err)
				return nil
			}
			printSuccess("%s", explore.CopiedMessage)
			return nil
		},
	}
	cmd.Flags().Int64SliceVar(&st.Projects, "projects", nil, "project ids")
	cmd.Flags().Int64SliceVar(&st.Users, "users", nil, "user ids")
	cmd.Flags().Int64SliceVar(&st.Groups, "groups", nil, "group ids")
	cmd.Flags().BoolVar(&toClip, "copy", false, "copy the link to the clipboard")
	return cmd
}
