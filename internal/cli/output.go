package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/forgemap/pkg/graph"
)

// Output formats.
const (
	formatText = "text"
	formatJSON = "json"
	formatDOT  = "dot"
	formatSVG  = "svg"
)

var formats = []string{formatText, formatJSON, formatDOT, formatSVG}

// outputOptions are the flags shared by every command that prints a graph.
type outputOptions struct {
	format   string
	output   string
	detailed bool
	share    bool
}

func (o *outputOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.format, "format", "f", "", "output format: text, json, dot or svg (default from -o extension, else text)")
	cmd.Flags().StringVarP(&o.output, "output", "o", "", "write to file instead of stdout")
	cmd.Flags().BoolVar(&o.detailed, "detailed", false, "add entity type and id to DOT/SVG labels")
	cmd.Flags().BoolVar(&o.share, "share", false, "print the shareable link of the result")
}

// resolveFormat picks the explicit format, or guesses it from the output
// file extension.
func (o *outputOptions) resolveFormat() (string, error) {
	f := strings.ToLower(o.format)
	if f == "" {
		f = strings.TrimPrefix(filepath.Ext(o.output), ".")
		if f == "" || f == "txt" {
			f = formatText
		}
	}
	for _, known := range formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown format %q (want one of %s)", f, strings.Join(formats, ", "))
}

// encode renders s in format.
func encode(ctx context.Context, w io.Writer, s graph.Snapshot, format string, detailed bool) error {
	switch format {
	case formatJSON:
		return graph.WriteSnapshot(w, s)
	case formatDOT:
		_, err := io.WriteString(w, graph.ToDOT(s, graph.DOTOptions{Detailed: detailed}))
		return err
	case formatSVG:
		svg, err := graph.RenderSVG(ctx, graph.ToDOT(s, graph.DOTOptions{Detailed: detailed}))
		if err != nil {
			return err
		}
		_, err = w.Write(svg)
		return err
	}
	_, err := io.WriteString(w, renderGraphText(s))
	return err
}

// write emits s to stdout or the output file, then the share link when
// asked for.
func (o *outputOptions) write(ctx context.Context, s graph.Snapshot, link string) error {
	format, err := o.resolveFormat()
	if err != nil {
		return err
	}

	if o.output == "" {
		if err := encode(ctx, os.Stdout, s, format, o.detailed); err != nil {
			return err
		}
	} else {
		f, err := os.Create(o.output)
		if err != nil {
			return err
		}
		if err := encode(ctx, f, s, format, o.detailed); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		printSuccess("Wrote %s", format)
		printFile(o.output)
	}

	if o.output != "" || format == formatText {
		printStats(s)
	}
	if o.share {
		printLink(link)
	}
	return nil
}
