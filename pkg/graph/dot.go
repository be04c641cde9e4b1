package graph

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/forgemap/pkg/entity"
)

// DOTOptions configures DOT export.
type DOTOptions struct {
	// Detailed adds the entity type and id below each label.
	Detailed bool
}

var nodeStyles = map[entity.Type]string{
	entity.TypeProject: `shape=box, style="rounded,filled", fillcolor="#dbeafe"`,
	entity.TypeUser:    `shape=ellipse, style=filled, fillcolor="#dcfce7"`,
	entity.TypeGroup:   `shape=folder, style=filled, fillcolor="#fef3c7"`,
	entity.TypeTopic:   `shape=note, style=filled, fillcolor="#f3e8ff"`,
}

// ToDOT converts a snapshot to Graphviz DOT. Fork-of edges are drawn as
// arrows, relation edges without arrowheads. Selected nodes get a thick
// outline.
func ToDOT(s Snapshot, opts DOTOptions) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  overlap=false;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	fmt.Fprintf(&buf, "  sep=\"+%s\";\n", strconv.FormatFloat(8*repulsionOrDefault(s.Repulsion), 'f', -1, 64))
	buf.WriteString("  node [fontsize=14, margin=\"0.15,0.08\"];\n")
	buf.WriteString("\n")

	selected := make(map[string]bool, len(s.Selected))
	for _, id := range s.Selected {
		selected[id] = true
	}
	for _, n := range s.Nodes {
		attrs := []string{fmt.Sprintf("label=%q", fmtLabel(n, opts.Detailed))}
		if style, ok := nodeStyles[n.Type]; ok {
			attrs = append(attrs, style)
		}
		if n.Weight > 1 {
			attrs = append(attrs, fmt.Sprintf("fontsize=%d", fontSize(n.Weight)))
		}
		if selected[n.ID] {
			attrs = append(attrs, "penwidth=3")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range s.Edges {
		if e.Kind == EdgeForkOf {
			fmt.Fprintf(&buf, "  %q -> %q [style=dashed];\n", e.From, e.To)
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q [dir=none];\n", e.From, e.To)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n Node, detailed bool) string {
	label := n.Label
	if label == "" {
		label = n.ID
	}
	if !detailed {
		return label
	}
	return label + "\n" + string(n.Type) + " " + strconv.FormatInt(n.EntityID, 10)
}

// fontSize grows slowly with weight and is capped.
func fontSize(weight float64) int {
	size := 14 + int(weight)
	if size > 40 {
		size = 40
	}
	return size
}

func repulsionOrDefault(r float64) float64 {
	if r <= 0 {
		return DefaultRepulsion
	}
	return r
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root element so the SVG scales to its
// container.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
