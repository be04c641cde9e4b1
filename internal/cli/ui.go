package cli

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/forgemap/pkg/entity"
	"github.com/matzehuels/forgemap/pkg/forge"
	"github.com/matzehuels/forgemap/pkg/graph"
)

var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorBlue   = lipgloss.Color("75")
	colorPurple = lipgloss.Color("141")
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

var (
	StyleTitle     = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)
	StyleLink      = lipgloss.NewStyle().Foreground(colorBlue).Underline(true)
	StyleDim       = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue     = lipgloss.NewStyle().Foreground(colorWhite)
	StyleSuccess   = lipgloss.NewStyle().Foreground(colorGreen)
	StyleWarning   = lipgloss.NewStyle().Foreground(colorYellow)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleHeader = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	styleToast  = lipgloss.NewStyle().Foreground(colorWhite).Background(colorGreen).Padding(0, 1)
)

// typeStyles colours node labels by entity type.
var typeStyles = map[entity.Type]lipgloss.Style{
	entity.TypeProject: lipgloss.NewStyle().Foreground(colorBlue),
	entity.TypeUser:    lipgloss.NewStyle().Foreground(colorGreen),
	entity.TypeGroup:   lipgloss.NewStyle().Foreground(colorYellow),
	entity.TypeTopic:   lipgloss.NewStyle().Foreground(colorPurple),
}

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

func printSuccess(format string, args ...any) {
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	fmt.Println(styleIconError.Render(iconError) + " " + fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + fmt.Sprintf(format, args...))
}

// printDetail prints an indented, dimmed line.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

func printLink(link string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleLink.Render(link))
}

func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Println(keyStyle.Render(key) + " " + StyleValue.Render(value))
}

// printStats prints node and edge counts on a single line.
func printStats(s graph.Snapshot) {
	counts := make(map[entity.Type]int)
	for _, n := range s.Nodes {
		counts[n.Type]++
	}
	parts := []string{fmt.Sprintf("%d nodes", len(s.Nodes)), fmt.Sprintf("%d edges", len(s.Edges))}
	for _, t := range entity.Types {
		if counts[t] > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", counts[t], t.Plural()))
		}
	}
	fmt.Println("  " + StyleDim.Render(strings.Join(parts, " · ")))
}

// renderTopics draws topics as a table, largest first.
func renderTopics(topics []forge.Topic) string {
	rows := make([][]string, len(topics))
	for i, t := range topics {
		rows[i] = []string{t.Label(), strconv.Itoa(t.TotalProjectsCount)}
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Topic", "Projects").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return styleHeader
			case col == 1:
				return lipgloss.NewStyle().Foreground(colorCyan).Align(lipgloss.Right)
			}
			return lipgloss.NewStyle()
		})
	return t.Render()
}

// renderGraphText lists every node with its neighbours, grouped by type.
func renderGraphText(s graph.Snapshot) string {
	labels := make(map[string]string, len(s.Nodes))
	for _, n := range s.Nodes {
		labels[n.ID] = n.Label
	}
	neighbours := make(map[string][]string)
	for _, e := range s.Edges {
		arrow := " — "
		if e.Kind == graph.EdgeForkOf {
			arrow = " ← fork of "
		}
		neighbours[e.From] = append(neighbours[e.From], arrow+labels[e.To])
		if e.Kind != graph.EdgeForkOf {
			neighbours[e.To] = append(neighbours[e.To], arrow+labels[e.From])
		}
	}

	var b strings.Builder
	for _, t := range entity.Types {
		nodes := slices.DeleteFunc(slices.Clone(s.Nodes), func(n graph.Node) bool { return n.Type != t })
		if len(nodes) == 0 {
			continue
		}
		b.WriteString(StyleTitle.Render(strings.ToUpper(t.Plural())))
		b.WriteString("\n")
		for _, n := range nodes {
			b.WriteString("  " + typeStyles[t].Render(n.Label) + " " + StyleDim.Render(n.ID) + "\n")
			for _, nb := range neighbours[n.ID] {
				b.WriteString("    " + StyleDim.Render(nb) + "\n")
			}
		}
	}
	return b.String()
}
