package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/forgemap/pkg/entity"
	apperr "github.com/matzehuels/forgemap/pkg/errors"
	"github.com/matzehuels/forgemap/pkg/explore"
	"github.com/matzehuels/forgemap/pkg/forge"
	"github.com/matzehuels/forgemap/pkg/graph"
)

const (
	refreshInterval = 250 * time.Millisecond
	panelWidth      = 44
	readmeLines     = 12
)

var (
	listDimStyle  = lipgloss.NewStyle().Foreground(colorDim)
	listCurStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listSelMark   = lipgloss.NewStyle().Foreground(colorGreen).Render("●")
	panelBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			Padding(0, 1).
			Width(panelWidth)
)

const exploreHelp = "↑/↓ move  space select  ⏎ expand  f forks  e expand selection  h hide  c copy link  i info  t topics  / search  q quit"

func (c *CLI) exploreCommand() *cobra.Command {
	var (
		forks   bool
		logFile string
	)
	cmd := &cobra.Command{
		Use:   "explore [query]",
		Short: "Explore the forge interactively in the terminal",
		Long: `Explore the forge interactively in the terminal.

The graph is listed node by node. Enter expands the node under the cursor,
space adds it to the selection that e, h and c act on, and i opens a panel
with the README, projects or members of the current node.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var query string
			if len(args) == 1 {
				query = args[0]
			}
			if err := apperr.ValidateQuery(query); err != nil {
				return err
			}

			// The terminal belongs to the UI; logs go to a file or nowhere.
			var w io.Writer = io.Discard
			if logFile != "" {
				f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			logger := newLogger(w, c.Logger.GetLevel())

			mode := explore.ModeRelations
			if forks {
				mode = explore.ModeForks
			}
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			s, err := c.newSessionWith(ctx, mode, logger)
			if err != nil {
				return err
			}
			defer s.Close()
			go s.x.Run(ctx)

			p := tea.NewProgram(newExploreModel(ctx, s, query), tea.WithContext(ctx), tea.WithAltScreen())
			s.notify.onChange(func() { p.Send(refreshMsg{}) })
			if _, err := p.Run(); err != nil {
				if errors.Is(err, tea.ErrProgramKilled) && cmd.Context().Err() != nil {
					return cmd.Context().Err()
				}
				return err
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&forks, "forks", false, "weight projects by fork count")
	cmd.Flags().StringVar(&logFile, "log-file", "", "append logs to this file")
	return cmd
}

type (
	tickMsg    struct{}
	refreshMsg struct{}

	// doneMsg reports a finished background operation.
	doneMsg struct {
		what  string
		added int
		text  string
		err   error
	}
)

type exploreModel struct {
	ctx context.Context
	s   *session

	initial string
	nodes   []graph.Node
	cursor  int
	offset  int
	height  int

	searching bool
	query     string
	status    string
}

func newExploreModel(ctx context.Context, s *session, query string) exploreModel {
	return exploreModel{ctx: ctx, s: s, initial: query, height: 15}
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg { return tickMsg{} })
}

func (m exploreModel) Init() tea.Cmd {
	if m.initial == "" {
		return tick()
	}
	return tea.Batch(tick(), m.search(m.initial))
}

// do runs fn off the UI goroutine and reports back with a doneMsg.
func (m exploreModel) do(what string, fn func(context.Context) (int, error)) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		n, err := fn(ctx)
		return doneMsg{what: what, added: n, err: err}
	}
}

func (m exploreModel) search(q string) tea.Cmd {
	return m.do("search "+q, func(ctx context.Context) (int, error) {
		return m.s.x.Searcher.Search(ctx, q)
	})
}

func (m exploreModel) current() (graph.Node, bool) {
	if m.cursor < 0 || m.cursor >= len(m.nodes) {
		return graph.Node{}, false
	}
	return m.nodes[m.cursor], true
}

// loadPanel fetches details for the node under the cursor when the panel is
// open. A newer load supersedes an older one.
func (m exploreModel) loadPanel() tea.Cmd {
	n, ok := m.current()
	if !ok || !m.s.x.Panel.Visible() {
		return nil
	}
	return m.do("", func(ctx context.Context) (int, error) {
		return 0, m.s.x.Panel.Select(ctx, n.ID)
	})
}

func (m *exploreModel) refresh() {
	m.nodes = m.s.graph.Nodes()
	m.cursor = min(m.cursor, max(len(m.nodes)-1, 0))
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.height {
		m.offset = m.cursor - m.height + 1
	}
}

func (m exploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.refresh()
		return m, tick()
	case refreshMsg:
		m.refresh()
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-10, 5)
		m.refresh()
	case doneMsg:
		m.status = describe(msg)
		m.refresh()
	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateKey(msg)
	}
	return m, nil
}

func describe(msg doneMsg) string {
	switch {
	case msg.what == "":
		return ""
	case errors.Is(msg.err, explore.ErrSuperseded), errors.Is(msg.err, context.Canceled):
		return msg.what + ": cancelled"
	case msg.err != nil:
		return fmt.Sprintf("%s: %v", msg.what, msg.err)
	case msg.text != "":
		return msg.text
	}
	return fmt.Sprintf("%s: %d added", msg.what, msg.added)
}

func (m exploreModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyCtrlC:
		m.searching = false
	case tea.KeyEnter:
		m.searching = false
		if err := apperr.ValidateQuery(m.query); err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.status = "searching " + m.query
		m.cursor, m.offset = 0, 0
		return m, m.search(m.query)
	case tea.KeyBackspace:
		if r := []rune(m.query); len(r) > 0 {
			m.query = string(r[:len(r)-1])
		}
	case tea.KeyRunes, tea.KeySpace:
		m.query += string(msg.Runes)
	}
	return m, nil
}

func (m exploreModel) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	x := m.s.x
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			m.refresh()
			return m, m.loadPanel()
		}
	case "down", "j":
		if m.cursor < len(m.nodes)-1 {
			m.cursor++
			m.refresh()
			return m, m.loadPanel()
		}
	case " ":
		if n, ok := m.current(); ok {
			m.s.graph.ToggleSelect(n.ID)
		}
	case "enter":
		if n, ok := m.current(); ok && m.s.graph.DoubleClick(n.ID) {
			m.status = "expanding " + n.Label
		}
	case "f":
		if n, ok := m.current(); ok {
			return m, m.do("forks of "+n.Label, func(ctx context.Context) (int, error) {
				return x.Expander.ExpandForks(ctx, n.ID)
			})
		}
	case "e":
		return m, m.do("expand selection", x.Dispatcher.Expand)
	case "h":
		m.status = fmt.Sprintf("%d hidden", x.Dispatcher.Hide(m.ctx))
		m.refresh()
	case "c":
		ctx := m.ctx
		return m, func() tea.Msg {
			link, err := x.Dispatcher.CopyLink(ctx)
			return doneMsg{what: "copy link", text: link, err: err}
		}
	case "i":
		if x.Dispatcher.ToggleInfo() {
			return m, m.loadPanel()
		}
	case "t":
		m.cursor, m.offset = 0, 0
		return m, m.do("topics", x.Topics.Load)
	case "/":
		m.searching = true
		m.query = ""
	}
	return m, nil
}

func (m exploreModel) View() string {
	var b strings.Builder

	title := fmt.Sprintf("forgemap · %s · %d nodes", m.s.x.Mode(), len(m.nodes))
	if m.s.x.Searcher.Loading() {
		title += " · loading"
	}
	b.WriteString(StyleTitle.Render(title))
	b.WriteString("\n")
	if m.searching {
		b.WriteString(StyleHighlight.Render("/ " + m.query + "█"))
	} else {
		b.WriteString(listDimStyle.Render(exploreHelp))
	}
	b.WriteString("\n\n")

	body := m.viewNodes()
	if info := m.s.x.Panel.Info(); info.Visible {
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, " ", viewPanel(info))
	}
	b.WriteString(body)
	b.WriteString("\n")

	if toast := m.s.notify.Toast(); toast != "" {
		b.WriteString(styleToast.Render(toast))
		b.WriteString(" ")
	}
	b.WriteString(listDimStyle.Render(m.status))
	return b.String()
}

func (m exploreModel) viewNodes() string {
	if len(m.nodes) == 0 {
		return listDimStyle.Render("  empty graph, press / to search or t to list topics")
	}
	selected := make(map[string]bool)
	for _, id := range m.s.graph.SelectedNodes() {
		selected[id] = true
	}

	end := min(m.offset+m.height, len(m.nodes))
	rows := make([][]string, 0, end-m.offset)
	for i := m.offset; i < end; i++ {
		n := m.nodes[i]
		mark := " "
		if selected[n.ID] {
			mark = listSelMark
		}
		rows = append(rows, []string{mark, string(n.Type), n.Label, m.s.x.Expander.State(n.ID).String()})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Type", "Node", "State").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			idx := m.offset + row
			if idx >= len(m.nodes) {
				return lipgloss.NewStyle()
			}
			if idx == m.cursor {
				return listCurStyle
			}
			if col == 1 {
				return typeStyles[m.nodes[idx].Type]
			}
			if col == 3 {
				return listDimStyle
			}
			return lipgloss.NewStyle()
		})
	return t.Render() + "\n" + listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.cursor+1, len(m.nodes)))
}

func viewPanel(info explore.PanelInfo) string {
	var b strings.Builder
	if info.Entity != nil {
		b.WriteString(StyleTitle.Render(info.Entity.Label()))
		b.WriteString("\n")
	}
	switch {
	case info.Node == "":
		b.WriteString(listDimStyle.Render("no node"))
	case info.Loading:
		b.WriteString(listDimStyle.Render("loading…"))
	case info.Type == entity.TypeProject:
		b.WriteString(excerpt(info.Readme, readmeLines))
	case info.Type == entity.TypeUser:
		b.WriteString(listProjects(info.UserProjects))
	case info.Type == entity.TypeGroup:
		b.WriteString(listMembers(info.GroupMembers))
	}
	return panelBoxStyle.Render(b.String())
}

func excerpt(text string, n int) string {
	if strings.TrimSpace(text) == "" {
		return listDimStyle.Render("no README")
	}
	lines := strings.Split(text, "\n")
	if len(lines) > n {
		lines = append(lines[:n], "…")
	}
	return strings.Join(lines, "\n")
}

func listProjects(ps []forge.Project) string {
	if len(ps) == 0 {
		return listDimStyle.Render("no projects")
	}
	lines := make([]string, len(ps))
	for i, p := range ps {
		lines[i] = typeStyles[entity.TypeProject].Render("• " + p.Label())
	}
	return strings.Join(lines, "\n")
}

func listMembers(ms []forge.Member) string {
	if len(ms) == 0 {
		return listDimStyle.Render("no members")
	}
	lines := make([]string, len(ms))
	for i, mb := range ms {
		lines[i] = typeStyles[entity.TypeUser].Render("• " + mb.Name)
	}
	return strings.Join(lines, "\n")
}
