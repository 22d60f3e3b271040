package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowguide/pkg/graph"
	"github.com/matzehuels/flowguide/pkg/navigate"
	"github.com/matzehuels/flowguide/pkg/pipeline"
)

// exploreCommand creates the explore command.
func (c *CLI) exploreCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "explore",
		Short: "Explore the flowchart in the terminal",
		Long: `Explore the flowchart in the terminal.

The tree shows the current view. Selecting a node narrows the view to the
branch below it; selecting a final node shows its documentation link.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := c.loadApp(ctx, true)
			if err != nil {
				return err
			}
			defer a.runner.Close()

			m, err := newExploreModel(ctx, a.runner)
			if err != nil {
				return err
			}
			_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			return err
		},
	}
}

// =============================================================================
// Key Bindings
// =============================================================================

type exploreKeys struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Reset  key.Binding
	Help   key.Binding
	Quit   key.Binding
}

func newExploreKeys() exploreKeys {
	return exploreKeys{
		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Select: key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("⏎", "select")),
		Reset:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset")),
		Help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:   key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k exploreKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Select, k.Reset, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k exploreKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down, k.Select}, {k.Reset, k.Help, k.Quit}}
}

// =============================================================================
// Model
// =============================================================================

// exploreRow is one line of the tree.
type exploreRow struct {
	id    string
	label string
	depth int
	doc   string
}

// exploreModel is the bubbletea model for terminal exploration.
type exploreModel struct {
	ctx    context.Context
	runner *pipeline.Runner
	state  navigate.State
	view   pipeline.View

	rows   []exploreRow
	cursor int
	offset int
	height int

	status string
	err    error

	keys exploreKeys
	help help.Model
}

var (
	exploreFocusStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorYellow)
	exploreCursorStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	exploreNormalStyle = lipgloss.NewStyle().Foreground(colorWhite)
)

// newExploreModel renders the initial view.
func newExploreModel(ctx context.Context, runner *pipeline.Runner) (exploreModel, error) {
	m := exploreModel{
		ctx:    ctx,
		runner: runner,
		height: 15,
		keys:   newExploreKeys(),
		help:   help.New(),
	}
	res, err := runner.Handle(ctx, runner.Init(), navigate.Refresh{})
	if err != nil {
		return m, err
	}
	m.apply(res)
	return m, nil
}

func (m exploreModel) Init() tea.Cmd {
	return nil
}

func (m exploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			m.move(-1)
		case key.Matches(msg, m.keys.Down):
			m.move(1)
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.Reset):
			m.handle(navigate.Reset{})
		case key.Matches(msg, m.keys.Select):
			if len(m.rows) > 0 {
				m.handle(navigate.Select{NodeID: m.rows[m.cursor].id})
			}
		}
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-8, 5)
		m.help.Width = msg.Width
		m.scroll()
	}
	return m, nil
}

func (m *exploreModel) handle(ev navigate.Event) {
	res, err := m.runner.Handle(m.ctx, m.state, ev)
	if err != nil {
		m.err = err
		m.status = err.Error()
		return
	}
	m.apply(res)
}

// apply installs a pipeline result and moves the cursor to the focus.
func (m *exploreModel) apply(res *pipeline.Result) {
	m.state = res.State
	m.view = res.View
	m.rows = treeRows(res.State.Graph, res.State.Roots)

	switch res.View.Intent.Kind {
	case navigate.IntentOpenLink:
		m.status = "Documentation: " + res.View.Intent.URL
	case navigate.IntentNoDocumentation:
		m.status = res.View.Message
	default:
		m.status = ""
	}

	m.cursor = 0
	for i, r := range m.rows {
		if r.id == m.view.Focus {
			m.cursor = i
			break
		}
	}
	m.scroll()
}

func (m *exploreModel) move(delta int) {
	m.cursor = min(max(m.cursor+delta, 0), max(len(m.rows)-1, 0))
	m.scroll()
}

func (m *exploreModel) scroll() {
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.height {
		m.offset = m.cursor - m.height + 1
	}
}

func (m exploreModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Flowchart Explorer"))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render(fmt.Sprintf("view %s · %d nodes · %d edges",
		m.view.RenderKey, m.view.NodeCount, m.view.EdgeCount)))
	b.WriteString("\n\n")

	end := min(m.offset+m.height, len(m.rows))
	for i := m.offset; i < end; i++ {
		r := m.rows[i]
		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		line := cursor + strings.Repeat("  ", r.depth) + r.label
		if r.doc != "" {
			line += " " + StyleDim.Render(iconArrow+" link")
		}
		switch {
		case r.id == m.view.Focus:
			b.WriteString(exploreFocusStyle.Render(line))
		case i == m.cursor:
			b.WriteString(exploreCursorStyle.Render(line))
		default:
			b.WriteString(exploreNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}
	if len(m.rows) == 0 {
		b.WriteString(StyleDim.Render("  (empty graph)"))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.status != "" {
		if m.view.Intent.Kind == navigate.IntentOpenLink {
			b.WriteString(StyleLink.Render(m.status))
		} else {
			b.WriteString(StyleWarning.Render(m.status))
		}
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// treeRows lists the graph in depth-first pre-order starting at roots.
// Nodes with several parents are listed once, under the first parent seen.
// Nodes no root reaches, such as a cycle without an entry point, follow as
// extra top-level subtrees in graph order.
func treeRows(g graph.Graph, roots []string) []exploreRow {
	var rows []exploreRow
	seen := make(map[string]bool, len(g.Nodes))

	type frame struct {
		id    string
		depth int
	}
	walk := func(starts []string) {
		stack := make([]frame, 0, len(starts))
		for i := len(starts) - 1; i >= 0; i-- {
			stack = append(stack, frame{starts[i], 0})
		}
		for len(stack) > 0 {
			f := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if seen[f.id] {
				continue
			}
			seen[f.id] = true

			n, ok := graph.FindNode(g.Nodes, f.id)
			if !ok {
				continue
			}
			label := strings.ReplaceAll(n.DisplayLabel(), "\n", " ")
			rows = append(rows, exploreRow{id: n.ID, label: label, depth: f.depth, doc: n.DocURL()})

			children, _, _ := graph.FindChildren(f.id, g.Nodes, g.Edges)
			for i := len(children) - 1; i >= 0; i-- {
				if !seen[children[i]] {
					stack = append(stack, frame{children[i], f.depth + 1})
				}
			}
		}
	}

	walk(roots)
	for _, n := range g.Nodes {
		if !seen[n.ID] {
			walk([]string{n.ID})
		}
	}
	return rows
}
