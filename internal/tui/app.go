// Package tui is the interactive preview of a planned pipeline. It uses
// bubbletea, so the flow is: key press -> message -> Update -> View.
// The left pane lists every script in run order, the right pane shows the
// rendered body of the selected one.
package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/seqsteps/internal/pipeline"
)

type focus int

const (
	focusScripts focus = iota
	focusBody
)

const (
	defaultWidth  = 100
	defaultHeight = 30
	logLines      = 6
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)
	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
	activePaneStyle = paneStyle.BorderForeground(lipgloss.Color("#5B8DEF"))
	warnStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801")).Bold(true)
	mutedStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	logHeadStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	logBodyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
)

type scriptItem struct {
	node *pipeline.Node
	file pipeline.ScriptFile
}

func (i scriptItem) Title() string { return i.file.Script.Name }

func (i scriptItem) Description() string {
	kind := "unit"
	switch i.file.Script {
	case i.node.Result.Preliminary:
		kind = "preliminary"
	case i.node.Result.WrapUp:
		kind = "wrap up"
	}
	return fmt.Sprintf("%02d %s (%s) · %s", i.node.Index, i.node.ID, i.node.Params.Module, kind)
}

func (i scriptItem) FilterValue() string { return i.file.Script.Name }

// App is the preview model.
type App struct {
	plan    *pipeline.Plan
	scripts list.Model
	body    viewport.Model
	focus   focus
	shown   int

	width  int
	height int
}

// NewApp builds a preview over a planned pipeline.
func NewApp(plan *pipeline.Plan) (*App, error) {
	if plan == nil {
		return nil, fmt.Errorf("tui: plan is required")
	}
	files := plan.Scripts()
	if len(files) == 0 {
		return nil, fmt.Errorf("tui: plan has no scripts")
	}
	items := make([]list.Item, 0, len(files))
	for _, node := range plan.Nodes {
		for _, file := range node.Files {
			items = append(items, scriptItem{node: node, file: file})
		}
	}
	scripts := list.New(items, list.NewDefaultDelegate(), 0, 0)
	scripts.Title = "Scripts"
	scripts.SetShowHelp(false)
	scripts.SetFilteringEnabled(false)
	scripts.KeyMap.Quit.SetEnabled(false)

	a := &App{
		plan:    plan,
		scripts: scripts,
		body:    viewport.New(0, 0),
		shown:   -1,
	}
	a.resize(defaultWidth, defaultHeight)
	return a, nil
}

// Run starts the preview on the alternate screen and blocks until the user
// quits.
func Run(plan *pipeline.Plan) error {
	app, err := NewApp(plan)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(app, tea.WithAltScreen()).Run()
	return err
}

func (a *App) Init() tea.Cmd {
	return nil
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.resize(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return a, tea.Quit
		case "tab":
			if a.focus == focusScripts {
				a.focus = focusBody
			} else {
				a.focus = focusScripts
			}
			return a, nil
		case "enter":
			a.focus = focusBody
			return a, nil
		case "esc":
			a.focus = focusScripts
			return a, nil
		}
	}

	var cmd tea.Cmd
	if a.focus == focusScripts {
		a.scripts, cmd = a.scripts.Update(msg)
		a.sync()
	} else {
		a.body, cmd = a.body.Update(msg)
	}
	return a, cmd
}

func (a *App) View() string {
	listPane, bodyPane := paneStyle, activePaneStyle
	if a.focus == focusScripts {
		listPane, bodyPane = activePaneStyle, paneStyle
	}
	panes := lipgloss.JoinHorizontal(lipgloss.Top,
		listPane.Render(a.scripts.View()),
		bodyPane.Render(a.renderBody()),
	)
	sections := []string{
		headerStyle.Render(fmt.Sprintf("⬡ SEQSTEPS · %s", a.plan.Store.Title())),
		panes,
	}
	if warnings := a.renderWarnings(); warnings != "" {
		sections = append(sections, warnings)
	}
	if logPanel := a.renderLogPanel(); logPanel != "" {
		sections = append(sections, logPanel)
	}
	sections = append(sections, mutedStyle.Render("↑/↓ select · tab/enter read script · esc back · q quit"))
	return strings.Join(sections, "\n")
}

// Selected returns the script under the cursor.
func (a *App) Selected() pipeline.ScriptFile {
	item, ok := a.scripts.SelectedItem().(scriptItem)
	if !ok {
		return pipeline.ScriptFile{}
	}
	return item.file
}

func (a *App) resize(width, height int) {
	if width <= 0 {
		width = defaultWidth
	}
	if height <= 0 {
		height = defaultHeight
	}
	a.width, a.height = width, height
	listWidth := max(24, width/3)
	paneHeight := max(8, height-logLines-8)
	a.scripts.SetSize(listWidth, paneHeight)
	a.body.Width = max(20, width-listWidth-8)
	a.body.Height = max(4, paneHeight-2)
	a.shown = -1
	a.sync()
}

// sync loads the selected script into the viewport when the cursor moved.
func (a *App) sync() {
	idx := a.scripts.Index()
	if idx == a.shown {
		return
	}
	a.shown = idx
	file := a.Selected()
	if file.Script == nil {
		a.body.SetContent("")
		return
	}
	a.body.SetContent(file.Script.Render())
	a.body.GotoTop()
}

func (a *App) renderBody() string {
	file := a.Selected()
	title := logHeadStyle.Render(filepath.Base(file.Path))
	return lipgloss.JoinVertical(lipgloss.Left, title, a.body.View())
}

func (a *App) renderWarnings() string {
	warnings := a.plan.Warnings()
	if len(warnings) == 0 {
		return ""
	}
	lines := make([]string, 0, len(warnings)+1)
	lines = append(lines, warnStyle.Render(fmt.Sprintf("%d warning(s)", len(warnings))))
	for _, w := range warnings {
		lines = append(lines, "  "+w)
	}
	return strings.Join(lines, "\n")
}

func (a *App) renderLogPanel() string {
	if a.plan.Logbook == nil {
		return ""
	}
	lines, total := a.plan.Logbook.Tail(logLines)
	if len(lines) == 0 {
		return ""
	}
	head := logHeadStyle.Render(fmt.Sprintf("LOG · %s (%d entries)", filepath.Base(a.plan.Logbook.Path()), total))
	body := logBodyStyle.Render(strings.Join(lines, "\n"))
	return paneStyle.Render(head + "\n" + body)
}
