// ABOUTME: Terminal UI for interactive weight and GA parameter tuning
// ABOUTME: Re-grades the character on every parameter change and shows the live report

package main

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"stroke-grader/config"
	"stroke-grader/matcher"
)

// Parameter represents a tunable engine parameter with constraints
type Parameter struct {
	Name     string
	Value    *float64 // Pointer to actual config field
	IntValue *int     // For integer parameters
	Min      float64
	Max      float64
	Step     float64
	IsInt    bool
}

// model holds the TUI state
type model struct {
	input         *GradingInput
	localConfig   *config.Config // Local config that params point to (pointer so addresses stay valid)
	params        []Parameter
	selectedParam int

	result      *matcher.Result // Completed result of the current epoch
	bestFitness float64
	generation  int
	genPerSec   float64
	running     bool

	epoch      int // Bumped on every restart; stale updates are dropped
	configPath string
	width      int
	height     int

	ctx        context.Context
	cancel     context.CancelFunc
	updateChan chan matcher.Update
	quitting   bool
}

// matchDoneMsg is sent when one grading epoch completes
type matchDoneMsg struct {
	result *matcher.Result
	epoch  int
	err    error
}

// Key bindings
type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Left    key.Binding
	Right   key.Binding
	Restart key.Binding
	Reset   key.Binding
	Quit    key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "select param above"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "select param below"),
	),
	Left: key.NewBinding(
		key.WithKeys("left", "h"),
		key.WithHelp("←/h", "decrease value"),
	),
	Right: key.NewBinding(
		key.WithKeys("right", "l"),
		key.WithHelp("→/l", "increase value"),
	),
	Restart: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "re-grade"),
	),
	Reset: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "reset to defaults"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12"))

	paramStyle = lipgloss.NewStyle().
			Padding(0, 1)

	selectedParamStyle = lipgloss.NewStyle().
				Background(lipgloss.Color("240")).
				Foreground(lipgloss.Color("15")).
				Bold(true).
				Padding(0, 1)

	reportStyle = lipgloss.NewStyle().
			Padding(0, 1)

	statusStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("15")).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// RunTUI starts the interactive tuning mode.
func RunTUI(opts RunOptions) error {
	input, err := LoadGradingInput(opts)
	if err != nil {
		return err
	}

	m := initModel(input, config.Path())

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}

// initModel creates the initial model
func initModel(input *GradingInput, configPath string) model {
	cfg := input.Config
	localConfig := &cfg

	ctx, cancel := context.WithCancel(context.Background())

	m := model{
		input:       input,
		localConfig: localConfig,
		configPath:  configPath,
		ctx:         ctx,
		cancel:      cancel,
		updateChan:  make(chan matcher.Update, 10),
		running:     true,
	}

	m.params = []Parameter{
		{"Center Weight (α)", &localConfig.Alpha, nil, 0, 5, 0.1, false},
		{"Length Weight (β)", &localConfig.Beta, nil, 0, 5, 0.1, false},
		{"Angle Weight (γ)", &localConfig.Gamma, nil, 0, 5, 0.1, false},
		{"Relative Weight (ε)", &localConfig.Epsilon, nil, 0, 5, 0.1, false},
		{"Angle Threshold (rad)", &localConfig.AngleThreshold, nil, 0.05, math.Pi, 0.05, false},
		{"Crossover Rate", &localConfig.CrossoverRate, nil, 0, 1, 0.05, false},
		{"Mutation Rate", &localConfig.MutationRate, nil, 0, 1, 0.01, false},
		{"Max Generations", nil, &localConfig.MaxGenerations, 10, 1000, 10, true},
	}

	return m
}

// Init initializes the model
func (m model) Init() tea.Cmd {
	return tea.Batch(
		startMatch(m.ctx, m.input, *m.localConfig, m.updateChan, m.epoch),
		waitForUpdate(m.updateChan),
		tea.EnterAltScreen,
	)
}

// startMatch runs one grading epoch in the background and reports back
func startMatch(ctx context.Context, input *GradingInput, cfg config.Config, updates chan<- matcher.Update, epoch int) tea.Cmd {
	return func() tea.Msg {
		eng, err := matcher.New(cfg)
		if err != nil {
			return matchDoneMsg{epoch: epoch, err: err}
		}

		eng.SendUpdates(updates, epoch)

		res, err := eng.Match(ctx, input.Written, input.Reference)

		return matchDoneMsg{result: res, epoch: epoch, err: err}
	}
}

// waitForUpdate waits for GA progress updates and returns them as messages
func waitForUpdate(updateChan <-chan matcher.Update) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-updateChan
		if !ok {
			return nil
		}

		return update
	}
}

// Update handles messages and updates the model
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		return m, nil

	case matcher.Update:
		if msg.Epoch == m.epoch {
			m.bestFitness = msg.BestFitness
			m.generation = msg.Generation
			m.genPerSec = msg.GenPerSec
		}

		return m, waitForUpdate(m.updateChan)

	case matchDoneMsg:
		if msg.epoch != m.epoch {
			// A superseded epoch finishing late; ignore it.
			return m, nil
		}

		m.running = false

		if msg.err != nil {
			debugf("[TUI] match failed: %v", msg.err)

			return m, nil
		}

		m.result = msg.result
		m.bestFitness = msg.result.Fitness
		m.generation = msg.result.Generations

		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			m.cancel()

			m.input.Shared.Update(*m.localConfig)
			_ = config.Save(m.configPath, *m.localConfig)

			return m, tea.Quit

		case key.Matches(msg, keys.Up):
			if m.selectedParam > 0 {
				m.selectedParam--
			}

		case key.Matches(msg, keys.Down):
			if m.selectedParam < len(m.params)-1 {
				m.selectedParam++
			}

		case key.Matches(msg, keys.Left):
			m.adjustParam(-1)

			return m.restart()

		case key.Matches(msg, keys.Right):
			m.adjustParam(+1)

			return m.restart()

		case key.Matches(msg, keys.Restart):
			return m.restart()

		case key.Matches(msg, keys.Reset):
			defaults := config.Default()
			defaults.Seed = m.localConfig.Seed
			*m.localConfig = defaults

			return m.restart()
		}
	}

	return m, nil
}

// adjustParam nudges the selected parameter by direction*step within its
// bounds.
func (m *model) adjustParam(direction float64) {
	param := &m.params[m.selectedParam]

	if param.IsInt {
		newVal := *param.IntValue + int(direction*param.Step)
		if float64(newVal) >= param.Min && float64(newVal) <= param.Max {
			*param.IntValue = newVal
		}

		return
	}

	newVal := *param.Value + direction*param.Step
	if newVal >= param.Min-1e-9 && newVal <= param.Max+1e-9 {
		*param.Value = newVal
	}
}

// restart cancels the current epoch and starts a fresh one with the
// current parameters.
func (m model) restart() (tea.Model, tea.Cmd) {
	m.cancel()

	m.epoch++
	m.running = true
	m.result = nil
	m.bestFitness = 0
	m.generation = 0

	m.ctx, m.cancel = context.WithCancel(context.Background())
	m.input.Shared.Update(*m.localConfig)

	return m, startMatch(m.ctx, m.input, *m.localConfig, m.updateChan, m.epoch)
}

// View renders the TUI
func (m model) View() string {
	if m.quitting {
		return "Saving config...\n"
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("stroke-grader: live parameter tuning"))
	b.WriteString("\n\n")

	for i, param := range m.params {
		var value string
		if param.IsInt {
			value = fmt.Sprintf("%d", *param.IntValue)
		} else {
			value = fmt.Sprintf("%.2f", *param.Value)
		}

		line := fmt.Sprintf("%-24s %s", param.Name, value)

		if i == m.selectedParam {
			b.WriteString(selectedParamStyle.Render(line))
		} else {
			b.WriteString(paramStyle.Render(line))
		}

		b.WriteString("\n")
	}

	b.WriteString("\n")

	switch {
	case m.running:
		b.WriteString(statusStyle.Render(fmt.Sprintf("evolving… gen %d  fitness %.4f  %.0f gen/s",
			m.generation, m.bestFitness, m.genPerSec)))
		b.WriteString("\n")
	case m.result != nil:
		b.WriteString(reportStyle.Render(RenderReport(m.result)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("↑/↓ select  ←/→ adjust  r re-grade  d defaults  q quit"))
	b.WriteString("\n")

	return b.String()
}
