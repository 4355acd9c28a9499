// ABOUTME: Read-only grading viewer with live file watching and scrolling
// ABOUTME: Monitors the attempt file for changes and re-grades on every write

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"

	"stroke-grader/matcher"
	"stroke-grader/stroke"
)

// viewModel holds the state for the read-only grading viewer
type viewModel struct {
	opts        RunOptions
	input       *GradingInput
	report      string
	viewport    viewport.Model
	width       int
	height      int
	fileWatcher *fsnotify.Watcher
	lastReload  time.Time
	errorMsg    string
	grading     bool
	ready       bool
}

// Key bindings for view mode
type viewKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Reload   key.Binding
	Quit     key.Binding
}

var viewKeys = viewKeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	PageUp: key.NewBinding(
		key.WithKeys("pgup", "ctrl+u"),
		key.WithHelp("pgup", "page up"),
	),
	PageDown: key.NewBinding(
		key.WithKeys("pgdown", "ctrl+d"),
		key.WithHelp("pgdn", "page down"),
	),
	Reload: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "re-grade"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// Styles for view mode
var (
	viewTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12"))

	viewStatusStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("15")).
			Padding(0, 1)

	viewHelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	viewErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)
)

// fileChangeMsg is sent when the attempt file changes
type fileChangeMsg struct{}

// gradeCompleteMsg is sent after a re-grade completes
type gradeCompleteMsg struct {
	report string
	err    error
}

// RunViewMode starts the watch-and-regrade mode. It requires an attempt
// file to watch.
func RunViewMode(opts RunOptions) error {
	if opts.AttemptPath == "" {
		return fmt.Errorf("view mode needs -written pointing at an attempt file to watch")
	}

	input, err := LoadGradingInput(opts)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	if err := watcher.Add(opts.AttemptPath); err != nil {
		watcher.Close()

		return fmt.Errorf("failed to watch attempt file: %w", err)
	}

	m := viewModel{
		opts:        opts,
		input:       input,
		fileWatcher: watcher,
		lastReload:  time.Now(),
		grading:     true,
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		watcher.Close()

		return fmt.Errorf("view mode error: %w", err)
	}

	watcher.Close()

	return nil
}

// Init initializes the view model
func (m viewModel) Init() tea.Cmd {
	return tea.Batch(
		gradeAttempt(m.input, m.opts),
		waitForFileChange(m.fileWatcher),
		tea.EnterAltScreen,
	)
}

// waitForFileChange returns a command that waits for file system events
func waitForFileChange(watcher *fsnotify.Watcher) tea.Cmd {
	return func() tea.Msg {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}

				if event.Op&fsnotify.Write == fsnotify.Write {
					// Debounce: wait a bit for atomic writes to complete
					time.Sleep(100 * time.Millisecond)

					return fileChangeMsg{}
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}

				debugf("[WATCHER] Error: %v", err)
			}
		}
	}
}

// gradeAttempt reloads the attempt and re-grades it in the background
func gradeAttempt(input *GradingInput, opts RunOptions) tea.Cmd {
	return func() tea.Msg {
		written, err := stroke.LoadAttempt(opts.AttemptPath)
		if err != nil {
			return gradeCompleteMsg{err: err}
		}

		written = stroke.Preprocess(written, sampleCount, true)

		res, err := matcher.Match(context.Background(), written, input.Reference, input.Shared.Get())
		if err != nil {
			return gradeCompleteMsg{err: err}
		}

		return gradeCompleteMsg{report: RenderReport(res)}
	}
}

// Update handles messages for the view model
func (m viewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 2
		footerHeight := 2

		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerHeight-footerHeight)
			m.viewport.SetContent(m.report)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerHeight - footerHeight
		}

		return m, nil

	case fileChangeMsg:
		m.grading = true
		m.lastReload = time.Now()

		return m, tea.Batch(
			gradeAttempt(m.input, m.opts),
			waitForFileChange(m.fileWatcher),
		)

	case gradeCompleteMsg:
		m.grading = false

		if msg.err != nil {
			m.errorMsg = msg.err.Error()

			return m, nil
		}

		m.errorMsg = ""
		m.report = msg.report

		if m.ready {
			m.viewport.SetContent(m.report)
		}

		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, viewKeys.Quit):
			return m, tea.Quit

		case key.Matches(msg, viewKeys.Reload):
			m.grading = true

			return m, gradeAttempt(m.input, m.opts)
		}
	}

	// Scrolling keys are handled by the viewport itself.
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)

	return m, cmd
}

// View renders the view model
func (m viewModel) View() string {
	if !m.ready {
		return "loading..."
	}

	title := viewTitleStyle.Render(fmt.Sprintf("stroke-grader: watching %s", m.opts.AttemptPath))

	status := viewStatusStyle.Render(fmt.Sprintf("last graded %s", m.lastReload.Format("15:04:05")))
	if m.grading {
		status = viewStatusStyle.Render("grading…")
	}

	if m.errorMsg != "" {
		status = viewErrorStyle.Render(truncate(m.errorMsg, m.width))
	}

	help := viewHelpStyle.Render("↑/↓ scroll  r re-grade  q quit")

	return fmt.Sprintf("%s\n%s\n%s\n%s", title, m.viewport.View(), status, help)
}
