package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ntscat/internal/models"
	"github.com/desertthunder/ntscat/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ProgressView ViewState = iota
	ResultView
)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	cancel       context.CancelFunc
	view         ViewState
	runner       *tasks.BatchRunner
	table        *models.Table
	titleCol     string
	artistCol    string
	width        int
	height       int
	bar          progress.Model
	trackList    list.Model
	progressChan chan tasks.ProgressUpdate
	done         *runCompleteMsg
	finished     chan struct{}
	progress     tasks.ProgressUpdate
	result       *models.BatchResult
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a TUI model that enriches table with runner.
func NewModel(ctx context.Context, runner *tasks.BatchRunner, table *models.Table) *Model {
	ctx, cancel := context.WithCancel(ctx)
	return &Model{
		ctx:    ctx,
		cancel: cancel,
		view:   ProgressView,
		runner: runner,
		table:  table,
		bar:    progress.New(progress.WithDefaultGradient()),
		help:   help.New(),
		keys:   newKeyMap(),
	}
}

// Result returns the outcome of the run once the program has exited.
//
// Quitting before the run completes cancels it and waits for the remaining rows to be passed
// through unenriched; they are counted in [models.BatchResult.Skipped].
func (m *Model) Result() (*models.BatchResult, error) {
	m.cancel()
	if m.view == ResultView {
		return m.result, m.err
	}
	if m.finished == nil {
		return m.runner.Run(m.ctx, m.table, nil)
	}
	<-m.finished
	return m.done.result, m.done.err
}

// Init validates the input and starts the run.
func (m *Model) Init() tea.Cmd {
	title, artist, err := m.runner.Validate(m.table)
	if err != nil {
		return func() tea.Msg { return runCompleteMsg{err: err} }
	}
	m.titleCol, m.artistCol = title, artist
	return m.startRun()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = max(msg.Width-4, 10)
		if m.hasList() {
			m.trackList.SetSize(msg.Width-4, m.listHeight())
		}
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.quit) {
			return m, tea.Quit
		}
		if m.hasList() {
			var cmd tea.Cmd
			m.trackList, cmd = m.trackList.Update(msg)
			return m, cmd
		}
		return m, nil

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case runCompleteMsg:
		m.result = msg.result
		m.err = msg.err
		m.progressChan = nil
		m.view = ResultView
		if m.result != nil {
			m.trackList = m.newTrackList()
		}
		return m, nil
	}

	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case ProgressView:
		return m.renderProgress()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) startRun() tea.Cmd {
	ch := make(chan tasks.ProgressUpdate, 50)
	done := &runCompleteMsg{}
	finished := make(chan struct{})
	m.progressChan = ch
	m.done = done
	m.finished = finished

	go func() {
		done.result, done.err = m.runner.Run(m.ctx, m.table, ch)
		close(ch)
		close(finished)
	}()

	return m.waitForProgress()
}

// waitForProgress reads the next update. The completion message is only read after the
// channel is closed, which orders it after the run goroutine's writes.
func (m *Model) waitForProgress() tea.Cmd {
	ch, done := m.progressChan, m.done
	return func() tea.Msg {
		if ch == nil {
			return runCompleteMsg{}
		}

		update, ok := <-ch
		if !ok {
			return *done
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) newTrackList() list.Model {
	items := make([]list.Item, len(m.result.Tracks))
	for i, t := range m.result.Tracks {
		items[i] = newTrackItem(t, m.titleCol, m.artistCol)
	}
	l := list.New(items, list.NewDefaultDelegate(), max(m.width-4, 0), m.listHeight())
	l.Title = "Enriched Tracks"
	return l
}

// hasList reports whether the track list was built; it only exists for a completed run.
func (m *Model) hasList() bool {
	return m.view == ResultView && m.result != nil
}

func (m *Model) listHeight() int {
	return max(m.height-8-len(m.runner.Sources()), 0)
}

// percent is the share of rows completed in the enrich phase.
func (m *Model) percent() float64 {
	switch m.progress.Phase {
	case tasks.Enrich:
		if m.progress.Total == 0 {
			return 0
		}
		return float64(m.progress.Step) / float64(m.progress.Total)
	case tasks.Summarize:
		return 1
	default:
		return 0
	}
}

func (m *Model) renderProgress() string {
	title := styles.title.Render("Enriching Tracks")

	var phase string
	switch m.progress.Phase {
	case tasks.Enrich:
		phase = fmt.Sprintf("Looking up tracks (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.Summarize:
		phase = "Summarizing..."
	default:
		phase = "Loading tracks..."
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.quit})
	return fmt.Sprintf("%s\n%s\n\n%s\n%s\n\n%s", title, m.bar.ViewAs(m.percent()), phase, m.progress.Message, helpView)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Enrichment failed: %v\n\nPress q to quit", m.err))
	}
	if m.result == nil {
		return styles.err.Render("No result available\n\nPress q to quit")
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.up, m.keys.down, m.keys.quit})
	return fmt.Sprintf("%s\n%s\n\n%s", Summary(m.result, ""), m.trackList.View(), helpView)
}
