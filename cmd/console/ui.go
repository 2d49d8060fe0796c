package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/studiosim/studio-engine/internal/worker"
	"github.com/studiosim/studio-engine/pkg/sim"
)

// ConsoleUI is the BubbleTea model that runs the studio console.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config       *ConsoleConfig
	client       *http.Client
	logViewport  viewport.Model
	metaViewport viewport.Model
	printer      *message.Printer
	ready        bool
	width        int
	height       int
	err          error
	loading      bool

	// weekLog accumulates the formatted history of every report so it can
	// be rewrapped on resize.
	weekLog []string
	report  *worker.WeekReport
	scenes  []sim.Scene

	// Event modal state
	showEventModal bool
	selectedChoice int

	// Quit confirmation state
	showQuitModal bool

	// Progress bar state
	progressTick int
}

type weekReportMsg struct {
	report *worker.WeekReport
	err    error
}

type scenesLoadedMsg struct {
	scenes []sim.Scene
	err    error
}

type progressTickMsg struct{}

var (
	logPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	weekStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	revenueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	eventStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	modalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	modalSelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

func NewConsoleUI(cfg *ConsoleConfig, client *http.Client) ConsoleUI {
	logVp := viewport.New(50, 20)
	logVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		config:       cfg,
		client:       client,
		logViewport:  logVp,
		metaViewport: metaVp,
		printer:      message.NewPrinter(language.AmericanEnglish),
		ready:        false,
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	return m.refreshScenes()
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showEventModal {
		return m.updateEventModal(msg)
	}
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.logViewport, vpCmd = m.logViewport.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.ready = true

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		default:
			switch msg.String() {
			case "w", "W", "enter":
				if m.loading {
					return m, nil
				}
				m.loading = true
				m.progressTick = 0
				m.writeLogContent()
				return m, tea.Batch(m.advanceWeek(), progressTick())
			case "s", "S":
				return m, m.refreshScenes()
			}
		}

	case weekReportMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			m.weekLog = append(m.weekLog, errorStyle.Render("Error: "+msg.err.Error()))
		} else {
			m.report = msg.report
			m.weekLog = append(m.weekLog, m.formatReport(msg.report))
			if msg.report.Paused() {
				m.showEventModal = true
				m.selectedChoice = 0
			}
		}
		m.writeLogContent()
		m.logViewport.GotoBottom()
		return m, m.refreshScenes()

	case scenesLoadedMsg:
		if msg.err == nil {
			m.scenes = msg.scenes
			m.metaViewport.SetContent(m.writeMetadata())
		}

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeLogContent()
			return m, progressTick()
		}
	}

	m.logViewport, vpCmd = m.logViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)
	return m, tea.Batch(vpCmd, mvCmd)
}

func (m *ConsoleUI) resize() {
	logWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - logWidth - 6

	m.logViewport.Width = logWidth - 2
	m.logViewport.Height = m.height - 5
	m.metaViewport.Width = metaWidth - 2
	m.metaViewport.Height = m.height - 4

	m.writeLogContent()
	m.metaViewport.SetContent(m.writeMetadata())
}

// writeLogContent rebuilds the log viewport from the accumulated week
// reports for the current width.
func (m *ConsoleUI) writeLogContent() {
	logWidth := m.logViewport.Width - 6

	var content strings.Builder
	content.WriteString(titleStyle.Render("STUDIO ENGINE") + "\n\n")
	content.WriteString("Press W to advance a week, S to refresh scenes.\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", max(logWidth-6, 1))) + "\n\n")

	for _, entry := range m.weekLog {
		content.WriteString(wordwrap.String(entry, logWidth) + "\n\n")
	}

	if m.loading {
		content.WriteString(m.renderProgressBar())
	}

	m.logViewport.SetContent(content.String())
	m.logViewport.GotoBottom()
}

// formatReport renders one week report as a log entry.
func (m *ConsoleUI) formatReport(report *worker.WeekReport) string {
	var b strings.Builder
	b.WriteString(weekStyle.Render(fmt.Sprintf("Week %d, Year %d", report.Week, report.Year)) + "\n")

	if len(report.ShotScenes) > 0 {
		b.WriteString(fmt.Sprintf("Shot %d scene(s)\n", len(report.ShotScenes)))
	}
	if len(report.CancelledScenes) > 0 {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Cancelled %d scene(s)", len(report.CancelledScenes))) + "\n")
	}
	if len(report.ReleasedScenes) > 0 {
		b.WriteString(fmt.Sprintf("Released %d scene(s)\n", len(report.ReleasedScenes)))
	}
	if report.Revenue != 0 {
		b.WriteString(revenueStyle.Render(m.printer.Sprintf("Revenue: $%d", report.Revenue)) + "\n")
	}
	for _, msg := range report.Messages {
		b.WriteString(eventStyle.Render("• ") + msg + "\n")
	}
	if report.Paused() && report.PendingEvent != nil {
		b.WriteString(loadingStyle.Render("Paused: "+report.PendingEvent.Title) + "\n")
	}
	if len(report.ShotScenes) == 0 && len(report.ReleasedScenes) == 0 &&
		len(report.Messages) == 0 && !report.Paused() {
		b.WriteString("A quiet week.\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m *ConsoleUI) writeMetadata() string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("STUDIO") + "\n\n")

	if m.report != nil {
		content.WriteString("Calendar:\n")
		content.WriteString(fmt.Sprintf("Week %d, Year %d\n\n", m.report.Week, m.report.Year))
	}

	content.WriteString("Scenes:\n")
	if len(m.scenes) == 0 {
		content.WriteString("None\n")
	} else {
		counts := make(map[sim.Status]int)
		for _, scene := range m.scenes {
			counts[scene.Status]++
		}
		for _, status := range []sim.Status{
			sim.StatusDesign, sim.StatusCasting, sim.StatusScheduled,
			sim.StatusShot, sim.StatusInEditing, sim.StatusReadyToRelease,
			sim.StatusReleased,
		} {
			if counts[status] > 0 {
				content.WriteString(fmt.Sprintf("• %s: %d\n", status, counts[status]))
			}
		}
	}

	content.WriteString("\n")
	content.WriteString("Commands:\n")
	content.WriteString("• W: Advance week\n")
	content.WriteString("• S: Refresh scenes\n")
	content.WriteString("• Ctrl+C: Quit\n")

	return content.String()
}

func (m ConsoleUI) advanceWeek() tea.Cmd {
	return func() tea.Msg {
		report, err := advanceWeek(m.client, m.config.APIBaseURL)
		return weekReportMsg{report, err}
	}
}

func (m ConsoleUI) resolveChoice(choiceID string) tea.Cmd {
	return func() tea.Msg {
		report, err := resolveEvent(m.client, m.config.APIBaseURL, m.report.Pending.Token, choiceID)
		return weekReportMsg{report, err}
	}
}

func (m ConsoleUI) refreshScenes() tea.Cmd {
	return func() tea.Msg {
		scenes, err := listScenes(m.client, m.config.APIBaseURL)
		return scenesLoadedMsg{scenes, err}
	}
}

func (m ConsoleUI) updateEventModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	event := m.report.PendingEvent

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case weekReportMsg:
		m.loading = false
		m.showEventModal = false
		if msg.err != nil {
			m.err = msg.err
			m.weekLog = append(m.weekLog, errorStyle.Render("Error: "+msg.err.Error()))
		} else {
			m.report = msg.report
			m.weekLog = append(m.weekLog, m.formatReport(msg.report))
			// A chained event pauses the week again.
			if msg.report.Paused() {
				m.showEventModal = true
				m.selectedChoice = 0
			}
		}
		m.writeLogContent()
		return m, m.refreshScenes()

	case tea.KeyMsg:
		if m.loading || event == nil {
			if msg.Type == tea.KeyCtrlC {
				return m, tea.Quit
			}
			return m, nil
		}

		switch msg.Type {
		case tea.KeyCtrlC:
			// The pending event waits in storage; quitting does not lose it.
			return m, tea.Quit
		case tea.KeyUp:
			if m.selectedChoice > 0 {
				m.selectedChoice--
			}
		case tea.KeyDown:
			if m.selectedChoice < len(event.Choices)-1 {
				m.selectedChoice++
			}
		case tea.KeyEnter:
			if len(event.Choices) > 0 {
				m.loading = true
				choice := event.Choices[m.selectedChoice]
				return m, m.resolveChoice(choice.ID)
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				return m, nil
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit Console?"))
	content.WriteString("\n\n")
	content.WriteString("The simulation state stays in storage.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderEventModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	event := m.report.PendingEvent
	var content strings.Builder

	if m.loading || event == nil {
		content.WriteString(modalTitleStyle.Render("Resolving..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Applying your decision..."))
	} else {
		content.WriteString(modalTitleStyle.Render(event.Title))
		content.WriteString("\n\n")
		content.WriteString(wordwrap.String(event.Description, 56))
		content.WriteString("\n\n")

		for i, choice := range event.Choices {
			if i == m.selectedChoice {
				content.WriteString(modalSelectedItemStyle.Render(fmt.Sprintf("▶ %s", choice.Label)))
			} else {
				content.WriteString(modalItemStyle.Render(fmt.Sprintf("  %s", choice.Label)))
			}
			content.WriteString("\n")
		}

		content.WriteString("\n")
		content.WriteString(promptStyle.Render("Use ↑/↓ to navigate, Enter to choose"))
	}

	modal := modalStyle.Width(60).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showEventModal {
		return m.renderEventModal()
	}

	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	logWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - logWidth - 6

	logPanel := logPanelStyle.Width(logWidth).Height(m.height - 3).Render(
		m.logViewport.View(),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, logPanel, metaPanel)
}

// renderProgressBar creates an animated progress bar for loading states
func (m ConsoleUI) renderProgressBar() string {
	usable := m.logViewport.Width - 6
	if usable <= 0 {
		usable = 30 // fallback before sizing
	}

	if usable > 80 {
		usable = 80
	} else if usable < 10 {
		usable = 10
	}

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		if i < filled {
			bar.WriteString("█")
		} else if i == filled && frame%4 < 2 {
			bar.WriteString("▓")
		} else {
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

// progressTick creates a command that sends a progress tick message
func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}
