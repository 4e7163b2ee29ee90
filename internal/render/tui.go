package render

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"farmwatch/internal/status"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

// Action binds a key to an operator command.
type Action struct {
	Key     string
	Help    string
	Confirm string // question asked before running; empty runs immediately
	Prompt  string // when set, the command takes a line of input
	Default string
	Run     func(input string)
}

type valueMsg struct{ id, text string }

type statusMsg struct {
	id    string
	level status.Level
}

type progressMsg struct {
	id  string
	pct float64
}

type noticeMsg struct{ Notice }

const (
	visibleNotices = 5
	barWidth       = 20
)

// TUI renders the dashboard in the terminal using bubbletea.
type TUI struct {
	program    teaProgram
	done       chan struct{}
	sendSignal atomic.Bool
}

// NewTUI starts a bubbletea program and returns a TUI sink.
func NewTUI(title string, actions []Action) *TUI {
	t := &TUI{done: make(chan struct{})}
	t.sendSignal.Store(true)
	p := tea.NewProgram(newTUIModel(title, actions), tea.WithAltScreen())
	t.program = p
	go func() {
		_, _ = p.Run()
		close(t.done)
		// Quitting the UI ends the process like Ctrl+C would.
		if t.sendSignal.Load() {
			if proc, err := os.FindProcess(os.Getpid()); err == nil {
				_ = proc.Signal(os.Interrupt)
			}
		}
	}()
	return t
}

func (t *TUI) SetValue(id, text string) {
	if Known(id) {
		t.program.Send(valueMsg{id: id, text: text})
	}
}

func (t *TUI) SetStatus(id string, level status.Level) {
	if Known(id) {
		t.program.Send(statusMsg{id: id, level: level})
	}
}

func (t *TUI) SetProgress(id string, pct float64) {
	if Known(id) {
		t.program.Send(progressMsg{id: id, pct: pct})
	}
}

func (t *TUI) Notify(kind NoticeKind, msg string) {
	t.program.Send(noticeMsg{Notice{Kind: kind, Message: msg, Time: time.Now()}})
}

// Close stops the program and waits for it to exit.
func (t *TUI) Close() error {
	t.sendSignal.Store(false)
	if t.program != nil {
		t.program.Send(tea.Quit())
	}
	if t.done != nil {
		<-t.done
	}
	return nil
}

type tuiModel struct {
	title    string
	actions  []Action
	values   map[string]string
	statuses map[string]status.Level
	progress map[string]float64
	notices  []Notice
	bar      progress.Model
	input    textinput.Model
	soil     table.Model
	pending  *Action
	wrap     bool
	help     bool
	width    int
	height   int
}

var soilRows = []struct{ label, value, status string }{
	{"pH", SoilPHValue, SoilPHStatus},
	{"Temperature", SoilTempValue, SoilTempStatus},
	{"EC", SoilECValue, SoilECStatus},
	{"Humidity", SoilHumidityValue, SoilHumidityStat},
	{"Moisture", SoilMoistureValue, SoilMoistureStat},
	{"Nitrogen", SoilNitrogenValue, SoilNitrogenStat},
}

func newTUIModel(title string, actions []Action) tuiModel {
	cols := []table.Column{
		{Title: "Parameter", Width: 12},
		{Title: "Value", Width: 10},
		{Title: "Status", Width: 10},
	}
	soil := table.New(table.WithColumns(cols), table.WithHeight(len(soilRows)+1))
	in := textinput.New()
	in.CharLimit = 64
	m := tuiModel{
		title:    title,
		actions:  actions,
		values:   make(map[string]string),
		statuses: make(map[string]status.Level),
		progress: make(map[string]float64),
		bar:      progress.New(progress.WithDefaultGradient(), progress.WithWidth(barWidth), progress.WithoutPercentage()),
		input:    in,
		soil:     soil,
	}
	m.refreshSoil()
	return m
}

func (m tuiModel) Init() tea.Cmd { return nil }

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case valueMsg:
		m.values[msg.id] = msg.text
		m.refreshSoil()
	case statusMsg:
		m.statuses[msg.id] = msg.level
		m.refreshSoil()
	case progressMsg:
		m.progress[msg.id] = msg.pct
	case noticeMsg:
		m.notices = append(m.notices, msg.Notice)
		if len(m.notices) > maxNotices {
			m.notices = m.notices[len(m.notices)-maxNotices:]
		}
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m tuiModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.pending != nil && m.pending.Prompt != "" {
		switch msg.Type {
		case tea.KeyEnter:
			run(*m.pending, strings.TrimSpace(m.input.Value()))
			m.pending = nil
			m.input.Blur()
		case tea.KeyEsc:
			m.pending = nil
			m.input.Blur()
		default:
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}
		return m, nil
	}
	if m.pending != nil {
		if msg.String() == "y" || msg.String() == "Y" {
			run(*m.pending, "")
		}
		m.pending = nil
		return m, nil
	}
	if m.help {
		m.help = false
		return m, nil
	}
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "?":
		m.help = true
		return m, nil
	case "w":
		m.wrap = !m.wrap
		return m, nil
	}
	for i := range m.actions {
		a := m.actions[i]
		if a.Key != msg.String() {
			continue
		}
		switch {
		case a.Prompt != "":
			m.pending = &a
			m.input.Placeholder = a.Default
			m.input.SetValue(a.Default)
			return m, m.input.Focus()
		case a.Confirm != "":
			m.pending = &a
		default:
			run(a, "")
		}
		return m, nil
	}
	return m, nil
}

// run executes the action off the UI goroutine; the command reports back
// through the sink, which sends to this program.
func run(a Action, input string) {
	if a.Run != nil {
		go a.Run(input)
	}
}

func (m *tuiModel) refreshSoil() {
	rows := make([]table.Row, 0, len(soilRows))
	for _, r := range soilRows {
		val := m.values[r.value]
		if val == "" {
			val = "--"
		}
		label := "--"
		if l, ok := m.statuses[r.status]; ok {
			label = l.Label()
		}
		rows = append(rows, table.Row{r.label, val, label})
	}
	m.soil.SetRows(rows)
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	panelStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("8")).Padding(0, 1)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("7")).Width(10)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func levelColor(l status.Level) lipgloss.Color {
	switch l {
	case status.Good:
		return lipgloss.Color("10")
	case status.Warning:
		return lipgloss.Color("11")
	default:
		return lipgloss.Color("9")
	}
}

func noticeColor(k NoticeKind) lipgloss.Color {
	switch k {
	case Success:
		return lipgloss.Color("10")
	case Warning:
		return lipgloss.Color("11")
	case Error:
		return lipgloss.Color("9")
	default:
		return lipgloss.Color("12")
	}
}

func (m tuiModel) value(id string) string {
	if v, ok := m.values[id]; ok && v != "" {
		return v
	}
	return "--"
}

// line renders "label value" and colours the value when statusID has a level.
func (m tuiModel) line(label, valueID, statusID string) string {
	v := m.value(valueID)
	if l, ok := m.statuses[statusID]; ok && statusID != "" {
		v = lipgloss.NewStyle().Foreground(levelColor(l)).Render(v)
	}
	return labelStyle.Render(label) + " " + v
}

func (m tuiModel) barLine(label, barID string) string {
	return labelStyle.Render(label) + " " + m.bar.ViewAs(m.progress[barID]/100)
}

func (m tuiModel) View() string {
	if m.help {
		return m.renderHelp()
	}
	header := titleStyle.Render(m.title) + "  " + dimStyle.Render(m.value(SystemStatusText)+" | updated "+m.value(LastUpdate))

	drone := panelStyle.Render(strings.Join([]string{
		titleStyle.Render("Drone"),
		m.line("Link", ConnectionValue, ConnectionStatus),
		m.barLine("", ConnectionBar),
		m.line("Signal", SignalValue, SignalStatus),
		m.barLine("", SignalBar),
		m.line("Battery", BatteryValue, BatteryStatus),
		m.barLine("", BatteryBar),
		m.line("Altitude", DroneAltitude, ""),
		m.line("Flight", FlightTime, ""),
	}, "\n"))

	survey := panelStyle.Render(strings.Join([]string{
		titleStyle.Render("Survey"),
		m.line("Field", FieldName, ""),
		m.line("Mode", FlightMode, ""),
		m.line("Area", AreaCovered, ""),
		m.barLine("", AreaBar),
		m.line("NDVI", AvgNDVI, ""),
		m.line("Health", HealthScore, ""),
		m.barLine("", HealthBar),
		m.line("Position", MapCoordinates, ""),
		m.line("Scale", ZoomLevel, ""),
	}, "\n"))

	mission := panelStyle.Render(strings.Join([]string{
		titleStyle.Render("Mission"),
		m.line("Status", MissionStatus, MissionStatus),
		m.line("Progress", MissionProgress, ""),
		m.barLine("", MissionProgressBar),
	}, "\n"))

	soil := panelStyle.Render(strings.Join([]string{
		titleStyle.Render("Soil " + m.value(SoilNode)),
		dimStyle.Render(m.value(SoilTimeRange)),
		m.soil.View(),
	}, "\n"))

	top := lipgloss.JoinHorizontal(lipgloss.Top, drone, survey)
	bottom := lipgloss.JoinHorizontal(lipgloss.Top, mission, soil)

	sections := []string{header, top, bottom, m.renderNotices()}
	if m.pending != nil {
		sections = append(sections, m.renderPrompt())
	}
	sections = append(sections, m.renderKeys())
	return strings.Join(sections, "\n")
}

func (m tuiModel) renderNotices() string {
	start := len(m.notices) - visibleNotices
	if start < 0 {
		start = 0
	}
	var lines []string
	for _, n := range m.notices[start:] {
		line := fmt.Sprintf("[%s] %s", n.Time.Format("15:04:05"), n.Message)
		if m.wrap && m.width > 0 {
			line = wordwrap.String(line, m.width)
		}
		lines = append(lines, lipgloss.NewStyle().Foreground(noticeColor(n.Kind)).Render(line))
	}
	return strings.Join(lines, "\n")
}

func (m tuiModel) renderPrompt() string {
	if m.pending.Prompt != "" {
		return m.pending.Prompt + " " + m.input.View()
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Render(m.pending.Confirm + " [y/N]")
}

func (m tuiModel) renderKeys() string {
	parts := make([]string, 0, len(m.actions)+2)
	for _, a := range m.actions {
		parts = append(parts, a.Key+" "+a.Help)
	}
	parts = append(parts, "? help", "q quit")
	return dimStyle.Render(strings.Join(parts, " | "))
}

func (m tuiModel) renderHelp() string {
	lines := []string{"Key Bindings:"}
	for _, a := range m.actions {
		lines = append(lines, fmt.Sprintf(" %-3s %s", a.Key, a.Help))
	}
	lines = append(lines,
		" w   toggle wrap for notifications",
		" ?   toggle this help view",
		" q   quit",
		"",
		"Press any key to return.",
	)
	return strings.Join(lines, "\n")
}
