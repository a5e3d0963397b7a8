package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/cjrunixx/VeloVoice/backend/internal/model/copilot"
	"github.com/cjrunixx/VeloVoice/backend/internal/model/tool"
	"github.com/cjrunixx/VeloVoice/backend/internal/model/vehicle"
)

const helpText = "/persona NAME  /lang CODE  /rpm N  /battery N  /clear  /quit"

type sender interface {
	syncPersona(persona, language string) error
	transcript(text, persona, language string) error
}

type entryKind int

const (
	entryDriver entryKind = iota
	entryCopilot
	entrySystem
	entryError
)

type entry struct {
	kind    entryKind
	text    string
	actions string
}

type styles struct {
	header  lipgloss.Style
	driver  lipgloss.Style
	copilot lipgloss.Style
	action  lipgloss.Style
	system  lipgloss.Style
	err     lipgloss.Style
	status  lipgloss.Style
	pane    lipgloss.Style
}

func newStyles() styles {
	muted := lipgloss.Color("#7f8c98")
	return styles{
		header:  lipgloss.NewStyle().Foreground(lipgloss.Color("#05ffa1")).Bold(true),
		driver:  lipgloss.NewStyle().Foreground(lipgloss.Color("#f5d76e")).Bold(true),
		copilot: lipgloss.NewStyle().Foreground(lipgloss.Color("#4fc3f7")).Bold(true),
		action:  lipgloss.NewStyle().Foreground(lipgloss.Color("#b388ff")),
		system:  lipgloss.NewStyle().Foreground(muted).Italic(true),
		err:     lipgloss.NewStyle().Foreground(lipgloss.Color("#ff5f6d")).Bold(true),
		status:  lipgloss.NewStyle().Foreground(muted),
		pane:    lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(muted).Padding(0, 1),
	}
}

type model struct {
	client   sender
	sim      *simulator
	inbound  chan tea.Msg
	persona  string
	language string

	input    textinput.Model
	timeline viewport.Model
	spinner  spinner.Model
	styles   styles

	entries   []entry
	dirty     bool
	pending   int
	reading   *vehicle.Telemetry
	connected bool
	width     int
	height    int
}

func newModel(c sender, sim *simulator, inbound chan tea.Msg, persona, language string) model {
	input := textinput.New()
	input.Prompt = "❯ "
	input.CharLimit = 500
	input.Placeholder = "Say something to your co-pilot, or " + helpText
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Points
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#05ffa1"))

	// Letters belong to the input; only paging keys scroll the timeline.
	timeline := viewport.New(0, 0)
	timeline.KeyMap = viewport.KeyMap{
		PageDown: key.NewBinding(key.WithKeys("pgdown")),
		PageUp:   key.NewBinding(key.WithKeys("pgup")),
	}
	timeline.MouseWheelEnabled = true

	return model{
		client:    c,
		sim:       sim,
		inbound:   inbound,
		persona:   persona,
		language:  language,
		input:     input,
		timeline:  timeline,
		spinner:   sp,
		styles:    newStyles(),
		connected: true,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, waitFrame(m.inbound))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			line := strings.TrimSpace(m.input.Value())
			m.input.Reset()
			if line == "" {
				break
			}
			if strings.HasPrefix(line, "/") {
				if quit := m.command(line); quit {
					return m, tea.Quit
				}
				break
			}
			m.say(line)
		}
	case frameMsg:
		m.receive(frame(msg))
		cmds = append(cmds, waitFrame(m.inbound))
	case telemetryMsg:
		reading := vehicle.Telemetry(msg)
		m.reading = &reading
		cmds = append(cmds, waitFrame(m.inbound))
	case disconnectedMsg:
		m.connected = false
		m.pending = 0
		m.push(entryError, fmt.Sprintf("disconnected: %v", msg.err))
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.dirty = true
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.timeline, cmd = m.timeline.Update(msg)
	cmds = append(cmds, cmd)

	if m.dirty {
		m.render()
	}
	return m, tea.Batch(cmds...)
}

func (m *model) say(text string) {
	if !m.connected {
		m.push(entryError, "not connected")
		return
	}
	m.push(entryDriver, text)
	if err := m.client.transcript(text, m.persona, m.language); err != nil {
		m.push(entryError, err.Error())
		return
	}
	m.pending++
}

// command handles a slash command and reports whether the console should quit.
func (m *model) command(line string) bool {
	name, arg, _ := strings.Cut(strings.TrimPrefix(line, "/"), " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "quit", "q":
		return true
	case "clear":
		m.entries = nil
		m.dirty = true
	case "persona":
		if arg == "" {
			m.push(entryError, "usage: /persona NAME")
			return false
		}
		m.persona = arg
		m.sync()
	case "lang":
		if arg == "" {
			m.push(entryError, "usage: /lang CODE")
			return false
		}
		m.language = arg
		m.sync()
	case "rpm", "battery":
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil || v < 0 {
			m.push(entryError, fmt.Sprintf("usage: /%s N", name))
			return false
		}
		if name == "rpm" {
			m.sim.Force(v, -1)
		} else {
			m.sim.Force(-1, v)
		}
		m.push(entrySystem, fmt.Sprintf("next poll reports %s %s", name, arg))
	default:
		m.push(entryError, "unknown command, try "+helpText)
	}
	return false
}

func (m *model) sync() {
	if err := m.client.syncPersona(m.persona, m.language); err != nil {
		m.push(entryError, err.Error())
		return
	}
	m.push(entrySystem, fmt.Sprintf("persona %s, language %s", m.persona, m.language))
}

func (m *model) receive(f frame) {
	switch f.Type {
	case copilot.TypeSystem:
		m.push(entrySystem, f.Message)
	case copilot.TypeAIResponse:
		// Alerts arrive unprompted, so this is only a hint.
		if m.pending > 0 {
			m.pending--
		}
		m.entries = append(m.entries, entry{kind: entryCopilot, text: f.Text, actions: renderActions(f.Actions)})
		m.dirty = true
	default:
		m.push(entrySystem, fmt.Sprintf("%s %s", f.Type, f.Action))
	}
}

func (m *model) push(kind entryKind, text string) {
	m.entries = append(m.entries, entry{kind: kind, text: text})
	m.dirty = true
}

func (m *model) resize() {
	paneWidth := max(m.width-2, 10)
	m.input.Width = max(paneWidth-4, 10)
	m.timeline.Width = paneWidth - 4
	m.timeline.Height = max(m.height-7, 3)
}

func (m *model) render() {
	m.timeline.SetContent(m.renderTimeline())
	m.timeline.GotoBottom()
	m.dirty = false
}

func (m model) renderTimeline() string {
	lines := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		switch e.kind {
		case entryDriver:
			lines = append(lines, m.styles.driver.Render("you")+"  "+e.text)
		case entryCopilot:
			line := m.styles.copilot.Render(m.persona) + "  " + e.text
			if e.actions != "" {
				line += "  " + m.styles.action.Render("→ "+e.actions)
			}
			lines = append(lines, line)
		case entrySystem:
			lines = append(lines, m.styles.system.Render("· "+e.text))
		case entryError:
			lines = append(lines, m.styles.err.Render("! "+e.text))
		}
	}
	return strings.Join(lines, "\n")
}

func (m model) View() string {
	header := m.styles.header.Render("VeloVoice co-pilot console") +
		m.styles.status.Render(fmt.Sprintf("  %s · %s", m.persona, m.language))

	status := renderReading(m.reading)
	if !m.connected {
		status = "offline"
	}
	if m.pending > 0 {
		status = m.spinner.View() + " thinking  " + status
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.styles.pane.Render(m.timeline.View()),
		m.styles.status.Render(status),
		m.input.View(),
	)
}

// renderActions lists tool calls as name(key=value, ...) with sorted keys.
func renderActions(calls []tool.Call) string {
	if len(calls) == 0 {
		return ""
	}
	parts := make([]string, 0, len(calls))
	for _, c := range calls {
		keys := make([]string, 0, len(c.Args))
		for k := range c.Args {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		args := make([]string, 0, len(keys))
		for _, k := range keys {
			args = append(args, fmt.Sprintf("%s=%v", k, c.Args[k]))
		}
		parts = append(parts, fmt.Sprintf("%s(%s)", c.Tool, strings.Join(args, ", ")))
	}
	return strings.Join(parts, " ")
}

func renderReading(t *vehicle.Telemetry) string {
	if t == nil {
		return "waiting for first OBD poll"
	}
	return fmt.Sprintf("rpm %.0f · battery %.0f%% · speed %.0f km/h", vehicle.Value(t.RPM), vehicle.Value(t.Battery), t.Speed)
}
