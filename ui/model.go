package ui

import (
	"context"
	"fmt"
	"mqtt-console/application"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
)

const maxLogLines = 8

// Controller is the part of the session controller the view drives.
type Controller interface {
	Connect(ctx context.Context, broker string) (application.ConnectionState, error)
	PublishOnce(ctx context.Context, topic, message string) error
	StartPeriodic(topic, message string, interval time.Duration) (application.PeriodicSession, error)
	StopPeriodic()
	Subscribe(ctx context.Context, topic string) ([]string, error)
	SetMode(mode application.PublishMode) error
	SetInterval(interval time.Duration) error
	RefreshLogs(ctx context.Context) error
	State() application.State
}

type field int

const (
	fieldBroker field = iota
	fieldTopic
	fieldMessage
	fieldInterval
	fieldSubscribe
	fieldCount
)

// StateMsg carries a controller snapshot into the program.
type StateMsg struct {
	State application.State
}

type actionDoneMsg struct {
	action string
	err    error
}

type Model struct {
	ctx        context.Context
	controller Controller

	inputs [fieldCount]textinput.Model
	focus  field

	state  application.State
	theme  Theme
	styles Styles
	width  int

	log zerolog.Logger
}

type ModelParams struct {
	Controller Controller
	Broker     string
	Theme      Theme

	Log zerolog.Logger
}

func (p *ModelParams) EnsureDefaults() {
	if p.Theme.Name == "" {
		p.Theme = DarkTheme
	}
}

func NewModel(ctx context.Context, params ModelParams) (*Model, error) {
	if params.Controller == nil {
		return nil, fmt.Errorf("Controller is nil")
	}
	params.EnsureDefaults()

	m := &Model{
		ctx:        ctx,
		controller: params.Controller,
		state:      params.Controller.State(),
		theme:      params.Theme,
		styles:     NewStyles(params.Theme),
		log:        params.Log,
	}

	placeholders := [fieldCount]string{
		fieldBroker:    "localhost:1883",
		fieldTopic:     "room/1",
		fieldMessage:   "hello",
		fieldInterval:  "10",
		fieldSubscribe: "room/#",
	}
	for i := range m.inputs {
		ti := textinput.New()
		ti.Placeholder = placeholders[i]
		ti.CharLimit = 512
		m.inputs[i] = ti
	}
	m.inputs[fieldInterval].CharLimit = 6
	m.inputs[fieldInterval].SetValue(strconv.Itoa(int(m.state.Interval / time.Second)))
	m.inputs[fieldBroker].SetValue(params.Broker)
	m.inputs[fieldBroker].Focus()

	return m, nil
}

func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case StateMsg:
		m.state = msg.State
		if !m.fieldEnabled(m.focus) {
			m.setFocus(m.nextField(m.focus, 1))
		}
		return m, nil
	case actionDoneMsg:
		if msg.err != nil {
			m.log.Debug().Err(msg.err).Str("action", msg.action).Msg("action failed")
			return m, nil
		}
		if msg.action == "subscribe" {
			m.inputs[fieldSubscribe].SetValue("")
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateFocused(msg)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	case "tab":
		m.setFocus(m.nextField(m.focus, 1))
		return m, nil
	case "shift+tab":
		m.setFocus(m.nextField(m.focus, -1))
		return m, nil
	case "ctrl+t":
		m.theme = nextTheme(m.theme)
		m.styles = NewStyles(m.theme)
		return m, nil
	case "ctrl+p":
		mode := application.PublishPeriodic
		if m.state.Mode == application.PublishPeriodic {
			mode = application.PublishOnce
		}
		return m, m.run("mode", func() error {
			return m.controller.SetMode(mode)
		})
	case "ctrl+s":
		return m, m.run("stop", func() error {
			m.controller.StopPeriodic()
			return nil
		})
	case "ctrl+r":
		return m, m.run("refresh", func() error {
			return m.controller.RefreshLogs(m.ctx)
		})
	case "enter":
		return m, m.submit()
	}

	if !m.fieldEnabled(m.focus) {
		return m, nil
	}
	return m.updateFocused(msg)
}

// submit runs the action bound to the focused input.
func (m *Model) submit() tea.Cmd {
	switch m.focus {
	case fieldBroker:
		broker := m.inputs[fieldBroker].Value()
		return m.run("connect", func() error {
			_, err := m.controller.Connect(m.ctx, broker)
			return err
		})
	case fieldTopic, fieldMessage:
		topic := m.inputs[fieldTopic].Value()
		message := m.inputs[fieldMessage].Value()
		if m.state.Mode == application.PublishPeriodic {
			interval := application.ParseIntervalSeconds(m.inputs[fieldInterval].Value())
			return m.run("periodic", func() error {
				_, err := m.controller.StartPeriodic(topic, message, interval)
				return err
			})
		}
		return m.run("publish", func() error {
			return m.controller.PublishOnce(m.ctx, topic, message)
		})
	case fieldInterval:
		interval := application.ParseIntervalSeconds(m.inputs[fieldInterval].Value())
		m.inputs[fieldInterval].SetValue(strconv.Itoa(int(interval / time.Second)))
		return m.run("interval", func() error {
			return m.controller.SetInterval(interval)
		})
	case fieldSubscribe:
		topic := m.inputs[fieldSubscribe].Value()
		return m.run("subscribe", func() error {
			_, err := m.controller.Subscribe(m.ctx, topic)
			return err
		})
	}
	return nil
}

// run calls the controller off the event loop: the controller renders
// through Program.Send, which would block inside Update.
func (m *Model) run(action string, fn func() error) tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg{action: action, err: fn()}
	}
}

func (m *Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *Model) setFocus(f field) {
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
	m.focus = f
	m.inputs[f].Focus()
}

func (m *Model) nextField(from field, step int) field {
	f := from
	for i := 0; i < int(fieldCount); i++ {
		f = field((int(f) + step + int(fieldCount)) % int(fieldCount))
		if m.fieldEnabled(f) {
			return f
		}
	}
	return from
}

func (m *Model) fieldEnabled(f field) bool {
	switch f {
	case fieldTopic, fieldMessage:
		return !m.state.InputsLocked
	case fieldInterval:
		return m.state.IntervalEnabled
	default:
		return true
	}
}

func (m *Model) View() string {
	s := m.styles

	header := lipgloss.JoinHorizontal(lipgloss.Left,
		s.Title.Render("MQTT Console"),
		s.Help.Render(fmt.Sprintf("[%s]", m.state.Connection)),
		s.Help.Render(fmt.Sprintf("  theme: %s", m.theme.Name)),
	)

	form := []string{
		m.row("Broker", fieldBroker),
		m.row("Topic", fieldTopic),
		m.row("Message", fieldMessage),
		s.Label.Render("Mode") + s.Text.Render(formatMode(m.state.Mode)),
		m.row("Interval", fieldInterval) + s.Help.Render(" s"),
	}
	if p := formatPeriodic(m.state.Periodic); p != "" {
		form = append(form, s.Label.Render("Periodic")+s.Busy.Render(p))
	}
	form = append(form,
		m.row("Subscribe", fieldSubscribe),
		s.Label.Render("Topics")+s.Text.Render(formatSubscriptions(m.state.Subscriptions)),
	)

	logs := lipgloss.JoinHorizontal(lipgloss.Top,
		m.logSection("Sent", m.state.Logs.Sent),
		m.logSection("Received", m.state.Logs.Received),
	)

	return strings.Join([]string{
		header,
		s.Section.Render(strings.Join(form, "\n")),
		logs,
		m.statusLine(),
		s.Help.Render("tab: next • enter: submit • ctrl+p: mode • ctrl+s: stop • ctrl+r: refresh • ctrl+t: theme • esc: quit"),
	}, "\n")
}

func (m *Model) row(label string, f field) string {
	if !m.fieldEnabled(f) {
		value := m.inputs[f].Value()
		if value == "" {
			value = m.inputs[f].Placeholder
		}
		return m.styles.Label.Render(label) + m.styles.Disabled.Render(value)
	}
	return m.styles.Label.Render(label) + m.inputs[f].View()
}

func (m *Model) logSection(title string, entries []application.MessageLogEntry) string {
	width := 40
	if m.width > 0 {
		width = max(20, m.width/2-4)
	}

	lines := []string{m.styles.Label.Render(title)}
	for _, line := range formatLogEntries(entries, maxLogLines) {
		lines = append(lines, m.styles.Text.MaxWidth(width).Render(line))
	}
	return m.styles.Section.Width(width).Render(strings.Join(lines, "\n"))
}

func (m *Model) statusLine() string {
	st := m.state.Status
	switch st.Kind {
	case application.StatusBusy:
		return m.styles.Busy.Render(st.Text)
	case application.StatusSuccess:
		return m.styles.Success.Render(st.Text)
	case application.StatusError:
		return m.styles.Error.Render(st.Text)
	default:
		return m.styles.Info.Render(st.Text)
	}
}
