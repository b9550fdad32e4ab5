package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"login-monitor/internal/store"
)

type FormState int

const (
	StateSelecting FormState = iota
	StateFilling
)

type cmdItem struct {
	title, desc string
	index       int
}

func (i cmdItem) Title() string       { return i.title }
func (i cmdItem) Description() string { return i.desc }
func (i cmdItem) FilterValue() string { return i.title }

type CommandFormModel struct {
	Store       *store.Store
	DeviceID    string
	State       FormState
	List        list.Model
	Inputs      []textinput.Model
	Focused     int
	SelectedCmd int
	LastStatus  string
	Err         error
}

type CommandDef struct {
	Name        string
	Description string
	Fields      []FieldDef
}

type FieldDef struct {
	Name        string
	Placeholder string
	Default     string
}

var availableCommands = []CommandDef{
	{Name: "status", Description: "System status snapshot (CPU, RAM, disk, uptime)"},
	{Name: "screenshot", Description: "Capture the screen and upload it"},
	{
		Name:        "photo",
		Description: "Capture webcam photos and upload them",
		Fields: []FieldDef{
			{Name: "count", Placeholder: "Photos to take, 1-5 (default: 1)", Default: "1"},
		},
	},
	{Name: "location", Description: "Geolocate the device"},
	{Name: "battery", Description: "Battery level and charging state"},
	{Name: "wifiinfo", Description: "Current WiFi connection details"},
	{Name: "sysinfo", Description: "Hardware and OS inventory"},
	{
		Name:        "audio",
		Description: "Record microphone audio and upload it",
		Fields: []FieldDef{
			{Name: "duration", Placeholder: "Seconds, max 120 (default: 10)", Default: "10"},
		},
	},
	{
		Name:        "alarm",
		Description: "Sound an audible alarm on the device",
		Fields: []FieldDef{
			{Name: "duration", Placeholder: "Seconds, max 60 (default: 10)", Default: "10"},
		},
	},
	{
		Name:        "findme",
		Description: "Alarm plus periodic location reports",
		Fields: []FieldDef{
			{Name: "duration", Placeholder: "Seconds, max 300 (default: 60)", Default: "60"},
		},
	},
	{Name: "stopfind", Description: "Stop a running findme"},
	{Name: "stop", Description: "Stop all running background commands"},
	{Name: "listnetworks", Description: "List saved WiFi network profiles"},
	{Name: "processes", Description: "Top processes by memory"},
	{Name: "lockscreen", Description: "Lock the device screen"},
	{
		Name:        "shutdown",
		Description: "Shut the device down after a delay",
		Fields: []FieldDef{
			{Name: "delay", Placeholder: "Seconds before shutdown (default: 60)", Default: "60"},
		},
	},
	{
		Name:        "restart",
		Description: "Restart the device after a delay",
		Fields: []FieldDef{
			{Name: "delay", Placeholder: "Seconds before restart (default: 60)", Default: "60"},
		},
	},
}

func NewCommandFormModel(st *store.Store, deviceID string, width, height int) CommandFormModel {
	items := []list.Item{}
	for i, cmd := range availableCommands {
		items = append(items, cmdItem{title: cmd.Name, desc: cmd.Description, index: i})
	}

	delegate := list.NewDefaultDelegate()
	if width <= 0 {
		width = 60
	}
	if height <= 0 {
		height = 20
	}
	l := list.New(items, delegate, width, height)
	l.Title = "Send Command to " + deviceID
	l.SetShowHelp(false)

	return CommandFormModel{
		Store:    st,
		DeviceID: deviceID,
		State:    StateSelecting,
		List:     l,
	}
}

func (m *CommandFormModel) initInputs() {
	if m.SelectedCmd < 0 || m.SelectedCmd >= len(availableCommands) {
		m.SelectedCmd = 0
	}
	cmd := availableCommands[m.SelectedCmd]
	m.Inputs = make([]textinput.Model, len(cmd.Fields))
	for i, field := range cmd.Fields {
		ti := textinput.New()
		ti.Placeholder = field.Placeholder
		ti.CharLimit = 64
		if field.Default != "" {
			ti.SetValue(field.Default)
		}
		if i == 0 {
			ti.Focus()
		}
		m.Inputs[i] = ti
	}
	m.Focused = 0
}

func (m CommandFormModel) Init() tea.Cmd {
	return nil
}

func (m CommandFormModel) Update(msg tea.Msg) (CommandFormModel, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case commandQueuedMsg:
		if msg.Err != nil {
			m.Err = msg.Err
		} else {
			m.Err = nil
			m.LastStatus = fmt.Sprintf("Queued %s (%s)", msg.Record.Command, msg.Record.ID)
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.List.SetWidth(msg.Width)
		m.List.SetHeight(msg.Height - 4)
	}

	if m.State == StateSelecting {
		switch msg := msg.(type) {
		case tea.KeyMsg:
			switch msg.String() {
			case "esc":
				return m, func() tea.Msg { return BackToDashboardMsg{} }
			case "enter":
				if i, ok := m.List.SelectedItem().(cmdItem); ok {
					m.SelectedCmd = i.index
					if len(availableCommands[i.index].Fields) == 0 {
						return m, m.submitCommand()
					}
					m.State = StateFilling
					m.initInputs()
					return m, textinput.Blink
				}
			case "up", "k":
				m.List.CursorUp()
				return m, nil
			case "down", "j":
				m.List.CursorDown()
				return m, nil
			}
		}
		m.List, cmd = m.List.Update(msg)
		cmds = append(cmds, cmd)
	} else {
		switch msg := msg.(type) {
		case tea.KeyMsg:
			switch msg.String() {
			case "esc":
				m.State = StateSelecting
				return m, nil
			case "enter":
				if m.Focused == len(m.Inputs) {
					m.State = StateSelecting
					return m, m.submitCommand()
				} else if m.Focused == len(m.Inputs)+1 {
					m.State = StateSelecting
					return m, nil
				}
				m.Focused++
				if m.Focused > len(m.Inputs)+1 {
					m.Focused = 0
				}
				m.updateFocus()
				return m, nil

			case "tab", "down":
				m.Focused++
				if m.Focused > len(m.Inputs)+1 {
					m.Focused = 0
				}
				m.updateFocus()
				return m, nil

			case "shift+tab", "up":
				m.Focused--
				if m.Focused < 0 {
					m.Focused = len(m.Inputs) + 1
				}
				m.updateFocus()
				return m, nil
			}
		}
		if m.Focused >= 0 && m.Focused < len(m.Inputs) {
			m.Inputs[m.Focused], cmd = m.Inputs[m.Focused].Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

func (m *CommandFormModel) updateFocus() {
	for i := range m.Inputs {
		if i == m.Focused {
			m.Inputs[i].Focus()
		} else {
			m.Inputs[i].Blur()
		}
	}
}

func (m CommandFormModel) renderButton(text string, focused bool) string {
	if focused {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("205")).Padding(0, 3).Bold(true).Render(text)
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("254")).Background(lipgloss.Color("240")).Padding(0, 3).Render(text)
}

func (m CommandFormModel) View() string {
	if m.State == StateSelecting {
		var b string
		b = m.List.View()
		b += "\n" + blurredStyle.Render("enter: select, esc: back to devices")
		if m.LastStatus != "" {
			b += "\n" + statusMessageStyle(m.LastStatus)
		}
		if m.Err != nil {
			b += "\n" + errorMessageStyle(m.Err.Error())
		}
		return b
	}

	cmd := availableCommands[m.SelectedCmd]
	var s string

	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")).Render(fmt.Sprintf("Parameters: %s", cmd.Name))
	s += title + "\n\n"

	for i, field := range cmd.Fields {
		labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
		if i == m.Focused {
			labelStyle = labelStyle.Foreground(lipgloss.Color("205")).Bold(true)
		}
		s += labelStyle.Render(field.Name) + "\n"
		s += m.Inputs[i].View() + "\n\n"
	}

	submitBtn := m.renderButton("Submit", m.Focused == len(m.Inputs))
	backBtn := m.renderButton("Back", m.Focused == len(m.Inputs)+1)

	buttons := lipgloss.JoinHorizontal(lipgloss.Top, submitBtn, lipgloss.NewStyle().MarginLeft(2).Render(backBtn))
	s += "\n" + buttons

	return docStyle.Render(s)
}

func (m CommandFormModel) submitCommand() tea.Cmd {
	def := availableCommands[m.SelectedCmd]
	args := buildArgs(def, m.Inputs)
	return queueCommand(m.Store, m.DeviceID, def.Name, args)
}

func buildArgs(def CommandDef, inputs []textinput.Model) map[string]any {
	args := map[string]any{}
	for i, field := range def.Fields {
		if i >= len(inputs) {
			break
		}
		val := inputs[i].Value()
		if val == "" {
			continue
		}
		var n int
		if _, err := fmt.Sscanf(val, "%d", &n); err == nil {
			args[field.Name] = n
		} else {
			args[field.Name] = val
		}
	}
	return args
}
