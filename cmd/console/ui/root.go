package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"login-monitor/internal/store"
)

type state int

const (
	stateDashboard state = iota
	stateCommandForm
	stateDetail
)

// BackToDashboardMsg signals transition back to the device table.
type BackToDashboardMsg struct{}

type RootModel struct {
	State     state
	Store     *store.Store
	Dashboard DashboardModel
	Form      CommandFormModel
	Detail    DetailModel
	Quitting  bool
	width     int
	height    int
}

func NewRootModel(st *store.Store) RootModel {
	return RootModel{
		State:     stateDashboard,
		Store:     st,
		Dashboard: NewDashboardModel(st, 0, 24),
	}
}

func (m RootModel) Init() tea.Cmd {
	return m.Dashboard.Init()
}

func (m RootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.Dashboard.Table.SetHeight(msg.Height - 10)
		m.Detail.Table.SetHeight(msg.Height - 10)

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.Quitting = true
			return m, tea.Quit
		}
	}

	switch m.State {
	case stateDashboard:
		switch msg := msg.(type) {
		case DeviceSelectedMsg:
			m.State = stateCommandForm
			m.Form = NewCommandFormModel(m.Store, msg.DeviceID, m.width, m.height-4)
			return m, m.Form.Init()
		case DeviceDetailMsg:
			m.State = stateDetail
			m.Detail = NewDetailModel(m.Store, msg.DeviceID, m.width, m.height)
			return m, m.Detail.Init()
		}

		newDash, cmd := m.Dashboard.Update(msg)
		m.Dashboard = newDash
		cmds = append(cmds, cmd)

	case stateCommandForm:
		switch msg.(type) {
		case BackToDashboardMsg:
			m.State = stateDashboard
			return m, m.Dashboard.Init()
		}

		newForm, cmd := m.Form.Update(msg)
		m.Form = newForm
		cmds = append(cmds, cmd)

	case stateDetail:
		switch msg.(type) {
		case BackToDashboardMsg:
			m.State = stateDashboard
			return m, m.Dashboard.Init()
		}

		newDetail, cmd := m.Detail.Update(msg)
		m.Detail = newDetail
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m RootModel) View() string {
	if m.Quitting {
		return "Bye!\n"
	}
	switch m.State {
	case stateDashboard:
		return m.Dashboard.View()
	case stateCommandForm:
		return m.Form.View()
	case stateDetail:
		return m.Detail.View()
	}
	return "Unknown state"
}
