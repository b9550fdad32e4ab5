package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"login-monitor/internal/store"
)

type DashboardModel struct {
	Store   *store.Store
	Table   table.Model
	Devices []store.Device
	Err     error
}

// DeviceSelectedMsg opens the command form for a device.
type DeviceSelectedMsg struct {
	DeviceID string
}

// DeviceDetailMsg opens the command history for a device.
type DeviceDetailMsg struct {
	DeviceID string
}

func NewDashboardModel(st *store.Store, width, height int) DashboardModel {
	columns := []table.Column{
		{Title: "Device ID", Width: 36},
		{Title: "Name", Width: 20},
		{Title: "Status", Width: 8},
		{Title: "Last Seen", Width: 20},
		{Title: "City", Width: 16},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(height-10),
	)

	sStyle := table.DefaultStyles()
	sStyle.Header = sStyle.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	sStyle.Selected = sStyle.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(sStyle)

	return DashboardModel{
		Store: st,
		Table: t,
	}
}

func (m DashboardModel) Init() tea.Cmd {
	return loadDevices(m.Store)
}

func (m DashboardModel) Update(msg tea.Msg) (DashboardModel, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			return m, loadDevices(m.Store)
		case "enter":
			selected := m.Table.SelectedRow()
			if len(selected) > 0 {
				id := selected[0]
				return m, func() tea.Msg { return DeviceSelectedMsg{DeviceID: id} }
			}
		case "h":
			selected := m.Table.SelectedRow()
			if len(selected) > 0 {
				id := selected[0]
				return m, func() tea.Msg { return DeviceDetailMsg{DeviceID: id} }
			}
		case "q":
			return m, tea.Quit
		}

	case devicesLoadedMsg:
		if msg.Err != nil {
			m.Err = msg.Err
			return m, nil
		}
		m.Err = nil
		m.Devices = msg.Devices
		rows := make([]table.Row, 0, len(msg.Devices))
		for _, d := range msg.Devices {
			status := "Offline"
			if d.IsOnline {
				status = "Online"
			}
			rows = append(rows, table.Row{d.ID, d.Name, status, formatSeen(d.LastSeen), d.LastLocationCity})
		}
		m.Table.SetRows(rows)
	}

	m.Table, cmd = m.Table.Update(msg)
	return m, cmd
}

func (m DashboardModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Login Monitor - Devices") + "\n\n")
	b.WriteString(m.Table.View())
	b.WriteString("\n\n")
	b.WriteString(blurredStyle.Render("enter: send command, h: history, r: refresh, q: quit"))

	if m.Err != nil {
		b.WriteString("\n" + errorMessageStyle(m.Err.Error()))
	}
	return b.String()
}

func formatSeen(t *time.Time) string {
	if t == nil {
		return "never"
	}
	d := time.Since(*t).Round(time.Second)
	if d < time.Minute {
		return "just now"
	}
	return fmt.Sprintf("%s ago", d.Truncate(time.Minute))
}
