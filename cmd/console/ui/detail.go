package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"login-monitor/internal/store"
)

type DetailModel struct {
	Store    *store.Store
	DeviceID string
	Table    table.Model
	Records  []store.CommandRecord
	Err      error
}

func NewDetailModel(st *store.Store, deviceID string, width, height int) DetailModel {
	columns := []table.Column{
		{Title: "Command", Width: 14},
		{Title: "Status", Width: 10},
		{Title: "Created", Width: 20},
		{Title: "Result", Width: 60},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(height-10),
	)
	sT := table.DefaultStyles()
	sT.Header = sT.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	sT.Selected = sT.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(sT)

	return DetailModel{
		Store:    st,
		DeviceID: deviceID,
		Table:    t,
	}
}

func (m DetailModel) Init() tea.Cmd {
	return loadCommands(m.Store, m.DeviceID)
}

func (m DetailModel) Update(msg tea.Msg) (DetailModel, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			return m, loadCommands(m.Store, m.DeviceID)
		case "esc", "q":
			return m, func() tea.Msg { return BackToDashboardMsg{} }
		}

	case commandsLoadedMsg:
		if msg.Err != nil {
			m.Err = msg.Err
			return m, nil
		}
		m.Err = nil
		m.Records = msg.Records
		rows := make([]table.Row, 0, len(msg.Records))
		for _, rec := range msg.Records {
			rows = append(rows, table.Row{
				rec.Command,
				rec.Status,
				rec.CreatedAt.Format("2006-01-02 15:04:05"),
				truncateResult(rec.Result, 60),
			})
		}
		m.Table.SetRows(rows)
	}

	m.Table, cmd = m.Table.Update(msg)
	return m, cmd
}

func (m DetailModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Command History - "+m.DeviceID) + "\n\n")
	b.WriteString(m.Table.View())
	b.WriteString("\n\n")

	if sel := m.Table.Cursor(); sel >= 0 && sel < len(m.Records) {
		full := m.Records[sel].Result
		if full != "" {
			b.WriteString(focusedStyle.Render("Result:") + "\n")
			b.WriteString(full + "\n\n")
		}
	}

	b.WriteString(blurredStyle.Render("r: refresh, esc: back to devices"))
	if m.Err != nil {
		b.WriteString("\n" + errorMessageStyle(m.Err.Error()))
	}
	return b.String()
}

func truncateResult(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
