package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"login-monitor/internal/store"
)

const queryTimeout = 5 * time.Second

type devicesLoadedMsg struct {
	Devices []store.Device
	Err     error
}

type commandsLoadedMsg struct {
	DeviceID string
	Records  []store.CommandRecord
	Err      error
}

type commandQueuedMsg struct {
	Record store.CommandRecord
	Err    error
}

func loadDevices(st *store.Store) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
		defer cancel()
		devs, err := st.Devices(ctx)
		return devicesLoadedMsg{Devices: devs, Err: err}
	}
}

func loadCommands(st *store.Store, deviceID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
		defer cancel()
		recs, err := st.RecentCommands(ctx, deviceID, 50)
		return commandsLoadedMsg{DeviceID: deviceID, Records: recs, Err: err}
	}
}

func queueCommand(st *store.Store, deviceID, name string, args map[string]any) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
		defer cancel()
		rec, err := st.EnqueueCommand(ctx, deviceID, name, args)
		return commandQueuedMsg{Record: rec, Err: err}
	}
}
