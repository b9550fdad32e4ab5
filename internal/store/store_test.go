package store_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"login-monitor/internal/logger"
	"login-monitor/internal/store"
)

func init() { _ = logger.Init("") }

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open("sqlite", filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	require.NoError(t, s.AutoMigrate())
	require.NoError(t, s.UpsertDevice(&store.Device{ID: "dev-1", Name: "test laptop"}))
	return s
}

func TestEnqueueAndPoll(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.EnqueueCommand(ctx, "dev-1", "status", nil)
	require.NoError(t, err)
	second, err := s.EnqueueCommand(ctx, "dev-1", "photo", map[string]any{"count": 3})
	require.NoError(t, err)
	// commands for another device must not leak into this one's queue
	_, err = s.EnqueueCommand(ctx, "dev-2", "status", nil)
	require.NoError(t, err)

	pending, err := s.PendingCommands(ctx, "dev-1")
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, first.ID, pending[0].ID)
	assert.Equal(t, second.ID, pending[1].ID)
	assert.Equal(t, store.StatusPending, pending[0].Status)
}

func TestCompleteCommand(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec, err := s.EnqueueCommand(ctx, "dev-1", "battery", nil)
	require.NoError(t, err)

	require.NoError(t, s.CompleteCommand(ctx, rec.ID, `{"success":true,"percent":80}`))

	pending, err := s.PendingCommands(ctx, "dev-1")
	require.NoError(t, err)
	assert.Empty(t, pending)

	got, err := s.GetCommand(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.JSONEq(t, `{"success":true,"percent":80}`, got.Result)
}

func TestCompleteCommandIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec, err := s.EnqueueCommand(ctx, "dev-1", "battery", nil)
	require.NoError(t, err)

	// duplicate delivery redundantly overwrites the same final result
	require.NoError(t, s.CompleteCommand(ctx, rec.ID, `{"success":true}`))
	require.NoError(t, s.CompleteCommand(ctx, rec.ID, `{"success":true}`))

	got, err := s.GetCommand(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusCompleted, got.Status)
	assert.JSONEq(t, `{"success":true}`, got.Result)
}

func TestReconciliationSweepIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"status", "battery", "wifiinfo"} {
		_, err := s.EnqueueCommand(ctx, "dev-1", name, nil)
		require.NoError(t, err)
	}

	// first sweep drains the backlog
	pending, err := s.PendingCommands(ctx, "dev-1")
	require.NoError(t, err)
	require.Len(t, pending, 3)
	for _, rec := range pending {
		require.NoError(t, s.CompleteCommand(ctx, rec.ID, `{"success":true}`))
	}

	// second sweep with no new commands finds nothing to complete
	pending, err = s.PendingCommands(ctx, "dev-1")
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestEnqueueStringArgsKeptVerbatim(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec, err := s.EnqueueCommand(ctx, "dev-1", "photo", `{"count": 2}`)
	require.NoError(t, err)

	got, err := s.GetCommand(ctx, rec.ID)
	require.NoError(t, err)

	// a string argument stays a JSON-encoded string on the wire
	var embedded string
	require.NoError(t, json.Unmarshal(got.Args, &embedded))
	assert.JSONEq(t, `{"count": 2}`, embedded)
}

func TestUpdateDeviceLiveness(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpdateDeviceLiveness(ctx, "dev-1"))

	dev, err := s.GetDevice(ctx, "dev-1")
	require.NoError(t, err)
	assert.True(t, dev.IsOnline)
	require.NotNil(t, dev.LastSeen)
}

func TestUpdateDeviceLocation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpdateDeviceLocation(ctx, "dev-1", 48.85, 2.35, "Paris"))

	dev, err := s.GetDevice(ctx, "dev-1")
	require.NoError(t, err)
	assert.Equal(t, 48.85, dev.LastLocationLat)
	assert.Equal(t, 2.35, dev.LastLocationLon)
	assert.Equal(t, "Paris", dev.LastLocationCity)
}

func TestRecentCommandsNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a, err := s.EnqueueCommand(ctx, "dev-1", "status", nil)
	require.NoError(t, err)
	b, err := s.EnqueueCommand(ctx, "dev-1", "battery", nil)
	require.NoError(t, err)

	recent, err := s.RecentCommands(ctx, "dev-1", 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, b.ID, recent[0].ID)
	assert.Equal(t, a.ID, recent[1].ID)
}

func TestSaveAndRecentEvents(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := store.EventRecord{DeviceID: "dev-1", EventType: "Login", Username: "alice", Hostname: "laptop"}
	require.NoError(t, s.SaveEvent(ctx, &first))
	assert.NotEmpty(t, first.ID)
	assert.False(t, first.CreatedAt.IsZero())

	second := store.EventRecord{DeviceID: "dev-1", EventType: "Logout"}
	require.NoError(t, s.SaveEvent(ctx, &second))
	// events for another device stay out of this one's history
	require.NoError(t, s.SaveEvent(ctx, &store.EventRecord{DeviceID: "dev-2", EventType: "Login"}))

	events, err := s.RecentEvents(ctx, "dev-1", 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "alice", events[len(events)-1].Username)
	assert.False(t, events[0].IsRead)
}

func TestUpdateEventCapture(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ev := store.EventRecord{DeviceID: "dev-1", EventType: "Intruder"}
	require.NoError(t, s.SaveEvent(ctx, &ev))

	require.NoError(t, s.UpdateEventCapture(ctx, ev.ID, store.EventCapture{
		PhotoURL:      "https://store.example/photos/p.jpg",
		ScreenshotURL: "https://store.example/screenshots/s.png",
		Lat:           48.85,
		Lon:           2.35,
		City:          "Paris",
		HasLocation:   true,
	}))

	events, err := s.RecentEvents(ctx, "dev-1", 1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "https://store.example/photos/p.jpg", events[0].PhotoURL)
	assert.Equal(t, "https://store.example/screenshots/s.png", events[0].ScreenshotURL)
	assert.Equal(t, "Paris", events[0].LocationCity)
}

func TestUpdateEventCaptureEmptyIsNoop(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ev := store.EventRecord{DeviceID: "dev-1", EventType: "Login", PhotoURL: "https://store.example/photos/keep.jpg"}
	require.NoError(t, s.SaveEvent(ctx, &ev))

	require.NoError(t, s.UpdateEventCapture(ctx, ev.ID, store.EventCapture{}))

	events, err := s.RecentEvents(ctx, "dev-1", 1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "https://store.example/photos/keep.jpg", events[0].PhotoURL)
}
