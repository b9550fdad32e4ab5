package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStopAfterAlarm(t *testing.T) {
	_, _, _, h := setup(t)

	res := h.Alarm(context.Background(), map[string]any{"duration": float64(30)})
	require.Equal(t, true, res["success"])
	require.True(t, h.Tracker().Active("alarm"))

	stopRes := h.Stop(context.Background(), nil)
	assert.Equal(t, []string{"alarm"}, stopRes["stopped"])
	assert.Equal(t, "Stopped: alarm", stopRes["message"])

	// loop observes cancellation within one polling interval
	assert.Eventually(t, func() bool {
		return !h.Tracker().Active("alarm")
	}, 2*pollInterval, 10*time.Millisecond)
}

func TestStopWithNothingActive(t *testing.T) {
	_, _, _, h := setup(t)

	res := h.Stop(context.Background(), nil)

	assert.Equal(t, true, res["success"])
	assert.Empty(t, res["stopped"])
	assert.Equal(t, "No active commands to stop", res["message"])
}

func TestStopFindCancelsOnlyFindme(t *testing.T) {
	_, _, _, h := setup(t)

	h.Alarm(context.Background(), map[string]any{"duration": float64(30)})
	h.FindMe(context.Background(), map[string]any{"duration": float64(60)})
	require.True(t, h.Tracker().Active("alarm"))
	require.True(t, h.Tracker().Active("findme"))

	res := h.StopFind(context.Background(), nil)
	assert.Equal(t, "Find Me stopped", res["message"])

	assert.Eventually(t, func() bool {
		return !h.Tracker().Active("findme")
	}, 2*pollInterval, 10*time.Millisecond)
	assert.True(t, h.Tracker().Active("alarm"), "stopfind must not touch other slots")

	h.Stop(context.Background(), nil)
}

func TestStopReportsAllActiveKindsSorted(t *testing.T) {
	_, _, _, h := setup(t)

	h.FindMe(context.Background(), map[string]any{"duration": float64(60)})
	h.Alarm(context.Background(), map[string]any{"duration": float64(30)})

	res := h.Stop(context.Background(), nil)
	assert.Equal(t, []string{"alarm", "findme"}, res["stopped"])
	assert.Equal(t, "Stopped: alarm, findme", res["message"])
}

func TestFindMeReportsLocation(t *testing.T) {
	probes := &stubProbes{}
	locations := &fakeLocations{}
	h := NewHandlers(probes, nil, locations, NewTracker(), "dev-1")

	res := h.FindMe(context.Background(), map[string]any{"duration": float64(1)})
	require.Equal(t, true, res["success"])
	assert.Equal(t, "Find Me active for 1 seconds", res["message"])

	loc, ok := res["location"].(Result)
	require.True(t, ok)
	assert.Equal(t, true, loc["success"])
	assert.Equal(t, "Testville", loc["city"])

	// the loop reports its position at least once
	assert.Eventually(t, func() bool {
		return locations.count() >= 1
	}, time.Second, 10*time.Millisecond)
	h.Tracker().CancelAll()
}

func TestAlarmDurationClamped(t *testing.T) {
	_, _, _, h := setup(t)

	res := h.Alarm(context.Background(), map[string]any{"duration": float64(600)})
	assert.Equal(t, "Playing alarm for 60 seconds", res["message"])
	h.Tracker().CancelAll()
}

func TestTrackerSupersedesPriorInstance(t *testing.T) {
	tr := NewTracker()

	first := tr.Begin("alarm")
	second := tr.Begin("alarm")

	assert.True(t, first.Stopped(), "old instance must observe cancellation")
	assert.False(t, second.Stopped())
	assert.True(t, tr.Active("alarm"))

	// a stale instance exiting must not clear its successor's slot
	tr.End(first)
	assert.True(t, tr.Active("alarm"))

	tr.End(second)
	assert.False(t, tr.Active("alarm"))
}

func TestRestartWhilePriorCancelling(t *testing.T) {
	_, _, _, h := setup(t)

	// restart the same kind rapidly: no crash, and eventually exactly
	// one instance owns the slot
	for i := 0; i < 5; i++ {
		h.Alarm(context.Background(), map[string]any{"duration": float64(30)})
	}
	assert.True(t, h.Tracker().Active("alarm"))

	stopRes := h.Stop(context.Background(), nil)
	assert.Equal(t, []string{"alarm"}, stopRes["stopped"])
	assert.Eventually(t, func() bool {
		return !h.Tracker().Active("alarm")
	}, 2*pollInterval, 10*time.Millisecond)
}

func TestCancelReportsFalseWhenIdle(t *testing.T) {
	tr := NewTracker()
	assert.False(t, tr.Cancel("findme"))
	assert.Empty(t, tr.CancelAll())
}

func TestTaskWaitReturnsOnStop(t *testing.T) {
	tr := NewTracker()
	task := tr.Begin("alarm")

	done := make(chan bool, 1)
	go func() { done <- task.Wait(5 * time.Second) }()

	time.Sleep(20 * time.Millisecond)
	tr.Cancel("alarm")

	select {
	case stopped := <-done:
		assert.True(t, stopped)
	case <-time.After(time.Second):
		t.Fatal("Wait did not observe cancellation")
	}
}
