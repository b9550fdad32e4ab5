package command

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"login-monitor/internal/logger"
	"login-monitor/internal/probe"
	"login-monitor/internal/store"
)

func init() { _ = logger.Init("") }

type stubProbes struct {
	mu          sync.Mutex
	photoCalls  int
	statusPanic bool
	battery     probe.Battery
	locateErr   error
	networks    []string
	procs       []probe.Process
}

func (s *stubProbes) Status() (probe.HostStatus, error) {
	if s.statusPanic {
		panic("probe exploded")
	}
	return probe.HostStatus{Hostname: "test-host", Username: "tester", Uptime: "0d 1h 2m"}, nil
}
func (s *stubProbes) Hardware() (probe.Hardware, error) {
	return probe.Hardware{OSName: "TestOS", OSArch: "amd64", CPU: "stub-cpu", CPUCores: 4}, nil
}
func (s *stubProbes) Locate(ctx context.Context) (probe.Location, error) {
	if s.locateErr != nil {
		return probe.Location{}, s.locateErr
	}
	return probe.Location{Latitude: 1.5, Longitude: 2.5, City: "Testville"}, nil
}
func (s *stubProbes) Battery() (probe.Battery, error)     { return s.battery, nil }
func (s *stubProbes) WifiInfo() (probe.WifiInfo, error)   { return probe.WifiInfo{SSID: "testnet"}, nil }
func (s *stubProbes) ListNetworks() ([]string, error)     { return s.networks, nil }
func (s *stubProbes) Processes() ([]probe.Process, error) { return s.procs, nil }
func (s *stubProbes) CaptureScreen() (string, error)      { return "/tmp/shot.png", nil }
func (s *stubProbes) CapturePhoto(frame int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.photoCalls++
	return fmt.Sprintf("/tmp/photo_%d.jpg", frame+1), nil
}
func (s *stubProbes) RecordAudio(ctx context.Context, seconds int) (string, error) {
	return "/tmp/audio.wav", nil
}
func (s *stubProbes) Beep(freqHz, durationMs int) {}
func (s *stubProbes) LockScreen() error           { return nil }
func (s *stubProbes) Shutdown(delaySec int) error { return nil }
func (s *stubProbes) Restart(delaySec int) error  { return nil }

func (s *stubProbes) photoCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.photoCalls
}

type fakeReporter struct {
	mu          sync.Mutex
	completions []completion
	failWith    error
}

type completion struct {
	id     string
	result string
}

func (f *fakeReporter) CompleteCommand(ctx context.Context, id, resultJSON string) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completions = append(f.completions, completion{id: id, result: resultJSON})
	return nil
}

func (f *fakeReporter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.completions)
}

func (f *fakeReporter) last(t *testing.T) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.completions)
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(f.completions[len(f.completions)-1].result), &out))
	return out
}

type fakeLocations struct {
	mu      sync.Mutex
	updates int
}

func (f *fakeLocations) UpdateDeviceLocation(ctx context.Context, deviceID string, lat, lon float64, city string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	return nil
}

func (f *fakeLocations) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.updates
}

func setup(t *testing.T) (*Dispatcher, *stubProbes, *fakeReporter, *Handlers) {
	t.Helper()
	probes := &stubProbes{}
	reporter := &fakeReporter{}
	handlers := NewHandlers(probes, nil, &fakeLocations{}, NewTracker(), "dev-1")
	d := NewDispatcher(NewRegistry(handlers), reporter)
	return d, probes, reporter, handlers
}

func record(name string, args string) store.CommandRecord {
	rec := store.CommandRecord{ID: "cmd-1", DeviceID: "dev-1", Command: name, Status: store.StatusPending}
	if args != "" {
		rec.Args = json.RawMessage(args)
	}
	return rec
}

func TestDispatchUnknownCommand(t *testing.T) {
	d, _, reporter, _ := setup(t)

	d.Dispatch(context.Background(), record("selfdestruct", ""))

	require.Equal(t, 1, reporter.count())
	res := reporter.last(t)
	assert.Equal(t, false, res["success"])
	assert.Equal(t, "Unknown command: selfdestruct", res["error"])
}

func TestDispatchLowercasesName(t *testing.T) {
	d, _, reporter, _ := setup(t)

	d.Dispatch(context.Background(), record("BATTERY", ""))

	require.Equal(t, 1, reporter.count())
	assert.Equal(t, true, reporter.last(t)["success"])
}

func TestDispatchStringArgsParsed(t *testing.T) {
	d, probes, reporter, _ := setup(t)

	// args arrive as a JSON-encoded string, count above the cap
	d.Dispatch(context.Background(), record("photo", `"{\"count\": 10}"`))

	require.Equal(t, 1, reporter.count())
	assert.Equal(t, true, reporter.last(t)["success"])
	assert.Equal(t, 5, probes.photoCount())
}

func TestPhotoZeroCountCapturesNothing(t *testing.T) {
	d, probes, reporter, _ := setup(t)

	d.Dispatch(context.Background(), record("photo", `{"count": 0}`))

	require.Equal(t, 1, reporter.count())
	res := reporter.last(t)
	assert.Equal(t, true, res["success"])
	assert.Equal(t, "Captured 0 photo(s)", res["message"])
	assert.Equal(t, 0, probes.photoCount())
}

func TestRegistryNames(t *testing.T) {
	_, _, _, h := setup(t)

	names := NewRegistry(h).Names()
	assert.Len(t, names, 18)
	assert.True(t, sort.StringsAreSorted(names))
	assert.Contains(t, names, "appusage")
	assert.Contains(t, names, "findme")
}

func TestDispatchMalformedArgsStillExecutes(t *testing.T) {
	d, probes, reporter, _ := setup(t)

	d.Dispatch(context.Background(), record("photo", `"{not json"`))

	require.Equal(t, 1, reporter.count())
	res := reporter.last(t)
	assert.Equal(t, true, res["success"], "malformed args must not fail the command")
	assert.Equal(t, 1, probes.photoCount(), "defaults apply when args degrade to empty")
}

func TestDispatchRecoversHandlerPanic(t *testing.T) {
	d, probes, reporter, _ := setup(t)
	probes.statusPanic = true

	d.Dispatch(context.Background(), record("status", ""))

	require.Equal(t, 1, reporter.count())
	res := reporter.last(t)
	assert.Equal(t, false, res["success"])
	assert.Equal(t, "probe exploded", res["error"])
}

func TestDispatchExactlyOneCompletion(t *testing.T) {
	d, _, reporter, _ := setup(t)

	d.Dispatch(context.Background(), record("wifiinfo", ""))
	d.Dispatch(context.Background(), record("wifiinfo", ""))

	assert.Equal(t, 2, reporter.count(), "one completion per delivered record")
}

func TestDispatchSurvivesReporterFailure(t *testing.T) {
	d, _, reporter, _ := setup(t)
	reporter.failWith = errors.New("store down")

	assert.NotPanics(t, func() {
		d.Dispatch(context.Background(), record("battery", ""))
	})
}

func TestBatteryDesktopWithoutSensor(t *testing.T) {
	_, _, _, h := setup(t)

	res := h.Battery(context.Background(), nil)

	assert.Equal(t, true, res["success"])
	assert.Equal(t, 100, res["percent"])
	assert.Equal(t, true, res["plugged"])
	assert.Equal(t, "Desktop (No Battery)", res["status"])
}

func TestBatteryCharging(t *testing.T) {
	_, probes, _, h := setup(t)
	probes.battery = probe.Battery{Present: true, Percent: 73, Plugged: true, MinsLeft: -1}

	res := h.Battery(context.Background(), nil)

	assert.Equal(t, 73, res["percent"])
	assert.Equal(t, "Charging", res["status"])
	assert.Equal(t, "N/A", res["time_left"])
}

func TestLocationFailure(t *testing.T) {
	d, probes, reporter, _ := setup(t)
	probes.locateErr = errors.New("could not determine location")

	d.Dispatch(context.Background(), record("location", ""))

	res := reporter.last(t)
	assert.Equal(t, false, res["success"])
	assert.Equal(t, "could not determine location", res["error"])
}

func TestProcessesCappedAtTwenty(t *testing.T) {
	_, probes, _, h := setup(t)
	for i := 0; i < 30; i++ {
		probes.procs = append(probes.procs, probe.Process{Name: fmt.Sprintf("proc%d", i), PID: i})
	}

	res := h.Processes(context.Background(), nil)

	assert.Equal(t, 30, res["total"])
	assert.Len(t, res["apps"], 20)
}

func TestSysInfoIncludesHardware(t *testing.T) {
	_, _, _, h := setup(t)

	res := h.SysInfo(context.Background(), nil)

	assert.Equal(t, true, res["success"])
	assert.Equal(t, "test-host", res["hostname"])
	assert.Equal(t, "TestOS", res["os_name"])
	assert.Equal(t, 4, res["cpu_cores"])
}
