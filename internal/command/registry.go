package command

import (
	"context"
	"sort"
	"strings"

	"login-monitor/internal/probe"
)

type HandlerFunc func(ctx context.Context, args map[string]any) Result

// Uploader pushes a captured file to object storage.
type Uploader interface {
	Upload(ctx context.Context, bucket, localPath string) (string, error)
}

// LocationWriter is the slice of the result reporter findme needs.
type LocationWriter interface {
	UpdateDeviceLocation(ctx context.Context, deviceID string, lat, lon float64, city string) error
}

// Handlers binds every command to its collaborators.
type Handlers struct {
	probes    probe.Capabilities
	uploads   Uploader
	locations LocationWriter
	tracker   *Tracker
	deviceID  string
}

func NewHandlers(probes probe.Capabilities, uploads Uploader, locations LocationWriter, tracker *Tracker, deviceID string) *Handlers {
	return &Handlers{
		probes:    probes,
		uploads:   uploads,
		locations: locations,
		tracker:   tracker,
		deviceID:  deviceID,
	}
}

func (h *Handlers) Tracker() *Tracker { return h.tracker }

// Registry is the static, case-insensitive command table.
type Registry struct {
	table map[string]HandlerFunc
}

func NewRegistry(h *Handlers) *Registry {
	return &Registry{table: map[string]HandlerFunc{
		"status":       h.Status,
		"screenshot":   h.Screenshot,
		"photo":        h.Photo,
		"location":     h.Location,
		"battery":      h.Battery,
		"wifiinfo":     h.WifiInfo,
		"sysinfo":      h.SysInfo,
		"audio":        h.Audio,
		"alarm":        h.Alarm,
		"findme":       h.FindMe,
		"stopfind":     h.StopFind,
		"stop":         h.Stop,
		"listnetworks": h.ListNetworks,
		"appusage":     h.Processes,
		"processes":    h.Processes,
		"lockscreen":   h.LockScreen,
		"shutdown":     h.Shutdown,
		"restart":      h.Restart,
	}}
}

// Resolve looks a handler up by lower-cased name.
func (r *Registry) Resolve(name string) (HandlerFunc, bool) {
	f, ok := r.table[strings.ToLower(name)]
	return f, ok
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.table))
	for name := range r.table {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
