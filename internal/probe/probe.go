package probe

import "context"

// HostStatus is the host summary reported by the status command.
type HostStatus struct {
	Hostname      string
	Username      string
	OS            string
	OSVersion     string
	Uptime        string
	MemoryTotal   string
	MemoryUsed    string
	MemoryPercent string
	DiskTotal     string
	DiskUsed      string
	DiskPercent   string
	CPUPercent    string
}

// Hardware carries the extra inventory fields sysinfo adds on top of
// status.
type Hardware struct {
	OSName   string
	OSArch   string
	CPU      string
	CPUCores int
}

type Location struct {
	Latitude  float64
	Longitude float64
	City      string
	Region    string
	Country   string
	ISP       string
	IP        string
}

type Battery struct {
	Present  bool
	Percent  int
	Plugged  bool
	MinsLeft int // -1 when unknown
}

type WifiInfo struct {
	SSID           string
	BSSID          string
	Signal         string
	RadioType      string
	Authentication string
	Channel        string
}

type Process struct {
	Name   string
	PID    int
	Memory string
	CPU    string
}

// Capabilities abstracts the OS-level actions command handlers invoke.
// Everything here is a thin I/O wrapper; handlers depend only on this
// interface so tests can stub the host.
type Capabilities interface {
	Status() (HostStatus, error)
	Hardware() (Hardware, error)
	Locate(ctx context.Context) (Location, error)
	Battery() (Battery, error)
	WifiInfo() (WifiInfo, error)
	ListNetworks() ([]string, error)
	Processes() ([]Process, error)
	CaptureScreen() (string, error)
	CapturePhoto(frame int) (string, error)
	RecordAudio(ctx context.Context, seconds int) (string, error)
	Beep(freqHz, durationMs int)
	LockScreen() error
	Shutdown(delaySec int) error
	Restart(delaySec int) error
}
