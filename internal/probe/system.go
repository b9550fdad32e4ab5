package probe

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

// System implements Capabilities against the local host.
type System struct {
	CaptureDir  string
	AudioDir    string
	GeoEndpoint string

	geoClient *http.Client
}

func NewSystem(captureDir, audioDir, geoEndpoint string) *System {
	_ = os.MkdirAll(captureDir, 0o755)
	_ = os.MkdirAll(audioDir, 0o755)
	return &System{
		CaptureDir:  captureDir,
		AudioDir:    audioDir,
		GeoEndpoint: geoEndpoint,
		// fixed timeout on the geolocation call
		geoClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *System) Status() (HostStatus, error) {
	var si unix.Sysinfo_t
	if err := unix.Sysinfo(&si); err != nil {
		return HostStatus{}, fmt.Errorf("sysinfo: %w", err)
	}
	hostname, _ := os.Hostname()
	username := os.Getenv("USER")
	if username == "" {
		username = "Unknown"
	}

	up := time.Duration(si.Uptime) * time.Second
	uptime := fmt.Sprintf("%dd %dh %dm",
		int(up.Hours())/24, int(up.Hours())%24, int(up.Minutes())%60)

	unit := uint64(si.Unit)
	if unit == 0 {
		unit = 1
	}
	memTotal := uint64(si.Totalram) * unit
	memFree := (uint64(si.Freeram) + uint64(si.Bufferram)) * unit
	memUsed := memTotal - memFree

	var fs unix.Statfs_t
	if err := unix.Statfs("/", &fs); err != nil {
		return HostStatus{}, fmt.Errorf("statfs: %w", err)
	}
	diskTotal := fs.Blocks * uint64(fs.Bsize)
	diskFree := fs.Bavail * uint64(fs.Bsize)
	diskUsed := diskTotal - diskFree

	return HostStatus{
		Hostname:      hostname,
		Username:      username,
		OS:            strings.ToUpper(runtime.GOOS[:1]) + runtime.GOOS[1:],
		OSVersion:     osRelease("PRETTY_NAME"),
		Uptime:        uptime,
		MemoryTotal:   fmt.Sprintf("%d GB", memTotal/(1<<30)),
		MemoryUsed:    fmt.Sprintf("%d GB", memUsed/(1<<30)),
		MemoryPercent: fmt.Sprintf("%.1f%%", pct(memUsed, memTotal)),
		DiskTotal:     fmt.Sprintf("%d GB", diskTotal/(1<<30)),
		DiskUsed:      fmt.Sprintf("%d GB", diskUsed/(1<<30)),
		DiskPercent:   fmt.Sprintf("%.1f%%", pct(diskUsed, diskTotal)),
		CPUPercent:    fmt.Sprintf("%.1f%%", cpuPercent()),
	}, nil
}

func (s *System) Hardware() (Hardware, error) {
	return Hardware{
		OSName:   osRelease("NAME"),
		OSArch:   runtime.GOARCH,
		CPU:      cpuModel(),
		CPUCores: runtime.NumCPU(),
	}, nil
}

// Locate resolves the device position via the IP geolocation service.
func (s *System) Locate(ctx context.Context) (Location, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.GeoEndpoint, nil)
	if err != nil {
		return Location{}, err
	}
	resp, err := s.geoClient.Do(req)
	if err != nil {
		return Location{}, fmt.Errorf("geolocation request: %w", err)
	}
	defer resp.Body.Close()

	var body struct {
		Status     string  `json:"status"`
		Lat        float64 `json:"lat"`
		Lon        float64 `json:"lon"`
		City       string  `json:"city"`
		RegionName string  `json:"regionName"`
		Country    string  `json:"country"`
		ISP        string  `json:"isp"`
		Query      string  `json:"query"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Location{}, fmt.Errorf("decode geolocation response: %w", err)
	}
	if body.Status != "success" {
		return Location{}, fmt.Errorf("could not determine location")
	}
	return Location{
		Latitude:  body.Lat,
		Longitude: body.Lon,
		City:      body.City,
		Region:    body.RegionName,
		Country:   body.Country,
		ISP:       body.ISP,
		IP:        body.Query,
	}, nil
}

func (s *System) Battery() (Battery, error) {
	entries, err := os.ReadDir("/sys/class/power_supply")
	if err != nil {
		return Battery{}, nil // no sysfs, treat as no battery
	}
	for _, e := range entries {
		base := filepath.Join("/sys/class/power_supply", e.Name())
		if sysfsRead(filepath.Join(base, "type")) != "Battery" {
			continue
		}
		percent, _ := strconv.Atoi(sysfsRead(filepath.Join(base, "capacity")))
		status := sysfsRead(filepath.Join(base, "status"))
		return Battery{
			Present:  true,
			Percent:  percent,
			Plugged:  status != "Discharging",
			MinsLeft: -1,
		}, nil
	}
	return Battery{}, nil
}

func (s *System) WifiInfo() (WifiInfo, error) {
	out, err := exec.Command("nmcli", "-t", "-f",
		"ACTIVE,SSID,BSSID,SIGNAL,CHAN,SECURITY", "dev", "wifi", "list").Output()
	if err != nil {
		return WifiInfo{}, fmt.Errorf("nmcli: %w", err)
	}
	for _, line := range strings.Split(string(out), "\n") {
		fields := splitNmcli(line)
		if len(fields) < 6 || fields[0] != "yes" {
			continue
		}
		return WifiInfo{
			SSID:           fields[1],
			BSSID:          fields[2],
			Signal:         fields[3] + "%",
			RadioType:      "802.11",
			Authentication: fields[5],
			Channel:        fields[4],
		}, nil
	}
	return WifiInfo{SSID: "Not connected", BSSID: "N/A", Signal: "N/A",
		RadioType: "N/A", Authentication: "N/A", Channel: "N/A"}, nil
}

func (s *System) ListNetworks() ([]string, error) {
	out, err := exec.Command("nmcli", "-t", "-f", "NAME,TYPE", "connection", "show").Output()
	if err != nil {
		return nil, fmt.Errorf("nmcli: %w", err)
	}
	var networks []string
	for _, line := range strings.Split(string(out), "\n") {
		fields := splitNmcli(line)
		if len(fields) == 2 && strings.Contains(fields[1], "wireless") {
			networks = append(networks, fields[0])
		}
	}
	return networks, nil
}

func (s *System) Processes() ([]Process, error) {
	out, err := exec.Command("ps", "axo", "pid,comm,pmem,pcpu", "--sort=-pmem").Output()
	if err != nil {
		return nil, fmt.Errorf("ps: %w", err)
	}
	var procs []Process
	sc := bufio.NewScanner(strings.NewReader(string(out)))
	sc.Scan() // header
	for sc.Scan() {
		f := strings.Fields(sc.Text())
		if len(f) < 4 {
			continue
		}
		mem, _ := strconv.ParseFloat(f[2], 64)
		if mem <= 0.1 {
			continue
		}
		pid, _ := strconv.Atoi(f[0])
		procs = append(procs, Process{
			Name:   f[1],
			PID:    pid,
			Memory: f[2] + "%",
			CPU:    f[3] + "%",
		})
	}
	return procs, nil
}

func (s *System) CaptureScreen() (string, error) {
	path := filepath.Join(s.CaptureDir,
		fmt.Sprintf("screenshot_%s.png", time.Now().Format("20060102_150405")))
	if err := exec.Command("import", "-window", "root", path).Run(); err != nil {
		return "", fmt.Errorf("screen capture: %w", err)
	}
	return path, nil
}

func (s *System) CapturePhoto(frame int) (string, error) {
	path := filepath.Join(s.CaptureDir,
		fmt.Sprintf("photo_%s_%d.jpg", time.Now().Format("20060102_150405"), frame+1))
	args := []string{"-q", "--no-banner"}
	if frame == 0 {
		args = append(args, "-D", "1") // camera warm-up before first frame
	}
	args = append(args, path)
	if err := exec.Command("fswebcam", args...).Run(); err != nil {
		return "", fmt.Errorf("webcam capture: %w", err)
	}
	return path, nil
}

func (s *System) RecordAudio(ctx context.Context, seconds int) (string, error) {
	path := filepath.Join(s.AudioDir,
		fmt.Sprintf("audio_%s.wav", time.Now().Format("20060102_150405")))
	cmd := exec.CommandContext(ctx, "arecord", "-q", "-f", "cd",
		"-d", strconv.Itoa(seconds), path)
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("audio record: %w", err)
	}
	return path, nil
}

func (s *System) Beep(freqHz, durationMs int) {
	_ = exec.Command("beep", "-f", strconv.Itoa(freqHz), "-l", strconv.Itoa(durationMs)).Run()
}

func (s *System) LockScreen() error {
	if err := exec.Command("loginctl", "lock-session").Run(); err != nil {
		return fmt.Errorf("lock session: %w", err)
	}
	return nil
}

func (s *System) Shutdown(delaySec int) error {
	return delayed(delaySec, "poweroff")
}

func (s *System) Restart(delaySec int) error {
	return delayed(delaySec, "reboot")
}

func delayed(delaySec int, verb string) error {
	cmd := exec.Command("sh", "-c",
		fmt.Sprintf("sleep %d && systemctl %s", delaySec, verb))
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("schedule %s: %w", verb, err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

func pct(used, total uint64) float64 {
	if total == 0 {
		return 0
	}
	return float64(used) / float64(total) * 100
}

// cpuPercent samples /proc/stat twice 200ms apart.
func cpuPercent() float64 {
	idle0, total0, err := cpuSample()
	if err != nil {
		return 0
	}
	time.Sleep(200 * time.Millisecond)
	idle1, total1, err := cpuSample()
	if err != nil || total1 == total0 {
		return 0
	}
	return (1 - float64(idle1-idle0)/float64(total1-total0)) * 100
}

func cpuSample() (idle, total uint64, err error) {
	data, err := os.ReadFile("/proc/stat")
	if err != nil {
		return 0, 0, err
	}
	fields := strings.Fields(strings.SplitN(string(data), "\n", 2)[0])
	for i, f := range fields[1:] {
		v, _ := strconv.ParseUint(f, 10, 64)
		total += v
		if i == 3 { // idle column
			idle = v
		}
	}
	return idle, total, nil
}

func cpuModel() string {
	data, err := os.ReadFile("/proc/cpuinfo")
	if err != nil {
		return "unknown"
	}
	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(line, "model name") {
			if _, v, ok := strings.Cut(line, ":"); ok {
				return strings.TrimSpace(v)
			}
		}
	}
	return "unknown"
}

func osRelease(key string) string {
	data, err := os.ReadFile("/etc/os-release")
	if err != nil {
		return runtime.GOOS
	}
	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(line, key+"=") {
			return strings.Trim(strings.TrimPrefix(line, key+"="), `"`)
		}
	}
	return runtime.GOOS
}

func sysfsRead(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// nmcli escapes ':' inside field values with a backslash.
func splitNmcli(line string) []string {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	var fields []string
	var cur strings.Builder
	escaped := false
	for _, r := range line {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == ':':
			fields = append(fields, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	fields = append(fields, cur.String())
	return fields
}
