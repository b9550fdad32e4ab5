package command

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"login-monitor/internal/logger"
)

// Duration/count caps per command.
const (
	maxPhotoCount    = 5
	maxAudioSeconds  = 120
	maxAlarmSeconds  = 60
	maxFindMeSeconds = 300
)

func (h *Handlers) Status(ctx context.Context, args map[string]any) Result {
	st, err := h.probes.Status()
	if err != nil {
		return Fail("%v", err)
	}
	return OK(map[string]any{
		"hostname":       st.Hostname,
		"username":       st.Username,
		"os":             st.OS,
		"os_version":     st.OSVersion,
		"uptime":         st.Uptime,
		"memory_total":   st.MemoryTotal,
		"memory_used":    st.MemoryUsed,
		"memory_percent": st.MemoryPercent,
		"disk_total":     st.DiskTotal,
		"disk_used":      st.DiskUsed,
		"disk_percent":   st.DiskPercent,
		"cpu_percent":    st.CPUPercent,
	})
}

func (h *Handlers) SysInfo(ctx context.Context, args map[string]any) Result {
	res := h.Status(ctx, args)
	if !res.Success() {
		return res
	}
	hw, err := h.probes.Hardware()
	if err != nil {
		return res
	}
	res["os_name"] = hw.OSName
	res["os_arch"] = hw.OSArch
	res["cpu"] = hw.CPU
	res["cpu_cores"] = hw.CPUCores
	return res
}

func (h *Handlers) Screenshot(ctx context.Context, args map[string]any) Result {
	path, err := h.probes.CaptureScreen()
	if err != nil {
		return Fail("%v", err)
	}
	return OK(map[string]any{
		"message":  "Screenshot captured",
		"filename": filepath.Base(path),
		"url":      h.upload(ctx, "screenshots", path),
	})
}

func (h *Handlers) Photo(ctx context.Context, args map[string]any) Result {
	// only capped from above: count<=0 captures nothing and still
	// succeeds
	count := intArg(args, "count", 1)
	if count > maxPhotoCount {
		count = maxPhotoCount
	}
	photos := make([]map[string]any, 0, max(count, 0))
	for i := 0; i < count; i++ {
		path, err := h.probes.CapturePhoto(i)
		if err != nil {
			if i == 0 {
				return Fail("%v", err)
			}
			break
		}
		photos = append(photos, map[string]any{
			"filename": filepath.Base(path),
			"url":      h.upload(ctx, "photos", path),
		})
	}
	return OK(map[string]any{
		"message": fmt.Sprintf("Captured %d photo(s)", len(photos)),
		"photos":  photos,
	})
}

func (h *Handlers) Location(ctx context.Context, args map[string]any) Result {
	loc, err := h.probes.Locate(ctx)
	if err != nil {
		return Fail("%v", err)
	}
	return OK(map[string]any{
		"latitude":  loc.Latitude,
		"longitude": loc.Longitude,
		"city":      loc.City,
		"region":    loc.Region,
		"country":   loc.Country,
		"isp":       loc.ISP,
		"ip":        loc.IP,
		"source":    "IP Geolocation",
	})
}

func (h *Handlers) Battery(ctx context.Context, args map[string]any) Result {
	b, err := h.probes.Battery()
	if err != nil {
		return Fail("%v", err)
	}
	if !b.Present {
		return OK(map[string]any{
			"percent": 100,
			"plugged": true,
			"status":  "Desktop (No Battery)",
		})
	}
	status := "Discharging"
	if b.Plugged {
		status = "Charging"
	}
	timeLeft := "N/A"
	if b.MinsLeft > 0 {
		timeLeft = fmt.Sprintf("%d minutes", b.MinsLeft)
	}
	return OK(map[string]any{
		"percent":   b.Percent,
		"plugged":   b.Plugged,
		"status":    status,
		"time_left": timeLeft,
	})
}

func (h *Handlers) WifiInfo(ctx context.Context, args map[string]any) Result {
	wi, err := h.probes.WifiInfo()
	if err != nil {
		return Fail("%v", err)
	}
	return OK(map[string]any{
		"ssid":           wi.SSID,
		"bssid":          wi.BSSID,
		"signal":         wi.Signal,
		"radio_type":     wi.RadioType,
		"authentication": wi.Authentication,
		"channel":        wi.Channel,
	})
}

func (h *Handlers) Audio(ctx context.Context, args map[string]any) Result {
	duration := clamp(intArg(args, "duration", 10), 1, maxAudioSeconds)
	logger.Infof("Recording audio for %d seconds...", duration)
	path, err := h.probes.RecordAudio(ctx, duration)
	if err != nil {
		return Fail("%v", err)
	}
	return OK(map[string]any{
		"message":  fmt.Sprintf("Recorded %d seconds of audio", duration),
		"filename": filepath.Base(path),
		"url":      h.upload(ctx, "audio", path),
	})
}

// Alarm starts the audible alarm loop in the background and returns
// immediately; the loop polls its slot for cancellation.
func (h *Handlers) Alarm(ctx context.Context, args map[string]any) Result {
	duration := clamp(intArg(args, "duration", 10), 1, maxAlarmSeconds)
	task := h.tracker.Begin("alarm")
	go func() {
		defer h.tracker.End(task)
		deadline := time.Now().Add(time.Duration(duration) * time.Second)
		for time.Now().Before(deadline) {
			if task.Stopped() {
				return
			}
			h.probes.Beep(1000, 500)
			if task.Wait(pollInterval) {
				return
			}
		}
	}()
	return OK(map[string]any{
		"message": fmt.Sprintf("Playing alarm for %d seconds", duration),
	})
}

// FindMe beeps and reports the device location every 10 seconds until
// the duration elapses or the slot is cancelled.
func (h *Handlers) FindMe(ctx context.Context, args map[string]any) Result {
	duration := clamp(intArg(args, "duration", 60), 1, maxFindMeSeconds)
	task := h.tracker.Begin("findme")
	go func() {
		defer h.tracker.End(task)
		deadline := time.Now().Add(time.Duration(duration) * time.Second)
		var lastReport time.Time
		for time.Now().Before(deadline) {
			if task.Stopped() {
				return
			}
			h.probes.Beep(2000, 200)
			if time.Since(lastReport) >= 10*time.Second {
				lastReport = time.Now()
				h.reportLocation()
			}
			if task.Wait(pollInterval) {
				return
			}
		}
	}()

	res := OK(map[string]any{
		"message": fmt.Sprintf("Find Me active for %d seconds", duration),
	})
	res["location"] = h.Location(ctx, nil)
	return res
}

func (h *Handlers) reportLocation() {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	loc, err := h.probes.Locate(ctx)
	if err != nil {
		logger.Errorf("Find Me location probe failed: %v", err)
		return
	}
	if err := h.locations.UpdateDeviceLocation(ctx, h.deviceID, loc.Latitude, loc.Longitude, loc.City); err != nil {
		logger.Errorf("Find Me location update failed: %v", err)
	}
}

func (h *Handlers) StopFind(ctx context.Context, args map[string]any) Result {
	h.tracker.Cancel("findme")
	return OK(map[string]any{"message": "Find Me stopped"})
}

func (h *Handlers) Stop(ctx context.Context, args map[string]any) Result {
	stopped := h.tracker.CancelAll()
	message := "No active commands to stop"
	if len(stopped) > 0 {
		message = "Stopped: " + strings.Join(stopped, ", ")
	}
	return OK(map[string]any{
		"stopped": stopped,
		"message": message,
	})
}

func (h *Handlers) ListNetworks(ctx context.Context, args map[string]any) Result {
	networks, err := h.probes.ListNetworks()
	if err != nil {
		return Fail("%v", err)
	}
	if networks == nil {
		networks = []string{}
	}
	return OK(map[string]any{
		"networks": networks,
		"count":    len(networks),
	})
}

func (h *Handlers) Processes(ctx context.Context, args map[string]any) Result {
	procs, err := h.probes.Processes()
	if err != nil {
		return Fail("%v", err)
	}
	total := len(procs)
	if len(procs) > 20 {
		procs = procs[:20]
	}
	apps := make([]map[string]any, 0, len(procs))
	for _, p := range procs {
		apps = append(apps, map[string]any{
			"name":   p.Name,
			"pid":    p.PID,
			"memory": p.Memory,
			"cpu":    p.CPU,
		})
	}
	return OK(map[string]any{
		"apps":  apps,
		"total": total,
	})
}

func (h *Handlers) LockScreen(ctx context.Context, args map[string]any) Result {
	if err := h.probes.LockScreen(); err != nil {
		return Fail("%v", err)
	}
	return OK(map[string]any{"message": "Workstation locked"})
}

func (h *Handlers) Shutdown(ctx context.Context, args map[string]any) Result {
	delay := intArg(args, "delay", 60)
	if err := h.probes.Shutdown(delay); err != nil {
		return Fail("%v", err)
	}
	return OK(map[string]any{
		"message": fmt.Sprintf("Shutdown scheduled in %d seconds", delay),
	})
}

func (h *Handlers) Restart(ctx context.Context, args map[string]any) Result {
	delay := intArg(args, "delay", 60)
	if err := h.probes.Restart(delay); err != nil {
		return Fail("%v", err)
	}
	return OK(map[string]any{
		"message": fmt.Sprintf("Restart scheduled in %d seconds", delay),
	})
}

// upload is best-effort: a failed upload leaves the URL empty, the
// capture itself still succeeded.
func (h *Handlers) upload(ctx context.Context, bucket, path string) string {
	if h.uploads == nil {
		return ""
	}
	url, err := h.uploads.Upload(ctx, bucket, path)
	if err != nil {
		logger.Errorf("Upload failed: %v", err)
		return ""
	}
	return url
}
