package watcher

import (
	"context"
	"time"

	"login-monitor/internal/logger"
	"login-monitor/internal/probe"
	"login-monitor/internal/store"
)

// Uploader pushes a captured file to object storage.
type Uploader interface {
	Upload(ctx context.Context, bucket, localPath string) (string, error)
}

// CaptureStore receives the collected evidence for one event row.
type CaptureStore interface {
	UpdateEventCapture(ctx context.Context, id string, cap store.EventCapture) error
}

// Capture collects evidence after a session event: a webcam photo for
// every triggering event, a screenshot for intruder alerts, and the
// device location. Everything is best-effort; whatever was collected
// is attached to the event row.
type Capture struct {
	probes  probe.Capabilities
	uploads Uploader
	events  CaptureStore
}

func NewCapture(probes probe.Capabilities, uploads Uploader, events CaptureStore) *Capture {
	return &Capture{probes: probes, uploads: uploads, events: events}
}

// Process runs one capture round for a persisted event.
func (c *Capture) Process(eventType, eventID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	logger.Infof("Processing event capture: %s", eventType)
	var ec store.EventCapture

	if path, err := c.probes.CapturePhoto(0); err != nil {
		logger.Errorf("Event photo capture failed: %v", err)
	} else if url := c.upload(ctx, "photos", path); url != "" {
		ec.PhotoURL = url
		logger.Infof("Photo uploaded: %s", url)
	}

	if eventType == EventIntruder {
		if path, err := c.probes.CaptureScreen(); err != nil {
			logger.Errorf("Event screenshot failed: %v", err)
		} else if url := c.upload(ctx, "screenshots", path); url != "" {
			ec.ScreenshotURL = url
			logger.Infof("Screenshot uploaded: %s", url)
		}
	}

	if loc, err := c.probes.Locate(ctx); err != nil {
		logger.Errorf("Event location failed: %v", err)
	} else {
		ec.Lat, ec.Lon, ec.City = loc.Latitude, loc.Longitude, loc.City
		ec.HasLocation = true
	}

	if err := c.events.UpdateEventCapture(ctx, eventID, ec); err != nil {
		logger.Errorf("Failed to attach capture to event %s: %v", eventID, err)
	}
}

func (c *Capture) upload(ctx context.Context, bucket, path string) string {
	if c.uploads == nil {
		return ""
	}
	url, err := c.uploads.Upload(ctx, bucket, path)
	if err != nil {
		logger.Errorf("Event upload failed: %v", err)
		return ""
	}
	return url
}
