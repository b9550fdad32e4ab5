package watcher

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"login-monitor/internal/logger"
	"login-monitor/internal/state"
	"login-monitor/internal/store"
)

// Session event types written to the events table.
const (
	EventLogin    = "Login"
	EventLogout   = "Logout"
	EventIntruder = "Intruder"
)

// Intruder threshold: this many failed attempts inside the window.
const (
	maxFailedAttempts   = 3
	failedAttemptWindow = 5 * time.Minute
)

// EventStore is the slice of the store the watcher writes to.
type EventStore interface {
	SaveEvent(ctx context.Context, ev *store.EventRecord) error
}

// TriggerFunc is called for events that warrant a capture; it receives
// the event type and the persisted event id.
type TriggerFunc func(eventType, eventID string)

// Options locates the session and failed-login sources. Both have
// useful system defaults; tests point them at temp dirs.
type Options struct {
	// SessionsDir gains a file per active session; a create is a
	// login, a remove is a logout.
	SessionsDir string
	// FailedLog is appended to on every failed authentication.
	FailedLog string
}

func (o *Options) applyDefaults() {
	if o.SessionsDir == "" {
		o.SessionsDir = "/run/systemd/sessions"
	}
	if o.FailedLog == "" {
		o.FailedLog = "/var/log/btmp"
	}
}

// Watcher turns session activity into event rows. Logins and logouts
// come from the sessions directory; repeated failed authentications
// inside the window become a single intruder event.
type Watcher struct {
	watcher *fsnotify.Watcher
	events  EventStore
	trigger TriggerFunc
	opts    Options

	failed []time.Time

	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

func New(opts Options, events EventStore, trigger TriggerFunc) (*Watcher, error) {
	opts.applyDefaults()

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	watched := 0
	if err := fw.Add(opts.SessionsDir); err != nil {
		logger.Warnf("Cannot watch sessions dir %s: %v", opts.SessionsDir, err)
	} else {
		logger.Infof("Watching sessions: %s", opts.SessionsDir)
		watched++
	}
	if err := fw.Add(opts.FailedLog); err != nil {
		logger.Warnf("Cannot watch failed-login log %s: %v", opts.FailedLog, err)
	} else {
		logger.Infof("Watching failed logins: %s", opts.FailedLog)
		watched++
	}
	if watched == 0 {
		_ = fw.Close()
		return nil, os.ErrNotExist
	}

	return &Watcher{
		watcher: fw,
		events:  events,
		trigger: trigger,
		opts:    opts,
		stop:    make(chan struct{}),
	}, nil
}

// Run consumes watch events until the context is cancelled or Close is
// called.
func (w *Watcher) Run(ctx context.Context) {
	w.wg.Add(1)
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case evt, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, evt)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Errorf("Session watcher error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, evt fsnotify.Event) {
	path := filepath.Clean(evt.Name)

	if path == filepath.Clean(w.opts.FailedLog) {
		if evt.Op&fsnotify.Write != 0 {
			w.recordFailedAttempt(ctx)
		}
		return
	}

	// a session file appearing is a login, disappearing a logout
	if evt.Op&fsnotify.Create != 0 {
		logger.Infof("Detected: Login (%s)", filepath.Base(path))
		w.sendEvent(ctx, EventLogin, "")
	}
	if evt.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		logger.Infof("Detected: Logout (%s)", filepath.Base(path))
		w.sendEvent(ctx, EventLogout, "")
	}
}

func (w *Watcher) recordFailedAttempt(ctx context.Context) {
	now := time.Now()
	w.failed = append(w.failed, now)

	// drop attempts outside the window
	kept := w.failed[:0]
	for _, t := range w.failed {
		if now.Sub(t) < failedAttemptWindow {
			kept = append(kept, t)
		}
	}
	w.failed = kept

	logger.Warnf("Detected: failed login attempt (%d in window)", len(w.failed))
	if len(w.failed) < maxFailedAttempts {
		return
	}

	extra, _ := json.Marshal(map[string]any{
		"failed_attempts": len(w.failed),
		"window_minutes":  int(failedAttemptWindow.Minutes()),
	})
	w.sendEvent(ctx, EventIntruder, string(extra))
	w.failed = nil // reset after alert
}

func (w *Watcher) sendEvent(ctx context.Context, eventType, extra string) {
	deviceID := state.GetDeviceID()
	if deviceID == "" {
		logger.Warn("No device id configured, skipping event")
		return
	}

	hostname, _ := os.Hostname()
	username := os.Getenv("USER")
	if username == "" {
		username = "Unknown"
	}

	ev := store.EventRecord{
		DeviceID:  deviceID,
		UserID:    state.GetUserID(),
		EventType: eventType,
		Username:  username,
		Hostname:  hostname,
		ExtraData: extra,
	}
	if err := w.events.SaveEvent(ctx, &ev); err != nil {
		logger.Errorf("Failed to save %s event: %v", eventType, err)
		return
	}
	logger.Infof("Event sent: %s", eventType)

	if w.trigger != nil && (eventType == EventLogin || eventType == EventIntruder) {
		go w.trigger(eventType, ev.ID)
	}
}

// Close stops the watch loop and releases the underlying watcher.
func (w *Watcher) Close() error {
	var closeErr error
	w.once.Do(func() {
		close(w.stop)
		closeErr = w.watcher.Close()
	})
	w.wg.Wait()
	return closeErr
}
