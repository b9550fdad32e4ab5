package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"login-monitor/internal/logger"
)

// Store wraps the remote command/device tables. All writes are
// best-effort from the agent's point of view: callers log failures and
// keep going.
type Store struct {
	db   *gorm.DB
	feed *Feed
}

func Open(driver, dsn string) (*Store, error) {
	var dial gorm.Dialector
	switch driver {
	case "sqlite":
		dial = sqlite.Open(dsn)
	case "mysql":
		dial = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unknown store driver: %s", driver)
	}
	db, err := gorm.Open(dial, &gorm.Config{Logger: gormlogger.Discard})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return &Store{db: db}, nil
}

// OpenWithRetry dials the store with exponential backoff, capped at
// 30s between attempts.
func OpenWithRetry(driver, dsn string, maxRetries int, baseDelay time.Duration) (*Store, error) {
	const (
		maxDelay      = 30 * time.Second
		backoffFactor = 1.5
	)

	delay := baseDelay
	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		s, err := Open(driver, dsn)
		if err == nil {
			return s, nil
		}
		lastErr = err
		logger.Errorf("Store connect failed (attempt #%d): %v", attempt, err)
		if attempt == maxRetries {
			break
		}
		logger.Infof("Retrying store connect in %v...", delay)
		time.Sleep(delay)
		delay = time.Duration(float64(delay) * backoffFactor)
		if delay > maxDelay {
			delay = maxDelay
		}
	}
	return nil, fmt.Errorf("max retries reached: %w", lastErr)
}

func NewWithDB(db *gorm.DB) *Store { return &Store{db: db} }

func (s *Store) AutoMigrate() error {
	return s.db.AutoMigrate(&CommandRecord{}, &Device{}, &EventRecord{})
}

// AttachFeed makes EnqueueCommand publish inserts on the change feed.
func (s *Store) AttachFeed(f *Feed) { s.feed = f }

func (s *Store) Feed() *Feed { return s.feed }

// PendingCommands implements the poll contract: all rows for this
// device still in status=pending. Ordered by creation time so backlog
// sweeps drain oldest-first.
func (s *Store) PendingCommands(ctx context.Context, deviceID string) ([]CommandRecord, error) {
	var cmds []CommandRecord
	err := s.db.WithContext(ctx).
		Where("device_id = ? AND status = ?", deviceID, StatusPending).
		Order("created_at ASC").
		Find(&cmds).Error
	if err != nil {
		return nil, fmt.Errorf("query pending commands: %w", err)
	}
	return cmds, nil
}

// CompleteCommand marks one command completed with its serialized
// result. Last write wins; re-completing an already completed row just
// overwrites the same final state.
func (s *Store) CompleteCommand(ctx context.Context, id string, resultJSON string) error {
	now := time.Now().UTC()
	err := s.db.WithContext(ctx).Model(&CommandRecord{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":       StatusCompleted,
			"result":       resultJSON,
			"completed_at": now,
		}).Error
	if err != nil {
		return fmt.Errorf("complete command %s: %w", id, err)
	}
	return nil
}

func (s *Store) UpdateDeviceLiveness(ctx context.Context, deviceID string) error {
	now := time.Now().UTC()
	err := s.db.WithContext(ctx).Model(&Device{}).
		Where("id = ?", deviceID).
		Updates(map[string]any{
			"last_seen": now,
			"is_online": true,
		}).Error
	if err != nil {
		return fmt.Errorf("update liveness for %s: %w", deviceID, err)
	}
	return nil
}

func (s *Store) UpdateDeviceLocation(ctx context.Context, deviceID string, lat, lon float64, city string) error {
	err := s.db.WithContext(ctx).Model(&Device{}).
		Where("id = ?", deviceID).
		Updates(map[string]any{
			"last_location_lat":  lat,
			"last_location_lon":  lon,
			"last_location_city": city,
		}).Error
	if err != nil {
		return fmt.Errorf("update location for %s: %w", deviceID, err)
	}
	return nil
}

// EnqueueCommand is the control-plane write path used by the console
// and tests: insert a pending row and announce it on the change feed
// when one is attached.
func (s *Store) EnqueueCommand(ctx context.Context, deviceID, name string, args any) (CommandRecord, error) {
	var raw json.RawMessage
	if args != nil {
		b, err := json.Marshal(args)
		if err != nil {
			return CommandRecord{}, fmt.Errorf("marshal args: %w", err)
		}
		raw = b
	}
	rec := CommandRecord{
		ID:        uuid.NewString(),
		DeviceID:  deviceID,
		Command:   name,
		Args:      raw,
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return CommandRecord{}, fmt.Errorf("insert command: %w", err)
	}
	if s.feed != nil {
		if err := s.feed.Publish(ctx, rec); err != nil {
			logger.Errorf("Publish command insert failed: %v", err)
		}
	}
	return rec, nil
}

// RecentCommands returns the newest rows for a device, completed or
// not. Console view only.
func (s *Store) RecentCommands(ctx context.Context, deviceID string, limit int) ([]CommandRecord, error) {
	var cmds []CommandRecord
	err := s.db.WithContext(ctx).
		Where("device_id = ?", deviceID).
		Order("created_at DESC").
		Limit(limit).
		Find(&cmds).Error
	if err != nil {
		return nil, fmt.Errorf("query recent commands: %w", err)
	}
	return cmds, nil
}

func (s *Store) Devices(ctx context.Context) ([]Device, error) {
	var devs []Device
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&devs).Error; err != nil {
		return nil, fmt.Errorf("query devices: %w", err)
	}
	return devs, nil
}

// UpsertDevice is used by the console and tests to seed device rows.
func (s *Store) UpsertDevice(d *Device) error {
	var existing Device
	if err := s.db.Where("id = ?", d.ID).First(&existing).Error; err == nil {
		return s.db.Save(d).Error
	}
	return s.db.Create(d).Error
}

// SaveEvent inserts one session event. The id is assigned here so the
// watcher can hand it to the event-triggered capture.
func (s *Store) SaveEvent(ctx context.Context, ev *EventRecord) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(ev).Error; err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// EventCapture carries what the event-triggered capture managed to
// collect. Zero-value fields are left untouched on the row.
type EventCapture struct {
	PhotoURL      string
	ScreenshotURL string
	Lat, Lon      float64
	City          string
	HasLocation   bool
}

func (s *Store) UpdateEventCapture(ctx context.Context, id string, cap EventCapture) error {
	updates := map[string]any{}
	if cap.PhotoURL != "" {
		updates["photo_url"] = cap.PhotoURL
	}
	if cap.ScreenshotURL != "" {
		updates["screenshot_url"] = cap.ScreenshotURL
	}
	if cap.HasLocation {
		updates["location_lat"] = cap.Lat
		updates["location_lon"] = cap.Lon
		updates["location_city"] = cap.City
	}
	if len(updates) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Model(&EventRecord{}).
		Where("id = ?", id).
		Updates(updates).Error
	if err != nil {
		return fmt.Errorf("update event capture %s: %w", id, err)
	}
	return nil
}

// RecentEvents returns the newest session events for a device.
func (s *Store) RecentEvents(ctx context.Context, deviceID string, limit int) ([]EventRecord, error) {
	var evs []EventRecord
	err := s.db.WithContext(ctx).
		Where("device_id = ?", deviceID).
		Order("created_at DESC").
		Limit(limit).
		Find(&evs).Error
	if err != nil {
		return nil, fmt.Errorf("query recent events: %w", err)
	}
	return evs, nil
}

// GetCommand fetches a single command row.
func (s *Store) GetCommand(ctx context.Context, id string) (*CommandRecord, error) {
	var rec CommandRecord
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetDevice fetches a single device row.
func (s *Store) GetDevice(ctx context.Context, deviceID string) (*Device, error) {
	var d Device
	if err := s.db.WithContext(ctx).Where("id = ?", deviceID).First(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}
