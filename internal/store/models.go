package store

import (
	"encoding/json"
	"time"
)

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

// CommandRecord mirrors one row of the commands table. The control
// plane inserts rows with status=pending; the agent only ever moves
// them to completed, it never deletes them. Args holds the raw JSON as
// written by the sender: either an object or a JSON-encoded string.
type CommandRecord struct {
	ID          string          `gorm:"primaryKey;size:64" json:"id"`
	DeviceID    string          `gorm:"index;size:64" json:"device_id"`
	Command     string          `gorm:"size:64" json:"command"`
	Args        json.RawMessage `gorm:"type:text" json:"args,omitempty"`
	Status      string          `gorm:"size:16;index" json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Result      string          `gorm:"type:text" json:"result,omitempty"`
}

// Device carries the liveness and last-known-location columns the
// agent writes. Registration fields are owned by the installer.
type Device struct {
	ID               string     `gorm:"primaryKey;size:64" json:"id"`
	Name             string     `gorm:"size:255" json:"name"`
	UserID           string     `gorm:"index;size:64" json:"user_id"`
	LastSeen         *time.Time `json:"last_seen,omitempty"`
	IsOnline         bool       `json:"is_online"`
	LastLocationLat  float64    `json:"last_location_lat"`
	LastLocationLon  float64    `json:"last_location_lon"`
	LastLocationCity string     `gorm:"size:128" json:"last_location_city"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// EventRecord is one session event observed on the device: a login, a
// logout, or an intruder alert. Capture URLs and the location are
// filled in after the fact, once the event-triggered capture finishes.
type EventRecord struct {
	ID            string    `gorm:"primaryKey;size:64" json:"id"`
	DeviceID      string    `gorm:"index;size:64" json:"device_id"`
	UserID        string    `gorm:"size:64" json:"user_id"`
	EventType     string    `gorm:"size:32;index" json:"event_type"`
	Username      string    `gorm:"size:64" json:"username"`
	Hostname      string    `gorm:"size:128" json:"hostname"`
	ExtraData     string    `gorm:"type:text" json:"extra_data,omitempty"`
	PhotoURL      string    `gorm:"size:512" json:"photo_url,omitempty"`
	ScreenshotURL string    `gorm:"size:512" json:"screenshot_url,omitempty"`
	LocationLat   float64   `json:"location_lat"`
	LocationLon   float64   `json:"location_lon"`
	LocationCity  string    `gorm:"size:128" json:"location_city"`
	IsRead        bool      `json:"is_read"`
	CreatedAt     time.Time `json:"timestamp"`
}
