package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Identity is written by the installer; the agent only reads it.
type Identity struct {
	DeviceID string `json:"device_id"`
	UserID   string `json:"user_id"`
}

var ErrMissing = errors.New("no device identity configured")

// Load reads the identity file. A missing file or empty device id is
// fatal to the agent: it must not process commands without knowing who
// it is.
func Load(path string) (Identity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Identity{}, ErrMissing
		}
		return Identity{}, fmt.Errorf("read identity file: %w", err)
	}
	var id Identity
	if err := json.Unmarshal(data, &id); err != nil {
		return Identity{}, fmt.Errorf("parse identity file: %w", err)
	}
	if strings.TrimSpace(id.DeviceID) == "" {
		return Identity{}, ErrMissing
	}
	return id, nil
}
