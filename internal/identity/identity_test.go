package identity

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"device_id":"dev-1","user_id":"user-9"}`), 0o644))

	id, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "dev-1", id.DeviceID)
	assert.Equal(t, "user-9", id.UserID)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.ErrorIs(t, err, ErrMissing)
}

func TestLoadEmptyDeviceID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"device_id":"  ","user_id":"u"}`), 0o644))

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrMissing)
}

func TestLoadGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device.json")
	require.NoError(t, os.WriteFile(path, []byte(`{broken`), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
