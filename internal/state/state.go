package state

import "sync/atomic"

type appState struct {
	DeviceID atomic.Value // string
	UserID   atomic.Value // string
}

var s appState

func SetDeviceID(id string) { s.DeviceID.Store(id) }
func GetDeviceID() string {
	if v := s.DeviceID.Load(); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func SetUserID(id string) { s.UserID.Store(id) }
func GetUserID() string {
	if v := s.UserID.Load(); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
