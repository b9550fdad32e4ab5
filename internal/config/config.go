package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

type AppConfig struct {
	StoreDriver       string // "mysql" or "sqlite"
	StoreDSN          string
	RedisAddr         string
	RedisPassword     string
	StorageEndpoint   string
	IdentityPath      string
	LogPath           string
	GeoEndpoint       string
	MetricsAddr       string
	PollInterval      time.Duration
	HeartbeatInterval time.Duration
	CaptureDir        string
	AudioDir          string
	WatchEnabled      bool
	WatchSessionsDir  string
	WatchFailedLog    string
}

var cfg AppConfig

func Init() AppConfig {
	defaultDir := filepath.Join(os.TempDir(), "login-monitor")

	v := viper.New()
	v.SetConfigFile("config/config.yaml")
	v.SetConfigType("yaml")

	// defaults
	v.SetDefault("agent.store.driver", "mysql")
	v.SetDefault("agent.store.dsn", "")
	v.SetDefault("agent.redis.addr", "127.0.0.1:6379")
	v.SetDefault("agent.redis.password", "")
	v.SetDefault("agent.storage_endpoint", "")
	v.SetDefault("agent.identity_path", filepath.Join(defaultDir, "device.json"))
	v.SetDefault("agent.geo_endpoint", "http://ip-api.com/json/")
	v.SetDefault("agent.metrics_addr", "")
	v.SetDefault("agent.poll_interval", 3*time.Second)
	v.SetDefault("agent.heartbeat_interval", 30*time.Second)
	v.SetDefault("agent.capture_dir", filepath.Join(defaultDir, "captures"))
	v.SetDefault("agent.audio_dir", filepath.Join(defaultDir, "audio"))
	v.SetDefault("agent.watch.enabled", true)
	v.SetDefault("agent.watch.sessions_dir", "")
	v.SetDefault("agent.watch.failed_log", "")
	_ = v.ReadInConfig()

	cfg = AppConfig{
		StoreDriver:       v.GetString("agent.store.driver"),
		StoreDSN:          v.GetString("agent.store.dsn"),
		RedisAddr:         v.GetString("agent.redis.addr"),
		RedisPassword:     v.GetString("agent.redis.password"),
		StorageEndpoint:   v.GetString("agent.storage_endpoint"),
		IdentityPath:      v.GetString("agent.identity_path"),
		LogPath:           v.GetString("agent.log_path"),
		GeoEndpoint:       v.GetString("agent.geo_endpoint"),
		MetricsAddr:       v.GetString("agent.metrics_addr"),
		PollInterval:      v.GetDuration("agent.poll_interval"),
		HeartbeatInterval: v.GetDuration("agent.heartbeat_interval"),
		CaptureDir:        v.GetString("agent.capture_dir"),
		AudioDir:          v.GetString("agent.audio_dir"),
		WatchEnabled:      v.GetBool("agent.watch.enabled"),
		WatchSessionsDir:  v.GetString("agent.watch.sessions_dir"),
		WatchFailedLog:    v.GetString("agent.watch.failed_log"),
	}
	return cfg
}

func Get() AppConfig { return cfg }

func IdentityFilePath() string {
	if cfg.IdentityPath == "" {
		return filepath.Join(os.TempDir(), "login-monitor", "device.json")
	}
	return cfg.IdentityPath
}
