// Package config builds the runtime configuration from defaults and DAILYTODO_* variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sandeepkv93/dailytodo/internal/model"
)

const appName = "dailytodo"

type RuntimeConfig struct {
	DataDir              string
	DBPath               string
	TablesConnection     string
	TableName            string
	RemoteTimeout        time.Duration
	RedisURL             string
	CacheTTL             time.Duration
	RolloverCheck        time.Duration
	DesktopNotifications bool
	Debug                bool
	SlotIDs              []string
	SaveBuffer           int
}

func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		DataDir:       defaultDataDir(),
		TableName:     "dailyTodos",
		RemoteTimeout: 5 * time.Second,
		CacheTTL:      24 * time.Hour,
		RolloverCheck: time.Minute,
		SlotIDs:       model.DefaultSlotIDs(),
		SaveBuffer:    64,
	}
}

func RuntimeConfigFromEnv(base RuntimeConfig) RuntimeConfig {
	cfg := base
	cfg.SlotIDs = append([]string(nil), base.SlotIDs...)
	if v, ok := getEnvString("DAILYTODO_DATA_DIR"); ok {
		cfg.DataDir = v
	}
	if v, ok := getEnvString("DAILYTODO_DB_PATH"); ok {
		cfg.DBPath = v
	}
	if v, ok := getEnvString("DAILYTODO_TABLES_CONNECTION_STRING"); ok {
		cfg.TablesConnection = v
	}
	if v, ok := getEnvString("DAILYTODO_TABLE"); ok {
		cfg.TableName = v
	}
	if v, ok := getEnvDuration("DAILYTODO_REMOTE_TIMEOUT"); ok && v > 0 {
		cfg.RemoteTimeout = v
	}
	if v, ok := getEnvString("DAILYTODO_REDIS_URL"); ok {
		cfg.RedisURL = v
	}
	if v, ok := getEnvDuration("DAILYTODO_CACHE_TTL"); ok && v >= 0 {
		cfg.CacheTTL = v
	}
	if v, ok := getEnvDuration("DAILYTODO_ROLLOVER_CHECK"); ok && v > 0 {
		cfg.RolloverCheck = v
	}
	if v, ok := getEnvBool("DAILYTODO_DESKTOP_NOTIFICATIONS"); ok {
		cfg.DesktopNotifications = v
	}
	if v, ok := getEnvBool("DAILYTODO_DEBUG"); ok {
		cfg.Debug = v
	}
	if v, ok := getEnvString("DAILYTODO_SLOTS"); ok {
		cfg.SlotIDs = splitList(v)
	}
	if v, ok := getEnvInt("DAILYTODO_SAVE_BUFFER"); ok && v > 0 {
		cfg.SaveBuffer = v
	}
	return cfg
}

// Validate checks values that cannot be defaulted away.
func (c RuntimeConfig) Validate() error {
	if err := model.ValidateSlotIDs(c.SlotIDs); err != nil {
		return fmt.Errorf("DAILYTODO_SLOTS: %w", err)
	}
	if c.DataDir == "" && c.DBPath == "" {
		return fmt.Errorf("config: no data directory; set DAILYTODO_DATA_DIR")
	}
	return nil
}

// RemoteConfigured reports whether a remote store connection was supplied.
func (c RuntimeConfig) RemoteConfigured() bool {
	return c.TablesConnection != ""
}

func (c RuntimeConfig) DatabasePath() string {
	if c.DBPath != "" {
		return c.DBPath
	}
	return filepath.Join(c.DataDir, appName+".db")
}

func (c RuntimeConfig) LogPath() string {
	return filepath.Join(c.DataDir, appName+".log")
}

// defaultDataDir uses XDG_DATA_HOME if set, otherwise $HOME/.local/share.
func defaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", appName)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvString(name string) (string, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return "", false
	}
	return raw, true
}

func getEnvInt(name string) (int, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func getEnvDuration(name string) (time.Duration, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return 0, false
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func getEnvBool(name string) (bool, bool) {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return false, false
	}
	switch raw {
	case "1", "true", "yes", "y", "on":
		return true, true
	case "0", "false", "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}
