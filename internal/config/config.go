// Package config loads the mudra YAML configuration.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPath names the environment variable that overrides the config path.
const EnvPath = "MUDRA_CONFIG"

// Storage backends.
const (
	StorageJSON   = "json"
	StorageSQLite = "sqlite"
)

// Dispatch backends.
const (
	DispatchRobotgo = "robotgo"
	DispatchPlugin  = "plugin"
	DispatchLog     = "log"
)

// Display backends.
const (
	DisplayWindow   = "window"
	DisplayHeadless = "headless"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config holds the full mudra configuration.
type Config struct {
	DataDir  string `yaml:"data_dir"`
	CameraID int    `yaml:"camera_id"`
	Mirror   bool   `yaml:"mirror"`

	Storage      string `yaml:"storage"` // json | sqlite
	GesturesFile string `yaml:"gestures_file"`
	MappingFile  string `yaml:"mapping_file"`
	DBFile       string `yaml:"db_file"`

	MatchThreshold   float64       `yaml:"match_threshold"`
	HistorySize      int           `yaml:"history_size"`
	ConfirmThreshold int           `yaml:"confirm_threshold"`
	TapCooldown      time.Duration `yaml:"tap_cooldown"`
	SwipeThreshold   float64       `yaml:"swipe_threshold"`
	GestureHand      string        `yaml:"gesture_hand"`
	PointerHand      string        `yaml:"pointer_hand"`

	Dispatch      string        `yaml:"dispatch"` // robotgo | plugin | log
	PluginDir     string        `yaml:"plugin_dir"`
	PluginName    string        `yaml:"plugin_name"`
	PluginTimeout time.Duration `yaml:"plugin_timeout"`

	Display    string `yaml:"display"` // window | headless
	Tray       bool   `yaml:"tray"`
	StatusAddr string `yaml:"status_addr"`
	LogLevel   string `yaml:"log_level"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		DataDir:          "~/.mudra",
		CameraID:         0,
		Mirror:           true,
		Storage:          StorageJSON,
		GesturesFile:     "gestures.json",
		MappingFile:      "gesture_key_mapping.json",
		DBFile:           "mudra.db",
		MatchThreshold:   1.5,
		HistorySize:      10,
		ConfirmThreshold: 7,
		TapCooldown:      500 * time.Millisecond,
		SwipeThreshold:   0.001,
		GestureHand:      "Right",
		PointerHand:      "Left",
		Dispatch:         DispatchRobotgo,
		PluginDir:        "plugins",
		PluginName:       "keyboard",
		PluginTimeout:    2 * time.Second,
		Display:          DisplayWindow,
		LogLevel:         "info",
	}
}

// DefaultPath returns $MUDRA_CONFIG, or ~/.mudra/config.yaml.
func DefaultPath() string {
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	return filepath.Join("~", ".mudra", "config.yaml")
}

// Load reads the YAML file at path over the defaults, resolves paths and
// validates the result. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(expandHome(path))
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: parse %s: %v", ErrInvalid, path, err)
		}
	}

	cfg.resolve()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolve expands ~ and makes file names absolute against DataDir.
func (c *Config) resolve() {
	c.DataDir = expandHome(c.DataDir)
	c.GesturesFile = c.inDataDir(c.GesturesFile)
	c.MappingFile = c.inDataDir(c.MappingFile)
	c.DBFile = c.inDataDir(c.DBFile)
	c.PluginDir = c.inDataDir(c.PluginDir)
}

func (c *Config) inDataDir(p string) string {
	p = expandHome(p)
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.DataDir, p)
}

// Validate checks that values are usable.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("%w: data_dir is required", ErrInvalid)
	}
	if c.CameraID < 0 {
		return fmt.Errorf("%w: camera_id must be >= 0", ErrInvalid)
	}
	switch c.Storage {
	case StorageJSON, StorageSQLite:
	default:
		return fmt.Errorf("%w: unsupported storage %q (use json or sqlite)", ErrInvalid, c.Storage)
	}
	if c.MatchThreshold <= 0 {
		return fmt.Errorf("%w: match_threshold must be > 0", ErrInvalid)
	}
	if c.HistorySize < 1 {
		return fmt.Errorf("%w: history_size must be >= 1", ErrInvalid)
	}
	if c.ConfirmThreshold < 1 || c.ConfirmThreshold > c.HistorySize {
		return fmt.Errorf("%w: confirm_threshold must be between 1 and history_size", ErrInvalid)
	}
	if c.TapCooldown <= 0 {
		return fmt.Errorf("%w: tap_cooldown must be > 0", ErrInvalid)
	}
	if c.SwipeThreshold <= 0 {
		return fmt.Errorf("%w: swipe_threshold must be > 0", ErrInvalid)
	}
	for name, hand := range map[string]string{"gesture_hand": c.GestureHand, "pointer_hand": c.PointerHand} {
		if hand != "Left" && hand != "Right" {
			return fmt.Errorf("%w: %s must be Left or Right, got %q", ErrInvalid, name, hand)
		}
	}
	switch c.Dispatch {
	case DispatchRobotgo, DispatchLog:
	case DispatchPlugin:
		if c.PluginName == "" {
			return fmt.Errorf("%w: plugin_name is required for plugin dispatch", ErrInvalid)
		}
		if c.PluginTimeout <= 0 {
			return fmt.Errorf("%w: plugin_timeout must be > 0", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unsupported dispatch %q (use robotgo, plugin or log)", ErrInvalid, c.Dispatch)
	}
	switch c.Display {
	case DisplayWindow, DisplayHeadless:
	default:
		return fmt.Errorf("%w: unsupported display %q (use window or headless)", ErrInvalid, c.Display)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("%w: log_level %q", ErrInvalid, c.LogLevel)
	}
	return level, nil
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
