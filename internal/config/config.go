// Package config provides configuration management for the console injector.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"sync"
	"time"

	"github.com/BurntSushi/toml"

	"coninject/internal/osutils"
)

// FileName is the configuration file looked up beside the executable
const FileName = "console-injector.toml"

// Config represents the injector configuration
type Config struct {
	// Capture tunes the output capture poll loop
	Capture CaptureConfig `toml:"capture"`

	// Log controls the diagnostics log file
	Log LogConfig `toml:"log"`
}

// CaptureConfig contains output capture settings
type CaptureConfig struct {
	// Attempts is the number of snapshots taken after injection (default: 6)
	Attempts int `toml:"attempts"`

	// IntervalMs is the wait before each snapshot in milliseconds (default: 200)
	IntervalMs int `toml:"interval_ms"`

	// MaxChars bounds the captured output to its most recent characters (default: 8192)
	MaxChars int `toml:"max_chars"`
}

// LogConfig contains diagnostics log settings
type LogConfig struct {
	// File is the log file name, resolved beside the executable when relative
	File string `toml:"file"`

	// Disabled turns the diagnostics log off
	Disabled bool `toml:"disabled"`
}

// Interval returns the capture poll interval as a duration
func (c CaptureConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMs) * time.Millisecond
}

// DefaultConfig returns a new Config with the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Capture: CaptureConfig{
			Attempts:   6,
			IntervalMs: 200,
			MaxChars:   8192,
		},
		Log: LogConfig{
			File: "console-injector.log",
		},
	}
}

// Manager handles loading configuration
type Manager struct {
	mu         sync.Mutex
	configPath string
	config     *Config
}

// NewManager creates a configuration manager. An empty path selects the
// file beside the executable.
func NewManager(path string) *Manager {
	if path == "" {
		path = osutils.BesideExe(FileName)
	}
	return &Manager{
		configPath: path,
		config:     DefaultConfig(),
	}
}

// Path returns the configuration file path
func (m *Manager) Path() string {
	return m.configPath
}

// Load reads the configuration from disk. A missing file keeps the
// defaults; a malformed file is an error.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.configPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading config %s: %w", m.configPath, err)
	}

	cfg := DefaultConfig()
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return fmt.Errorf("parsing config %s: %w", m.configPath, err)
	}
	for _, key := range md.Undecoded() {
		log.Printf("Config: ignoring unknown key %s", key)
	}

	cfg.normalize()
	m.config = cfg
	log.Printf("Config: loaded %s", m.configPath)
	return nil
}

// Get returns the current configuration
func (m *Manager) Get() *Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.config
}

// normalize replaces out-of-range values with defaults
func (c *Config) normalize() {
	def := DefaultConfig()
	if c.Capture.Attempts <= 0 {
		c.Capture.Attempts = def.Capture.Attempts
	}
	if c.Capture.IntervalMs <= 0 {
		c.Capture.IntervalMs = def.Capture.IntervalMs
	}
	if c.Capture.MaxChars <= 0 {
		c.Capture.MaxChars = def.Capture.MaxChars
	}
	if c.Log.File == "" {
		c.Log.File = def.Log.File
	}
}
