package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/justyntemme/filespanel/internal/logging"
	"github.com/justyntemme/filespanel/internal/s3tree"
)

// Driver kinds understood by the shell.
const (
	DriverLocal  = "local"
	DriverSQLite = "sqlite"
	DriverS3     = "s3"
)

// Config represents the application configuration
type Config struct {
	Project ProjectConfig `json:"project"`
	Driver  DriverConfig  `json:"driver"`
	UI      UIConfig      `json:"ui"`
	Hotkeys HotkeysConfig `json:"hotkeys"`
	Watcher WatcherConfig `json:"watcher"`
	Logging LoggingConfig `json:"logging"`
	Metrics MetricsConfig `json:"metrics"`
}

type ProjectConfig struct {
	Root   string   `json:"root"`
	Ignore []string `json:"ignore"` // Entry names never shown by the local driver
}

type DriverConfig struct {
	Kind       string        `json:"kind"` // "local" | "sqlite" | "s3"
	SQLitePath string        `json:"sqlitePath"`
	S3         s3tree.Config `json:"s3"`
	Workers    int           `json:"workers"`
}

type UIConfig struct {
	Theme        string `json:"theme"` // "light" or "dark"
	ShowDotfiles bool   `json:"showDotfiles"`
}

type WatcherConfig struct {
	Enabled    bool `json:"enabled"`
	DebounceMs int  `json:"debounceMs"`
}

type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"` // "console" | "json"
	Output string `json:"output"`
}

type MetricsConfig struct {
	Addr string `json:"addr"` // Empty disables the /metrics endpoint
}

// Manager handles loading and saving configuration
type Manager struct {
	mu       sync.RWMutex
	config   *Config
	path     string
	parseErr error
}

func NewManager() *Manager {
	return &Manager{
		config: DefaultConfig(),
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Project: ProjectConfig{
			Root:   filepath.ToSlash(home),
			Ignore: []string{".git", "node_modules"},
		},
		Driver: DriverConfig{
			Kind:       DriverLocal,
			SQLitePath: filepath.Join(home, ".config", "filespanel", "tree.db"),
			S3:         s3tree.Config{Region: "us-east-1"},
			Workers:    2,
		},
		UI: UIConfig{
			Theme:        "light",
			ShowDotfiles: false,
		},
		Hotkeys: DefaultHotkeys(),
		Watcher: WatcherConfig{
			Enabled:    true,
			DebounceMs: 250,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "filespanel", "config.json")
}

// Load reads the config file at ConfigPath, creating it with defaults if
// it does not exist.
func (m *Manager) Load() error {
	return m.LoadFrom(ConfigPath())
}

// LoadFrom reads the config file at path. A file that fails to parse is
// reported through ParseError and replaced by defaults in memory.
func (m *Manager) LoadFrom(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.path = path
	m.parseErr = nil

	configDir := filepath.Dir(m.path)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		logging.Error("config: failed to create directory", zap.String("dir", configDir), zap.Error(err))
		return err
	}

	data, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		logging.Info("config: creating default config", zap.String("path", m.path))
		m.config = DefaultConfig()
		return m.saveUnlocked()
	}
	if err != nil {
		logging.Error("config: failed to read", zap.String("path", m.path), zap.Error(err))
		return err
	}

	// Unmarshal over defaults so sections missing from the file keep them.
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		logging.Warn("config: parse error, using defaults", zap.String("path", m.path), zap.Error(err))
		m.parseErr = err
		m.config = DefaultConfig()
		return nil
	}
	cfg.normalize()

	logging.Debug("config: loaded", zap.String("path", m.path))
	m.config = cfg
	return nil
}

func (c *Config) normalize() {
	switch c.Driver.Kind {
	case DriverLocal, DriverSQLite, DriverS3:
	default:
		c.Driver.Kind = DriverLocal
	}
	if c.Driver.Workers < 1 {
		c.Driver.Workers = 1
	}
	if c.Watcher.DebounceMs < 0 {
		c.Watcher.DebounceMs = 0
	}
}

func (m *Manager) saveUnlocked() error {
	if m.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(m.config, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.path, data, 0o644)
}

// Save persists the current config
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveUnlocked()
}

// Path returns the file the manager reads and writes.
func (m *Manager) Path() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.path
}

// Get returns a copy of the current config
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.config == nil {
		return *DefaultConfig()
	}
	return *m.config
}

// ParseError returns the error from the last load, if the file was invalid.
func (m *Manager) ParseError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.parseErr
}

func (m *Manager) update(fn func(c *Config)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(m.config)
	return m.saveUnlocked()
}

func (m *Manager) SetTheme(theme string) error {
	return m.update(func(c *Config) { c.UI.Theme = theme })
}

func (m *Manager) SetShowDotfiles(show bool) error {
	return m.update(func(c *Config) { c.UI.ShowDotfiles = show })
}

// SetProjectRoot records the last opened project.
func (m *Manager) SetProjectRoot(root string) error {
	return m.update(func(c *Config) { c.Project.Root = root })
}

func (m *Manager) SetDriverKind(kind string) error {
	switch kind {
	case DriverLocal, DriverSQLite, DriverS3:
	default:
		return fmt.Errorf("unknown driver kind %q", kind)
	}
	return m.update(func(c *Config) { c.Driver.Kind = kind })
}

// IsDarkMode returns true if dark mode is enabled
func (c Config) IsDarkMode() bool {
	return c.UI.Theme == "dark"
}

// Debounce returns the watcher debounce interval.
func (c Config) Debounce() time.Duration {
	return time.Duration(c.Watcher.DebounceMs) * time.Millisecond
}

// GenerateConfig backs up the existing config at path and writes a fresh
// default one. Returns the backup path if a backup was created.
func GenerateConfig(path string) (backupPath string, err error) {
	if _, err := os.Stat(path); err == nil {
		timestamp := time.Now().Format("20060102-150405")
		backupPath = filepath.Join(filepath.Dir(path), "config.backup."+timestamp+".json")

		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read existing config: %w", err)
		}
		if err := os.WriteFile(backupPath, data, 0o644); err != nil {
			return "", fmt.Errorf("failed to write backup: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return backupPath, fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(DefaultConfig(), "", "  ")
	if err != nil {
		return backupPath, fmt.Errorf("failed to marshal default config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return backupPath, fmt.Errorf("failed to write config: %w", err)
	}
	return backupPath, nil
}
