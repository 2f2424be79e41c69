package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/DaDevFox/task-systems/taskboard/internal/kvstore"
)

// BackendKind selects where tasks are persisted
type BackendKind string

const (
	BackendLocal  BackendKind = "local"
	BackendRemote BackendKind = "remote"
)

const (
	DefaultStorageKey = "tasks"
	DefaultBaseURL    = "http://localhost:8080"
	configDirName     = ".taskboard"
	configFileName    = "config.toml"
)

// Config represents the taskboard configuration
type Config struct {
	Backend BackendKind  `toml:"backend"`
	Local   LocalConfig  `toml:"local"`
	Remote  RemoteConfig `toml:"remote"`
	Log     LogConfig    `toml:"log"`
}

// LocalConfig configures the key-value store used by the local backend
type LocalConfig struct {
	Engine kvstore.Engine `toml:"engine"`
	Path   string         `toml:"path"`
	Key    string         `toml:"key"`
}

// RemoteConfig configures the HTTP task resource
type RemoteConfig struct {
	BaseURL string `toml:"base_url"`
	// Timeout is a Go duration string; "0s" or empty means no timeout
	Timeout string `toml:"timeout"`
}

// LogConfig configures logging
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendLocal,
		Local: LocalConfig{
			Engine: kvstore.EngineBolt,
			Path:   filepath.Join("~", configDirName, "data"),
			Key:    DefaultStorageKey,
		},
		Remote: RemoteConfig{
			BaseURL: DefaultBaseURL,
			Timeout: "0s",
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// DefaultPath returns the path of the user configuration file.
// $XDG_CONFIG_HOME/taskboard/config.toml wins when XDG_CONFIG_HOME is set.
func DefaultPath() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "taskboard", configFileName), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, configDirName, configFileName), nil
}

// Load builds the configuration in priority order:
//  1. Defaults
//  2. User config file (DefaultPath), when it exists
//  3. The explicit config file, when path is not empty (it must exist)
//  4. TASKBOARD_* environment variables
//
// Command-line flags are applied by the caller on the returned config.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	userPath, err := DefaultPath()
	if err == nil {
		if err := loadConfigFile(cfg, userPath, true); err != nil {
			return nil, fmt.Errorf("loading user config file %s: %w", userPath, err)
		}
	}

	if path != "" {
		if err := loadConfigFile(cfg, path, false); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	ApplyEnv(cfg, os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadConfigFile(cfg *Config, path string, optional bool) error {
	if _, err := os.Stat(path); err != nil {
		if optional && os.IsNotExist(err) {
			return nil
		}
		return err
	}

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, key := range undecoded {
			keys[i] = key.String()
		}
		return fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

// Save writes the configuration as TOML, creating parent directories
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return nil
}

// Validate rejects unknown backend and engine names and bad durations
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendLocal:
		if !c.Local.Engine.Valid() {
			return fmt.Errorf("unknown storage engine %q (want badger, bolt, file or memory)", c.Local.Engine)
		}
		if c.Local.Key == "" {
			return fmt.Errorf("local storage key cannot be empty")
		}
	case BackendRemote:
		if c.Remote.BaseURL == "" {
			return fmt.Errorf("remote backend requires remote.base_url")
		}
	default:
		return fmt.Errorf("unknown backend %q (want local or remote)", c.Backend)
	}

	if _, err := c.Remote.TimeoutDuration(); err != nil {
		return err
	}
	return nil
}

// TimeoutDuration parses the request timeout; zero means none
func (r RemoteConfig) TimeoutDuration() (time.Duration, error) {
	if r.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(r.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid remote.timeout %q: %w", r.Timeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("remote.timeout cannot be negative")
	}
	return d, nil
}
