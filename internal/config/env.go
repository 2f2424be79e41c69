package config

import (
	"strings"

	"github.com/DaDevFox/task-systems/taskboard/internal/kvstore"
)

// LookupFunc has the signature of os.LookupEnv
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides config values from TASKBOARD_* environment variables.
// Empty values are ignored.
func ApplyEnv(cfg *Config, lookup LookupFunc) {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get("TASKBOARD_BACKEND"); ok {
		cfg.Backend = BackendKind(strings.ToLower(v))
	}
	if v, ok := get("TASKBOARD_ENGINE"); ok {
		cfg.Local.Engine = kvstore.Engine(strings.ToLower(v))
	}
	if v, ok := get("TASKBOARD_DATA_PATH"); ok {
		cfg.Local.Path = v
	}
	if v, ok := get("TASKBOARD_STORAGE_KEY"); ok {
		cfg.Local.Key = v
	}
	if v, ok := get("TASKBOARD_API_URL"); ok {
		cfg.Remote.BaseURL = v
	}
	if v, ok := get("TASKBOARD_API_TIMEOUT"); ok {
		cfg.Remote.Timeout = v
	}
	if v, ok := get("TASKBOARD_LOG_LEVEL"); ok {
		cfg.Log.Level = strings.ToLower(v)
	}
	if v, ok := get("TASKBOARD_LOG_FORMAT"); ok {
		cfg.Log.Format = strings.ToLower(v)
	}
}
