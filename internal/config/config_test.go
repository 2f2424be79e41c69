package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DaDevFox/task-systems/taskboard/internal/kvstore"
)

// isolate points the user config lookup at an empty directory and clears
// every TASKBOARD_* variable for the duration of the test
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	for _, key := range []string{
		"TASKBOARD_BACKEND", "TASKBOARD_ENGINE", "TASKBOARD_DATA_PATH", "TASKBOARD_STORAGE_KEY",
		"TASKBOARD_API_URL", "TASKBOARD_API_TIMEOUT", "TASKBOARD_LOG_LEVEL", "TASKBOARD_LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, BackendLocal, cfg.Backend)
	assert.Equal(t, kvstore.EngineBolt, cfg.Local.Engine)
	assert.Equal(t, DefaultStorageKey, cfg.Local.Key)
	assert.Equal(t, DefaultBaseURL, cfg.Remote.BaseURL)
	assert.NoError(t, cfg.Validate())
}

func TestLoadWithoutFiles(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadLayering(t *testing.T) {
	dir := isolate(t)

	writeFile(t, filepath.Join(dir, "taskboard", "config.toml"), `
backend = "remote"

[remote]
base_url = "http://user-file:9000"
timeout = "5s"

[log]
level = "debug"
`)

	explicit := filepath.Join(t.TempDir(), "project.toml")
	writeFile(t, explicit, `
[remote]
base_url = "http://project-file:9000"
`)

	t.Setenv("TASKBOARD_LOG_LEVEL", "ERROR")

	cfg, err := Load(explicit)
	require.NoError(t, err)

	assert.Equal(t, BackendRemote, cfg.Backend, "from user file")
	assert.Equal(t, "http://project-file:9000", cfg.Remote.BaseURL, "explicit file overrides user file")
	assert.Equal(t, "5s", cfg.Remote.Timeout, "untouched keys survive later layers")
	assert.Equal(t, "error", cfg.Log.Level, "environment overrides files")
	assert.Equal(t, "text", cfg.Log.Format, "defaults fill the rest")
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed toml", `backend = `},
		{"unknown key", `colour = "blue"`},
		{"unknown backend", `backend = "ftp"`},
		{"unknown engine", "[local]\nengine = \"sqlite\""},
		{"bad timeout", "backend = \"remote\"\n[remote]\ntimeout = \"soon\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			path := filepath.Join(t.TempDir(), "config.toml")
			writeFile(t, path, tt.content)

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	isolate(t)
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"TASKBOARD_BACKEND":     "Remote",
		"TASKBOARD_ENGINE":      "badger",
		"TASKBOARD_DATA_PATH":   "/var/lib/taskboard",
		"TASKBOARD_STORAGE_KEY": "work-tasks",
		"TASKBOARD_API_URL":     "http://api:8080",
		"TASKBOARD_API_TIMEOUT": "10s",
		"TASKBOARD_LOG_FORMAT":  "JSON",
		"TASKBOARD_LOG_LEVEL":   "   ",
	}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}

	cfg := DefaultConfig()
	ApplyEnv(cfg, lookup)

	assert.Equal(t, BackendRemote, cfg.Backend)
	assert.Equal(t, kvstore.EngineBadger, cfg.Local.Engine)
	assert.Equal(t, "/var/lib/taskboard", cfg.Local.Path)
	assert.Equal(t, "work-tasks", cfg.Local.Key)
	assert.Equal(t, "http://api:8080", cfg.Remote.BaseURL)
	assert.Equal(t, "10s", cfg.Remote.Timeout)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "warn", cfg.Log.Level, "blank values are ignored")
}

func TestSaveAndReload(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := DefaultConfig()
	cfg.Backend = BackendRemote
	cfg.Remote.BaseURL = "http://saved:1234"
	cfg.Remote.Timeout = "2s"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestTimeoutDuration(t *testing.T) {
	d, err := RemoteConfig{}.TimeoutDuration()
	require.NoError(t, err)
	assert.Zero(t, d)

	d, err = RemoteConfig{Timeout: "1m30s"}.TimeoutDuration()
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, d)

	_, err = RemoteConfig{Timeout: "-1s"}.TimeoutDuration()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Local.Key = ""
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Backend = BackendRemote
	cfg.Remote.BaseURL = ""
	assert.Error(t, cfg.Validate())
}
