package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DaDevFox/task-systems/taskboard/internal/config"
	"github.com/DaDevFox/task-systems/taskboard/internal/domain"
	"github.com/DaDevFox/task-systems/taskboard/internal/kvstore"
	"github.com/DaDevFox/task-systems/taskboard/internal/testsupport"
)

func newRemote(t *testing.T, baseURL string, opts ...RemoteOption) *Remote {
	t.Helper()
	opts = append([]RemoteOption{WithRemoteLogger(quietLogger())}, opts...)
	remote, err := NewRemote(baseURL, opts...)
	require.NoError(t, err)
	return remote
}

func TestRemoteBackend(t *testing.T) {
	tests := []struct {
		name string
		test func(*testing.T, *testsupport.TaskAPI, *Remote)
	}{
		{"LoadEmpty", testRemoteLoadEmpty},
		{"CreateReturnsCanonicalTask", testRemoteCreateReturnsCanonicalTask},
		{"UpdateReturnsCanonicalTask", testRemoteUpdateReturnsCanonicalTask},
		{"Delete", testRemoteDelete},
		{"UpdateUnknownTask", testRemoteUpdateUnknownTask},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := testsupport.StartTaskAPI(t)
			tt.test(t, api, newRemote(t, api.URL+"/"))
		})
	}
}

func testRemoteLoadEmpty(t *testing.T, _ *testsupport.TaskAPI, remote *Remote) {
	tasks, err := remote.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, tasks)
	assert.Empty(t, tasks)
}

func testRemoteCreateReturnsCanonicalTask(t *testing.T, api *testsupport.TaskAPI, remote *Remote) {
	ctx := context.Background()
	draft := domain.NewDraft("C", "from the client")
	draft.ID = "ignored"
	draft.Priority = domain.PriorityLow
	draft.DueDate = testsupport.Date("2025-10-11")

	created, err := remote.Create(ctx, draft, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.NotEqual(t, "ignored", created.ID)
	assert.NotNil(t, created.CreatedAt, "server timestamps are carried back")

	stored, err := api.Repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "from the client", stored.Description)

	loaded, err := remote.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{created.ID}, testsupport.IDs(loaded))
}

func testRemoteUpdateReturnsCanonicalTask(t *testing.T, api *testsupport.TaskAPI, remote *Remote) {
	ctx := context.Background()
	created, err := api.Repo.Create(ctx, domain.NewDraft("Old", ""))
	require.NoError(t, err)

	changed := created.Clone()
	changed.Title = "New"
	changed.Status = domain.StatusInProgress

	updated, err := remote.Update(ctx, changed, nil)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "New", updated.Title)
	assert.Equal(t, domain.StatusInProgress, updated.Status)
	require.NotNil(t, updated.CreatedAt)
	assert.True(t, created.CreatedAt.Equal(*updated.CreatedAt))
}

func testRemoteDelete(t *testing.T, api *testsupport.TaskAPI, remote *Remote) {
	ctx := context.Background()
	created, err := api.Repo.Create(ctx, domain.NewDraft("Gone", ""))
	require.NoError(t, err)

	require.NoError(t, remote.Delete(ctx, created.ID, nil))

	tasks, err := api.Repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func testRemoteUpdateUnknownTask(t *testing.T, _ *testsupport.TaskAPI, remote *Remote) {
	_, err := remote.Update(context.Background(), domain.Task{ID: "missing", Title: "x"}, nil)
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
	assert.Equal(t, http.MethodPut, statusErr.Method)
}

func TestRemoteBackendFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("ServerError", func(t *testing.T) {
		remote := newRemote(t, testsupport.StartFailingAPI(t, http.StatusInternalServerError))

		_, err := remote.Load(ctx)
		var statusErr *StatusError
		require.True(t, errors.As(err, &statusErr))
		assert.Equal(t, http.StatusInternalServerError, statusErr.Code)
		assert.Equal(t, "backend unavailable", statusErr.Body)

		_, err = remote.Create(ctx, domain.NewDraft("x", ""), nil)
		assert.ErrorContains(t, err, "failed to create task")

		err = remote.Delete(ctx, "1", nil)
		assert.ErrorContains(t, err, "unexpected status 500")
	})

	t.Run("Unreachable", func(t *testing.T) {
		remote := newRemote(t, testsupport.UnreachableURL(t))

		_, err := remote.Load(ctx)
		assert.ErrorContains(t, err, "failed to fetch tasks")
	})

	t.Run("MalformedBody", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, "[{")
		}))
		t.Cleanup(server.Close)

		_, err := newRemote(t, server.URL).Load(ctx)
		assert.ErrorContains(t, err, "failed to decode response body")
	})

	t.Run("CreateWithoutID", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(domain.Task{Title: "anonymous"})
		}))
		t.Cleanup(server.Close)

		_, err := newRemote(t, server.URL).Create(ctx, domain.NewDraft("x", ""), nil)
		assert.ErrorContains(t, err, "no task ID")
	})

	t.Run("UpdateWithoutIDKeepsRequestID", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/tasks/abc", r.URL.Path)
			json.NewEncoder(w).Encode(domain.Task{Title: "patched"})
		}))
		t.Cleanup(server.Close)

		updated, err := newRemote(t, server.URL).Update(ctx, domain.Task{ID: "abc"}, nil)
		require.NoError(t, err)
		assert.Equal(t, "abc", updated.ID)
		assert.Equal(t, "patched", updated.Title)
	})

	t.Run("Timeout", func(t *testing.T) {
		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		t.Cleanup(func() {
			close(release)
			server.Close()
		})

		_, err := newRemote(t, server.URL, WithTimeout(50*time.Millisecond)).Load(ctx)
		assert.Error(t, err)
	})
}

func TestNewRemoteValidatesURL(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		wantErr bool
	}{
		{"HTTP", "http://localhost:8080", false},
		{"HTTPS", "https://tasks.example.com/api/", false},
		{"MissingScheme", "localhost:8080", true},
		{"FTP", "ftp://example.com", true},
		{"Unparseable", "http://[::1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRemote(tt.baseURL)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNew(t *testing.T) {
	t.Run("LocalMemory", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Local.Engine = kvstore.EngineMemory

		b, closer, err := New(cfg, quietLogger())
		require.NoError(t, err)
		defer closer.Close()
		assert.IsType(t, &Local{}, b)
	})

	t.Run("LocalBolt", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Local.Engine = kvstore.EngineBolt
		cfg.Local.Path = t.TempDir()

		b, closer, err := New(cfg, quietLogger())
		require.NoError(t, err)
		defer closer.Close()

		created, err := b.Create(context.Background(), domain.NewDraft("Persisted", ""), nil)
		require.NoError(t, err)

		loaded, err := b.Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{created.ID}, testsupport.IDs(loaded))
	})

	t.Run("Remote", func(t *testing.T) {
		api := testsupport.StartTaskAPI(t)
		cfg := config.DefaultConfig()
		cfg.Backend = config.BackendRemote
		cfg.Remote.BaseURL = api.URL
		cfg.Remote.Timeout = "5s"

		b, closer, err := New(cfg, quietLogger())
		require.NoError(t, err)
		assert.NoError(t, closer.Close())
		assert.IsType(t, &Remote{}, b)
	})

	t.Run("BadTimeout", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Backend = config.BackendRemote
		cfg.Remote.Timeout = "soon"

		_, _, err := New(cfg, quietLogger())
		assert.Error(t, err)
	})

	t.Run("UnknownBackend", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Backend = "carrier-pigeon"

		_, _, err := New(cfg, quietLogger())
		assert.ErrorContains(t, err, "unsupported backend")
	})
}
