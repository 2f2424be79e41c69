package testsupport

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/DaDevFox/task-systems/taskboard/internal/apiserver"
)

// TaskAPI is a running development task resource for tests
type TaskAPI struct {
	URL    string
	Repo   *apiserver.InMemoryTaskRepository
	server *httptest.Server
}

// StartTaskAPI serves a fresh in-memory task resource for the duration of t
func StartTaskAPI(t *testing.T) *TaskAPI {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	repo := apiserver.NewInMemoryTaskRepository()
	server := httptest.NewServer(apiserver.NewRouter(repo, logger))
	t.Cleanup(server.Close)

	return &TaskAPI{URL: server.URL, Repo: repo, server: server}
}

// StartFailingAPI serves a resource that answers every request with status
func StartFailingAPI(t *testing.T, status int) string {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend unavailable", status)
	}))
	t.Cleanup(server.Close)
	return server.URL
}

// UnreachableURL returns the address of a server that has already shut down
func UnreachableURL(t *testing.T) string {
	t.Helper()

	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()
	return url
}
