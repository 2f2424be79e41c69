// Package backend implements the storage capability behind the task
// repository. A Backend either keeps the whole collection in a durable
// key-value store or forwards each change to a remote HTTP task resource.
package backend

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/DaDevFox/task-systems/taskboard/internal/config"
	"github.com/DaDevFox/task-systems/taskboard/internal/domain"
	"github.com/DaDevFox/task-systems/taskboard/internal/kvstore"
)

// Backend persists tasks on behalf of the repository.
//
// current is the repository's collection before the change. Backends that
// persist the whole collection derive the new state from it; backends that
// persist per task may ignore it. A backend returns the canonical task as the
// store sees it after the change.
type Backend interface {
	// Load returns the full stored collection
	Load(ctx context.Context) ([]domain.Task, error)

	// Create stores a new task built from draft
	Create(ctx context.Context, draft domain.TaskDraft, current []domain.Task) (domain.Task, error)

	// Update replaces the stored task with the same ID
	Update(ctx context.Context, task domain.Task, current []domain.Task) (domain.Task, error)

	// Delete removes the stored task with the given ID
	Delete(ctx context.Context, id string, current []domain.Task) error
}

// ErrTaskNotFound is returned when a task is not found
var ErrTaskNotFound = errors.New("task not found")

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New builds the backend selected by cfg. The returned closer releases the
// underlying store and must be closed when the backend is no longer used.
func New(cfg *config.Config, logger *logrus.Logger) (Backend, io.Closer, error) {
	if logger == nil {
		logger = logrus.New()
	}

	switch cfg.Backend {
	case config.BackendLocal:
		kv, err := kvstore.Open(kvstore.Config{
			Engine: cfg.Local.Engine,
			Path:   cfg.Local.Path,
			Logger: logger,
		})
		if err != nil {
			return nil, nil, errors.Wrapf(err, "failed to open %s store", cfg.Local.Engine)
		}
		logger.WithFields(logrus.Fields{
			"engine": cfg.Local.Engine,
			"path":   cfg.Local.Path,
		}).Debug("initialized local task storage")
		return NewLocal(kv, cfg.Local.Key, WithLocalLogger(logger)), kv, nil

	case config.BackendRemote:
		timeout, err := cfg.Remote.TimeoutDuration()
		if err != nil {
			return nil, nil, err
		}
		remote, err := NewRemote(cfg.Remote.BaseURL, WithTimeout(timeout), WithRemoteLogger(logger))
		if err != nil {
			return nil, nil, err
		}
		logger.WithField("base_url", cfg.Remote.BaseURL).Debug("initialized remote task storage")
		return remote, nopCloser{}, nil

	default:
		return nil, nil, errors.Errorf("unsupported backend: %s", cfg.Backend)
	}
}
