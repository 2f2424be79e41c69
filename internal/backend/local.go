package backend

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/DaDevFox/task-systems/taskboard/internal/domain"
	"github.com/DaDevFox/task-systems/taskboard/internal/kvstore"
)

// maxIDAttempts bounds the retries when a generated short ID collides
const maxIDAttempts = 8

// Local keeps the whole task collection as one JSON array under a single key.
// Every change rewrites the full collection; there are no partial writes.
type Local struct {
	kv     kvstore.Store
	key    string
	logger *logrus.Logger
	newID  func() string
}

// LocalOption configures a Local backend
type LocalOption func(*Local)

// WithLocalLogger sets the logger
func WithLocalLogger(logger *logrus.Logger) LocalOption {
	return func(l *Local) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithIDGenerator replaces the generator used when a draft carries no ID
func WithIDGenerator(newID func() string) LocalOption {
	return func(l *Local) {
		if newID != nil {
			l.newID = newID
		}
	}
}

// NewLocal creates a backend storing the collection under key in kv
func NewLocal(kv kvstore.Store, key string, opts ...LocalOption) *Local {
	l := &Local{
		kv:     kv,
		key:    key,
		logger: logrus.New(),
		newID:  domain.ShortID,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads the stored collection. A key that was never written is an empty
// collection; a value that is not a JSON task array is an error.
func (l *Local) Load(ctx context.Context) ([]domain.Task, error) {
	data, err := l.kv.Get(ctx, l.key)
	if err != nil {
		if errors.Is(err, kvstore.ErrKeyNotFound) {
			return []domain.Task{}, nil
		}
		return nil, errors.Wrap(err, "failed to read task collection")
	}

	var tasks []domain.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, errors.Wrap(err, "failed to decode task collection")
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	return tasks, nil
}

// Create appends a task built from draft and writes the collection. The draft
// ID is used when present, otherwise a short ID is generated.
func (l *Local) Create(ctx context.Context, draft domain.TaskDraft, current []domain.Task) (domain.Task, error) {
	id, err := l.assignID(draft.ID, current)
	if err != nil {
		return domain.Task{}, err
	}

	task := draft.Task(id)
	next := make([]domain.Task, 0, len(current)+1)
	next = append(next, current...)
	next = append(next, task)

	if err := l.write(ctx, next); err != nil {
		return domain.Task{}, err
	}

	l.logger.WithFields(logrus.Fields{
		"task_id": task.ID,
		"title":   task.Title,
		"status":  task.Status,
	}).Debug("task stored")
	return task.Clone(), nil
}

// Update replaces the task with the same ID and writes the collection
func (l *Local) Update(ctx context.Context, task domain.Task, current []domain.Task) (domain.Task, error) {
	index := indexOf(current, task.ID)
	if index < 0 {
		return domain.Task{}, ErrTaskNotFound
	}

	next := append([]domain.Task(nil), current...)
	next[index] = task

	if err := l.write(ctx, next); err != nil {
		return domain.Task{}, err
	}

	l.logger.WithField("task_id", task.ID).Debug("task rewritten")
	return task.Clone(), nil
}

// Delete drops the task with the given ID and writes the collection
func (l *Local) Delete(ctx context.Context, id string, current []domain.Task) error {
	if indexOf(current, id) < 0 {
		return ErrTaskNotFound
	}

	next := make([]domain.Task, 0, len(current))
	for _, t := range current {
		if t.ID != id {
			next = append(next, t)
		}
	}

	if err := l.write(ctx, next); err != nil {
		return err
	}

	l.logger.WithField("task_id", id).Debug("task removed from storage")
	return nil
}

func (l *Local) write(ctx context.Context, tasks []domain.Task) error {
	data, err := json.Marshal(tasks)
	if err != nil {
		return errors.Wrap(err, "failed to encode task collection")
	}
	if err := l.kv.Set(ctx, l.key, data); err != nil {
		return errors.Wrap(err, "failed to write task collection")
	}
	return nil
}

func (l *Local) assignID(requested string, current []domain.Task) (string, error) {
	if requested != "" {
		if indexOf(current, requested) >= 0 {
			return "", errors.Errorf("task with ID %s already exists", requested)
		}
		return requested, nil
	}

	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id := l.newID()
		if indexOf(current, id) < 0 {
			return id, nil
		}
	}
	return "", errors.New("failed to generate a unique task ID")
}

func indexOf(tasks []domain.Task, id string) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}
