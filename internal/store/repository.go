// Package store holds the authoritative in-memory task collection and keeps it
// synchronised with a storage backend.
package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/DaDevFox/task-systems/taskboard/internal/backend"
	"github.com/DaDevFox/task-systems/taskboard/internal/domain"
	"github.com/DaDevFox/task-systems/taskboard/internal/events"
	"github.com/DaDevFox/task-systems/taskboard/internal/query"
)

// Operation names carried by DataAccessError and storage.failed events
const (
	OpLoad   = "load"
	OpAdd    = "add"
	OpUpdate = "update"
	OpDelete = "delete"
)

// DataAccessError reports a backend failure. The collection is unchanged
// when it is returned, except after a failed Load which leaves it empty.
type DataAccessError struct {
	Op  string
	Err error
}

func (e *DataAccessError) Error() string {
	return fmt.Sprintf("task %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the backend error
func (e *DataAccessError) Unwrap() error { return e.Err }

// Cause returns the backend error for errors.Cause
func (e *DataAccessError) Cause() error { return e.Err }

// IsDataAccess reports whether err came from the storage backend
func IsDataAccess(err error) bool {
	var dataErr *DataAccessError
	return errors.As(err, &dataErr)
}

// Repository owns the task collection
type Repository struct {
	backend backend.Backend
	logger  *logrus.Logger
	bus     *events.PubSub

	// mu guards tasks and is never held across backend I/O
	mu    sync.RWMutex
	tasks []domain.Task

	// writeMu serialises mutators
	writeMu sync.Mutex
}

// Option configures a Repository
type Option func(*Repository)

// WithLogger sets the logger
func WithLogger(logger *logrus.Logger) Option {
	return func(r *Repository) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithEvents sets the bus that change notifications are published on
func WithEvents(bus *events.PubSub) Option {
	return func(r *Repository) {
		if bus != nil {
			r.bus = bus
		}
	}
}

// New creates an empty repository over b. Call Load to read stored tasks.
func New(b backend.Backend, opts ...Option) *Repository {
	r := &Repository{
		backend: b,
		logger:  logrus.New(),
		tasks:   []domain.Task{},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.bus == nil {
		r.bus = events.NewPubSub(r.logger)
	}
	return r
}

// Load replaces the collection with the backend's contents. On failure the
// collection is left empty.
func (r *Repository) Load(ctx context.Context) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	tasks, err := r.backend.Load(ctx)
	if err != nil {
		r.replace([]domain.Task{})
		return r.failed(ctx, OpLoad, "", err)
	}

	r.replace(domain.CloneTasks(tasks))
	r.logger.WithField("count", len(tasks)).Debug("tasks loaded")
	r.bus.Publish(ctx, events.Event{Type: events.EventTasksLoaded, Count: len(tasks)})
	return nil
}

// Add stores a new task and appends the backend's canonical version
func (r *Repository) Add(ctx context.Context, draft domain.TaskDraft) (domain.Task, error) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	created, err := r.backend.Create(ctx, draft, r.Tasks())
	if err != nil {
		return domain.Task{}, r.failed(ctx, OpAdd, draft.ID, err)
	}

	r.mu.Lock()
	r.tasks = append(r.tasks, created.Clone())
	r.mu.Unlock()

	r.logger.WithFields(logrus.Fields{
		"task_id": created.ID,
		"title":   created.Title,
		"status":  created.Status,
	}).Info("task added")
	r.publish(ctx, events.EventTaskCreated, created)
	return created.Clone(), nil
}

// Update writes task and replaces the entry with the same ID. An unknown ID
// is a no-op.
func (r *Repository) Update(ctx context.Context, task domain.Task) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	current := r.Tasks()
	if indexOf(current, task.ID) < 0 {
		r.logger.WithField("task_id", task.ID).Debug("update of unknown task ignored")
		return nil
	}

	updated, err := r.backend.Update(ctx, task.Clone(), current)
	if err != nil {
		return r.failed(ctx, OpUpdate, task.ID, err)
	}
	if updated.ID == "" {
		updated.ID = task.ID
	}

	r.mu.Lock()
	if i := indexOf(r.tasks, task.ID); i >= 0 {
		r.tasks[i] = updated.Clone()
	}
	r.mu.Unlock()

	r.logger.WithFields(logrus.Fields{
		"task_id": updated.ID,
		"status":  updated.Status,
	}).Info("task updated")
	r.publish(ctx, events.EventTaskUpdated, updated)
	return nil
}

// Delete removes the task with id. An unknown ID is a no-op.
func (r *Repository) Delete(ctx context.Context, id string) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	current := r.Tasks()
	index := indexOf(current, id)
	if index < 0 {
		r.logger.WithField("task_id", id).Debug("delete of unknown task ignored")
		return nil
	}
	removed := current[index]

	if err := r.backend.Delete(ctx, id, current); err != nil {
		return r.failed(ctx, OpDelete, id, err)
	}

	r.mu.Lock()
	if i := indexOf(r.tasks, id); i >= 0 {
		r.tasks = append(r.tasks[:i:i], r.tasks[i+1:]...)
	}
	r.mu.Unlock()

	r.logger.WithField("task_id", id).Info("task deleted")
	r.publish(ctx, events.EventTaskDeleted, removed)
	return nil
}

// Tasks returns a copy of the collection in stored order
func (r *Repository) Tasks() []domain.Task {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return domain.CloneTasks(r.tasks)
}

// Get returns the task with id
func (r *Repository) Get(id string) (domain.Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if i := indexOf(r.tasks, id); i >= 0 {
		return r.tasks[i].Clone(), true
	}
	return domain.Task{}, false
}

// Len returns the number of tasks
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks)
}

// View filters and sorts a copy of the collection
func (r *Repository) View(spec query.Spec) []domain.Task {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return query.Apply(r.tasks, spec)
}

// Subscribe registers handler for change notifications of eventType
func (r *Repository) Subscribe(eventType events.EventType, handler events.Handler) {
	r.bus.Subscribe(eventType, handler)
}

func (r *Repository) replace(tasks []domain.Task) {
	r.mu.Lock()
	r.tasks = tasks
	r.mu.Unlock()
}

func (r *Repository) publish(ctx context.Context, eventType events.EventType, task domain.Task) {
	snapshot := task.Clone()
	r.bus.Publish(ctx, events.Event{
		Type:   eventType,
		TaskID: task.ID,
		Task:   &snapshot,
	})
}

func (r *Repository) failed(ctx context.Context, op, taskID string, err error) error {
	r.logger.WithError(err).WithFields(logrus.Fields{
		"op":      op,
		"task_id": taskID,
	}).Error("task storage operation failed")

	r.bus.Publish(ctx, events.Event{
		Type:   events.EventStorageFailed,
		Op:     op,
		TaskID: taskID,
		Err:    err,
	})
	return &DataAccessError{Op: op, Err: err}
}

func indexOf(tasks []domain.Task, id string) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}
