package apiserver

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/DaDevFox/task-systems/taskboard/internal/domain"
)

// ErrTaskNotFound is returned when a task is not found
var ErrTaskNotFound = errors.New("task not found")

// TaskRepository is the storage behind the task resource
type TaskRepository interface {
	// Create assigns an ID and timestamps to draft and stores it
	Create(ctx context.Context, draft domain.TaskDraft) (domain.Task, error)

	// GetByID retrieves a task by its ID
	GetByID(ctx context.Context, id string) (domain.Task, error)

	// Update replaces the editable fields of a task
	Update(ctx context.Context, id string, draft domain.TaskDraft) (domain.Task, error)

	// Delete removes a task
	Delete(ctx context.Context, id string) error

	// ListAll returns all tasks in creation order
	ListAll(ctx context.Context) ([]domain.Task, error)
}

// InMemoryTaskRepository is a simple in-memory implementation of TaskRepository
type InMemoryTaskRepository struct {
	tasks map[string]*domain.Task
	order []string
	mutex sync.RWMutex
	now   func() time.Time
}

// NewInMemoryTaskRepository creates a new in-memory task repository
func NewInMemoryTaskRepository() *InMemoryTaskRepository {
	return &InMemoryTaskRepository{
		tasks: make(map[string]*domain.Task),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a new task with a server generated ID
func (r *InMemoryTaskRepository) Create(ctx context.Context, draft domain.TaskDraft) (domain.Task, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	now := r.now()
	task := draft.Task(uuid.New().String())
	task.CreatedAt = &now
	updated := now
	task.UpdatedAt = &updated

	r.tasks[task.ID] = &task
	r.order = append(r.order, task.ID)
	return task.Clone(), nil
}

// GetByID retrieves a task by its ID
func (r *InMemoryTaskRepository) GetByID(ctx context.Context, id string) (domain.Task, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	task, exists := r.tasks[id]
	if !exists {
		return domain.Task{}, ErrTaskNotFound
	}

	// Return a copy to avoid external modifications
	return task.Clone(), nil
}

// Update replaces the editable fields and refreshes UpdatedAt
func (r *InMemoryTaskRepository) Update(ctx context.Context, id string, draft domain.TaskDraft) (domain.Task, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	existing, exists := r.tasks[id]
	if !exists {
		return domain.Task{}, ErrTaskNotFound
	}

	task := draft.Task(id)
	task.CreatedAt = existing.CreatedAt
	now := r.now()
	task.UpdatedAt = &now

	r.tasks[id] = &task
	return task.Clone(), nil
}

// Delete removes a task
func (r *InMemoryTaskRepository) Delete(ctx context.Context, id string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.tasks[id]; !exists {
		return ErrTaskNotFound
	}

	delete(r.tasks, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// ListAll returns all tasks
func (r *InMemoryTaskRepository) ListAll(ctx context.Context) ([]domain.Task, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	tasks := make([]domain.Task, 0, len(r.order))
	for _, id := range r.order {
		tasks = append(tasks, r.tasks[id].Clone())
	}
	return tasks, nil
}
