package apiserver

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/DaDevFox/task-systems/taskboard/internal/domain"
)

// TaskController handles HTTP requests for tasks.
type TaskController struct {
	repo   TaskRepository
	logger *logrus.Logger
}

// NewTaskController creates a new TaskController.
func NewTaskController(repo TaskRepository, logger *logrus.Logger) *TaskController {
	if logger == nil {
		logger = logrus.New()
	}
	return &TaskController{repo: repo, logger: logger}
}

// GetTasks handles GET /tasks.
func (c *TaskController) GetTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := c.repo.ListAll(r.Context())
	if err != nil {
		c.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

// CreateTask handles POST /tasks.
func (c *TaskController) CreateTask(w http.ResponseWriter, r *http.Request) {
	var draft domain.TaskDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	task, err := c.repo.Create(r.Context(), draft)
	if err != nil {
		c.fail(w, err)
		return
	}

	c.logger.WithFields(logrus.Fields{
		"task_id": task.ID,
		"title":   task.Title,
	}).Info("task created")
	writeJSON(w, http.StatusCreated, task)
}

// GetTaskByID handles GET /tasks/{taskID}.
func (c *TaskController) GetTaskByID(w http.ResponseWriter, r *http.Request) {
	task, err := c.repo.GetByID(r.Context(), mux.Vars(r)["taskID"])
	if err != nil {
		c.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// UpdateTask handles PUT /tasks/{taskID}.
func (c *TaskController) UpdateTask(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["taskID"]

	var draft domain.TaskDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	task, err := c.repo.Update(r.Context(), taskID, draft)
	if err != nil {
		c.fail(w, err)
		return
	}

	c.logger.WithField("task_id", task.ID).Info("task updated")
	writeJSON(w, http.StatusOK, task)
}

// DeleteTask handles DELETE /tasks/{taskID}.
func (c *TaskController) DeleteTask(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["taskID"]
	if err := c.repo.Delete(r.Context(), taskID); err != nil {
		c.fail(w, err)
		return
	}

	c.logger.WithField("task_id", taskID).Info("task deleted")
	w.WriteHeader(http.StatusNoContent)
}

func (c *TaskController) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrTaskNotFound) {
		http.Error(w, "Task not found", http.StatusNotFound)
		return
	}
	c.logger.WithError(err).Error("task request failed")
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
