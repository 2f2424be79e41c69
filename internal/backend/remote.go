package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/DaDevFox/task-systems/taskboard/internal/domain"
)

// maxErrorBody caps how much of a failed response body is kept for the error
const maxErrorBody = 512

// StatusError reports a non-success response from the task resource
type StatusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.Code)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Remote talks to an HTTP task collection:
//
//	GET    {base}/tasks       full collection
//	POST   {base}/tasks       create, returns the canonical task
//	PUT    {base}/tasks/{id}  update, returns the canonical task
//	DELETE {base}/tasks/{id}  delete
//
// Each call issues exactly one request and never retries.
type Remote struct {
	collection string
	client     *http.Client
	logger     *logrus.Logger
}

// RemoteOption configures a Remote backend
type RemoteOption func(*Remote)

// WithTimeout bounds every request; zero leaves requests unbounded
func WithTimeout(timeout time.Duration) RemoteOption {
	return func(r *Remote) {
		if timeout > 0 {
			client := *r.client
			client.Timeout = timeout
			r.client = &client
		}
	}
}

// WithRemoteLogger sets the logger
func WithRemoteLogger(logger *logrus.Logger) RemoteOption {
	return func(r *Remote) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRemote creates a backend for the task resource rooted at baseURL
func NewRemote(baseURL string, opts ...RemoteOption) (*Remote, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid task API URL %q", baseURL)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, errors.Errorf("task API URL %q must use http or https", baseURL)
	}

	r := &Remote{
		collection: strings.TrimRight(baseURL, "/") + "/tasks",
		client:     &http.Client{},
		logger:     logrus.New(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Load fetches the full collection
func (r *Remote) Load(ctx context.Context) ([]domain.Task, error) {
	var tasks []domain.Task
	if err := r.do(ctx, http.MethodGet, r.collection, nil, &tasks); err != nil {
		return nil, errors.Wrap(err, "failed to fetch tasks")
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	return tasks, nil
}

// Create posts the draft; the resource assigns id and timestamps
func (r *Remote) Create(ctx context.Context, draft domain.TaskDraft, _ []domain.Task) (domain.Task, error) {
	draft.ID = ""

	var created domain.Task
	if err := r.do(ctx, http.MethodPost, r.collection, draft, &created); err != nil {
		return domain.Task{}, errors.Wrap(err, "failed to create task")
	}
	if created.ID == "" {
		return domain.Task{}, errors.New("failed to create task: response carried no task ID")
	}
	return created, nil
}

// Update puts the editable fields of task to its address
func (r *Remote) Update(ctx context.Context, task domain.Task, _ []domain.Task) (domain.Task, error) {
	var updated domain.Task
	if err := r.do(ctx, http.MethodPut, r.taskURL(task.ID), task.Draft(), &updated); err != nil {
		return domain.Task{}, errors.Wrapf(err, "failed to update task %s", task.ID)
	}
	if updated.ID == "" {
		updated.ID = task.ID
	}
	return updated, nil
}

// Delete removes the task at its address
func (r *Remote) Delete(ctx context.Context, id string, _ []domain.Task) error {
	if err := r.do(ctx, http.MethodDelete, r.taskURL(id), nil, nil); err != nil {
		return errors.Wrapf(err, "failed to delete task %s", id)
	}
	return nil
}

func (r *Remote) taskURL(id string) string {
	return r.collection + "/" + url.PathEscape(id)
}

func (r *Remote) do(ctx context.Context, method, target string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "failed to encode request body")
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return errors.Wrap(err, "failed to build request")
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, target)
	}
	defer resp.Body.Close()

	r.logger.WithFields(logrus.Fields{
		"method":   method,
		"url":      target,
		"status":   resp.StatusCode,
		"duration": time.Since(start).String(),
	}).Debug("task API request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Method: method,
			URL:    target,
			Code:   resp.StatusCode,
			Body:   strings.TrimSpace(string(snippet)),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "failed to decode response body")
	}
	return nil
}
