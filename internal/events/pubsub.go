// Package events carries change notifications from the task repository to
// whoever is interested in them.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/DaDevFox/task-systems/taskboard/internal/domain"
)

// EventType names a kind of repository notification
type EventType string

const (
	EventTasksLoaded   EventType = "tasks.loaded"
	EventTaskCreated   EventType = "task.created"
	EventTaskUpdated   EventType = "task.updated"
	EventTaskDeleted   EventType = "task.deleted"
	EventStorageFailed EventType = "storage.failed"
)

// Event describes a change to the task collection, or a failed attempt at one.
// Task is a snapshot; Count is set for tasks.loaded; Op and Err for
// storage.failed.
type Event struct {
	Type      EventType
	Op        string
	TaskID    string
	Task      *domain.Task
	Count     int
	Err       error
	Timestamp time.Time
}

// Handler reacts to an event. A returned error is logged and otherwise ignored.
type Handler func(ctx context.Context, event Event) error

// PubSub fans events out to subscribers. Delivery is asynchronous: Publish
// returns before handlers run. Use Wait to block until they have finished.
type PubSub struct {
	mu          sync.RWMutex
	subscribers map[EventType][]Handler
	inflight    sync.WaitGroup
	logger      *logrus.Logger
}

// NewPubSub creates an empty bus
func NewPubSub(logger *logrus.Logger) *PubSub {
	if logger == nil {
		logger = logrus.New()
	}
	return &PubSub{
		subscribers: make(map[EventType][]Handler),
		logger:      logger,
	}
}

// Subscribe adds handler for eventType. Nil handlers are ignored.
func (ps *PubSub) Subscribe(eventType EventType, handler Handler) {
	if handler == nil {
		ps.logger.WithField("event_type", eventType).Warn("ignoring nil event handler")
		return
	}

	ps.mu.Lock()
	ps.subscribers[eventType] = append(ps.subscribers[eventType], handler)
	count := len(ps.subscribers[eventType])
	ps.mu.Unlock()

	ps.logger.WithFields(logrus.Fields{
		"event_type":  eventType,
		"subscribers": count,
	}).Debug("event handler subscribed")
}

// Publish stamps event and delivers it to every subscriber of its type on a
// separate goroutine. Events without a type are dropped.
func (ps *PubSub) Publish(ctx context.Context, event Event) {
	if event.Type == "" {
		ps.logger.Warn("dropping event without a type")
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	ps.mu.RLock()
	handlers := append([]Handler(nil), ps.subscribers[event.Type]...)
	ps.mu.RUnlock()

	entry := ps.logger.WithFields(logrus.Fields{
		"event_type": event.Type,
		"task_id":    event.TaskID,
	})
	if len(handlers) == 0 {
		entry.Debug("event has no subscribers")
		return
	}
	entry.WithField("subscribers", len(handlers)).Debug("delivering event")

	ps.inflight.Add(len(handlers))
	for _, handler := range handlers {
		go ps.deliver(ctx, handler, event)
	}
}

func (ps *PubSub) deliver(ctx context.Context, handler Handler, event Event) {
	defer ps.inflight.Done()

	if err := handler(ctx, event); err != nil {
		ps.logger.WithError(err).WithFields(logrus.Fields{
			"event_type": event.Type,
			"task_id":    event.TaskID,
		}).Error("event handler failed")
	}
}

// Wait blocks until every handler started by Publish so far has returned
func (ps *PubSub) Wait() {
	ps.inflight.Wait()
}

// HandlerCount returns the number of subscribers for eventType
func (ps *PubSub) HandlerCount(eventType EventType) int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return len(ps.subscribers[eventType])
}

// Clear drops the subscribers of eventType, or of every type when eventType is
// empty.
func (ps *PubSub) Clear(eventType EventType) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if eventType == "" {
		ps.subscribers = make(map[EventType][]Handler)
		return
	}
	delete(ps.subscribers, eventType)
}
