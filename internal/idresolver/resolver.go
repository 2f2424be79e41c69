// Package idresolver resolves abbreviated task IDs typed on the command line.
package idresolver

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/pkg/errors"

	"github.com/DaDevFox/task-systems/taskboard/internal/domain"
)

// ErrNoMatch is returned when no task ID starts with the given prefix
var ErrNoMatch = errors.New("no matching task")

// AmbiguousError is returned when a prefix matches more than one task
type AmbiguousError struct {
	Prefix  string
	Matches []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous task ID '%s', matches: %s", e.Prefix, strings.Join(e.Matches, ", "))
}

type trieNode struct {
	children map[rune]*trieNode
	taskIDs  []string // task IDs that have this prefix
}

func newTrieNode() *trieNode {
	return &trieNode{children: make(map[rune]*trieNode)}
}

// Resolver maps unique ID prefixes to tasks. Matching is case-insensitive.
// A Resolver is not safe for concurrent use; rebuild it with Update when the
// collection changes.
type Resolver struct {
	root    *trieNode
	taskMap map[string]domain.Task
}

// New creates a resolver over tasks
func New(tasks []domain.Task) *Resolver {
	r := &Resolver{}
	r.Update(tasks)
	return r
}

// Update replaces the indexed tasks
func (r *Resolver) Update(tasks []domain.Task) {
	r.root = newTrieNode()
	r.taskMap = make(map[string]domain.Task, len(tasks))

	for _, task := range tasks {
		if task.ID == "" {
			continue
		}
		r.taskMap[task.ID] = task.Clone()
		r.insert(task.ID)
	}
}

func (r *Resolver) insert(taskID string) {
	node := r.root
	node.taskIDs = append(node.taskIDs, taskID)
	for _, ch := range taskID {
		ch = unicode.ToLower(ch)
		child, exists := node.children[ch]
		if !exists {
			child = newTrieNode()
			node.children[ch] = child
		}
		node = child
		node.taskIDs = append(node.taskIDs, taskID)
	}
}

func (r *Resolver) matches(prefix string) []string {
	node := r.root
	for _, ch := range prefix {
		child, exists := node.children[unicode.ToLower(ch)]
		if !exists {
			return nil
		}
		node = child
	}
	return node.taskIDs
}

// Resolve returns the full ID for prefix. An exact ID always wins, even when
// it is also the prefix of a longer ID.
func (r *Resolver) Resolve(prefix string) (string, error) {
	if prefix == "" {
		return "", errors.New("empty task ID provided")
	}
	if _, exists := r.taskMap[prefix]; exists {
		return prefix, nil
	}

	found := r.matches(prefix)
	switch len(found) {
	case 0:
		return "", errors.Wrapf(ErrNoMatch, "no task found with prefix '%s'", prefix)
	case 1:
		return found[0], nil
	}

	// an exact case-insensitive match is still unambiguous
	for _, id := range found {
		if strings.EqualFold(id, prefix) {
			return id, nil
		}
	}

	sorted := append([]string(nil), found...)
	sort.Strings(sorted)
	return "", &AmbiguousError{Prefix: prefix, Matches: sorted}
}

// Task returns the task identified by prefix
func (r *Resolver) Task(prefix string) (domain.Task, error) {
	id, err := r.Resolve(prefix)
	if err != nil {
		return domain.Task{}, err
	}
	return r.taskMap[id].Clone(), nil
}

// MinimumUniquePrefix returns the shortest prefix that resolves to taskID.
// Unknown IDs and IDs that are a prefix of another ID come back whole.
func (r *Resolver) MinimumUniquePrefix(taskID string) string {
	if _, exists := r.taskMap[taskID]; !exists {
		return taskID
	}

	node := r.root
	var prefix strings.Builder
	for _, ch := range taskID {
		prefix.WriteRune(ch)
		child, exists := node.children[unicode.ToLower(ch)]
		if !exists {
			return taskID
		}
		node = child
		if len(node.taskIDs) == 1 {
			return prefix.String()
		}
	}
	return taskID
}

// Prefixes returns the minimum unique prefix of every indexed task
func (r *Resolver) Prefixes() map[string]string {
	result := make(map[string]string, len(r.taskMap))
	for taskID := range r.taskMap {
		result[taskID] = r.MinimumUniquePrefix(taskID)
	}
	return result
}

// Suggest lists up to max task IDs starting with prefix, sorted. A negative
// max means no limit.
func (r *Resolver) Suggest(prefix string, max int) []string {
	suggestions := append([]string(nil), r.matches(prefix)...)
	sort.Strings(suggestions)
	if max >= 0 && len(suggestions) > max {
		suggestions = suggestions[:max]
	}
	return suggestions
}
