package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/ktr0731/go-fuzzyfinder"

	"github.com/DaDevFox/task-systems/taskboard/internal/domain"
)

// fuzzyPick opens a terminal fuzzy finder over tasks with a detail preview
func fuzzyPick(tasks []domain.Task) (domain.Task, error) {
	now := time.Now()

	idx, err := fuzzyfinder.Find(
		tasks,
		func(i int) string {
			return fmt.Sprintf("%s  [%s] %s", tasks[i].Title, tasks[i].Status.Label(), tasks[i].ID)
		},
		fuzzyfinder.WithPromptString("task> "),
		fuzzyfinder.WithPreviewWindow(func(i, width, height int) string {
			if i < 0 {
				return ""
			}
			return previewTask(tasks[i], now)
		}),
	)
	if err != nil {
		if err == fuzzyfinder.ErrAbort {
			return domain.Task{}, fmt.Errorf("selection cancelled")
		}
		return domain.Task{}, err
	}
	return tasks[idx], nil
}

func previewTask(task domain.Task, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", task.Title)
	fmt.Fprintf(&b, "ID:       %s\n", task.ID)
	fmt.Fprintf(&b, "Status:   %s\n", task.Status.Label())
	fmt.Fprintf(&b, "Priority: %s\n", task.Priority.Label())

	due := task.DueState(now)
	fmt.Fprintf(&b, "Due:      %s", due.Formatted)
	switch {
	case due.PastDue:
		b.WriteString(" (overdue)")
	case due.NearDue:
		b.WriteString(" (due soon)")
	}
	b.WriteString("\n")

	if task.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", task.Description)
	}
	return b.String()
}
