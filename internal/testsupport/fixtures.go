package testsupport

import (
	"time"

	"github.com/DaDevFox/task-systems/taskboard/internal/domain"
)

// Date parses a YYYY-MM-DD date at UTC midnight and returns a pointer to it
func Date(value string) *time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return &t
}

// FilterSortTasks is the four task fixture used by the filter and sort tests:
// mixed status and priority, distinct titles and due dates.
func FilterSortTasks() []domain.Task {
	return []domain.Task{
		{
			ID:        "1",
			Title:     "Alpha",
			Status:    domain.StatusTodo,
			Priority:  domain.PriorityLow,
			DueDate:   Date("2025-10-22"),
			CreatedAt: Date("2025-09-01"),
			UpdatedAt: Date("2025-09-01"),
		},
		{
			ID:        "2",
			Title:     "Bravo",
			Status:    domain.StatusInProgress,
			Priority:  domain.PriorityHigh,
			DueDate:   Date("2025-10-20"),
			CreatedAt: Date("2025-09-02"),
			UpdatedAt: Date("2025-09-02"),
		},
		{
			ID:        "3",
			Title:     "Charlie",
			Status:    domain.StatusDone,
			Priority:  domain.PriorityMedium,
			DueDate:   Date("2025-11-01"),
			CreatedAt: Date("2025-09-03"),
			UpdatedAt: Date("2025-09-03"),
		},
		{
			ID:        "4",
			Title:     "Delta",
			Status:    domain.StatusTodo,
			Priority:  domain.PriorityHigh,
			DueDate:   Date("2025-09-18"),
			CreatedAt: Date("2025-09-04"),
			UpdatedAt: Date("2025-09-04"),
		},
	}
}

// BaseTasks is a small general purpose collection
func BaseTasks() []domain.Task {
	return []domain.Task{
		{
			ID:          "1",
			Title:       "Test Task",
			Description: "Test Description",
			Status:      domain.StatusTodo,
			Priority:    domain.PriorityMedium,
			DueDate:     Date("2025-10-15"),
		},
		{
			ID:          "2",
			Title:       "Alpha Task",
			Description: "Another test task",
			Status:      domain.StatusInProgress,
			Priority:    domain.PriorityHigh,
			DueDate:     Date("2025-10-20"),
		},
		{
			ID:          "3",
			Title:       "Bravo Task",
			Description: "Completed task",
			Status:      domain.StatusDone,
			Priority:    domain.PriorityLow,
			DueDate:     Date("2025-09-18"),
		},
	}
}

// IDs returns the IDs of tasks in order
func IDs(tasks []domain.Task) []string {
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	return ids
}

// Titles returns the titles of tasks in order
func Titles(tasks []domain.Task) []string {
	titles := make([]string, len(tasks))
	for i, t := range tasks {
		titles[i] = t.Title
	}
	return titles
}
