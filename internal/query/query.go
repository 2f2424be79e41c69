// Package query derives display views from a task collection. Everything here
// is pure: inputs are never modified and no state survives between calls.
package query

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/DaDevFox/task-systems/taskboard/internal/domain"
)

// SortKey selects the display order of a view
type SortKey string

const (
	SortNone      SortKey = ""
	SortTitleAsc  SortKey = "title-asc"
	SortTitleDesc SortKey = "title-desc"
	SortDueAsc    SortKey = "due-asc"
	SortDueDesc   SortKey = "due-desc"
)

// SortKeys lists the selectable sort orders
var SortKeys = []SortKey{SortTitleAsc, SortTitleDesc, SortDueAsc, SortDueDesc}

// ParseSortKey accepts the canonical names plus "none" and the empty string
func ParseSortKey(value string) (SortKey, error) {
	switch key := SortKey(strings.ToLower(strings.TrimSpace(value))); key {
	case SortNone, SortTitleAsc, SortTitleDesc, SortDueAsc, SortDueDesc:
		return key, nil
	case "none":
		return SortNone, nil
	default:
		return SortNone, fmt.Errorf("unknown sort order %q (want one of title-asc, title-desc, due-asc, due-desc)", value)
	}
}

// Spec is a filter/sort specification. Nil filters match everything.
type Spec struct {
	Status   *domain.Status
	Priority *domain.Priority
	Sort     SortKey
}

// ByStatus returns a copy of s filtered to status
func (s Spec) ByStatus(status domain.Status) Spec {
	s.Status = &status
	return s
}

// ByPriority returns a copy of s filtered to priority
func (s Spec) ByPriority(priority domain.Priority) Spec {
	s.Priority = &priority
	return s
}

// SortedBy returns a copy of s with the given sort key
func (s Spec) SortedBy(key SortKey) Spec {
	s.Sort = key
	return s
}

// Matches reports whether a task passes every active filter
func (s Spec) Matches(task domain.Task) bool {
	if s.Status != nil && task.Status != *s.Status {
		return false
	}
	if s.Priority != nil && task.Priority != *s.Priority {
		return false
	}
	return true
}

// Apply returns the tasks that match spec, ordered by spec.Sort.
//
// Filters combine conjunctively. Title sorts use English collation, so
// letters order alphabetically across case with case breaking ties. Due date
// sorts treat an undated task as the Unix epoch. All sorts are stable, and
// with no sort key the input order is kept.
func Apply(tasks []domain.Task, spec Spec) []domain.Task {
	result := make([]domain.Task, 0, len(tasks))
	for _, task := range tasks {
		if spec.Matches(task) {
			result = append(result, task.Clone())
		}
	}

	switch spec.Sort {
	case SortTitleAsc, SortTitleDesc:
		collator := collate.New(language.English)
		sign := direction(spec.Sort == SortTitleAsc)
		slices.SortStableFunc(result, func(a, b domain.Task) int {
			return sign * collator.CompareString(a.Title, b.Title)
		})

	case SortDueAsc, SortDueDesc:
		sign := direction(spec.Sort == SortDueAsc)
		slices.SortStableFunc(result, func(a, b domain.Task) int {
			return sign * compareInt64(a.DueUnixMilli(), b.DueUnixMilli())
		})
	}

	return result
}

func direction(ascending bool) int {
	if ascending {
		return 1
	}
	return -1
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
