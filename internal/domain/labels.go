package domain

import "time"

// Severity is the display emphasis given to a status or priority
type Severity string

const (
	SeveritySuccess   Severity = "success"
	SeverityWarn      Severity = "warn"
	SeverityDanger    Severity = "danger"
	SeverityInfo      Severity = "info"
	SeveritySecondary Severity = "secondary"
)

// Label returns the human readable status name, "Unknown" for anything invalid
func (s Status) Label() string {
	switch s {
	case StatusTodo:
		return "Todo"
	case StatusInProgress:
		return "In Progress"
	case StatusDone:
		return "Done"
	default:
		return "Unknown"
	}
}

// Severity maps the status onto a display severity
func (s Status) Severity() Severity {
	switch s {
	case StatusDone:
		return SeveritySuccess
	case StatusInProgress:
		return SeverityWarn
	case StatusTodo:
		return SeverityInfo
	default:
		return SeveritySecondary
	}
}

// Label returns the human readable priority name. Invalid priorities render
// as the generic "Priority" placeholder.
func (p Priority) Label() string {
	switch p {
	case PriorityLow:
		return "Low"
	case PriorityMedium:
		return "Medium"
	case PriorityHigh:
		return "High"
	default:
		return "Priority"
	}
}

// Severity maps the priority onto a display severity
func (p Priority) Severity() Severity {
	switch p {
	case PriorityMedium:
		return SeverityWarn
	case PriorityHigh:
		return SeverityDanger
	default:
		return SeveritySecondary
	}
}

// nearDueWindow is how far ahead a due date counts as near
const nearDueWindow = 24 * time.Hour

// NoDueDate is shown in place of a formatted due date for undated tasks
const NoDueDate = "—"

// DueState describes a task's due date relative to a reference time
type DueState struct {
	Formatted string
	PastDue   bool
	NearDue   bool
}

// Urgent reports whether the task is overdue or due within the next day
func (d DueState) Urgent() bool {
	return d.PastDue || d.NearDue
}

// DueState evaluates the due date against now
func (t Task) DueState(now time.Time) DueState {
	if t.DueDate == nil {
		return DueState{Formatted: NoDueDate}
	}

	due := *t.DueDate
	diff := due.Sub(now)
	return DueState{
		Formatted: due.UTC().Format("2006-01-02"),
		PastDue:   due.Before(now),
		NearDue:   diff > 0 && diff <= nearDueWindow,
	}
}

// StatusSeverity is the status severity with urgency applied: a todo task that
// is overdue or nearly due is raised to danger.
func (t Task) StatusSeverity(now time.Time) Severity {
	if t.Status == StatusTodo && t.DueState(now).Urgent() {
		return SeverityDanger
	}
	return t.Status.Severity()
}
