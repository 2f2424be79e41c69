package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/DaDevFox/task-systems/taskboard/internal/config"
	"github.com/DaDevFox/task-systems/taskboard/internal/domain"
	"github.com/DaDevFox/task-systems/taskboard/internal/idresolver"
)

var severityColors = map[domain.Severity]*color.Color{
	domain.SeveritySuccess:   color.New(color.FgGreen),
	domain.SeverityWarn:      color.New(color.FgYellow),
	domain.SeverityDanger:    color.New(color.FgRed, color.Bold),
	domain.SeverityInfo:      color.New(color.FgCyan),
	domain.SeveritySecondary: color.New(color.FgHiBlack),
}

func paint(severity domain.Severity, text string) string {
	c, ok := severityColors[severity]
	if !ok {
		return text
	}
	return c.Sprint(text)
}

func dueLabel(task domain.Task, now time.Time) string {
	state := task.DueState(now)
	switch {
	case state.PastDue:
		return paint(domain.SeverityDanger, state.Formatted)
	case state.NearDue:
		return paint(domain.SeverityWarn, state.Formatted)
	default:
		return state.Formatted
	}
}

// renderTable writes one row per task. IDs are shown as their shortest
// unique prefix.
func renderTable(w io.Writer, tasks []domain.Task, resolver *idresolver.Resolver, now time.Time) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tPRIORITY\tDUE\tTITLE")
	prefixes := resolver.Prefixes()
	for _, task := range tasks {
		short, ok := prefixes[task.ID]
		if !ok {
			short = task.ID
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			short,
			paint(task.StatusSeverity(now), task.Status.Label()),
			paint(task.Priority.Severity(), task.Priority.Label()),
			dueLabel(task, now),
			task.Title,
		)
	}
	tw.Flush()
}

func renderDetails(w io.Writer, task domain.Task, resolver *idresolver.Resolver, now time.Time) {
	fmt.Fprintf(w, "Task Details:\n")
	fmt.Fprintf(w, "  ID: %s\n", task.ID)
	fmt.Fprintf(w, "  Short ID: %s\n", resolver.MinimumUniquePrefix(task.ID))
	fmt.Fprintf(w, "  Title: %s\n", task.Title)
	fmt.Fprintf(w, "  Description: %s\n", task.Description)
	fmt.Fprintf(w, "  Status: %s\n", paint(task.StatusSeverity(now), task.Status.Label()))
	fmt.Fprintf(w, "  Priority: %s\n", paint(task.Priority.Severity(), task.Priority.Label()))
	fmt.Fprintf(w, "  Due: %s\n", dueLabel(task, now))
	if task.CreatedAt != nil {
		fmt.Fprintf(w, "  Created: %s\n", task.CreatedAt.Format(time.RFC3339))
	}
	if task.UpdatedAt != nil {
		fmt.Fprintf(w, "  Updated: %s\n", task.UpdatedAt.Format(time.RFC3339))
	}
}

func renderConfig(w io.Writer, cfg *config.Config) {
	fmt.Fprintf(w, "Current Configuration:\n")
	fmt.Fprintf(w, "  Backend: %s\n", cfg.Backend)
	fmt.Fprintf(w, "  Local Engine: %s\n", cfg.Local.Engine)
	fmt.Fprintf(w, "  Local Path: %s\n", cfg.Local.Path)
	fmt.Fprintf(w, "  Local Key: %s\n", cfg.Local.Key)
	fmt.Fprintf(w, "  Remote URL: %s\n", cfg.Remote.BaseURL)
	fmt.Fprintf(w, "  Remote Timeout: %s\n", cfg.Remote.Timeout)
	fmt.Fprintf(w, "  Log Level: %s\n", cfg.Log.Level)
	fmt.Fprintf(w, "  Log Format: %s\n", cfg.Log.Format)
}
