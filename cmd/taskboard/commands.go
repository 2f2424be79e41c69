package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/DaDevFox/task-systems/taskboard/internal/config"
	"github.com/DaDevFox/task-systems/taskboard/internal/domain"
	"github.com/DaDevFox/task-systems/taskboard/internal/kvstore"
	"github.com/DaDevFox/task-systems/taskboard/internal/query"
)

const dueDateLayout = "2006-01-02"

func newAddCommand(a *app) *cobra.Command {
	var description, status, priority, due string

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a new task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			draft := domain.NewDraft(strings.Join(args, " "), description)

			var err error
			if draft.Status, err = parseStatusFlag(status); err != nil {
				return err
			}
			if draft.Priority, err = parsePriorityFlag(priority); err != nil {
				return err
			}
			if due != "" {
				if draft.DueDate, err = parseDue(due); err != nil {
					return err
				}
			}

			task, err := a.repo.Add(cmd.Context(), draft)
			if err != nil {
				return err
			}
			a.refreshResolver()

			fmt.Fprintf(cmd.OutOrStdout(), "Created task: %s (ID: %s)\n", task.Title, task.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "Task description")
	cmd.Flags().StringVarP(&status, "status", "s", string(domain.StatusTodo), "Status: "+statusChoices())
	cmd.Flags().StringVarP(&priority, "priority", "p", string(domain.PriorityMedium), "Priority: "+priorityChoices())
	cmd.Flags().StringVar(&due, "due", "", "Due date (YYYY-MM-DD)")

	return cmd
}

func newListCommand(a *app) *cobra.Command {
	var status, priority, sortKey string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks, optionally filtered and sorted",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := buildSpec(status, priority, sortKey)
			if err != nil {
				return err
			}

			tasks := a.repo.View(spec)
			out := cmd.OutOrStdout()
			if len(tasks) == 0 {
				fmt.Fprintln(out, "No tasks found")
				return nil
			}

			renderTable(out, tasks, a.resolver, time.Now())
			fmt.Fprintf(out, "\n%d of %d tasks\n", len(tasks), a.repo.Len())
			return nil
		},
	}

	cmd.Flags().StringVarP(&status, "status", "s", "", "Filter by status: "+statusChoices())
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "Filter by priority: "+priorityChoices())
	cmd.Flags().StringVar(&sortKey, "sort", "", "Sort order: "+sortChoices())

	return cmd
}

func newShowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show [task-id-or-prefix]",
		Short: "Show task details (interactive selection if no ID provided)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := a.selectTask(args, a.repo.Tasks())
			if err != nil {
				return err
			}
			renderDetails(cmd.OutOrStdout(), task, a.resolver, time.Now())
			return nil
		},
	}
}

func newEditCommand(a *app) *cobra.Command {
	var title, description, status, priority, due string
	var clearDue bool

	cmd := &cobra.Command{
		Use:   "edit [task-id-or-prefix]",
		Short: "Edit a task (interactive selection if no ID provided)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if due != "" && clearDue {
				return fmt.Errorf("--due and --clear-due cannot be combined")
			}

			task, err := a.selectTask(args, a.repo.Tasks())
			if err != nil {
				return err
			}

			changed := false
			if flags.Changed("title") {
				task.Title = title
				changed = true
			}
			if flags.Changed("description") {
				task.Description = description
				changed = true
			}
			if flags.Changed("status") {
				if task.Status, err = parseStatusFlag(status); err != nil {
					return err
				}
				changed = true
			}
			if flags.Changed("priority") {
				if task.Priority, err = parsePriorityFlag(priority); err != nil {
					return err
				}
				changed = true
			}
			if due != "" {
				if task.DueDate, err = parseDue(due); err != nil {
					return err
				}
				changed = true
			}
			if clearDue {
				task.DueDate = nil
				changed = true
			}
			if !changed {
				return fmt.Errorf("nothing to change: pass at least one of --title, --description, --status, --priority, --due or --clear-due")
			}

			if err := a.repo.Update(cmd.Context(), task); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Updated task: %s\n", a.resolver.MinimumUniquePrefix(task.ID))
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "New title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "New description")
	cmd.Flags().StringVarP(&status, "status", "s", "", "New status: "+statusChoices())
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "New priority: "+priorityChoices())
	cmd.Flags().StringVar(&due, "due", "", "New due date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&clearDue, "clear-due", false, "Remove the due date")

	return cmd
}

func newDeleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "delete [task-id-or-prefix]",
		Aliases: []string{"rm"},
		Short:   "Delete a task (interactive selection if no ID provided)",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := a.selectTask(args, a.repo.Tasks())
			if err != nil {
				return err
			}

			if err := a.repo.Delete(cmd.Context(), task.ID); err != nil {
				return err
			}
			a.refreshResolver()

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted task: %s (ID: %s)\n", task.Title, task.ID)
			return nil
		},
	}
}

func newDoneCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "done [task-id-or-prefix]",
		Short: "Mark a task as done (interactive selection if no ID provided)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var open []domain.Task
			for _, t := range a.repo.Tasks() {
				if t.Status != domain.StatusDone {
					open = append(open, t)
				}
			}

			task, err := a.selectTask(args, open)
			if err != nil {
				return err
			}
			if task.Status == domain.StatusDone {
				fmt.Fprintf(cmd.OutOrStdout(), "Task already done: %s\n", task.Title)
				return nil
			}

			task.Status = domain.StatusDone
			if err := a.repo.Update(cmd.Context(), task); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Completed task: %s\n", task.Title)
			return nil
		},
	}
}

func newConfigCommand(a *app) *cobra.Command {
	skip := map[string]string{skipStoreAnnotation: "true"}

	cmd := &cobra.Command{
		Use:         "config",
		Short:       "Configuration management commands",
		Annotations: skip,
	}

	cmd.AddCommand(&cobra.Command{
		Use:         "show",
		Short:       "Show the effective configuration",
		Args:        cobra.NoArgs,
		Annotations: skip,
		Run: func(cmd *cobra.Command, args []string) {
			renderConfig(cmd.OutOrStdout(), a.cfg)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:         "path",
		Short:       "Print the user config file location",
		Args:        cobra.NoArgs,
		Annotations: skip,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configTarget(a.configPath)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:         "init [path]",
		Short:       "Write the effective configuration to a config file",
		Args:        cobra.MaximumNArgs(1),
		Annotations: skip,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configTarget(a.configPath)
			if len(args) > 0 {
				path, err = args[0], nil
			}
			if err != nil {
				return err
			}
			if err := a.cfg.Save(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:         "engines",
		Short:       "Describe the available local storage engines",
		Args:        cobra.NoArgs,
		Annotations: skip,
		Run: func(cmd *cobra.Command, args []string) {
			info := kvstore.Info()
			for _, engine := range kvstore.Engines {
				marker := " "
				if a.cfg.Local.Engine == engine {
					marker = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %-7s %s\n", marker, engine, info[engine])
			}
		},
	})

	return cmd
}

func configTarget(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	return config.DefaultPath()
}

func buildSpec(status, priority, sortKey string) (query.Spec, error) {
	var spec query.Spec
	if status != "" {
		s, err := parseStatusFlag(status)
		if err != nil {
			return spec, err
		}
		spec = spec.ByStatus(s)
	}
	if priority != "" {
		p, err := parsePriorityFlag(priority)
		if err != nil {
			return spec, err
		}
		spec = spec.ByPriority(p)
	}

	key, err := query.ParseSortKey(sortKey)
	if err != nil {
		return spec, err
	}
	return spec.SortedBy(key), nil
}

func statusChoices() string {
	return choices(domain.Statuses)
}

func priorityChoices() string {
	return choices(domain.Priorities)
}

func sortChoices() string {
	return choices(query.SortKeys)
}

// choices renders flag values as "a, b or c"
func choices[T ~string](values []T) string {
	names := make([]string, len(values))
	for i, v := range values {
		names[i] = string(v)
	}
	if len(names) < 2 {
		return strings.Join(names, "")
	}
	return strings.Join(names[:len(names)-1], ", ") + " or " + names[len(names)-1]
}

func parseStatusFlag(value string) (domain.Status, error) {
	status, ok := domain.ParseStatus(value)
	if !ok {
		return "", fmt.Errorf("invalid status %q (want %s)", value, statusChoices())
	}
	return status, nil
}

func parsePriorityFlag(value string) (domain.Priority, error) {
	priority, ok := domain.ParsePriority(value)
	if !ok {
		return "", fmt.Errorf("invalid priority %q (want %s)", value, priorityChoices())
	}
	return priority, nil
}

// parseDue reads a calendar date as UTC midnight; full RFC 3339 timestamps are
// accepted as well.
func parseDue(value string) (*time.Time, error) {
	if t, err := time.Parse(dueDateLayout, value); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, fmt.Errorf("invalid due date %q (want YYYY-MM-DD)", value)
	}
	t = t.UTC()
	return &t, nil
}
