package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/evanschultz/taskflow/internal/apiclient"
	"github.com/evanschultz/taskflow/internal/domain"
)

const (
	outputJSON = "json"
	outputYAML = "yaml"
)

func validateOutputFormat(format string) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case outputJSON, outputYAML:
		return nil
	default:
		return fmt.Errorf("unsupported output format %q (want json or yaml)", format)
	}
}

// writeOutput encodes v as indented JSON or YAML.
func writeOutput(w io.Writer, format string, v any) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	}
}

// deleted is printed after a successful delete.
type deleted struct {
	Kind string `json:"kind" yaml:"kind"`
	ID   string `json:"id" yaml:"id"`
}

// clientAction runs fn against a configured client inside the usual
// command-flow logging.
func clientAction(opts *globalOptions, command string, stdout, stderr io.Writer, fn func(ctx context.Context, client *apiclient.Client) (any, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		env, err := setup(opts, command, stderr)
		if err != nil {
			return err
		}
		defer env.Close(stderr)
		logger := env.logger

		client, err := env.newClient()
		if err != nil {
			return err
		}
		logger.Info("command flow start", "command", command, "api_base_url", client.BaseURL())
		out, err := fn(cmd.Context(), client)
		if err != nil {
			logger.Error("command flow failed", "command", command, "err", err)
			return err
		}
		if err := writeOutput(stdout, opts.output, out); err != nil {
			return err
		}
		logger.Info("command flow complete", "command", command)
		return nil
	}
}

// taskFields holds the task flags shared by create and update.
type taskFields struct {
	title       string
	description string
	status      string
	priority    string
	category    string
	due         string
}

func (f *taskFields) register(flags *pflag.FlagSet) {
	flags.StringVar(&f.title, "title", "", "task title")
	flags.StringVar(&f.description, "description", "", "task description (markdown)")
	flags.StringVar(&f.status, "status", "", "todo, in_progress or done")
	flags.StringVar(&f.priority, "priority", "", "high, medium or low")
	flags.StringVar(&f.category, "category", "", "category id (empty for none)")
	flags.StringVar(&f.due, "due", "", "due date YYYY-MM-DD (empty clears on update)")
}

func (f taskFields) input() (domain.TaskInput, error) {
	in := domain.TaskInput{
		Title:       f.title,
		Description: f.description,
		Status:      domain.Status(strings.TrimSpace(f.status)),
		Priority:    domain.Priority(strings.TrimSpace(f.priority)),
		CategoryID:  strings.TrimSpace(f.category),
	}
	due, err := domain.ParseDate(f.due)
	if err != nil {
		return domain.TaskInput{}, err
	}
	if !due.IsZero() {
		in.DueDate = &due
	}
	return in.Normalize()
}

// patch includes only the flags the caller set.
func (f taskFields) patch(flags *pflag.FlagSet) (domain.TaskPatch, error) {
	var p domain.TaskPatch
	if flags.Changed("title") {
		p.Title = &f.title
	}
	if flags.Changed("description") {
		p.Description = &f.description
	}
	if flags.Changed("status") {
		s := domain.Status(strings.TrimSpace(f.status))
		p.Status = &s
	}
	if flags.Changed("priority") {
		pr := domain.Priority(strings.TrimSpace(f.priority))
		p.Priority = &pr
	}
	if flags.Changed("category") {
		p.CategoryID = &f.category
	}
	if flags.Changed("due") {
		due, err := domain.ParseDate(f.due)
		if err != nil {
			return domain.TaskPatch{}, err
		}
		p.DueDate = &due
	}
	if err := p.Validate(); err != nil {
		return domain.TaskPatch{}, err
	}
	return p, nil
}

func newTasksCommand(opts *globalOptions, stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List and change tasks on the task service",
	}

	var filter struct{ status, priority, category string }
	list := &cobra.Command{
		Use:   "list",
		Short: "List tasks, optionally filtered",
		Args:  cobra.NoArgs,
		RunE: clientAction(opts, "tasks list", stdout, stderr, func(ctx context.Context, c *apiclient.Client) (any, error) {
			f := domain.TaskFilter{
				Status:     domain.Status(strings.TrimSpace(filter.status)),
				Priority:   domain.Priority(strings.TrimSpace(filter.priority)),
				CategoryID: strings.TrimSpace(filter.category),
			}
			if err := f.Validate(); err != nil {
				return nil, err
			}
			return c.ListTasks(ctx, f)
		}),
	}
	list.Flags().StringVar(&filter.status, "status", "", "only tasks with this status")
	list.Flags().StringVar(&filter.priority, "priority", "", "only tasks with this priority")
	list.Flags().StringVar(&filter.category, "category", "", "only tasks in this category id")

	var getID string
	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		PreRun: func(_ *cobra.Command, args []string) {
			getID = args[0]
		},
		RunE: clientAction(opts, "tasks get", stdout, stderr, func(ctx context.Context, c *apiclient.Client) (any, error) {
			return c.GetTask(ctx, getID)
		}),
	}

	var createFields taskFields
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a task",
		Args:  cobra.NoArgs,
		RunE: clientAction(opts, "tasks create", stdout, stderr, func(ctx context.Context, c *apiclient.Client) (any, error) {
			in, err := createFields.input()
			if err != nil {
				return nil, err
			}
			return c.CreateTask(ctx, in)
		}),
	}
	createFields.register(create.Flags())
	_ = create.MarkFlagRequired("title")

	var (
		updateID     string
		updateFields taskFields
	)
	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Change the given fields of a task",
		Args:  cobra.ExactArgs(1),
	}
	updateFields.register(update.Flags())
	update.PreRun = func(_ *cobra.Command, args []string) { updateID = args[0] }
	update.RunE = clientAction(opts, "tasks update", stdout, stderr, func(ctx context.Context, c *apiclient.Client) (any, error) {
		p, err := updateFields.patch(update.Flags())
		if err != nil {
			return nil, err
		}
		return c.UpdateTask(ctx, updateID, p)
	})

	var move domain.StatusChange
	moveCmd := &cobra.Command{
		Use:   "move <id> <status>",
		Short: "Move a task to another column",
		Args:  cobra.ExactArgs(2),
		PreRun: func(_ *cobra.Command, args []string) {
			move = domain.StatusChange{TaskID: args[0], To: domain.Status(strings.TrimSpace(args[1]))}
		},
		RunE: clientAction(opts, "tasks move", stdout, stderr, func(ctx context.Context, c *apiclient.Client) (any, error) {
			if !move.To.Valid() {
				return nil, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, move.To)
			}
			return c.UpdateTask(ctx, move.TaskID, domain.StatusPatch(move.To))
		}),
	}

	var deleteID string
	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		PreRun: func(_ *cobra.Command, args []string) {
			deleteID = args[0]
		},
		RunE: clientAction(opts, "tasks delete", stdout, stderr, func(ctx context.Context, c *apiclient.Client) (any, error) {
			if err := c.DeleteTask(ctx, deleteID); err != nil {
				return nil, err
			}
			return deleted{Kind: "task", ID: deleteID}, nil
		}),
	}

	cmd.AddCommand(list, get, create, update, moveCmd, del)
	return cmd
}

func newCategoriesCommand(opts *globalOptions, stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List and change categories on the task service",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List categories with task counts",
		Args:  cobra.NoArgs,
		RunE: clientAction(opts, "categories list", stdout, stderr, func(ctx context.Context, c *apiclient.Client) (any, error) {
			return c.ListCategories(ctx)
		}),
	}

	var in domain.CategoryInput
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a category",
		Args:  cobra.NoArgs,
		RunE: clientAction(opts, "categories create", stdout, stderr, func(ctx context.Context, c *apiclient.Client) (any, error) {
			normalized, err := in.Normalize()
			if err != nil {
				return nil, err
			}
			return c.CreateCategory(ctx, normalized)
		}),
	}
	create.Flags().StringVar(&in.Name, "name", "", "category name")
	create.Flags().StringVar(&in.Color, "color", "", "#RRGGBB color")
	_ = create.MarkFlagRequired("name")

	var deleteID string
	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a category; its tasks become uncategorized",
		Args:  cobra.ExactArgs(1),
		PreRun: func(_ *cobra.Command, args []string) {
			deleteID = args[0]
		},
		RunE: clientAction(opts, "categories delete", stdout, stderr, func(ctx context.Context, c *apiclient.Client) (any, error) {
			if err := c.DeleteCategory(ctx, deleteID); err != nil {
				return nil, err
			}
			return deleted{Kind: "category", ID: deleteID}, nil
		}),
	}

	cmd.AddCommand(list, create, del)
	return cmd
}

func newStatsCommand(opts *globalOptions, stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print task counts from the task service",
		Args:  cobra.NoArgs,
		RunE: clientAction(opts, "stats", stdout, stderr, func(ctx context.Context, c *apiclient.Client) (any, error) {
			return c.GetStats(ctx)
		}),
	}
}
