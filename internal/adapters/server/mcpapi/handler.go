// Package mcpapi provides a stateless MCP streamable-HTTP adapter.
package mcpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/evanschultz/taskflow/internal/adapters/server/common"
	"github.com/evanschultz/taskflow/internal/domain"
)

// Config captures MCP transport configuration.
type Config struct {
	ServerName    string
	ServerVersion string
	EndpointPath  string
}

// Handler wraps one stateless MCP streamable HTTP handler.
type Handler struct {
	httpHandler http.Handler
}

// NewHandler builds the MCP adapter exposing the task service as tools.
func NewHandler(cfg Config, svc common.TaskService) (*Handler, error) {
	if svc == nil {
		return nil, fmt.Errorf("task service is required")
	}
	cfg = normalizeConfig(cfg)

	mcpSrv := mcpserver.NewMCPServer(
		cfg.ServerName,
		cfg.ServerVersion,
		mcpserver.WithToolCapabilities(false),
	)
	registerTaskTools(mcpSrv, svc)
	registerCategoryTools(mcpSrv, svc)

	streamable := mcpserver.NewStreamableHTTPServer(
		mcpSrv,
		mcpserver.WithEndpointPath(cfg.EndpointPath),
		mcpserver.WithStateLess(true),
	)
	return &Handler{httpHandler: streamable}, nil
}

// ServeHTTP handles one MCP streamable HTTP request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.httpHandler == nil {
		http.Error(w, "mcp handler unavailable", http.StatusServiceUnavailable)
		return
	}
	h.httpHandler.ServeHTTP(w, r)
}

func normalizeConfig(cfg Config) Config {
	cfg.ServerName = strings.TrimSpace(cfg.ServerName)
	if cfg.ServerName == "" {
		cfg.ServerName = "taskflow"
	}
	cfg.ServerVersion = strings.TrimSpace(cfg.ServerVersion)
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = "dev"
	}
	cfg.EndpointPath = strings.TrimSpace(cfg.EndpointPath)
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/mcp"
	}
	cfg.EndpointPath = "/" + strings.Trim(cfg.EndpointPath, "/")
	return cfg
}

func statusValues() []string {
	out := make([]string, 0, 3)
	for _, s := range domain.Statuses() {
		out = append(out, string(s))
	}
	return out
}

func priorityValues() []string {
	out := make([]string, 0, 3)
	for _, p := range domain.Priorities() {
		out = append(out, string(p))
	}
	return out
}

// registerTaskTools registers the `taskflow.*_task` tools and the stats tool.
func registerTaskTools(srv *mcpserver.MCPServer, svc common.TaskService) {
	srv.AddTool(
		mcp.NewTool(
			"taskflow.list_tasks",
			mcp.WithDescription("List tasks, optionally filtered by status, priority or category."),
			mcp.WithString("status", mcp.Description("Status filter"), mcp.Enum(statusValues()...)),
			mcp.WithString("priority", mcp.Description("Priority filter"), mcp.Enum(priorityValues()...)),
			mcp.WithString("category_id", mcp.Description("Category filter")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			tasks, err := svc.ListTasks(ctx, domain.TaskFilter{
				Status:     domain.Status(req.GetString("status", "")),
				Priority:   domain.Priority(req.GetString("priority", "")),
				CategoryID: req.GetString("category_id", ""),
			})
			if err != nil {
				return toolResultFromError(err, common.SubjectTask), nil
			}
			return jsonResult("list_tasks", map[string]any{"tasks": tasks})
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"taskflow.get_task",
			mcp.WithDescription("Return one task by id."),
			mcp.WithString("id", mcp.Required(), mcp.Description("Task id")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			id, err := req.RequireString("id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			task, err := svc.GetTask(ctx, id)
			if err != nil {
				return toolResultFromError(err, common.SubjectTask), nil
			}
			return jsonResult("get_task", task)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"taskflow.create_task",
			mcp.WithDescription("Create a task. Status defaults to todo and priority to medium."),
			mcp.WithString("title", mcp.Required(), mcp.Description("Task title")),
			mcp.WithString("description", mcp.Description("Markdown description")),
			mcp.WithString("status", mcp.Description("Initial status"), mcp.Enum(statusValues()...)),
			mcp.WithString("priority", mcp.Description("Priority"), mcp.Enum(priorityValues()...)),
			mcp.WithString("category_id", mcp.Description("Category id")),
			mcp.WithString("due_date", mcp.Description("Due date as YYYY-MM-DD")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			title, err := req.RequireString("title")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			due, err := optionalDate(req)
			if err != nil {
				return toolResultFromError(err, common.SubjectTask), nil
			}
			task, err := svc.CreateTask(ctx, domain.TaskInput{
				Title:       title,
				Description: req.GetString("description", ""),
				Status:      domain.Status(req.GetString("status", "")),
				Priority:    domain.Priority(req.GetString("priority", "")),
				CategoryID:  req.GetString("category_id", ""),
				DueDate:     due,
			})
			if err != nil {
				return toolResultFromError(err, common.SubjectTask), nil
			}
			return jsonResult("create_task", task)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"taskflow.update_task",
			mcp.WithDescription("Update a task. Only provided fields change; an empty category_id or due_date clears it."),
			mcp.WithString("id", mcp.Required(), mcp.Description("Task id")),
			mcp.WithString("title", mcp.Description("New title")),
			mcp.WithString("description", mcp.Description("New description")),
			mcp.WithString("status", mcp.Description("New status"), mcp.Enum(statusValues()...)),
			mcp.WithString("priority", mcp.Description("New priority"), mcp.Enum(priorityValues()...)),
			mcp.WithString("category_id", mcp.Description("New category id")),
			mcp.WithString("due_date", mcp.Description("New due date as YYYY-MM-DD")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			id, err := req.RequireString("id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			patch, err := patchFromArguments(req)
			if err != nil {
				return toolResultFromError(err, common.SubjectTask), nil
			}
			task, err := svc.UpdateTask(ctx, id, patch)
			if err != nil {
				return toolResultFromError(err, common.SubjectTask), nil
			}
			return jsonResult("update_task", task)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"taskflow.delete_task",
			mcp.WithDescription("Delete one task by id."),
			mcp.WithString("id", mcp.Required(), mcp.Description("Task id")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			id, err := req.RequireString("id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			if err := svc.DeleteTask(ctx, id); err != nil {
				return toolResultFromError(err, common.SubjectTask), nil
			}
			return jsonResult("delete_task", common.MessageResponse{Message: common.TaskDeletedMessage})
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"taskflow.stats",
			mcp.WithDescription("Return task counts by status and the number of open high-priority tasks."),
		),
		func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			stats, err := svc.Stats(ctx)
			if err != nil {
				return toolResultFromError(err, common.SubjectTask), nil
			}
			return jsonResult("stats", stats)
		},
	)
}

// registerCategoryTools registers category list/create/delete tools.
func registerCategoryTools(srv *mcpserver.MCPServer, svc common.TaskService) {
	srv.AddTool(
		mcp.NewTool(
			"taskflow.list_categories",
			mcp.WithDescription("List categories, built-in ones first."),
		),
		func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			categories, err := svc.ListCategories(ctx)
			if err != nil {
				return toolResultFromError(err, common.SubjectCategory), nil
			}
			return jsonResult("list_categories", map[string]any{"categories": categories})
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"taskflow.create_category",
			mcp.WithDescription("Create a category. Color defaults to "+domain.DefaultCategoryColor+"."),
			mcp.WithString("name", mcp.Required(), mcp.Description("Category name")),
			mcp.WithString("color", mcp.Description("Color as #RRGGBB")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			name, err := req.RequireString("name")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			category, err := svc.CreateCategory(ctx, domain.CategoryInput{
				Name:  name,
				Color: req.GetString("color", ""),
			})
			if err != nil {
				return toolResultFromError(err, common.SubjectCategory), nil
			}
			return jsonResult("create_category", category)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"taskflow.delete_category",
			mcp.WithDescription("Delete a non-default category; its tasks are kept without a category."),
			mcp.WithString("id", mcp.Required(), mcp.Description("Category id")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			id, err := req.RequireString("id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			if err := svc.DeleteCategory(ctx, id); err != nil {
				return toolResultFromError(err, common.SubjectCategory), nil
			}
			return jsonResult("delete_category", common.MessageResponse{Message: common.CategoryDeletedMessage})
		},
	)
}

func jsonResult[T any](tool string, payload T) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s result: %w", tool, err)
	}
	return result, nil
}

// optionalDate reads due_date when present. An empty value yields nil.
func optionalDate(req mcp.CallToolRequest) (*domain.Date, error) {
	raw := strings.TrimSpace(req.GetString("due_date", ""))
	if raw == "" {
		return nil, nil
	}
	d, err := domain.ParseDate(raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// patchFromArguments builds a patch from the arguments actually supplied, so
// an omitted argument stays untouched and an empty one clears.
func patchFromArguments(req mcp.CallToolRequest) (domain.TaskPatch, error) {
	args := req.GetArguments()
	present := func(key string) (string, bool) {
		raw, ok := args[key]
		if !ok || raw == nil {
			return "", false
		}
		s, ok := raw.(string)
		return s, ok
	}

	var patch domain.TaskPatch
	if v, ok := present("title"); ok {
		patch.Title = &v
	}
	if v, ok := present("description"); ok {
		patch.Description = &v
	}
	if v, ok := present("status"); ok {
		status := domain.Status(v)
		patch.Status = &status
	}
	if v, ok := present("priority"); ok {
		priority := domain.Priority(v)
		patch.Priority = &priority
	}
	if v, ok := present("category_id"); ok {
		patch.CategoryID = &v
	}
	if v, ok := present("due_date"); ok {
		d, err := domain.ParseDate(v)
		if err != nil {
			return domain.TaskPatch{}, err
		}
		patch.DueDate = &d
	}
	return patch, nil
}

// toolResultFromError maps service errors into MCP-visible tool errors.
func toolResultFromError(err error, subject common.Subject) *mcp.CallToolResult {
	failure := common.Describe(err, subject)
	prefix := "internal_error"
	switch failure.Kind {
	case common.FailureNotFound:
		prefix = "not_found"
	case common.FailureBadRequest, common.FailureInvalid:
		prefix = "invalid_request"
	}
	return mcp.NewToolResultError(prefix + ": " + failure.Detail)
}
