package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/evanschultz/taskflow/internal/domain"
)

// ListTasks returns every task matching the filter in service order.
func (c *Client) ListTasks(ctx context.Context, filter domain.TaskFilter) ([]domain.Task, error) {
	query := url.Values{}
	if err := queryEncoder.Encode(filter, query); err != nil {
		return nil, fmt.Errorf("encode task filter: %w", err)
	}
	var tasks []domain.Task
	if err := c.do(ctx, http.MethodGet, resourcePath("tasks"), query, nil, &tasks); err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	return tasks, nil
}

func (c *Client) GetTask(ctx context.Context, id string) (domain.Task, error) {
	var task domain.Task
	if err := c.do(ctx, http.MethodGet, resourcePath("tasks", id), nil, nil, &task); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

func (c *Client) CreateTask(ctx context.Context, in domain.TaskInput) (domain.Task, error) {
	var task domain.Task
	if err := c.do(ctx, http.MethodPost, resourcePath("tasks"), nil, in, &task); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// UpdateTask sends a partial update; only the set patch fields are encoded.
func (c *Client) UpdateTask(ctx context.Context, id string, patch domain.TaskPatch) (domain.Task, error) {
	var task domain.Task
	if err := c.do(ctx, http.MethodPut, resourcePath("tasks", id), nil, patch, &task); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, resourcePath("tasks", id), nil, nil, nil)
}
