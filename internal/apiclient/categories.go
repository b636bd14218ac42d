package apiclient

import (
	"context"
	"net/http"

	"github.com/evanschultz/taskflow/internal/domain"
)

func (c *Client) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var categories []domain.Category
	if err := c.do(ctx, http.MethodGet, resourcePath("categories"), nil, nil, &categories); err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []domain.Category{}
	}
	return categories, nil
}

func (c *Client) CreateCategory(ctx context.Context, in domain.CategoryInput) (domain.Category, error) {
	var category domain.Category
	if err := c.do(ctx, http.MethodPost, resourcePath("categories"), nil, in, &category); err != nil {
		return domain.Category{}, err
	}
	return category, nil
}

func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, resourcePath("categories", id), nil, nil, nil)
}

// GetStats returns the service-side aggregate counts.
func (c *Client) GetStats(ctx context.Context) (domain.Stats, error) {
	var stats domain.Stats
	if err := c.do(ctx, http.MethodGet, resourcePath("stats"), nil, nil, &stats); err != nil {
		return domain.Stats{}, err
	}
	return stats, nil
}
