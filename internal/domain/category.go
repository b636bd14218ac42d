package domain

import (
	"slices"
	"strings"
)

// Category is a named, colored grouping for tasks. The color has no effect
// on task behavior.
type Category struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	Color     string `json:"color" yaml:"color"`
	IsDefault bool   `json:"is_default" yaml:"is_default"`
}

type CategoryInput struct {
	Name  string `json:"name" yaml:"name" validate:"notblank"`
	Color string `json:"color,omitempty" yaml:"color,omitempty" validate:"omitempty,hexcolor"`
}

// DefaultCategoryColor is used when a category is created without a color.
const DefaultCategoryColor = "#8B5CF6"

var palette = []string{
	"#8B5CF6",
	"#10B981",
	"#F59E0B",
	"#E11D48",
	"#3B82F6",
	"#EC4899",
	"#14B8A6",
	"#F97316",
}

// Palette returns the fixed set of colors offered when creating a category.
func Palette() []string {
	return slices.Clone(palette)
}

// Normalize trims the name, defaults the color and validates the result.
func (in CategoryInput) Normalize() (CategoryInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Color = strings.TrimSpace(in.Color)
	if in.Color == "" {
		in.Color = DefaultCategoryColor
	}
	if err := validateStruct(in); err != nil {
		return CategoryInput{}, err
	}
	return in, nil
}

func NewCategory(id string, in CategoryInput) (Category, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Category{}, ErrInvalidID
	}
	in, err := in.Normalize()
	if err != nil {
		return Category{}, err
	}
	return Category{ID: id, Name: in.Name, Color: in.Color}, nil
}

// DefaultCategories returns the built-in categories every store starts with.
func DefaultCategories() []Category {
	return []Category{
		{ID: "cat-work", Name: "Work", Color: "#8B5CF6", IsDefault: true},
		{ID: "cat-personal", Name: "Personal", Color: "#10B981", IsDefault: true},
		{ID: "cat-shopping", Name: "Shopping", Color: "#F59E0B", IsDefault: true},
		{ID: "cat-health", Name: "Health", Color: "#E11D48", IsDefault: true},
	}
}

// FindCategory resolves a weak category reference. A dangling reference
// resolves to false.
func FindCategory(categories []Category, id string) (Category, bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Category{}, false
	}
	for _, c := range categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}
