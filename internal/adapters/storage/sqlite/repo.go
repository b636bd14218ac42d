package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/evanschultz/taskflow/internal/backend"
	"github.com/evanschultz/taskflow/internal/domain"
	_ "modernc.org/sqlite"
)

const driverName = "sqlite"

// List caps match the page sizes of the hosted service.
const (
	maxListTasks      = 1000
	maxListCategories = 100
)

// Repository stores tasks and categories in one SQLite database.
type Repository struct {
	db *sql.DB
}

func Open(path string) (*Repository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return newRepository(db)
}

// OpenInMemory opens a private in-memory database. The pool is pinned to
// one connection because every new :memory: connection is a fresh database.
func OpenInMemory() (*Repository, error) {
	db, err := sql.Open(driverName, ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	db.SetMaxOpenConns(1)
	return newRepository(db)
}

func newRepository(db *sql.DB) (*Repository, error) {
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

// Ping reports whether the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS categories (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			color TEXT NOT NULL,
			is_default INTEGER NOT NULL DEFAULT 0
		);`,
		// tasks.category_id is a weak reference; dangling ids are legal.
		`CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'todo',
			priority TEXT NOT NULL DEFAULT 'medium',
			category_id TEXT NOT NULL DEFAULT '',
			due_date TEXT,
			created_at TEXT NOT NULL,
			completed_at TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_category ON tasks(category_id);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_status_priority ON tasks(status, priority);`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

const taskColumns = `id, title, description, status, priority, category_id, due_date, created_at, completed_at`

func (r *Repository) CreateTask(ctx context.Context, t domain.Task) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tasks(`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		t.ID,
		t.Title,
		t.Description,
		string(t.Status),
		string(t.Priority),
		t.CategoryID,
		nullableDate(t.DueDate),
		ts(t.CreatedAt),
		nullableTS(t.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func (r *Repository) UpdateTask(ctx context.Context, t domain.Task) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE tasks
		SET title = ?, description = ?, status = ?, priority = ?, category_id = ?, due_date = ?, completed_at = ?
		WHERE id = ?
	`,
		t.Title,
		t.Description,
		string(t.Status),
		string(t.Priority),
		t.CategoryID,
		nullableDate(t.DueDate),
		nullableTS(t.CompletedAt),
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return translateNoRows(res)
}

func (r *Repository) GetTask(ctx context.Context, id string) (domain.Task, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	return scanTask(row)
}

// ListTasks returns tasks in insertion order, narrowed by every set filter
// key.
func (r *Repository) ListTasks(ctx context.Context, filter domain.TaskFilter) ([]domain.Task, error) {
	var (
		where []string
		args  []any
	)
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Priority != "" {
		where = append(where, "priority = ?")
		args = append(args, string(filter.Priority))
	}
	if filter.CategoryID != "" {
		where = append(where, "category_id = ?")
		args = append(args, filter.CategoryID)
	}

	query := `SELECT ` + taskColumns + ` FROM tasks`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY rowid ASC LIMIT ?`
	args = append(args, maxListTasks)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	out := []domain.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

func (r *Repository) DeleteTask(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return translateNoRows(res)
}

func (r *Repository) CreateCategory(ctx context.Context, c domain.Category) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO categories(id, name, color, is_default)
		VALUES (?, ?, ?, ?)
	`, c.ID, c.Name, c.Color, boolToInt(c.IsDefault))
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (r *Repository) GetCategory(ctx context.Context, id string) (domain.Category, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name, color, is_default FROM categories WHERE id = ?`, id)
	return scanCategory(row)
}

func (r *Repository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, color, is_default
		FROM categories
		ORDER BY rowid ASC
		LIMIT ?
	`, maxListCategories)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := []domain.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// DeleteCategory removes the category and detaches its tasks in one
// transaction.
func (r *Repository) DeleteCategory(ctx context.Context, id string) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if err = translateNoRows(res); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `UPDATE tasks SET category_id = '' WHERE category_id = ?`, id); err != nil {
		return fmt.Errorf("detach category tasks: %w", err)
	}
	err = tx.Commit()
	return err
}

func (r *Repository) Stats(ctx context.Context) (domain.Stats, error) {
	var s domain.Stats
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'todo' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'in_progress' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'done' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN priority = 'high' AND status != 'done' THEN 1 ELSE 0 END), 0)
		FROM tasks
	`).Scan(&s.Total, &s.Todo, &s.InProgress, &s.Done, &s.HighPriority)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("task stats: %w", err)
	}
	return s, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (domain.Task, error) {
	var (
		t            domain.Task
		status       string
		priority     string
		dueRaw       sql.NullString
		createdRaw   string
		completedRaw sql.NullString
	)
	if err := s.Scan(
		&t.ID,
		&t.Title,
		&t.Description,
		&status,
		&priority,
		&t.CategoryID,
		&dueRaw,
		&createdRaw,
		&completedRaw,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Task{}, backend.ErrNotFound
		}
		return domain.Task{}, err
	}
	t.Status = domain.Status(status)
	if !t.Status.Valid() {
		t.Status = domain.StatusTodo
	}
	t.Priority = domain.Priority(priority)
	if !t.Priority.Valid() {
		t.Priority = domain.PriorityMedium
	}
	due, err := parseNullDate(dueRaw)
	if err != nil {
		return domain.Task{}, fmt.Errorf("decode due_date for task %q: %w", t.ID, err)
	}
	t.DueDate = due
	t.CreatedAt = parseTS(createdRaw)
	t.CompletedAt = parseNullTS(completedRaw)
	return t, nil
}

func scanCategory(s scanner) (domain.Category, error) {
	var (
		c         domain.Category
		isDefault int
	)
	if err := s.Scan(&c.ID, &c.Name, &c.Color, &isDefault); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Category{}, backend.ErrNotFound
		}
		return domain.Category{}, err
	}
	c.IsDefault = isDefault != 0
	return c, nil
}

func translateNoRows(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return backend.ErrNotFound
	}
	return nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func nullableTS(t *time.Time) any {
	if t == nil {
		return nil
	}
	return ts(*t)
}

func parseTS(v string) time.Time {
	parsed, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return parsed.UTC()
}

func parseNullTS(v sql.NullString) *time.Time {
	if !v.Valid || strings.TrimSpace(v.String) == "" {
		return nil
	}
	parsed := parseTS(v.String)
	return &parsed
}

func nullableDate(d *domain.Date) any {
	if d == nil || d.IsZero() {
		return nil
	}
	return d.String()
}

func parseNullDate(v sql.NullString) (*domain.Date, error) {
	if !v.Valid || strings.TrimSpace(v.String) == "" {
		return nil, nil
	}
	d, err := domain.ParseDate(v.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
