package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	serveradapter "github.com/evanschultz/taskflow/internal/adapters/server"
	"github.com/evanschultz/taskflow/internal/adapters/storage/sqlite"
	"github.com/evanschultz/taskflow/internal/backend"
	"github.com/evanschultz/taskflow/internal/config"
	"github.com/evanschultz/taskflow/internal/domain"
	"github.com/evanschultz/taskflow/internal/tui"
)

// TestMain keeps CLI tests out of dev mode so no log files are written.
func TestMain(m *testing.M) {
	_ = os.Setenv("TASKFLOW_DEV_MODE", "false")
	_ = os.Unsetenv("TASKFLOW_API_URL")
	_ = os.Unsetenv("BACKEND_URL")
	_ = os.Unsetenv("TASKFLOW_DB_PATH")
	os.Exit(m.Run())
}

type fakeProgram struct {
	runErr error
}

func (f fakeProgram) Run() (tea.Model, error) {
	return nil, f.runErr
}

// isolateHome points every per-user directory at a temp dir.
func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(home, "data"))
	return home
}

// startService runs the reference service on an in-memory store.
func startService(t *testing.T) string {
	t.Helper()
	repo, err := sqlite.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	svc := backend.NewService(repo, uuid.NewString, time.Now)
	if err := svc.EnsureDefaultCategories(context.Background()); err != nil {
		t.Fatalf("EnsureDefaultCategories() error = %v", err)
	}
	handler, _, err := serveradapter.NewHandler(serveradapter.Config{}, serveradapter.Dependencies{Service: svc, Ready: repo})
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv.URL
}

// runCLI runs one command against baseURL and returns stdout.
func runCLI(t *testing.T, baseURL string, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	full := append([]string{"--config", filepath.Join(t.TempDir(), "config.toml"), "--api-url", baseURL}, args...)
	if err := run(context.Background(), full, &out, io.Discard); err != nil {
		t.Fatalf("run(%v) error = %v", args, err)
	}
	return out.String()
}

func TestRunVersion(t *testing.T) {
	var out strings.Builder
	if err := run(context.Background(), []string{"--version"}, &out, io.Discard); err != nil {
		t.Fatalf("run(--version) error = %v", err)
	}
	if !strings.Contains(out.String(), "taskflow") || !strings.Contains(out.String(), version) {
		t.Fatalf("expected version output, got %q", out.String())
	}
}

func TestRunPathsHonorsAppAndDevFlags(t *testing.T) {
	isolateHome(t)
	var out strings.Builder
	if err := run(context.Background(), []string{"--app", "demo", "--dev", "paths"}, &out, io.Discard); err != nil {
		t.Fatalf("run(paths) error = %v", err)
	}
	got := out.String()
	for _, want := range []string{"app: demo", "dev_mode: true", "demo-dev"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in paths output, got %q", want, got)
		}
	}
}

func TestRunUnknownCommandFails(t *testing.T) {
	isolateHome(t)
	if err := run(context.Background(), []string{"bogus"}, io.Discard, io.Discard); err == nil {
		t.Fatal("expected unknown command error")
	}
}

func TestRunRejectsUnknownOutputFormat(t *testing.T) {
	isolateHome(t)
	err := run(context.Background(), []string{"-o", "xml", "stats"}, io.Discard, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "unsupported output format") {
		t.Fatalf("expected output format error, got %v", err)
	}
}

func TestRunStartsProgram(t *testing.T) {
	isolateHome(t)
	origFactory := programFactory
	t.Cleanup(func() { programFactory = origFactory })

	var started tea.Model
	programFactory = func(m tea.Model) program {
		started = m
		return fakeProgram{}
	}

	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	content := "[api]\nbase_url = \"http://127.0.0.1:9999\"\n\n[ui]\nnotification_ttl = \"1s\"\npalette = [\"#112233\"]\n"
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := run(context.Background(), []string{"--config", cfgPath}, io.Discard, io.Discard); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if _, ok := started.(tui.Model); !ok {
		t.Fatalf("expected tui.Model to be started, got %T", started)
	}
}

func TestRunWrapsProgramError(t *testing.T) {
	isolateHome(t)
	origFactory := programFactory
	t.Cleanup(func() { programFactory = origFactory })
	programFactory = func(tea.Model) program { return fakeProgram{runErr: errors.New("boom")} }

	err := run(context.Background(), []string{"--config", filepath.Join(t.TempDir(), "config.toml")}, io.Discard, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "run tui program") {
		t.Fatalf("expected wrapped program error, got %v", err)
	}
}

func TestRunRejectsInvalidAPIURL(t *testing.T) {
	isolateHome(t)
	err := run(context.Background(), []string{"--config", filepath.Join(t.TempDir(), "config.toml"), "--api-url", "ftp://example", "stats"}, io.Discard, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "api.base_url") {
		t.Fatalf("expected base url validation error, got %v", err)
	}
}

func TestRunAPIURLFromEnv(t *testing.T) {
	isolateHome(t)
	base := startService(t)
	t.Setenv("BACKEND_URL", base)

	var out bytes.Buffer
	if err := run(context.Background(), []string{"--config", filepath.Join(t.TempDir(), "config.toml"), "stats"}, &out, io.Discard); err != nil {
		t.Fatalf("run(stats) error = %v", err)
	}
	var stats domain.Stats
	if err := json.Unmarshal(out.Bytes(), &stats); err != nil {
		t.Fatalf("decode stats: %v (%q)", err, out.String())
	}
	if stats.Total != 0 {
		t.Fatalf("expected empty store, got %#v", stats)
	}
}

func TestRunServeWiresRunner(t *testing.T) {
	isolateHome(t)
	origRunner := serveCommandRunner
	t.Cleanup(func() { serveCommandRunner = origRunner })

	var (
		gotCfg     serveradapter.Config
		categories []domain.Category
	)
	serveCommandRunner = func(ctx context.Context, cfg serveradapter.Config, deps serveradapter.Dependencies) error {
		gotCfg = cfg
		if deps.Ready == nil || deps.Logger == nil {
			t.Fatalf("expected ready and logger dependencies, got %#v", deps)
		}
		var err error
		categories, err = deps.Service.ListCategories(ctx)
		return err
	}

	dbPath := filepath.Join(t.TempDir(), "nested", "taskflow.db")
	args := []string{"--config", filepath.Join(t.TempDir(), "config.toml"), "--db", dbPath, "serve", "--http", "127.0.0.1:9100"}
	if err := run(context.Background(), args, io.Discard, io.Discard); err != nil {
		t.Fatalf("run(serve) error = %v", err)
	}
	if gotCfg.HTTPBind != "127.0.0.1:9100" || gotCfg.APIEndpoint != "/api" || gotCfg.MCPEndpoint != "/mcp" {
		t.Fatalf("unexpected server config %#v", gotCfg)
	}
	if gotCfg.ServerVersion != version {
		t.Fatalf("expected server version %q, got %q", version, gotCfg.ServerVersion)
	}
	if len(categories) != len(domain.DefaultCategories()) {
		t.Fatalf("expected seeded default categories, got %d", len(categories))
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("expected database file, stat error = %v", err)
	}
}

func TestRunServeReportsRunnerError(t *testing.T) {
	isolateHome(t)
	origRunner := serveCommandRunner
	t.Cleanup(func() { serveCommandRunner = origRunner })
	serveCommandRunner = func(context.Context, serveradapter.Config, serveradapter.Dependencies) error {
		return errors.New("address in use")
	}

	args := []string{"--config", filepath.Join(t.TempDir(), "config.toml"), "--db", filepath.Join(t.TempDir(), "t.db"), "serve"}
	err := run(context.Background(), args, io.Discard, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "address in use") {
		t.Fatalf("expected runner error, got %v", err)
	}
}

func TestRunTaskCommandsRoundTrip(t *testing.T) {
	isolateHome(t)
	base := startService(t)

	var created domain.Task
	out := runCLI(t, base, "tasks", "create", "--title", "Buy milk", "--priority", "high", "--category", "cat-shopping", "--due", "2026-03-01")
	if err := json.Unmarshal([]byte(out), &created); err != nil {
		t.Fatalf("decode created task: %v (%q)", err, out)
	}
	if created.ID == "" || created.Status != domain.StatusTodo || created.Priority != domain.PriorityHigh {
		t.Fatalf("unexpected created task %#v", created)
	}
	if created.DueDate == nil || created.DueDate.String() != "2026-03-01" {
		t.Fatalf("expected due date, got %#v", created.DueDate)
	}

	var moved domain.Task
	out = runCLI(t, base, "tasks", "move", created.ID, "done")
	if err := json.Unmarshal([]byte(out), &moved); err != nil {
		t.Fatalf("decode moved task: %v", err)
	}
	if moved.Status != domain.StatusDone || moved.CompletedAt == nil {
		t.Fatalf("expected completed task, got %#v", moved)
	}

	var updated domain.Task
	out = runCLI(t, base, "tasks", "update", created.ID, "--title", "Buy oat milk", "--due", "")
	if err := json.Unmarshal([]byte(out), &updated); err != nil {
		t.Fatalf("decode updated task: %v", err)
	}
	if updated.Title != "Buy oat milk" || updated.Priority != domain.PriorityHigh {
		t.Fatalf("expected only the title to change, got %#v", updated)
	}
	if updated.DueDate != nil && !updated.DueDate.IsZero() {
		t.Fatalf("expected cleared due date, got %v", updated.DueDate)
	}

	var listed []domain.Task
	out = runCLI(t, base, "tasks", "list", "--status", "done")
	if err := json.Unmarshal([]byte(out), &listed); err != nil {
		t.Fatalf("decode task list: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != created.ID {
		t.Fatalf("expected one done task, got %#v", listed)
	}

	var stats domain.Stats
	out = runCLI(t, base, "-o", "yaml", "stats")
	if err := yaml.Unmarshal([]byte(out), &stats); err != nil {
		t.Fatalf("decode yaml stats: %v (%q)", err, out)
	}
	if stats.Total != 1 || stats.Done != 1 || stats.HighPriority != 1 {
		t.Fatalf("unexpected stats %#v", stats)
	}

	out = runCLI(t, base, "tasks", "delete", created.ID)
	if !strings.Contains(out, created.ID) || !strings.Contains(out, `"task"`) {
		t.Fatalf("unexpected delete output %q", out)
	}
	err := run(context.Background(), []string{"--config", filepath.Join(t.TempDir(), "c.toml"), "--api-url", base, "tasks", "get", created.ID}, io.Discard, io.Discard)
	if err == nil {
		t.Fatal("expected get of deleted task to fail")
	}
}

func TestRunTaskCreateValidatesLocally(t *testing.T) {
	isolateHome(t)
	base := startService(t)
	args := []string{"--config", filepath.Join(t.TempDir(), "config.toml"), "--api-url", base}

	if err := run(context.Background(), append(args, "tasks", "create", "--title", "   "), io.Discard, io.Discard); !errors.Is(err, domain.ErrInvalidTitle) {
		t.Fatalf("expected ErrInvalidTitle, got %v", err)
	}
	if err := run(context.Background(), append(args, "tasks", "create", "--title", "x", "--due", "soon"), io.Discard, io.Discard); !errors.Is(err, domain.ErrInvalidDueDate) {
		t.Fatalf("expected ErrInvalidDueDate, got %v", err)
	}
	if err := run(context.Background(), append(args, "tasks", "move", "t1", "blocked"), io.Discard, io.Discard); !errors.Is(err, domain.ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
	if err := run(context.Background(), append(args, "tasks", "update", "t1"), io.Discard, io.Discard); !errors.Is(err, domain.ErrEmptyPatch) {
		t.Fatalf("expected ErrEmptyPatch, got %v", err)
	}
}

func TestRunCategoryCommands(t *testing.T) {
	isolateHome(t)
	base := startService(t)

	var created domain.Category
	out := runCLI(t, base, "categories", "create", "--name", "Errands", "--color", "#10b981")
	if err := json.Unmarshal([]byte(out), &created); err != nil {
		t.Fatalf("decode category: %v (%q)", err, out)
	}
	if created.ID == "" || created.Name != "Errands" || created.IsDefault {
		t.Fatalf("unexpected category %#v", created)
	}

	var listed []domain.Category
	out = runCLI(t, base, "categories", "list")
	if err := json.Unmarshal([]byte(out), &listed); err != nil {
		t.Fatalf("decode categories: %v", err)
	}
	if len(listed) != len(domain.DefaultCategories())+1 {
		t.Fatalf("expected defaults plus one, got %d", len(listed))
	}

	runCLI(t, base, "categories", "delete", created.ID)
	err := run(context.Background(), []string{"--config", filepath.Join(t.TempDir(), "c.toml"), "--api-url", base, "categories", "delete", "cat-work"}, io.Discard, io.Discard)
	if err == nil {
		t.Fatal("expected default category delete to fail")
	}
}

func TestConfigPathFromEnv(t *testing.T) {
	isolateHome(t)
	cfgPath := filepath.Join(t.TempDir(), "env.toml")
	if err := os.WriteFile(cfgPath, []byte("[logging]\nlevel = \"loud\"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	t.Setenv("TASKFLOW_CONFIG", cfgPath)
	err := run(context.Background(), []string{"stats"}, io.Discard, io.Discard)
	if err == nil || !strings.Contains(err.Error(), cfgPath) {
		t.Fatalf("expected config error naming %q, got %v", cfgPath, err)
	}
}

func TestRuntimeLoggerMutesConsoleAndWritesDevFile(t *testing.T) {
	var console bytes.Buffer
	dir := t.TempDir()
	logger, err := newRuntimeLogger(&console, "taskflow", true, config.LoggingConfig{
		Level:   "debug",
		DevFile: config.DevFileConfig{Enabled: true, Dir: dir},
	}, func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) })
	if err != nil {
		t.Fatalf("newRuntimeLogger() error = %v", err)
	}
	wantPath := filepath.Join(dir, "taskflow-20260301.log")
	if logger.DevLogPath() != wantPath {
		t.Fatalf("expected dev log %q, got %q", wantPath, logger.DevLogPath())
	}

	logger.Info("visible", "command", "stats")
	logger.SetConsoleEnabled(false)
	logger.Warn("hidden", "command", "tui")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if !strings.Contains(console.String(), "visible") || strings.Contains(console.String(), "hidden") {
		t.Fatalf("unexpected console output %q", console.String())
	}
	content, err := os.ReadFile(wantPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	for _, want := range []string{"visible", "hidden", "command=tui"} {
		if !strings.Contains(string(content), want) {
			t.Fatalf("expected %q in dev log, got %q", want, string(content))
		}
	}
}

func TestRuntimeLoggerRejectsBadLevel(t *testing.T) {
	if _, err := newRuntimeLogger(io.Discard, "taskflow", false, config.LoggingConfig{Level: "chatty"}, nil); err == nil {
		t.Fatal("expected level parse error")
	}
}

func TestSanitizeLogFileStem(t *testing.T) {
	cases := map[string]string{
		"":              "taskflow",
		"  ":            "taskflow",
		"my app":        "my-app",
		"team/taskflow": "team-taskflow",
		"/":             "taskflow",
	}
	for in, want := range cases {
		if got := sanitizeLogFileStem(in); got != want {
			t.Fatalf("sanitizeLogFileStem(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWorkspaceRootFromFindsMarker(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "go.mod"), []byte("module x\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if got := workspaceRootFrom(nested); got != root {
		t.Fatalf("workspaceRootFrom() = %q, want %q", got, root)
	}
}

func TestWriteOutputFormats(t *testing.T) {
	v := deleted{Kind: "task", ID: "t1"}
	var js, ym bytes.Buffer
	if err := writeOutput(&js, "json", v); err != nil {
		t.Fatalf("writeOutput(json) error = %v", err)
	}
	if err := writeOutput(&ym, "YAML", v); err != nil {
		t.Fatalf("writeOutput(yaml) error = %v", err)
	}
	if !strings.Contains(js.String(), `"kind": "task"`) {
		t.Fatalf("unexpected json %q", js.String())
	}
	if !strings.Contains(ym.String(), "kind: task") || !strings.Contains(ym.String(), "id: t1") {
		t.Fatalf("unexpected yaml %q", ym.String())
	}
}
