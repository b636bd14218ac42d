package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/evanschultz/taskflow/internal/domain"
)

func TestRunPrintsBuiltInPalette(t *testing.T) {
	var out strings.Builder
	if err := run(nil, &out); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	got := out.String()
	for _, want := range []string{"CATEGORY PALETTE (built-in)", "BOARD COLORS", domain.DefaultCategoryColor, "Work"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in output, got %q", want, got)
		}
	}
}

func TestRunUsesConfiguredPalette(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[ui]\npalette = [\"#123456\"]\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	var out strings.Builder
	if err := run([]string{"--config", path}, &out); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if !strings.Contains(out.String(), "#123456") || strings.Contains(out.String(), "(built-in)") {
		t.Fatalf("expected configured palette, got %q", out.String())
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[ui]\npalette = [\"teal\"]\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := run([]string{"--config", path}, &strings.Builder{}); err == nil {
		t.Fatal("expected palette validation error")
	}
}
