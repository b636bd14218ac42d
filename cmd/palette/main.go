// Package main previews the category palette and board colors of the taskflow TUI.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/evanschultz/taskflow/internal/config"
	"github.com/evanschultz/taskflow/internal/domain"
	"github.com/evanschultz/taskflow/internal/tui"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("palette", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	configPath := fs.String("config", "", "config TOML whose ui.palette should be previewed")
	if err := fs.Parse(args); err != nil {
		return err
	}

	colors := domain.Palette()
	source := "built-in"
	if strings.TrimSpace(*configPath) != "" {
		cfg, err := config.Load(*configPath, config.Default("palette-preview.db"))
		if err != nil {
			return fmt.Errorf("load config %q: %w", *configPath, err)
		}
		if len(cfg.UI.Palette) > 0 {
			colors = cfg.ResolvedPalette(colors)
			source = *configPath
		}
	}

	_, _ = fmt.Fprintf(stdout, "=== CATEGORY PALETTE (%s) ===\n", source)
	_, _ = fmt.Fprintln(stdout, paletteTable(colors, domain.DefaultCategories()).Render())
	_, _ = fmt.Fprintln(stdout, "\n=== BOARD COLORS ===")
	_, _ = fmt.Fprintln(stdout, boardTable(tui.BoardColors()).Render())
	return nil
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("62"))).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230"))
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
}

// paletteTable lists each palette color with a swatch and the default
// categories that use it.
func paletteTable(colors []string, defaults []domain.Category) *table.Table {
	t := newTable("#", "Hex", "Swatch", "Card", "Default categories")
	for i, hex := range colors {
		var users []string
		for _, c := range defaults {
			if strings.EqualFold(c.Color, hex) {
				users = append(users, c.Name)
			}
		}
		t.Row(
			fmt.Sprintf("%d", i+1),
			hex,
			swatch(hex, 10),
			lipgloss.NewStyle().Foreground(lipgloss.Color(hex)).Render("● category"),
			strings.Join(users, ", "),
		)
	}
	return t
}

func boardTable(swatches []tui.Swatch) *table.Table {
	t := newTable("Spec", "Swatch", "Used for")
	for _, s := range swatches {
		t.Row(s.Spec, swatch(s.Spec, 8), s.Role)
	}
	return t
}

func swatch(spec string, width int) string {
	return lipgloss.NewStyle().
		Background(lipgloss.Color(spec)).
		Width(width).
		Render("")
}
