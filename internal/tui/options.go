package tui

import (
	"slices"
	"time"

	"github.com/atotto/clipboard"

	"github.com/evanschultz/taskflow/internal/domain"
)

// defaultNotificationTTL is how long a toast stays visible.
const defaultNotificationTTL = 3 * time.Second

// Option configures a Model.
type Option func(*Model)

// WithNotificationTTL sets how long toasts stay visible. Zero keeps them until
// the next one replaces them.
func WithNotificationTTL(ttl time.Duration) Option {
	return func(m *Model) {
		if ttl >= 0 {
			m.notificationTTL = ttl
		}
	}
}

// WithShowDescription toggles the description preview line on cards.
func WithShowDescription(show bool) Option {
	return func(m *Model) {
		m.showDescription = show
	}
}

// WithPalette replaces the colors offered by the new-category form.
func WithPalette(colors []string) Option {
	return func(m *Model) {
		if len(colors) > 0 {
			m.palette = slices.Clone(colors)
		}
	}
}

// WithClock overrides the time source used for due labels.
func WithClock(now func() time.Time) Option {
	return func(m *Model) {
		if now != nil {
			m.now = now
		}
	}
}

// WithClipboard overrides the clipboard writer used by the copy action.
func WithClipboard(write func(string) error) Option {
	return func(m *Model) {
		if write != nil {
			m.copyText = write
		}
	}
}

func defaultPalette() []string {
	return domain.Palette()
}

func systemClipboard(text string) error {
	return clipboard.WriteAll(text)
}
