// Package notify delivers completion notifications for finished downloads.
package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/alanbriolat/media-fetcher"
	"github.com/alanbriolat/media-fetcher/history"
)

var (
	ErrDeliveryFailed = errors.New("notification delivery failed")
)

const DefaultTemplate = `Download complete: {{.Title}}{{if .Playlist}} ({{.Files}} files){{end}}
{{.Path}}`

var defaultTemplate = template.Must(template.New("notification").Parse(DefaultTemplate))

// Notification summarises a history record for delivery.
type Notification struct {
	Title     string          `json:"title"`
	URL       string          `json:"url"`
	Path      string          `json:"path"`
	Type      string          `json:"type"`
	Format    string          `json:"format"`
	Elapsed   float64         `json:"elapsed"`
	Thumbnail string          `json:"thumbnail"`
	Playlist  bool            `json:"playlist"`
	Files     int             `json:"files"`
	Entries   []history.Entry `json:"entries,omitempty"`
}

// FromRecord describes a record by its first entry, noting how many files it covers.
func FromRecord(r history.Record) Notification {
	entries := r.All()
	n := Notification{
		Playlist: r.IsPlaylist(),
		Files:    len(entries),
	}
	if len(entries) > 0 {
		first := entries[0]
		n.Title = first.Title
		n.URL = first.URL
		n.Path = first.FilePath
		n.Type = first.Type
		n.Format = first.Format
		n.Elapsed = first.Elapsed
		n.Thumbnail = first.Thumbnail
	}
	if n.Playlist {
		n.Entries = entries
	}
	return n
}

// Render formats the notification with tmpl, or DefaultTemplate if tmpl is nil.
func Render(tmpl *template.Template, n Notification) (string, error) {
	if tmpl == nil {
		tmpl = defaultTemplate
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, n); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

// ParseTemplate parses a message template; an empty string gives the default template.
func ParseTemplate(text string) (*template.Template, error) {
	if text == "" {
		return defaultTemplate, nil
	}
	return template.New("notification").Parse(text)
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

type Nop struct{}

func (Nop) Notify(context.Context, Notification) error {
	return nil
}

// Multi delivers to every notifier, returning all of their errors combined.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notification) error {
	var result *multierror.Error
	for _, notifier := range m {
		if err := notifier.Notify(ctx, n); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

type bestEffort struct {
	Notifier
	log *zap.SugaredLogger
}

// BestEffort wraps a notifier so that delivery failures are logged and never returned.
func BestEffort(n Notifier) Notifier {
	if n == nil {
		n = Nop{}
	}
	return &bestEffort{Notifier: n, log: zap.S().Named("notify")}
}

func (b *bestEffort) Notify(ctx context.Context, n Notification) error {
	if err := b.Notifier.Notify(ctx, n); err != nil {
		b.log.Warnw("failed to send notification", "title", n.Title, "error", err)
	}
	return nil
}

// FromConfig builds the notifiers enabled by the config, or Nop if there are none.
func FromConfig(cfg media_fetcher.NotificationsConfig) (Notifier, error) {
	if !cfg.Enabled {
		return Nop{}, nil
	}
	tmpl, err := ParseTemplate(cfg.Template)
	if err != nil {
		return nil, fmt.Errorf("invalid notification template: %w", err)
	}
	var notifiers Multi
	if cfg.WebhookURL != "" {
		notifiers = append(notifiers, &Webhook{URL: cfg.WebhookURL, Template: tmpl})
	}
	if cfg.TelegramToken != "" && cfg.TelegramChatID != "" {
		notifiers = append(notifiers, &Telegram{Token: cfg.TelegramToken, ChatID: cfg.TelegramChatID, Template: tmpl})
	}
	switch len(notifiers) {
	case 0:
		return Nop{}, nil
	case 1:
		return notifiers[0], nil
	default:
		return notifiers, nil
	}
}
