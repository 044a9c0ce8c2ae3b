package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"aotw/internal/config"
)

const userAgent = "aotw/0.1.0"

// Event identifies a notification type.
type Event string

const (
	EventAlbumAdded     Event = "album_added"
	EventPublishPending Event = "publish_pending"
	EventPipelineError  Event = "pipeline_error"
	EventTest           Event = "test"
)

// Payload carries event-specific values.
type Payload map[string]any

// Service publishes notifications.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		enabled: map[Event]bool{
			EventAlbumAdded:     cfg.Notifications.AlbumAdded,
			EventPublishPending: cfg.Notifications.PublishPending,
			EventPipelineError:  cfg.Notifications.Errors,
			EventTest:           true,
		},
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	enabled  map[Event]bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if n == nil || !n.enabled[event] {
		return nil
	}
	msg, ok := format(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func format(event Event, payload Payload) (message, bool) {
	switch event {
	case EventAlbumAdded:
		title := fmt.Sprintf("%s by %s", payload.text("album"), payload.text("artist"))
		if pick := payload.text("pick"); pick != "" {
			title = fmt.Sprintf("Pick #%s: %s", pick, title)
		}
		if picker := payload.text("picker"); picker != "" {
			title = fmt.Sprintf("%s (%s)", title, picker)
		}
		return message{
			title: "AOTW - Album Added",
			body:  "🎵 " + title,
			tags:  []string{"aotw", "album", "added"},
		}, true
	case EventPublishPending:
		body := "Website update pending"
		if album := payload.text("album"); album != "" {
			body = fmt.Sprintf("Website update pending after adding %s", album)
		}
		return message{
			title: "AOTW - Publish Pending",
			body:  "⏳ " + body + "\nRun 'aotw sync' to retry",
			tags:  []string{"aotw", "publish", "pending"},
		}, true
	case EventPipelineError:
		var b strings.Builder
		b.WriteString("❌ Error")
		if stage := payload.text("stage"); stage != "" {
			b.WriteString(" during ")
			b.WriteString(stage)
		}
		b.WriteString(": ")
		if errText := payload.text("error"); errText != "" {
			b.WriteString(errText)
		} else {
			b.WriteString("unknown")
		}
		return message{
			title:    "AOTW - Error",
			body:     b.String(),
			tags:     []string{"aotw", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "AOTW - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"aotw", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func (p Payload) text(key string) string {
	value, ok := p[key]
	if !ok || value == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(value))
}

func (n *ntfyService) send(ctx context.Context, data message) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Noop returns a Service that discards every event.
func Noop() Service {
	return noopService{}
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
