package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"imgsauce/internal/config"
)

const userAgent = "imgsauce/0.1.0"

// Event identifies a notification type.
type Event string

const (
	// EventRunCompleted reports a finished scan with its tallies.
	EventRunCompleted Event = "run_completed"
	// EventQuotaStop reports a scan that ended on an exhausted search quota.
	EventQuotaStop Event = "quota_stop"
	// EventReviewPending reminds that candidates wait for manual review.
	EventReviewPending Event = "review_pending"
	// EventError reports a failed run.
	EventError Event = "error"
	// EventTest is sent by the config test command.
	EventTest Event = "test"
)

// Payload carries event fields. Values are formatted with fmt unless a
// specific type is expected.
type Payload map[string]any

// Service publishes notification events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
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
		settings: cfg.Notifications,
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
	settings config.Notifications
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	msg, ok := n.render(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func (n *ntfyService) render(event Event, payload Payload) (message, bool) {
	switch event {
	case EventRunCompleted:
		if !n.settings.RunSummary {
			return message{}, false
		}
		body := fmt.Sprintf("Scanned %d files in %s: %d matched, %d pending review, %d duplicates removed",
			payloadInt(payload, "scanned"),
			payloadString(payload, "directory"),
			payloadInt(payload, "matched"),
			payloadInt(payload, "pending"),
			payloadInt(payload, "duplicates"),
		)
		if reclaimed := payloadInt(payload, "reclaimedBytes"); reclaimed > 0 {
			body += fmt.Sprintf("\nReclaimed %s", humanize.Bytes(uint64(reclaimed)))
		}
		return message{
			title: "imgsauce - Scan Complete",
			body:  body,
			tags:  []string{"imgsauce", "scan", "completed"},
		}, true
	case EventQuotaStop:
		if !n.settings.QuotaStop {
			return message{}, false
		}
		return message{
			title: "imgsauce - Search Quota Reached",
			body: fmt.Sprintf("⏸️ Daily search limit reached after %d files in %s",
				payloadInt(payload, "scanned"), payloadString(payload, "directory")),
			tags: []string{"imgsauce", "quota"},
		}, true
	case EventReviewPending:
		count := payloadInt(payload, "count")
		minimum := n.settings.ReviewMinimum
		if minimum <= 0 {
			minimum = 1
		}
		if !n.settings.Review || count < int64(minimum) {
			return message{}, false
		}
		return message{
			title: "imgsauce - Review Needed",
			body:  fmt.Sprintf("🔎 %d images have candidates waiting for review", count),
			tags:  []string{"imgsauce", "review"},
		}, true
	case EventError:
		if !n.settings.Errors {
			return message{}, false
		}
		var builder strings.Builder
		builder.WriteString("❌ Error")
		if label := payloadString(payload, "context"); label != "" {
			builder.WriteString(" during ")
			builder.WriteString(label)
		}
		builder.WriteString(": ")
		if detail := payloadString(payload, "error"); detail != "" {
			builder.WriteString(detail)
		} else {
			builder.WriteString("unknown")
		}
		return message{
			title:    "imgsauce - Error",
			body:     builder.String(),
			tags:     []string{"imgsauce", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "imgsauce - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"imgsauce", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.title != "" {
		req.Header.Set("Title", msg.title)
	}
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" && msg.priority != "default" {
		req.Header.Set("Priority", msg.priority)
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

func payloadString(p Payload, key string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return ""
	}
	if err, ok := v.(error); ok {
		return strings.TrimSpace(err.Error())
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

func payloadInt(p Payload, key string) int64 {
	switch v := p[key].(type) {
	case int:
		return int64(v)
	case int64:
		return v
	case uint64:
		return int64(v)
	case string:
		n, _ := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return n
	default:
		return 0
	}
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
