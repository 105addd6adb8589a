package notifications

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"dawpresence/internal/config"
	"dawpresence/internal/logging"
)

const (
	userAgent      = "DAWPresence/" + config.Version
	ntfyQueueDepth = 32
)

// NtfySink pushes DAW open and close events to an ntfy topic. Deliveries run
// on a background goroutine; when the queue is full new events are dropped.
type NtfySink struct {
	endpoint string
	client   *http.Client
	logger   *slog.Logger

	mu     sync.Mutex
	closed bool
	queue  chan Event
	done   chan struct{}
}

// NewNtfySink returns nil when cfg has no topic configured.
func NewNtfySink(cfg *config.Config, logger *slog.Logger) *NtfySink {
	if cfg == nil || strings.TrimSpace(cfg.Notifications.NtfyTopic) == "" {
		return nil
	}
	timeout := cfg.NtfyTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	s := &NtfySink{
		endpoint: strings.TrimSpace(cfg.Notifications.NtfyTopic),
		client:   &http.Client{Timeout: timeout},
		logger:   logging.NewComponentLogger(logger, "ntfy"),
		queue:    make(chan Event, ntfyQueueDepth),
		done:     make(chan struct{}),
	}
	go s.run()
	return s
}

// Append queues evt for delivery when it is a kind worth pushing.
func (s *NtfySink) Append(evt Event) {
	if s == nil {
		return
	}
	if evt.Kind != KindDawDetected && evt.Kind != KindDawClosed {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.queue <- evt:
	default:
		s.logger.Debug("ntfy queue full; dropping event", logging.String(logging.FieldEventType, string(evt.Kind)))
	}
}

// Close stops accepting events and waits for queued deliveries to finish.
func (s *NtfySink) Close() {
	if s == nil {
		return
	}
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()
	<-s.done
}

func (s *NtfySink) run() {
	defer close(s.done)
	for evt := range s.queue {
		if err := s.send(context.Background(), evt); err != nil {
			logging.WarnWithContext(s.logger, "ntfy delivery failed", "ntfy_send_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "push notification not delivered"),
				logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
			)
		}
	}
}

func (s *NtfySink) send(ctx context.Context, evt Event) error {
	title, tags := "DAWPresence - DAW Opened", []string{"dawpresence", "musical_note"}
	if evt.Kind == KindDawClosed {
		title, tags = "DAWPresence - DAW Closed", []string{"dawpresence", "zzz"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(evt.Message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	req.Header.Set("Title", title)
	req.Header.Set("Tags", strings.Join(tags, ","))
	req.Header.Set("Priority", "low")

	resp, err := s.client.Do(req)
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
