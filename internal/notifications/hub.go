package notifications

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"dawpresence/internal/logging"
)

// Kind names a user-visible event.
type Kind string

const (
	KindDawDetected       Kind = "daw_detected"
	KindDawClosed         Kind = "daw_closed"
	KindConnectionChanged Kind = "connection_changed"
	KindSettingsChanged   Kind = "settings_changed"
)

const defaultCapacity = 256

// Event is one notification for the presentation layer.
type Event struct {
	Sequence    uint64    `json:"seq"`
	Timestamp   time.Time `json:"ts"`
	Kind        Kind      `json:"kind"`
	Message     string    `json:"message"`
	DawName     string    `json:"daw_name,omitempty"`
	ProjectName string    `json:"project_name,omitempty"`
	Connected   bool      `json:"connected"`
}

// Sink receives every published event. Implementations must not block.
type Sink interface {
	Append(Event)
}

// Hub buffers recent events and wakes waiting consumers. Publish never blocks
// on consumers: the oldest event is dropped when the buffer is full.
type Hub struct {
	mu       sync.Mutex
	cond     *sync.Cond
	capacity int
	buffer   []Event
	nextSeq  uint64
	sinks    []Sink
}

// NewHub constructs a hub holding at most capacity events.
func NewHub(capacity int) *Hub {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	h := &Hub{capacity: capacity}
	h.cond = sync.NewCond(&h.mu)
	return h
}

// AddSink wires an additional sink.
func (h *Hub) AddSink(sink Sink) {
	if h == nil || sink == nil {
		return
	}
	h.mu.Lock()
	h.sinks = append(h.sinks, sink)
	h.mu.Unlock()
}

// Publish stamps evt with the next sequence number and buffers it.
func (h *Hub) Publish(evt Event) {
	if h == nil {
		return
	}
	h.mu.Lock()
	h.nextSeq++
	evt.Sequence = h.nextSeq
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	if len(h.buffer) == h.capacity {
		copy(h.buffer, h.buffer[1:])
		h.buffer = h.buffer[:h.capacity-1]
	}
	h.buffer = append(h.buffer, evt)
	sinks := append([]Sink(nil), h.sinks...)
	h.cond.Broadcast()
	h.mu.Unlock()

	for _, sink := range sinks {
		sink.Append(evt)
	}
}

// Fetch returns up to limit events with a sequence greater than since, plus the
// latest sequence number. With wait set it blocks until an event is available
// or ctx ends.
func (h *Hub) Fetch(ctx context.Context, since uint64, limit int, wait bool) ([]Event, uint64, error) {
	if h == nil {
		return nil, since, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if limit <= 0 || limit > h.capacity {
		limit = h.capacity
	}

	if wait && ctx.Done() != nil {
		stop := context.AfterFunc(ctx, func() {
			h.mu.Lock()
			h.cond.Broadcast()
			h.mu.Unlock()
		})
		defer stop()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for {
		events, next := h.snapshotLocked(since, limit)
		if len(events) > 0 || !wait {
			return events, next, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, next, err
		}
		h.cond.Wait()
	}
}

// Tail returns the most recent limit events without blocking.
func (h *Hub) Tail(limit int) ([]Event, uint64) {
	if h == nil {
		return nil, 0
	}
	if limit <= 0 || limit > h.capacity {
		limit = h.capacity
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	start := len(h.buffer) - limit
	if start < 0 {
		start = 0
	}
	return append([]Event(nil), h.buffer[start:]...), h.nextSeq
}

func (h *Hub) snapshotLocked(since uint64, limit int) ([]Event, uint64) {
	for i, evt := range h.buffer {
		if evt.Sequence <= since {
			continue
		}
		end := i + limit
		if end > len(h.buffer) {
			end = len(h.buffer)
		}
		return append([]Event(nil), h.buffer[i:end]...), h.nextSeq
	}
	return nil, h.nextSeq
}

// LogSink writes every event to a logger at info level.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink returns a sink logging through logger.
func NewLogSink(logger *slog.Logger) LogSink {
	return LogSink{logger: logging.NewComponentLogger(logger, "notifications")}
}

func (s LogSink) Append(evt Event) {
	s.logger.Info(evt.Message,
		logging.String(logging.FieldEventType, string(evt.Kind)),
		logging.Int64("seq", int64(evt.Sequence)),
	)
}
