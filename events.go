package distroav

import (
	"context"
	"log/slog"
	"sync"
	"time"

	slogcommon "github.com/samber/slog-common"
)

// Event is what flows to /api/events subscribers: capability and plugin
// lifecycle notices plus bridged log records.
type Event struct {
	Type string         `json:"type"`
	Time time.Time      `json:"time"`
	Data map[string]any `json:"data,omitempty"`
}

// EventHub fans events out to subscribers. A subscriber that cannot keep
// up loses events rather than blocking the publisher.
type EventHub struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}
	buf  int
}

func NewEventHub(buf int) *EventHub {
	if buf <= 0 {
		buf = 16
	}
	return &EventHub{subs: make(map[chan Event]struct{}), buf: buf}
}

func (hub *EventHub) Publish(event Event) {
	if hub == nil {
		return
	}
	if event.Time.IsZero() {
		event.Time = time.Now()
	}
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	for ch := range hub.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

func (hub *EventHub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, hub.buf)
	hub.mu.Lock()
	hub.subs[ch] = struct{}{}
	hub.mu.Unlock()
	return ch, func() {
		hub.mu.Lock()
		delete(hub.subs, ch)
		hub.mu.Unlock()
	}
}

func (hub *EventHub) SubscriberCount() int {
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	return len(hub.subs)
}

var _ slog.Handler = (*eventLogHandler)(nil)

// eventLogHandler republishes log records as events so API subscribers see
// the same stream the console does.
type eventLogHandler struct {
	hub    *EventHub
	level  slog.Leveler
	attrs  []slog.Attr
	groups []string
}

func (hub *EventHub) LogHandler(level slog.Leveler) slog.Handler {
	return &eventLogHandler{hub: hub, level: level}
}

func (h *eventLogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *eventLogHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := slogcommon.AppendRecordAttrsToAttrs(h.attrs, h.groups, &r)
	attrs = slogcommon.RemoveEmptyAttrs(attrs)
	extra := slogcommon.AttrsToMap(attrs...)
	for _, key := range []string{"error", "err"} {
		if v, ok := extra[key]; ok {
			if err, ok := v.(error); ok {
				extra[key] = slogcommon.FormatError(err)
			}
		}
	}
	h.hub.Publish(Event{
		Type: "log",
		Time: r.Time,
		Data: map[string]any{
			"level":   r.Level.String(),
			"message": r.Message,
			"extra":   extra,
		},
	})
	return nil
}

func (h *eventLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	copy(newAttrs[len(h.attrs):], attrs)
	return &eventLogHandler{hub: h.hub, level: h.level, attrs: newAttrs, groups: h.groups}
}

func (h *eventLogHandler) WithGroup(name string) slog.Handler {
	return &eventLogHandler{
		hub:    h.hub,
		level:  h.level,
		attrs:  h.attrs,
		groups: append(append([]string(nil), h.groups...), name),
	}
}
