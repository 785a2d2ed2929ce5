package logging

import (
	"context"
	"log/slog"

	"github.com/getsentry/sentry-go"
)

// SentryHandler is an slog.Handler that forwards ERROR+ records to Sentry.
type SentryHandler struct {
	hub   *sentry.Hub
	attrs []slog.Attr // keys already qualified by their group
	group string
}

// NewSentryHandler reports through hub, or the current hub when hub is nil.
func NewSentryHandler(hub *sentry.Hub) *SentryHandler {
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	return &SentryHandler{hub: hub}
}

// Enabled only handles ERROR and above.
func (h *SentryHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelError
}

func (h *SentryHandler) Handle(_ context.Context, record slog.Record) error {
	event := sentry.NewEvent()
	event.Level = sentry.LevelError
	event.Message = record.Message
	event.Timestamp = record.Time
	event.Logger = "slog"

	extra := make(map[string]interface{}, len(h.attrs)+record.NumAttrs())
	for _, a := range h.attrs {
		extra[a.Key] = a.Value.Resolve().Any()
	}
	record.Attrs(func(a slog.Attr) bool {
		v := a.Value.Resolve().Any()
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		extra[h.key(a.Key)] = v
		return true
	})
	event.Extra = extra

	h.hub.CaptureEvent(event)
	return nil
}

func (h *SentryHandler) key(k string) string {
	if h.group == "" {
		return k
	}
	return h.group + "." + k
}

func (h *SentryHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	cp := *h
	cp.attrs = append([]slog.Attr{}, h.attrs...)
	for _, a := range attrs {
		cp.attrs = append(cp.attrs, slog.Attr{Key: h.key(a.Key), Value: a.Value})
	}
	return &cp
}

func (h *SentryHandler) WithGroup(name string) slog.Handler {
	cp := *h
	cp.group = h.key(name)
	return &cp
}
