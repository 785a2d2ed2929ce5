package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestSetupWritesJSON(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	logger := setup(&buf, "warn")
	logger.Info("dropped")
	slog.Warn("court deleted", "court", "abc")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)
	var rec map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &rec))
	assert.Equal(t, "court deleted", rec["msg"])
	assert.Equal(t, "abc", rec["court"])
}

func TestMultiHandlerFansOut(t *testing.T) {
	var a, b bytes.Buffer
	h := NewMultiHandler(
		slog.NewJSONHandler(&a, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewJSONHandler(&b, &slog.HandlerOptions{Level: slog.LevelError}),
	)
	logger := slog.New(h).With("svc", "terrainhub")
	logger.Info("hello")
	logger.Error("boom")

	assert.Equal(t, 2, bytes.Count(a.Bytes(), []byte("\n")))
	assert.Equal(t, 1, bytes.Count(b.Bytes(), []byte("\n")))
	assert.Contains(t, b.String(), `"svc":"terrainhub"`)
	assert.False(t, h.Enabled(context.Background(), slog.LevelDebug))
}

func TestSentryHandlerForwardsErrors(t *testing.T) {
	var (
		mu     sync.Mutex
		events []*sentry.Event
	)
	client, err := sentry.NewClient(sentry.ClientOptions{
		BeforeSend: func(e *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			mu.Lock()
			defer mu.Unlock()
			events = append(events, e)
			return nil
		},
	})
	require.NoError(t, err)
	hub := sentry.NewHub(client, sentry.NewScope())

	logger := slog.New(NewSentryHandler(hub)).With("component", "reports").WithGroup("req")
	logger.Info("ignored")
	logger.Error("failed to update reported content", "error", errors.New("mongo down"))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 1)
	assert.Equal(t, "failed to update reported content", events[0].Message)
	assert.Equal(t, "reports", events[0].Extra["component"])
	assert.Equal(t, "mongo down", events[0].Extra["req.error"])
}
