package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufLogger(level slog.Level) (*SlogLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: level})
	return NewSlogLogger(slog.New(h)), &buf
}

func TestSlogLogger_Levels(t *testing.T) {
	ctx := context.Background()

	l, buf := newBufLogger(slog.LevelDebug)
	l.Debug(ctx, "d", "k", 1)
	l.Info(ctx, "i")
	l.Warn(ctx, "w")
	l.Error(ctx, "e")

	out := buf.String()
	for _, want := range []string{"level=DEBUG", "level=INFO", "level=WARN", "level=ERROR"} {
		assert.Contains(t, out, want)
	}
}

func TestSlogLogger_WithAddsFields(t *testing.T) {
	ctx := context.Background()

	l, buf := newBufLogger(slog.LevelInfo)
	child := l.With("component", "reconciler")
	require.NotNil(t, child)

	child.Info(ctx, "refresh done")
	assert.Contains(t, buf.String(), "component=reconciler")
}
