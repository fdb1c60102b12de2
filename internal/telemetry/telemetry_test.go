package telemetry

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLoggerWritesToFile(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	dir := filepath.Join(t.TempDir(), "logs")
	logger, closer, err := InitLogger(dir, true)
	require.NoError(t, err)

	logger.Debug("debug line", "session_id", "abc")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(filepath.Join(dir, "therachat.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"debug line"`)
	assert.Contains(t, string(data), `"session_id":"abc"`)
}

func TestInitLoggerInfoLevel(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	dir := t.TempDir()
	logger, closer, err := InitLogger(dir, false)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("shown")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(filepath.Join(dir, "therachat.log"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "shown")
}

func TestInitTelemetry(t *testing.T) {
	dir := t.TempDir()
	p, err := InitTelemetry(context.Background(), dir, "test")
	require.NoError(t, err)
	require.NotNil(t, p.Tracer)
	require.NotNil(t, p.Meter)

	_, span := p.Tracer.Start(context.Background(), "unit")
	span.End()

	counter, err := p.Meter.Int64Counter("unit.turns")
	require.NoError(t, err)
	counter.Add(context.Background(), 1)

	require.NoError(t, p.Shutdown(context.Background()))

	traces, err := os.ReadFile(filepath.Join(dir, "therachat_traces.log"))
	require.NoError(t, err)
	assert.Contains(t, string(traces), `"Name": "unit"`)

	metrics, err := os.ReadFile(filepath.Join(dir, "therachat_metrics.log"))
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "unit.turns")
}

func TestShutdownReportsCancelledContext(t *testing.T) {
	p, err := InitTelemetry(context.Background(), t.TempDir(), "test")
	require.NoError(t, err)

	_, span := p.Tracer.Start(context.Background(), "pending")
	span.End()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = p.Shutdown(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNoop(t *testing.T) {
	p := Noop()
	_, span := p.Tracer.Start(context.Background(), "noop")
	span.End()
	counter, err := p.Meter.Int64Counter("x")
	require.NoError(t, err)
	counter.Add(context.Background(), 1)
	assert.NoError(t, p.Shutdown(context.Background()))
}
