package logger

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observedLogger() (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return &Logger{Logger: zap.New(core), config: DefaultConfig()}, logs
}

func TestWithOperation(t *testing.T) {
	l, logs := observedLogger()

	l.WithOperation("leaderboard_query").Info("done")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()

	assert.Equal(t, "leaderboard_query", fields["operation"])

	// the correlation id must be a parseable uuid, unique per operation
	id, ok := fields["correlation_id"].(string)
	require.True(t, ok)
	_, err := uuid.Parse(id)
	assert.NoError(t, err)
	assert.Contains(t, fields, "start_time")
}

func TestWithOperationIDsAreUnique(t *testing.T) {
	l, logs := observedLogger()

	l.WithOperation("a").Info("one")
	l.WithOperation("a").Info("two")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.NotEqual(t,
		entries[0].ContextMap()["correlation_id"],
		entries[1].ContextMap()["correlation_id"])
}

func TestTrackPerformance(t *testing.T) {
	l, logs := observedLogger()

	end := l.TrackPerformance("fetch_page")
	end()

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "Starting operation", entries[0].Message)
	assert.Equal(t, "Operation completed", entries[1].Message)
	assert.Contains(t, entries[1].ContextMap(), "duration_ms")

	// both lines share one correlation id
	assert.Equal(t,
		entries[0].ContextMap()["correlation_id"],
		entries[1].ContextMap()["correlation_id"])
}

func TestLogError(t *testing.T) {
	l, logs := observedLogger()

	l.LogError("boom", assert.AnError, zap.String("component", "planner"))

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, assert.AnError.Error(), fields["error"])
	assert.Equal(t, "planner", fields["component"])
}
