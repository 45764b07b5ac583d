package logger

import (
	"context"
	"log/slog"
	"testing"

	"github.com/phrazzld/servertask/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{input: "debug", want: slog.LevelDebug},
		{input: "INFO", want: slog.LevelInfo},
		{input: "Warn", want: slog.LevelWarn},
		{input: "error", want: slog.LevelError},
		{input: "verbose", want: slog.LevelInfo, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseLevel(tc.input)
			assert.Equal(t, tc.want, got)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSetupWritesJSONAtConfiguredLevel(t *testing.T) {
	original := slog.Default()
	defer slog.SetDefault(original)

	buf := &TestLogBuffer{}
	l, err := setup(buf, config.ServerConfig{LogLevel: "warn"})
	require.NoError(t, err)
	require.NotNil(t, l)

	l.Info("dropped")
	slog.Warn("kept", "component", "test")

	entries, err := buf.GetLogEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "kept", entries[0]["msg"])
	assert.Equal(t, "test", entries[0]["component"])
}

func TestSetupInvalidLevelFallsBackToInfo(t *testing.T) {
	original := slog.Default()
	defer slog.SetDefault(original)

	buf := &TestLogBuffer{}
	l, err := setup(buf, config.ServerConfig{LogLevel: "loud"})
	require.NoError(t, err)

	l.Debug("hidden")
	l.Info("visible")

	AssertLogContains(t, buf, "invalid log level configured")
	AssertLogField(t, buf, "configured_level", "loud")
	AssertLogContains(t, buf, "visible")
	assert.NotContains(t, buf.String(), "hidden")
}

func TestFromContext(t *testing.T) {
	fallback := slog.New(slog.NewJSONHandler(&TestLogBuffer{}, nil))
	scoped := slog.New(slog.NewJSONHandler(&TestLogBuffer{}, nil))

	assert.Same(t, fallback, FromContextOrDefault(context.Background(), fallback))

	ctx := WithLogger(context.Background(), scoped)
	assert.Same(t, scoped, FromContextOrDefault(ctx, fallback))
	assert.Same(t, scoped, FromContext(ctx))
	assert.Same(t, slog.Default(), FromContext(context.Background()))
}
