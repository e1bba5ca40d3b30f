package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/lixenwraith/bridge/logging"

	"github.com/stretchr/testify/require"
)

func TestNewLogger_JSONOutput(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := logging.NewLogger(logging.LoggerConfig{Level: "INFO"}, &buf)
	logger.Info("converted", slog.String("direction", "inbound"))

	var entry map[string]any

	err := json.Unmarshal(buf.Bytes(), &entry)
	require.NoError(t, err, "output should be valid JSON")
	require.Equal(t, "converted", entry["msg"])
	require.Equal(t, "inbound", entry["direction"])
	require.Equal(t, "INFO", entry["level"])
}

func TestNewLogger_TextFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := logging.NewLogger(logging.LoggerConfig{Format: "TEXT"}, &buf)
	logger.Info("hello")

	require.True(t, strings.Contains(buf.String(), "msg=hello"))
}

func TestNewLogger_Levels(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name        string
		configLevel string
		logLevel    slog.Level
		shouldLog   bool
	}{
		{name: "debug level logs debug", configLevel: "debug", logLevel: slog.LevelDebug, shouldLog: true},
		{name: "warning alias", configLevel: "WARNING", logLevel: slog.LevelWarn, shouldLog: true},
		{name: "info level drops debug", configLevel: "INFO", logLevel: slog.LevelDebug, shouldLog: false},
		{name: "error level drops info", configLevel: "ERROR", logLevel: slog.LevelInfo, shouldLog: false},
		{name: "invalid level defaults to info", configLevel: "LOUD", logLevel: slog.LevelInfo, shouldLog: true},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer

			logger := logging.NewLogger(logging.LoggerConfig{Level: testCase.configLevel}, &buf)
			logger.Log(context.Background(), testCase.logLevel, "message")

			if testCase.shouldLog {
				require.NotEmpty(t, buf.String())
			} else {
				require.Empty(t, buf.String())
			}
		})
	}
}

func TestDiscard(t *testing.T) {
	t.Parallel()

	logger := logging.Discard()
	require.False(t, logger.Enabled(context.Background(), slog.LevelError))
}
