package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetupWriterEmitsStructuredJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupWriter(&buf, "launchpadd", "test", Options{Level: "warn"})
	logger.Info("dropped")
	logger.Warn("kept", "method", "sale_purchase")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	require.Equal(t, "kept", entry["message"])
	require.Equal(t, "WARN", entry["severity"])
	require.Equal(t, "launchpadd", entry["service"])
	require.Equal(t, "test", entry["env"])
	require.Equal(t, "sale_purchase", entry["method"])
	require.Contains(t, entry, "timestamp")
}

func TestParseLevel(t *testing.T) {
	for input, want := range map[string]slog.Level{
		"":        slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	} {
		got, err := ParseLevel(input)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	_, err := ParseLevel("loud")
	require.Error(t, err)
}

func TestMaskField(t *testing.T) {
	require.Equal(t, RedactedValue, MaskField("token", "secret").Value.String())
	require.Equal(t, "sale_info", MaskField("method", "sale_info").Value.String())
	require.Equal(t, "", MaskField("token", "").Value.String())
	require.Contains(t, RedactionAllowlist(), "request_id")
}
