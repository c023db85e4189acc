package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewLoggerEmitsJSONWithServiceField(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "whalemap", false)
	log.Info().Msg("starting")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "whalemap", line["service"])
	require.Equal(t, "starting", line["message"])
}

func TestNewLoggerDevelopmentUsesConsoleWriter(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "whalemap", true)
	log.Info().Msg("starting")

	out := buf.String()
	require.False(t, strings.HasPrefix(out, "{"), "development output must not be JSON")
	require.Contains(t, out, "starting")
	require.Contains(t, out, "service=whalemap")
}
