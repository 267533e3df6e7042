package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/crytic/solship/logging/colors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAddWriterDeduplicates ensures the same writer is never registered twice.
func TestAddWriterDeduplicates(t *testing.T) {
	logger := NewLogger(zerolog.InfoLevel)
	var buf bytes.Buffer

	logger.AddWriter(&buf, STRUCTURED)
	logger.AddWriter(&buf, STRUCTURED)
	assert.Len(t, logger.writers, 1)
}

// TestStructuredOutput verifies that structured writers receive JSON events with sub-logger context, errors and
// structured info, and that color functions never leak into them.
func TestStructuredOutput(t *testing.T) {
	logger := NewLogger(zerolog.InfoLevel)
	var buf bytes.Buffer
	logger.AddWriter(&buf, STRUCTURED)

	subLogger := logger.NewSubLogger(SERVICE_KEY, COMPILATION_SERVICE)
	subLogger.Info("compiled ", colors.Bold, "Car.sol", colors.Reset, StructuredLogInfo{"artifacts": 1}, errors.New("boom"))

	var event map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &event))
	assert.Equal(t, "compiled Car.sol", event["message"])
	assert.Equal(t, COMPILATION_SERVICE, event[SERVICE_KEY])
	assert.Equal(t, "boom", event["error"])
	assert.Equal(t, "info", event["level"])
	assert.NotNil(t, event["info"])
}

// TestLevelFiltering ensures events below the configured level are discarded.
func TestLevelFiltering(t *testing.T) {
	logger := NewLogger(zerolog.WarnLevel)
	var buf bytes.Buffer
	logger.AddWriter(&buf, UNSTRUCTURED)

	logger.Info("hidden")
	assert.Empty(t, buf.String())

	logger.Warn("shown")
	assert.Contains(t, buf.String(), "shown")

	logger.SetLevel(zerolog.DebugLevel)
	logger.Debug("now visible")
	assert.Contains(t, buf.String(), "now visible")
}

// TestConsoleWithoutColors verifies the console writer output when colors are disabled.
func TestConsoleWithoutColors(t *testing.T) {
	logger := NewLogger(zerolog.InfoLevel)
	var buf bytes.Buffer
	logger.EnableConsole(&buf, true)
	defer colors.EnableColor()

	logger.NewSubLogger(SERVICE_KEY, CLI_SERVICE).Info("foo")

	assert.True(t, strings.Contains(buf.String(), colors.LEFT_ARROW+" foo"))
	assert.NotContains(t, buf.String(), "\x1b[")
	assert.NotContains(t, buf.String(), SERVICE_KEY)
}
