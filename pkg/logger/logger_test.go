package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSONWritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&Config{Level: "debug", Format: "json", Writer: &buf})
	require.NoError(t, err)

	l.With(String("component", "fanout")).Info("peer_call_success",
		String("peer", "technical"),
		Int("length", 42),
		Float64("score", 0.5),
		Duration("duration_ms", 1500*time.Millisecond),
		Bool("truncated", false),
		Error(errors.New("boom")),
	)

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "peer_call_success", line["message"])
	assert.Equal(t, "fanout", line["component"])
	assert.Equal(t, "technical", line["peer"])
	assert.EqualValues(t, 42, line["length"])
	assert.EqualValues(t, 0.5, line["score"])
	assert.EqualValues(t, 1500, line["duration_ms"])
	assert.Equal(t, false, line["truncated"])
	assert.Equal(t, "boom", line["error"])
}

func TestLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&Config{Level: "warn", Writer: &buf})
	require.NoError(t, err)

	l.Debug("hidden")
	l.Info("hidden")
	assert.Empty(t, buf.String())

	l.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestInvalidLevel(t *testing.T) {
	_, err := New(&Config{Level: "loud"})
	assert.Error(t, err)
}

func TestNopDiscards(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop().Error("nothing", String("k", "v"))
	})
}
