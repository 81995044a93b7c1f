package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(&Config{Level: "loud", Output: "stdout"})
	require.Error(t, err)
}

func TestWriterLoggerEmitsFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, zerolog.DebugLevel)

	l.Warn("provider failed",
		String("symbol", "AAPL"),
		Int("attempt", 2),
		Float64("price", 185.25),
		Duration("took", 1500*time.Millisecond),
		Bool("demo", true),
		Error(errors.New("boom")),
	)

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, "provider failed", line["message"])
	assert.Equal(t, "AAPL", line["symbol"])
	assert.Equal(t, float64(2), line["attempt"])
	assert.Equal(t, 185.25, line["price"])
	assert.Equal(t, float64(1500), line["took"])
	assert.Equal(t, true, line["demo"])
	assert.Equal(t, "boom", line["error"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, zerolog.WarnLevel)
	l.Debug("hidden")
	l.Info("hidden")
	assert.Zero(t, buf.Len())

	l.Error("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestWithCarriesTypedFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, zerolog.InfoLevel).With(String("component", "resolver"), Int("shard", 3))
	l.Info("hello", Strings("symbols", []string{"AAPL", "MSFT"}))

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "resolver", line["component"])
	assert.Equal(t, float64(3), line["shard"])
	assert.Equal(t, []interface{}{"AAPL", "MSFT"}, line["symbols"])
}

func TestNewAcceptsMixedCaseAndEmptyLevel(t *testing.T) {
	_, err := New(&Config{Level: "WARN", Output: "stderr"})
	require.NoError(t, err)
	_, err = New(&Config{Output: "stderr"})
	require.NoError(t, err)
}

func TestNopDiscards(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop().Error("nothing", Error(nil))
	})
}
