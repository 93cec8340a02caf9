package logger

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNew_SetsGlobalLevel(t *testing.T) {
	testCases := []struct {
		level    string
		expected zerolog.Level
	}{
		{level: "debug", expected: zerolog.DebugLevel},
		{level: "info", expected: zerolog.InfoLevel},
		{level: "warn", expected: zerolog.WarnLevel},
		{level: "error", expected: zerolog.ErrorLevel},
		{level: "chatty", expected: zerolog.InfoLevel}, // Unknown levels fall back to info
	}

	for _, tc := range testCases {
		t.Run(tc.level, func(t *testing.T) {
			New(Config{Level: tc.level})
			assert.Equal(t, tc.expected, zerolog.GlobalLevel())
		})
	}
}

func TestNew_UsesRFC3339Timestamps(t *testing.T) {
	New(Config{Level: "info"})
	assert.Equal(t, time.RFC3339, zerolog.TimeFieldFormat)
}

func TestNew_PrettyAndPlainAreUsable(t *testing.T) {
	// Error level keeps the probes below from reaching stdout
	plain := New(Config{Level: "error"})
	pretty := New(Config{Level: "error", Pretty: true})

	assert.NotPanics(t, func() { plain.Info().Str("k", "v").Msg("plain probe") })
	assert.NotPanics(t, func() { pretty.Info().Str("k", "v").Msg("pretty probe") })
}
