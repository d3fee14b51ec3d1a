package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]logrus.Level{
		"trace":   logrus.TraceLevel,
		"DEBUG":   logrus.DebugLevel,
		" warn ":  logrus.WarnLevel,
		"warning": logrus.WarnLevel,
		"error":   logrus.ErrorLevel,
		"":        logrus.InfoLevel,
		"bogus":   logrus.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNewWithOutput_WritesJSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithOutput("debug", &buf)

	l.WithField("session_id", "s1").Debug("turn started")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "turn started", entry["msg"])
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "s1", entry["session_id"])
}

func TestNewWithOutput_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithOutput("error", &buf)

	l.Info("hidden")

	assert.Zero(t, buf.Len())
}
