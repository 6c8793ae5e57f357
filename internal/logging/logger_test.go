package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, Options{NoColor: true})

	logger.Debug("hidden")
	logger.Info("🔍 Discovered scripts", slog.Int("site", 2))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "🔍 Discovered scripts")
	assert.Contains(t, out, "site=2")
	assert.NotContains(t, out, "\x1b[")
}

func TestNewDebug(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, Options{Debug: true, NoColor: true}).Debug("visible")

	assert.Contains(t, buf.String(), "visible")
}

func TestDiscard(t *testing.T) {
	assert.NotPanics(t, func() { Discard().Error("nothing") })
}
