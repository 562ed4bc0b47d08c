package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, false)
	logger.Debug("hidden")
	logger.WithField("sequences", 3).Info("index built")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "index built")
	assert.Contains(t, out, "sequences=3")

	buf.Reset()
	New(&buf, true).Debug("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestDiscard(t *testing.T) {
	Discard().Error("nowhere")
}
