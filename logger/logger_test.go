package logger

import (
	"bytes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestNew_FiltersBelowLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	l, err := New(buf, "warn")
	require.NoError(t, err)

	l.Info("hidden")
	l.Warn("shown", "user_id", "u1")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Contains(t, buf.String(), `"user_id":"u1"`)
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(&bytes.Buffer{}, "loud")
	assert.Error(t, err)
}
