package graceful_shutdown

import (
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestShutdown_InputsBeforeOutputs(t *testing.T) {
	c := &Coordinator{}
	var order []string
	c.AddOutputShutdownFunc(func() { order = append(order, "writer") })
	c.AddInputShutdownFunc(func() { order = append(order, "http") })
	c.AddInputShutdownFunc(func() { order = append(order, "kafka") })
	c.AddOutputShutdownFunc(func() { order = append(order, "dispatcher") })

	c.Shutdown()

	assert.Equal(t, []string{"http", "kafka", "writer", "dispatcher"}, order)
}

func TestShutdown_NothingRegistered(t *testing.T) {
	c := &Coordinator{}
	assert.NotPanics(t, c.Shutdown)
}
