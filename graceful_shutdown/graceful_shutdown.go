package graceful_shutdown

import (
	"context"
	"github.com/skif48/speakup-progress/app_config"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// Coordinator stops inputs first, gives in-flight work the drain time, then stops outputs.
type Coordinator struct {
	mu                  sync.Mutex
	inputsShutdownFuncs []func()
	outputShutdownFuncs []func()
	drain               time.Duration
}

func NewCoordinator(ac *app_config.AppConfig) *Coordinator {
	return &Coordinator{drain: ac.ShutdownDrainTime}
}

func (c *Coordinator) AddInputShutdownFunc(f func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inputsShutdownFuncs = append(c.inputsShutdownFuncs, f)
}

func (c *Coordinator) AddOutputShutdownFunc(f func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outputShutdownFuncs = append(c.outputShutdownFuncs, f)
}

func (c *Coordinator) WaitForSignals() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()

	<-ctx.Done()

	slog.Info("Received shutdown signal, shutting down...")
	c.Shutdown()
}

func (c *Coordinator) Shutdown() {
	c.mu.Lock()
	inputs, outputs := c.inputsShutdownFuncs, c.outputShutdownFuncs
	c.mu.Unlock()

	for _, f := range inputs {
		f()
	}

	time.Sleep(c.drain)

	for _, f := range outputs {
		f()
	}
}
