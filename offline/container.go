package offline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
)

// Container owns the active worker. At most one version accepts new
// requests at a time.
type Container struct {
	client Fetcher
	logger *log.Logger

	mu     sync.RWMutex
	active *Worker
}

func NewContainer(client Fetcher, logger *log.Logger) *Container {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Container{client: client, logger: logger}
}

// Register installs w and, when that succeeds, activates it in place of the
// current worker. On install failure the current worker keeps serving.
func (c *Container) Register(ctx context.Context, w *Worker) error {
	if err := w.Install(ctx); err != nil {
		if prev := c.Active(); prev != nil {
			c.logger.Warn("keeping previous cache", "active", prev.Version(), "failed", w.Version())
		}
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := w.Activate(ctx); err != nil {
		return err
	}
	if c.active != nil && c.active != w {
		c.active.retire()
	}
	c.active = w
	return nil
}

// Resume makes w active without installing it, provided its namespace is
// already in storage from an earlier run.
func (c *Container) Resume(w *Worker) error {
	names, err := w.storage.Names()
	if err != nil {
		return fmt.Errorf("list caches: %w", err)
	}
	found := false
	for _, name := range names {
		if name == w.version {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrNotInstalled, w.version)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	w.setState(StateActive)
	if c.active != nil && c.active != w {
		c.active.retire()
	}
	c.active = w
	c.logger.Info("resumed cache", "name", w.version)
	return nil
}

func (c *Container) Active() *Worker {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active
}

func (c *Container) RoundTrip(req *http.Request) (*http.Response, error) {
	w := c.Active()
	if w == nil {
		return c.client.Do(outgoing(req))
	}
	return w.RoundTrip(req)
}

// Wait blocks until the active worker's background refills finish.
func (c *Container) Wait() {
	if w := c.Active(); w != nil {
		w.Wait()
	}
}
