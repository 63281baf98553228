// Package clipboard copies secrets to the system clipboard and clears them
// again after a delay.
package clipboard

import (
	"fmt"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"go.uber.org/zap"
)

// DefaultClearAfter is how long a copied secret stays on the clipboard.
const DefaultClearAfter = 15 * time.Second

// Sink is a clipboard.
type Sink interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

// System is the OS clipboard.
type System struct{}

// ReadAll returns the current clipboard text.
func (System) ReadAll() (string, error) { return clipboard.ReadAll() }

// WriteAll replaces the clipboard text.
func (System) WriteAll(text string) error { return clipboard.WriteAll(text) }

// Clearer writes text to a Sink and wipes it after a delay. A new Copy cancels
// the pending clear and starts a new one.
type Clearer struct {
	sink  Sink
	after time.Duration
	log   *zap.Logger

	mu     sync.Mutex
	timer  *time.Timer
	copied string
	// gen invalidates callbacks of timers that were stopped too late.
	gen uint64
}

// NewClearer returns a Clearer. A zero delay disables automatic clearing.
func NewClearer(sink Sink, after time.Duration, log *zap.Logger) *Clearer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Clearer{sink: sink, after: after, log: log}
}

// Copy writes text and (re)arms the clear timer.
func (c *Clearer) Copy(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.sink.WriteAll(text); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}

	c.stopLocked()
	c.copied = text
	if c.after <= 0 {
		return nil
	}

	c.gen++
	gen := c.gen
	c.timer = time.AfterFunc(c.after, func() { c.clear(gen) })
	return nil
}

// Pending reports whether a clear is scheduled.
func (c *Clearer) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timer != nil
}

// Stop cancels a pending clear without touching the clipboard.
func (c *Clearer) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	c.copied = ""
}

// Flush clears immediately if a clear is pending.
func (c *Clearer) Flush() {
	c.mu.Lock()
	gen := c.gen
	pending := c.timer != nil
	c.mu.Unlock()
	if pending {
		c.clear(gen)
	}
}

func (c *Clearer) stopLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.gen++
}

func (c *Clearer) clear(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen || c.timer == nil {
		return
	}
	c.timer.Stop()
	c.timer = nil

	// Leave the clipboard alone if the user copied something else meanwhile.
	current, err := c.sink.ReadAll()
	if err == nil && current != c.copied {
		c.copied = ""
		return
	}
	if err := c.sink.WriteAll(""); err != nil {
		c.log.Warn("clear clipboard", zap.Error(err))
	}
	c.copied = ""
}
