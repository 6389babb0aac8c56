package train

import "sync"

// Control is the handle through which a session's owner signals
// pause, resume and stop to its training loop. The engine consults
// the handle only at epoch boundaries, so every signal takes effect
// at the end of the epoch in flight when it arrived.
//
// All methods are safe for concurrent use and idempotent.
type Control struct {
	mu    sync.Mutex
	cond  *sync.Cond
	pause bool
	stop  bool
}

// NewControl returns a fresh control handle.
func NewControl() *Control {
	c := &Control{}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// RequestStop asks the training loop to stop at the next epoch
// boundary. A paused loop is woken so it can stop promptly.
func (c *Control) RequestStop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stop = true
	c.cond.Broadcast()
}

// RequestPause asks the training loop to pause at the next epoch
// boundary.
func (c *Control) RequestPause() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pause = true
}

// RequestResume clears a pending or active pause and wakes the loop.
func (c *Control) RequestResume() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pause = false
	c.cond.Broadcast()
}

// StopRequested reports whether a stop is pending.
func (c *Control) StopRequested() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stop
}

// PauseRequested reports whether a pause is pending.
func (c *Control) PauseRequested() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pause
}

// awaitResume blocks the calling training loop until the pause
// clears or a stop arrives. It returns true when training should
// continue and false when the session must stop.
func (c *Control) awaitResume() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for c.pause && !c.stop {
		c.cond.Wait()
	}
	return !c.stop
}
