package session

import (
	"sync"
	"time"
)

// Clock counts elapsed whole seconds since the workout started. Like the
// rest timer it is a plain state machine driven by an external runner.
type Clock struct {
	StartTime      time.Time `json:"start_time"`
	ElapsedSeconds int       `json:"elapsed_seconds"`
}

// Tick advances the elapsed counter by one second.
func (c *Clock) Tick() {
	c.ElapsedSeconds++
}

// Runner drives a function at one-second intervals on its own goroutine.
// It holds a single slot: starting a new tick loop always cancels the
// previous one first, so duplicate tickers cannot leak.
type Runner struct {
	mu   sync.Mutex
	stop chan struct{}
}

// Start begins calling tick once per second until Stop (or a later Start)
// is called.
func (r *Runner) Start(tick func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stop != nil {
		close(r.stop)
	}
	stop := make(chan struct{})
	r.stop = stop

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				tick()
			}
		}
	}()
}

// Stop cancels the current tick loop, if any. Safe to call repeatedly.
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stop != nil {
		close(r.stop)
		r.stop = nil
	}
}
