package app

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// scheduledTask runs fn on every tick of a repeating clock ticker until stopped.
// Each Start bumps a generation; fn receives the generation it was started with so
// callers can drop ticks that were already in flight when the task was restarted.
type scheduledTask struct {
	clock    clockwork.Clock
	interval time.Duration
	fn       func(gen uint64)

	mu   sync.Mutex
	gen  uint64
	stop chan struct{}
}

func newScheduledTask(clock clockwork.Clock, interval time.Duration, fn func(gen uint64)) *scheduledTask {
	return &scheduledTask{clock: clock, interval: interval, fn: fn}
}

// Start stops any running ticker and starts a fresh one.
func (t *scheduledTask) Start() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()

	t.gen++
	gen := t.gen
	stop := make(chan struct{})
	t.stop = stop
	ticker := t.clock.NewTicker(t.interval)
	go t.run(ticker, stop, gen)
	return gen
}

// Stop is safe to call when already stopped.
func (t *scheduledTask) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

func (t *scheduledTask) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stop != nil
}

// Live reports whether gen is the generation of the currently running ticker.
func (t *scheduledTask) Live(gen uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stop != nil && t.gen == gen
}

func (t *scheduledTask) stopLocked() {
	if t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
}

func (t *scheduledTask) run(ticker clockwork.Ticker, stop <-chan struct{}, gen uint64) {
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.Chan():
			select {
			case <-stop:
				return
			default:
			}
			t.fn(gen)
		}
	}
}
