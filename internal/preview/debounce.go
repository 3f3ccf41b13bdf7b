package preview

import (
	"sync"
	"time"
)

// debouncer calls fire once after a burst of Trigger calls has been quiet
// for delay.
type debouncer struct {
	mu    sync.Mutex
	timer *time.Timer
	delay time.Duration
	fire  func()
}

func newDebouncer(delay time.Duration, fire func()) *debouncer {
	return &debouncer{delay: delay, fire: fire}
}

func (d *debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fire)
}

// Stop cancels a pending call.
func (d *debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
}
