package listquery

import (
	"sync"
	"time"
)

// SearchDebounce is the quiet period before typed search text is committed.
const SearchDebounce = 400 * time.Millisecond

// Debouncer delays fn until no Push has happened for wait. Each Push cancels
// the pending call and schedules a new one with the latest value, so at most
// one call fires per quiet period.
type Debouncer[T any] struct {
	mutex      sync.Mutex
	wait       time.Duration
	fn         func(T)
	timer      *time.Timer
	generation uint64
	pending    *T
	stopped    bool
}

func NewDebouncer[T any](wait time.Duration, fn func(T)) *Debouncer[T] {
	return &Debouncer[T]{wait: wait, fn: fn}
}

func (d *Debouncer[T]) Push(value T) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.generation++
	generation := d.generation
	d.pending = &value
	d.timer = time.AfterFunc(d.wait, func() {
		d.fire(generation)
	})
}

// Flush runs the pending call now, if there is one.
func (d *Debouncer[T]) Flush() {
	d.mutex.Lock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.generation++
	value := d.pending
	d.pending = nil
	d.mutex.Unlock()

	if value != nil {
		d.fn(*value)
	}
}

// Stop drops the pending call and ignores later pushes.
func (d *Debouncer[T]) Stop() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.stopped = true
	d.generation++
	d.pending = nil
	if d.timer != nil {
		d.timer.Stop()
	}
}

func (d *Debouncer[T]) fire(generation uint64) {
	d.mutex.Lock()
	// A timer that lost the race with Push must not fire a stale value.
	if generation != d.generation || d.pending == nil {
		d.mutex.Unlock()
		return
	}
	value := *d.pending
	d.pending = nil
	d.mutex.Unlock()

	d.fn(value)
}
