// Package notify defines the user-notification port shared by the executor
// and the task engine, plus the cooldown debouncer that keeps repeated
// warnings from flooding the sink.
package notify

import (
	"sync"
	"time"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarn    Level = "warn"
	LevelError   Level = "error"
)

// Notifier is a fire-and-forget sink for user-visible messages.
type Notifier interface {
	Notify(message string, level Level)
}

// Func adapts a plain function to the Notifier interface.
type Func func(message string, level Level)

func (f Func) Notify(message string, level Level) { f(message, level) }

// Discard swallows every notification. Useful in tests and batch commands.
var Discard Notifier = Func(func(string, Level) {})

// Debouncer answers whether a keyed event may fire again, enforcing a
// minimum interval per key. It replaces the ambient warning cache of the
// previous design: construct one per consumer and inject it.
type Debouncer struct {
	mu       sync.Mutex
	cooldown time.Duration
	now      func() time.Time
	last     map[string]time.Time
}

func NewDebouncer(cooldown time.Duration, now func() time.Time) *Debouncer {
	if now == nil {
		now = time.Now
	}
	return &Debouncer{
		cooldown: cooldown,
		now:      now,
		last:     make(map[string]time.Time),
	}
}

// Allow reports whether the key is outside its cooldown and, if so, marks it
// as fired now.
func (d *Debouncer) Allow(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := d.now()
	if fired, ok := d.last[key]; ok && now.Sub(fired) < d.cooldown {
		return false
	}
	d.last[key] = now
	return true
}

// Reset forgets a key so its next event fires immediately.
func (d *Debouncer) Reset(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.last, key)
}
