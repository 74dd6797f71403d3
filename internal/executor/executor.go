// Package executor turns wall-clock time into device triggers: every tick it
// matches active schedules against the current weekday and minute, applies
// re-trigger suppression, persists the trigger timestamp and notifies the
// user.
package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hogarlabs/domoctl/internal/model"
	"github.com/hogarlabs/domoctl/internal/notify"
)

var ErrMissingStore = errors.New("executor: store is required")

const (
	DefaultInterval    = 15 * time.Second
	DefaultSuppression = 30 * time.Second

	// nearMissMinutes bounds how far from a trigger time a blocked
	// execution still produces a debounced warning.
	nearMissMinutes = 1
)

// Clock abstracts time.Now so ticks are deterministic under test.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the production clock.
var SystemClock Clock = systemClock{}

// Store is the persistence boundary the executor writes trigger updates to.
type Store interface {
	SaveSchedule(ctx context.Context, s model.Schedule) error
}

type Config struct {
	Store       Store
	Notifier    notify.Notifier
	Warnings    *notify.Debouncer
	Clock       Clock
	Interval    time.Duration
	Suppression time.Duration
	// OnApplied is invoked after a trigger update has been persisted, so
	// the owning state can fold the new lastTriggered/active values in.
	OnApplied func(model.Schedule)
}

type Engine struct {
	store       Store
	notifier    notify.Notifier
	warnings    *notify.Debouncer
	clock       Clock
	interval    time.Duration
	suppression time.Duration
	onApplied   func(model.Schedule)

	mu        sync.Mutex
	schedules []model.Schedule
	devices   []model.Device
	entryLast map[string]time.Time
	running   bool
	stopCh    chan struct{}
	doneCh    chan struct{}
}

func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Store == nil {
		return nil, ErrMissingStore
	}
	if cfg.Notifier == nil {
		cfg.Notifier = notify.Discard
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Suppression <= 0 {
		cfg.Suppression = DefaultSuppression
	}
	if cfg.Warnings == nil {
		cfg.Warnings = notify.NewDebouncer(5*time.Minute, cfg.Clock.Now)
	}
	return &Engine{
		store:       cfg.Store,
		notifier:    cfg.Notifier,
		warnings:    cfg.Warnings,
		clock:       cfg.Clock,
		interval:    cfg.Interval,
		suppression: cfg.Suppression,
		onApplied:   cfg.OnApplied,
		entryLast:   make(map[string]time.Time),
	}, nil
}

// SetInputs replaces the schedule and device snapshots evaluated each tick.
// Per-entry trigger records for schedules no longer in the snapshot are
// dropped so churn does not accumulate state.
func (e *Engine) SetInputs(schedules []model.Schedule, devices []model.Device) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.schedules = append([]model.Schedule(nil), schedules...)
	e.devices = append([]model.Device(nil), devices...)

	live := make(map[string]bool, len(schedules))
	for _, s := range schedules {
		live[s.ID] = true
	}
	for key := range e.entryLast {
		id := key
		if i := strings.LastIndex(key, ":"); i >= 0 {
			id = key[:i]
		}
		if !live[id] {
			delete(e.entryLast, key)
		}
	}
}

// Running reports whether the tick loop is active.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Start launches the tick loop with one immediate evaluation. Restarting a
// stopped engine is allowed; starting a running one is a no-op.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.stopCh = make(chan struct{})
	e.doneCh = make(chan struct{})
	stop, done := e.stopCh, e.doneCh
	e.mu.Unlock()

	go e.loop(ctx, stop, done)
}

// Stop tears the loop down and waits for the in-flight tick to finish.
// Idempotent.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	stop, done := e.stopCh, e.doneCh
	e.mu.Unlock()

	close(stop)
	<-done
}

func (e *Engine) loop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	e.RunTick(ctx)
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			e.RunTick(ctx)
		case <-stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// RunTick evaluates every active schedule once against the current clock.
// Schedules are visited in list order, device entries in entry order.
func (e *Engine) RunTick(ctx context.Context) {
	now := e.clock.Now()
	current := now.Format("15:04")
	weekday := now.Weekday()

	e.mu.Lock()
	schedules := append([]model.Schedule(nil), e.schedules...)
	devices := append([]model.Device(nil), e.devices...)
	e.mu.Unlock()

	for _, schedule := range schedules {
		if !schedule.Active {
			continue
		}
		if !schedule.Days.Matches(weekday) {
			continue
		}
		for i, trigger := range schedule.Devices {
			e.evaluateEntry(ctx, schedule, i, trigger, devices, now, current)
		}
	}
}

func (e *Engine) evaluateEntry(ctx context.Context, schedule model.Schedule, index int, trigger model.DeviceTrigger, devices []model.Device, now time.Time, current string) {
	nearMiss := isNearMiss(trigger, current)
	warnKey := schedule.ID + ":" + trigger.DeviceID

	if !trigger.Matches(current) {
		if nearMiss && e.warnings.Allow(warnKey) {
			ref, _ := trigger.ReferenceClock()
			e.notifier.Notify(fmt.Sprintf("Horario %q no ejecutado: hora no coincide (%s vs %s)", schedule.Name, ref, current), notify.LevelWarn)
		}
		return
	}

	device, found := model.FindDevice(devices, trigger.DeviceID)
	if !found {
		if nearMiss && e.warnings.Allow(warnKey) {
			e.notifier.Notify(fmt.Sprintf("Horario %q no ejecutado: dispositivo no encontrado", schedule.Name), notify.LevelWarn)
		}
		return
	}

	entryKey := fmt.Sprintf("%s:%d", schedule.ID, index)
	if e.suppressed(entryKey, schedule.LastTriggered, now) {
		if nearMiss && e.warnings.Allow(warnKey) {
			e.notifier.Notify(fmt.Sprintf("Horario %q no ejecutado: ejecutado recientemente", schedule.Name), notify.LevelWarn)
		}
		return
	}

	updated := schedule
	triggeredAt := now
	updated.LastTriggered = &triggeredAt
	if updated.Repeat == model.RepeatOnce {
		updated.Active = false
	}

	if err := e.store.SaveSchedule(ctx, updated); err != nil {
		// lastTriggered was not advanced, so the next tick retries.
		e.notifier.Notify("Error al ejecutar el horario", notify.LevelError)
		return
	}

	e.mu.Lock()
	e.entryLast[entryKey] = now
	for i := range e.schedules {
		if e.schedules[i].ID == updated.ID {
			e.schedules[i] = updated
		}
	}
	e.mu.Unlock()

	if e.onApplied != nil {
		e.onApplied(updated)
	}
	e.notifier.Notify(fmt.Sprintf("Ejecutando %q: encendiendo %s a las %s", schedule.Name, device.Name, current), notify.LevelInfo)
}

// suppressed reports whether the entry fired too recently. The per-entry
// record is seeded from the persisted schedule-level timestamp so state
// loaded from the store still suppresses.
func (e *Engine) suppressed(entryKey string, lastTriggered *time.Time, now time.Time) bool {
	e.mu.Lock()
	last := e.entryLast[entryKey]
	e.mu.Unlock()
	if lastTriggered != nil && lastTriggered.After(last) {
		last = *lastTriggered
	}
	if last.IsZero() {
		return false
	}
	return now.Sub(last) < e.suppression
}

func isNearMiss(trigger model.DeviceTrigger, current string) bool {
	ref, ok := trigger.ReferenceClock()
	if !ok {
		return false
	}
	refMin, err := model.ClockMinutes(ref)
	if err != nil {
		return false
	}
	curMin, err := model.ClockMinutes(current)
	if err != nil {
		return false
	}
	diff := refMin - curMin
	if diff < 0 {
		diff = -diff
	}
	return diff <= nearMissMinutes
}
