package executor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hogarlabs/domoctl/internal/model"
	"github.com/hogarlabs/domoctl/internal/notify"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeStore struct {
	mu    sync.Mutex
	saves []model.Schedule
	err   error
}

func (s *fakeStore) SaveSchedule(_ context.Context, sched model.Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.saves = append(s.saves, sched)
	return nil
}

func (s *fakeStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saves)
}

func (s *fakeStore) lastSave(t *testing.T) model.Schedule {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.saves) == 0 {
		t.Fatalf("no saves recorded")
	}
	return s.saves[len(s.saves)-1]
}

func (s *fakeStore) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

type recorded struct {
	message string
	level   notify.Level
}

type recorder struct {
	mu      sync.Mutex
	entries []recorded
}

func (r *recorder) Notify(message string, level notify.Level) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, recorded{message: message, level: level})
}

func (r *recorder) count(level notify.Level) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.entries {
		if e.level == level {
			n++
		}
	}
	return n
}

// Wednesday 08:00:00 UTC.
var tickStart = time.Date(2026, 3, 4, 8, 0, 0, 0, time.UTC)

var tickDevices = []model.Device{{ID: "luz_1", Name: "Luz Sala"}}

func newTestEngine(t *testing.T, clock Clock, store Store, sink notify.Notifier) *Engine {
	t.Helper()
	engine, err := NewEngine(Config{
		Store:    store,
		Notifier: sink,
		Clock:    clock,
		Warnings: notify.NewDebouncer(5*time.Minute, clock.Now),
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func morningSchedule(repeat model.Repeat) model.Schedule {
	return model.Schedule{
		ID:      "s1",
		Owner:   "u1",
		Name:    "Luces mañana",
		Days:    model.DaysEvery,
		Active:  true,
		Repeat:  repeat,
		Devices: []model.DeviceTrigger{model.NewTimeTrigger("luz_1", "08:00")},
	}
}

func TestTickFiresOnceAndPersistsLastTriggered(t *testing.T) {
	clock := &fakeClock{now: tickStart}
	store := &fakeStore{}
	sink := &recorder{}
	engine := newTestEngine(t, clock, store, sink)
	engine.SetInputs([]model.Schedule{morningSchedule(model.RepeatDaily)}, tickDevices)

	engine.RunTick(context.Background())

	if store.saveCount() != 1 {
		t.Fatalf("expected exactly one persistence write, got %d", store.saveCount())
	}
	saved := store.lastSave(t)
	if saved.LastTriggered == nil || !saved.LastTriggered.Equal(tickStart) {
		t.Fatalf("lastTriggered not set to now: %+v", saved.LastTriggered)
	}
	if sink.count(notify.LevelInfo) != 1 {
		t.Fatalf("expected one trigger notification, got %d", sink.count(notify.LevelInfo))
	}
}

func TestTickSuppressesWithinThirtySeconds(t *testing.T) {
	clock := &fakeClock{now: tickStart}
	store := &fakeStore{}
	sink := &recorder{}
	engine := newTestEngine(t, clock, store, sink)
	engine.SetInputs([]model.Schedule{morningSchedule(model.RepeatDaily)}, tickDevices)

	engine.RunTick(context.Background())
	clock.Advance(10 * time.Second)
	engine.RunTick(context.Background())

	if store.saveCount() != 1 {
		t.Fatalf("suppression window must block the second trigger, got %d writes", store.saveCount())
	}
}

func TestTickRefiresAfterSuppressionElapses(t *testing.T) {
	clock := &fakeClock{now: tickStart}
	store := &fakeStore{}
	engine := newTestEngine(t, clock, store, notify.Discard)

	earlier := tickStart.Add(-31 * time.Second)
	schedule := morningSchedule(model.RepeatDaily)
	schedule.Devices = []model.DeviceTrigger{model.NewRangeTrigger("luz_1", "07:00-09:00")}
	schedule.LastTriggered = &earlier
	engine.SetInputs([]model.Schedule{schedule}, tickDevices)

	engine.RunTick(context.Background())
	if store.saveCount() != 1 {
		t.Fatalf("elapsed > 30s with a matching window must fire, got %d writes", store.saveCount())
	}
}

func TestTickHonoursPersistedLastTriggered(t *testing.T) {
	clock := &fakeClock{now: tickStart}
	store := &fakeStore{}
	engine := newTestEngine(t, clock, store, notify.Discard)

	recent := tickStart.Add(-10 * time.Second)
	schedule := morningSchedule(model.RepeatDaily)
	schedule.LastTriggered = &recent
	engine.SetInputs([]model.Schedule{schedule}, tickDevices)

	engine.RunTick(context.Background())
	if store.saveCount() != 0 {
		t.Fatalf("persisted lastTriggered inside the window must suppress, got %d writes", store.saveCount())
	}
}

func TestTickSkipsNonMatchingDay(t *testing.T) {
	// A Saturday.
	clock := &fakeClock{now: time.Date(2026, 3, 7, 8, 0, 0, 0, time.UTC)}
	store := &fakeStore{}
	engine := newTestEngine(t, clock, store, notify.Discard)

	schedule := morningSchedule(model.RepeatDaily)
	schedule.Days = model.DaysWeekdays
	engine.SetInputs([]model.Schedule{schedule}, tickDevices)

	engine.RunTick(context.Background())
	if store.saveCount() != 0 {
		t.Fatalf("weekday pattern must not fire on Saturday")
	}
}

func TestTickSkipsInactiveSchedule(t *testing.T) {
	clock := &fakeClock{now: tickStart}
	store := &fakeStore{}
	engine := newTestEngine(t, clock, store, notify.Discard)

	schedule := morningSchedule(model.RepeatDaily)
	schedule.Active = false
	engine.SetInputs([]model.Schedule{schedule}, tickDevices)

	engine.RunTick(context.Background())
	if store.saveCount() != 0 {
		t.Fatalf("inactive schedules must never be evaluated")
	}
}

func TestTickSkipsUnknownDeviceSilently(t *testing.T) {
	clock := &fakeClock{now: tickStart}
	store := &fakeStore{}
	sink := &recorder{}
	engine := newTestEngine(t, clock, store, sink)

	schedule := morningSchedule(model.RepeatDaily)
	schedule.Devices = []model.DeviceTrigger{model.NewTimeTrigger("fantasma", "08:00")}
	engine.SetInputs([]model.Schedule{schedule}, tickDevices)

	engine.RunTick(context.Background())
	if store.saveCount() != 0 {
		t.Fatalf("unknown device must not produce a write")
	}
	if sink.count(notify.LevelError) != 0 {
		t.Fatalf("unknown device must not be reported as an error")
	}
}

func TestTickReportsWriteFailureAndRetriesNextTick(t *testing.T) {
	clock := &fakeClock{now: tickStart}
	store := &fakeStore{}
	store.setErr(errors.New("permiso denegado"))
	sink := &recorder{}
	engine := newTestEngine(t, clock, store, sink)

	schedule := morningSchedule(model.RepeatDaily)
	schedule.Devices = []model.DeviceTrigger{model.NewRangeTrigger("luz_1", "07:00-09:00")}
	engine.SetInputs([]model.Schedule{schedule}, tickDevices)

	engine.RunTick(context.Background())
	if sink.count(notify.LevelError) != 1 {
		t.Fatalf("write failure must surface an error notification")
	}

	store.setErr(nil)
	clock.Advance(15 * time.Second)
	engine.RunTick(context.Background())
	if store.saveCount() != 1 {
		t.Fatalf("failed trigger must retry naturally on the next tick, got %d writes", store.saveCount())
	}
}

func TestOnceScheduleDeactivatesAfterFirstTrigger(t *testing.T) {
	clock := &fakeClock{now: tickStart}
	store := &fakeStore{}
	applied := make([]model.Schedule, 0, 1)
	engine, err := NewEngine(Config{
		Store:     store,
		Clock:     clock,
		Warnings:  notify.NewDebouncer(5*time.Minute, clock.Now),
		OnApplied: func(s model.Schedule) { applied = append(applied, s) },
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	engine.SetInputs([]model.Schedule{morningSchedule(model.RepeatOnce)}, tickDevices)

	engine.RunTick(context.Background())
	saved := store.lastSave(t)
	if saved.Active {
		t.Fatalf("once schedule must deactivate after firing")
	}
	if len(applied) != 1 || applied[0].Active {
		t.Fatalf("applied callback must carry the deactivated schedule: %+v", applied)
	}

	clock.Advance(time.Minute)
	engine.RunTick(context.Background())
	if store.saveCount() != 1 {
		t.Fatalf("deactivated schedule must not fire again")
	}
}

func TestEntriesSuppressIndependently(t *testing.T) {
	clock := &fakeClock{now: tickStart}
	store := &fakeStore{}
	engine := newTestEngine(t, clock, store, notify.Discard)

	schedule := morningSchedule(model.RepeatDaily)
	schedule.Devices = []model.DeviceTrigger{
		model.NewTimeTrigger("luz_1", "08:00"),
		model.NewTimeTrigger("enchufe_1", "08:00"),
	}
	devices := []model.Device{
		{ID: "luz_1", Name: "Luz Sala"},
		{ID: "enchufe_1", Name: "Enchufe 1"},
	}
	engine.SetInputs([]model.Schedule{schedule}, devices)

	engine.RunTick(context.Background())
	if store.saveCount() != 2 {
		t.Fatalf("two entries matching the same minute must both fire, got %d writes", store.saveCount())
	}
}

func TestSetInputsDropsStateForRemovedSchedules(t *testing.T) {
	clock := &fakeClock{now: tickStart}
	store := &fakeStore{}
	engine := newTestEngine(t, clock, store, notify.Discard)
	engine.SetInputs([]model.Schedule{morningSchedule(model.RepeatDaily)}, tickDevices)

	engine.RunTick(context.Background())
	engine.mu.Lock()
	_, recorded := engine.entryLast["s1:0"]
	engine.mu.Unlock()
	if !recorded {
		t.Fatalf("a fired entry must leave a suppression record")
	}

	replacement := morningSchedule(model.RepeatDaily)
	replacement.ID = "s2"
	engine.SetInputs([]model.Schedule{replacement}, tickDevices)

	engine.mu.Lock()
	_, kept := engine.entryLast["s1:0"]
	total := len(engine.entryLast)
	engine.mu.Unlock()
	if kept {
		t.Fatalf("suppression records for removed schedules must be pruned")
	}
	if total != 0 {
		t.Fatalf("no other records should survive, got %d", total)
	}
}

func TestStartRunsImmediatelyAndStopIsIdempotent(t *testing.T) {
	clock := &fakeClock{now: tickStart}
	store := &fakeStore{}
	engine, err := NewEngine(Config{
		Store:    store,
		Clock:    clock,
		Interval: time.Hour, // only the immediate run should fire
		Warnings: notify.NewDebouncer(5*time.Minute, clock.Now),
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	engine.SetInputs([]model.Schedule{morningSchedule(model.RepeatDaily)}, tickDevices)

	engine.Start(context.Background())
	waitFor(t, time.Second, func() bool { return store.saveCount() == 1 })
	engine.Stop()
	engine.Stop()
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}
