package tasks

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hogarlabs/domoctl/internal/model"
	"github.com/hogarlabs/domoctl/internal/notify"
)

type fakeTaskStore struct {
	mu         sync.Mutex
	tasks      map[string]model.Task
	failCreate bool
	failUpdate map[string]bool
	failDelete map[string]bool
	creates    int
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{
		tasks:      make(map[string]model.Task),
		failUpdate: make(map[string]bool),
		failDelete: make(map[string]bool),
	}
}

func (f *fakeTaskStore) ListTasks(_ context.Context, owner string) ([]model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Task, 0, len(f.tasks))
	for _, t := range f.tasks {
		if t.Owner == owner {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTaskStore) CreateTask(_ context.Context, t model.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.failCreate {
		return errors.New("store caído")
	}
	f.tasks[t.ID] = t
	return nil
}

func (f *fakeTaskStore) UpdateTask(_ context.Context, t model.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpdate[t.ID] {
		return errors.New("permiso denegado")
	}
	f.tasks[t.ID] = t
	return nil
}

func (f *fakeTaskStore) DeleteTask(_ context.Context, _, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDelete[id] {
		return errors.New("permiso denegado")
	}
	delete(f.tasks, id)
	return nil
}

type sinkRecorder struct {
	mu      sync.Mutex
	entries []string
	levels  []notify.Level
}

func (r *sinkRecorder) Notify(message string, level notify.Level) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, message)
	r.levels = append(r.levels, level)
}

func (r *sinkRecorder) countLevel(level notify.Level) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, l := range r.levels {
		if l == level {
			n++
		}
	}
	return n
}

var taskNow = time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, store Store, sink notify.Notifier) *Service {
	t.Helper()
	svc, err := NewService(Config{
		Owner:    "u1",
		Store:    store,
		Notifier: sink,
		Now:      func() time.Time { return taskNow },
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func seedTask(id, name string, priority model.Priority, status model.Status, assignee string, due time.Time, tags ...string) model.Task {
	return model.Task{
		ID:         id,
		Owner:      "u1",
		Name:       name,
		Priority:   priority,
		Status:     status,
		AssignedTo: assignee,
		DueDate:    due,
		Tags:       tags,
		CreatedAt:  taskNow,
	}
}

func mustAdd(t *testing.T, svc *Service, task model.Task) {
	t.Helper()
	if err := svc.Add(context.Background(), task); err != nil {
		t.Fatalf("add %s: %v", task.Name, err)
	}
}

func TestFilterIsIntersectionOfFields(t *testing.T) {
	due := taskNow.AddDate(0, 0, 5)
	all := []model.Task{
		seedTask("t1", "Revisar luces", model.PriorityAlta, model.StatusCompletada, "Ana", due),
		seedTask("t2", "Cambiar sensor", model.PriorityAlta, model.StatusPendiente, "Ana", due),
		seedTask("t3", "Limpiar filtros", model.PriorityBaja, model.StatusCompletada, "Luis", due),
	}
	f := Filter{Priority: model.PriorityAlta, Status: model.StatusCompletada}
	got := FilterTasks(all, f)
	if len(got) != 1 || got[0].ID != "t1" {
		t.Fatalf("expected intersection {t1}, got %+v", got)
	}

	byPriority := FilterTasks(FilterTasks(all, Filter{Priority: model.PriorityAlta}), Filter{Status: model.StatusCompletada})
	byStatus := FilterTasks(FilterTasks(all, Filter{Status: model.StatusCompletada}), Filter{Priority: model.PriorityAlta})
	if len(byPriority) != 1 || len(byStatus) != 1 || byPriority[0].ID != byStatus[0].ID {
		t.Fatalf("filter application must be order-independent")
	}
}

func TestFilterSearchScansNameAssigneeAndTags(t *testing.T) {
	due := taskNow.AddDate(0, 0, 5)
	all := []model.Task{
		seedTask("t1", "Revisar luces", model.PriorityMedia, model.StatusPendiente, "Ana", due),
		seedTask("t2", "Cambiar sensor", model.PriorityMedia, model.StatusPendiente, "Luis", due, "jardín"),
	}
	if got := FilterTasks(all, Filter{Search: "LUCES"}); len(got) != 1 || got[0].ID != "t1" {
		t.Fatalf("search must be case-insensitive over names: %+v", got)
	}
	if got := FilterTasks(all, Filter{Search: "jardín"}); len(got) != 1 || got[0].ID != "t2" {
		t.Fatalf("search must scan tags: %+v", got)
	}
	if got := FilterTasks(all, Filter{Search: "luis"}); len(got) != 1 || got[0].ID != "t2" {
		t.Fatalf("search must scan assignees: %+v", got)
	}
}

func TestSortByDueDateComparesAsDates(t *testing.T) {
	all := []model.Task{
		seedTask("t1", "B", model.PriorityMedia, model.StatusPendiente, "Ana", taskNow.AddDate(0, 0, 9)),
		seedTask("t2", "A", model.PriorityMedia, model.StatusPendiente, "Ana", taskNow.AddDate(0, 0, 1)),
	}
	asc := SortTasks(all, ColumnDueDate, true)
	if asc[0].ID != "t2" {
		t.Fatalf("ascending due-date sort wrong: %+v", asc)
	}
	desc := SortTasks(all, ColumnDueDate, false)
	if desc[0].ID != "t1" {
		t.Fatalf("descending due-date sort wrong: %+v", desc)
	}
}

func TestSortByNameIsCaseInsensitive(t *testing.T) {
	all := []model.Task{
		seedTask("t1", "zanja", model.PriorityMedia, model.StatusPendiente, "Ana", taskNow),
		seedTask("t2", "Arreglo", model.PriorityMedia, model.StatusPendiente, "Ana", taskNow),
	}
	got := SortTasks(all, ColumnName, true)
	if got[0].ID != "t2" {
		t.Fatalf("case-insensitive name sort wrong: %+v", got)
	}
}

func TestSortByToggleFlipsDirection(t *testing.T) {
	svc := newTestService(t, newFakeTaskStore(), notify.Discard)
	svc.SortBy(ColumnName)
	if col, asc := svc.CurrentSort(); col != ColumnName || !asc {
		t.Fatalf("first selection must sort ascending: %s %v", col, asc)
	}
	svc.SortBy(ColumnName)
	if _, asc := svc.CurrentSort(); asc {
		t.Fatalf("second selection must flip to descending")
	}
}

func TestAddRejectsInvalidDraftWithoutStoreWrite(t *testing.T) {
	store := newFakeTaskStore()
	svc := newTestService(t, store, notify.Discard)

	err := svc.Add(context.Background(), model.Task{Name: "", DueDate: taskNow, AssignedTo: "X"})
	var fields model.FieldErrors
	if !errors.As(err, &fields) {
		t.Fatalf("expected FieldErrors, got %v", err)
	}
	if _, ok := fields["name"]; !ok {
		t.Fatalf("expected name field error, got %v", fields)
	}
	if store.creates != 0 {
		t.Fatalf("invalid draft must never reach the store")
	}
}

func TestAddRevertsOptimisticChangeOnStoreFailure(t *testing.T) {
	store := newFakeTaskStore()
	store.failCreate = true
	sink := &sinkRecorder{}
	svc := newTestService(t, store, sink)

	err := svc.Add(context.Background(), seedTask("", "Nueva", model.PriorityMedia, model.StatusPendiente, "Ana", taskNow.AddDate(0, 0, 3)))
	if err == nil {
		t.Fatalf("expected store failure to propagate")
	}
	if len(svc.Tasks()) != 0 {
		t.Fatalf("optimistic add must be reverted on failure: %+v", svc.Tasks())
	}
	if sink.countLevel(notify.LevelError) == 0 {
		t.Fatalf("failure must produce an error notification")
	}
}

func TestUpdateRevertsOnStoreFailure(t *testing.T) {
	store := newFakeTaskStore()
	svc := newTestService(t, store, notify.Discard)
	mustAdd(t, svc, seedTask("t1", "Original", model.PriorityMedia, model.StatusPendiente, "Ana", taskNow.AddDate(0, 0, 3)))

	store.failUpdate["t1"] = true
	changed := svc.Tasks()[0]
	changed.Name = "Cambiada"
	if err := svc.Update(context.Background(), changed); err == nil {
		t.Fatalf("expected update failure")
	}
	if svc.Tasks()[0].Name != "Original" {
		t.Fatalf("local state must be reverted after failed update: %+v", svc.Tasks()[0])
	}
}

func TestDeleteRestoresTaskOnStoreFailure(t *testing.T) {
	store := newFakeTaskStore()
	svc := newTestService(t, store, notify.Discard)
	mustAdd(t, svc, seedTask("t1", "Única", model.PriorityMedia, model.StatusPendiente, "Ana", taskNow.AddDate(0, 0, 3)))

	store.failDelete["t1"] = true
	if err := svc.Delete(context.Background(), "t1"); err == nil {
		t.Fatalf("expected delete failure")
	}
	if len(svc.Tasks()) != 1 {
		t.Fatalf("failed delete must restore the task")
	}
}

func TestBulkSetStatusPartialFailure(t *testing.T) {
	store := newFakeTaskStore()
	sink := &sinkRecorder{}
	svc := newTestService(t, store, sink)
	due := taskNow.AddDate(0, 0, 3)
	mustAdd(t, svc, seedTask("t1", "Uno", model.PriorityMedia, model.StatusPendiente, "Ana", due))
	mustAdd(t, svc, seedTask("t2", "Dos", model.PriorityMedia, model.StatusPendiente, "Ana", due))

	store.failUpdate["t2"] = true
	err := svc.BulkSetStatus(context.Background(), []string{"t1", "t2"}, model.StatusCompletada)
	if err == nil {
		t.Fatalf("partial failure must not report overall success")
	}
	if sink.countLevel(notify.LevelError) == 0 {
		t.Fatalf("partial failure must fire an error notification")
	}

	byID := make(map[string]model.Task)
	for _, task := range svc.Tasks() {
		byID[task.ID] = task
	}
	if byID["t1"].Status != model.StatusCompletada {
		t.Fatalf("t1 must be updated locally and remotely")
	}
	if byID["t2"].Status != model.StatusPendiente {
		t.Fatalf("t2 local state must not pretend the write succeeded")
	}
	store.mu.Lock()
	remote := store.tasks["t1"].Status
	store.mu.Unlock()
	if remote != model.StatusCompletada {
		t.Fatalf("t1 remote write must have gone through")
	}
}

func TestBulkDeleteRemovesAllOnSuccess(t *testing.T) {
	store := newFakeTaskStore()
	svc := newTestService(t, store, notify.Discard)
	due := taskNow.AddDate(0, 0, 3)
	mustAdd(t, svc, seedTask("t1", "Uno", model.PriorityMedia, model.StatusPendiente, "Ana", due))
	mustAdd(t, svc, seedTask("t2", "Dos", model.PriorityMedia, model.StatusPendiente, "Ana", due))

	if err := svc.BulkDelete(context.Background(), []string{"t1", "t2"}); err != nil {
		t.Fatalf("bulk delete: %v", err)
	}
	if len(svc.Tasks()) != 0 {
		t.Fatalf("expected empty list, got %+v", svc.Tasks())
	}
}

func TestDueScanWarnsOnceWithinCooldown(t *testing.T) {
	store := newFakeTaskStore()
	store.tasks["t1"] = seedTask("t1", "Vencida", model.PriorityAlta, model.StatusPendiente, "Ana", taskNow.AddDate(0, 0, -3))
	store.tasks["t2"] = seedTask("t2", "Pronto", model.PriorityAlta, model.StatusPendiente, "Ana", taskNow.AddDate(0, 0, 2))
	store.tasks["t3"] = seedTask("t3", "Hecha", model.PriorityAlta, model.StatusCompletada, "Ana", taskNow.AddDate(0, 0, -3))
	sink := &sinkRecorder{}
	svc := newTestService(t, store, sink)

	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := sink.countLevel(notify.LevelWarn); got != 2 {
		t.Fatalf("expected overdue + due-soon warnings, got %d", got)
	}

	// A second hydration inside the cooldown must not repeat the notices.
	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := sink.countLevel(notify.LevelWarn); got != 2 {
		t.Fatalf("due warnings must be debounced, got %d", got)
	}
}

func TestCloneCopiesWithSuffixAndWeekOut(t *testing.T) {
	store := newFakeTaskStore()
	svc := newTestService(t, store, notify.Discard)
	original := seedTask("t1", "Riego", model.PriorityMedia, model.StatusCompletada, "Ana", taskNow.AddDate(0, 0, 1), "jardín")
	mustAdd(t, svc, original)

	if err := svc.Clone(context.Background(), original); err != nil {
		t.Fatalf("clone: %v", err)
	}
	list := svc.Tasks()
	if len(list) != 2 {
		t.Fatalf("expected clone to be added, got %d tasks", len(list))
	}
	cloned := list[1]
	if cloned.Name != "Riego (Copia)" {
		t.Fatalf("unexpected clone name: %q", cloned.Name)
	}
	wantDue := model.DateOnly(taskNow).AddDate(0, 0, 7)
	if !cloned.DueDate.Equal(wantDue) {
		t.Fatalf("clone due date: got %s want %s", cloned.DueDate, wantDue)
	}
	if cloned.Status != model.StatusPendiente {
		t.Fatalf("clone must reset status to Pendiente")
	}
	if len(cloned.Tags) != 1 || cloned.Tags[0] != "jardín" {
		t.Fatalf("clone must keep tags: %+v", cloned.Tags)
	}
}

func TestViewAppliesFilterAndSortTogether(t *testing.T) {
	store := newFakeTaskStore()
	svc := newTestService(t, store, notify.Discard)
	mustAdd(t, svc, seedTask("t1", "B tarea", model.PriorityAlta, model.StatusPendiente, "Ana", taskNow.AddDate(0, 0, 5)))
	mustAdd(t, svc, seedTask("t2", "A tarea", model.PriorityAlta, model.StatusPendiente, "Ana", taskNow.AddDate(0, 0, 5)))
	mustAdd(t, svc, seedTask("t3", "C tarea", model.PriorityBaja, model.StatusPendiente, "Ana", taskNow.AddDate(0, 0, 5)))

	svc.SetFilter(Filter{Priority: model.PriorityAlta})
	svc.SortBy(ColumnName)
	got := svc.View()
	if len(got) != 2 || got[0].ID != "t2" || got[1].ID != "t1" {
		t.Fatalf("unexpected view: %+v", got)
	}
	if strings.Contains(ToCSV(got), "C tarea") {
		t.Fatalf("export of the view must respect the filter")
	}
}
