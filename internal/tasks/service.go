// Package tasks owns the per-owner task list: optimistic CRUD reconciled
// with the store, bounded-concurrency bulk operations, derived filter/sort
// views, due-date notifications and CSV export.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hogarlabs/domoctl/internal/model"
	"github.com/hogarlabs/domoctl/internal/notify"
)

var (
	ErrMissingStore = errors.New("tasks: store is required")
	ErrNotFound     = errors.New("tasks: task not found")
)

const (
	// DefaultDueCooldown keeps one overdue/due-soon notice per task per
	// interval instead of one per recompute.
	DefaultDueCooldown = 6 * time.Hour

	dueSoonDays = 2

	// bulkWorkers caps simultaneous outstanding remote writes.
	bulkWorkers = 4
)

// Store is the per-owner task partition boundary.
type Store interface {
	ListTasks(ctx context.Context, owner string) ([]model.Task, error)
	CreateTask(ctx context.Context, t model.Task) error
	UpdateTask(ctx context.Context, t model.Task) error
	DeleteTask(ctx context.Context, owner, id string) error
}

type Config struct {
	Owner    string
	Store    Store
	Notifier notify.Notifier
	Due      *notify.Debouncer
	Now      func() time.Time
}

type Service struct {
	owner    string
	store    Store
	notifier notify.Notifier
	due      *notify.Debouncer
	now      func() time.Time

	mu         sync.Mutex
	tasks      []model.Task
	filter     Filter
	sortColumn SortColumn
	sortAsc    bool
}

func NewService(cfg Config) (*Service, error) {
	if cfg.Store == nil {
		return nil, ErrMissingStore
	}
	if cfg.Notifier == nil {
		cfg.Notifier = notify.Discard
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Due == nil {
		cfg.Due = notify.NewDebouncer(DefaultDueCooldown, cfg.Now)
	}
	return &Service{
		owner:      cfg.Owner,
		store:      cfg.Store,
		notifier:   cfg.Notifier,
		due:        cfg.Due,
		now:        cfg.Now,
		sortColumn: ColumnDueDate,
		sortAsc:    true,
	}, nil
}

// Load hydrates the list from the store and runs the due scan.
func (s *Service) Load(ctx context.Context) error {
	list, err := s.store.ListTasks(ctx, s.owner)
	if err != nil {
		s.notifier.Notify("Error al cargar las tareas", notify.LevelError)
		return fmt.Errorf("load tasks: %w", err)
	}
	s.mu.Lock()
	s.tasks = list
	s.mu.Unlock()
	s.scanDue()
	return nil
}

// Tasks returns a copy of the unfiltered list.
func (s *Service) Tasks() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Task(nil), s.tasks...)
}

// View returns the currently filtered and sorted projection.
func (s *Service) View() []model.Task {
	s.mu.Lock()
	tasks := append([]model.Task(nil), s.tasks...)
	filter := s.filter
	column, asc := s.sortColumn, s.sortAsc
	s.mu.Unlock()
	return SortTasks(FilterTasks(tasks, filter), column, asc)
}

func (s *Service) SetFilter(f Filter) {
	s.mu.Lock()
	s.filter = f
	s.mu.Unlock()
}

func (s *Service) CurrentFilter() Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// SortBy activates a column; selecting the active column again flips the
// direction.
func (s *Service) SortBy(column SortColumn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sortColumn == column {
		s.sortAsc = !s.sortAsc
		return
	}
	s.sortColumn = column
	s.sortAsc = true
}

func (s *Service) CurrentSort() (SortColumn, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortColumn, s.sortAsc
}

// Add validates the draft, applies it locally and persists it. On a store
// failure the local change is reverted.
func (s *Service) Add(ctx context.Context, draft model.Task) error {
	now := s.now()
	draft.Owner = s.owner
	if draft.Status == "" {
		draft.Status = model.StatusPendiente
	}
	if draft.Priority == "" {
		draft.Priority = model.PriorityMedia
	}
	if errs := model.ValidateTask(draft, now); len(errs) > 0 {
		s.notifier.Notify("Corrige los errores del formulario", notify.LevelError)
		return errs
	}
	if draft.ID == "" {
		draft.ID = model.NewTaskID(now)
	}
	if draft.CreatedAt.IsZero() {
		draft.CreatedAt = now
	}

	s.mu.Lock()
	s.tasks = append(s.tasks, draft)
	s.mu.Unlock()

	if err := s.store.CreateTask(ctx, draft); err != nil {
		s.removeLocal(draft.ID)
		s.notifier.Notify("Error al añadir la tarea", notify.LevelError)
		return fmt.Errorf("add task: %w", err)
	}
	s.notifier.Notify("Tarea añadida con éxito!", notify.LevelSuccess)
	s.scanDue()
	return nil
}

// Update replaces the task with the same id, reverting on store failure.
func (s *Service) Update(ctx context.Context, task model.Task) error {
	task.Owner = s.owner
	if errs := model.ValidateTask(task, s.now()); len(errs) > 0 {
		s.notifier.Notify("Corrige los errores del formulario", notify.LevelError)
		return errs
	}

	prev, ok := s.replaceLocal(task)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, task.ID)
	}
	if err := s.store.UpdateTask(ctx, task); err != nil {
		s.replaceLocal(prev)
		s.notifier.Notify("Error al actualizar la tarea", notify.LevelError)
		return fmt.Errorf("update task: %w", err)
	}
	s.notifier.Notify("Tarea actualizada con éxito!", notify.LevelSuccess)
	s.scanDue()
	return nil
}

// Delete removes the task locally and remotely, restoring it on failure.
func (s *Service) Delete(ctx context.Context, id string) error {
	prev, index, ok := s.deleteLocal(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := s.store.DeleteTask(ctx, s.owner, id); err != nil {
		s.insertLocal(prev, index)
		s.notifier.Notify("Error al eliminar la tarea", notify.LevelError)
		return fmt.Errorf("delete task: %w", err)
	}
	s.notifier.Notify("Tarea eliminada con éxito!", notify.LevelSuccess)
	return nil
}

// Clone adds a copy of the task named "<name> (Copia)" due a week from now.
func (s *Service) Clone(ctx context.Context, task model.Task) error {
	cloned := task
	cloned.ID = ""
	cloned.Name = task.Name + " (Copia)"
	cloned.DueDate = model.DateOnly(s.now()).AddDate(0, 0, 7)
	cloned.Status = model.StatusPendiente
	cloned.CreatedAt = time.Time{}
	return s.Add(ctx, cloned)
}

// BulkDelete fans out the remote deletes, then removes locally only the ids
// whose writes succeeded.
func (s *Service) BulkDelete(ctx context.Context, ids []string) error {
	failures := s.fanOut(ids, func(id string) error {
		return s.store.DeleteTask(ctx, s.owner, id)
	})
	for _, id := range ids {
		if _, failed := failures[id]; failed {
			continue
		}
		s.removeLocal(id)
	}
	return s.reportBulk("eliminar", len(ids), failures)
}

// BulkSetStatus sets the status on every id, with the same partial-failure
// policy as BulkDelete.
func (s *Service) BulkSetStatus(ctx context.Context, ids []string, status model.Status) error {
	if !status.IsValid() {
		return fmt.Errorf("%w: %q", model.ErrInvalidStatus, status)
	}
	updated := make(map[string]model.Task, len(ids))
	s.mu.Lock()
	for _, t := range s.tasks {
		for _, id := range ids {
			if t.ID == id {
				t.Status = status
				updated[id] = t
			}
		}
	}
	s.mu.Unlock()

	failures := s.fanOut(ids, func(id string) error {
		task, ok := updated[id]
		if !ok {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return s.store.UpdateTask(ctx, task)
	})
	for id, task := range updated {
		if _, failed := failures[id]; failed {
			continue
		}
		s.replaceLocal(task)
	}
	if err := s.reportBulk("actualizar", len(ids), failures); err != nil {
		return err
	}
	s.scanDue()
	return nil
}

// ExportCSV serializes the supplied tasks, or the current view when nil.
func (s *Service) ExportCSV(tasksToExport []model.Task) string {
	if tasksToExport == nil {
		tasksToExport = s.View()
	}
	return ToCSV(tasksToExport)
}

// fanOut runs op for every id with at most bulkWorkers outstanding calls
// and returns the per-id failures.
func (s *Service) fanOut(ids []string, op func(id string) error) map[string]error {
	failures := make(map[string]error)
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	sem := make(chan struct{}, bulkWorkers)
	for _, id := range ids {
		wg.Add(1)
		sem <- struct{}{}
		go func(id string) {
			defer wg.Done()
			defer func() { <-sem }()
			if err := op(id); err != nil {
				mu.Lock()
				failures[id] = err
				mu.Unlock()
			}
		}(id)
	}
	wg.Wait()
	return failures
}

func (s *Service) reportBulk(verb string, total int, failures map[string]error) error {
	if len(failures) == 0 {
		s.notifier.Notify(fmt.Sprintf("Operación completada: %d tareas", total), notify.LevelSuccess)
		return nil
	}
	s.notifier.Notify(fmt.Sprintf("Error al %s %d de %d tareas", verb, len(failures), total), notify.LevelError)
	errs := make([]error, 0, len(failures))
	for id, err := range failures {
		errs = append(errs, fmt.Errorf("%s: %w", id, err))
	}
	return errors.Join(errs...)
}

// scanDue raises debounced overdue and due-soon warnings for open tasks.
func (s *Service) scanDue() {
	today := model.DateOnly(s.now())
	for _, t := range s.Tasks() {
		if t.Status == model.StatusCompletada || t.DueDate.IsZero() {
			continue
		}
		due := model.DateOnly(t.DueDate)
		switch {
		case due.Before(today):
			if s.due.Allow("overdue:" + t.ID) {
				s.notifier.Notify(fmt.Sprintf("Tarea %q está vencida! Fecha límite: %s", t.Name, due.Format(model.DueDateLayout)), notify.LevelWarn)
			}
		case !due.After(today.AddDate(0, 0, dueSoonDays)):
			if s.due.Allow("duesoon:" + t.ID) {
				s.notifier.Notify(fmt.Sprintf("Tarea %q vence pronto: %s", t.Name, due.Format(model.DueDateLayout)), notify.LevelWarn)
			}
		}
	}
}

func (s *Service) removeLocal(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.tasks[:0]
	for _, t := range s.tasks {
		if t.ID != id {
			out = append(out, t)
		}
	}
	s.tasks = out
}

func (s *Service) replaceLocal(task model.Task) (model.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.tasks {
		if t.ID == task.ID {
			s.tasks[i] = task
			return t, true
		}
	}
	return model.Task{}, false
}

func (s *Service) deleteLocal(id string) (model.Task, int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.tasks {
		if t.ID == id {
			s.tasks = append(s.tasks[:i:i], s.tasks[i+1:]...)
			return t, i, true
		}
	}
	return model.Task{}, 0, false
}

func (s *Service) insertLocal(task model.Task, index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index > len(s.tasks) {
		index = len(s.tasks)
	}
	out := make([]model.Task, 0, len(s.tasks)+1)
	out = append(out, s.tasks[:index]...)
	out = append(out, task)
	out = append(out, s.tasks[index:]...)
	s.tasks = out
}
