package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidPriority = errors.New("model: invalid task priority")
	ErrInvalidStatus   = errors.New("model: invalid task status")
)

// DueDateLayout is the calendar-date form tasks carry; due dates have no
// time component.
const DueDateLayout = "2006-01-02"

type Priority string

const (
	PriorityAlta  Priority = "Alta"
	PriorityMedia Priority = "Media"
	PriorityBaja  Priority = "Baja"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityAlta, PriorityMedia, PriorityBaja:
		return true
	default:
		return false
	}
}

type Status string

const (
	StatusPendiente  Status = "Pendiente"
	StatusEnProgreso Status = "En Progreso"
	StatusCompletada Status = "Completada"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPendiente, StatusEnProgreso, StatusCompletada:
		return true
	default:
		return false
	}
}

// Task is one entry of a per-owner task list. Tasks never reference devices.
type Task struct {
	ID          string    `json:"id"`
	Owner       string    `json:"owner"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Priority    Priority  `json:"priority"`
	DueDate     time.Time `json:"dueDate"` // date only, midnight in the task's location
	Status      Status    `json:"status"`
	AssignedTo  string    `json:"assignedTo"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"createdAt"`
}

func NewTaskID(now time.Time) string {
	return fmt.Sprintf("task-%d", now.UnixNano())
}

// DateOnly returns a copy of t with only the calendar date kept.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// ValidateTask checks a task draft against today's date. A failing draft
// must never reach the store.
func ValidateTask(t Task, today time.Time) FieldErrors {
	errs := make(FieldErrors)
	if strings.TrimSpace(t.Name) == "" {
		errs.add("name", "el nombre es obligatorio")
	}
	if t.DueDate.IsZero() {
		errs.add("dueDate", "la fecha de vencimiento es obligatoria")
	} else if DateOnly(t.DueDate).Before(DateOnly(today)) {
		errs.add("dueDate", "la fecha de vencimiento no puede ser anterior a hoy")
	}
	if strings.TrimSpace(t.AssignedTo) == "" {
		errs.add("assignedTo", "asigna la tarea a alguien")
	}
	if !t.Priority.IsValid() {
		errs.add("priority", fmt.Sprintf("prioridad no válida: %q", t.Priority))
	}
	if !t.Status.IsValid() {
		errs.add("status", fmt.Sprintf("estado no válido: %q", t.Status))
	}
	return errs
}
