package model

import (
	"testing"
	"time"
)

func TestValidateTaskRejectsEmptyName(t *testing.T) {
	today := time.Date(2026, 3, 4, 15, 30, 0, 0, time.UTC)
	task := Task{
		Name:       "",
		Priority:   PriorityMedia,
		Status:     StatusPendiente,
		DueDate:    DateOnly(today),
		AssignedTo: "X",
	}
	errs := ValidateTask(task, today)
	if _, ok := errs["name"]; !ok {
		t.Fatalf("expected name error, got %v", errs)
	}
	if len(errs) != 1 {
		t.Fatalf("expected only the name error, got %v", errs)
	}
}

func TestValidateTaskRejectsPastDueDate(t *testing.T) {
	today := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	task := Task{
		Name:       "Revisar sensores",
		Priority:   PriorityAlta,
		Status:     StatusPendiente,
		DueDate:    today.AddDate(0, 0, -1),
		AssignedTo: "Ana",
	}
	errs := ValidateTask(task, today)
	if _, ok := errs["dueDate"]; !ok {
		t.Fatalf("expected dueDate error, got %v", errs)
	}
}

func TestValidateTaskAcceptsDueToday(t *testing.T) {
	today := time.Date(2026, 3, 4, 23, 59, 0, 0, time.UTC)
	task := Task{
		Name:       "Revisar sensores",
		Priority:   PriorityBaja,
		Status:     StatusEnProgreso,
		DueDate:    DateOnly(today),
		AssignedTo: "Ana",
	}
	if errs := ValidateTask(task, today); len(errs) != 0 {
		t.Fatalf("task due today must validate, got %v", errs)
	}
}

func TestValidateTaskRequiresAssignee(t *testing.T) {
	today := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	task := Task{
		Name:     "Revisar sensores",
		Priority: PriorityMedia,
		Status:   StatusPendiente,
		DueDate:  today,
	}
	errs := ValidateTask(task, today)
	if _, ok := errs["assignedTo"]; !ok {
		t.Fatalf("expected assignedTo error, got %v", errs)
	}
}

func TestPriorityAndStatusValidity(t *testing.T) {
	for _, p := range []Priority{PriorityAlta, PriorityMedia, PriorityBaja} {
		if !p.IsValid() {
			t.Fatalf("priority %q should be valid", p)
		}
	}
	if Priority("Urgente").IsValid() {
		t.Fatalf("unknown priority must be invalid")
	}
	for _, s := range []Status{StatusPendiente, StatusEnProgreso, StatusCompletada} {
		if !s.IsValid() {
			t.Fatalf("status %q should be valid", s)
		}
	}
	if Status("Archivada").IsValid() {
		t.Fatalf("unknown status must be invalid")
	}
}
