package tasks

import (
	"sort"
	"strings"

	"github.com/hogarlabs/domoctl/internal/model"
)

// Filter is the conjunction of the four task filters. Zero values leave a
// dimension unconstrained.
type Filter struct {
	Search     string
	Priority   model.Priority
	Status     model.Status
	AssignedTo string
}

// Matches applies all filter dimensions; the search term scans name,
// assignee and tags case-insensitively.
func (f Filter) Matches(t model.Task) bool {
	if f.Search != "" {
		term := strings.ToLower(f.Search)
		hit := strings.Contains(strings.ToLower(t.Name), term) ||
			strings.Contains(strings.ToLower(t.AssignedTo), term)
		for _, tag := range t.Tags {
			if hit {
				break
			}
			hit = strings.Contains(strings.ToLower(tag), term)
		}
		if !hit {
			return false
		}
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.AssignedTo != "" && !strings.Contains(strings.ToLower(t.AssignedTo), strings.ToLower(f.AssignedTo)) {
		return false
	}
	return true
}

func FilterTasks(in []model.Task, f Filter) []model.Task {
	out := make([]model.Task, 0, len(in))
	for _, t := range in {
		if f.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}

type SortColumn string

const (
	ColumnID         SortColumn = "id"
	ColumnName       SortColumn = "name"
	ColumnPriority   SortColumn = "priority"
	ColumnDueDate    SortColumn = "dueDate"
	ColumnAssignedTo SortColumn = "assignedTo"
)

// SortTasks returns a sorted copy; dueDate compares as dates, everything
// else as case-insensitive strings.
func SortTasks(in []model.Task, column SortColumn, ascending bool) []model.Task {
	out := make([]model.Task, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool {
		var less bool
		if column == ColumnDueDate {
			less = out[i].DueDate.Before(out[j].DueDate)
		} else {
			less = strings.ToLower(columnValue(out[i], column)) < strings.ToLower(columnValue(out[j], column))
		}
		if ascending {
			return less
		}
		if column == ColumnDueDate {
			return out[j].DueDate.Before(out[i].DueDate)
		}
		return strings.ToLower(columnValue(out[j], column)) < strings.ToLower(columnValue(out[i], column))
	})
	return out
}

func columnValue(t model.Task, column SortColumn) string {
	switch column {
	case ColumnName:
		return t.Name
	case ColumnPriority:
		return string(t.Priority)
	case ColumnAssignedTo:
		return t.AssignedTo
	default:
		return t.ID
	}
}
