package update

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hogarlabs/domoctl/internal/model"
	"github.com/hogarlabs/domoctl/internal/tasks"
	"github.com/hogarlabs/domoctl/internal/views"
)

var sortColumnCycle = []tasks.SortColumn{
	tasks.ColumnDueDate,
	tasks.ColumnName,
	tasks.ColumnPriority,
	tasks.ColumnAssignedTo,
}

var priorityCycle = []model.Priority{model.PriorityAlta, model.PriorityMedia, model.PriorityBaja}

const exportFileName = "tareas.csv"

func (m Model) handleTaskKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "n":
		m.taskForm = newTaskForm()
		m.taskForm.Active = true
		m.taskForm.NameInput.Focus()
		return m
	case "e", "enter":
		if selected, ok := m.currentTask(); ok {
			m.openTaskForm(selected)
		}
		return m
	case "/":
		m.searchMode = true
		m.searchInput.SetValue(m.svc.CurrentFilter().Search)
		m.searchInput.Focus()
		return m
	case "o":
		m.sortColumn = nextSortColumn(m.sortColumn)
		m.svc.SortBy(m.sortColumn)
		m.refreshTaskTable()
		return m
	case "O":
		// Re-selecting the current column flips the direction.
		m.svc.SortBy(m.sortColumn)
		m.refreshTaskTable()
		return m
	case "p":
		m.cycleTaskPriorityFilter()
		return m
	case "P":
		m.cycleTaskStatusFilter()
		return m
	case " ":
		if selected, ok := m.currentTask(); ok {
			m.selectedTasks[selected.ID] = !m.selectedTasks[selected.ID]
		}
		return m
	case "u":
		m.selectedTasks = make(map[string]bool)
		return m
	case "c":
		if selected, ok := m.currentTask(); ok {
			if err := m.svc.Clone(context.Background(), selected); err == nil {
				m.refreshTaskTable()
			}
		}
		return m
	case "d":
		m = m.deleteTasks()
		return m
	case "b":
		m = m.bulkComplete()
		return m
	case "E":
		m = m.exportTasks()
		return m
	}

	var cmd tea.Cmd
	m.taskTable, cmd = m.taskTable.Update(msg)
	_ = cmd
	return m
}

func (m Model) handleSearchKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "esc":
		m.searchMode = false
		m.searchInput.Blur()
		return m
	case "enter":
		filter := m.svc.CurrentFilter()
		filter.Search = strings.TrimSpace(m.searchInput.Value())
		m.svc.SetFilter(filter)
		m.searchMode = false
		m.searchInput.Blur()
		m.refreshTaskTable()
		return m
	}
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	_ = cmd
	return m
}

func (m *Model) cycleTaskPriorityFilter() {
	filter := m.svc.CurrentFilter()
	switch filter.Priority {
	case "":
		filter.Priority = model.PriorityAlta
	case model.PriorityAlta:
		filter.Priority = model.PriorityMedia
	case model.PriorityMedia:
		filter.Priority = model.PriorityBaja
	default:
		filter.Priority = ""
	}
	m.svc.SetFilter(filter)
	m.refreshTaskTable()
}

func (m *Model) cycleTaskStatusFilter() {
	filter := m.svc.CurrentFilter()
	switch filter.Status {
	case "":
		filter.Status = model.StatusPendiente
	case model.StatusPendiente:
		filter.Status = model.StatusEnProgreso
	case model.StatusEnProgreso:
		filter.Status = model.StatusCompletada
	default:
		filter.Status = ""
	}
	m.svc.SetFilter(filter)
	m.refreshTaskTable()
}

func (m Model) deleteTasks() Model {
	ids := m.selectedTaskIDs()
	if len(ids) > 1 {
		if err := m.svc.BulkDelete(context.Background(), ids); err == nil {
			m.selectedTasks = make(map[string]bool)
		}
		m.refreshTaskTable()
		return m
	}
	if selected, ok := m.currentTask(); ok {
		if err := m.svc.Delete(context.Background(), selected.ID); err == nil {
			delete(m.selectedTasks, selected.ID)
			m.Status = StatusBar{Text: "Tarea eliminada", IsError: false}
		}
		m.refreshTaskTable()
	}
	return m
}

func (m Model) bulkComplete() Model {
	ids := m.selectedTaskIDs()
	if len(ids) == 0 {
		if selected, ok := m.currentTask(); ok {
			ids = []string{selected.ID}
		}
	}
	if len(ids) == 0 {
		return m
	}
	if err := m.svc.BulkSetStatus(context.Background(), ids, model.StatusCompletada); err == nil {
		m.selectedTasks = make(map[string]bool)
	}
	m.refreshTaskTable()
	return m
}

func (m Model) exportTasks() Model {
	payload := m.svc.ExportCSV(nil)
	if err := os.WriteFile(exportFileName, []byte(payload+"\n"), 0o644); err != nil {
		m.Status = StatusBar{Text: "Error al exportar las tareas", IsError: true}
		return m
	}
	m.Status = StatusBar{Text: fmt.Sprintf("Tareas exportadas a %s", exportFileName), IsError: false}
	return m
}

func (m *Model) openTaskForm(t model.Task) {
	m.taskForm = newTaskForm()
	m.taskForm.Active = true
	m.taskForm.EditingID = t.ID
	m.taskForm.NameInput.SetValue(t.Name)
	m.taskForm.DueInput.SetValue(t.DueDate.Format(model.DueDateLayout))
	m.taskForm.AssigneeInput.SetValue(t.AssignedTo)
	m.taskForm.TagsInput.SetValue(strings.Join(t.Tags, ", "))
	if t.Priority.IsValid() {
		m.taskForm.Priority = t.Priority
	}
	m.taskForm.NameInput.Focus()
}

func (m Model) handleTaskFormKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "esc":
		m.taskForm.Active = false
		m.Status = StatusBar{Text: "Edición cancelada", IsError: false}
		return m
	case "tab":
		m.focusTaskFormField((m.taskForm.Focus + 1) % 4)
		return m
	case "ctrl+p":
		m.taskForm.Priority = nextPriority(m.taskForm.Priority)
		return m
	case "enter":
		return m.submitTaskForm()
	}

	var cmd tea.Cmd
	switch m.taskForm.Focus {
	case 0:
		m.taskForm.NameInput, cmd = m.taskForm.NameInput.Update(msg)
	case 1:
		m.taskForm.DueInput, cmd = m.taskForm.DueInput.Update(msg)
	case 2:
		m.taskForm.AssigneeInput, cmd = m.taskForm.AssigneeInput.Update(msg)
	default:
		m.taskForm.TagsInput, cmd = m.taskForm.TagsInput.Update(msg)
	}
	_ = cmd
	return m
}

func (m *Model) focusTaskFormField(index int) {
	m.taskForm.Focus = index
	m.taskForm.NameInput.Blur()
	m.taskForm.DueInput.Blur()
	m.taskForm.AssigneeInput.Blur()
	m.taskForm.TagsInput.Blur()
	switch index {
	case 0:
		m.taskForm.NameInput.Focus()
	case 1:
		m.taskForm.DueInput.Focus()
	case 2:
		m.taskForm.AssigneeInput.Focus()
	default:
		m.taskForm.TagsInput.Focus()
	}
}

func (m Model) submitTaskForm() Model {
	due, err := time.Parse(model.DueDateLayout, strings.TrimSpace(m.taskForm.DueInput.Value()))
	if err != nil {
		m.taskForm.Errors = model.FieldErrors{"dueDate": "formato de fecha no válido"}
		m.Status = StatusBar{Text: "Corrige los errores del formulario", IsError: true}
		return m
	}

	draft := model.Task{
		ID:         m.taskForm.EditingID,
		Owner:      m.cfg.Owner,
		Name:       strings.TrimSpace(m.taskForm.NameInput.Value()),
		Priority:   m.taskForm.Priority,
		DueDate:    due,
		AssignedTo: strings.TrimSpace(m.taskForm.AssigneeInput.Value()),
		Tags:       splitTags(m.taskForm.TagsInput.Value()),
	}

	ctx := context.Background()
	if draft.ID == "" {
		if err := m.svc.Add(ctx, draft); err != nil {
			var fields model.FieldErrors
			if errors.As(err, &fields) {
				m.taskForm.Errors = fields
			}
			return m
		}
	} else {
		if existing, ok := m.taskByID(draft.ID); ok {
			draft.Status = existing.Status
			draft.Description = existing.Description
			draft.CreatedAt = existing.CreatedAt
		}
		if err := m.svc.Update(ctx, draft); err != nil {
			var fields model.FieldErrors
			if errors.As(err, &fields) {
				m.taskForm.Errors = fields
			}
			return m
		}
	}

	m.taskForm.Active = false
	m.refreshTaskTable()
	return m
}

func (m *Model) refreshTaskTable() {
	if m.svc == nil {
		return
	}
	visible := m.svc.View()
	rows := make([]table.Row, 0, len(visible))
	for _, t := range visible {
		name := t.Name
		if m.selectedTasks[t.ID] {
			name = "* " + name
		}
		rows = append(rows, table.Row{
			name,
			string(t.Priority),
			t.DueDate.Format(model.DueDateLayout),
			string(t.Status),
			t.AssignedTo,
		})
	}
	m.taskTable.SetRows(rows)
}

func (m *Model) currentTask() (model.Task, bool) {
	visible := m.svc.View()
	cursor := m.taskTable.Cursor()
	if cursor < 0 || cursor >= len(visible) {
		return model.Task{}, false
	}
	return visible[cursor], true
}

func (m *Model) taskByID(id string) (model.Task, bool) {
	for _, t := range m.svc.Tasks() {
		if t.ID == id {
			return t, true
		}
	}
	return model.Task{}, false
}

func (m *Model) selectedTaskIDs() []string {
	out := make([]string, 0, len(m.selectedTasks))
	for id, on := range m.selectedTasks {
		if on {
			out = append(out, id)
		}
	}
	return out
}

func nextSortColumn(current tasks.SortColumn) tasks.SortColumn {
	for i, col := range sortColumnCycle {
		if col == current {
			return sortColumnCycle[(i+1)%len(sortColumnCycle)]
		}
	}
	return sortColumnCycle[0]
}

func nextPriority(current model.Priority) model.Priority {
	for i, p := range priorityCycle {
		if p == current {
			return priorityCycle[(i+1)%len(priorityCycle)]
		}
	}
	return priorityCycle[0]
}

func splitTags(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func (m Model) renderTasksView() string {
	filter := m.svc.CurrentFilter()
	column, ascending := m.svc.CurrentSort()
	direction := "asc"
	if !ascending {
		direction = "desc"
	}
	return views.RenderTasksPanel(views.TasksPanelData{
		TableView:     m.taskTable.View(),
		SearchView:    m.searchInput.View(),
		SearchActive:  m.searchMode,
		Search:        filter.Search,
		Priority:      string(filter.Priority),
		Status:        string(filter.Status),
		Sort:          fmt.Sprintf("%s %s", column, direction),
		SelectedCount: len(m.selectedTaskIDs()),
		Total:         len(m.svc.Tasks()),
		Visible:       len(m.svc.View()),
	})
}

func (m Model) renderTaskFormIfVisible() string {
	if !m.taskForm.Active {
		return ""
	}
	return views.RenderTaskForm(views.TaskFormData{
		Editing:      m.taskForm.EditingID != "",
		NameView:     m.taskForm.NameInput.View(),
		DueView:      m.taskForm.DueInput.View(),
		AssigneeView: m.taskForm.AssigneeInput.View(),
		TagsView:     m.taskForm.TagsInput.View(),
		Priority:     string(m.taskForm.Priority),
		Errors:       fieldErrorLines(m.taskForm.Errors),
	})
}
