package update

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"

	"github.com/hogarlabs/domoctl/internal/draft"
	"github.com/hogarlabs/domoctl/internal/executor"
	"github.com/hogarlabs/domoctl/internal/model"
	"github.com/hogarlabs/domoctl/internal/state"
	"github.com/hogarlabs/domoctl/internal/storage"
	"github.com/hogarlabs/domoctl/internal/tasks"
)

type View string

const (
	ViewHorarios     View = "Horarios"
	ViewTareas       View = "Tareas"
	ViewDispositivos View = "Dispositivos"
)

type StatusBar struct {
	Text    string
	IsError bool
}

type GlobalKeyMap struct {
	Horarios     string
	Tareas       string
	Dispositivos string
	Help         string
	Quit         string
}

// scheduleFormState is the edit buffer for one schedule. The form builds a
// single-trigger schedule; editing an existing one keeps its extra triggers
// untouched.
type scheduleFormState struct {
	Active    bool
	EditingID string
	NameInput textinput.Model
	TimeInput textinput.Model
	RangeMode bool
	Days      model.DayPattern
	Repeat    model.Repeat
	DeviceIdx int
	Focus     int
	Errors    model.FieldErrors
	Warnings  model.FieldErrors
}

type taskFormState struct {
	Active        bool
	EditingID     string
	NameInput     textinput.Model
	DueInput      textinput.Model
	AssigneeInput textinput.Model
	TagsInput     textinput.Model
	Priority      model.Priority
	Focus         int
	Errors        model.FieldErrors
}

// Deps are the wired application services the TUI drives.
type Deps struct {
	Config RuntimeConfig
	Repo   storage.Repository
	Engine *executor.Engine
	Tasks  *tasks.Service
	Drafts draft.Store
	Hub    *Hub
}

type Model struct {
	CurrentView View
	Keys        GlobalKeyMap
	Status      StatusBar
	HelpVisible bool
	Quitting    bool

	cfg    RuntimeConfig
	repo   storage.Repository
	engine *executor.Engine
	svc    *tasks.Service
	drafts draft.Store
	hub    *Hub

	schedules      []model.Schedule
	devices        []model.Device
	scheduleCursor int
	form           scheduleFormState

	taskTable     table.Model
	searchInput   textinput.Model
	searchMode    bool
	selectedTasks map[string]bool
	taskForm      taskFormState
	sortColumn    tasks.SortColumn

	toasts []Toast
	now    func() time.Time
}

const maxToasts = 5

func NewModel(deps Deps) Model {
	m := Model{
		CurrentView: ViewHorarios,
		Keys: GlobalKeyMap{
			Horarios:     "1",
			Tareas:       "2",
			Dispositivos: "3",
			Help:         "?",
			Quit:         "q",
		},
		cfg:           deps.Config,
		repo:          deps.Repo,
		engine:        deps.Engine,
		svc:           deps.Tasks,
		drafts:        deps.Drafts,
		hub:           deps.Hub,
		selectedTasks: make(map[string]bool),
		sortColumn:    tasks.ColumnDueDate,
		now:           time.Now,
	}
	m.initBubbleComponents()
	return m
}

func (m *Model) initBubbleComponents() {
	cols := []table.Column{
		{Title: "Nombre", Width: 22},
		{Title: "Prioridad", Width: 10},
		{Title: "Vence", Width: 11},
		{Title: "Estado", Width: 12},
		{Title: "Asignado", Width: 12},
	}
	m.taskTable = table.New(table.WithColumns(cols), table.WithRows([]table.Row{}), table.WithFocused(true), table.WithHeight(10))

	m.searchInput = textinput.New()
	m.searchInput.Prompt = "buscar> "
	m.searchInput.CharLimit = 128
	m.searchInput.Width = 36

	m.form = newScheduleForm()
	m.taskForm = newTaskForm()
}

func newScheduleForm() scheduleFormState {
	name := textinput.New()
	name.Prompt = "nombre> "
	name.CharLimit = 128
	name.Width = 36

	clock := textinput.New()
	clock.Prompt = "hora> "
	clock.Placeholder = "HH:MM"
	clock.CharLimit = 11
	clock.Width = 16

	return scheduleFormState{
		NameInput: name,
		TimeInput: clock,
		Days:      model.DaysEvery,
		Repeat:    model.RepeatDaily,
	}
}

func newTaskForm() taskFormState {
	name := textinput.New()
	name.Prompt = "nombre> "
	name.CharLimit = 128
	name.Width = 36

	due := textinput.New()
	due.Prompt = "vence> "
	due.Placeholder = model.DueDateLayout
	due.CharLimit = 10
	due.Width = 16

	assignee := textinput.New()
	assignee.Prompt = "asignado> "
	assignee.CharLimit = 64
	assignee.Width = 24

	tags := textinput.New()
	tags.Prompt = "etiquetas> "
	tags.Placeholder = "casa, jardín"
	tags.CharLimit = 128
	tags.Width = 36

	return taskFormState{
		NameInput:     name,
		DueInput:      due,
		AssigneeInput: assignee,
		TagsInput:     tags,
		Priority:      model.PriorityMedia,
	}
}

// applySchedules replaces the schedule snapshot through the reducer and
// keeps the executor's inputs in sync.
func (m *Model) applySchedules(action state.Action) {
	m.schedules = state.Reduce(m.schedules, action)
	if m.scheduleCursor >= len(m.schedules) {
		m.scheduleCursor = len(m.schedules) - 1
	}
	if m.scheduleCursor < 0 {
		m.scheduleCursor = 0
	}
	m.syncEngine()
}

// syncEngine pushes the current snapshots into the executor and starts or
// stops the loop depending on whether anything can fire at all.
func (m *Model) syncEngine() {
	if m.engine == nil {
		return
	}
	m.engine.SetInputs(m.schedules, m.devices)
	active := 0
	for _, s := range m.schedules {
		if s.Active {
			active++
		}
	}
	if active == 0 || len(m.devices) == 0 {
		m.engine.Stop()
		return
	}
	m.engine.Start(context.Background())
}

func (m *Model) currentSchedule() (model.Schedule, bool) {
	if m.scheduleCursor < 0 || m.scheduleCursor >= len(m.schedules) {
		return model.Schedule{}, false
	}
	return m.schedules[m.scheduleCursor], true
}

func (m *Model) pushToast(toast Toast) {
	m.toasts = append(m.toasts, toast)
	if len(m.toasts) > maxToasts {
		m.toasts = m.toasts[len(m.toasts)-maxToasts:]
	}
}
