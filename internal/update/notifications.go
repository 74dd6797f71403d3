package update

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hogarlabs/domoctl/internal/model"
	"github.com/hogarlabs/domoctl/internal/notify"
)

// Toast is one user-facing notification line.
type Toast struct {
	Message string
	Level   notify.Level
	At      time.Time
}

// Hub bridges the executor and the task service into the bubbletea loop.
// Notify may be called from the executor goroutine; the channels hand the
// events over to Update. A full channel drops the event rather than block
// a tick.
type Hub struct {
	toasts  chan Toast
	applied chan model.Schedule
	now     func() time.Time
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 32
	}
	return &Hub{
		toasts:  make(chan Toast, buffer),
		applied: make(chan model.Schedule, buffer),
		now:     time.Now,
	}
}

func (h *Hub) Notify(message string, level notify.Level) {
	select {
	case h.toasts <- Toast{Message: message, Level: level, At: h.now()}:
	default:
	}
}

// ScheduleApplied is wired as the executor's OnApplied callback.
func (h *Hub) ScheduleApplied(s model.Schedule) {
	select {
	case h.applied <- s:
	default:
	}
}

func (h *Hub) Toasts() <-chan Toast           { return h.toasts }
func (h *Hub) Applied() <-chan model.Schedule { return h.applied }

type ToastMsg struct {
	Toast Toast
}

type ScheduleAppliedMsg struct {
	Schedule model.Schedule
}

func waitForToastCmd(ch <-chan Toast) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		toast, ok := <-ch
		if !ok {
			return nil
		}
		return ToastMsg{Toast: toast}
	}
}

func waitForAppliedCmd(ch <-chan model.Schedule) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return nil
		}
		return ScheduleAppliedMsg{Schedule: s}
	}
}
