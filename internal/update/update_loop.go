package update

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hogarlabs/domoctl/internal/notify"
	"github.com/hogarlabs/domoctl/internal/state"
	"github.com/hogarlabs/domoctl/internal/views"
)

func (m Model) Init() tea.Cmd {
	cmds := make([]tea.Cmd, 0, 2)
	if m.hub != nil {
		cmds = append(cmds, waitForToastCmd(m.hub.Toasts()), waitForAppliedCmd(m.hub.Applied()))
	}
	if len(cmds) == 0 {
		return nil
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		if m.form.Active {
			return m.handleScheduleFormKey(typed), nil
		}
		if m.taskForm.Active {
			return m.handleTaskFormKey(typed), nil
		}
		if m.searchMode {
			return m.handleSearchKey(typed), nil
		}

		switch typed.String() {
		case m.Keys.Horarios:
			m.CurrentView = ViewHorarios
			return m, nil
		case m.Keys.Tareas:
			m.CurrentView = ViewTareas
			m.refreshTaskTable()
			return m, nil
		case m.Keys.Dispositivos:
			m.CurrentView = ViewDispositivos
			return m, nil
		case m.Keys.Help:
			m.HelpVisible = !m.HelpVisible
			return m, nil
		case "ctrl+c", m.Keys.Quit:
			m.Quitting = true
			if m.engine != nil {
				m.engine.Stop()
			}
			return m, tea.Quit
		}

		switch m.CurrentView {
		case ViewHorarios:
			return m.handleScheduleKey(typed), nil
		case ViewTareas:
			return m.handleTaskKey(typed), nil
		}
		return m, nil

	case ToastMsg:
		m.pushToast(typed.Toast)
		m.Status = StatusBar{Text: typed.Toast.Message, IsError: typed.Toast.Level == notify.LevelError}
		return m, waitForToastCmd(m.hub.Toasts())

	case ScheduleAppliedMsg:
		m.applySchedules(state.Update(typed.Schedule))
		return m, waitForAppliedCmd(m.hub.Applied())
	}

	return m, nil
}

func (m Model) View() string {
	status := ""
	if m.Status.Text != "" {
		if m.Status.IsError {
			status = fmt.Sprintf("estado: error: %s", m.Status.Text)
		} else {
			status = fmt.Sprintf("estado: %s", m.Status.Text)
		}
	}

	leftPane := ""
	rightPane := ""
	switch m.CurrentView {
	case ViewHorarios:
		leftPane = m.renderSchedulesView()
		rightPane = m.renderScheduleFormIfVisible() + m.renderHelpIfVisible()
	case ViewTareas:
		leftPane = m.renderTasksView()
		rightPane = m.renderTaskFormIfVisible() + m.renderHelpIfVisible()
	case ViewDispositivos:
		leftPane = m.renderDevicesView()
		rightPane = m.renderHelpIfVisible()
	}

	return views.RenderApp(views.AppData{
		Header:       fmt.Sprintf("domoctl | vista: %s | usuario: %s", m.CurrentView, m.cfg.Owner),
		LeftPane:     leftPane,
		RightPane:    rightPane,
		StatusLine:   status,
		Notification: m.renderToasts(),
		Footer: fmt.Sprintf("teclas: %s horarios | %s tareas | %s dispositivos | %s ayuda | %s salir",
			m.Keys.Horarios, m.Keys.Tareas, m.Keys.Dispositivos, m.Keys.Help, m.Keys.Quit),
	})
}

func (m Model) renderToasts() string {
	if len(m.toasts) == 0 {
		return ""
	}
	data := make([]views.ToastData, 0, len(m.toasts))
	for _, toast := range m.toasts {
		data = append(data, views.ToastData{
			Message: toast.Message,
			Level:   string(toast.Level),
			At:      toast.At.Format("15:04:05"),
		})
	}
	return views.RenderToasts(data)
}

func (m Model) renderHelpIfVisible() string {
	if !m.HelpVisible {
		return ""
	}
	return views.RenderHelpPanel(string(m.CurrentView))
}

func (m Model) renderDevicesView() string {
	items := make([]views.DeviceData, 0, len(m.devices))
	for _, d := range m.devices {
		items = append(items, views.DeviceData{
			ID:     d.ID,
			Name:   d.Name,
			Type:   d.Type,
			Status: d.Status,
		})
	}
	return views.RenderDevicesPanel(items)
}
