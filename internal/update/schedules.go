package update

import (
	"context"
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hogarlabs/domoctl/internal/model"
	"github.com/hogarlabs/domoctl/internal/state"
	"github.com/hogarlabs/domoctl/internal/views"
)

var dayPatternCycle = []model.DayPattern{model.DaysEvery, model.DaysWeekdays, model.DaysWeekend}

var repeatCycle = []model.Repeat{model.RepeatOnce, model.RepeatHourly, model.RepeatDaily}

// Bootstrap installs the loaded snapshots, restores a pending form draft
// and brings the executor up. Call once before handing the model to tea.
func (m *Model) Bootstrap(schedules []model.Schedule, devices []model.Device) {
	m.devices = devices
	m.applySchedules(state.SetAll(schedules))
	m.refreshTaskTable()
	m.restoreDraft()
}

func (m *Model) restoreDraft() {
	if m.drafts == nil {
		return
	}
	pending, ok, err := m.drafts.Load()
	if err != nil || !ok {
		return
	}
	m.openScheduleForm(pending, pending.ID)
	m.Status = StatusBar{Text: "Borrador de horario restaurado", IsError: false}
}

func (m Model) handleScheduleKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "j", "down":
		if m.scheduleCursor < len(m.schedules)-1 {
			m.scheduleCursor++
		}
	case "k", "up":
		if m.scheduleCursor > 0 {
			m.scheduleCursor--
		}
	case "n":
		blank := model.Schedule{
			Owner:   m.cfg.Owner,
			Days:    model.DaysEvery,
			Active:  true,
			Repeat:  model.RepeatDaily,
			Devices: []model.DeviceTrigger{{}},
		}
		m.openScheduleForm(blank, "")
	case "e", "enter":
		if selected, ok := m.currentSchedule(); ok {
			m.openScheduleForm(selected, selected.ID)
		}
	case "a":
		m = m.toggleScheduleActive()
	case "d":
		m = m.deleteSchedule()
	}
	return m
}

func (m *Model) openScheduleForm(s model.Schedule, editingID string) {
	m.form = newScheduleForm()
	m.form.Active = true
	m.form.EditingID = editingID
	m.form.NameInput.SetValue(s.Name)
	if s.Days.IsValid() {
		m.form.Days = s.Days
	}
	if s.Repeat.IsValid() {
		m.form.Repeat = s.Repeat
	}
	if len(s.Devices) > 0 {
		trigger := s.Devices[0]
		for i, d := range m.devices {
			if d.ID == trigger.DeviceID {
				m.form.DeviceIdx = i
				break
			}
		}
		if trigger.TimeRange != "" {
			m.form.RangeMode = true
			m.form.TimeInput.SetValue(trigger.TimeRange)
		} else {
			m.form.TimeInput.SetValue(trigger.Time)
		}
	}
	m.form.NameInput.Focus()
}

func (m Model) handleScheduleFormKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "esc":
		m.form.Active = false
		if m.drafts != nil {
			if err := m.drafts.Clear(); err != nil {
				m.Status = StatusBar{Text: err.Error(), IsError: true}
				return m
			}
		}
		m.Status = StatusBar{Text: "Edición cancelada", IsError: false}
		return m
	case "tab":
		m.form.Focus = (m.form.Focus + 1) % 2
		if m.form.Focus == 0 {
			m.form.NameInput.Focus()
			m.form.TimeInput.Blur()
		} else {
			m.form.TimeInput.Focus()
			m.form.NameInput.Blur()
		}
		return m
	case "ctrl+d":
		m.form.Days = cycleDayPattern(m.form.Days)
		return m
	case "ctrl+r":
		m.form.Repeat = cycleRepeat(m.form.Repeat)
		return m
	case "ctrl+t":
		// Switching the mode clears the other field, the same exclusion the
		// trigger mutators enforce.
		m.form.RangeMode = !m.form.RangeMode
		m.form.TimeInput.SetValue("")
		if m.form.RangeMode {
			m.form.TimeInput.Placeholder = "HH:MM-HH:MM"
		} else {
			m.form.TimeInput.Placeholder = "HH:MM"
		}
		return m
	case "ctrl+n":
		if len(m.devices) > 0 {
			m.form.DeviceIdx = (m.form.DeviceIdx + 1) % len(m.devices)
		}
		return m
	case "ctrl+s":
		m.saveDraft()
		return m
	case "enter":
		return m.submitScheduleForm()
	}

	var cmd tea.Cmd
	if m.form.Focus == 0 {
		m.form.NameInput, cmd = m.form.NameInput.Update(msg)
	} else {
		m.form.TimeInput, cmd = m.form.TimeInput.Update(msg)
	}
	_ = cmd
	return m
}

func (m *Model) saveDraft() {
	if m.drafts == nil {
		return
	}
	if err := m.drafts.Save(m.formSchedule()); err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return
	}
	m.Status = StatusBar{Text: "Borrador guardado", IsError: false}
}

// formSchedule assembles the schedule the form currently describes.
func (m *Model) formSchedule() model.Schedule {
	trigger := model.DeviceTrigger{}
	if len(m.devices) > 0 && m.form.DeviceIdx < len(m.devices) {
		trigger.DeviceID = m.devices[m.form.DeviceIdx].ID
	}
	value := strings.TrimSpace(m.form.TimeInput.Value())
	if m.form.RangeMode {
		trigger.SetTimeRange(value)
	} else {
		trigger.SetTime(value)
	}

	out := model.Schedule{
		ID:      m.form.EditingID,
		Owner:   m.cfg.Owner,
		Name:    strings.TrimSpace(m.form.NameInput.Value()),
		Days:    m.form.Days,
		Active:  true,
		Repeat:  m.form.Repeat,
		Devices: []model.DeviceTrigger{trigger},
	}
	if existing, ok := m.scheduleByID(m.form.EditingID); ok {
		out.Active = existing.Active
		out.CreatedAt = existing.CreatedAt
		out.LastTriggered = existing.LastTriggered
		if len(existing.Devices) > 1 {
			out.Devices = append(out.Devices, existing.Devices[1:]...)
		}
	}
	return out
}

func (m Model) submitScheduleForm() Model {
	draft := m.formSchedule()
	errs, warns := model.ValidateSchedule(draft, m.devices)
	m.form.Warnings = warns
	if len(errs) > 0 {
		m.form.Errors = errs
		m.Status = StatusBar{Text: "Corrige los errores del formulario", IsError: true}
		return m
	}
	m.form.Errors = nil

	isNew := draft.ID == ""
	if isNew {
		draft.ID = model.NewScheduleID(m.now())
		draft.CreatedAt = m.now()
	}
	if err := m.repo.SaveSchedule(context.Background(), draft); err != nil {
		m.Status = StatusBar{Text: "Error al guardar el horario", IsError: true}
		return m
	}

	if isNew {
		m.applySchedules(state.Add(draft))
	} else {
		m.applySchedules(state.Update(draft))
	}
	m.form.Active = false
	if m.drafts != nil {
		_ = m.drafts.Clear()
	}
	if len(warns) > 0 {
		m.Status = StatusBar{Text: "Horario guardado con avisos: " + warns.Error(), IsError: false}
	} else {
		m.Status = StatusBar{Text: "Horario guardado con éxito!", IsError: false}
	}
	return m
}

func (m Model) toggleScheduleActive() Model {
	selected, ok := m.currentSchedule()
	if !ok {
		return m
	}
	selected.Active = !selected.Active
	if err := m.repo.SaveSchedule(context.Background(), selected); err != nil {
		m.Status = StatusBar{Text: "Error al guardar el horario", IsError: true}
		return m
	}
	m.applySchedules(state.Update(selected))
	if selected.Active {
		m.Status = StatusBar{Text: fmt.Sprintf("Horario %q activado", selected.Name), IsError: false}
	} else {
		m.Status = StatusBar{Text: fmt.Sprintf("Horario %q desactivado", selected.Name), IsError: false}
	}
	return m
}

func (m Model) deleteSchedule() Model {
	selected, ok := m.currentSchedule()
	if !ok {
		return m
	}
	if err := m.repo.DeleteSchedule(context.Background(), selected.Owner, selected.ID); err != nil {
		m.Status = StatusBar{Text: "Error al eliminar el horario", IsError: true}
		return m
	}
	m.applySchedules(state.Delete(selected.ID))
	m.Status = StatusBar{Text: "Horario eliminado", IsError: false}
	return m
}

func (m *Model) scheduleByID(id string) (model.Schedule, bool) {
	if id == "" {
		return model.Schedule{}, false
	}
	for _, s := range m.schedules {
		if s.ID == id {
			return s, true
		}
	}
	return model.Schedule{}, false
}

func cycleDayPattern(current model.DayPattern) model.DayPattern {
	for i, p := range dayPatternCycle {
		if p == current {
			return dayPatternCycle[(i+1)%len(dayPatternCycle)]
		}
	}
	return dayPatternCycle[0]
}

func cycleRepeat(current model.Repeat) model.Repeat {
	for i, r := range repeatCycle {
		if r == current {
			return repeatCycle[(i+1)%len(repeatCycle)]
		}
	}
	return repeatCycle[0]
}

func (m Model) renderSchedulesView() string {
	cards := make([]views.ScheduleCardData, 0, len(m.schedules))
	for i, s := range m.schedules {
		triggers := make([]string, 0, len(s.Devices))
		for _, trigger := range s.Devices {
			when := trigger.Time
			if trigger.TimeRange != "" {
				when = trigger.TimeRange
			}
			triggers = append(triggers, fmt.Sprintf("%s a las %s", model.DeviceName(m.devices, trigger.DeviceID), when))
		}

		upcoming := make([]string, 0, 3)
		for _, u := range model.Upcoming(s, m.devices, m.now(), 0) {
			upcoming = append(upcoming, fmt.Sprintf("%s — %s", u.At.Format("Mon 02 Jan 15:04"), u.DeviceName))
		}

		last := ""
		if s.LastTriggered != nil {
			last = s.LastTriggered.Format("02/01 15:04:05")
		}
		cards = append(cards, views.ScheduleCardData{
			Name:          s.Name,
			Days:          string(s.Days),
			Repeat:        string(s.Repeat),
			Active:        s.Active,
			Selected:      i == m.scheduleCursor,
			Triggers:      triggers,
			Upcoming:      upcoming,
			LastTriggered: last,
		})
	}
	return views.RenderSchedulesPanel(cards)
}

func (m Model) renderScheduleFormIfVisible() string {
	if !m.form.Active {
		return ""
	}
	device := ""
	if len(m.devices) > 0 && m.form.DeviceIdx < len(m.devices) {
		device = m.devices[m.form.DeviceIdx].Name
	}
	mode := "hora"
	if m.form.RangeMode {
		mode = "rango"
	}
	return views.RenderScheduleForm(views.ScheduleFormData{
		Editing:  m.form.EditingID != "",
		NameView: m.form.NameInput.View(),
		TimeView: m.form.TimeInput.View(),
		Mode:     mode,
		Days:     string(m.form.Days),
		Repeat:   string(m.form.Repeat),
		Device:   device,
		Errors:   fieldErrorLines(m.form.Errors),
		Warnings: fieldErrorLines(m.form.Warnings),
	})
}

func fieldErrorLines(errs model.FieldErrors) []string {
	if len(errs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+": "+errs[k])
	}
	return out
}
