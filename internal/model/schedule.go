package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidDayPattern = errors.New("model: invalid day pattern")
	ErrInvalidRepeat     = errors.New("model: invalid repeat mode")
	ErrInvalidClock      = errors.New("model: invalid HH:MM value")
	ErrInvalidClockRange = errors.New("model: invalid HH:MM-HH:MM range")
)

const clockLayout = "15:04"

// DayPattern is the recurrence day set of a schedule. The string values are
// the persisted document values.
type DayPattern string

const (
	DaysEvery    DayPattern = "Cada día"
	DaysWeekdays DayPattern = "Lunes - Viernes"
	DaysWeekend  DayPattern = "Sábado - Domingo"
)

func (d DayPattern) IsValid() bool {
	switch d {
	case DaysEvery, DaysWeekdays, DaysWeekend:
		return true
	default:
		return false
	}
}

// Matches reports whether the given weekday belongs to the pattern.
// time.Weekday numbering (0=Sunday..6=Saturday) is the contract here.
func (d DayPattern) Matches(w time.Weekday) bool {
	switch d {
	case DaysEvery:
		return true
	case DaysWeekdays:
		return w >= time.Monday && w <= time.Friday
	case DaysWeekend:
		return w == time.Sunday || w == time.Saturday
	default:
		return false
	}
}

// Repeat is advisory cadence metadata. Only RepeatOnce affects execution:
// a schedule that has fired once is deactivated by the executor.
type Repeat string

const (
	RepeatOnce   Repeat = "once"
	RepeatHourly Repeat = "hourly"
	RepeatDaily  Repeat = "daily"
)

func (r Repeat) IsValid() bool {
	switch r {
	case RepeatOnce, RepeatHourly, RepeatDaily:
		return true
	default:
		return false
	}
}

// DeviceTrigger pairs a device with either a single activation time or an
// activation window. Exactly one of Time and TimeRange is set; the SetTime
// and SetTimeRange mutators keep that exclusion.
type DeviceTrigger struct {
	DeviceID  string `json:"deviceId"`
	Time      string `json:"time,omitempty"`      // "HH:MM"
	TimeRange string `json:"timeRange,omitempty"` // "HH:MM-HH:MM"
}

func NewTimeTrigger(deviceID, clock string) DeviceTrigger {
	return DeviceTrigger{DeviceID: deviceID, Time: clock}
}

func NewRangeTrigger(deviceID, timeRange string) DeviceTrigger {
	return DeviceTrigger{DeviceID: deviceID, TimeRange: timeRange}
}

func (t *DeviceTrigger) SetTime(clock string) {
	t.Time = clock
	t.TimeRange = ""
}

func (t *DeviceTrigger) SetTimeRange(timeRange string) {
	t.TimeRange = timeRange
	t.Time = ""
}

// Matches reports whether the trigger fires at the given minute-truncated
// "HH:MM" clock value. Range bounds are inclusive; lexicographic comparison
// is valid because both sides are zero-padded 24h clocks.
func (t DeviceTrigger) Matches(current string) bool {
	if t.Time != "" {
		return t.Time == current
	}
	if t.TimeRange != "" {
		start, end, err := SplitClockRange(t.TimeRange)
		if err != nil {
			return false
		}
		return start <= current && current <= end
	}
	return false
}

// ReferenceClock is the single time the trigger is anchored at: the exact
// time, or the start of the window.
func (t DeviceTrigger) ReferenceClock() (string, bool) {
	if t.Time != "" {
		return t.Time, true
	}
	if t.TimeRange != "" {
		start, _, err := SplitClockRange(t.TimeRange)
		if err != nil {
			return "", false
		}
		return start, true
	}
	return "", false
}

func ValidateClock(v string) error {
	if _, err := time.Parse(clockLayout, v); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidClock, v)
	}
	return nil
}

func SplitClockRange(v string) (start, end string, err error) {
	start, end, ok := strings.Cut(v, "-")
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidClockRange, v)
	}
	if ValidateClock(start) != nil || ValidateClock(end) != nil {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidClockRange, v)
	}
	return start, end, nil
}

// ClockMinutes converts "HH:MM" to minutes since midnight.
func ClockMinutes(v string) (int, error) {
	parsed, err := time.Parse(clockLayout, v)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, v)
	}
	return parsed.Hour()*60 + parsed.Minute(), nil
}

// Schedule is a named recurring trigger definition owned by one principal.
type Schedule struct {
	ID            string          `json:"id"`
	Owner         string          `json:"owner"`
	Name          string          `json:"name"`
	Days          DayPattern      `json:"days"`
	Active        bool            `json:"active"`
	Repeat        Repeat          `json:"repeat"`
	Devices       []DeviceTrigger `json:"devices"`
	LastTriggered *time.Time      `json:"lastTriggered,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

func NewScheduleID(now time.Time) string {
	return fmt.Sprintf("schedule-%d", now.UnixMilli())
}

// ValidateSchedule checks a draft before it may be persisted. Errors block
// the save; warnings (currently only unresolved device references) do not.
func ValidateSchedule(s Schedule, registry []Device) (errs, warns FieldErrors) {
	errs = make(FieldErrors)
	warns = make(FieldErrors)

	if strings.TrimSpace(s.Name) == "" {
		errs.add("name", "el nombre es obligatorio")
	}
	if !s.Days.IsValid() {
		errs.add("days", fmt.Sprintf("patrón de días no válido: %q", s.Days))
	}
	if !s.Repeat.IsValid() {
		errs.add("repeat", fmt.Sprintf("repetición no válida: %q", s.Repeat))
	}
	if len(s.Devices) == 0 {
		errs.add("devices", "añade al menos un dispositivo")
		return errs, warns
	}
	for i, trigger := range s.Devices {
		field := fmt.Sprintf("devices[%d]", i)
		if strings.TrimSpace(trigger.DeviceID) == "" {
			errs.add(field, "selecciona un dispositivo")
			continue
		}
		switch {
		case trigger.Time == "" && trigger.TimeRange == "":
			errs.add(field, "indica una hora o un rango de horas")
		case trigger.Time != "" && trigger.TimeRange != "":
			errs.add(field, "hora y rango son excluyentes")
		case trigger.Time != "":
			if err := ValidateClock(trigger.Time); err != nil {
				errs.add(field, fmt.Sprintf("hora no válida: %q", trigger.Time))
			}
		default:
			if _, _, err := SplitClockRange(trigger.TimeRange); err != nil {
				errs.add(field, fmt.Sprintf("rango no válido: %q", trigger.TimeRange))
			}
		}
		if _, found := FindDevice(registry, trigger.DeviceID); !found && trigger.DeviceID != "" {
			warns.add(field, fmt.Sprintf("dispositivo desconocido: %q", trigger.DeviceID))
		}
	}
	return errs, warns
}
