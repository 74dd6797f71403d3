package model

import (
	"sort"
	"time"
)

const (
	// DefaultUpcomingHorizonDays is the projection window, today included.
	DefaultUpcomingHorizonDays = 7
	upcomingLimit              = 3
)

// UpcomingTrigger is one projected activation of a schedule, for display.
type UpcomingTrigger struct {
	At         time.Time
	DeviceName string
}

// Upcoming projects the next activations of a schedule over the horizon and
// returns the first three, ordered by time. It is a preview only; the
// executor never consults it.
func Upcoming(s Schedule, registry []Device, from time.Time, horizonDays int) []UpcomingTrigger {
	if horizonDays <= 0 {
		horizonDays = DefaultUpcomingHorizonDays
	}
	out := make([]UpcomingTrigger, 0, len(s.Devices))
	for offset := 0; offset < horizonDays; offset++ {
		day := from.AddDate(0, 0, offset)
		if !s.Days.Matches(day.Weekday()) {
			continue
		}
		for _, trigger := range s.Devices {
			clock, ok := trigger.ReferenceClock()
			if !ok {
				continue
			}
			minutes, err := ClockMinutes(clock)
			if err != nil {
				continue
			}
			at := time.Date(day.Year(), day.Month(), day.Day(), minutes/60, minutes%60, 0, 0, from.Location())
			out = append(out, UpcomingTrigger{At: at, DeviceName: DeviceName(registry, trigger.DeviceID)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	if len(out) > upcomingLimit {
		out = out[:upcomingLimit]
	}
	return out
}
