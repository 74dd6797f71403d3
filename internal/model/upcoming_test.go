package model

import (
	"testing"
	"time"
)

var upcomingRegistry = []Device{
	{ID: "luz_1", Name: "Luz Sala"},
	{ID: "enchufe_1", Name: "Enchufe 1"},
}

func TestUpcomingOrdersAndLimitsToThree(t *testing.T) {
	// A Wednesday.
	from := time.Date(2026, 3, 4, 6, 0, 0, 0, time.UTC)
	s := Schedule{
		Name:   "Mañanas",
		Days:   DaysEvery,
		Repeat: RepeatDaily,
		Devices: []DeviceTrigger{
			NewTimeTrigger("enchufe_1", "09:30"),
			NewTimeTrigger("luz_1", "07:00"),
		},
	}
	got := Upcoming(s, upcomingRegistry, from, 7)
	if len(got) != 3 {
		t.Fatalf("expected 3 projected triggers, got %d", len(got))
	}
	if got[0].DeviceName != "Luz Sala" || got[0].At.Format("15:04") != "07:00" {
		t.Fatalf("unexpected first projection: %+v", got[0])
	}
	if got[1].DeviceName != "Enchufe 1" || got[1].At.Format("15:04") != "09:30" {
		t.Fatalf("unexpected second projection: %+v", got[1])
	}
	if !got[2].At.After(got[1].At) {
		t.Fatalf("projections not ascending: %+v", got)
	}
}

func TestUpcomingSkipsNonMatchingDays(t *testing.T) {
	// A Wednesday; the weekend pattern first matches on Saturday.
	from := time.Date(2026, 3, 4, 6, 0, 0, 0, time.UTC)
	s := Schedule{
		Days:    DaysWeekend,
		Devices: []DeviceTrigger{NewRangeTrigger("luz_1", "20:00-22:00")},
	}
	got := Upcoming(s, upcomingRegistry, from, 7)
	if len(got) != 2 {
		t.Fatalf("expected Saturday and Sunday projections, got %d", len(got))
	}
	if got[0].At.Weekday() != time.Saturday || got[0].At.Format("15:04") != "20:00" {
		t.Fatalf("range projection should anchor at window start: %+v", got[0])
	}
}

func TestUpcomingFallsBackToDesconocido(t *testing.T) {
	from := time.Date(2026, 3, 4, 6, 0, 0, 0, time.UTC)
	s := Schedule{
		Days:    DaysEvery,
		Devices: []DeviceTrigger{NewTimeTrigger("borrado", "10:00")},
	}
	got := Upcoming(s, upcomingRegistry, from, 1)
	if len(got) != 1 || got[0].DeviceName != UnknownDeviceName {
		t.Fatalf("expected %q fallback, got %+v", UnknownDeviceName, got)
	}
}
