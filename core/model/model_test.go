package model

import (
	"testing"
	"time"
)

func TestWorkingHours_Contains(t *testing.T) {
	day := WorkingHours{Start: 8 * 60, End: 18 * 60}
	night := WorkingHours{Start: 22 * 60, End: 6 * 60}

	at := func(h, m int) time.Time {
		return time.Date(2026, 3, 14, h, m, 0, 0, time.UTC)
	}

	cases := []struct {
		name string
		w    WorkingHours
		t    time.Time
		want bool
	}{
		{"inside day window", day, at(10, 30), true},
		{"start inclusive", day, at(8, 0), true},
		{"end exclusive", day, at(18, 0), false},
		{"before day window", day, at(7, 59), false},
		{"night before midnight", night, at(23, 15), true},
		{"night after midnight", night, at(2, 0), true},
		{"night daytime gap", night, at(12, 0), false},
		{"night end exclusive", night, at(6, 0), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.w.Contains(tc.t); got != tc.want {
				t.Fatalf("Contains(%v) = %v, want %v", tc.t, got, tc.want)
			}
		})
	}
}

func TestWorkingHours_Validate(t *testing.T) {
	if err := (WorkingHours{Start: 9 * 60, End: 17 * 60}).Validate(); err != nil {
		t.Fatalf("valid window rejected: %v", err)
	}
	if err := (WorkingHours{Start: 9 * 60, End: 9 * 60}).Validate(); err == nil {
		t.Fatal("empty window accepted")
	}
	if err := (WorkingHours{Start: -1, End: 60}).Validate(); err == nil {
		t.Fatal("negative start accepted")
	}
}

func TestAssignmentStatus_Terminal(t *testing.T) {
	terminal := []AssignmentStatus{AssignmentCompleted, AssignmentDeclined, AssignmentCancelled}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	open := []AssignmentStatus{AssignmentPending, AssignmentAccepted, AssignmentInProgress}
	for _, s := range open {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestContractor_AvailableAt(t *testing.T) {
	c := Contractor{
		Active: true,
		Hours:  WorkingHours{Start: 8 * 60, End: 18 * 60},
	}
	noon := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	if !c.AvailableAt(noon) {
		t.Fatal("active contractor inside window should be available")
	}
	c.Active = false
	if c.AvailableAt(noon) {
		t.Fatal("deactivated contractor should never be available")
	}
}

func TestParseTradeType(t *testing.T) {
	got, err := ParseTradeType(" HVAC ")
	if err != nil || got != TradeHVAC {
		t.Fatalf("ParseTradeType(HVAC) = %v, %v", got, err)
	}
	if _, err := ParseTradeType("masonry"); err == nil {
		t.Fatal("unknown trade accepted")
	}
}
