package models

import (
	"testing"
	"time"
)

func TestPlanDayDate(t *testing.T) {
	// 2026-10-12 is a Monday.
	plan := Plan{WeekStart: time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)}

	if days := plan.WeekDays(); len(days) != 7 {
		t.Fatalf("WeekDays returned %d days; want 7", len(days))
	}

	tests := []struct {
		label    string
		expected string
		ok       bool
	}{
		{"monday", "2026-10-12", true},
		{"Wednesday", "2026-10-14", true},
		{" SUNDAY ", "2026-10-18", true},
		{"lundi", "", false},
	}
	for _, tt := range tests {
		d, ok := plan.DayDate(tt.label)
		if ok != tt.ok {
			t.Errorf("DayDate(%q) ok = %v; want %v", tt.label, ok, tt.ok)
			continue
		}
		if ok && d.Format("2006-01-02") != tt.expected {
			t.Errorf("DayDate(%q) = %s; want %s", tt.label, d.Format("2006-01-02"), tt.expected)
		}
	}
}

func TestRoleCanWrite(t *testing.T) {
	tests := []struct {
		role     Role
		expected bool
	}{
		{RoleOwner, true},
		{RoleContributor, true},
		{RoleViewer, false},
		{Role("ADMIN"), false},
	}
	for _, tt := range tests {
		if got := tt.role.CanWrite(); got != tt.expected {
			t.Errorf("%s.CanWrite() = %v; want %v", tt.role, got, tt.expected)
		}
	}
	if Role("ADMIN").Valid() {
		t.Error("unknown role reported valid")
	}
}
