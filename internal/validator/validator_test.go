package validator

import (
	"testing"
	"time"

	"gideon/internal/models"
)

func TestStrongPassword(t *testing.T) {
	tests := []struct {
		password string
		want     bool
	}{
		{"Password1", true},
		{"password1", false},
		{"Password", false},
		{"12345678", false},
		{"Ünïcode9", true},
	}
	for _, tt := range tests {
		if got := StrongPassword(tt.password); got != tt.want {
			t.Errorf("StrongPassword(%q) = %v, want %v", tt.password, got, tt.want)
		}
	}
}

func TestIsAdult(t *testing.T) {
	today := time.Date(2024, time.June, 15, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		birth models.Date
		want  bool
	}{
		{"exactly_18_today", models.NewDate(2006, time.June, 15), true},
		{"one_day_short", models.NewDate(2006, time.June, 16), false},
		{"well_over", models.NewDate(1980, time.January, 1), true},
		{"zero_date", models.Date{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAdult(tt.birth, today); got != tt.want {
				t.Errorf("IsAdult(%s) = %v, want %v", tt.birth, got, tt.want)
			}
		})
	}
}
