package summary

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"gideon/internal/models"
)

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "R$ 0,00"},
		{"699.5", "R$ 699,50"},
		{"1234.56", "R$ 1.234,56"},
		{"1000000", "R$ 1.000.000,00"},
		{"-200", "-R$ 200,00"},
	}
	for _, tt := range tests {
		if got := FormatCurrency(decimal.RequireFromString(tt.in)); got != tt.want {
			t.Errorf("FormatCurrency(%s): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestFormatDate(t *testing.T) {
	if got := FormatDate(models.NewDate(2024, time.February, 5)); got != "05/02/2024" {
		t.Errorf("expected 05/02/2024, got %q", got)
	}
}

func TestMonthName(t *testing.T) {
	names := map[time.Month]string{time.January: "Janeiro", time.March: "Março", NoMonth: ""}
	for m, want := range names {
		if got := MonthName(m); got != want {
			t.Errorf("MonthName(%d): expected %q, got %q", m, want, got)
		}
	}
}
