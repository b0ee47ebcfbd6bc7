// Package summary derives the dashboard views from an in-memory list of
// transactions: monthly totals, expense totals per category, the month
// statement filter and the all-time totals. Every function is pure and
// safe to recompute whenever the list or the selected period changes.
package summary

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"gideon/internal/models"
)

// NoMonth selects no month in InMonth.
const NoMonth time.Month = 0

// MonthTotal holds the income and expense sums of one calendar month.
type MonthTotal struct {
	Month   time.Month
	Income  decimal.Decimal
	Expense decimal.Decimal
}

// Balance is income minus expense.
func (m MonthTotal) Balance() decimal.Decimal {
	return m.Income.Sub(m.Expense)
}

// HasData reports whether anything was recorded in the month.
func (m MonthTotal) HasData() bool {
	return m.Income.IsPositive() || m.Expense.IsPositive()
}

// MarshalJSON includes the derived balance.
func (m MonthTotal) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Month   int             `json:"month"`
		Income  decimal.Decimal `json:"income"`
		Expense decimal.Decimal `json:"expense"`
		Balance decimal.Decimal `json:"balance"`
	}{int(m.Month), m.Income, m.Expense, m.Balance()})
}

// CategoryTotal is the expense sum of one category.
type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
}

// Percent returns the category's share of whole, rounded to an integer
// percentage. A zero whole yields zero.
func (c CategoryTotal) Percent(whole decimal.Decimal) int64 {
	if !whole.IsPositive() {
		return 0
	}
	return c.Total.Mul(decimal.NewFromInt(100)).Div(whole).Round(0).IntPart()
}

// Totals holds income and expense sums over a set of transactions.
type Totals struct {
	Income  decimal.Decimal
	Expense decimal.Decimal
}

// Balance is income minus expense.
func (t Totals) Balance() decimal.Decimal {
	return t.Income.Sub(t.Expense)
}

// MarshalJSON includes the derived balance.
func (t Totals) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Income  decimal.Decimal `json:"income"`
		Expense decimal.Decimal `json:"expense"`
		Balance decimal.Decimal `json:"balance"`
	}{t.Income, t.Expense, t.Balance()})
}

// Monthly partitions the transactions of year into its twelve calendar
// months. Index 0 is January. Months without entries are zero.
func Monthly(txs []models.Transaction, year int) [12]MonthTotal {
	var months [12]MonthTotal
	for i := range months {
		months[i] = MonthTotal{Month: time.Month(i + 1), Income: decimal.Zero, Expense: decimal.Zero}
	}

	for _, t := range txs {
		if t.Date.Year() != year {
			continue
		}
		m := &months[t.Date.Month()-1]
		if t.Kind == models.KindIncome {
			m.Income = m.Income.Add(t.Amount)
		} else {
			m.Expense = m.Expense.Add(t.Amount)
		}
	}
	return months
}

// ByCategory sums the expenses of year per category, largest first.
// Categories with equal totals keep the order in which they first appear.
func ByCategory(txs []models.Transaction, year int) []CategoryTotal {
	index := make(map[string]int)
	totals := []CategoryTotal{}

	for _, t := range txs {
		if t.Kind != models.KindExpense || t.Date.Year() != year {
			continue
		}
		i, ok := index[t.Category]
		if !ok {
			i = len(totals)
			index[t.Category] = i
			totals = append(totals, CategoryTotal{Category: t.Category, Total: decimal.Zero})
		}
		totals[i].Total = totals[i].Total.Add(t.Amount)
	}

	sort.SliceStable(totals, func(a, b int) bool {
		return totals[a].Total.GreaterThan(totals[b].Total)
	})
	return totals
}

// InMonth returns the transactions dated in month of year, preserving
// their order. NoMonth yields an empty result.
func InMonth(txs []models.Transaction, year int, month time.Month) []models.Transaction {
	out := []models.Transaction{}
	if month == NoMonth {
		return out
	}
	for _, t := range txs {
		if t.Date.Year() == year && t.Date.Month() == month {
			out = append(out, t)
		}
	}
	return out
}

// Overall sums every transaction regardless of date.
func Overall(txs []models.Transaction) Totals {
	totals := Totals{Income: decimal.Zero, Expense: decimal.Zero}
	for _, t := range txs {
		if t.Kind == models.KindIncome {
			totals.Income = totals.Income.Add(t.Amount)
		} else {
			totals.Expense = totals.Expense.Add(t.Amount)
		}
	}
	return totals
}

// Years returns the n selectable years ending with the year of now,
// most recent first.
func Years(now time.Time, n int) []int {
	years := make([]int, 0, n)
	for i := 0; i < n; i++ {
		years = append(years, now.Year()-i)
	}
	return years
}

// Report bundles every view of one year.
type Report struct {
	Year       int             `json:"year"`
	Months     [12]MonthTotal  `json:"months"`
	Categories []CategoryTotal `json:"categories"`
	Overall    Totals          `json:"overall"`
}

// Build computes the report of year.
func Build(txs []models.Transaction, year int) Report {
	return Report{
		Year:       year,
		Months:     Monthly(txs, year),
		Categories: ByCategory(txs, year),
		Overall:    Overall(txs),
	}
}

// Empty reports whether the year has no data to chart.
func (r Report) Empty() bool {
	for _, m := range r.Months {
		if m.HasData() {
			return false
		}
	}
	return true
}
