package summary

import (
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"gideon/internal/models"
)

var printer = message.NewPrinter(language.BrazilianPortuguese)

var monthNames = [12]string{
	"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
	"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
}

// FormatCurrency renders an amount in Brazilian reais with two decimal
// places and pt-BR digit grouping, e.g. "R$ 1.234,56" or "-R$ 200,00".
func FormatCurrency(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	f, _ := d.Round(2).Float64()
	return sign + "R$ " + printer.Sprint(number.Decimal(f, number.Scale(2)))
}

// FormatDate renders a date as DD/MM/YYYY.
func FormatDate(d models.Date) string {
	return d.Time().Format("02/01/2006")
}

// MonthName returns the Portuguese name of m.
func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return monthNames[m-1]
}
