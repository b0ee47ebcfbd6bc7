package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"gideon/internal/gateway"
	"gideon/internal/models"
	"gideon/internal/summary"
)

// dashboard is everything the dashboard screen shows.
type dashboard struct {
	User         *models.User
	Transactions []models.Transaction
	Year         int
	Years        []int
	Month        time.Month
}

func renderDashboard(w io.Writer, d dashboard) error {
	name := d.User.FullName
	if name == "" {
		name = d.User.Email
	}
	fmt.Fprintf(w, "Gideon Finance · %s\n\n", name)

	report := summary.Build(d.Transactions, d.Year)
	renderSummaryCards(w, report.Overall)
	fmt.Fprintln(w)
	if len(d.Years) > 0 {
		renderYears(w, d.Years, d.Year)
	}
	if err := renderMonthly(w, report, d.Month); err != nil {
		return err
	}
	fmt.Fprintln(w)
	if err := renderStatement(w, summary.InMonth(d.Transactions, d.Year, d.Month), d.Month); err != nil {
		return err
	}
	fmt.Fprintln(w)
	return renderCategories(w, report.Categories)
}

func renderSummaryCards(w io.Writer, t summary.Totals) {
	fmt.Fprintf(w, "Entradas:    %s\n", summary.FormatCurrency(t.Income))
	fmt.Fprintf(w, "Saídas:      -%s\n", summary.FormatCurrency(t.Expense))
	fmt.Fprintf(w, "Saldo Total: %s\n", summary.FormatCurrency(t.Balance()))
}

func renderYears(w io.Writer, years []int, selected int) {
	labels := make([]string, len(years))
	for i, y := range years {
		labels[i] = strconv.Itoa(y)
		if y == selected {
			labels[i] = "[" + labels[i] + "]"
		}
	}
	fmt.Fprintf(w, "Ano: %s\n", strings.Join(labels, " "))
}

func renderMonthly(w io.Writer, report summary.Report, selected time.Month) error {
	fmt.Fprintf(w, "Resumo por Mês (%d)\n", report.Year)
	if report.Empty() {
		fmt.Fprintf(w, "Sem dados para %d\n", report.Year)
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Mês\tEntradas\tSaídas\tSaldo\t")
	for _, m := range report.Months {
		marker := " "
		if m.Month == selected {
			marker = ">"
		}
		fmt.Fprintf(tw, "%s %s\t%s\t-%s\t%s\t\n",
			marker,
			summary.MonthName(m.Month),
			summary.FormatCurrency(m.Income),
			summary.FormatCurrency(m.Expense),
			summary.FormatCurrency(m.Balance()),
		)
	}
	return tw.Flush()
}

func renderStatement(w io.Writer, txs []models.Transaction, month time.Month) error {
	if month == summary.NoMonth {
		fmt.Fprintln(w, "Selecione um mês no resumo para ver as transações (-month 1-12)")
		return nil
	}

	fmt.Fprintf(w, "Extrato de %s\n", summary.MonthName(month))
	if len(txs) == 0 {
		fmt.Fprintln(w, "Nenhuma transação neste mês")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Descrição\tCategoria\tValor\tData\tID")
	for _, t := range txs {
		amount := summary.FormatCurrency(t.Amount)
		if t.Kind == models.KindExpense {
			amount = "-" + amount
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", t.Description, t.Category, amount, summary.FormatDate(t.Date), t.ID)
	}
	return tw.Flush()
}

func renderCategories(w io.Writer, totals []summary.CategoryTotal) error {
	fmt.Fprintln(w, "Gastos por Categoria")
	if len(totals) == 0 {
		fmt.Fprintln(w, "Sem gastos registrados")
		return nil
	}

	whole := decimal.Zero
	for _, c := range totals {
		whole = whole.Add(c.Total)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, c := range totals {
		fmt.Fprintf(tw, "%s\t%s\t%d%%\n", c.Category, summary.FormatCurrency(c.Total), c.Percent(whole))
	}
	return tw.Flush()
}

func renderProfile(w io.Writer, u *models.User) {
	fmt.Fprintf(w, "Nome:       %s\n", u.FullName)
	fmt.Fprintf(w, "Email:      %s\n", u.Email)
	if u.BirthDate != nil {
		fmt.Fprintf(w, "Nascimento: %s\n", summary.FormatDate(*u.BirthDate))
	}
	if u.Confirmed() {
		fmt.Fprintln(w, "Email confirmado")
	} else {
		fmt.Fprintln(w, "Email não confirmado")
	}
}

func renderTransaction(w io.Writer, t *models.Transaction) {
	amount := summary.FormatCurrency(t.Amount)
	if t.Kind == models.KindExpense {
		amount = "-" + amount
	}
	fmt.Fprintf(w, "%s  %s  %s  %s  (%s)\n", summary.FormatDate(t.Date), t.Description, t.Category, amount, t.ID)
}

var activityLabels = map[string]string{
	"SIGN_UP":            "Cadastro",
	"SIGN_IN":            "Login",
	"SIGN_OUT":           "Logout",
	"PASSWORD_RESET":     "Senha redefinida",
	"CREATE_TRANSACTION": "Transação adicionada",
	"UPDATE_TRANSACTION": "Transação atualizada",
	"DELETE_TRANSACTION": "Transação excluída",
}

func renderActivity(w io.Writer, page *gateway.ActivityPage) error {
	if len(page.Items) == 0 {
		fmt.Fprintln(w, "Nenhuma atividade registrada")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, e := range page.Items {
		label, ok := activityLabels[e.Action]
		if !ok {
			label = e.Action
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.CreatedAt.Local().Format("02/01/2006 15:04"), label, e.IPAddress)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "Página %d de %d (%d registros)\n", page.Page, page.TotalPages, page.TotalItems)
	return nil
}
