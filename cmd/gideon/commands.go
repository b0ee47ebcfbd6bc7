package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"gideon/internal/gateway"
	"gideon/internal/ledger"
	"gideon/internal/models"
	"gideon/internal/notify"
	"gideon/internal/session"
	"gideon/internal/summary"
)

// yearOptions is how many years the dashboard offers, counting back from now.
const yearOptions = 5

var errSignInRequired = errors.New("faça login primeiro: gideon signin")

var commands = map[string]func(a *app, ctx context.Context, args []string) error{
	"signin":          (*app).signIn,
	"signup":          (*app).signUp,
	"verify":          (*app).verify,
	"forgot-password": (*app).forgotPassword,
	"reset-password":  (*app).resetPassword,
	"signout":         (*app).signOut,
	"dashboard":       (*app).dashboard,
	"add":             (*app).add,
	"edit":            (*app).edit,
	"delete":          (*app).remove,
	"activity":        (*app).activity,
	"whoami":          (*app).whoami,
}

func newFlagSet(name string, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	return fs
}

// enter applies the route gate. A redirect to the dashboard is reported as
// done; a redirect to sign-in fails.
func (a *app) enter(route session.Route) (bool, error) {
	d := a.session.Guard(route)
	switch {
	case d.Outcome == session.Redirect && d.Target == session.RouteSignIn:
		return false, errSignInRequired
	case d.Outcome == session.Redirect:
		fmt.Fprintf(a.out, "Você já está conectado como %s.\n", a.session.User().Email)
		return false, nil
	case d.Outcome == session.Wait:
		fmt.Fprintln(a.out, "Carregando...")
		return false, nil
	}
	return true, nil
}

func (a *app) signIn(ctx context.Context, args []string) error {
	fs := newFlagSet("signin", a.out)
	email := fs.String("email", "", "email")
	password := fs.String("password", "", "password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if ok, err := a.enter(session.RouteSignIn); !ok {
		return err
	}

	var err error
	if *email, err = a.in.ask("Email", *email); err != nil {
		return err
	}
	if *password, err = a.in.ask("Senha", *password); err != nil {
		return err
	}

	if err := a.session.SignIn(ctx, *email, *password); err != nil {
		return errReported
	}
	fmt.Fprintf(a.out, "Bem-vindo, %s!\n", displayName(a.session.User()))
	return nil
}

func (a *app) signUp(ctx context.Context, args []string) error {
	fs := newFlagSet("signup", a.out)
	name := fs.String("name", "", "full name")
	email := fs.String("email", "", "email")
	password := fs.String("password", "", "password")
	confirm := fs.String("confirm", "", "password confirmation")
	birth := fs.String("birth-date", "", "birth date (YYYY-MM-DD)")
	gender := fs.String("gender", "", "gender (optional)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if ok, err := a.enter(session.RouteSignUp); !ok {
		return err
	}

	var err error
	for _, field := range []struct {
		label string
		value *string
	}{
		{"Nome completo", name},
		{"Email", email},
		{"Senha", password},
		{"Confirmar senha", confirm},
		{"Data de nascimento (AAAA-MM-DD)", birth},
	} {
		if *field.value, err = a.in.ask(field.label, *field.value); err != nil {
			return err
		}
	}

	birthDate, err := models.ParseDate(*birth)
	if err != nil {
		a.notifier.Notify(notify.Failure("Dados inválidos", "Data de nascimento inválida"))
		return errReported
	}

	form := session.SignUpForm{
		SignUpRequest: gateway.SignUpRequest{
			Email:     *email,
			Password:  *password,
			FullName:  *name,
			BirthDate: birthDate,
			Gender:    strings.TrimSpace(*gender),
		},
		ConfirmPassword: *confirm,
	}
	result, err := a.session.SignUp(ctx, form)
	if err != nil {
		return errReported
	}
	if result.ConfirmationRequired {
		fmt.Fprintln(a.out, "Use gideon verify -token <token> com o código recebido por email.")
	}
	return nil
}

func (a *app) verify(ctx context.Context, args []string) error {
	fs := newFlagSet("verify", a.out)
	token := fs.String("token", "", "confirmation token")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var err error
	if *token, err = a.in.ask("Código de confirmação", *token); err != nil {
		return err
	}
	if _, err := a.client.Verify(ctx, strings.TrimSpace(*token)); err != nil {
		a.notifier.Notify(notify.Failure("Erro ao confirmar email", err.Error()))
		return errReported
	}
	a.notifier.Notify(notify.Success("Email confirmado", "Faça login para continuar."))
	return nil
}

func (a *app) forgotPassword(ctx context.Context, args []string) error {
	fs := newFlagSet("forgot-password", a.out)
	email := fs.String("email", "", "email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if ok, err := a.enter(session.RouteForgotPassword); !ok {
		return err
	}

	var err error
	if *email, err = a.in.ask("Email", *email); err != nil {
		return err
	}
	if err := a.client.Recover(ctx, strings.TrimSpace(*email)); err != nil {
		a.notifier.Notify(notify.Failure("Erro ao solicitar recuperação", err.Error()))
		return errReported
	}
	a.notifier.Notify(notify.Success("Email enviado",
		"Se o email estiver cadastrado, você receberá as instruções para redefinir sua senha."))
	return nil
}

func (a *app) resetPassword(ctx context.Context, args []string) error {
	fs := newFlagSet("reset-password", a.out)
	token := fs.String("token", "", "recovery token")
	password := fs.String("password", "", "new password")
	confirm := fs.String("confirm", "", "password confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if ok, err := a.enter(session.RouteResetPassword); !ok {
		return err
	}

	var err error
	if *token, err = a.in.ask("Código de recuperação", *token); err != nil {
		return err
	}
	if *password, err = a.in.ask("Nova senha", *password); err != nil {
		return err
	}
	if *confirm, err = a.in.ask("Confirmar senha", *confirm); err != nil {
		return err
	}
	if *password != *confirm {
		a.notifier.Notify(notify.Failure("Dados inválidos", session.ErrPasswordMismatch.Error()))
		return errReported
	}

	if err := a.client.Reset(ctx, strings.TrimSpace(*token), *password); err != nil {
		a.notifier.Notify(notify.Failure("Erro ao redefinir senha", err.Error()))
		return errReported
	}
	a.notifier.Notify(notify.Success("Senha redefinida", "Faça login com sua nova senha."))
	return nil
}

func (a *app) signOut(ctx context.Context, _ []string) error {
	if err := a.session.SignOut(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Sessão encerrada.")
	return nil
}

func (a *app) whoami(ctx context.Context, _ []string) error {
	if ok, err := a.enter(session.RouteDashboard); !ok {
		return err
	}

	u, err := a.client.CurrentUser(ctx)
	if err != nil {
		a.notifier.Notify(notify.Failure("Erro ao carregar perfil", err.Error()))
		return errReported
	}
	renderProfile(a.out, u)
	return nil
}

func (a *app) dashboard(_ context.Context, args []string) error {
	now := a.now()
	fs := newFlagSet("dashboard", a.out)
	year := fs.Int("year", now.Year(), "year to summarize")
	month := fs.Int("month", 0, "month statement to show (1-12, 0 for none)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *year < 1 || *year > 9999 {
		return fmt.Errorf("invalid year %d", *year)
	}
	if *month < 0 || *month > 12 {
		return fmt.Errorf("invalid month %d", *month)
	}
	if ok, err := a.enter(session.RouteDashboard); !ok {
		return err
	}

	return renderDashboard(a.out, dashboard{
		User:         a.session.User(),
		Transactions: a.store.Transactions(),
		Year:         *year,
		Years:        summary.Years(now, yearOptions),
		Month:        time.Month(*month),
	})
}

func (a *app) add(ctx context.Context, args []string) error {
	draft := ledger.NewDraft(a.now())
	for _, t := range a.store.Transactions() {
		a.categories.Add(t.Category)
	}

	fs := newFlagSet("add", a.out)
	kind := fs.String("type", string(draft.Kind), "income or expense")
	fs.StringVar(&draft.Description, "description", "", "description")
	fs.StringVar(&draft.Amount, "amount", "", "amount, e.g. 1234,56")
	fs.StringVar(&draft.Category, "category", draft.Category,
		"category (suggestions: "+strings.Join(a.categories.All(), ", ")+")")
	date := fs.String("date", draft.Date.String(), "date (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if ok, err := a.enter(session.RouteDashboard); !ok {
		return err
	}

	var err error
	if draft.Kind, err = parseKind(*kind); err != nil {
		return err
	}
	if draft.Date, err = models.ParseDate(*date); err != nil {
		return err
	}
	if draft.Description, err = a.in.ask("Descrição", draft.Description); err != nil {
		return err
	}
	if draft.Amount, err = a.in.ask("Valor", draft.Amount); err != nil {
		return err
	}
	if category := strings.TrimSpace(draft.Category); category != "" && !a.categories.Contains(category) {
		fmt.Fprintf(a.out, "Nova categoria: %s\n", category)
	}

	t, err := a.store.Add(ctx, draft)
	if errors.Is(err, ledger.ErrMissingField) || errors.Is(err, ledger.ErrInvalidAmount) {
		a.notifier.Notify(notify.Failure("Dados inválidos", err.Error()))
		return errReported
	}
	if err != nil {
		return storeError(err)
	}
	renderTransaction(a.out, t)
	return nil
}

func (a *app) edit(ctx context.Context, args []string) error {
	fs := newFlagSet("edit", a.out)
	id := fs.String("id", "", "transaction id")
	kind := fs.String("type", "", "income or expense")
	description := fs.String("description", "", "description")
	amount := fs.String("amount", "", "amount")
	category := fs.String("category", "", "category")
	date := fs.String("date", "", "date (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("-id is required")
	}
	if ok, err := a.enter(session.RouteDashboard); !ok {
		return err
	}

	var patch models.TransactionPatch
	var err error
	fs.Visit(func(f *flag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case "type":
			var k models.Kind
			if k, err = parseKind(*kind); err == nil {
				patch.Kind = &k
			}
		case "description":
			patch.Description = description
		case "amount":
			var d decimal.Decimal
			if d, err = ledger.ParseAmount(*amount); err == nil {
				patch.Amount = &d
			}
		case "category":
			patch.Category = category
		case "date":
			var d models.Date
			if d, err = models.ParseDate(*date); err == nil {
				patch.Date = &d
			}
		}
	})
	if err != nil {
		return err
	}
	if patch.IsEmpty() {
		return errors.New("nothing to change")
	}

	t, err := a.store.Update(ctx, *id, patch)
	if err != nil {
		return storeError(err)
	}
	renderTransaction(a.out, t)
	return nil
}

func (a *app) remove(ctx context.Context, args []string) error {
	fs := newFlagSet("delete", a.out)
	id := fs.String("id", "", "transaction id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("-id is required")
	}
	if ok, err := a.enter(session.RouteDashboard); !ok {
		return err
	}

	return storeError(a.store.Remove(ctx, *id))
}

func (a *app) activity(ctx context.Context, args []string) error {
	fs := newFlagSet("activity", a.out)
	page := fs.Int("page", 1, "page number")
	size := fs.Int("size", 20, "entries per page (max 100)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if ok, err := a.enter(session.RouteDashboard); !ok {
		return err
	}

	result, err := a.client.Activity(ctx, *page, *size)
	if err != nil {
		a.notifier.Notify(notify.Failure("Erro ao carregar atividade", err.Error()))
		return errReported
	}
	return renderActivity(a.out, result)
}

func parseKind(s string) (models.Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income", "entrada":
		return models.KindIncome, nil
	case "expense", "saida", "saída":
		return models.KindExpense, nil
	}
	return "", fmt.Errorf("invalid type %q, use income or expense", s)
}

// storeError maps a store failure to the command result. Request failures
// were already notified by the store.
func storeError(err error) error {
	if err == nil || errors.Is(err, ledger.ErrNotAuthenticated) {
		return err
	}
	return errReported
}

func displayName(u *models.User) string {
	if u == nil {
		return ""
	}
	if u.FullName != "" {
		return u.FullName
	}
	return u.Email
}
