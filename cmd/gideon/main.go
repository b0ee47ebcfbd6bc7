// Command gideon is the command-line client of the Gideon Finance API.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gideon/internal/config"
	"gideon/internal/gateway"
	"gideon/internal/ledger"
	"gideon/internal/logger"
	"gideon/internal/models"
	"gideon/internal/notify"
	"gideon/internal/session"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadClient()
	if err != nil {
		logger.Get().Fatalf("Failed to load config: %v", err)
	}

	a := newApp(cfg, os.Stdin, os.Stdout)
	if err := a.run(ctx, os.Args[1:]); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, "erro:", err)
		}
		os.Exit(1)
	}
}

// errReported marks a failure that was already shown as a notification.
var errReported = errors.New("reported")

// app wires the client components for one invocation.
type app struct {
	client     *gateway.Client
	session    *session.Session
	store      *ledger.Store
	categories *ledger.Categories
	notifier   notify.Notifier

	in  *prompter
	out io.Writer
	now func() time.Time
}

func newApp(cfg *config.ClientConfig, in io.Reader, out io.Writer) *app {
	client := gateway.NewClient(cfg.APIURL, &http.Client{Timeout: cfg.HTTPTimeout})
	notifier := notify.Multi{
		notify.NewWriterNotifier(out),
		notify.NewLogNotifier(logger.Named("notify")),
	}
	return wire(client, session.NewFileTokenStore(cfg.SessionFile), notifier, in, out)
}

func wire(client *gateway.Client, tokens session.TokenStore, notifier notify.Notifier, in io.Reader, out io.Writer) *app {
	a := &app{
		client:     client,
		session:    session.New(client, tokens, notifier),
		store:      ledger.New(client, notifier),
		categories: ledger.NewCategories(),
		notifier:   notifier,
		in:         newPrompter(in, out),
		out:        out,
		now:        time.Now,
	}
	a.session.Subscribe(func(ctx context.Context, user *models.User) {
		// Load failures are already reported through the notifier.
		_ = a.store.SetIdentity(ctx, user)
	})
	return a
}

const usage = `usage: gideon <command> [flags]

commands:
  signin            sign in with email and password
  signup            create an account
  verify            confirm an email address with its token
  forgot-password   request a password recovery email
  reset-password    set a new password with a recovery token
  signout           end the session
  dashboard         show totals, the monthly summary and the month statement
  add               record a transaction
  edit              change a transaction
  delete            remove a transaction
  activity          list recent account activity
  whoami            show the signed-in profile`

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(a.out, usage)
		return errors.New("missing command")
	}

	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintln(a.out, usage)
		return fmt.Errorf("unknown command %q", args[0])
	}

	if err := a.session.Resolve(ctx); err != nil {
		logger.Named("session").Warnw("Could not restore session", "error", err)
	}
	return cmd(a, ctx, args[1:])
}
