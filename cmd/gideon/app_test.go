package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gideon/internal/gateway"
	"gideon/internal/logger"
	"gideon/internal/notify"
	"gideon/internal/session"
)

func init() {
	logger.Init("test")
}

func unauthorized(w http.ResponseWriter, r *http.Request) bool {
	if r.Header.Get("Authorization") == "Bearer access" {
		return false
	}
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":{"code":"UNAUTHORIZED","message":"Authentication required"}}`))
	return true
}

// fakeAPI serves the few endpoints the commands below reach.
func fakeAPI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/auth/token", func(w http.ResponseWriter, r *http.Request) {
		var body struct{ Email, Password string }
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("failed to decode sign-in body: %v", err)
		}
		if body.Password != "Password123" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"code":"INVALID_CREDENTIALS","message":"Invalid login credentials"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"access","refresh_token":"refresh","expires_at":"2030-01-01T00:00:00Z",
			"user":{"id":"u1","email":"ana@example.com","full_name":"Ana Souza"}}`))
	})

	mux.HandleFunc("/api/v1/auth/user", func(w http.ResponseWriter, r *http.Request) {
		if unauthorized(w, r) {
			return
		}
		_, _ = w.Write([]byte(`{"user":{"id":"u1","email":"ana@example.com","full_name":"Ana Souza",
			"birth_date":"1990-05-10"}}`))
	})

	mux.HandleFunc("/api/v1/transactions", func(w http.ResponseWriter, r *http.Request) {
		if unauthorized(w, r) {
			return
		}
		switch r.Method {
		case http.MethodGet:
			_, _ = w.Write([]byte(`{"transactions":[{"id":"t1","user_id":"u1","type":"expense","description":"Mercado",
				"amount":"250.75","category":"Supermercado","date":"2024-03-12"}]}`))
		case http.MethodPost:
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"transaction":{"id":"t2","user_id":"u1","type":"income","description":"Freela",
				"amount":"900","category":"Outros","date":"2024-03-20"}}`))
		}
	})

	return httptest.NewServer(mux)
}

func newTestApp(t *testing.T, srv *httptest.Server, stdin string) (*app, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	client := gateway.NewClient(srv.URL, srv.Client())
	tokens := session.NewFileTokenStore(filepath.Join(t.TempDir(), "session.json"))
	a := wire(client, tokens, notify.NewWriterNotifier(&out), strings.NewReader(stdin), &out)
	a.now = func() time.Time { return time.Date(2024, 3, 25, 10, 0, 0, 0, time.UTC) }
	if err := a.session.Resolve(context.Background()); err != nil {
		t.Fatalf("failed to resolve session: %v", err)
	}
	return a, &out
}

func signedIn(t *testing.T, a *app) {
	t.Helper()
	if err := a.signIn(context.Background(), []string{"-email", "ana@example.com", "-password", "Password123"}); err != nil {
		t.Fatalf("failed to sign in: %v", err)
	}
}

func assertErrorIs(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Errorf("expected %v, got %v", target, err)
	}
}

func TestRun_SignedOutStartIsSettled(t *testing.T) {
	srv := fakeAPI(t)
	defer srv.Close()
	a, _ := newTestApp(t, srv, "")

	if a.session.Loading() {
		t.Error("expected session to stop loading")
	}
	if a.store.Loading() {
		t.Error("expected store to stop loading without a user")
	}
	if n := len(a.store.Transactions()); n != 0 {
		t.Errorf("expected no transactions, got %d", n)
	}
}

func TestRun_DashboardRequiresSignIn(t *testing.T) {
	srv := fakeAPI(t)
	defer srv.Close()
	a, _ := newTestApp(t, srv, "")

	assertErrorIs(t, a.run(context.Background(), []string{"dashboard"}), errSignInRequired)
}

func TestRun_UnknownCommand(t *testing.T) {
	srv := fakeAPI(t)
	defer srv.Close()
	a, out := newTestApp(t, srv, "")

	if err := a.run(context.Background(), []string{"transfer"}); err == nil {
		t.Error("expected an error for an unknown command")
	}
	assertContains(t, out.String(), "usage: gideon")
}

func TestRun_SignInPromptsAndShowsDashboard(t *testing.T) {
	srv := fakeAPI(t)
	defer srv.Close()
	a, out := newTestApp(t, srv, "ana@example.com\nPassword123\n")
	ctx := context.Background()

	if err := a.signIn(ctx, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertContains(t, out.String(), "Bem-vindo, Ana Souza!")

	out.Reset()
	if err := a.dashboard(ctx, []string{"-year", "2024", "-month", "3"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertContains(t, out.String(), "Ano: [2024] 2023 2022 2021 2020", "Extrato de Março", "Mercado", "-R$ 250,75")

	out.Reset()
	if err := a.signIn(ctx, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertContains(t, out.String(), "Você já está conectado como ana@example.com.")
}

func TestRun_SignInWrongPassword(t *testing.T) {
	srv := fakeAPI(t)
	defer srv.Close()
	a, out := newTestApp(t, srv, "")

	err := a.signIn(context.Background(), []string{"-email", "ana@example.com", "-password", "nope123"})
	assertErrorIs(t, err, errReported)
	assertContains(t, out.String(), "! Erro ao entrar: Email ou senha incorretos")
}

func TestRun_Whoami(t *testing.T) {
	srv := fakeAPI(t)
	defer srv.Close()
	a, out := newTestApp(t, srv, "")
	ctx := context.Background()

	assertErrorIs(t, a.whoami(ctx, nil), errSignInRequired)

	signedIn(t, a)
	out.Reset()
	if err := a.whoami(ctx, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertContains(t, out.String(), "Nome:       Ana Souza", "Nascimento: 10/05/1990", "Email não confirmado")
}

func TestRun_Add(t *testing.T) {
	srv := fakeAPI(t)
	defer srv.Close()
	a, out := newTestApp(t, srv, "")
	ctx := context.Background()
	signedIn(t, a)

	t.Run("missing amount is rejected locally", func(t *testing.T) {
		out.Reset()
		err := a.add(ctx, []string{"-description", "Freela", "-amount", " "})
		assertErrorIs(t, err, errReported)
		assertContains(t, out.String(), "Dados inválidos")
	})

	t.Run("stored record goes to the head of the list", func(t *testing.T) {
		out.Reset()
		err := a.add(ctx, []string{"-type", "income", "-description", "Freela", "-amount", "900", "-category", "Outros"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertContains(t, out.String(), "Transação adicionada", "20/03/2024  Freela")
		if strings.Contains(out.String(), "Nova categoria") {
			t.Errorf("expected a default category to be known, got:\n%s", out.String())
		}

		txs := a.store.Transactions()
		if len(txs) != 2 {
			t.Fatalf("expected 2 transactions, got %d", len(txs))
		}
		if txs[0].ID != "t2" {
			t.Errorf("expected t2 first, got %s", txs[0].ID)
		}
	})

	t.Run("category of a loaded transaction is known", func(t *testing.T) {
		out.Reset()
		err := a.add(ctx, []string{"-description", "Feira", "-amount", "40", "-category", "supermercado"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(out.String(), "Nova categoria") {
			t.Errorf("expected no new category, got:\n%s", out.String())
		}
	})

	t.Run("unseen category is announced", func(t *testing.T) {
		out.Reset()
		err := a.add(ctx, []string{"-description", "Passagem", "-amount", "800", "-category", " Viagem "})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertContains(t, out.String(), "Nova categoria: Viagem\n")
	})
}
