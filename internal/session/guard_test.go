package session

import (
	"context"
	"testing"

	"gideon/internal/gateway"
)

func assertDecision(t *testing.T, s *Session, route Route, want Decision) {
	t.Helper()
	if got := s.Guard(route); got != want {
		t.Errorf("Guard(%q): expected %+v, got %+v", route, want, got)
	}
}

func TestGuard(t *testing.T) {
	t.Run("loading waits on protected route", func(t *testing.T) {
		s, _ := newTestSession(&fakeAuth{}, &memTokens{})
		assertDecision(t, s, RouteDashboard, Decision{Outcome: Wait, Target: RouteDashboard})
		assertDecision(t, s, RouteSignIn, Decision{Outcome: Render, Target: RouteSignIn})
	})

	t.Run("signed out", func(t *testing.T) {
		s, _ := newTestSession(&fakeAuth{}, &memTokens{})
		if err := s.Resolve(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		assertDecision(t, s, RouteDashboard, Decision{Outcome: Redirect, Target: RouteSignIn})
		for _, r := range []Route{RouteSignIn, RouteSignUp, RouteForgotPassword, RouteResetPassword} {
			assertDecision(t, s, r, Decision{Outcome: Render, Target: r})
		}
		assertDecision(t, s, Route("missing"), Decision{Outcome: Render, Target: RouteNotFound})
	})

	t.Run("signed in", func(t *testing.T) {
		auth := &fakeAuth{signInFn: func(string, string) (*gateway.Session, error) {
			return sessionFor(alice, "access", "refresh"), nil
		}}
		s, _ := newTestSession(auth, &memTokens{})
		if err := s.Resolve(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := s.SignIn(context.Background(), "alice@example.com", "secret1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		assertDecision(t, s, RouteDashboard, Decision{Outcome: Render, Target: RouteDashboard})
		assertDecision(t, s, RouteSignIn, Decision{Outcome: Redirect, Target: RouteDashboard})
		assertDecision(t, s, RouteSignUp, Decision{Outcome: Redirect, Target: RouteDashboard})
		assertDecision(t, s, RouteResetPassword, Decision{Outcome: Render, Target: RouteResetPassword})
	})
}
