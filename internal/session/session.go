// Package session holds the client's signed-in identity and the route gate
// built on it.
package session

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"gideon/internal/gateway"
	"gideon/internal/logger"
	"gideon/internal/models"
	"gideon/internal/notify"
)

// ErrInvalidCredentials is the sign-in failure shown for a wrong email or password.
var ErrInvalidCredentials = errors.New("Email ou senha incorretos")

// Notification titles.
const (
	titleInvalidInput  = "Dados inválidos"
	titleSignInFailed  = "Erro ao entrar"
	titleSignUpFailed  = "Erro no cadastro"
	titleSignUpSuccess = "Cadastro realizado com sucesso!"
	descSignUpSuccess  = "Verifique seu email para confirmar sua conta."
)

// Authenticator is the part of the gateway the session uses.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (*gateway.Session, error)
	SignUp(ctx context.Context, in gateway.SignUpRequest) (*gateway.SignUpResult, error)
	Refresh(ctx context.Context, refreshToken string) (*gateway.Session, error)
	SignOut(ctx context.Context) error
	SetAccessToken(token string)
}

// Listener is called after the identity changes. user is nil after sign-out.
type Listener func(ctx context.Context, user *models.User)

// Session is the process-wide authentication context.
type Session struct {
	auth     Authenticator
	tokens   TokenStore
	notifier notify.Notifier
	now      func() time.Time

	mu        sync.RWMutex
	user      *models.User
	loading   bool
	listeners []Listener
}

// New creates a Session. It starts in the loading state until Resolve runs.
func New(auth Authenticator, tokens TokenStore, notifier notify.Notifier) *Session {
	return &Session{
		auth:     auth,
		tokens:   tokens,
		notifier: notifier,
		now:      time.Now,
		loading:  true,
	}
}

// User returns the signed-in user, or nil.
func (s *Session) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Loading reports whether the initial identity is still being resolved.
func (s *Session) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Authenticated reports whether a user is signed in.
func (s *Session) Authenticated() bool {
	return s.User() != nil
}

// Subscribe registers fn for identity changes.
func (s *Session) Subscribe(fn Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Resolve restores the persisted session, rotating its refresh token. A
// session the API rejects is discarded. Transport and server failures keep
// the stored tokens so the next run can try again. Listeners always hear the
// outcome, including a signed-out one.
func (s *Session) Resolve(ctx context.Context) error {
	defer s.settle(ctx)

	stored, err := s.tokens.Load()
	if errors.Is(err, ErrNoSession) {
		return nil
	}
	if err != nil {
		return err
	}

	fresh, err := s.auth.Refresh(ctx, stored.RefreshToken)
	if rejected(err) {
		// Another run may have rotated the token after it was read.
		if current, loadErr := s.tokens.Load(); loadErr == nil && current.RefreshToken != stored.RefreshToken {
			fresh, err = s.auth.Refresh(ctx, current.RefreshToken)
		}
	}
	if err != nil {
		if !rejected(err) {
			return err
		}
		logger.Named("session").Infow("Stored session rejected", "error", err)
		return s.tokens.Clear()
	}

	return s.establish(ctx, fresh)
}

// rejected reports whether the API refused the request itself, as opposed to
// failing to answer it.
func rejected(err error) bool {
	var apiErr *gateway.APIError
	return errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError
}

// SignIn validates the form, signs in and persists the session.
func (s *Session) SignIn(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if err := ValidateSignIn(email, password); err != nil {
		s.notifier.Notify(notify.Failure(titleInvalidInput, err.Error()))
		return err
	}

	fresh, err := s.auth.SignIn(ctx, email, password)
	if err != nil {
		if gateway.HasCode(err, gateway.CodeInvalidCredentials) {
			err = ErrInvalidCredentials
		}
		s.notifier.Notify(notify.Failure(titleSignInFailed, err.Error()))
		return err
	}

	return s.establish(ctx, fresh)
}

// SignUp validates the form and registers the user. The returned result
// tells whether the email still has to be confirmed before signing in.
func (s *Session) SignUp(ctx context.Context, form SignUpForm) (*gateway.SignUpResult, error) {
	form.Email = strings.TrimSpace(form.Email)
	form.FullName = strings.TrimSpace(form.FullName)
	if err := ValidateSignUp(form, s.now()); err != nil {
		s.notifier.Notify(notify.Failure(titleInvalidInput, err.Error()))
		return nil, err
	}

	result, err := s.auth.SignUp(ctx, form.SignUpRequest)
	if err != nil {
		s.notifier.Notify(notify.Failure(titleSignUpFailed, err.Error()))
		return nil, err
	}

	if result.ConfirmationRequired {
		s.notifier.Notify(notify.Success(titleSignUpSuccess, descSignUpSuccess))
	} else {
		s.notifier.Notify(notify.Success(titleSignUpSuccess, ""))
	}
	return result, nil
}

// SignOut revokes the refresh token when possible, then forgets the session
// locally regardless of the outcome.
func (s *Session) SignOut(ctx context.Context) error {
	if s.Authenticated() {
		if err := s.auth.SignOut(ctx); err != nil {
			logger.Named("session").Warnw("Failed to revoke session", "error", err)
		}
	}

	s.auth.SetAccessToken("")
	if err := s.tokens.Clear(); err != nil {
		return err
	}
	s.setUser(ctx, nil)
	return nil
}

func (s *Session) establish(ctx context.Context, fresh *gateway.Session) error {
	s.auth.SetAccessToken(fresh.AccessToken)
	if err := s.tokens.Save(fresh); err != nil {
		return err
	}
	logger.Named("session").Debugw("Session established", zap.Time("expires_at", fresh.ExpiresAt))
	s.setUser(ctx, fresh.User)
	return nil
}

// settle ends the loading phase. When it ends signed out, listeners are told
// so even though the identity did not change.
func (s *Session) settle(ctx context.Context) {
	s.mu.Lock()
	s.loading = false
	user := s.user
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	if user != nil {
		return
	}
	for _, fn := range listeners {
		fn(ctx, nil)
	}
}

func (s *Session) setUser(ctx context.Context, user *models.User) {
	s.mu.Lock()
	prev := s.user
	s.user = user
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	if sameUser(prev, user) {
		return
	}
	for _, fn := range listeners {
		fn(ctx, user)
	}
}

func sameUser(a, b *models.User) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ID == b.ID
}
