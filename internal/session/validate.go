package session

import (
	"errors"
	"net/mail"
	"strings"
	"time"

	"gideon/internal/gateway"
	"gideon/internal/validator"
)

// Form validation errors, worded for the user.
var (
	ErrInvalidEmail        = errors.New("Email inválido")
	ErrShortPassword       = errors.New("A senha deve ter pelo menos 6 caracteres")
	ErrSignUpPasswordShort = errors.New("A senha deve ter no mínimo 8 caracteres")
	ErrPasswordNoUpper     = errors.New("A senha deve conter pelo menos uma letra maiúscula")
	ErrPasswordNoDigit     = errors.New("A senha deve conter pelo menos um número")
	ErrPasswordMismatch    = errors.New("As senhas não coincidem")
	ErrNameTooShort        = errors.New("O nome deve ter no mínimo 3 caracteres")
	ErrNameTooLong         = errors.New("O nome deve ter no máximo 100 caracteres")
	ErrUnderage            = errors.New("Você deve ser maior de 18 anos")
)

// SignUpForm is the registration form, including the password confirmation
// that never leaves the client.
type SignUpForm struct {
	gateway.SignUpRequest
	ConfirmPassword string
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidEmail
	}
	return nil
}

// ValidateSignIn checks the sign-in form.
func ValidateSignIn(email, password string) error {
	if err := validateEmail(strings.TrimSpace(email)); err != nil {
		return err
	}
	if len([]rune(password)) < 6 {
		return ErrShortPassword
	}
	return nil
}

// ValidateSignUp checks the registration form as of today. The first
// failing rule is returned.
func ValidateSignUp(f SignUpForm, today time.Time) error {
	name := []rune(strings.TrimSpace(f.FullName))
	switch {
	case len(name) < 3:
		return ErrNameTooShort
	case len(name) > 100:
		return ErrNameTooLong
	}
	if err := validateEmail(strings.TrimSpace(f.Email)); err != nil {
		return err
	}
	if len([]rune(f.Password)) < 8 {
		return ErrSignUpPasswordShort
	}
	if !strings.ContainsAny(f.Password, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		return ErrPasswordNoUpper
	}
	if !strings.ContainsAny(f.Password, "0123456789") {
		return ErrPasswordNoDigit
	}
	if f.Password != f.ConfirmPassword {
		return ErrPasswordMismatch
	}
	if !validator.IsAdult(f.BirthDate, today) {
		return ErrUnderage
	}
	return nil
}
