// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"time"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"gideon/internal/models"
)

// MinimumAge is the youngest age accepted at sign-up.
const MinimumAge = 18

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("transaction_type", validateTransactionType)
		_ = v.RegisterValidation("strong_password", validateStrongPassword)
	}
}

func validateTransactionType(fl validator.FieldLevel) bool {
	return models.Kind(fl.Field().String()).Valid()
}

// validateStrongPassword requires at least one upper-case letter and one digit.
// Length is checked separately with min=/max= tags.
func validateStrongPassword(fl validator.FieldLevel) bool {
	return StrongPassword(fl.Field().String())
}

// StrongPassword reports whether s has an upper-case letter and a digit.
func StrongPassword(s string) bool {
	var upper, digit bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return upper && digit
}

// IsAdult reports whether someone born on birth is at least MinimumAge on today.
func IsAdult(birth models.Date, today time.Time) bool {
	if birth.IsZero() {
		return false
	}
	cutoff := models.DateOf(today.AddDate(-MinimumAge, 0, 0))
	return !birth.After(cutoff)
}
