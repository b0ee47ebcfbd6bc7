package ledger

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"gideon/internal/models"
)

var (
	// ErrMissingField is returned when a required form field is blank.
	ErrMissingField = errors.New("campo obrigatório")
	// ErrInvalidAmount is returned when the amount cannot be read as money.
	ErrInvalidAmount = errors.New("valor inválido")
)

// DefaultCategory is preselected on a new draft.
const DefaultCategory = "Alimentação"

// Draft is the transaction form as typed by the user.
type Draft struct {
	Kind        models.Kind
	Description string
	Amount      string
	Category    string
	Date        models.Date
}

// NewDraft returns an expense dated today in the default category.
func NewDraft(today time.Time) Draft {
	return Draft{
		Kind:     models.KindExpense,
		Category: DefaultCategory,
		Date:     models.DateOf(today),
	}
}

// Input checks that description and amount were filled in and converts the
// draft into a transaction input.
func (d Draft) Input() (models.TransactionInput, error) {
	description := strings.TrimSpace(d.Description)
	if description == "" {
		return models.TransactionInput{}, fmt.Errorf("descrição: %w", ErrMissingField)
	}
	if strings.TrimSpace(d.Amount) == "" {
		return models.TransactionInput{}, fmt.Errorf("valor: %w", ErrMissingField)
	}

	amount, err := ParseAmount(d.Amount)
	if err != nil {
		return models.TransactionInput{}, err
	}

	kind := d.Kind
	if kind == "" {
		kind = models.KindExpense
	}
	category := strings.TrimSpace(d.Category)
	if category == "" {
		category = DefaultCategory
	}

	return models.TransactionInput{
		Kind:        kind,
		Description: description,
		Amount:      amount,
		Category:    category,
		Date:        d.Date,
	}, nil
}

// ParseAmount reads a non-negative amount written either as "1234.56" or in
// Brazilian notation ("1.234,56"). An optional "R$" prefix is ignored.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "R$"))
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}

	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if amount.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: negativo", ErrInvalidAmount)
	}
	amount = amount.Round(2)
	if amount.GreaterThanOrEqual(models.AmountLimit) {
		return decimal.Zero, fmt.Errorf("%w: muito alto", ErrInvalidAmount)
	}
	return amount, nil
}
