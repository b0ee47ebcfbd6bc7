package models

import "github.com/shopspring/decimal"

// Kind is the direction of a transaction.
type Kind string

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

// Valid reports whether k is one of the supported kinds.
func (k Kind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

// AmountLimit is the exclusive upper bound of a stored amount, the first
// value that no longer fits numeric(14,2).
var AmountLimit = decimal.New(1, 12)

// Transaction is a single income or expense entry owned by one user.
type Transaction struct {
	Base
	UserID      string          `gorm:"type:uuid;not null;index" json:"user_id"`
	Kind        Kind            `gorm:"column:type;not null" json:"type"`
	Description string          `gorm:"not null" json:"description"`
	Amount      decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	Category    string          `gorm:"not null" json:"category"`
	Date        Date            `gorm:"type:date;not null;index" json:"date"`
}

// TransactionInput carries the user-editable fields of a new transaction.
type TransactionInput struct {
	Kind        Kind            `json:"type"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Date        Date            `json:"date"`
}

// TransactionPatch carries a partial update; nil fields are left unchanged.
type TransactionPatch struct {
	Kind        *Kind            `json:"type,omitempty"`
	Description *string          `json:"description,omitempty"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Category    *string          `json:"category,omitempty"`
	Date        *Date            `json:"date,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p TransactionPatch) IsEmpty() bool {
	return p.Kind == nil && p.Description == nil && p.Amount == nil && p.Category == nil && p.Date == nil
}
