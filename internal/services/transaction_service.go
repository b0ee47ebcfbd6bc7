package services

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "gideon/internal/errors"
	"gideon/internal/models"
	"gideon/internal/summary"
)

// transactionService handles transaction-related business logic.
type transactionService struct {
	db *gorm.DB
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB) TransactionServicer {
	return &transactionService{db: db}
}

func validateKind(k models.Kind) error {
	if !k.Valid() {
		return apperrors.ErrInvalidTransactionType
	}
	return nil
}

// checkAmount rounds a to cents and rejects values the amount column cannot hold.
func checkAmount(a decimal.Decimal) (decimal.Decimal, error) {
	if a.IsNegative() {
		return decimal.Zero, apperrors.ErrNegativeAmount
	}
	a = a.Round(2)
	if a.GreaterThanOrEqual(models.AmountLimit) {
		return decimal.Zero, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be less than "+models.AmountLimit.String())
	}
	return a, nil
}

func requireText(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, field+" is required")
	}
	return value, nil
}

// ListTransactions returns every transaction owned by userID, newest date first.
// Ties on date keep the most recently created row first.
func (s *transactionService) ListTransactions(userID string) ([]models.Transaction, error) {
	transactions := []models.Transaction{}
	if err := s.db.Where("user_id = ?", userID).
		Order("date DESC").
		Order("created_at DESC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return transactions, nil
}

// CreateTransaction inserts a new transaction for userID.
func (s *transactionService) CreateTransaction(userID string, in models.TransactionInput) (*models.Transaction, error) {
	if err := validateKind(in.Kind); err != nil {
		return nil, err
	}
	amount, err := checkAmount(in.Amount)
	if err != nil {
		return nil, err
	}
	if in.Date.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "date is required")
	}
	description, err := requireText("description", in.Description)
	if err != nil {
		return nil, err
	}
	category, err := requireText("category", in.Category)
	if err != nil {
		return nil, err
	}

	tx := &models.Transaction{
		UserID:      userID,
		Kind:        in.Kind,
		Description: description,
		Amount:      amount,
		Category:    category,
		Date:        in.Date,
	}
	if err := s.db.Create(tx).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return tx, nil
}

func (s *transactionService) getTransaction(userID, transactionID string) (*models.Transaction, error) {
	var tx models.Transaction
	if err := s.db.Where("id = ? AND user_id = ?", transactionID, userID).First(&tx).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &tx, nil
}

// UpdateTransaction applies patch to a transaction owned by userID.
func (s *transactionService) UpdateTransaction(userID, transactionID string, patch models.TransactionPatch) (*models.Transaction, error) {
	if patch.IsEmpty() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "no fields to update")
	}

	tx, err := s.getTransaction(userID, transactionID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if patch.Kind != nil {
		if err := validateKind(*patch.Kind); err != nil {
			return nil, err
		}
		tx.Kind = *patch.Kind
		updates["type"] = tx.Kind
	}
	if patch.Description != nil {
		if tx.Description, err = requireText("description", *patch.Description); err != nil {
			return nil, err
		}
		updates["description"] = tx.Description
	}
	if patch.Amount != nil {
		if tx.Amount, err = checkAmount(*patch.Amount); err != nil {
			return nil, err
		}
		updates["amount"] = tx.Amount
	}
	if patch.Category != nil {
		if tx.Category, err = requireText("category", *patch.Category); err != nil {
			return nil, err
		}
		updates["category"] = tx.Category
	}
	if patch.Date != nil {
		if patch.Date.IsZero() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "date is required")
		}
		tx.Date = *patch.Date
		updates["date"] = tx.Date
	}

	if err := s.db.Model(tx).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return tx, nil
}

// DeleteTransaction removes a transaction owned by userID.
func (s *transactionService) DeleteTransaction(userID, transactionID string) (bool, error) {
	res := s.db.Where("id = ? AND user_id = ?", transactionID, userID).Delete(&models.Transaction{})
	if res.Error != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// GetSummary builds the yearly dashboard report from the user's transactions.
func (s *transactionService) GetSummary(userID string, year int) (*summary.Report, error) {
	if year < 1 || year > 9999 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "year out of range")
	}
	transactions, err := s.ListTransactions(userID)
	if err != nil {
		return nil, err
	}
	report := summary.Build(transactions, year)
	return &report, nil
}
