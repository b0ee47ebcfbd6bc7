package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "gideon/internal/errors"
	"gideon/internal/models"
	"gideon/internal/services"
)

// TransactionHandler handles transaction-related requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
	auditService       services.AuditServicer
	now                func() time.Time
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer, auditService services.AuditServicer) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService, auditService: auditService, now: time.Now}
}

// CreateTransactionRequest represents the request payload for creating a transaction
type CreateTransactionRequest struct {
	Type        models.Kind      `json:"type" binding:"required,transaction_type"`
	Description string           `json:"description" binding:"required,max=500"`
	Amount      *decimal.Decimal `json:"amount" swaggertype:"string" example:"150.75"`
	Category    string           `json:"category" binding:"required,max=100"`
	Date        string           `json:"date" binding:"required" example:"2024-03-05"`
}

// TransactionResponse wraps a single transaction.
type TransactionResponse struct {
	Transaction *models.Transaction `json:"transaction"`
}

// TransactionListResponse wraps the owner's transactions.
type TransactionListResponse struct {
	Transactions []models.Transaction `json:"transactions"`
}

// ListTransactions returns all of the caller's transactions
// @Summary     List transactions
// @Description Get every transaction of the authenticated user, newest date first
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} TransactionListResponse "Transactions"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [get]
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactions, err := h.transactionService.ListTransactions(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, TransactionListResponse{Transactions: transactions})
}

// CreateTransaction handles the creation of a new transaction
// @Summary     Create a transaction
// @Description Record a new income or expense
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateTransactionRequest true "Transaction details"
// @Success     201 {object} TransactionResponse "Transaction created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	if req.Amount == nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount is required"))
		return
	}
	date, err := models.ParseDate(req.Date)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "date must be YYYY-MM-DD"))
		return
	}

	transaction, err := h.transactionService.CreateTransaction(userID, models.TransactionInput{
		Kind:        req.Type,
		Description: req.Description,
		Amount:      *req.Amount,
		Category:    req.Category,
		Date:        date,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditCreateTransaction, services.ResourceTransaction, transaction.ID, c.ClientIP(),
		map[string]interface{}{"type": transaction.Kind, "amount": transaction.Amount.StringFixed(2), "category": transaction.Category})

	c.JSON(http.StatusCreated, TransactionResponse{Transaction: transaction})
}

// UpdateTransaction applies a partial update
// @Summary     Update a transaction
// @Description Change any subset of a transaction's fields
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                  true "Transaction ID"
// @Param       request body models.TransactionPatch true "Fields to change"
// @Success     200 {object} TransactionResponse "Transaction updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [patch]
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var patch models.TransactionPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	transaction, err := h.transactionService.UpdateTransaction(userID, transactionID, patch)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditUpdateTransaction, services.ResourceTransaction, transaction.ID, c.ClientIP(),
		patchChanges(patch))

	c.JSON(http.StatusOK, TransactionResponse{Transaction: transaction})
}

func patchChanges(p models.TransactionPatch) map[string]interface{} {
	changes := map[string]interface{}{}
	if p.Kind != nil {
		changes["type"] = *p.Kind
	}
	if p.Description != nil {
		changes["description"] = *p.Description
	}
	if p.Amount != nil {
		changes["amount"] = p.Amount.StringFixed(2)
	}
	if p.Category != nil {
		changes["category"] = *p.Category
	}
	if p.Date != nil {
		changes["date"] = p.Date.String()
	}
	return changes
}

// DeleteTransaction handles deleting a transaction
// @Summary     Delete a transaction
// @Description Delete a transaction owned by the caller. Succeeds even if nothing matched.
// @Tags        transactions
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     204 "Deleted"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	deleted, err := h.transactionService.DeleteTransaction(userID, transactionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if deleted {
		h.auditService.Log(userID, services.AuditDeleteTransaction, services.ResourceTransaction, transactionID, c.ClientIP(), nil)
	}
	c.Status(http.StatusNoContent)
}

// GetSummary returns the dashboard aggregates for one year
// @Summary     Yearly summary
// @Description Monthly income/expense, expense categories and all-time totals
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       year query int false "Calendar year (defaults to the current year)"
// @Success     200 {object} summary.Report "Summary"
// @Failure     400 {object} ErrorResponse "Invalid year"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/summary [get]
func (h *TransactionHandler) GetSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	year := h.now().Year()
	if raw := c.Query("year"); raw != "" {
		year, err = strconv.Atoi(raw)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "year must be a number"))
			return
		}
	}

	report, err := h.transactionService.GetSummary(userID, year)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}
