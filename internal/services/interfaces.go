package services

import (
	"gideon/internal/models"
	"gideon/internal/pagination"
	"gideon/internal/summary"
)

// SignUpInput carries the registration form.
type SignUpInput struct {
	Email     string
	Password  string
	FullName  string
	BirthDate models.Date
	Gender    string
}

// UserServicer defines the contract for account and credential management.
type UserServicer interface {
	// SignUp creates a user. Unless auto-confirm is enabled the user stays
	// pending and the returned confirmation token must be redeemed first.
	SignUp(in SignUpInput) (*models.User, string, error)
	ConfirmEmail(token string) (*models.User, error)
	AttemptLogin(email, password string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	StoreRefreshTokenHash(userID, tokenHash string) error
	GetRefreshTokenHash(userID string) (string, error)
	// RequestRecovery returns a password recovery token, or "" when no
	// user has that email.
	RequestRecovery(email string) (string, error)
	// ResetPassword returns the ID of the user whose password changed.
	ResetPassword(token, newPassword string) (string, error)
}

// TransactionServicer defines the owner-scoped transaction table contract.
type TransactionServicer interface {
	ListTransactions(userID string) ([]models.Transaction, error)
	CreateTransaction(userID string, in models.TransactionInput) (*models.Transaction, error)
	UpdateTransaction(userID, transactionID string, patch models.TransactionPatch) (*models.Transaction, error)
	// DeleteTransaction succeeds whether or not a row matched; the result
	// reports whether one did.
	DeleteTransaction(userID, transactionID string) (bool, error)
	GetSummary(userID string, year int) (*summary.Report, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
	ListActivity(userID string, page pagination.PageRequest) ([]models.AuditLog, int64, error)
}
