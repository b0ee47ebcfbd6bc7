package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"gideon/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TestPassword is the plain-text password of every fixture user.
const TestPassword = "Password123"

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a confirmed user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a confirmed user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	confirmed := time.Now()
	birth := models.NewDate(1990, time.January, 1)
	user := &models.User{
		Email:            email,
		Password:         string(hash),
		FullName:         "Test User",
		BirthDate:        &birth,
		EmailConfirmedAt: &confirmed,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestTransaction creates a transaction of the given kind and amount
// dated 2024-01-15 in the "Outros" category.
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID string, kind models.Kind, amount string) *models.Transaction {
	t.Helper()
	return CreateTestTransactionOn(t, db, userID, kind, amount, models.NewDate(2024, time.January, 15))
}

// CreateTestTransactionOn creates a transaction on the given date.
func CreateTestTransactionOn(t *testing.T, db *gorm.DB, userID string, kind models.Kind, amount string, date models.Date) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		UserID:      userID,
		Kind:        kind,
		Description: fmt.Sprintf("Test transaction %d", nextID()),
		Amount:      decimal.RequireFromString(amount),
		Category:    "Outros",
		Date:        date,
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}
