package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "gideon/internal/errors"
	"gideon/internal/models"
	"gideon/internal/validator"
)

const (
	maxFailedLogins  = 5
	lockoutDuration  = 15 * time.Minute
	recoveryValidFor = time.Hour
	minPasswordLen   = 8
)

// userService handles user-related business logic.
type userService struct {
	db          *gorm.DB
	autoConfirm bool
	now         func() time.Time
}

// NewUserService creates a new UserServicer. With autoConfirm set, new
// users can sign in without redeeming a confirmation token.
func NewUserService(db *gorm.DB, autoConfirm bool) UserServicer {
	return &userService{db: db, autoConfirm: autoConfirm, now: time.Now}
}

// newOpaqueToken returns a random URL-safe token and the digest stored in its place.
func newOpaqueToken() (string, string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	token := hex.EncodeToString(buf)
	return token, digest(token), nil
}

func digest(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func checkPassword(password string) error {
	if len(password) < minPasswordLen || !validator.StrongPassword(password) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput,
			"password must have at least 8 characters, one upper-case letter and one number")
	}
	return nil
}

// SignUp registers a new user
func (s *userService) SignUp(in SignUpInput) (*models.User, string, error) {
	email := normalizeEmail(in.Email)
	fullName := strings.TrimSpace(in.FullName)

	if email == "" || in.Password == "" {
		return nil, "", apperrors.WithMessage(apperrors.ErrInvalidInput, "email and password are required")
	}
	if len(fullName) < 3 || len(fullName) > 100 {
		return nil, "", apperrors.WithMessage(apperrors.ErrInvalidInput, "full name must have between 3 and 100 characters")
	}
	if err := checkPassword(in.Password); err != nil {
		return nil, "", err
	}
	if !validator.IsAdult(in.BirthDate, s.now()) {
		return nil, "", apperrors.WithMessage(apperrors.ErrInvalidInput, "you must be at least 18 years old")
	}

	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, "", apperrors.ErrDuplicateEmail
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	birthDate := in.BirthDate
	user := &models.User{
		Email:     email,
		Password:  string(hashedPassword),
		FullName:  fullName,
		BirthDate: &birthDate,
		Gender:    strings.TrimSpace(in.Gender),
	}

	var token string
	if s.autoConfirm {
		now := s.now()
		user.EmailConfirmedAt = &now
	} else {
		var hash string
		token, hash, err = newOpaqueToken()
		if err != nil {
			return nil, "", apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		user.ConfirmationHash = hash
	}

	if err := s.db.Create(user).Error; err != nil {
		return nil, "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return user, token, nil
}

// ConfirmEmail redeems a confirmation token and marks the email verified.
func (s *userService) ConfirmEmail(token string) (*models.User, error) {
	if token == "" {
		return nil, apperrors.ErrInvalidToken
	}

	var user models.User
	if err := s.db.Where("confirmation_hash = ?", digest(token)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidToken
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	now := s.now()
	if err := s.db.Model(&user).Updates(map[string]interface{}{
		"email_confirmed_at": now,
		"confirmation_hash":  "",
	}).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	user.EmailConfirmedAt = &now
	user.ConfirmationHash = ""

	return &user, nil
}

// AttemptLogin verifies credentials, applying the failed-attempt lockout.
// Unknown emails and wrong passwords are indistinguishable to the caller.
func (s *userService) AttemptLogin(email, password string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	now := s.now()
	if user.LockedUntil != nil && now.Before(*user.LockedUntil) {
		return nil, apperrors.ErrAccountLocked
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		updates := map[string]interface{}{"failed_login_attempts": user.FailedLoginAttempts + 1}
		if user.FailedLoginAttempts+1 >= maxFailedLogins {
			updates["locked_until"] = now.Add(lockoutDuration)
			updates["failed_login_attempts"] = 0
		}
		if err := s.db.Model(&user).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil, apperrors.ErrInvalidCredentials
	}

	if !user.Confirmed() {
		return nil, apperrors.ErrEmailNotConfirmed
	}

	if err := s.db.Model(&user).Updates(map[string]interface{}{
		"failed_login_attempts": 0,
		"locked_until":          nil,
		"last_sign_in_at":       now,
	}).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	user.FailedLoginAttempts = 0
	user.LockedUntil = nil
	user.LastSignInAt = &now

	return &user, nil
}

// GetUserByID retrieves a user by ID
func (s *userService) GetUserByID(id string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// StoreRefreshTokenHash replaces the user's current refresh token digest.
// An empty hash revokes the session.
func (s *userService) StoreRefreshTokenHash(userID, tokenHash string) error {
	res := s.db.Model(&models.User{}).Where("id = ?", userID).Update("refresh_token_hash", tokenHash)
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// GetRefreshTokenHash returns the stored refresh token digest.
func (s *userService) GetRefreshTokenHash(userID string) (string, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return "", err
	}
	return user.RefreshTokenHash, nil
}

// RequestRecovery issues a password recovery token for email.
func (s *userService) RequestRecovery(email string) (string, error) {
	var user models.User
	if err := s.db.Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	token, hash, err := newOpaqueToken()
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := s.db.Model(&user).Updates(map[string]interface{}{
		"recovery_hash":    hash,
		"recovery_sent_at": s.now(),
	}).Error; err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return token, nil
}

// ResetPassword sets a new password using a recovery token. It also
// revokes any refresh token and clears the lockout.
func (s *userService) ResetPassword(token, newPassword string) (string, error) {
	if token == "" {
		return "", apperrors.ErrInvalidToken
	}
	if err := checkPassword(newPassword); err != nil {
		return "", err
	}

	var user models.User
	if err := s.db.Where("recovery_hash = ?", digest(token)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperrors.ErrInvalidToken
		}
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if user.RecoverySentAt == nil || s.now().Sub(*user.RecoverySentAt) > recoveryValidFor {
		return "", apperrors.ErrInvalidToken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := s.db.Model(&user).Updates(map[string]interface{}{
		"password":              string(hashedPassword),
		"recovery_hash":         "",
		"recovery_sent_at":      nil,
		"refresh_token_hash":    "",
		"failed_login_attempts": 0,
		"locked_until":          nil,
	}).Error; err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return user.ID, nil
}
