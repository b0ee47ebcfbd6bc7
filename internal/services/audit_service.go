package services

import (
	"encoding/json"

	"gorm.io/gorm"

	apperrors "gideon/internal/errors"
	"gideon/internal/logger"
	"gideon/internal/models"
	"gideon/internal/pagination"
)

// Audited actions.
const (
	AuditSignUp            = "SIGN_UP"
	AuditSignIn            = "SIGN_IN"
	AuditSignOut           = "SIGN_OUT"
	AuditPasswordReset     = "PASSWORD_RESET"
	AuditCreateTransaction = "CREATE_TRANSACTION"
	AuditUpdateTransaction = "UPDATE_TRANSACTION"
	AuditDeleteTransaction = "DELETE_TRANSACTION"
	ResourceUser           = "user"
	ResourceTransaction    = "transaction"
)

// auditService handles audit log recording.
type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Log records an audit event. Errors are logged but never propagate
// to avoid disrupting the main operation.
func (s *auditService) Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{}) {
	var changesJSON string
	if changes != nil {
		data, err := json.Marshal(changes)
		if err != nil {
			logger.Get().Errorw("failed to marshal audit log changes", "error", err, "action", action)
			changesJSON = "{}"
		} else {
			changesJSON = string(data)
		}
	}

	entry := &models.AuditLog{
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    ipAddress,
		Changes:      changesJSON,
	}

	if err := s.db.Create(entry).Error; err != nil {
		logger.Get().Errorw("failed to create audit log entry",
			"error", err,
			"user_id", userID,
			"action", action,
			"resource_type", resourceType,
			"resource_id", resourceID,
		)
	}
}

// ListActivity returns one page of the user's audit trail, newest first,
// together with the total number of entries.
func (s *auditService) ListActivity(userID string, page pagination.PageRequest) ([]models.AuditLog, int64, error) {
	page.Defaults()

	var total int64
	query := s.db.Model(&models.AuditLog{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	entries := []models.AuditLog{}
	if err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Scopes(pagination.Paginate(page)).
		Find(&entries).Error; err != nil {
		return nil, 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return entries, total, nil
}
