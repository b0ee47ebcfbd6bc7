package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "gideon/internal/errors"
	"gideon/internal/models"
	"gideon/internal/pagination"
	"gideon/internal/services"
)

// ActivityHandler serves the caller's audit trail.
type ActivityHandler struct {
	auditService services.AuditServicer
}

// NewActivityHandler creates a new ActivityHandler.
func NewActivityHandler(auditService services.AuditServicer) *ActivityHandler {
	return &ActivityHandler{auditService: auditService}
}

// ActivityPage is one page of audit entries.
type ActivityPage = pagination.Page[models.AuditLog]

// ListActivity returns the caller's recent account activity
// @Summary     List account activity
// @Description Sign-ins, sign-outs and transaction changes of the authenticated user, newest first
// @Tags        activity
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number" minimum(1)
// @Param       page_size query int false "Items per page" minimum(1) maximum(100)
// @Success     200 {object} ActivityPage "Activity page"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /activity [get]
func (h *ActivityHandler) ListActivity(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	page.Defaults()

	entries, total, err := h.auditService.ListActivity(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, pagination.NewPage(entries, page, total))
}
