package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "gideon/internal/errors"
	"gideon/internal/middleware"
	"gideon/internal/models"
	"gideon/internal/services"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	userService  services.UserServicer
	auditService services.AuditServicer
	tokens       *middleware.TokenManager
	mailer       services.Mailer
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(
	userService services.UserServicer,
	auditService services.AuditServicer,
	tokens *middleware.TokenManager,
	mailer services.Mailer,
) *AuthHandler {
	return &AuthHandler{
		userService:  userService,
		auditService: auditService,
		tokens:       tokens,
		mailer:       mailer,
	}
}

// SignUpRequest represents the registration request payload
type SignUpRequest struct {
	Email     string `json:"email" binding:"required,email,max=255"`
	Password  string `json:"password" binding:"required,min=8,max=128,strong_password"`
	FullName  string `json:"full_name" binding:"required,min=3,max=100"`
	BirthDate string `json:"birth_date" binding:"required"`
	Gender    string `json:"gender" binding:"max=50"`
}

// SignInRequest represents the sign-in request payload
type SignInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// RefreshRequest carries the refresh token to rotate.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// VerifyRequest carries an email confirmation token.
type VerifyRequest struct {
	Token string `json:"token" binding:"required"`
}

// RecoverRequest asks for a password recovery token.
type RecoverRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetRequest sets a new password with a recovery token.
type ResetRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=8,max=128,strong_password"`
}

// SignUpResponse reports the created user and whether it must be confirmed.
type SignUpResponse struct {
	User                 *models.User `json:"user"`
	ConfirmationRequired bool         `json:"confirmation_required"`
}

// SessionResponse is returned by sign-in and refresh.
type SessionResponse struct {
	middleware.TokenPair
	User *models.User `json:"user"`
}

// UserResponse wraps the current identity.
type UserResponse struct {
	User *models.User `json:"user"`
}

// SignUp handles user registration
// @Summary     Register a new user
// @Description Register a new user. Unless auto-confirm is on, the account stays pending until the emailed token is verified.
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body SignUpRequest true "User registration data"
// @Success     201 {object} SignUpResponse "User registered"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Email already registered"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auth/signup [post]
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	birthDate, err := models.ParseDate(req.BirthDate)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "birth_date must be YYYY-MM-DD"))
		return
	}

	user, token, err := h.userService.SignUp(services.SignUpInput{
		Email:     req.Email,
		Password:  req.Password,
		FullName:  req.FullName,
		BirthDate: birthDate,
		Gender:    req.Gender,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	if token != "" {
		h.mailer.SendConfirmation(user.Email, token)
	}
	h.auditService.Log(user.ID, services.AuditSignUp, services.ResourceUser, user.ID, c.ClientIP(), nil)

	c.JSON(http.StatusCreated, SignUpResponse{User: user, ConfirmationRequired: !user.Confirmed()})
}

// Verify handles email confirmation
// @Summary     Confirm email
// @Description Redeem the confirmation token sent at sign-up
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body VerifyRequest true "Confirmation token"
// @Success     200 {object} UserResponse "Email confirmed"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid or used token"
// @Router      /auth/verify [post]
func (h *AuthHandler) Verify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	user, err := h.userService.ConfirmEmail(req.Token)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, UserResponse{User: user})
}

// issueSession signs a token pair and stores the refresh token digest.
func (h *AuthHandler) issueSession(c *gin.Context, user *models.User) {
	pair, err := h.tokens.IssuePair(user)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	if err := h.userService.StoreRefreshTokenHash(user.ID, middleware.HashToken(pair.RefreshToken)); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, SessionResponse{TokenPair: *pair, User: user})
}

// SignIn handles password sign-in
// @Summary     Sign in
// @Description Authenticate with email and password and get an access/refresh token pair
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body SignInRequest true "User credentials"
// @Success     200 {object} SessionResponse "Signed in"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid credentials"
// @Failure     403 {object} ErrorResponse "Email not confirmed"
// @Failure     423 {object} ErrorResponse "Account locked"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auth/token [post]
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	user, err := h.userService.AttemptLogin(req.Email, req.Password)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(user.ID, services.AuditSignIn, services.ResourceUser, user.ID, c.ClientIP(), nil)
	h.issueSession(c, user)
}

// Refresh rotates a refresh token
// @Summary     Refresh session
// @Description Exchange a refresh token for a new token pair. The old refresh token stops working.
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body RefreshRequest true "Refresh token"
// @Success     200 {object} SessionResponse "New token pair"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid or revoked token"
// @Router      /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	claims, err := h.tokens.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		respondWithError(c, apperrors.ErrInvalidToken)
		return
	}

	stored, err := h.userService.GetRefreshTokenHash(claims.UserID)
	if errors.Is(err, apperrors.ErrUserNotFound) {
		respondWithError(c, apperrors.ErrInvalidToken)
		return
	}
	if err != nil {
		respondWithError(c, err)
		return
	}
	if stored == "" || stored != middleware.HashToken(req.RefreshToken) {
		respondWithError(c, apperrors.ErrInvalidToken)
		return
	}

	user, err := h.userService.GetUserByID(claims.UserID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.issueSession(c, user)
}

// Recover starts password recovery
// @Summary     Request password recovery
// @Description Email a recovery token. Always accepted so callers cannot discover which emails exist.
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body RecoverRequest true "Account email"
// @Success     202 {object} MessageResponse "Request accepted"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /auth/recover [post]
func (h *AuthHandler) Recover(c *gin.Context) {
	var req RecoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	token, err := h.userService.RequestRecovery(req.Email)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if token != "" {
		h.mailer.SendRecovery(req.Email, token)
	}

	c.JSON(http.StatusAccepted, MessageResponse{Message: "If the email is registered, a recovery link has been sent"})
}

// Reset sets a new password
// @Summary     Reset password
// @Description Set a new password using a recovery token. Existing sessions are revoked.
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body ResetRequest true "Recovery token and new password"
// @Success     200 {object} MessageResponse "Password updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid or expired token"
// @Router      /auth/reset [post]
func (h *AuthHandler) Reset(c *gin.Context) {
	var req ResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	userID, err := h.userService.ResetPassword(req.Token, req.Password)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditPasswordReset, services.ResourceUser, userID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, MessageResponse{Message: "Password updated"})
}

// GetUser returns the current identity
// @Summary     Current user
// @Description Get the authenticated user's profile
// @Tags        auth
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} UserResponse "User profile"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /auth/user [get]
func (h *AuthHandler) GetUser(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	user, err := h.userService.GetUserByID(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, UserResponse{User: user})
}

// Logout revokes the refresh token
// @Summary     Sign out
// @Description Revoke the current refresh token
// @Tags        auth
// @Security    BearerAuth
// @Success     204 "Signed out"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.userService.StoreRefreshTokenHash(userID, ""); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditSignOut, services.ResourceUser, userID, c.ClientIP(), nil)
	c.Status(http.StatusNoContent)
}
