package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"gideon/internal/handlers"
	"gideon/internal/logger"
	"gideon/internal/middleware"
	"gideon/internal/models"
	"gideon/internal/services"
	"gideon/internal/validator"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
	Mail   *inbox
}

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// inbox captures the tokens the gateway mails out.
type inbox struct {
	mu           sync.Mutex
	confirmation map[string]string
	recovery     map[string]string
}

func newInbox() *inbox {
	return &inbox{confirmation: map[string]string{}, recovery: map[string]string{}}
}

func (i *inbox) SendConfirmation(email, token string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.confirmation[email] = token
}

func (i *inbox) SendRecovery(email, token string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.recovery[email] = token
}

func (i *inbox) confirmationFor(t *testing.T, email string) string {
	t.Helper()
	i.mu.Lock()
	defer i.mu.Unlock()
	token, ok := i.confirmation[email]
	if !ok {
		t.Fatalf("no confirmation token mailed to %s", email)
	}
	return token
}

func (i *inbox) recoveryFor(t *testing.T, email string) string {
	t.Helper()
	i.mu.Lock()
	defer i.mu.Unlock()
	token, ok := i.recovery[email]
	if !ok {
		t.Fatalf("no recovery token mailed to %s", email)
	}
	return token
}

// setupIsolatedDB creates an isolated in-memory SQLite database for a single test.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:integration%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.Transaction{}, &models.AuditLog{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupApp creates a full application stack backed by an isolated in-memory
// SQLite. Sign-ups require email confirmation.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)
	mail := newInbox()
	tokens := middleware.NewTokenManager("integration-secret", 15*time.Minute, 24*time.Hour)

	// Services
	userService := services.NewUserService(db, false)
	transactionService := services.NewTransactionService(db)
	auditService := services.NewAuditService(db)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService, auditService, tokens, mail)
	transactionHandler := handlers.NewTransactionHandler(transactionService, auditService)
	activityHandler := handlers.NewActivityHandler(auditService)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")

	// Public auth routes
	auth := v1.Group("/auth")
	auth.POST("/signup", authHandler.SignUp)
	auth.POST("/verify", authHandler.Verify)
	auth.POST("/token", authHandler.SignIn)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/recover", authHandler.Recover)
	auth.POST("/reset", authHandler.Reset)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(tokens))

	protected.GET("/auth/user", authHandler.GetUser)
	protected.POST("/auth/logout", authHandler.Logout)
	protected.GET("/activity", activityHandler.ListActivity)

	transactions := protected.Group("/transactions")
	transactions.GET("", transactionHandler.ListTransactions)
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("/summary", transactionHandler.GetSummary)
	transactions.PATCH("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	return &testApp{DB: db, Router: router, Mail: mail}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// errorCode extracts error.code from an error response.
func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	errObj, ok := parseJSON(t, rec)["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object, got %s", rec.Body.String())
	}
	code, _ := errObj["code"].(string)
	return code
}

// signUpUser registers a user and returns its ID. The account is not yet confirmed.
func (app *testApp) signUpUser(t *testing.T, email, password string) string {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q,"full_name":"Test User","birth_date":"1990-01-01"}`, email, password)
	rec := app.request(http.MethodPost, "/api/v1/auth/signup", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup failed: %d %s", rec.Code, rec.Body.String())
	}
	user := parseJSON(t, rec)["user"].(map[string]interface{})
	return user["id"].(string)
}

// confirmUser redeems the confirmation token mailed to email.
func (app *testApp) confirmUser(t *testing.T, email string) {
	t.Helper()
	body := fmt.Sprintf(`{"token":%q}`, app.Mail.confirmationFor(t, email))
	rec := app.request(http.MethodPost, "/api/v1/auth/verify", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("verify failed: %d %s", rec.Code, rec.Body.String())
	}
}

// signInUser signs in and returns the access and refresh tokens.
func (app *testApp) signInUser(t *testing.T, email, password string) (accessToken, refreshToken string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)
	rec := app.request(http.MethodPost, "/api/v1/auth/token", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("sign in failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	return result["access_token"].(string), result["refresh_token"].(string)
}

// newUser signs up, confirms and signs in a user, returning its access token.
func (app *testApp) newUser(t *testing.T, email string) string {
	t.Helper()
	app.signUpUser(t, email, "Password123")
	app.confirmUser(t, email)
	access, _ := app.signInUser(t, email, "Password123")
	return access
}
