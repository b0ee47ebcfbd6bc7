// Package gateway provides an HTTP client for the Gideon Finance API.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"gideon/internal/models"
	"gideon/internal/pagination"
)

// Error codes returned by the API that callers branch on.
const (
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeEmailNotConfirmed  = "EMAIL_NOT_CONFIRMED"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeInvalidToken       = "INVALID_TOKEN"
)

// APIError is a non-2xx response decoded from the API error envelope.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status %d", e.Status)
	}
	return e.Message
}

// HasCode reports whether err is an *APIError with the given code.
func HasCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

// Session is a signed-in token pair.
type Session struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresAt    time.Time    `json:"expires_at"`
	User         *models.User `json:"user"`
}

// SignUpRequest is the registration form.
type SignUpRequest struct {
	Email     string      `json:"email"`
	Password  string      `json:"password"`
	FullName  string      `json:"full_name"`
	BirthDate models.Date `json:"birth_date"`
	Gender    string      `json:"gender,omitempty"`
}

// SignUpResult reports the created user and whether it still needs confirmation.
type SignUpResult struct {
	User                 *models.User `json:"user"`
	ConfirmationRequired bool         `json:"confirmation_required"`
}

// Client communicates with the Gideon Finance API.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu          sync.RWMutex
	accessToken string
}

// NewClient creates a new API client. baseURL is the server root, without /api/v1.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/") + "/api/v1",
		httpClient: httpClient,
	}
}

// SetAccessToken sets the bearer token sent with every request. An empty
// token sends none.
func (c *Client) SetAccessToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = token
}

func (c *Client) token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken
}

// do sends a JSON request and decodes a JSON response into out, if non-nil.
func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		jsonBody, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		body = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
	}
	return apiErr
}

// SignUp registers a new user.
func (c *Client) SignUp(ctx context.Context, in SignUpRequest) (*SignUpResult, error) {
	var result SignUpResult
	if err := c.do(ctx, http.MethodPost, "/auth/signup", in, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Verify redeems an email confirmation token.
func (c *Client) Verify(ctx context.Context, token string) (*models.User, error) {
	var result struct {
		User *models.User `json:"user"`
	}
	body := struct {
		Token string `json:"token"`
	}{Token: token}
	if err := c.do(ctx, http.MethodPost, "/auth/verify", body, &result); err != nil {
		return nil, err
	}
	return result.User, nil
}

// SignIn exchanges email and password for a session.
func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	body := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{Email: email, Password: password}

	var session Session
	if err := c.do(ctx, http.MethodPost, "/auth/token", body, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Refresh rotates a refresh token into a new session.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	body := struct {
		RefreshToken string `json:"refresh_token"`
	}{RefreshToken: refreshToken}

	var session Session
	if err := c.do(ctx, http.MethodPost, "/auth/refresh", body, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Recover requests a password recovery email.
func (c *Client) Recover(ctx context.Context, email string) error {
	body := struct {
		Email string `json:"email"`
	}{Email: email}
	return c.do(ctx, http.MethodPost, "/auth/recover", body, nil)
}

// Reset sets a new password with a recovery token.
func (c *Client) Reset(ctx context.Context, token, password string) error {
	body := struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}{Token: token, Password: password}
	return c.do(ctx, http.MethodPost, "/auth/reset", body, nil)
}

// SignOut revokes the refresh token of the current access token.
func (c *Client) SignOut(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

// CurrentUser returns the identity of the current access token.
func (c *Client) CurrentUser(ctx context.Context) (*models.User, error) {
	var result struct {
		User *models.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth/user", nil, &result); err != nil {
		return nil, err
	}
	return result.User, nil
}

// ListTransactions fetches every transaction of the current user, newest first.
func (c *Client) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	var result struct {
		Transactions []models.Transaction `json:"transactions"`
	}
	if err := c.do(ctx, http.MethodGet, "/transactions", nil, &result); err != nil {
		return nil, err
	}
	return result.Transactions, nil
}

// CreateTransaction inserts a transaction and returns the stored row.
func (c *Client) CreateTransaction(ctx context.Context, in models.TransactionInput) (*models.Transaction, error) {
	var result struct {
		Transaction *models.Transaction `json:"transaction"`
	}
	if err := c.do(ctx, http.MethodPost, "/transactions", in, &result); err != nil {
		return nil, err
	}
	return result.Transaction, nil
}

// UpdateTransaction applies a partial update and returns the stored row.
func (c *Client) UpdateTransaction(ctx context.Context, id string, patch models.TransactionPatch) (*models.Transaction, error) {
	var result struct {
		Transaction *models.Transaction `json:"transaction"`
	}
	if err := c.do(ctx, http.MethodPatch, "/transactions/"+url.PathEscape(id), patch, &result); err != nil {
		return nil, err
	}
	return result.Transaction, nil
}

// DeleteTransaction deletes a transaction. Deleting an unknown id succeeds.
func (c *Client) DeleteTransaction(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/transactions/"+url.PathEscape(id), nil, nil)
}

// ActivityPage is one page of the current user's audit trail.
type ActivityPage = pagination.Page[models.AuditLog]

// Activity fetches a page of the current user's account activity. Zero
// values leave paging to the server defaults.
func (c *Client) Activity(ctx context.Context, page, pageSize int) (*ActivityPage, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		q.Set("page_size", strconv.Itoa(pageSize))
	}
	path := "/activity"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var result ActivityPage
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
