package integration

import (
	"fmt"
	"net/http"
	"testing"
)

func TestAuthFlow_SignUpVerifySignInRefresh(t *testing.T) {
	app := setupApp(t)

	// Step 1: Sign up leaves the account pending
	rec := app.request(http.MethodPost, "/api/v1/auth/signup",
		`{"email":"Auth@Test.com","password":"Password123","full_name":"Ana Souza","birth_date":"1990-04-02"}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	if result["confirmation_required"] != true {
		t.Errorf("expected confirmation_required true, got %v", result["confirmation_required"])
	}
	if _, leaked := result["token"]; leaked {
		t.Error("confirmation token must not be returned in the response")
	}

	// Step 2: Signing in before confirming is refused
	rec = app.request(http.MethodPost, "/api/v1/auth/token", `{"email":"auth@test.com","password":"Password123"}`, "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 before confirmation, got %d: %s", rec.Code, rec.Body.String())
	}
	if code := errorCode(t, rec); code != "EMAIL_NOT_CONFIRMED" {
		t.Errorf("expected EMAIL_NOT_CONFIRMED, got %s", code)
	}

	// Step 3: Confirm and sign in
	app.confirmUser(t, "auth@test.com")
	access, refresh := app.signInUser(t, "auth@test.com", "Password123")

	// Step 4: Current user
	rec = app.request(http.MethodGet, "/api/v1/auth/user", "", access)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	user := parseJSON(t, rec)["user"].(map[string]interface{})
	if user["email"] != "auth@test.com" {
		t.Errorf("expected email auth@test.com, got %v", user["email"])
	}
	if user["full_name"] != "Ana Souza" {
		t.Errorf("expected full_name Ana Souza, got %v", user["full_name"])
	}

	// Step 5: Refresh rotates the refresh token
	rec = app.request(http.MethodPost, "/api/v1/auth/refresh", fmt.Sprintf(`{"refresh_token":%q}`, refresh), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh failed: %d %s", rec.Code, rec.Body.String())
	}
	rotated := parseJSON(t, rec)
	if rotated["refresh_token"] == refresh {
		t.Error("expected a new refresh token")
	}

	rec = app.request(http.MethodPost, "/api/v1/auth/refresh", fmt.Sprintf(`{"refresh_token":%q}`, refresh), "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a rotated refresh token, got %d: %s", rec.Code, rec.Body.String())
	}

	// Step 6: Sign out revokes the current refresh token
	newAccess := rotated["access_token"].(string)
	newRefresh := rotated["refresh_token"].(string)
	rec = app.request(http.MethodPost, "/api/v1/auth/logout", "", newAccess)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = app.request(http.MethodPost, "/api/v1/auth/refresh", fmt.Sprintf(`{"refresh_token":%q}`, newRefresh), "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after sign out, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAuthFlow_SignUpDuplicateEmail(t *testing.T) {
	app := setupApp(t)

	app.signUpUser(t, "dup@test.com", "Password123")

	rec := app.request(http.MethodPost, "/api/v1/auth/signup",
		`{"email":"dup@test.com","password":"Password123","full_name":"Someone Else","birth_date":"1985-01-01"}`, "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate email, got %d: %s", rec.Code, rec.Body.String())
	}
	if code := errorCode(t, rec); code != "DUPLICATE_EMAIL" {
		t.Errorf("expected DUPLICATE_EMAIL, got %s", code)
	}
}

func TestAuthFlow_SignUpRejectsInvalidForms(t *testing.T) {
	app := setupApp(t)

	tests := []struct {
		name string
		body string
	}{
		{"weak password", `{"email":"a@test.com","password":"password","full_name":"Ana Souza","birth_date":"1990-01-01"}`},
		{"short name", `{"email":"a@test.com","password":"Password123","full_name":"An","birth_date":"1990-01-01"}`},
		{"underage", `{"email":"a@test.com","password":"Password123","full_name":"Ana Souza","birth_date":"2020-01-01"}`},
		{"bad date", `{"email":"a@test.com","password":"Password123","full_name":"Ana Souza","birth_date":"01/01/1990"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.request(http.MethodPost, "/api/v1/auth/signup", tt.body, "")
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestAuthFlow_WrongPasswordLocksAccount(t *testing.T) {
	app := setupApp(t)
	app.signUpUser(t, "lock@test.com", "Password123")
	app.confirmUser(t, "lock@test.com")

	for i := 0; i < 5; i++ {
		rec := app.request(http.MethodPost, "/api/v1/auth/token", `{"email":"lock@test.com","password":"wrongpass"}`, "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d: %s", i+1, rec.Code, rec.Body.String())
		}
		if code := errorCode(t, rec); code != "INVALID_CREDENTIALS" {
			t.Fatalf("attempt %d: expected INVALID_CREDENTIALS, got %s", i+1, code)
		}
	}

	rec := app.request(http.MethodPost, "/api/v1/auth/token", `{"email":"lock@test.com","password":"Password123"}`, "")
	if rec.Code != http.StatusLocked {
		t.Fatalf("expected 423 after five failures, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAuthFlow_UnknownEmail(t *testing.T) {
	app := setupApp(t)

	rec := app.request(http.MethodPost, "/api/v1/auth/token", `{"email":"ghost@test.com","password":"Password123"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", rec.Code, rec.Body.String())
	}
	if code := errorCode(t, rec); code != "INVALID_CREDENTIALS" {
		t.Errorf("expected INVALID_CREDENTIALS, got %s", code)
	}
}

func TestAuthFlow_PasswordRecovery(t *testing.T) {
	app := setupApp(t)
	app.signUpUser(t, "reset@test.com", "Password123")
	app.confirmUser(t, "reset@test.com")
	_, oldRefresh := app.signInUser(t, "reset@test.com", "Password123")

	// Unknown emails are accepted the same way
	rec := app.request(http.MethodPost, "/api/v1/auth/recover", `{"email":"nobody@test.com"}`, "")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202 for unknown email, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = app.request(http.MethodPost, "/api/v1/auth/recover", `{"email":"reset@test.com"}`, "")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}

	token := app.Mail.recoveryFor(t, "reset@test.com")
	rec = app.request(http.MethodPost, "/api/v1/auth/reset", fmt.Sprintf(`{"token":%q,"password":"NewPassword1"}`, token), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("reset failed: %d %s", rec.Code, rec.Body.String())
	}

	// The token is single use
	rec = app.request(http.MethodPost, "/api/v1/auth/reset", fmt.Sprintf(`{"token":%q,"password":"OtherPassword1"}`, token), "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a used token, got %d: %s", rec.Code, rec.Body.String())
	}

	// Existing sessions are revoked
	rec = app.request(http.MethodPost, "/api/v1/auth/refresh", fmt.Sprintf(`{"refresh_token":%q}`, oldRefresh), "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a pre-reset refresh token, got %d: %s", rec.Code, rec.Body.String())
	}

	app.signInUser(t, "reset@test.com", "NewPassword1")
}

func TestAuthFlow_ProtectedRoutesRequireToken(t *testing.T) {
	app := setupApp(t)

	for _, path := range []string{"/api/v1/auth/user", "/api/v1/transactions", "/api/v1/transactions/summary"} {
		rec := app.request(http.MethodGet, path, "", "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", path, rec.Code)
		}
	}

	rec := app.request(http.MethodGet, "/api/v1/transactions", "", "not-a-jwt")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for a malformed token, got %d", rec.Code)
	}
}
