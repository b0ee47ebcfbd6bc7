package integration

import (
	"fmt"
	"net/http"
	"testing"

	"gideon/internal/models"
)

func createTransaction(t *testing.T, app *testApp, token, body string) map[string]interface{} {
	t.Helper()
	rec := app.request(http.MethodPost, "/api/v1/transactions", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create transaction failed: %d %s", rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)["transaction"].(map[string]interface{})
}

func listTransactions(t *testing.T, app *testApp, token string) []interface{} {
	t.Helper()
	rec := app.request(http.MethodGet, "/api/v1/transactions", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("list transactions failed: %d %s", rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)["transactions"].([]interface{})
}

func TestTransactionFlow_CreateListUpdateDelete(t *testing.T) {
	app := setupApp(t)
	token := app.newUser(t, "flow@test.com")

	// Step 1: Empty list is an empty array
	if got := listTransactions(t, app, token); len(got) != 0 {
		t.Fatalf("expected no transactions, got %d", len(got))
	}

	// Step 2: Create
	salary := createTransaction(t, app, token,
		`{"type":"income","description":"Salário","amount":"5000","category":"Salário","date":"2024-03-05"}`)
	rent := createTransaction(t, app, token,
		`{"type":"expense","description":"Aluguel","amount":1500.5,"category":"Moradia","date":"2024-03-10"}`)
	if rent["amount"] != "1500.5" {
		t.Errorf("expected amount 1500.5, got %v", rent["amount"])
	}
	if rent["date"] != "2024-03-10" {
		t.Errorf("expected date 2024-03-10, got %v", rent["date"])
	}

	// Step 3: List is newest date first
	list := listTransactions(t, app, token)
	if len(list) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(list))
	}
	if first := list[0].(map[string]interface{}); first["id"] != rent["id"] {
		t.Errorf("expected rent first, got %v", first["description"])
	}

	// Step 4: Partial update
	rentID := rent["id"].(string)
	rec := app.request(http.MethodPatch, "/api/v1/transactions/"+rentID, `{"amount":"1600","category":"Casa"}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("update failed: %d %s", rec.Code, rec.Body.String())
	}
	updated := parseJSON(t, rec)["transaction"].(map[string]interface{})
	if updated["amount"] != "1600" || updated["category"] != "Casa" {
		t.Errorf("unexpected update result: %v", updated)
	}
	if updated["description"] != "Aluguel" {
		t.Errorf("untouched field changed: %v", updated["description"])
	}

	// Step 5: Delete, twice
	for i := 0; i < 2; i++ {
		rec = app.request(http.MethodDelete, "/api/v1/transactions/"+rentID, "", token)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("delete %d: expected 204, got %d: %s", i+1, rec.Code, rec.Body.String())
		}
	}

	list = listTransactions(t, app, token)
	if len(list) != 1 || list[0].(map[string]interface{})["id"] != salary["id"] {
		t.Fatalf("expected only the salary left, got %v", list)
	}

	// Every mutation was audited
	var audits int64
	app.DB.Model(&models.AuditLog{}).Where("resource_type = ?", "transaction").Count(&audits)
	if audits != 4 {
		t.Errorf("expected 4 transaction audit entries, got %d", audits)
	}

	// The same trail is visible through the activity feed, newest first
	rec = app.request(http.MethodGet, "/api/v1/activity?page_size=2", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("activity failed: %d %s", rec.Code, rec.Body.String())
	}
	page := parseJSON(t, rec)
	if page["total_items"] != float64(6) || page["total_pages"] != float64(3) {
		t.Errorf("expected 6 entries over 3 pages (sign-up, sign-in, 4 mutations), got %v", page)
	}
	items := page["items"].([]interface{})
	if latest := items[0].(map[string]interface{}); latest["action"] != "DELETE_TRANSACTION" {
		t.Errorf("expected latest action DELETE_TRANSACTION, got %v", latest["action"])
	}
}

func TestTransactionFlow_RejectsInvalidInput(t *testing.T) {
	app := setupApp(t)
	token := app.newUser(t, "invalid@test.com")

	tests := []struct {
		name string
		body string
		code string
	}{
		{"unknown type", `{"type":"transfer","description":"x","amount":"1","category":"Outros","date":"2024-01-01"}`, "INVALID_INPUT"},
		{"negative amount", `{"type":"expense","description":"x","amount":"-1","category":"Outros","date":"2024-01-01"}`, "NEGATIVE_AMOUNT"},
		{"missing amount", `{"type":"expense","description":"x","category":"Outros","date":"2024-01-01"}`, "INVALID_INPUT"},
		{"missing description", `{"type":"expense","amount":"1","category":"Outros","date":"2024-01-01"}`, "INVALID_INPUT"},
		{"bad date", `{"type":"expense","description":"x","amount":"1","category":"Outros","date":"15/01/2024"}`, "INVALID_INPUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.request(http.MethodPost, "/api/v1/transactions", tt.body, token)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
			if code := errorCode(t, rec); code != tt.code {
				t.Errorf("expected %s, got %s", tt.code, code)
			}
		})
	}

	if got := listTransactions(t, app, token); len(got) != 0 {
		t.Errorf("rejected input must not be stored, found %d rows", len(got))
	}
}

func TestTransactionFlow_OwnerIsolation(t *testing.T) {
	app := setupApp(t)
	alice := app.newUser(t, "alice@test.com")
	bob := app.newUser(t, "bob@test.com")

	tx := createTransaction(t, app, alice,
		`{"type":"expense","description":"Mercado","amount":"200","category":"Alimentação","date":"2024-02-01"}`)
	id := tx["id"].(string)

	if got := listTransactions(t, app, bob); len(got) != 0 {
		t.Fatalf("bob sees %d of alice's transactions", len(got))
	}

	rec := app.request(http.MethodPatch, "/api/v1/transactions/"+id, `{"amount":"1"}`, bob)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 updating another user's transaction, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = app.request(http.MethodDelete, "/api/v1/transactions/"+id, "", bob)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := listTransactions(t, app, alice); len(got) != 1 {
		t.Fatal("bob's delete must not touch alice's transaction")
	}
}

func TestTransactionFlow_Summary(t *testing.T) {
	app := setupApp(t)
	token := app.newUser(t, "summary@test.com")

	for _, body := range []string{
		`{"type":"income","description":"Salário","amount":"3000","category":"Salário","date":"2024-01-05"}`,
		`{"type":"expense","description":"Mercado","amount":"450.25","category":"Alimentação","date":"2024-01-20"}`,
		`{"type":"expense","description":"Ônibus","amount":"120","category":"Transporte","date":"2024-02-03"}`,
		`{"type":"expense","description":"Restaurante","amount":"80","category":"Alimentação","date":"2024-02-14"}`,
		`{"type":"expense","description":"Antigo","amount":"999","category":"Lazer","date":"2023-12-31"}`,
	} {
		createTransaction(t, app, token, body)
	}

	rec := app.request(http.MethodGet, "/api/v1/transactions/summary?year=2024", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("summary failed: %d %s", rec.Code, rec.Body.String())
	}
	report := parseJSON(t, rec)

	months := report["months"].([]interface{})
	if len(months) != 12 {
		t.Fatalf("expected 12 months, got %d", len(months))
	}
	jan := months[0].(map[string]interface{})
	if jan["income"] != "3000" || jan["expense"] != "450.25" || jan["balance"] != "2549.75" {
		t.Errorf("unexpected January totals: %v", jan)
	}

	categories := report["categories"].([]interface{})
	if len(categories) != 2 {
		t.Fatalf("expected 2 expense categories in 2024, got %v", categories)
	}
	top := categories[0].(map[string]interface{})
	if top["category"] != "Alimentação" || top["total"] != "530.25" {
		t.Errorf("unexpected top category: %v", top)
	}

	overall := report["overall"].(map[string]interface{})
	if overall["expense"] != "1649.25" {
		t.Errorf("overall totals cover every year, got %v", overall)
	}

	rec = app.request(http.MethodGet, fmt.Sprintf("/api/v1/transactions/summary?year=%s", "abc"), "", token)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a bad year, got %d", rec.Code)
	}
}
