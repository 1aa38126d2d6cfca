package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/paisatrack/paisatrack/api"
	"github.com/paisatrack/paisatrack/internal/auth"
	"github.com/paisatrack/paisatrack/internal/budget"
	"github.com/paisatrack/paisatrack/internal/storage"
	"github.com/paisatrack/paisatrack/logging"
)

func TestMain(m *testing.M) {
	if err := logging.Init("error", "development"); err != nil {
		panic(err)
	}
	m.Run()
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	issuer := auth.NewTokenIssuer("test-secret", time.Hour)
	bt := budget.NewBudgetTracker(storage.NewInMemoryStorage(), issuer)
	server := httptest.NewServer(api.NewRouter(api.NewApi(&bt)))
	t.Cleanup(server.Close)
	return server
}

func doJSON(t *testing.T, server *httptest.Server, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(api.TokenHeader, token)
	}

	resp, err := server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

func decodeInto(t *testing.T, data []byte, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(data, v))
}

func registerUser(t *testing.T, server *httptest.Server, email string) string {
	t.Helper()
	resp, body := doJSON(t, server, http.MethodPost, "/api/auth/register", "", api.RegisterRequest{
		Email:    email,
		Password: "pw1",
	})
	require.Equal(t, 201, resp.StatusCode)

	var tokenResp api.TokenResponse
	decodeInto(t, body, &tokenResp)
	require.NotEmpty(t, tokenResp.Token)
	return tokenResp.Token
}

func TestHealthz(t *testing.T) {
	server := newTestServer(t)

	resp, body := doJSON(t, server, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, 200, resp.StatusCode)
	require.Equal(t, "ok", string(body))
}

func TestRegisterLoginAndAccount(t *testing.T) {
	server := newTestServer(t)
	registerUser(t, server, "a@x.com")

	resp, body := doJSON(t, server, http.MethodPost, "/api/auth/login", "", api.LoginRequest{
		Email:    "a@x.com",
		Password: "pw1",
	})
	require.Equal(t, 200, resp.StatusCode)

	var tokenResp api.TokenResponse
	decodeInto(t, body, &tokenResp)

	resp, body = doJSON(t, server, http.MethodGet, "/api/auth", tokenResp.Token, nil)
	require.Equal(t, 200, resp.StatusCode)

	var userResp api.UserResponse
	decodeInto(t, body, &userResp)
	require.Equal(t, "a@x.com", userResp.Email)
	require.NotEmpty(t, userResp.ID)
	require.NotContains(t, string(body), "password")
}

func TestRegisterDuplicate(t *testing.T) {
	server := newTestServer(t)
	registerUser(t, server, "a@x.com")

	resp, body := doJSON(t, server, http.MethodPost, "/api/auth/register", "", api.RegisterRequest{
		Email:    "a@x.com",
		Password: "other",
	})
	require.Equal(t, 400, resp.StatusCode)

	var errBody api.ErrorBody
	decodeInto(t, body, &errBody)
	require.Equal(t, "User already exists", errBody.Msg)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	server := newTestServer(t)
	registerUser(t, server, "a@x.com")

	for _, creds := range []api.LoginRequest{
		{Email: "a@x.com", Password: "wrong"},
		{Email: "nobody@x.com", Password: "pw1"},
	} {
		resp, body := doJSON(t, server, http.MethodPost, "/api/auth/login", "", creds)
		require.Equal(t, 400, resp.StatusCode)

		var errBody api.ErrorBody
		decodeInto(t, body, &errBody)
		require.Equal(t, "Invalid credentials", errBody.Msg)
	}
}

func TestProtectedEndpointsRequireToken(t *testing.T) {
	server := newTestServer(t)
	token := registerUser(t, server, "a@x.com")

	resp, body := doJSON(t, server, http.MethodGet, "/api/budgets", "", nil)
	require.Equal(t, 401, resp.StatusCode)
	var errBody api.ErrorBody
	decodeInto(t, body, &errBody)
	require.Equal(t, "No token, authorization denied", errBody.Msg)

	tampered := token + "xx"
	resp, body = doJSON(t, server, http.MethodPost, "/api/budgets/transaction", tampered, api.CreateTransactionRequest{
		Category: "Food", Amount: 100, Description: "lunch",
	})
	require.Equal(t, 401, resp.StatusCode)
	decodeInto(t, body, &errBody)
	require.Equal(t, "Token is not valid", errBody.Msg)

	// The rejected request must not have recorded anything.
	resp, body = doJSON(t, server, http.MethodGet, "/api/budgets", token, nil)
	require.Equal(t, 200, resp.StatusCode)
	var budgets api.ListBudgetsResponse
	decodeInto(t, body, &budgets)
	for _, b := range budgets.Budgets {
		require.Zero(t, b.Spent)
		require.Empty(t, b.Transactions)
	}
}

func TestBudgetFlow(t *testing.T) {
	server := newTestServer(t)
	token := registerUser(t, server, "a@x.com")

	// Registration seeds the default categories.
	resp, body := doJSON(t, server, http.MethodGet, "/api/budgets", token, nil)
	require.Equal(t, 200, resp.StatusCode)
	var budgets api.ListBudgetsResponse
	decodeInto(t, body, &budgets)
	require.Len(t, budgets.Budgets, 4)

	resp, body = doJSON(t, server, http.MethodPost, "/api/budgets/setup", token, api.SetupBudgetsRequest{
		Budgets: []api.BudgetItem{
			{Category: "Food", Limit: 5000},
			{Category: "Shopping", Limit: 4000},
		},
	})
	require.Equal(t, 200, resp.StatusCode)
	decodeInto(t, body, &budgets)
	require.Len(t, budgets.Budgets, 2)

	resp, _ = doJSON(t, server, http.MethodPost, "/api/budgets/transaction", token, api.CreateTransactionRequest{
		Category: "Food", Amount: 450, Description: "Zomato",
	})
	require.Equal(t, 200, resp.StatusCode)

	resp, body = doJSON(t, server, http.MethodPost, "/api/budgets/transaction", token, api.CreateTransactionRequest{
		Category: "Food", Amount: 4100, Description: "Swiggy",
	})
	require.Equal(t, 200, resp.StatusCode)
	decodeInto(t, body, &budgets)

	food := budgets.Budgets[0]
	require.Equal(t, "Food", food.Category)
	require.Equal(t, 4550.0, food.Spent)
	require.Equal(t, 91, food.UsagePercent)
	require.True(t, food.NearLimit)
	require.Len(t, food.Transactions, 2)

	// Merge keeps the spending history and adds a category.
	resp, body = doJSON(t, server, http.MethodPut, "/api/budgets", token, api.SetupBudgetsRequest{
		Budgets: []api.BudgetItem{
			{Category: "Food", Limit: 6000},
			{Category: "Fun", Limit: 500},
		},
	})
	require.Equal(t, 200, resp.StatusCode)
	decodeInto(t, body, &budgets)
	require.Len(t, budgets.Budgets, 3)
	require.Equal(t, 6000.0, budgets.Budgets[0].Limit)
	require.Equal(t, 4550.0, budgets.Budgets[0].Spent)
	require.Len(t, budgets.Budgets[0].Transactions, 2)
}

func TestTransactionUnknownCategory(t *testing.T) {
	server := newTestServer(t)
	token := registerUser(t, server, "a@x.com")

	resp, body := doJSON(t, server, http.MethodPost, "/api/budgets/transaction", token, api.CreateTransactionRequest{
		Category: "Rent", Amount: 100, Description: "flat",
	})
	require.Equal(t, 404, resp.StatusCode)

	var errBody api.ErrorBody
	decodeInto(t, body, &errBody)
	require.Contains(t, errBody.Msg, "Rent")
}

func TestSetupRejectsInvalidBody(t *testing.T) {
	server := newTestServer(t)
	token := registerUser(t, server, "a@x.com")

	req, err := http.NewRequest(http.MethodPost, server.URL+"/api/budgets/setup", strings.NewReader("not-json"))
	require.NoError(t, err)
	req.Header.Set(api.TokenHeader, token)
	resp, err := server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, 400, resp.StatusCode)

	respEmpty, _ := doJSON(t, server, http.MethodPost, "/api/budgets/setup", token, map[string]any{})
	require.Equal(t, 400, respEmpty.StatusCode)
}

func TestImportStatementEndpoint(t *testing.T) {
	server := newTestServer(t)
	token := registerUser(t, server, "a@x.com")

	statement := strings.Join([]string{
		"date,description,amount,category",
		"2026-08-01,Zomato Order,450.00,",
		"2026-08-02,Flipkart sale,1200.50,",
		"2026-08-03,Cash withdrawal,500.00,",
	}, "\n")

	req, err := http.NewRequest(http.MethodPost, server.URL+"/api/budgets/import", strings.NewReader(statement))
	require.NoError(t, err)
	req.Header.Set(api.TokenHeader, token)
	req.Header.Set("Content-Type", "text/csv")

	resp, err := server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, 200, resp.StatusCode)

	var importResp api.ImportResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&importResp))
	require.Equal(t, 3, importResp.Imported)
	require.Equal(t, 0, importResp.Skipped)

	byCategory := map[string]api.BudgetResponseItem{}
	for _, b := range importResp.Budgets {
		byCategory[b.Category] = b
	}
	require.Equal(t, 450.0, byCategory["Food"].Spent)
	require.Equal(t, 1200.5, byCategory["Shopping"].Spent)
	require.Equal(t, 500.0, byCategory["Other"].Spent)
}

func TestLinkAccountEndpoint(t *testing.T) {
	server := newTestServer(t)
	token := registerUser(t, server, "a@x.com")

	resp, body := doJSON(t, server, http.MethodPost, "/api/accounts", token, api.LinkAccountRequest{
		BankName:      "Mock Bank",
		AccountNumber: "0011223344",
		IFSC:          "mock0001234",
	})
	require.Equal(t, 200, resp.StatusCode)

	var accounts api.ListAccountsResponse
	decodeInto(t, body, &accounts)
	require.Len(t, accounts.Accounts, 1)
	require.Equal(t, "MOCK0001234", accounts.Accounts[0].IFSC)

	resp, body = doJSON(t, server, http.MethodPost, "/api/accounts", token, api.LinkAccountRequest{BankName: "Mock Bank"})
	require.Equal(t, 400, resp.StatusCode)
	var errBody api.ErrorBody
	decodeInto(t, body, &errBody)
	require.Equal(t, "Please provide all bank account details.", errBody.Msg)
}

func TestStatisticsEndpoint(t *testing.T) {
	server := newTestServer(t)
	token := registerUser(t, server, "a@x.com")

	resp, _ := doJSON(t, server, http.MethodPost, "/api/budgets/setup", token, api.SetupBudgetsRequest{
		Budgets: []api.BudgetItem{
			{Category: "Food", Limit: 1000},
			{Category: "Shopping", Limit: 500},
		},
	})
	require.Equal(t, 200, resp.StatusCode)

	resp, _ = doJSON(t, server, http.MethodPost, "/api/budgets/transaction", token, api.CreateTransactionRequest{
		Category: "Shopping", Amount: 700, Description: "shoes",
	})
	require.Equal(t, 200, resp.StatusCode)

	resp, body := doJSON(t, server, http.MethodGet, "/api/statistics", token, nil)
	require.Equal(t, 200, resp.StatusCode)

	var summary api.SummaryResponse
	decodeInto(t, body, &summary)
	require.Equal(t, 1500.0, summary.TotalLimit)
	require.Equal(t, 700.0, summary.TotalSpent)
	require.Equal(t, 1000.0, summary.SafeToSpend)
	require.Len(t, summary.Categories, 2)
	require.True(t, summary.Categories[1].NearLimit)
}
