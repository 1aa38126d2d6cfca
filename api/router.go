package api

import (
	"net/http"

	"github.com/0xcafe-io/iz"
)

// NewRouter wires every endpoint. Kept separate from main so the test
// suite can stand up the exact production routing.
func NewRouter(api *Api) *http.ServeMux {
	server := http.NewServeMux()

	// USER ENDPOINTS.
	server.HandleFunc("POST /api/auth/register", iz.Bind(api.RegisterUserHandler)) // Create user
	server.HandleFunc("POST /api/auth/login", iz.Bind(api.LoginUserHandler))       // Login user
	server.HandleFunc("GET /api/auth", iz.Bind(api.GetAccountHandler))             // Account info, no password

	// BUDGET ENDPOINTS.
	server.HandleFunc("GET /api/budgets", iz.Bind(api.GetBudgetsHandler))                      // Current budget collection
	server.HandleFunc("POST /api/budgets/setup", iz.Bind(api.SetupBudgetsHandler))             // Destructive replace
	server.HandleFunc("PUT /api/budgets", iz.Bind(api.MergeBudgetsHandler))                    // Merge, history preserved
	server.HandleFunc("POST /api/budgets/transaction", iz.Bind(api.RecordTransactionHandler)) // Record one spend event
	server.HandleFunc("POST /api/budgets/import", iz.Bind(api.ImportStatementHandler))        // Bulk CSV statement import

	// STATISTICS ENDPOINTS.
	server.HandleFunc("GET /api/statistics", iz.Bind(api.GetStatisticsHandler)) // Totals, safe-to-spend, warnings

	// BANK ACCOUNT ENDPOINTS.
	server.HandleFunc("POST /api/accounts", iz.Bind(api.LinkAccountHandler)) // Link a mock bank account

	server.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return server
}
