package api

import (
	"errors"
	"time"

	appErrors "github.com/paisatrack/paisatrack/customErrors"
	"github.com/paisatrack/paisatrack/internal/auth"
	"github.com/paisatrack/paisatrack/internal/budget"
)

// REQUESTS START:

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type BudgetItem struct {
	Category string  `json:"category"`
	Limit    float64 `json:"limit"`
}

type SetupBudgetsRequest struct {
	Budgets []BudgetItem `json:"budgets"`
}

type CreateTransactionRequest struct {
	Category    string  `json:"category"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
}

type LinkAccountRequest struct {
	BankName      string `json:"bankName"`
	AccountNumber string `json:"accountNumber"`
	IFSC          string `json:"ifsc"`
}

// REQUESTS END:

// RESPONSES:

type ErrorBody struct {
	Msg string `json:"msg"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

type UserResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

type TransactionItem struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"`
}

type BudgetResponseItem struct {
	ID           string            `json:"id"`
	Category     string            `json:"category"`
	Limit        float64           `json:"limit"`
	Spent        float64           `json:"spent"`
	UsagePercent int               `json:"usage_percent"`
	NearLimit    bool              `json:"near_limit"`
	Transactions []TransactionItem `json:"transactions"`
}

type ListBudgetsResponse struct {
	Budgets []BudgetResponseItem `json:"budgets"`
}

type ImportResponse struct {
	Imported int                  `json:"imported"`
	Skipped  int                  `json:"skipped"`
	Budgets  []BudgetResponseItem `json:"budgets"`
}

type BankAccountItem struct {
	ID            string `json:"id"`
	BankName      string `json:"bankName"`
	AccountNumber string `json:"accountNumber"`
	IFSC          string `json:"ifsc"`
}

type ListAccountsResponse struct {
	Accounts []BankAccountItem `json:"accounts"`
}

type CategoryUsageItem struct {
	Category     string  `json:"category"`
	Limit        float64 `json:"limit"`
	Spent        float64 `json:"spent"`
	UsagePercent int     `json:"usage_percent"`
	NearLimit    bool    `json:"near_limit"`
}

type SummaryResponse struct {
	TotalLimit  float64             `json:"total_limit"`
	TotalSpent  float64             `json:"total_spent"`
	SafeToSpend float64             `json:"safe_to_spend"`
	Categories  []CategoryUsageItem `json:"categories"`
}

// httpStatusFromError maps the error taxonomy onto HTTP statuses.
// Duplicate-user and invalid-credential failures are 400 like the rest
// of the bad-request family; only token failures produce 401.
func httpStatusFromError(err error) int {
	var resp appErrors.ErrorResponse
	if !errors.As(err, &resp) {
		return 500
	}
	switch resp.Code {
	case appErrors.ErrNotFound:
		return 404
	case appErrors.ErrInvalidInput, appErrors.ErrInvalidCredentials, appErrors.ErrConflict:
		return 400
	case appErrors.ErrAuth:
		return 401
	default:
		return 500
	}
}

// clientMessage returns the message safe to show the caller. Internal
// failures always collapse to a generic message.
func clientMessage(err error) string {
	var resp appErrors.ErrorResponse
	if errors.As(err, &resp) && resp.Code != appErrors.ErrInternal {
		return resp.Message
	}
	return "Server Error"
}

func UserToHttp(user auth.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}
}

func BudgetToHttp(b budget.Budget) BudgetResponseItem {
	transactions := make([]TransactionItem, 0, len(b.Transactions))
	for _, t := range b.Transactions {
		transactions = append(transactions, TransactionItem{
			ID:          t.ID,
			Description: t.Description,
			Amount:      t.Amount,
			Date:        t.CreatedAt.Format(time.RFC3339),
		})
	}
	return BudgetResponseItem{
		ID:           b.ID,
		Category:     b.Category,
		Limit:        b.Limit,
		Spent:        b.Spent,
		UsagePercent: b.UsagePercent(),
		NearLimit:    b.NearLimit(),
		Transactions: transactions,
	}
}

func BudgetsToHttp(budgets []budget.Budget) ListBudgetsResponse {
	items := make([]BudgetResponseItem, 0, len(budgets))
	for _, b := range budgets {
		items = append(items, BudgetToHttp(b))
	}
	return ListBudgetsResponse{Budgets: items}
}

func AccountsToHttp(accounts []budget.BankAccount) ListAccountsResponse {
	items := make([]BankAccountItem, 0, len(accounts))
	for _, a := range accounts {
		items = append(items, BankAccountItem{
			ID:            a.ID,
			BankName:      a.BankName,
			AccountNumber: a.AccountNumber,
			IFSC:          a.IFSC,
		})
	}
	return ListAccountsResponse{Accounts: items}
}

func SummaryToHttp(summary budget.Summary) SummaryResponse {
	categories := make([]CategoryUsageItem, 0, len(summary.Categories))
	for _, c := range summary.Categories {
		categories = append(categories, CategoryUsageItem{
			Category:     c.Category,
			Limit:        c.Limit,
			Spent:        c.Spent,
			UsagePercent: c.UsagePercent,
			NearLimit:    c.NearLimit,
		})
	}
	return SummaryResponse{
		TotalLimit:  summary.TotalLimit,
		TotalSpent:  summary.TotalSpent,
		SafeToSpend: summary.SafeToSpend,
		Categories:  categories,
	}
}
