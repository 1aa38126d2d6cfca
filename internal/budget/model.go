package budget

import (
	"time"
)

// REQUESTS START:

type BudgetItemRequest struct {
	Category string
	Limit    float64
}

type TransactionRequest struct {
	Category    string
	Description string
	Amount      float64
}

type BankAccountRequest struct {
	BankName      string
	AccountNumber string
	IFSC          string
}

// REQUESTS END:

// MODELS:

// Budget is one spending category for one user: a limit, the running
// spent total and the ordered transaction history. The invariant
// spent == sum(transactions.amount) is maintained by the storage layer.
type Budget struct {
	ID           string
	Category     string
	Limit        float64
	Spent        float64
	Transactions []Transaction
	CreatedAt    time.Time
}

// Transaction is an immutable record of one categorized spend event.
type Transaction struct {
	ID          string
	Description string
	Amount      float64
	CreatedAt   time.Time
}

// BankAccount is a linked account descriptor. It is an onboarding
// artifact only; no transaction feed is derived from it.
type BankAccount struct {
	ID            string
	BankName      string
	AccountNumber string
	IFSC          string
	CreatedAt     time.Time
}

// RESPONSES:

type ImportResult struct {
	Imported int
	Skipped  int
	Budgets  []Budget
}

type CategoryUsage struct {
	Category     string
	Limit        float64
	Spent        float64
	UsagePercent int
	NearLimit    bool
}

type Summary struct {
	TotalLimit  float64
	TotalSpent  float64
	SafeToSpend float64
	Categories  []CategoryUsage
}

// UsagePercent reports spent as a whole percentage of the limit.
// A zero limit with spending counts as fully used. Multiplying before
// dividing keeps round percentages exact.
func (b Budget) UsagePercent() int {
	if b.Limit <= 0 {
		if b.Spent > 0 {
			return 100
		}
		return 0
	}
	return int(b.Spent * 100 / b.Limit)
}

// NearLimit reports whether spending crossed the warning threshold.
func (b Budget) NearLimit() bool {
	if b.Limit <= 0 {
		return b.Spent > 0
	}
	return b.Spent*100/b.Limit >= NearLimitPercent
}
