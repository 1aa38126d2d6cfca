package budget

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/paisatrack/paisatrack/customErrors"
	"github.com/paisatrack/paisatrack/internal/auth"
	"github.com/paisatrack/paisatrack/internal/importer"
	"github.com/paisatrack/paisatrack/logging"
)

const (
	MAX_TRANSACTION_AMOUNT_LIMIT = 999999999999999999
	MAX_DESCRIPTION_LENGTH       = 1000
	MAX_CATEGORY_NAME_LENGTH     = 255

	// NearLimitPercent is the usage percentage at which a category is
	// flagged as close to its limit.
	NearLimitPercent = 90
)

// DefaultBudgets seeds every new user with the standard category set.
func DefaultBudgets() []BudgetItemRequest {
	return []BudgetItemRequest{
		{Category: "Food", Limit: 5000},
		{Category: "Shopping", Limit: 4000},
		{Category: "Travel", Limit: 10000},
		{Category: "Other", Limit: 2000},
	}
}

type BudgetTracker struct {
	storage     Storage
	tokens      *auth.TokenIssuer
	StorageType string
}

func NewBudgetTracker(s Storage, tokens *auth.TokenIssuer) BudgetTracker {
	return BudgetTracker{
		storage:     s,
		tokens:      tokens,
		StorageType: s.GetStorageType(),
	}
}

type Storage interface {
	SaveUser(ctx context.Context, user auth.User) error
	GetUserByEmail(ctx context.Context, email string) (auth.User, error)
	GetUserByID(ctx context.Context, id string) (auth.User, error)
	IsEmailTaken(ctx context.Context, email string) (bool, error)
	GetBudgets(ctx context.Context, userId string) ([]Budget, error)
	ReplaceBudgets(ctx context.Context, userId string, budgets []Budget) error
	MergeBudgets(ctx context.Context, userId string, budgets []Budget) error
	AppendTransaction(ctx context.Context, userId string, category string, txn Transaction) error
	SaveBankAccount(ctx context.Context, userId string, account BankAccount) error
	GetBankAccounts(ctx context.Context, userId string) ([]BankAccount, error)
	GetStorageType() string
}

// RegisterUser creates the identity record, seeds the default budget set
// and returns a signed session token for the new user.
func (bt *BudgetTracker) RegisterUser(ctx context.Context, newUser auth.NewUser) (string, error) {
	if err := newUser.ValidateUserFields(); err != nil {
		return "", err
	}

	taken, err := bt.storage.IsEmailTaken(ctx, newUser.Email)
	if err != nil {
		return "", fmt.Errorf("failed to check email availability: %w", err)
	}
	if taken {
		return "", appErrors.ErrorResponse{
			Code:    appErrors.ErrConflict,
			Message: "User already exists",
		}
	}

	hashedPassword, err := auth.HashPassword(newUser.PasswordPlain)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := auth.User{
		ID:             uuid.New().String(),
		Email:          newUser.Email,
		PasswordHashed: hashedPassword,
		CreatedAt:      time.Now().UTC(),
	}

	if err := bt.storage.SaveUser(ctx, user); err != nil {
		return "", fmt.Errorf("failed to registration: %w", err)
	}

	if _, err := bt.SetupBudgets(ctx, user.ID, DefaultBudgets()); err != nil {
		return "", fmt.Errorf("failed to seed default budgets: %w", err)
	}

	token, err := bt.tokens.Issue(user.ID)
	if err != nil {
		return "", fmt.Errorf("registration successful but failed to issue session token: %w | try login", err)
	}
	return token, nil
}

// LoginUser verifies credentials and returns a signed session token.
// Unknown email and wrong password are indistinguishable to the caller.
func (bt *BudgetTracker) LoginUser(ctx context.Context, credentials auth.UserCredentialsPure) (string, error) {
	if credentials.Email == "" || credentials.PasswordPlain == "" {
		return "", appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: "Please enter all fields",
		}
	}

	user, err := bt.storage.GetUserByEmail(ctx, credentials.Email)
	if err != nil {
		var resp appErrors.ErrorResponse
		if errors.As(err, &resp) && resp.Code == appErrors.ErrNotFound {
			return "", invalidCredentials()
		}
		return "", fmt.Errorf("failed to look up user: %w", err)
	}

	if !auth.ComparePasswords(user.PasswordHashed, credentials.PasswordPlain) {
		return "", invalidCredentials()
	}

	return bt.tokens.Issue(user.ID)
}

// CheckToken verifies a session token and returns the bound user id.
func (bt *BudgetTracker) CheckToken(token string) (string, error) {
	return bt.tokens.Verify(token)
}

// GetAccount returns the identity record for userId, never including
// the password hash.
func (bt *BudgetTracker) GetAccount(ctx context.Context, userId string) (auth.User, error) {
	user, err := bt.storage.GetUserByID(ctx, userId)
	if err != nil {
		return auth.User{}, fmt.Errorf("failed to get user: %w", err)
	}
	user.PasswordHashed = ""
	return user, nil
}

func (bt *BudgetTracker) GetBudgets(ctx context.Context, userId string) ([]Budget, error) {
	budgets, err := bt.storage.GetBudgets(ctx, userId)
	if err != nil {
		return nil, fmt.Errorf("failed to get budgets: %w", err)
	}
	return budgets, nil
}

// SetupBudgets replaces the user's whole budget collection. Every entry
// starts with spent=0 and an empty history; prior spending data is
// discarded. Use MergeBudgets to adjust limits without losing history.
func (bt *BudgetTracker) SetupBudgets(ctx context.Context, userId string, items []BudgetItemRequest) ([]Budget, error) {
	budgets, err := buildBudgets(items)
	if err != nil {
		return nil, err
	}

	if err := bt.storage.ReplaceBudgets(ctx, userId, budgets); err != nil {
		return nil, fmt.Errorf("failed to replace budgets: %w", err)
	}
	return bt.GetBudgets(ctx, userId)
}

// MergeBudgets updates limits of existing categories in place, keeping
// spent totals and transaction history, and appends categories the user
// did not have yet.
func (bt *BudgetTracker) MergeBudgets(ctx context.Context, userId string, items []BudgetItemRequest) ([]Budget, error) {
	budgets, err := buildBudgets(items)
	if err != nil {
		return nil, err
	}

	if err := bt.storage.MergeBudgets(ctx, userId, budgets); err != nil {
		return nil, fmt.Errorf("failed to merge budgets: %w", err)
	}
	return bt.GetBudgets(ctx, userId)
}

// RecordTransaction appends one categorized spend event to the matching
// budget and adds the amount to its spent total, atomically. Replaying
// the same request records it again; there is no idempotence key.
func (bt *BudgetTracker) RecordTransaction(ctx context.Context, userId string, req TransactionRequest) ([]Budget, error) {
	if err := validateTransaction(req); err != nil {
		return nil, err
	}

	txn := Transaction{
		ID:          uuid.New().String(),
		Description: req.Description,
		Amount:      req.Amount,
		CreatedAt:   time.Now().UTC(),
	}

	if err := bt.storage.AppendTransaction(ctx, userId, req.Category, txn); err != nil {
		return nil, err
	}

	budgets, err := bt.GetBudgets(ctx, userId)
	if err != nil {
		return nil, err
	}

	for _, b := range budgets {
		if b.Category == req.Category && b.NearLimit() {
			logging.Logger.Warnf("budget category '%s' of user %s reached %d%% of its limit", b.Category, userId, b.UsagePercent())
		}
	}
	return budgets, nil
}

// ImportStatement records a batch of parsed statement entries. Entries
// without an explicit category are categorized by keyword; entries whose
// category has no budget fall back to the user's fallback budget when it
// exists, otherwise they are skipped.
func (bt *BudgetTracker) ImportStatement(ctx context.Context, userId string, entries []importer.Entry) (ImportResult, error) {
	budgets, err := bt.GetBudgets(ctx, userId)
	if err != nil {
		return ImportResult{}, err
	}

	known := make(map[string]bool, len(budgets))
	for _, b := range budgets {
		known[b.Category] = true
	}

	result := ImportResult{}
	for _, entry := range entries {
		category := entry.Category
		if category == "" {
			category = Categorize(entry.Description)
		}
		if !known[category] {
			if !known[FallbackCategory] {
				result.Skipped++
				continue
			}
			category = FallbackCategory
		}

		txn := Transaction{
			ID:          uuid.New().String(),
			Description: entry.Description,
			Amount:      entry.Amount.InexactFloat64(),
			CreatedAt:   entry.Date.UTC(),
		}
		if err := bt.storage.AppendTransaction(ctx, userId, category, txn); err != nil {
			return ImportResult{}, fmt.Errorf("failed to import statement entry '%s': %w", entry.Description, err)
		}
		result.Imported++
	}

	result.Budgets, err = bt.GetBudgets(ctx, userId)
	if err != nil {
		return ImportResult{}, err
	}
	return result, nil
}

// LinkBankAccount stores a linked account descriptor and returns the
// updated list.
func (bt *BudgetTracker) LinkBankAccount(ctx context.Context, userId string, req BankAccountRequest) ([]BankAccount, error) {
	if req.BankName == "" || req.AccountNumber == "" || req.IFSC == "" {
		return nil, appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: "Please provide all bank account details.",
		}
	}

	account := BankAccount{
		ID:            uuid.New().String(),
		BankName:      req.BankName,
		AccountNumber: req.AccountNumber,
		IFSC:          strings.ToUpper(req.IFSC),
		CreatedAt:     time.Now().UTC(),
	}

	if err := bt.storage.SaveBankAccount(ctx, userId, account); err != nil {
		return nil, fmt.Errorf("failed to save bank account: %w", err)
	}

	accounts, err := bt.storage.GetBankAccounts(ctx, userId)
	if err != nil {
		return nil, fmt.Errorf("failed to get bank accounts: %w", err)
	}
	return accounts, nil
}

// GetSummary aggregates the whole budget collection into dashboard
// numbers. Safe-to-spend is the remaining allowance summed over
// categories, never counting overspent categories as negative.
func (bt *BudgetTracker) GetSummary(ctx context.Context, userId string) (Summary, error) {
	budgets, err := bt.GetBudgets(ctx, userId)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{Categories: make([]CategoryUsage, 0, len(budgets))}
	for _, b := range budgets {
		summary.TotalLimit += b.Limit
		summary.TotalSpent += b.Spent
		if remaining := b.Limit - b.Spent; remaining > 0 {
			summary.SafeToSpend += remaining
		}
		summary.Categories = append(summary.Categories, CategoryUsage{
			Category:     b.Category,
			Limit:        b.Limit,
			Spent:        b.Spent,
			UsagePercent: b.UsagePercent(),
			NearLimit:    b.NearLimit(),
		})
	}
	return summary, nil
}

func buildBudgets(items []BudgetItemRequest) ([]Budget, error) {
	if len(items) == 0 {
		return nil, appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: "Invalid budget data provided.",
		}
	}

	seen := make(map[string]bool, len(items))
	now := time.Now().UTC()
	budgets := make([]Budget, 0, len(items))
	for _, item := range items {
		if item.Category == "" {
			return nil, appErrors.ErrorResponse{
				Code:    appErrors.ErrInvalidInput,
				Message: "Budget category cannot be empty.",
			}
		}
		if len(item.Category) > MAX_CATEGORY_NAME_LENGTH {
			return nil, appErrors.ErrorResponse{
				Code:    appErrors.ErrInvalidInput,
				Message: fmt.Sprintf("Budget category so long, maximum length is %d", MAX_CATEGORY_NAME_LENGTH),
			}
		}
		if item.Limit < 0 {
			return nil, appErrors.ErrorResponse{
				Code:    appErrors.ErrInvalidInput,
				Message: fmt.Sprintf("Budget limit for '%s' cannot be negative.", item.Category),
			}
		}
		if seen[item.Category] {
			return nil, appErrors.ErrorResponse{
				Code:    appErrors.ErrInvalidInput,
				Message: fmt.Sprintf("Duplicate budget category: '%s'.", item.Category),
			}
		}
		seen[item.Category] = true

		budgets = append(budgets, Budget{
			ID:        uuid.New().String(),
			Category:  item.Category,
			Limit:     item.Limit,
			Spent:     0,
			CreatedAt: now,
		})
	}
	return budgets, nil
}

func validateTransaction(req TransactionRequest) error {
	if req.Category == "" || req.Description == "" {
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: "Please provide category, amount, and description",
		}
	}
	if req.Amount <= 0 {
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: "Transaction amount must be greater than zero.",
		}
	}
	if req.Amount > MAX_TRANSACTION_AMOUNT_LIMIT {
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: fmt.Sprintf("Maximum allowed amount per transaction is: %d", MAX_TRANSACTION_AMOUNT_LIMIT),
		}
	}
	if len(req.Description) > MAX_DESCRIPTION_LENGTH {
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: fmt.Sprintf("Description so long, maximum allowed length is: %d", MAX_DESCRIPTION_LENGTH),
		}
	}
	return nil
}

func invalidCredentials() error {
	return appErrors.ErrorResponse{
		Code:    appErrors.ErrInvalidCredentials,
		Message: "Invalid credentials",
	}
}
