package storage

import (
	"context"
	"fmt"
	"sync"

	appErrors "github.com/paisatrack/paisatrack/customErrors"
	authModel "github.com/paisatrack/paisatrack/internal/auth"
	budgetModel "github.com/paisatrack/paisatrack/internal/budget"
)

// InMemoryStorage keeps everything in process memory. It backs the test
// suite and mirrors the MySQL storage semantics, including the atomic
// append-and-increment of AppendTransaction.
type InMemoryStorage struct {
	mu       sync.Mutex
	users    []authModel.User
	budgets  map[string][]budgetModel.Budget
	accounts map[string][]budgetModel.BankAccount
}

func NewInMemoryStorage() *InMemoryStorage {
	return &InMemoryStorage{
		budgets:  make(map[string][]budgetModel.Budget),
		accounts: make(map[string][]budgetModel.BankAccount),
	}
}

func (inMem *InMemoryStorage) GetStorageType() string {
	return "inmemory"
}

func (inMem *InMemoryStorage) SaveUser(ctx context.Context, newUser authModel.User) error {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()

	for _, user := range inMem.users {
		if user.Email == newUser.Email {
			return appErrors.ErrorResponse{
				Code:    appErrors.ErrConflict,
				Message: "User already exists",
			}
		}
	}
	inMem.users = append(inMem.users, newUser)
	return nil
}

func (inMem *InMemoryStorage) GetUserByEmail(ctx context.Context, email string) (authModel.User, error) {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()

	for _, user := range inMem.users {
		if user.Email == email {
			return user, nil
		}
	}
	return authModel.User{}, appErrors.ErrorResponse{
		Code:    appErrors.ErrNotFound,
		Message: "User not found",
	}
}

func (inMem *InMemoryStorage) GetUserByID(ctx context.Context, id string) (authModel.User, error) {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()

	for _, user := range inMem.users {
		if user.ID == id {
			return user, nil
		}
	}
	return authModel.User{}, appErrors.ErrorResponse{
		Code:    appErrors.ErrNotFound,
		Message: "User not found",
	}
}

func (inMem *InMemoryStorage) IsEmailTaken(ctx context.Context, email string) (bool, error) {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()

	for _, user := range inMem.users {
		if user.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (inMem *InMemoryStorage) GetBudgets(ctx context.Context, userId string) ([]budgetModel.Budget, error) {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()

	return copyBudgets(inMem.budgets[userId]), nil
}

func (inMem *InMemoryStorage) ReplaceBudgets(ctx context.Context, userId string, budgets []budgetModel.Budget) error {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()

	inMem.budgets[userId] = copyBudgets(budgets)
	return nil
}

func (inMem *InMemoryStorage) MergeBudgets(ctx context.Context, userId string, budgets []budgetModel.Budget) error {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()

	existing := inMem.budgets[userId]
	for _, incoming := range budgets {
		merged := false
		for i := range existing {
			if existing[i].Category == incoming.Category {
				existing[i].Limit = incoming.Limit
				merged = true
				break
			}
		}
		if !merged {
			existing = append(existing, copyBudget(incoming))
		}
	}
	inMem.budgets[userId] = existing
	return nil
}

func (inMem *InMemoryStorage) AppendTransaction(ctx context.Context, userId string, category string, txn budgetModel.Transaction) error {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()

	budgets := inMem.budgets[userId]
	for i := range budgets {
		if budgets[i].Category == category {
			budgets[i].Transactions = append(budgets[i].Transactions, txn)
			budgets[i].Spent += txn.Amount
			return nil
		}
	}
	return appErrors.ErrorResponse{
		Code:    appErrors.ErrNotFound,
		Message: fmt.Sprintf("Budget category '%s' not found.", category),
	}
}

func (inMem *InMemoryStorage) SaveBankAccount(ctx context.Context, userId string, account budgetModel.BankAccount) error {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()

	inMem.accounts[userId] = append(inMem.accounts[userId], account)
	return nil
}

func (inMem *InMemoryStorage) GetBankAccounts(ctx context.Context, userId string) ([]budgetModel.BankAccount, error) {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()

	accounts := make([]budgetModel.BankAccount, len(inMem.accounts[userId]))
	copy(accounts, inMem.accounts[userId])
	return accounts, nil
}

func copyBudget(b budgetModel.Budget) budgetModel.Budget {
	out := b
	out.Transactions = make([]budgetModel.Transaction, len(b.Transactions))
	copy(out.Transactions, b.Transactions)
	return out
}

func copyBudgets(budgets []budgetModel.Budget) []budgetModel.Budget {
	out := make([]budgetModel.Budget, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, copyBudget(b))
	}
	return out
}
