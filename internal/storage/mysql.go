package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	appErrors "github.com/paisatrack/paisatrack/customErrors"
	"github.com/paisatrack/paisatrack/internal/auth"
	"github.com/paisatrack/paisatrack/internal/budget"
	"github.com/paisatrack/paisatrack/internal/config"
	"github.com/paisatrack/paisatrack/internal/contextutil"
	"github.com/paisatrack/paisatrack/logging"
)

// --- INIT START --- //

// Init connects to MySQL, creates the database when missing and applies
// pending migrations from db/migrations.
func Init(cfg *config.Config) (*sql.DB, error) {
	dbname := cfg.DBName

	var adminDsn string
	if cfg.FullDSN != "" {
		parts := strings.Split(cfg.FullDSN, "/")
		adminDsn = strings.Join(parts[:len(parts)-1], "/") + "/"
	} else {
		adminDsn = fmt.Sprintf("%s:%s@tcp(%s:%s)/?parseTime=true", cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort)
	}

	logging.Logger.Info("Connecting to MySQL server for initialization...")
	adminDb, err := sql.Open("mysql", adminDsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open admin mysql handle: %v", err)
	}
	connected := false
	for i := 0; i < 15; i++ {
		if err := adminDb.Ping(); err == nil {
			connected = true
			break
		}
		logging.Logger.Warnf("Database not ready, retrying... (%d/15)", i+1)
		time.Sleep(3 * time.Second)
	}
	if !connected {
		adminDb.Close()
		return nil, fmt.Errorf("database unreachable after multiple attempts")
	}

	var dbnameExistence string
	checkDbnameExistQuery := "SELECT SCHEMA_NAME FROM INFORMATION_SCHEMA.SCHEMATA WHERE SCHEMA_NAME = ?"
	err = adminDb.QueryRow(checkDbnameExistQuery, dbname).Scan(&dbnameExistence)

	if err == sql.ErrNoRows {
		logging.Logger.Infof("Database '%s' does not exist, creating...", dbname)
		createDbSql := fmt.Sprintf("CREATE DATABASE `%s` CHARACTER SET utf8mb4 COLLATE utf8mb4_general_ci;", dbname)
		if _, err := adminDb.Exec(createDbSql); err != nil {
			adminDb.Close()
			return nil, fmt.Errorf("failed to create database: %v", err)
		}
	} else if err != nil {
		adminDb.Close()
		return nil, fmt.Errorf("failed to check database existence: %v", err)
	}

	adminDb.Close()

	var finalDsn string
	if cfg.FullDSN != "" {
		finalDsn = cfg.FullDSN
	} else {
		finalDsn = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true", cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, dbname)
	}

	logging.Logger.Info("Connecting to database...")
	db, err := sql.Open("mysql", finalDsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database handle: %v", err)
	}

	logging.Logger.Info("Connected to database successfully")
	logging.Logger.Info("Running migrations...")

	if err := runMigrations(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	return db, nil
}

func runMigrations(db *sql.DB) error {
	migrationFiles, err := getMigrationFiles("db/migrations")
	if err != nil {
		return fmt.Errorf("failed to get migration files: %v", err)
	}

	lastAppliedMigration, err := getLastAppliedMigration(db)
	if err != nil {
		return fmt.Errorf("failed to get last applied migration name: %v", err)
	}

	newMigrations := filterNewMigrations(migrationFiles, lastAppliedMigration)

	if len(newMigrations) == 0 {
		logging.Logger.Info("no new migration")
		return nil
	}

	for _, migrationFile := range newMigrations {
		logging.Logger.Info("applying migration: ", migrationFile)
		migrationContent, err := os.ReadFile(filepath.Join("db/migrations/", migrationFile))
		if err != nil {
			return fmt.Errorf("failed to read this '%s' migration file, error: %v", migrationFile, err)
		}

		err = applyMigration(db, migrationFile, string(migrationContent))
		if err != nil {
			return fmt.Errorf("failed to apply this '%s' migration file, error: %v", migrationFile, err)
		}
	}

	logging.Logger.Info("all migrations applied successfully")
	return nil
}

func getMigrationFiles(dir string) ([]string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var migrationFiles []string
	for _, file := range files {
		if !file.IsDir() && strings.HasSuffix(file.Name(), ".sql") {
			migrationFiles = append(migrationFiles, file.Name())
		}
	}

	sort.Strings(migrationFiles)
	return migrationFiles, nil
}

func getLastAppliedMigration(db *sql.DB) (string, error) {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS migration (
        id INT AUTO_INCREMENT PRIMARY KEY,
        migration_name VARCHAR(255) NOT NULL UNIQUE,
        applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
    );`)

	if err != nil {
		return "", err
	}

	var lastMigration string
	err = db.QueryRow("SELECT migration_name FROM migration ORDER BY migration_name DESC LIMIT 1").Scan(&lastMigration)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return lastMigration, err
}

func filterNewMigrations(all []string, lastApplied string) []string {
	if lastApplied == "" {
		return all
	}

	var result []string
	for _, migration := range all {
		if migration > lastApplied {
			result = append(result, migration)
		}
	}
	return result
}

func applyMigration(db *sql.DB, name, sqlContent string) error {
	txn, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	statements := strings.Split(sqlContent, ";")

	for _, statement := range statements {
		trimmedStmt := strings.TrimSpace(statement)
		if trimmedStmt == "" {
			continue
		}

		if _, err := txn.Exec(trimmedStmt); err != nil {
			txn.Rollback()
			return fmt.Errorf("migration statement failed: %w\nStatement: %s", err, trimmedStmt)
		}
	}

	if _, err := txn.Exec("INSERT INTO migration (migration_name) VALUES (?)", name); err != nil {
		txn.Rollback()
		return fmt.Errorf("failed to record migration name: %w", err)
	}

	return txn.Commit()
}

// --- INIT END --- //

type MySQLStorage struct {
	db *sql.DB
}

func NewMySQLStorage(db *sql.DB) *MySQLStorage {
	return &MySQLStorage{db: db}
}

func (mySql *MySQLStorage) GetStorageType() string {
	return "mysql"
}

func (mySql *MySQLStorage) SaveUser(ctx context.Context, user auth.User) error {
	traceID := contextutil.TraceIDFromContext(ctx)

	query := "INSERT INTO user (id, email, hashed_password, created_at) VALUES (?, ?, ?, ?);"
	_, err := mySql.db.ExecContext(ctx, query, user.ID, user.Email, user.PasswordHashed, user.CreatedAt)
	if err != nil {
		if mysqlErr, ok := err.(*mysql.MySQLError); ok && mysqlErr.Number == 1062 {
			return appErrors.ErrorResponse{
				Code:    appErrors.ErrConflict,
				Message: "User already exists",
			}
		}
		logging.Logger.Errorf("[TraceID=%s] | failed to save user in Storage.SaveUser() function | Error: %v", traceID, err)
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInternal,
			Message: "Registration failed, try again later.",
		}
	}
	return nil
}

// Email lookups use BINARY comparison: MySQL's default collation is
// case-insensitive but emails are stored and matched case-sensitively.
func (mySql *MySQLStorage) GetUserByEmail(ctx context.Context, email string) (auth.User, error) {
	traceID := contextutil.TraceIDFromContext(ctx)

	query := "SELECT id, email, hashed_password, created_at FROM user WHERE BINARY email = ?;"
	var user auth.User
	err := mySql.db.QueryRowContext(ctx, query, email).Scan(&user.ID, &user.Email, &user.PasswordHashed, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return auth.User{}, appErrors.ErrorResponse{
				Code:    appErrors.ErrNotFound,
				Message: "User not found",
			}
		}
		logging.Logger.Errorf("[TraceID=%s] | failed to get user by email in Storage.GetUserByEmail() function | Error: %v", traceID, err)
		return auth.User{}, appErrors.ErrorResponse{
			Code:    appErrors.ErrInternal,
			Message: "Failed to look up user, try again later.",
		}
	}
	return user, nil
}

func (mySql *MySQLStorage) GetUserByID(ctx context.Context, id string) (auth.User, error) {
	traceID := contextutil.TraceIDFromContext(ctx)

	query := "SELECT id, email, hashed_password, created_at FROM user WHERE id = ?;"
	var user auth.User
	err := mySql.db.QueryRowContext(ctx, query, id).Scan(&user.ID, &user.Email, &user.PasswordHashed, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return auth.User{}, appErrors.ErrorResponse{
				Code:    appErrors.ErrNotFound,
				Message: "User not found",
			}
		}
		logging.Logger.Errorf("[TraceID=%s] | failed to get user by id in Storage.GetUserByID() function | Error: %v", traceID, err)
		return auth.User{}, appErrors.ErrorResponse{
			Code:    appErrors.ErrInternal,
			Message: "Failed to look up user, try again later.",
		}
	}
	return user, nil
}

func (mySql *MySQLStorage) IsEmailTaken(ctx context.Context, email string) (bool, error) {
	traceID := contextutil.TraceIDFromContext(ctx)

	query := "SELECT 1 FROM user WHERE BINARY email = ? LIMIT 1;"
	var one int
	err := mySql.db.QueryRowContext(ctx, query, email).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		logging.Logger.Errorf("[TraceID=%s] | failed to check email existence in Storage.IsEmailTaken() function | Error: %v", traceID, err)
		return false, appErrors.ErrorResponse{
			Code:    appErrors.ErrInternal,
			Message: "Registration failed, try again later.",
		}
	}
	return true, nil
}

func (mySql *MySQLStorage) GetBudgets(ctx context.Context, userId string) ([]budget.Budget, error) {
	traceID := contextutil.TraceIDFromContext(ctx)

	budgetQuery := "SELECT id, category, limit_amount, spent, created_at FROM budget WHERE user_id = ? ORDER BY position;"
	rows, err := mySql.db.QueryContext(ctx, budgetQuery, userId)
	if err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to get budgets in Storage.GetBudgets() function | Error: %v", traceID, err)
		return nil, appErrors.ErrorResponse{
			Code:    appErrors.ErrInternal,
			Message: "Failed to get budgets, try again later.",
		}
	}
	defer rows.Close()

	budgets := []budget.Budget{}
	index := map[string]int{}
	for rows.Next() {
		var row dbBudget
		if err := rows.Scan(&row.ID, &row.Category, &row.Limit, &row.Spent, &row.CreatedAt); err != nil {
			logging.Logger.Errorf("[TraceID=%s] | failed to scan budget row in Storage.GetBudgets() function | Error: %v", traceID, err)
			return nil, appErrors.ErrorResponse{
				Code:    appErrors.ErrInternal,
				Message: "Failed to get budgets, try again later.",
			}
		}
		index[row.ID] = len(budgets)
		budgets = append(budgets, budget.Budget{
			ID:           row.ID,
			Category:     row.Category,
			Limit:        row.Limit,
			Spent:        row.Spent,
			Transactions: []budget.Transaction{},
			CreatedAt:    row.CreatedAt,
		})
	}
	if err := rows.Err(); err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to iterate budget rows in Storage.GetBudgets() function | Error: %v", traceID, err)
		return nil, appErrors.ErrorResponse{
			Code:    appErrors.ErrInternal,
			Message: "Failed to get budgets, try again later.",
		}
	}

	txnQuery := `SELECT t.id, t.budget_id, t.description, t.amount, t.created_at
		FROM budget_transaction t
		JOIN budget b ON b.id = t.budget_id
		WHERE b.user_id = ?
		ORDER BY t.created_at, t.id;`
	txnRows, err := mySql.db.QueryContext(ctx, txnQuery, userId)
	if err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to get transactions in Storage.GetBudgets() function | Error: %v", traceID, err)
		return nil, appErrors.ErrorResponse{
			Code:    appErrors.ErrInternal,
			Message: "Failed to get budgets, try again later.",
		}
	}
	defer txnRows.Close()

	for txnRows.Next() {
		var row dbTransaction
		if err := txnRows.Scan(&row.ID, &row.BudgetID, &row.Description, &row.Amount, &row.CreatedAt); err != nil {
			logging.Logger.Errorf("[TraceID=%s] | failed to scan transaction row in Storage.GetBudgets() function | Error: %v", traceID, err)
			return nil, appErrors.ErrorResponse{
				Code:    appErrors.ErrInternal,
				Message: "Failed to get budgets, try again later.",
			}
		}
		if i, ok := index[row.BudgetID]; ok {
			budgets[i].Transactions = append(budgets[i].Transactions, budget.Transaction{
				ID:          row.ID,
				Description: row.Description,
				Amount:      row.Amount,
				CreatedAt:   row.CreatedAt,
			})
		}
	}
	if err := txnRows.Err(); err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to iterate transaction rows in Storage.GetBudgets() function | Error: %v", traceID, err)
		return nil, appErrors.ErrorResponse{
			Code:    appErrors.ErrInternal,
			Message: "Failed to get budgets, try again later.",
		}
	}

	return budgets, nil
}

// ReplaceBudgets wipes the user's budget collection and writes the new
// one in a single transaction. Transaction history goes with the old
// rows (ON DELETE CASCADE).
func (mySql *MySQLStorage) ReplaceBudgets(ctx context.Context, userId string, budgets []budget.Budget) error {
	traceID := contextutil.TraceIDFromContext(ctx)

	txn, err := mySql.db.BeginTx(ctx, nil)
	if err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to start transaction in Storage.ReplaceBudgets() function | Error: %v", traceID, err)
		return internalBudgetError()
	}
	defer txn.Rollback()

	if _, err := txn.ExecContext(ctx, "DELETE FROM budget WHERE user_id = ?;", userId); err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to delete old budgets in Storage.ReplaceBudgets() function | Error: %v", traceID, err)
		return internalBudgetError()
	}

	insertQuery := "INSERT INTO budget (id, user_id, category, limit_amount, spent, position, created_at) VALUES (?, ?, ?, ?, ?, ?, ?);"
	for i, b := range budgets {
		if _, err := txn.ExecContext(ctx, insertQuery, b.ID, userId, b.Category, b.Limit, b.Spent, i, b.CreatedAt); err != nil {
			logging.Logger.Errorf("[TraceID=%s] | failed to insert budget in Storage.ReplaceBudgets() function | Error: %v", traceID, err)
			return internalBudgetError()
		}
	}

	if err := txn.Commit(); err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to commit in Storage.ReplaceBudgets() function | Error: %v", traceID, err)
		return internalBudgetError()
	}
	return nil
}

// MergeBudgets updates limits of categories the user already has and
// appends the rest, never touching spent totals or history.
func (mySql *MySQLStorage) MergeBudgets(ctx context.Context, userId string, budgets []budget.Budget) error {
	traceID := contextutil.TraceIDFromContext(ctx)

	txn, err := mySql.db.BeginTx(ctx, nil)
	if err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to start transaction in Storage.MergeBudgets() function | Error: %v", traceID, err)
		return internalBudgetError()
	}
	defer txn.Rollback()

	var nextPosition int
	err = txn.QueryRowContext(ctx, "SELECT COALESCE(MAX(position), -1) + 1 FROM budget WHERE user_id = ?;", userId).Scan(&nextPosition)
	if err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to get next position in Storage.MergeBudgets() function | Error: %v", traceID, err)
		return internalBudgetError()
	}

	for _, b := range budgets {
		var existingId string
		err := txn.QueryRowContext(ctx, "SELECT id FROM budget WHERE user_id = ? AND category = ? FOR UPDATE;", userId, b.Category).Scan(&existingId)
		switch {
		case err == nil:
			if _, err := txn.ExecContext(ctx, "UPDATE budget SET limit_amount = ? WHERE id = ?;", b.Limit, existingId); err != nil {
				logging.Logger.Errorf("[TraceID=%s] | failed to update budget limit in Storage.MergeBudgets() function | Error: %v", traceID, err)
				return internalBudgetError()
			}
		case errors.Is(err, sql.ErrNoRows):
			insertQuery := "INSERT INTO budget (id, user_id, category, limit_amount, spent, position, created_at) VALUES (?, ?, ?, ?, ?, ?, ?);"
			if _, err := txn.ExecContext(ctx, insertQuery, b.ID, userId, b.Category, b.Limit, b.Spent, nextPosition, b.CreatedAt); err != nil {
				logging.Logger.Errorf("[TraceID=%s] | failed to insert budget in Storage.MergeBudgets() function | Error: %v", traceID, err)
				return internalBudgetError()
			}
			nextPosition++
		default:
			logging.Logger.Errorf("[TraceID=%s] | failed to look up budget in Storage.MergeBudgets() function | Error: %v", traceID, err)
			return internalBudgetError()
		}
	}

	if err := txn.Commit(); err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to commit in Storage.MergeBudgets() function | Error: %v", traceID, err)
		return internalBudgetError()
	}
	return nil
}

// AppendTransaction inserts the spend event and increments the budget's
// spent total in one transaction, locking the budget row so concurrent
// appends for the same category serialize instead of losing updates.
func (mySql *MySQLStorage) AppendTransaction(ctx context.Context, userId string, category string, t budget.Transaction) error {
	traceID := contextutil.TraceIDFromContext(ctx)

	txn, err := mySql.db.BeginTx(ctx, nil)
	if err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to start transaction in Storage.AppendTransaction() function | Error: %v", traceID, err)
		return internalTransactionError()
	}
	defer txn.Rollback()

	var budgetId string
	err = txn.QueryRowContext(ctx, "SELECT id FROM budget WHERE user_id = ? AND category = ? FOR UPDATE;", userId, category).Scan(&budgetId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrorResponse{
				Code:    appErrors.ErrNotFound,
				Message: fmt.Sprintf("Budget category '%s' not found.", category),
			}
		}
		logging.Logger.Errorf("[TraceID=%s] | failed to look up budget in Storage.AppendTransaction() function | Error: %v", traceID, err)
		return internalTransactionError()
	}

	insertQuery := "INSERT INTO budget_transaction (id, budget_id, description, amount, created_at) VALUES (?, ?, ?, ?, ?);"
	if _, err := txn.ExecContext(ctx, insertQuery, t.ID, budgetId, t.Description, t.Amount, t.CreatedAt); err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to insert transaction in Storage.AppendTransaction() function | Error: %v", traceID, err)
		return internalTransactionError()
	}

	if _, err := txn.ExecContext(ctx, "UPDATE budget SET spent = spent + ? WHERE id = ?;", t.Amount, budgetId); err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to increment spent in Storage.AppendTransaction() function | Error: %v", traceID, err)
		return internalTransactionError()
	}

	if err := txn.Commit(); err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to commit in Storage.AppendTransaction() function | Error: %v", traceID, err)
		return internalTransactionError()
	}
	return nil
}

func (mySql *MySQLStorage) SaveBankAccount(ctx context.Context, userId string, account budget.BankAccount) error {
	traceID := contextutil.TraceIDFromContext(ctx)

	query := "INSERT INTO bank_account (id, user_id, bank_name, account_number, ifsc, created_at) VALUES (?, ?, ?, ?, ?, ?);"
	_, err := mySql.db.ExecContext(ctx, query, account.ID, userId, account.BankName, account.AccountNumber, account.IFSC, account.CreatedAt)
	if err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to save bank account in Storage.SaveBankAccount() function | Error: %v", traceID, err)
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInternal,
			Message: "Failed to save the bank account, try again later.",
		}
	}
	return nil
}

func (mySql *MySQLStorage) GetBankAccounts(ctx context.Context, userId string) ([]budget.BankAccount, error) {
	traceID := contextutil.TraceIDFromContext(ctx)

	query := "SELECT id, bank_name, account_number, ifsc, created_at FROM bank_account WHERE user_id = ? ORDER BY created_at, id;"
	rows, err := mySql.db.QueryContext(ctx, query, userId)
	if err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to get bank accounts in Storage.GetBankAccounts() function | Error: %v", traceID, err)
		return nil, appErrors.ErrorResponse{
			Code:    appErrors.ErrInternal,
			Message: "Failed to get bank accounts, try again later.",
		}
	}
	defer rows.Close()

	accounts := []budget.BankAccount{}
	for rows.Next() {
		var account budget.BankAccount
		if err := rows.Scan(&account.ID, &account.BankName, &account.AccountNumber, &account.IFSC, &account.CreatedAt); err != nil {
			logging.Logger.Errorf("[TraceID=%s] | failed to scan bank account row in Storage.GetBankAccounts() function | Error: %v", traceID, err)
			return nil, appErrors.ErrorResponse{
				Code:    appErrors.ErrInternal,
				Message: "Failed to get bank accounts, try again later.",
			}
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to iterate bank account rows in Storage.GetBankAccounts() function | Error: %v", traceID, err)
		return nil, appErrors.ErrorResponse{
			Code:    appErrors.ErrInternal,
			Message: "Failed to get bank accounts, try again later.",
		}
	}
	return accounts, nil
}

func internalBudgetError() error {
	return appErrors.ErrorResponse{
		Code:    appErrors.ErrInternal,
		Message: "Failed to save budgets, try again later.",
	}
}

func internalTransactionError() error {
	return appErrors.ErrorResponse{
		Code:    appErrors.ErrInternal,
		Message: "Failed to save the transaction, try again later.",
	}
}
