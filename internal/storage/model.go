package storage

import "time"

type dbBudget struct {
	ID        string
	Category  string
	Limit     float64
	Spent     float64
	CreatedAt time.Time
}

type dbTransaction struct {
	ID          string
	BudgetID    string
	Description string
	Amount      float64
	CreatedAt   time.Time
}
