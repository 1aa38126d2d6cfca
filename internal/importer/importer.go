// Package importer parses simulated UPI statement exports into entries
// the budget ledger can record.
package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	appErrors "github.com/paisatrack/paisatrack/customErrors"
)

const (
	dateFormat = "2006-01-02"

	colDate     = 0
	colDesc     = 1
	colAmount   = 2
	colCategory = 3

	minFields = 3
	maxFields = 4
)

// Entry is one parsed statement row. Category is empty when the row
// leaves categorization to the server.
type Entry struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal
	Category    string
}

// Parse reads a CSV statement of the form
//
//	date,description,amount[,category]
//
// with a header row and dates formatted as 2006-01-02. Amounts must be
// positive. Any bad row aborts the whole parse; nothing is imported
// from a defective statement.
func Parse(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: fmt.Sprintf("Invalid statement file: %v", err),
		}
	}

	if len(records) == 0 || !isHeader(records[0]) {
		return nil, appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: "Statement must start with a 'date,description,amount' header row.",
		}
	}

	var entries []Entry
	for i, rec := range records[1:] {
		entry, err := parseRow(rec)
		if err != nil {
			return nil, appErrors.ErrorResponse{
				Code:    appErrors.ErrInvalidInput,
				Message: fmt.Sprintf("Statement row %d: %v", i+2, err),
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func parseRow(rec []string) (Entry, error) {
	if len(rec) < minFields || len(rec) > maxFields {
		return Entry{}, fmt.Errorf("expected %d or %d fields, got %d", minFields, maxFields, len(rec))
	}

	date, err := time.Parse(dateFormat, strings.TrimSpace(rec[colDate]))
	if err != nil {
		return Entry{}, fmt.Errorf("parsing date %q: %w", rec[colDate], err)
	}

	desc := strings.TrimSpace(rec[colDesc])
	if desc == "" {
		return Entry{}, fmt.Errorf("description is empty")
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(rec[colAmount]))
	if err != nil {
		return Entry{}, fmt.Errorf("parsing amount %q: %w", rec[colAmount], err)
	}
	if !amount.IsPositive() {
		return Entry{}, fmt.Errorf("amount %s is not positive", amount)
	}

	entry := Entry{
		Date:        date,
		Description: desc,
		Amount:      amount,
	}
	if len(rec) == maxFields {
		entry.Category = strings.TrimSpace(rec[colCategory])
	}
	return entry, nil
}

func isHeader(rec []string) bool {
	if len(rec) < minFields {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(rec[colDate]), "date") &&
		strings.EqualFold(strings.TrimSpace(rec[colDesc]), "description") &&
		strings.EqualFold(strings.TrimSpace(rec[colAmount]), "amount")
}
