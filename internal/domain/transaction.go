package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

// DateLayout is the calendar-date format of Transaction.Date.
const DateLayout = "2006-01-02"

// Transaction is a single income or expense record.
type Transaction struct {
	ID          string          `json:"id"`
	Type        TransactionType `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Category    CategoryID      `json:"category"`
	Date        string          `json:"date"`
	Notes       string          `json:"notes,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// TransactionInput carries the editable fields of a transaction as entered.
type TransactionInput struct {
	Type        TransactionType
	Amount      string
	Description string
	Category    CategoryID
	Date        string
	Notes       string
}

// Summary holds the dashboard totals.
type Summary struct {
	TotalIncome  decimal.Decimal
	TotalExpense decimal.Decimal
	Balance      decimal.Decimal
	SavingsRate  decimal.Decimal // percent of income kept
}

// DayTotals is one bucket of the trailing-days chart.
type DayTotals struct {
	Date    string // YYYY-MM-DD
	Label   string // e.g. "Jan 2"
	Income  decimal.Decimal
	Expense decimal.Decimal
}

// CategoryTotal is the summed expense amount for one category.
type CategoryTotal struct {
	Category Category
	Total    decimal.Decimal
}

// ParseTransactionType validates a type name.
func ParseTransactionType(s string) (TransactionType, error) {
	switch t := TransactionType(strings.ToLower(strings.TrimSpace(s))); t {
	case TypeIncome, TypeExpense:
		return t, nil
	default:
		return "", fmt.Errorf("%w: type must be income or expense", ErrInvalidInput)
	}
}

// MaxAmount is the largest amount a transaction may carry.
var MaxAmount = decimal.New(1, 12)

// maxAmountExponent bounds the exponent before any comparison, so a value
// like 1e20000000 is rejected without being expanded.
const maxAmountExponent = 12

// ParseAmount parses a non-negative decimal amount with at most two decimal
// places, no larger than MaxAmount.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: amount is required", ErrInvalidInput)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: amount %q is not a number", ErrInvalidInput, s)
	}
	if d.IsZero() {
		return decimal.Zero, nil
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: amount must not be negative", ErrInvalidInput)
	}
	if d.Exponent() < -2 {
		return decimal.Zero, fmt.Errorf("%w: amount must have at most two decimal places", ErrInvalidInput)
	}
	if d.Exponent() > maxAmountExponent || d.GreaterThan(MaxAmount) {
		return decimal.Zero, fmt.Errorf("%w: amount must not exceed %s", ErrInvalidInput, MaxAmount)
	}
	return d, nil
}

// ParseDate parses a YYYY-MM-DD calendar date in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}
	return d, nil
}
