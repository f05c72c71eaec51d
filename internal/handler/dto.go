package handler

import (
	"time"

	"github.com/msomdec/expense-tracker/internal/domain"
)

// UserDTO is the JSON representation of a user. The password never leaves
// the server.
type UserDTO struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Email       string             `json:"email"`
	CreatedAt   string             `json:"createdAt"`
	Preferences domain.Preferences `json:"preferences"`
}

func toUserDTO(u *domain.User) UserDTO {
	return UserDTO{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		CreatedAt:   u.CreatedAt.Format(time.RFC3339),
		Preferences: u.Preferences,
	}
}

// TransactionDTO is the JSON representation of a transaction with its
// category resolved for display.
type TransactionDTO struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Amount      string          `json:"amount"`
	Description string          `json:"description"`
	Category    domain.Category `json:"category"`
	Date        string          `json:"date"`
	Notes       string          `json:"notes,omitempty"`
	CreatedAt   string          `json:"createdAt"`
}

func toTransactionDTO(t *domain.Transaction) TransactionDTO {
	return TransactionDTO{
		ID:          t.ID,
		Type:        string(t.Type),
		Amount:      t.Amount.StringFixed(2),
		Description: t.Description,
		Category:    domain.LookupCategory(t.Category),
		Date:        t.Date,
		Notes:       t.Notes,
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
	}
}

func toTransactionDTOs(items []domain.Transaction) []TransactionDTO {
	dtos := make([]TransactionDTO, len(items))
	for i := range items {
		dtos[i] = toTransactionDTO(&items[i])
	}
	return dtos
}

// TransactionRequest is the body of create and update requests.
type TransactionRequest struct {
	Type        string `json:"type"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Date        string `json:"date"`
	Notes       string `json:"notes"`
}

func (req TransactionRequest) input() domain.TransactionInput {
	return domain.TransactionInput{
		Type:        domain.TransactionType(req.Type),
		Amount:      req.Amount,
		Description: req.Description,
		Category:    domain.CategoryID(req.Category),
		Date:        req.Date,
		Notes:       req.Notes,
	}
}

// SummaryDTO carries the dashboard totals. SavingsRate is a percentage.
type SummaryDTO struct {
	TotalIncome  string `json:"totalIncome"`
	TotalExpense string `json:"totalExpense"`
	Balance      string `json:"balance"`
	SavingsRate  string `json:"savingsRate"`
}

func toSummaryDTO(s domain.Summary) SummaryDTO {
	return SummaryDTO{
		TotalIncome:  s.TotalIncome.StringFixed(2),
		TotalExpense: s.TotalExpense.StringFixed(2),
		Balance:      s.Balance.StringFixed(2),
		SavingsRate:  s.SavingsRate.StringFixed(1),
	}
}

// DailyChartDTO holds the series of the trailing-days chart.
type DailyChartDTO struct {
	Labels  []string `json:"labels"`
	Dates   []string `json:"dates"`
	Income  []string `json:"income"`
	Expense []string `json:"expense"`
}

func toDailyChartDTO(buckets []domain.DayTotals) DailyChartDTO {
	dto := DailyChartDTO{
		Labels:  make([]string, len(buckets)),
		Dates:   make([]string, len(buckets)),
		Income:  make([]string, len(buckets)),
		Expense: make([]string, len(buckets)),
	}
	for i, b := range buckets {
		dto.Labels[i] = b.Label
		dto.Dates[i] = b.Date
		dto.Income[i] = b.Income.StringFixed(2)
		dto.Expense[i] = b.Expense.StringFixed(2)
	}
	return dto
}

// CategoryTotalDTO is one slice of the expense-by-category chart.
type CategoryTotalDTO struct {
	Category domain.Category `json:"category"`
	Total    string          `json:"total"`
}

func toCategoryTotalDTOs(totals []domain.CategoryTotal) []CategoryTotalDTO {
	dtos := make([]CategoryTotalDTO, len(totals))
	for i, t := range totals {
		dtos[i] = CategoryTotalDTO{Category: t.Category, Total: t.Total.StringFixed(2)}
	}
	return dtos
}
