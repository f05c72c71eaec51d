package service

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/msomdec/expense-tracker/internal/domain"
	"github.com/shopspring/decimal"
)

// DefaultRecentLimit is the number of rows shown in the recent list.
const DefaultRecentLimit = 5

// DefaultChartDays is the length of the dashboard's trailing chart window.
const DefaultChartDays = 7

var hundred = decimal.NewFromInt(100)

// StoreOption configures a TransactionStore.
type StoreOption func(*TransactionStore)

// WithStoreClock sets the time source for createdAt and the chart window.
func WithStoreClock(now func() time.Time) StoreOption {
	return func(s *TransactionStore) { s.now = now }
}

// TransactionStore holds one scope's transactions in memory and writes the
// whole collection back to storage on every change.
type TransactionStore struct {
	store domain.Storage
	key   string
	now   func() time.Time

	mu    sync.Mutex
	items []domain.Transaction
}

// NewTransactionStore loads the collection saved under key.
func NewTransactionStore(ctx context.Context, store domain.Storage, key string, opts ...StoreOption) (*TransactionStore, error) {
	s := &TransactionStore{
		store: store,
		key:   key,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if _, err := loadRecord(ctx, store, key, &s.items); err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	return s, nil
}

// Key returns the storage key the store persists to.
func (s *TransactionStore) Key() string { return s.key }

// List returns all transactions, most recently created first.
func (s *TransactionStore) List() []domain.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items)
}

// Recent returns the n transactions with the latest dates. Equal dates keep
// their list order.
func (s *TransactionStore) Recent(n int) []domain.Transaction {
	items := s.List()
	sortByDateDesc(items)
	if n < 0 {
		n = 0
	}
	if len(items) > n {
		items = items[:n]
	}
	return items
}

// Get returns the transaction with id.
func (s *TransactionStore) Get(id string) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, fmt.Errorf("transaction %s: %w", id, domain.ErrNotFound)
	}
	tx := s.items[i]
	return &tx, nil
}

// Create validates in and inserts a new transaction at the front.
func (s *TransactionStore) Create(ctx context.Context, in domain.TransactionInput) (*domain.Transaction, error) {
	tx, err := s.validate(in)
	if err != nil {
		return nil, err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate id: %w", err)
	}
	tx.ID = id.String()
	tx.CreatedAt = s.now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]domain.Transaction, 0, len(s.items)+1)
	next = append(next, tx)
	next = append(next, s.items...)
	if err := s.commit(ctx, next); err != nil {
		return nil, err
	}

	slog.Debug("transaction created", "id", tx.ID, "type", tx.Type, "category", tx.Category)
	return &tx, nil
}

// Update replaces the editable fields of the transaction with id, keeping its
// id, createdAt and position.
func (s *TransactionStore) Update(ctx context.Context, id string, in domain.TransactionInput) (*domain.Transaction, error) {
	tx, err := s.validate(in)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, fmt.Errorf("transaction %s: %w", id, domain.ErrNotFound)
	}
	tx.ID = s.items[i].ID
	tx.CreatedAt = s.items[i].CreatedAt

	next := slices.Clone(s.items)
	next[i] = tx
	if err := s.commit(ctx, next); err != nil {
		return nil, err
	}

	slog.Debug("transaction updated", "id", tx.ID)
	return &tx, nil
}

// Delete removes the transaction with id. Deleting a missing id is not an
// error; the collection is persisted either way.
func (s *TransactionStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := slices.DeleteFunc(slices.Clone(s.items), func(t domain.Transaction) bool {
		return t.ID == id
	})
	if err := s.commit(ctx, next); err != nil {
		return err
	}

	slog.Debug("transaction deleted", "id", id)
	return nil
}

// Summarize computes totals over every transaction.
func (s *TransactionStore) Summarize() domain.Summary {
	return Summarize(s.List())
}

// Summarize computes totals over items.
func Summarize(items []domain.Transaction) domain.Summary {
	sum := domain.Summary{
		TotalIncome:  decimal.Zero,
		TotalExpense: decimal.Zero,
		SavingsRate:  decimal.Zero,
	}
	for _, t := range items {
		switch t.Type {
		case domain.TypeIncome:
			sum.TotalIncome = sum.TotalIncome.Add(t.Amount)
		case domain.TypeExpense:
			sum.TotalExpense = sum.TotalExpense.Add(t.Amount)
		}
	}
	sum.Balance = sum.TotalIncome.Sub(sum.TotalExpense)
	if sum.TotalIncome.IsPositive() {
		sum.SavingsRate = sum.Balance.Div(sum.TotalIncome).Mul(hundred)
	}
	return sum
}

// AggregateByDayWindow buckets income and expense per calendar day for the
// trailing window of days ending today. Buckets are oldest first and present
// even when empty.
func (s *TransactionStore) AggregateByDayWindow(days int) ([]domain.DayTotals, error) {
	if days < 1 {
		return nil, fmt.Errorf("%w: window must cover at least one day", domain.ErrInvalidInput)
	}

	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	buckets := make([]domain.DayTotals, days)
	index := make(map[string]int, days)
	for i := range buckets {
		day := today.AddDate(0, 0, i-days+1)
		key := day.Format(domain.DateLayout)
		buckets[i] = domain.DayTotals{
			Date:    key,
			Label:   day.Format("Jan 2"),
			Income:  decimal.Zero,
			Expense: decimal.Zero,
		}
		index[key] = i
	}

	for _, t := range s.List() {
		i, ok := index[t.Date]
		if !ok {
			continue
		}
		switch t.Type {
		case domain.TypeIncome:
			buckets[i].Income = buckets[i].Income.Add(t.Amount)
		case domain.TypeExpense:
			buckets[i].Expense = buckets[i].Expense.Add(t.Amount)
		}
	}
	return buckets, nil
}

// AggregateByCategory sums expenses per category, largest first. Ids outside
// the catalog count toward "other".
func (s *TransactionStore) AggregateByCategory() []domain.CategoryTotal {
	totals := make(map[domain.CategoryID]decimal.Decimal)
	for _, t := range s.List() {
		if t.Type != domain.TypeExpense {
			continue
		}
		id := t.Category
		if !id.Valid() {
			id = domain.CategoryOther
		}
		totals[id] = totals[id].Add(t.Amount)
	}

	out := make([]domain.CategoryTotal, 0, len(totals))
	for id, total := range totals {
		out = append(out, domain.CategoryTotal{Category: domain.LookupCategory(id), Total: total})
	}
	slices.SortFunc(out, func(a, b domain.CategoryTotal) int {
		if c := b.Total.Cmp(a.Total); c != 0 {
			return c
		}
		return cmp.Compare(a.Category.ID, b.Category.ID)
	})
	return out
}

// Search returns the transactions whose description, notes, category name or
// date contain term, ignoring case. An empty term matches everything.
func (s *TransactionStore) Search(term string) []domain.Transaction {
	return Search(s.List(), term)
}

// FilterByCategory returns the transactions tagged with id.
func (s *TransactionStore) FilterByCategory(id domain.CategoryID) []domain.Transaction {
	return FilterByCategory(s.List(), id)
}

// Search filters items in place like TransactionStore.Search.
func Search(items []domain.Transaction, term string) []domain.Transaction {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return items
	}
	return slices.DeleteFunc(items, func(t domain.Transaction) bool {
		fields := []string{t.Description, t.Notes, domain.LookupCategory(t.Category).Name, t.Date}
		for _, f := range fields {
			if strings.Contains(strings.ToLower(f), term) {
				return false
			}
		}
		return true
	})
}

// FilterByCategory filters items in place, keeping those tagged with id.
func FilterByCategory(items []domain.Transaction, id domain.CategoryID) []domain.Transaction {
	return slices.DeleteFunc(items, func(t domain.Transaction) bool {
		return t.Category != id
	})
}

func (s *TransactionStore) validate(in domain.TransactionInput) (domain.Transaction, error) {
	typ, err := domain.ParseTransactionType(string(in.Type))
	if err != nil {
		return domain.Transaction{}, err
	}
	amount, err := domain.ParseAmount(in.Amount)
	if err != nil {
		return domain.Transaction{}, err
	}
	description := strings.TrimSpace(in.Description)
	if description == "" {
		return domain.Transaction{}, fmt.Errorf("%w: description is required", domain.ErrInvalidInput)
	}
	category := domain.CategoryID(strings.TrimSpace(string(in.Category)))
	if err := domain.ValidateCategory(typ, category); err != nil {
		return domain.Transaction{}, err
	}
	date, err := domain.ParseDate(in.Date, time.UTC)
	if err != nil {
		return domain.Transaction{}, err
	}

	return domain.Transaction{
		Type:        typ,
		Amount:      amount,
		Description: description,
		Category:    category,
		Date:        date.Format(domain.DateLayout),
		Notes:       strings.TrimSpace(in.Notes),
	}, nil
}

// commit persists next and swaps it in. Callers hold s.mu.
func (s *TransactionStore) commit(ctx context.Context, next []domain.Transaction) error {
	if next == nil {
		next = []domain.Transaction{}
	}
	if err := saveRecord(ctx, s.store, s.key, next); err != nil {
		return fmt.Errorf("persist transactions: %w", err)
	}
	s.items = next
	return nil
}

func (s *TransactionStore) indexOf(id string) int {
	return slices.IndexFunc(s.items, func(t domain.Transaction) bool { return t.ID == id })
}

func sortByDateDesc(items []domain.Transaction) {
	slices.SortStableFunc(items, func(a, b domain.Transaction) int {
		return cmp.Compare(b.Date, a.Date)
	})
}
