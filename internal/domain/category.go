package domain

import "fmt"

// CategoryID identifies an entry of the fixed category catalog.
type CategoryID string

const (
	CategoryFood           CategoryID = "food"
	CategoryShopping       CategoryID = "shopping"
	CategoryTransportation CategoryID = "transportation"
	CategoryBills          CategoryID = "bills"
	CategoryEntertainment  CategoryID = "entertainment"
	CategoryHealth         CategoryID = "health"
	CategoryEducation      CategoryID = "education"
	CategorySalary         CategoryID = "salary"
	CategoryOther          CategoryID = "other"

	// CategoryUnknown labels ids that are not part of the catalog.
	CategoryUnknown CategoryID = "unknown"
)

// Category is a catalog entry used for validation and labeling.
type Category struct {
	ID    CategoryID      `json:"id"`
	Name  string          `json:"name"`
	Icon  string          `json:"icon"`
	Color string          `json:"color"`
	Type  TransactionType `json:"type"`
}

// UnknownCategory is returned by LookupCategory for ids outside the catalog.
var UnknownCategory = Category{
	ID:    CategoryUnknown,
	Name:  "Uncategorized",
	Icon:  "bi-question-circle",
	Color: "#6c757d",
}

var categories = []Category{
	{CategoryFood, "Food & Drinks", "bi-cup-hot", "#ff6b6b", TypeExpense},
	{CategoryShopping, "Shopping", "bi-bag", "#4cc9f0", TypeExpense},
	{CategoryTransportation, "Transportation", "bi-car-front", "#7209b7", TypeExpense},
	{CategoryBills, "Bills & Utilities", "bi-lightning", "#4361ee", TypeExpense},
	{CategoryEntertainment, "Entertainment", "bi-controller", "#f72585", TypeExpense},
	{CategoryHealth, "Health & Fitness", "bi-heart-pulse", "#4cc9f0", TypeExpense},
	{CategoryEducation, "Education", "bi-book", "#4895ef", TypeExpense},
	{CategorySalary, "Salary", "bi-cash-stack", "#2ecc71", TypeIncome},
	{CategoryOther, "Other", "bi-three-dots", "#95a5a6", TypeIncome},
}

var categoryIndex = func() map[CategoryID]Category {
	m := make(map[CategoryID]Category, len(categories))
	for _, c := range categories {
		m[c.ID] = c
	}
	return m
}()

// Categories returns the full catalog in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// CategoriesFor returns the catalog entries eligible for the transaction type.
func CategoriesFor(t TransactionType) []Category {
	var out []Category
	for _, c := range categories {
		if c.Type == t {
			out = append(out, c)
		}
	}
	return out
}

// LookupCategory resolves id against the catalog, falling back to
// UnknownCategory.
func LookupCategory(id CategoryID) Category {
	if c, ok := categoryIndex[id]; ok {
		return c
	}
	return UnknownCategory
}

// Valid reports whether id is part of the catalog.
func (id CategoryID) Valid() bool {
	_, ok := categoryIndex[id]
	return ok
}

// ValidateCategory checks that id belongs to the allowed set for t.
func ValidateCategory(t TransactionType, id CategoryID) error {
	c, ok := categoryIndex[id]
	if !ok {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidInput, id)
	}
	if c.Type != t {
		return fmt.Errorf("%w: category %q is not allowed for %s transactions", ErrInvalidInput, id, t)
	}
	return nil
}
