// Package category summarizes a group's expenses by their free-form category.
package category

import "context"

// Uncategorized names expenses submitted without a category.
const Uncategorized = "uncategorized"

// Summary totals the non-rejected expenses of one category in one currency.
// Amount is in minor units of Currency.
type Summary struct {
	Name     string `json:"name"`
	Currency string `json:"currency"`
	Expenses int64  `json:"expenses"`
	Amount   int64  `json:"amount"`
}

type Repository interface {
	// SummarizeByGroup groups by category and currency, ordered by name.
	SummarizeByGroup(ctx context.Context, groupID int64) ([]*Summary, error)
}
