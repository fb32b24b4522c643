package entities

import "github.com/shopspring/decimal"

// ExtractionResult is the structured reading of a transcript.
// Amount is invalid when no numeric pattern matched; a matched amount of zero
// or less is kept as read but does not count as an amount.
type ExtractionResult struct {
	Amount      decimal.NullDecimal `json:"amount"`
	Category    CategoryTag         `json:"category"`
	Description string              `json:"description"`
}

// HasAmount reports whether a usable, positive amount was extracted.
// Results without one take the manual-entry path.
func (r ExtractionResult) HasAmount() bool {
	return r.Amount.Valid && r.Amount.Decimal.IsPositive()
}

// Draft builds the store payload. It returns false when HasAmount does, so a
// draft never exists without a positive amount.
func (r ExtractionResult) Draft() (ExpenseDraft, bool) {
	if !r.HasAmount() {
		return ExpenseDraft{}, false
	}
	return ExpenseDraft{
		Description: r.Description,
		Amount:      r.Amount.Decimal,
		Category:    r.Category,
	}, true
}
