package core

import (
	"errors"
	"strings"
	"time"
)

// DefaultCategory is used for aggregation when a transaction has no category.
const DefaultCategory = "Other"

type (
	// Transaction is a stored money movement. Amount is always expressed in
	// minor currency units and never negative; the direction of the flow is
	// carried by IsIncome.
	Transaction struct {
		ID          string    `json:"id"`
		Date        string    `json:"date"` // ISO-8601 date or date-time
		Card        string    `json:"card"`
		Amount      int64     `json:"amount"`
		Currency    string    `json:"currency"`
		Description string    `json:"description"`
		Category    string    `json:"category"`
		Comment     string    `json:"comment,omitempty"`
		IsIncome    bool      `json:"isIncome"`
		IsArchived  bool      `json:"isArchived,omitempty"`
		IsDuplicate bool      `json:"isDuplicate,omitempty"`
		CreatedAt   time.Time `json:"createdAt"`
	}

	// CreateRequest carries everything needed to create a Transaction.
	// ID and CreatedAt are assigned by the store.
	CreateRequest struct {
		Date        string `json:"date"`
		Card        string `json:"card"`
		Amount      int64  `json:"amount"`
		Currency    string `json:"currency"`
		Description string `json:"description"`
		Category    string `json:"category"`
		Comment     string `json:"comment,omitempty"`
		IsIncome    bool   `json:"isIncome"`
		IsDuplicate bool   `json:"isDuplicate,omitempty"`
	}

	// TransactionPatch is a partial update. Nil fields are left untouched.
	TransactionPatch struct {
		Date        *string `json:"date,omitempty"`
		Card        *string `json:"card,omitempty"`
		Amount      *int64  `json:"amount,omitempty"`
		Currency    *string `json:"currency,omitempty"`
		Description *string `json:"description,omitempty"`
		Category    *string `json:"category,omitempty"`
		Comment     *string `json:"comment,omitempty"`
		IsIncome    *bool   `json:"isIncome,omitempty"`
		IsDuplicate *bool   `json:"isDuplicate,omitempty"`
	}
)

var (
	ErrNotFound       = errors.New("transaction not found")
	ErrDeleteFailed   = errors.New("transaction still present after delete")
	ErrClearFailed    = errors.New("transactions still present after clear")
	ErrNegativeAmount = errors.New("amount must not be negative")
	ErrEmptyDate      = errors.New("empty date")
)

// Validate checks the data-model invariants only; form validation lives elsewhere.
func (r CreateRequest) Validate() error {
	if strings.TrimSpace(r.Date) == "" {
		return ErrEmptyDate
	}
	if r.Amount < 0 {
		return ErrNegativeAmount
	}
	return nil
}

// NewTransaction builds a transaction from a request with the given identity.
func NewTransaction(id string, createdAt time.Time, r CreateRequest) Transaction {
	return Transaction{
		ID:          id,
		Date:        r.Date,
		Card:        r.Card,
		Amount:      r.Amount,
		Currency:    r.Currency,
		Description: r.Description,
		Category:    r.Category,
		Comment:     r.Comment,
		IsIncome:    r.IsIncome,
		IsDuplicate: r.IsDuplicate,
		CreatedAt:   createdAt,
	}
}

// Validate checks the patch does not break the data-model invariants.
func (p TransactionPatch) Validate() error {
	if p.Date != nil && strings.TrimSpace(*p.Date) == "" {
		return ErrEmptyDate
	}
	if p.Amount != nil && *p.Amount < 0 {
		return ErrNegativeAmount
	}
	return nil
}

// Apply returns a copy of t with the patch applied. ID and CreatedAt are
// never touched.
func (p TransactionPatch) Apply(t Transaction) Transaction {
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Card != nil {
		t.Card = *p.Card
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Currency != nil {
		t.Currency = *p.Currency
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Comment != nil {
		t.Comment = *p.Comment
	}
	if p.IsIncome != nil {
		t.IsIncome = *p.IsIncome
	}
	if p.IsDuplicate != nil {
		t.IsDuplicate = *p.IsDuplicate
	}
	return t
}

// CategoryOrDefault returns the category used for aggregation.
func (t Transaction) CategoryOrDefault() string {
	if strings.TrimSpace(t.Category) == "" {
		return DefaultCategory
	}
	return t.Category
}
