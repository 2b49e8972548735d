// Package campaign holds the core domain types shared across the engine,
// persistence, and API layers.
package campaign

import (
	"github.com/shopspring/decimal"
)

// ObjectiveStatus tracks the lifecycle of a long-running objective.
// Transitions are one-directional: NOT_STARTED → IN_PROGRESS → COMPLETED
// or FAILED. A completed or failed objective is never resurrected.
type ObjectiveStatus int

const (
	StatusNotStarted ObjectiveStatus = iota
	StatusInProgress
	StatusCompleted
	StatusFailed
)

// String returns a human-readable status name.
func (s ObjectiveStatus) String() string {
	switch s {
	case StatusNotStarted:
		return "NOT_STARTED"
	case StatusInProgress:
		return "IN_PROGRESS"
	case StatusCompleted:
		return "COMPLETED"
	case StatusFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// ItemKind distinguishes recurring income from recurring expenses.
type ItemKind string

const (
	KindIncome  ItemKind = "income"
	KindExpense ItemKind = "expense"
)

// Frequency is the periodicity bucket of a recurring item.
type Frequency string

const (
	FreqDaily   Frequency = "daily"
	FreqWeekly  Frequency = "weekly"
	FreqMonthly Frequency = "monthly"
)

// ValidFrequency reports whether f is a known tier.
func ValidFrequency(f Frequency) bool {
	return f == FreqDaily || f == FreqWeekly || f == FreqMonthly
}

// Account is a ledger account holding campaign money.
type Account struct {
	ID              int64           `db:"id" json:"id"`
	Name            string          `db:"name" json:"name"`
	Balance         decimal.Decimal `db:"balance" json:"balance"`
	InterestPercent decimal.Decimal `db:"annual_interest_percent" json:"annual_interest_percent"`
}

// RecurringItem is an economic activity (income) or fixed expense applied
// once per matching tier. An item with no linked account is a logged no-op.
type RecurringItem struct {
	ID              int64           `db:"id" json:"id"`
	Description     string          `db:"description" json:"description"`
	Kind            ItemKind        `db:"kind" json:"kind"`
	Amount          decimal.Decimal `db:"amount" json:"amount"`
	Frequency       Frequency       `db:"frequency" json:"frequency"`
	LinkedAccountID *int64          `db:"linked_account_id" json:"linked_account_id"`
}

// Objective is a long-running task that accrues cost and progress as game
// time advances. BaseEstimatedMonths is fixed at creation and stays the
// denominator for progress-per-month even when imprevisti stretch
// EstimatedMonths, so injected delays slow completion without changing the
// accrual rate already in effect.
type Objective struct {
	ID                  int64           `db:"id" json:"id"`
	Name                string          `db:"name" json:"name"`
	Status              ObjectiveStatus `db:"status" json:"status"`
	EstimatedMonths     int             `db:"estimated_months" json:"estimated_months"`
	BaseEstimatedMonths int             `db:"base_estimated_months" json:"base_estimated_months"`
	TotalCost           decimal.Decimal `db:"total_cost" json:"total_cost"`
	ProgressPercentage  decimal.Decimal `db:"progress_percentage" json:"progress_percentage"`
	LinkedAccountID     *int64          `db:"linked_account_id" json:"linked_account_id"`
	StartDay            *int            `db:"start_day" json:"start_day"` // absolute day the objective went IN_PROGRESS
}

// ResponseOption is one of the choices offered for an imprevisto.
type ResponseOption struct {
	OptionText  string          `json:"option_text"`
	ExtraMonths int             `json:"extra_months"`
	ExtraCost   decimal.Decimal `json:"extra_cost"`
	IsFailure   bool            `json:"is_failure"`
}

// ImprevistoEvent is an unforeseen event attached to an objective. It stays
// pending until a player choice is registered and resolved; an event whose
// PlayerChoice is nil never affects its objective.
type ImprevistoEvent struct {
	ID              string           `db:"id" json:"id"` // uuid
	ObjectiveID     int64            `db:"objective_id" json:"objective_id"`
	Description     string           `db:"description" json:"description"`
	ResponseOptions []ResponseOption `json:"response_options"`
	PlayerChoice    *ResponseOption  `json:"player_choice"`
	Handled         bool             `db:"handled" json:"handled"`
	EventDay        int              `db:"event_day" json:"event_day"` // absolute day the event occurred
}
