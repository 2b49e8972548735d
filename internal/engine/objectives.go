// Objective progress accrual — each tick advances every IN_PROGRESS
// objective by a fraction of a month and debits the matching slice of cost.
package engine

import (
	"github.com/shopspring/decimal"

	"github.com/talgya/mystara/internal/campaign"
)

// Tick fractions are expressed in 28ths of a month so that a full month of
// daily ticks sums exactly: daily = 1/28, weekly = 7/28, monthly = 28/28.
const (
	dayUnits   = 1
	weekUnits  = 7
	monthUnits = 28
)

// completionEpsilon absorbs the residue of dividing 100% across ticks whose
// month-fraction has no exact decimal form (1/28). Progress within epsilon
// of 100 snaps to exactly 100.
var completionEpsilon = decimal.New(1, -9)

// StartObjective transitions an objective to IN_PROGRESS, stamping the
// current game date as its start.
func (e *Engine) StartObjective(id int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.db.StartObjective(id, e.clock.AbsoluteDay)
}

// tickObjectives advances every IN_PROGRESS objective by units/28 of a month.
// The cost slice comes from the current (possibly event-inflated) duration;
// the progress slice always uses the base duration fixed at creation, so a
// delay injected by an imprevisto stretches completion time without changing
// the accrual rate already in effect.
func (e *Engine) tickObjectives(units int64, log *advanceLog) {
	objectives, err := e.db.ListObjectivesInProgress()
	if err != nil {
		log.warnf("could not load objectives: %v", err)
		return
	}

	for _, o := range objectives {
		e.tickObjective(o, units, log)
	}
}

func (e *Engine) tickObjective(o campaign.Objective, units int64, log *advanceLog) {
	if o.LinkedAccountID == nil {
		log.warnf("objective %q has no linked account, skipped", o.Name)
		return
	}
	if o.EstimatedMonths <= 0 || o.BaseEstimatedMonths <= 0 {
		log.warnf("objective %q has invalid duration (%d/%d months), skipped",
			o.Name, o.EstimatedMonths, o.BaseEstimatedMonths)
		return
	}

	unitCount := decimal.NewFromInt(units)
	costThisTick := o.TotalCost.Mul(unitCount).
		Div(decimal.NewFromInt(int64(o.EstimatedMonths) * monthUnits))
	progressThisTick := hundred.Mul(unitCount).
		Div(decimal.NewFromInt(int64(o.BaseEstimatedMonths) * monthUnits))

	// All-or-nothing: no partial debit, no progress without payment.
	applied, err := e.db.Debit(*o.LinkedAccountID, costThisTick)
	if err != nil {
		log.warnf("objective %q debit failed: %v", o.Name, err)
		return
	}
	if !applied {
		log.warnf("objective %q: insufficient funds for %s gp, tick skipped",
			o.Name, money(costThisTick))
		return
	}

	newProgress := o.ProgressPercentage.Add(progressThisTick)
	if newProgress.GreaterThanOrEqual(hundred.Sub(completionEpsilon)) {
		newProgress = hundred
	}
	o.ProgressPercentage = newProgress

	if newProgress.Equal(hundred) {
		o.Status = campaign.StatusCompleted
		log.infof("objective %q completed", o.Name)
	}

	if err := e.db.UpdateObjective(o); err != nil {
		log.warnf("objective %q update failed: %v", o.Name, err)
	}
}
