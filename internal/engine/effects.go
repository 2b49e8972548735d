// Recurring financial effects — per-tier income/expense application and
// annual bank interest.
package engine

import (
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"github.com/talgya/mystara/internal/campaign"
)

var hundred = decimal.NewFromInt(100)

// applyTier applies every recurring item of one frequency tier exactly once.
// Items are independent: a bad item is logged and skipped, never blocking
// the rest of the batch.
func (e *Engine) applyTier(tier campaign.Frequency, log *advanceLog) {
	items, err := e.db.RecurringItemsByFrequency(tier)
	if err != nil {
		log.warnf("could not load %s items: %v", tier, err)
		return
	}

	for _, item := range items {
		e.applyItem(item, log)
	}
}

// applyItem credits income or debits a covered expense for one item.
func (e *Engine) applyItem(item campaign.RecurringItem, log *advanceLog) {
	if item.LinkedAccountID == nil {
		log.warnf("%q has no linked account, skipped", item.Description)
		return
	}
	accountID := *item.LinkedAccountID

	switch item.Kind {
	case campaign.KindIncome:
		if err := e.db.Credit(accountID, item.Amount); err != nil {
			log.warnf("income %q failed: %v", item.Description, err)
			return
		}
		log.infof("%s: +%s gp", item.Description, money(item.Amount))
	case campaign.KindExpense:
		applied, err := e.db.Debit(accountID, item.Amount)
		if err != nil {
			log.warnf("expense %q failed: %v", item.Description, err)
			return
		}
		if !applied {
			log.warnf("%s: insufficient funds for %s gp, skipped", item.Description, money(item.Amount))
			return
		}
		log.infof("%s: -%s gp", item.Description, money(item.Amount))
	default:
		log.warnf("%q has unknown kind %q, skipped", item.Description, item.Kind)
	}
}

// applyAnnualInterest credits interest to every account with a positive
// balance and rate. Invoked on Mystara-year rollover only, never on a fixed
// cadence.
func (e *Engine) applyAnnualInterest(log *advanceLog) {
	accounts, err := e.db.ListAccounts()
	if err != nil {
		log.warnf("could not load accounts for interest: %v", err)
		return
	}

	for _, a := range accounts {
		if !a.Balance.IsPositive() || !a.InterestPercent.IsPositive() {
			continue
		}
		interest := a.Balance.Mul(a.InterestPercent).Div(hundred).Round(2)
		if err := e.db.Credit(a.ID, interest); err != nil {
			log.warnf("interest on %q failed: %v", a.Name, err)
			continue
		}
		log.infof("annual interest on %s: +%s gp (%s%%)",
			a.Name, money(interest), a.InterestPercent.String())
	}
}

// money renders a decimal amount with thousands separators for log lines.
func money(d decimal.Decimal) string {
	f, _ := d.Float64()
	return humanize.CommafWithDigits(f, 2)
}
