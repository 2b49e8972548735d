// Time advancement — the orchestrating day loop and its weekly/monthly
// tier cascade.
package engine

import (
	"github.com/talgya/mystara/internal/calendar"
	"github.com/talgya/mystara/internal/campaign"
)

// AdvanceDays advances the clock one day at a time, applying the daily tier
// and a 1/28-month objective tick per day. Pending imprevisti with a
// registered choice are resolved once, after the whole batch, so a choice
// cannot retroactively change ticks already applied in the same call.
func (e *Engine) AdvanceDays(n int) AdvanceResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	log := &advanceLog{}
	if n < 0 {
		log.warnf("cannot advance %d days", n)
		return AdvanceResult{Success: false, NewDisplayDate: e.clock.Display(), LogLines: log.lines}
	}

	e.advanceDayLoop(n, log)
	e.resolvePending(log)

	if n > 0 {
		log.infof("advanced %d day(s) to %s", n, e.clock.Display())
	}
	return AdvanceResult{Success: true, NewDisplayDate: e.clock.Display(), LogLines: log.lines}
}

// AdvanceWeeks advances in 7-day blocks, adding the weekly tier and a
// quarter-month objective tick at each week boundary.
func (e *Engine) AdvanceWeeks(w int) AdvanceResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	log := &advanceLog{}
	if w < 0 {
		log.warnf("cannot advance %d weeks", w)
		return AdvanceResult{Success: false, NewDisplayDate: e.clock.Display(), LogLines: log.lines}
	}

	for i := 0; i < w; i++ {
		e.advanceDayLoop(7, log)
		e.applyTier(campaign.FreqWeekly, log)
		e.tickObjectives(weekUnits, log)
	}
	e.resolvePending(log)

	if w > 0 {
		log.infof("advanced %d week(s) to %s", w, e.clock.Display())
	}
	return AdvanceResult{Success: true, NewDisplayDate: e.clock.Display(), LogLines: log.lines}
}

// AdvanceMonths advances m Mystara months (28 days each), adding the monthly
// tier and a full-month objective tick at the end, then giving fortune one
// chance to roll a fresh imprevisto.
func (e *Engine) AdvanceMonths(m int) AdvanceResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	log := &advanceLog{}
	if m < 0 {
		log.warnf("cannot advance %d months", m)
		return AdvanceResult{Success: false, NewDisplayDate: e.clock.Display(), LogLines: log.lines}
	}

	if m > 0 {
		e.advanceDayLoop(m*calendar.DaysPerMonth, log)
		e.applyTier(campaign.FreqMonthly, log)
		e.tickObjectives(monthUnits, log)
		e.maybeRollImprevisto(log)
	}
	e.resolvePending(log)

	if m > 0 {
		log.infof("advanced %d month(s) to %s", m, e.clock.Display())
	}
	return AdvanceResult{Success: true, NewDisplayDate: e.clock.Display(), LogLines: log.lines}
}

// advanceDayLoop is the shared per-day core: bump the counter, persist the
// clock, apply daily effects, and fire annual interest on each Mystara-year
// boundary crossed. A failed clock save degrades to a warning; the in-memory
// counter stays authoritative so play can continue.
func (e *Engine) advanceDayLoop(days int, log *advanceLog) {
	for i := 0; i < days; i++ {
		oldDay := e.clock.AbsoluteDay
		e.clock.AbsoluteDay++

		if err := e.db.SaveClock(e.clock.AbsoluteDay); err != nil {
			log.warnf("clock save failed (continuing with in-memory date): %v", err)
		}

		e.applyTier(campaign.FreqDaily, log)
		e.tickObjectives(dayUnits, log)

		if calendar.Year(e.clock.AbsoluteDay) != calendar.Year(oldDay) {
			log.infof("a new year dawns: %d", calendar.Year(e.clock.AbsoluteDay))
			e.applyAnnualInterest(log)
		}
	}
}

// SetDateManually validates and sets an explicit Mystara date. No periodic
// effects run; this is a correction, not a passage of time.
func (e *Engine) SetDateManually(day, monthIndex, year int) AdvanceResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	log := &advanceLog{}
	if err := calendar.Validate(day, monthIndex, year); err != nil {
		log.warnf("invalid date: %v", err)
		return AdvanceResult{Success: false, NewDisplayDate: e.clock.Display(), LogLines: log.lines}
	}

	absDay := calendar.ToAbsoluteDay(calendar.Date{Day: day, MonthIndex: monthIndex, Year: year})
	if err := e.db.SaveClock(absDay); err != nil {
		log.warnf("clock save failed: %v", err)
		return AdvanceResult{Success: false, NewDisplayDate: e.clock.Display(), LogLines: log.lines}
	}

	e.clock.AbsoluteDay = absDay
	log.infof("date set to %s", e.clock.Display())
	return AdvanceResult{Success: true, NewDisplayDate: e.clock.Display(), LogLines: log.lines}
}
