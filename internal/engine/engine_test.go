package engine

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/talgya/mystara/internal/campaign"
	"github.com/talgya/mystara/internal/fortune"
	"github.com/talgya/mystara/internal/persistence"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// newTestEngine builds an engine on a temp database with no LLM client and
// fortune neutered: rand always returns 1.0, so the automatic imprevisto
// roll never fires.
func newTestEngine(t *testing.T) (*Engine, *persistence.DB) {
	t.Helper()
	db, err := persistence.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	eng, err := New(db, nil, fortune.NewField(1))
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	eng.rand = func() float64 { return 1.0 }
	return eng, db
}

func seedAccount(t *testing.T, db *persistence.DB, balance, rate string) int64 {
	t.Helper()
	id, err := db.CreateAccount("test account", dec(balance), dec(rate))
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	return id
}

func seedItem(t *testing.T, db *persistence.DB, kind campaign.ItemKind, amount string, freq campaign.Frequency, accountID *int64) {
	t.Helper()
	_, err := db.CreateRecurringItem(campaign.RecurringItem{
		Description:     string(kind) + " item",
		Kind:            kind,
		Amount:          dec(amount),
		Frequency:       freq,
		LinkedAccountID: accountID,
	})
	if err != nil {
		t.Fatalf("CreateRecurringItem: %v", err)
	}
}

func seedStartedObjective(t *testing.T, db *persistence.DB, estMonths, baseMonths int, cost string, accountID int64) int64 {
	t.Helper()
	id, err := db.CreateObjective(campaign.Objective{
		Name:                "test objective",
		EstimatedMonths:     estMonths,
		BaseEstimatedMonths: baseMonths,
		TotalCost:           dec(cost),
		ProgressPercentage:  decimal.Zero,
		LinkedAccountID:     &accountID,
	})
	if err != nil {
		t.Fatalf("CreateObjective: %v", err)
	}
	if err := db.StartObjective(id, 0); err != nil {
		t.Fatalf("StartObjective: %v", err)
	}
	return id
}

func balanceOf(t *testing.T, db *persistence.DB, id int64) decimal.Decimal {
	t.Helper()
	a, err := db.GetAccount(id)
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	return a.Balance
}

func hasLogLine(result AdvanceResult, substr string) bool {
	for _, line := range result.LogLines {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}

func TestAdvanceZeroDaysIsNoOp(t *testing.T) {
	eng, db := newTestEngine(t)
	accID := seedAccount(t, db, "100", "10")
	seedItem(t, db, campaign.KindIncome, "5", campaign.FreqDaily, &accID)
	objID := seedStartedObjective(t, db, 2, 2, "56", accID)

	result := eng.AdvanceDays(0)
	if !result.Success {
		t.Fatal("AdvanceDays(0) failed")
	}
	if eng.AbsoluteDay() != 0 {
		t.Errorf("AbsoluteDay = %d, want 0", eng.AbsoluteDay())
	}
	if got := balanceOf(t, db, accID); !got.Equal(dec("100")) {
		t.Errorf("balance = %s, want 100 (unchanged)", got)
	}
	o, _ := db.GetObjective(objID)
	if !o.ProgressPercentage.IsZero() {
		t.Errorf("progress = %s, want 0", o.ProgressPercentage)
	}
}

func TestDailyIncomeAndExpense(t *testing.T) {
	eng, db := newTestEngine(t)
	accID := seedAccount(t, db, "100", "0")
	seedItem(t, db, campaign.KindIncome, "5", campaign.FreqDaily, &accID)
	seedItem(t, db, campaign.KindExpense, "2", campaign.FreqDaily, &accID)

	result := eng.AdvanceDays(3)
	if !result.Success {
		t.Fatal("AdvanceDays failed")
	}
	if got := balanceOf(t, db, accID); !got.Equal(dec("109")) {
		t.Errorf("balance = %s, want 109 (100 + 3*5 - 3*2)", got)
	}
	if result.NewDisplayDate != "04 NUWMONT 1" {
		t.Errorf("NewDisplayDate = %q, want %q", result.NewDisplayDate, "04 NUWMONT 1")
	}
}

func TestExpenseSkipOnInsufficientFunds(t *testing.T) {
	eng, db := newTestEngine(t)
	accID := seedAccount(t, db, "10", "0")
	seedItem(t, db, campaign.KindExpense, "15", campaign.FreqDaily, &accID)

	result := eng.AdvanceDays(1)
	if !result.Success {
		t.Fatal("AdvanceDays failed")
	}
	if got := balanceOf(t, db, accID); !got.Equal(dec("10")) {
		t.Errorf("balance = %s, want 10 (expense skipped, never negative)", got)
	}
	if !hasLogLine(result, "insufficient funds") {
		t.Errorf("no insufficient-funds log line in %v", result.LogLines)
	}
}

func TestUnlinkedItemIsLoggedNoOp(t *testing.T) {
	eng, db := newTestEngine(t)
	seedItem(t, db, campaign.KindIncome, "5", campaign.FreqDaily, nil)

	result := eng.AdvanceDays(1)
	if !result.Success {
		t.Fatal("an unlinked item must not fail the advance")
	}
	if !hasLogLine(result, "no linked account") {
		t.Errorf("no skip log line in %v", result.LogLines)
	}
}

func TestWeeklyTierCadence(t *testing.T) {
	eng, db := newTestEngine(t)
	accID := seedAccount(t, db, "0", "0")
	seedItem(t, db, campaign.KindIncome, "1", campaign.FreqDaily, &accID)
	seedItem(t, db, campaign.KindIncome, "7", campaign.FreqWeekly, &accID)

	result := eng.AdvanceWeeks(1)
	if !result.Success {
		t.Fatal("AdvanceWeeks failed")
	}
	if eng.AbsoluteDay() != 7 {
		t.Errorf("AbsoluteDay = %d, want 7", eng.AbsoluteDay())
	}
	// 7 daily applications plus exactly one weekly application.
	if got := balanceOf(t, db, accID); !got.Equal(dec("14")) {
		t.Errorf("balance = %s, want 14", got)
	}
}

func TestWeeklyTierDoesNotFireOnDailyAdvance(t *testing.T) {
	eng, db := newTestEngine(t)
	accID := seedAccount(t, db, "0", "0")
	seedItem(t, db, campaign.KindIncome, "7", campaign.FreqWeekly, &accID)

	eng.AdvanceDays(7)
	if got := balanceOf(t, db, accID); !got.IsZero() {
		t.Errorf("balance = %s, want 0 (weekly tier is not a day-count trigger)", got)
	}
}

func TestMonthlyTierCadence(t *testing.T) {
	eng, db := newTestEngine(t)
	accID := seedAccount(t, db, "100", "0")
	seedItem(t, db, campaign.KindExpense, "30", campaign.FreqMonthly, &accID)

	result := eng.AdvanceMonths(1)
	if !result.Success {
		t.Fatal("AdvanceMonths failed")
	}
	if eng.AbsoluteDay() != 28 {
		t.Errorf("AbsoluteDay = %d, want 28", eng.AbsoluteDay())
	}
	if got := balanceOf(t, db, accID); !got.Equal(dec("70")) {
		t.Errorf("balance = %s, want 70", got)
	}
}

func TestObjectiveCompletion(t *testing.T) {
	eng, db := newTestEngine(t)
	accID := seedAccount(t, db, "100", "0")
	objID := seedStartedObjective(t, db, 1, 1, "28", accID)

	result := eng.AdvanceDays(28)
	if !result.Success {
		t.Fatal("AdvanceDays failed")
	}

	o, err := db.GetObjective(objID)
	if err != nil {
		t.Fatalf("GetObjective: %v", err)
	}
	if !o.ProgressPercentage.Equal(dec("100")) {
		t.Errorf("progress = %s, want exactly 100", o.ProgressPercentage)
	}
	if o.Status != campaign.StatusCompleted {
		t.Errorf("status = %s, want COMPLETED", o.Status)
	}
	if got := balanceOf(t, db, accID); !got.Equal(dec("72")) {
		t.Errorf("balance = %s, want 72 (exactly 28 debited)", got)
	}
	if !hasLogLine(result, "completed") {
		t.Errorf("no completion log line in %v", result.LogLines)
	}
}

func TestObjectiveTickSkippedWhenUnderfunded(t *testing.T) {
	eng, db := newTestEngine(t)
	accID := seedAccount(t, db, "0.5", "0")
	objID := seedStartedObjective(t, db, 1, 1, "28", accID)

	result := eng.AdvanceDays(1)
	o, _ := db.GetObjective(objID)
	if !o.ProgressPercentage.IsZero() {
		t.Errorf("progress = %s, want 0 (no progress without payment)", o.ProgressPercentage)
	}
	if got := balanceOf(t, db, accID); !got.Equal(dec("0.5")) {
		t.Errorf("balance = %s, want 0.5 (no partial debit)", got)
	}
	if !hasLogLine(result, "insufficient funds") {
		t.Errorf("no skip log line in %v", result.LogLines)
	}
}

func TestProgressUsesBaseDurationAfterDelay(t *testing.T) {
	eng, db := newTestEngine(t)
	accID := seedAccount(t, db, "1000", "0")
	// An event already stretched 2 base months to 4; cost spreads over 4,
	// progress still accrues against the original 2.
	objID := seedStartedObjective(t, db, 4, 2, "112", accID)

	eng.AdvanceDays(1)

	o, _ := db.GetObjective(objID)
	wantProgress := dec("100").Div(dec("56")) // 100 / (2 * 28)
	if !o.ProgressPercentage.Equal(wantProgress) {
		t.Errorf("progress = %s, want %s", o.ProgressPercentage, wantProgress)
	}
	// Cost per day = 112 / (4 * 28) = 1.
	if got := balanceOf(t, db, accID); !got.Equal(dec("999")) {
		t.Errorf("balance = %s, want 999", got)
	}
}

func TestAnnualInterestFiresOncePerYearCrossing(t *testing.T) {
	eng, db := newTestEngine(t)
	accID := seedAccount(t, db, "100", "10")

	result := eng.AdvanceDays(336)
	if !result.Success {
		t.Fatal("AdvanceDays failed")
	}
	if got := balanceOf(t, db, accID); !got.Equal(dec("110")) {
		t.Errorf("balance = %s, want 110 (interest exactly once)", got)
	}
}

func TestAnnualInterestMidBatchCrossing(t *testing.T) {
	eng, db := newTestEngine(t)
	accID := seedAccount(t, db, "100", "10")

	// 340 days crosses one year boundary mid-batch; interest still once.
	eng.AdvanceDays(340)
	if got := balanceOf(t, db, accID); !got.Equal(dec("110")) {
		t.Errorf("balance = %s, want 110", got)
	}
}

func TestAnnualInterestCompoundsPerCrossing(t *testing.T) {
	eng, db := newTestEngine(t)
	accID := seedAccount(t, db, "100", "10")

	// Two year boundaries in one batch: interest fires once per transition.
	eng.AdvanceDays(672)
	if got := balanceOf(t, db, accID); !got.Equal(dec("121")) {
		t.Errorf("balance = %s, want 121", got)
	}
}

func TestNoInterestOnZeroRateOrEmptyAccount(t *testing.T) {
	eng, db := newTestEngine(t)
	noRate := seedAccount(t, db, "100", "0")
	empty := seedAccount(t, db, "0", "10")

	eng.AdvanceDays(336)
	if got := balanceOf(t, db, noRate); !got.Equal(dec("100")) {
		t.Errorf("zero-rate balance = %s, want 100", got)
	}
	if got := balanceOf(t, db, empty); !got.IsZero() {
		t.Errorf("empty balance = %s, want 0", got)
	}
}

func TestManualSetRejectsInvalidDay(t *testing.T) {
	eng, _ := newTestEngine(t)

	result := eng.SetDateManually(29, 0, 1)
	if result.Success {
		t.Error("SetDateManually(29, 0, 1) succeeded, want validation failure")
	}
	if eng.AbsoluteDay() != 0 {
		t.Errorf("AbsoluteDay = %d, want 0 (unchanged)", eng.AbsoluteDay())
	}
}

func TestManualSetValidDate(t *testing.T) {
	eng, db := newTestEngine(t)

	result := eng.SetDateManually(1, 1, 2)
	if !result.Success {
		t.Fatalf("SetDateManually failed: %v", result.LogLines)
	}
	if result.NewDisplayDate != "01 VATERMONT 2" {
		t.Errorf("NewDisplayDate = %q, want %q", result.NewDisplayDate, "01 VATERMONT 2")
	}
	if eng.AbsoluteDay() != 364 {
		t.Errorf("AbsoluteDay = %d, want 364", eng.AbsoluteDay())
	}

	clock, err := db.LoadClock()
	if err != nil {
		t.Fatalf("LoadClock: %v", err)
	}
	if clock.AbsoluteDay != 364 {
		t.Errorf("persisted AbsoluteDay = %d, want 364", clock.AbsoluteDay)
	}
}
