package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/talgya/mystara/internal/campaign"
)

// ErrObjectiveNotFound is returned when an objective id does not exist.
var ErrObjectiveNotFound = errors.New("objective not found")

// CreateObjective inserts a new objective in NOT_STARTED state and returns
// its id. BaseEstimatedMonths is fixed here: if the caller leaves it zero it
// is taken from EstimatedMonths, and it never changes afterwards.
func (db *DB) CreateObjective(o campaign.Objective) (int64, error) {
	if o.EstimatedMonths <= 0 {
		return 0, fmt.Errorf("estimated months must be positive, got %d", o.EstimatedMonths)
	}
	if o.BaseEstimatedMonths <= 0 {
		o.BaseEstimatedMonths = o.EstimatedMonths
	}
	res, err := db.conn.Exec(
		`INSERT INTO objective
		 (name, status, estimated_months, base_estimated_months, total_cost,
		  progress_percentage, linked_account_id, start_day)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		o.Name, campaign.StatusNotStarted, o.EstimatedMonths, o.BaseEstimatedMonths,
		o.TotalCost, o.ProgressPercentage, o.LinkedAccountID, o.StartDay,
	)
	if err != nil {
		return 0, fmt.Errorf("create objective: %w", err)
	}
	return res.LastInsertId()
}

// GetObjective loads a single objective by id.
func (db *DB) GetObjective(id int64) (campaign.Objective, error) {
	var o campaign.Objective
	err := db.conn.Get(&o, objectiveSelect+" WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return campaign.Objective{}, ErrObjectiveNotFound
	}
	if err != nil {
		return campaign.Objective{}, fmt.Errorf("get objective %d: %w", id, err)
	}
	normalizeBase(&o)
	return o, nil
}

// ListObjectives returns all objectives.
func (db *DB) ListObjectives() ([]campaign.Objective, error) {
	return db.selectObjectives(objectiveSelect + " ORDER BY id")
}

// ListObjectivesInProgress returns the objectives the progress tracker
// advances each tick.
func (db *DB) ListObjectivesInProgress() ([]campaign.Objective, error) {
	return db.selectObjectives(
		objectiveSelect+" WHERE status = ? ORDER BY id", campaign.StatusInProgress)
}

const objectiveSelect = `SELECT id, name, status, estimated_months, base_estimated_months,
	total_cost, progress_percentage, linked_account_id, start_day FROM objective`

func (db *DB) selectObjectives(query string, args ...any) ([]campaign.Objective, error) {
	var objectives []campaign.Objective
	if err := db.conn.Select(&objectives, query, args...); err != nil {
		return nil, fmt.Errorf("list objectives: %w", err)
	}
	for i := range objectives {
		normalizeBase(&objectives[i])
	}
	return objectives, nil
}

// normalizeBase repairs legacy rows where base_estimated_months was never
// set. Falling back to the current estimated_months is only safe before any
// event has stretched the duration, so the fallback is pinned on next save.
func normalizeBase(o *campaign.Objective) {
	if o.BaseEstimatedMonths <= 0 {
		slog.Warn("objective missing base duration, falling back to current estimate",
			"objective", o.Name, "estimated_months", o.EstimatedMonths)
		o.BaseEstimatedMonths = o.EstimatedMonths
	}
}

// UpdateObjective writes back the mutable fields of an objective.
func (db *DB) UpdateObjective(o campaign.Objective) error {
	res, err := db.conn.Exec(
		`UPDATE objective SET status = ?, estimated_months = ?, base_estimated_months = ?,
		 total_cost = ?, progress_percentage = ?, start_day = ? WHERE id = ?`,
		o.Status, o.EstimatedMonths, o.BaseEstimatedMonths,
		o.TotalCost, o.ProgressPercentage, o.StartDay, o.ID,
	)
	if err != nil {
		return fmt.Errorf("update objective %d: %w", o.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrObjectiveNotFound
	}
	return nil
}

// StartObjective transitions a NOT_STARTED objective to IN_PROGRESS and
// stamps its start day. Starting an objective in any other state is rejected.
func (db *DB) StartObjective(id int64, startDay int) error {
	res, err := db.conn.Exec(
		"UPDATE objective SET status = ?, start_day = ? WHERE id = ? AND status = ?",
		campaign.StatusInProgress, startDay, id, campaign.StatusNotStarted,
	)
	if err != nil {
		return fmt.Errorf("start objective %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("objective %d is not in NOT_STARTED state", id)
	}
	return nil
}
