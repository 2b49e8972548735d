package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/talgya/mystara/internal/calendar"
)

// Clock is the singleton game clock. AbsoluteDay is the single source of
// truth; the calendar_date column is derived from it on every save and is
// read only for the one-time backfill of pre-counter databases.
type Clock struct {
	AbsoluteDay int
}

// Display returns the formatted Mystara date for the clock.
func (c Clock) Display() string {
	return calendar.Display(c.AbsoluteDay)
}

type clockRow struct {
	ID           int64   `db:"id"`
	CalendarDate *string `db:"calendar_date"`
	AbsoluteDay  int     `db:"absolute_day"`
}

// LoadClock reads the persisted game clock, creating the epoch row on first
// run. If the absolute-day counter is zero while a legacy calendar date is
// present, the counter is backfilled from the date and persisted.
func (db *DB) LoadClock() (Clock, error) {
	var row clockRow
	err := db.conn.Get(&row, "SELECT id, calendar_date, absolute_day FROM game_clock WHERE id = 1")
	if errors.Is(err, sql.ErrNoRows) {
		if _, err := db.conn.Exec(
			"INSERT INTO game_clock (id, calendar_date, absolute_day) VALUES (1, ?, 0)",
			calendar.FormatStorageDate(0),
		); err != nil {
			return Clock{}, fmt.Errorf("init game clock: %w", err)
		}
		slog.Info("game clock initialized at epoch", "date", calendar.Display(0))
		return Clock{AbsoluteDay: 0}, nil
	}
	if err != nil {
		return Clock{}, fmt.Errorf("load game clock: %w", err)
	}

	if row.AbsoluteDay == 0 && row.CalendarDate != nil && *row.CalendarDate != "" {
		if derived := calendar.FromStorageDate(*row.CalendarDate); derived > 0 {
			if err := db.SaveClock(derived); err != nil {
				return Clock{}, fmt.Errorf("backfill absolute day: %w", err)
			}
			slog.Info("absolute day backfilled from calendar date",
				"calendar_date", *row.CalendarDate, "absolute_day", derived)
			return Clock{AbsoluteDay: derived}, nil
		}
	}

	return Clock{AbsoluteDay: row.AbsoluteDay}, nil
}

// SaveClock writes the absolute day and the recomputed calendar date in a
// single statement so the two representations can never diverge.
func (db *DB) SaveClock(absDay int) error {
	if absDay < 0 {
		return fmt.Errorf("absolute day must be non-negative, got %d", absDay)
	}
	_, err := db.conn.Exec(
		"UPDATE game_clock SET absolute_day = ?, calendar_date = ? WHERE id = 1",
		absDay, calendar.FormatStorageDate(absDay),
	)
	if err != nil {
		return fmt.Errorf("save game clock: %w", err)
	}
	return nil
}
