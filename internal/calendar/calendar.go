// Package calendar converts between absolute game days and the Mystara
// calendar: 12 months of exactly 28 days, 336 days per year, epoch at
// 1 Nuwmont of year 1 (absolute day 0).
package calendar

import (
	"fmt"
	"log/slog"
	"time"
)

const (
	DaysPerMonth  = 28
	MonthsPerYear = 12
	DaysPerYear   = DaysPerMonth * MonthsPerYear // 336
	EpochYear     = 1
)

// MonthNames are the twelve Mystara months in order.
var MonthNames = [MonthsPerYear]string{
	"NUWMONT", "VATERMONT", "THAUMONT", "FLAURMONT",
	"YARTHMONT", "KLARMONT", "FELMONT", "FYRMONT",
	"AMBYRMONT", "SVIFTMONT", "EIRMONT", "KALDMONT",
}

// storageEpoch anchors the real-date representation kept in the legacy
// calendar_date column. The column exists only for readability and for
// backfilling databases that predate the absolute_day counter.
var storageEpoch = time.Date(1000, time.January, 1, 0, 0, 0, 0, time.UTC)

// Date is a Mystara calendar date.
type Date struct {
	Day        int    // 1..28
	MonthIndex int    // 0..11
	MonthName  string
	Year       int // >= EpochYear
}

// FromAbsoluteDay converts an absolute day count to a Mystara date.
// Negative inputs are clamped to the epoch; pre-epoch dates are unsupported.
func FromAbsoluteDay(absDay int) Date {
	if absDay < 0 {
		slog.Warn("pre-epoch absolute day clamped", "abs_day", absDay)
		absDay = 0
	}
	dayOfYear := absDay % DaysPerYear
	monthIndex := dayOfYear / DaysPerMonth
	return Date{
		Day:        dayOfYear%DaysPerMonth + 1,
		MonthIndex: monthIndex,
		MonthName:  MonthNames[monthIndex],
		Year:       EpochYear + absDay/DaysPerYear,
	}
}

// ToAbsoluteDay converts a Mystara date back to an absolute day count.
func ToAbsoluteDay(d Date) int {
	return (d.Year-EpochYear)*DaysPerYear + d.MonthIndex*DaysPerMonth + (d.Day - 1)
}

// Year returns the Mystara year an absolute day falls in.
func Year(absDay int) int {
	if absDay < 0 {
		absDay = 0
	}
	return EpochYear + absDay/DaysPerYear
}

// Validate checks the components of a manually entered date.
func Validate(day, monthIndex, year int) error {
	if day < 1 || day > DaysPerMonth {
		return fmt.Errorf("day %d out of range 1..%d", day, DaysPerMonth)
	}
	if monthIndex < 0 || monthIndex >= MonthsPerYear {
		return fmt.Errorf("month index %d out of range 0..%d", monthIndex, MonthsPerYear-1)
	}
	if year < EpochYear {
		return fmt.Errorf("year %d precedes epoch year %d", year, EpochYear)
	}
	return nil
}

// Format renders a date as "01 NUWMONT 1000".
func (d Date) Format() string {
	return fmt.Sprintf("%02d %s %d", d.Day, d.MonthName, d.Year)
}

// Display is shorthand for formatting an absolute day directly.
func Display(absDay int) string {
	return FromAbsoluteDay(absDay).Format()
}

// ToStorageDate maps an absolute day onto the real-date representation used
// by the legacy calendar_date column.
func ToStorageDate(absDay int) time.Time {
	if absDay < 0 {
		absDay = 0
	}
	return storageEpoch.AddDate(0, 0, absDay)
}

// FromStorageDate recovers an absolute day from a stored real date. Parse or
// range failures yield day 0 with a log entry rather than an error, matching
// the tolerance expected of legacy rows.
func FromStorageDate(raw string) int {
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		slog.Warn("unparseable stored calendar date, defaulting to epoch", "value", raw, "error", err)
		return 0
	}
	days := int(t.Sub(storageEpoch).Hours() / 24)
	if days < 0 {
		slog.Warn("stored calendar date precedes epoch, clamping", "value", raw)
		return 0
	}
	return days
}

// FormatStorageDate renders the legacy column value for an absolute day.
func FormatStorageDate(absDay int) string {
	return ToStorageDate(absDay).Format("2006-01-02")
}
