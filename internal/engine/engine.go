// Package engine advances campaign time and applies the periodic effects
// that come with it: recurring income and expenses, bank interest, objective
// progress, and imprevisto resolution.
package engine

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/talgya/mystara/internal/fortune"
	"github.com/talgya/mystara/internal/llm"
	"github.com/talgya/mystara/internal/persistence"
)

// Engine owns the in-memory game clock and orchestrates time advancement.
// All other components receive the current absolute day as a parameter; only
// the engine mutates it.
type Engine struct {
	db      *persistence.DB
	llm     *llm.Client
	fortune *fortune.Field
	rand    func() float64 // injectable for tests

	mu    sync.Mutex
	clock persistence.Clock
}

// New loads the persisted clock and returns a ready engine.
func New(db *persistence.DB, llmClient *llm.Client, field *fortune.Field) (*Engine, error) {
	clock, err := db.LoadClock()
	if err != nil {
		return nil, fmt.Errorf("load clock: %w", err)
	}
	return &Engine{
		db:      db,
		llm:     llmClient,
		fortune: field,
		rand:    rand.Float64,
		clock:   clock,
	}, nil
}

// DisplayDate returns the current Mystara date string.
func (e *Engine) DisplayDate() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clock.Display()
}

// AbsoluteDay returns the current absolute day counter.
func (e *Engine) AbsoluteDay() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clock.AbsoluteDay
}

// AdvanceResult is returned by every public advance or date-set operation.
// LogLines carries the human-readable account of what the advance did, for
// the UI to show alongside the new date.
type AdvanceResult struct {
	Success        bool     `json:"success"`
	NewDisplayDate string   `json:"new_display_date"`
	LogLines       []string `json:"log_lines"`
}

// advanceLog accumulates the user-facing log of one advance call. Every line
// also goes to slog so the two records stay in step.
type advanceLog struct {
	lines []string
}

func (l *advanceLog) infof(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	l.lines = append(l.lines, line)
	slog.Info(line)
}

func (l *advanceLog) warnf(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	l.lines = append(l.lines, line)
	slog.Warn(line)
}
