package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/talgya/mystara/internal/campaign"
)

// ErrEventNotFound is returned when an imprevisto event id does not exist.
var ErrEventNotFound = errors.New("imprevisto event not found")

type imprevistoRow struct {
	ID              string  `db:"id"`
	ObjectiveID     int64   `db:"objective_id"`
	Description     string  `db:"description"`
	OptionsJSON     string  `db:"response_options_json"`
	PlayerChoiceRaw *string `db:"player_choice_json"`
	Handled         bool    `db:"handled"`
	EventDay        int     `db:"event_day"`
}

func (r imprevistoRow) toEvent() (campaign.ImprevistoEvent, error) {
	ev := campaign.ImprevistoEvent{
		ID:          r.ID,
		ObjectiveID: r.ObjectiveID,
		Description: r.Description,
		Handled:     r.Handled,
		EventDay:    r.EventDay,
	}
	if err := json.Unmarshal([]byte(r.OptionsJSON), &ev.ResponseOptions); err != nil {
		return ev, fmt.Errorf("decode options for event %s: %w", r.ID, err)
	}
	if r.PlayerChoiceRaw != nil && *r.PlayerChoiceRaw != "" {
		var choice campaign.ResponseOption
		if err := json.Unmarshal([]byte(*r.PlayerChoiceRaw), &choice); err != nil {
			return ev, fmt.Errorf("decode choice for event %s: %w", r.ID, err)
		}
		ev.PlayerChoice = &choice
	}
	return ev, nil
}

// CreateImprevisto inserts a new unhandled imprevisto event.
func (db *DB) CreateImprevisto(ev campaign.ImprevistoEvent) error {
	optionsJSON, err := json.Marshal(ev.ResponseOptions)
	if err != nil {
		return fmt.Errorf("encode options: %w", err)
	}
	_, err = db.conn.Exec(
		`INSERT INTO imprevisto_event
		 (id, objective_id, description, response_options_json, player_choice_json, handled, event_day)
		 VALUES (?, ?, ?, ?, NULL, 0, ?)`,
		ev.ID, ev.ObjectiveID, ev.Description, string(optionsJSON), ev.EventDay,
	)
	if err != nil {
		return fmt.Errorf("create imprevisto: %w", err)
	}
	return nil
}

// GetImprevisto loads a single event by id.
func (db *DB) GetImprevisto(id string) (campaign.ImprevistoEvent, error) {
	var row imprevistoRow
	err := db.conn.Get(&row, imprevistoSelect+" WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return campaign.ImprevistoEvent{}, ErrEventNotFound
	}
	if err != nil {
		return campaign.ImprevistoEvent{}, fmt.Errorf("get imprevisto %s: %w", id, err)
	}
	return row.toEvent()
}

const imprevistoSelect = `SELECT id, objective_id, description, response_options_json,
	player_choice_json, handled, event_day FROM imprevisto_event`

// PendingEvent pairs an unhandled event with its objective's name for display.
type PendingEvent struct {
	EventID       string                    `json:"event_id"`
	ObjectiveName string                    `json:"objective_name"`
	Description   string                    `json:"description"`
	Options       []campaign.ResponseOption `json:"options"`
	ChoiceMade    bool                      `json:"choice_made"`
	EventDay      int                       `json:"event_day"`
}

// ListPendingEvents returns all unhandled events with their objective names.
func (db *DB) ListPendingEvents() ([]PendingEvent, error) {
	type pendingRow struct {
		imprevistoRow
		ObjectiveName string `db:"objective_name"`
	}
	var rows []pendingRow
	err := db.conn.Select(&rows,
		`SELECT e.id, e.objective_id, e.description, e.response_options_json,
		        e.player_choice_json, e.handled, e.event_day, o.name AS objective_name
		 FROM imprevisto_event e
		 JOIN objective o ON o.id = e.objective_id
		 WHERE e.handled = 0 ORDER BY e.event_day, e.id`)
	if err != nil {
		return nil, fmt.Errorf("list pending events: %w", err)
	}

	pending := make([]PendingEvent, 0, len(rows))
	for _, r := range rows {
		ev, err := r.toEvent()
		if err != nil {
			return nil, err
		}
		pending = append(pending, PendingEvent{
			EventID:       ev.ID,
			ObjectiveName: r.ObjectiveName,
			Description:   ev.Description,
			Options:       ev.ResponseOptions,
			ChoiceMade:    ev.PlayerChoice != nil,
			EventDay:      ev.EventDay,
		})
	}
	return pending, nil
}

// ListResolvableEvents returns events awaiting resolution: unhandled, with a
// registered player choice. Unhandled events without a choice stay pending
// indefinitely and are never returned here.
func (db *DB) ListResolvableEvents() ([]campaign.ImprevistoEvent, error) {
	var rows []imprevistoRow
	err := db.conn.Select(&rows,
		imprevistoSelect+` WHERE handled = 0 AND player_choice_json IS NOT NULL ORDER BY event_day, id`)
	if err != nil {
		return nil, fmt.Errorf("list resolvable events: %w", err)
	}
	events := make([]campaign.ImprevistoEvent, 0, len(rows))
	for _, r := range rows {
		ev, err := r.toEvent()
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

// RegisterChoice records the player's selected option (by value, not index)
// on a pending event. Rejects unknown events, already-handled events, and
// out-of-range option indices without mutating anything.
func (db *DB) RegisterChoice(eventID string, optionIndex int) error {
	ev, err := db.GetImprevisto(eventID)
	if err != nil {
		return err
	}
	if ev.Handled {
		return fmt.Errorf("event %s already handled", eventID)
	}
	if optionIndex < 0 || optionIndex >= len(ev.ResponseOptions) {
		return fmt.Errorf("option index %d out of range 0..%d", optionIndex, len(ev.ResponseOptions)-1)
	}

	choiceJSON, err := json.Marshal(ev.ResponseOptions[optionIndex])
	if err != nil {
		return fmt.Errorf("encode choice: %w", err)
	}
	_, err = db.conn.Exec(
		"UPDATE imprevisto_event SET player_choice_json = ? WHERE id = ?",
		string(choiceJSON), eventID,
	)
	if err != nil {
		return fmt.Errorf("register choice on %s: %w", eventID, err)
	}
	return nil
}

// MarkEventHandled persists the resolved choice (with its final
// extraMonths/extraCost, kept for audit) and flips handled.
func (db *DB) MarkEventHandled(ev campaign.ImprevistoEvent) error {
	if ev.PlayerChoice == nil {
		return fmt.Errorf("event %s has no registered choice", ev.ID)
	}
	choiceJSON, err := json.Marshal(ev.PlayerChoice)
	if err != nil {
		return fmt.Errorf("encode choice: %w", err)
	}
	_, err = db.conn.Exec(
		"UPDATE imprevisto_event SET player_choice_json = ?, handled = 1 WHERE id = ?",
		string(choiceJSON), ev.ID,
	)
	if err != nil {
		return fmt.Errorf("mark event %s handled: %w", ev.ID, err)
	}
	return nil
}
