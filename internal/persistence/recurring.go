package persistence

import (
	"fmt"

	"github.com/talgya/mystara/internal/campaign"
)

// CreateRecurringItem inserts a recurring income or expense and returns its id.
func (db *DB) CreateRecurringItem(item campaign.RecurringItem) (int64, error) {
	if item.Kind != campaign.KindIncome && item.Kind != campaign.KindExpense {
		return 0, fmt.Errorf("unknown item kind %q", item.Kind)
	}
	if !campaign.ValidFrequency(item.Frequency) {
		return 0, fmt.Errorf("unknown frequency %q", item.Frequency)
	}
	res, err := db.conn.Exec(
		`INSERT INTO recurring_item (description, kind, amount, frequency, linked_account_id)
		 VALUES (?, ?, ?, ?, ?)`,
		item.Description, item.Kind, item.Amount, item.Frequency, item.LinkedAccountID,
	)
	if err != nil {
		return 0, fmt.Errorf("create recurring item: %w", err)
	}
	return res.LastInsertId()
}

// ListRecurringItems returns all recurring items.
func (db *DB) ListRecurringItems() ([]campaign.RecurringItem, error) {
	var items []campaign.RecurringItem
	err := db.conn.Select(&items,
		`SELECT id, description, kind, amount, frequency, linked_account_id
		 FROM recurring_item ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list recurring items: %w", err)
	}
	return items, nil
}

// RecurringItemsByFrequency returns the items for one periodicity tier.
func (db *DB) RecurringItemsByFrequency(freq campaign.Frequency) ([]campaign.RecurringItem, error) {
	var items []campaign.RecurringItem
	err := db.conn.Select(&items,
		`SELECT id, description, kind, amount, frequency, linked_account_id
		 FROM recurring_item WHERE frequency = ? ORDER BY id`, freq)
	if err != nil {
		return nil, fmt.Errorf("list %s items: %w", freq, err)
	}
	return items, nil
}
