package persistence

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/talgya/mystara/internal/campaign"
)

// ErrAccountNotFound is returned when a ledger account id does not exist.
var ErrAccountNotFound = errors.New("account not found")

// CreateAccount inserts a new ledger account and returns its id.
func (db *DB) CreateAccount(name string, balance, interestPercent decimal.Decimal) (int64, error) {
	res, err := db.conn.Exec(
		"INSERT INTO ledger_account (name, balance, annual_interest_percent) VALUES (?, ?, ?)",
		name, balance, interestPercent,
	)
	if err != nil {
		return 0, fmt.Errorf("create account: %w", err)
	}
	return res.LastInsertId()
}

// GetAccount loads a single account by id.
func (db *DB) GetAccount(id int64) (campaign.Account, error) {
	var a campaign.Account
	err := db.conn.Get(&a,
		"SELECT id, name, balance, annual_interest_percent FROM ledger_account WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return campaign.Account{}, ErrAccountNotFound
	}
	if err != nil {
		return campaign.Account{}, fmt.Errorf("get account %d: %w", id, err)
	}
	return a, nil
}

// ListAccounts returns all ledger accounts.
func (db *DB) ListAccounts() ([]campaign.Account, error) {
	var accounts []campaign.Account
	err := db.conn.Select(&accounts,
		"SELECT id, name, balance, annual_interest_percent FROM ledger_account ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

// Credit adds amount to the account balance as one atomic read-modify-write.
func (db *DB) Credit(id int64, amount decimal.Decimal) error {
	return db.mutateBalance(id, func(balance decimal.Decimal) (decimal.Decimal, bool) {
		return balance.Add(amount), true
	})
}

// Debit subtracts amount from the account balance only if the balance covers
// it. Returns false with a nil error when funds are insufficient — callers
// treat that as a normal skip, not a failure. The balance never goes negative
// from an engine-driven debit.
func (db *DB) Debit(id int64, amount decimal.Decimal) (bool, error) {
	applied := false
	err := db.mutateBalance(id, func(balance decimal.Decimal) (decimal.Decimal, bool) {
		if balance.LessThan(amount) {
			return balance, false
		}
		applied = true
		return balance.Sub(amount), true
	})
	return applied, err
}

// mutateBalance runs a read-modify-write on one account balance inside a
// transaction so interleaved mutations cannot lose updates.
func (db *DB) mutateBalance(id int64, fn func(decimal.Decimal) (decimal.Decimal, bool)) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var balance decimal.Decimal
	err = tx.Get(&balance, "SELECT balance FROM ledger_account WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrAccountNotFound
	}
	if err != nil {
		return fmt.Errorf("read balance %d: %w", id, err)
	}

	next, write := fn(balance)
	if !write {
		return nil
	}

	if _, err := tx.Exec("UPDATE ledger_account SET balance = ? WHERE id = ?", next, id); err != nil {
		return fmt.Errorf("write balance %d: %w", id, err)
	}
	return tx.Commit()
}
