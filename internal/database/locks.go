package database

import (
	"context"
	"database/sql"
	"errors"
)

// WalletLock reads the lock flag of one account
type WalletLock struct {
	db      *DB
	account string
}

// WalletLock returns the lock checker of an account
func (db *DB) WalletLock(account string) *WalletLock {
	return &WalletLock{db: db, account: account}
}

// IsLocked reports whether the account is locked. No row means unlocked.
func (l *WalletLock) IsLocked(ctx context.Context) (bool, error) {
	var locked bool
	err := l.db.QueryRowContext(ctx, `SELECT locked FROM wallet_locks WHERE account = $1`, l.account).Scan(&locked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return locked, nil
}

// SetLocked locks or unlocks an account
func (db *DB) SetLocked(ctx context.Context, account string, locked bool) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO wallet_locks (account, locked, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (account)
		DO UPDATE SET locked = EXCLUDED.locked, updated_at = NOW()
	`, account, locked)

	return err
}
