package database

import (
	"context"
	"database/sql"
	"errors"
	"math/big"

	"github.com/Alias1177/WalletAdvisor/models"
)

// GetAccountProfile returns the stored profile of an account. An unknown
// account gets a medium-frequency profile without a stored limit.
func (db *DB) GetAccountProfile(ctx context.Context, account string) (models.AccountProfile, error) {
	profile := models.AccountProfile{
		Account:  account,
		Behavior: models.BehaviorProfile{TransactionFrequency: models.FrequencyMedium},
	}

	var (
		frequency string
		limit     sql.NullString
		balance   sql.NullString
	)
	err := db.QueryRowContext(ctx, `
		SELECT transaction_frequency, per_transaction_limit_wei, balance_wei
		FROM account_profiles
		WHERE account = $1
	`, account).Scan(&frequency, &limit, &balance)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return profile, nil
		}
		return models.AccountProfile{}, err
	}

	profile.Behavior.TransactionFrequency = models.Frequency(frequency)
	if profile.PerTransactionLimitWei, err = parseWei(limit); err != nil {
		return models.AccountProfile{}, err
	}
	if profile.BalanceWei, err = parseWei(balance); err != nil {
		return models.AccountProfile{}, err
	}

	return profile, nil
}

// UpsertAccountProfile stores an account profile
func (db *DB) UpsertAccountProfile(ctx context.Context, p models.AccountProfile) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO account_profiles (account, transaction_frequency, per_transaction_limit_wei, balance_wei, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (account)
		DO UPDATE SET
			transaction_frequency = EXCLUDED.transaction_frequency,
			per_transaction_limit_wei = EXCLUDED.per_transaction_limit_wei,
			balance_wei = EXCLUDED.balance_wei,
			updated_at = NOW()
	`, p.Account, string(p.Behavior.TransactionFrequency), weiValue(p.PerTransactionLimitWei), weiValue(p.BalanceWei))

	return err
}

// SetTransactionLimit updates only the per-transaction limit of an account
func (db *DB) SetTransactionLimit(ctx context.Context, account string, limit *big.Int) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO account_profiles (account, per_transaction_limit_wei, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (account)
		DO UPDATE SET per_transaction_limit_wei = EXCLUDED.per_transaction_limit_wei, updated_at = NOW()
	`, account, weiValue(limit))

	return err
}
