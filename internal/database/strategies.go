package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Alias1177/WalletAdvisor/models"
)

// SaveStrategy upserts a strategy with its performance counters
func (db *DB) SaveStrategy(ctx context.Context, s models.Strategy) error {
	params, err := json.Marshal(s.Parameters)
	if err != nil {
		return fmt.Errorf("encoding parameters: %w", err)
	}

	var lastExecuted sql.NullTime
	if s.LastExecutedAt != nil {
		lastExecuted = sql.NullTime{Time: *s.LastExecutedAt, Valid: true}
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO strategies (
			id, type, asset, enabled, parameters, risk_level, max_allocation_percent,
			last_executed_at, total_trades, successful_trades, total_return
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id)
		DO UPDATE SET
			enabled = EXCLUDED.enabled,
			parameters = EXCLUDED.parameters,
			risk_level = EXCLUDED.risk_level,
			max_allocation_percent = EXCLUDED.max_allocation_percent,
			last_executed_at = EXCLUDED.last_executed_at,
			total_trades = EXCLUDED.total_trades,
			successful_trades = EXCLUDED.successful_trades,
			total_return = EXCLUDED.total_return
	`,
		s.ID, s.Type, s.Asset, s.Enabled, string(params), string(s.RiskLevel), s.MaxAllocationPercent,
		lastExecuted, s.Performance.TotalTrades, s.Performance.SuccessfulTrades, s.Performance.TotalReturn)

	return err
}

// LoadStrategies returns all stored strategies
func (db *DB) LoadStrategies(ctx context.Context) ([]models.Strategy, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT
			id, type, asset, enabled, parameters, risk_level, max_allocation_percent,
			last_executed_at, total_trades, successful_trades, total_return
		FROM strategies
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var strategies []models.Strategy
	for rows.Next() {
		var (
			s            models.Strategy
			params       []byte
			riskLevel    string
			lastExecuted sql.NullTime
		)
		if err := rows.Scan(
			&s.ID, &s.Type, &s.Asset, &s.Enabled, &params, &riskLevel, &s.MaxAllocationPercent,
			&lastExecuted, &s.Performance.TotalTrades, &s.Performance.SuccessfulTrades, &s.Performance.TotalReturn,
		); err != nil {
			return nil, err
		}

		if err := json.Unmarshal(params, &s.Parameters); err != nil {
			return nil, fmt.Errorf("decoding parameters of %s: %w", s.ID, err)
		}
		s.RiskLevel = models.RiskLevel(riskLevel)
		if lastExecuted.Valid {
			t := lastExecuted.Time
			s.LastExecutedAt = &t
		}

		strategies = append(strategies, s)
	}

	return strategies, rows.Err()
}
