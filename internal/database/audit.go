package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Alias1177/WalletAdvisor/models"
)

// RecordAssessment appends a transfer evaluation to the audit table
func (db *DB) RecordAssessment(ctx context.Context, r models.AssessmentRecord) error {
	factors := r.Assessment.Factors
	if factors == nil {
		factors = []string{}
	}
	encoded, err := json.Marshal(factors)
	if err != nil {
		return fmt.Errorf("encoding factors: %w", err)
	}

	var level sql.NullString
	if r.Assessment.Level != "" {
		level = sql.NullString{String: string(r.Assessment.Level), Valid: true}
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO assessment_audit (
			id, account, recipient, amount_wei, risk_level, factors, confidence, status, tx_hash, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		r.ID, r.Account, r.Recipient, weiValue(r.AmountWei), level, string(encoded),
		r.Assessment.Confidence, r.Status, sql.NullString{String: r.TxHash, Valid: r.TxHash != ""}, r.CreatedAt)

	return err
}

// RecentAssessments returns the latest audit records of an account, newest first
func (db *DB) RecentAssessments(ctx context.Context, account string, limit int) ([]models.AssessmentRecord, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, account, recipient, amount_wei, risk_level, factors, confidence, status, tx_hash, created_at
		FROM assessment_audit
		WHERE account = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, account, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.AssessmentRecord
	for rows.Next() {
		var (
			r          models.AssessmentRecord
			amount     sql.NullString
			level      sql.NullString
			factors    []byte
			confidence sql.NullFloat64
			txHash     sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Account, &r.Recipient, &amount, &level, &factors,
			&confidence, &r.Status, &txHash, &r.CreatedAt); err != nil {
			return nil, err
		}

		if r.AmountWei, err = parseWei(amount); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(factors, &r.Assessment.Factors); err != nil {
			return nil, fmt.Errorf("decoding factors of %s: %w", r.ID, err)
		}
		r.Assessment.Level = models.RiskLevel(level.String)
		r.Assessment.Confidence = confidence.Float64
		r.TxHash = txHash.String

		records = append(records, r)
	}

	return records, rows.Err()
}
