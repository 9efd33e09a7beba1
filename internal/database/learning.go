package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Alias1177/WalletAdvisor/models"
)

// learningStateID is the single row holding the process-wide state
const learningStateID = 1

// SaveLearningState stores the feedback accumulator
func (db *DB) SaveLearningState(ctx context.Context, s models.LearningState) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO learning_state (id, total_transactions, confidence_score, success_rate, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (id)
		DO UPDATE SET
			total_transactions = EXCLUDED.total_transactions,
			confidence_score = EXCLUDED.confidence_score,
			success_rate = EXCLUDED.success_rate,
			updated_at = NOW()
	`, learningStateID, s.TotalTransactions, s.ConfidenceScore, s.SuccessRate)

	return err
}

// LoadLearningState returns the stored state, or false when none was saved
func (db *DB) LoadLearningState(ctx context.Context) (models.LearningState, bool, error) {
	var s models.LearningState
	err := db.QueryRowContext(ctx, `
		SELECT total_transactions, confidence_score, success_rate
		FROM learning_state
		WHERE id = $1
	`, learningStateID).Scan(&s.TotalTransactions, &s.ConfidenceScore, &s.SuccessRate)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.LearningState{}, false, nil
		}
		return models.LearningState{}, false, err
	}
	return s, true, nil
}

// ResetLearningState deletes the stored state
func (db *DB) ResetLearningState(ctx context.Context) error {
	_, err := db.ExecContext(ctx, `DELETE FROM learning_state WHERE id = $1`, learningStateID)
	return err
}
