// Package learning keeps the running feedback state shared by the gas
// optimizer and the decision engine.
package learning

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/WalletAdvisor/internal/metrics"
	"github.com/Alias1177/WalletAdvisor/models"
)

const (
	// InitialConfidence is the confidence score of a fresh tracker
	InitialConfidence = 0.5
	// nudgeStep is the share of the gap closed per recorded outcome
	nudgeStep = 0.1
)

// Tracker accumulates outcomes. Safe for concurrent use.
type Tracker struct {
	mu        sync.RWMutex
	total     int
	successes int
	score     float64
	logger    zerolog.Logger
}

// NewTracker creates a tracker with no history
func NewTracker() *Tracker {
	return &Tracker{
		score:  InitialConfidence,
		logger: log.With().Str("component", "learning_tracker").Logger(),
	}
}

// RecordOutcome folds one completed transfer or strategy cycle into the state
func (t *Tracker) RecordOutcome(confidence float64, succeeded bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.total++
	if succeeded {
		t.successes++
	}
	t.score = models.Clamp01(t.score + nudgeStep*(models.Clamp01(confidence)-t.score))
	t.publishLocked()

	t.logger.Debug().
		Int("total", t.total).
		Bool("succeeded", succeeded).
		Float64("confidence_score", t.score).
		Msg("Outcome recorded")
}

// Snapshot returns a consistent copy of the current state
func (t *Tracker) Snapshot() models.LearningState {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.stateLocked()
}

func (t *Tracker) stateLocked() models.LearningState {
	var rate float64
	if t.total > 0 {
		rate = float64(t.successes) / float64(t.total)
	}
	return models.LearningState{
		TotalTransactions: t.total,
		ConfidenceScore:   t.score,
		SuccessRate:       models.Clamp01(rate),
	}
}

// Reset forgets all recorded history
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.total = 0
	t.successes = 0
	t.score = InitialConfidence
	t.publishLocked()
	t.logger.Info().Msg("Learning state reset")
}

// Restore loads a previously persisted state. The success count is rebuilt
// from the stored rate.
func (t *Tracker) Restore(state models.LearningState) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if state.TotalTransactions < 0 {
		state.TotalTransactions = 0
	}
	t.total = state.TotalTransactions
	t.successes = int(models.Clamp01(state.SuccessRate)*float64(state.TotalTransactions) + 0.5)
	t.score = models.Clamp01(state.ConfidenceScore)
	t.publishLocked()
}

func (t *Tracker) publishLocked() {
	s := t.stateLocked()
	metrics.LearningConfidence.Set(s.ConfidenceScore)
	metrics.LearningSuccessRate.Set(s.SuccessRate)
}
