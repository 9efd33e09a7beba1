// Package strategy owns strategy definitions and runs them on a schedule.
package strategy

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/WalletAdvisor/models"
)

// Store persists strategies. Optional.
type Store interface {
	SaveStrategy(ctx context.Context, s models.Strategy) error
}

// Outcome is what a single strategy run produced
type Outcome struct {
	Traded    bool
	Succeeded bool
	ReturnPct float64
}

type entry struct {
	strategy models.Strategy
	running  bool
}

// Registry holds strategies and guards against overlapping runs of the same
// strategy. Safe for concurrent use.
type Registry struct {
	mu         sync.Mutex
	strategies map[string]*entry
	cooldown   time.Duration
	store      Store
	logger     zerolog.Logger
}

// NewRegistry creates a registry. store may be nil.
func NewRegistry(cooldown time.Duration, store Store) *Registry {
	return &Registry{
		strategies: make(map[string]*entry),
		cooldown:   cooldown,
		store:      store,
		logger:     log.With().Str("component", "strategy_registry").Logger(),
	}
}

// Create adds an enabled strategy with a fresh id
func (r *Registry) Create(ctx context.Context, kind, asset string, params map[string]float64, level models.RiskLevel, maxAllocationPercent float64) (models.Strategy, error) {
	if asset == "" {
		return models.Strategy{}, fmt.Errorf("strategy asset is required")
	}
	if maxAllocationPercent <= 0 || maxAllocationPercent > 100 {
		return models.Strategy{}, fmt.Errorf("max allocation %.2f%% out of range (0, 100]", maxAllocationPercent)
	}

	s := models.Strategy{
		ID:                   uuid.NewString(),
		Type:                 kind,
		Asset:                asset,
		Enabled:              true,
		Parameters:           copyParams(params),
		RiskLevel:            level,
		MaxAllocationPercent: maxAllocationPercent,
	}

	// registered only once stored
	if err := r.save(ctx, s); err != nil {
		return models.Strategy{}, err
	}

	r.mu.Lock()
	r.strategies[s.ID] = &entry{strategy: s}
	r.mu.Unlock()

	r.logger.Info().Str("strategy_id", s.ID).Str("type", kind).Str("asset", asset).Msg("Strategy created")
	return clone(s), nil
}

// Load restores persisted strategies, replacing any with the same id
func (r *Registry) Load(strategies []models.Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range strategies {
		r.strategies[s.ID] = &entry{strategy: clone(s)}
	}
	r.logger.Info().Int("count", len(strategies)).Msg("Strategies loaded")
}

// Enable turns a strategy on
func (r *Registry) Enable(ctx context.Context, id string) error {
	return r.setEnabled(ctx, id, true)
}

// Disable turns a strategy off. A run already in progress finishes.
func (r *Registry) Disable(ctx context.Context, id string) error {
	return r.setEnabled(ctx, id, false)
}

func (r *Registry) setEnabled(ctx context.Context, id string, enabled bool) error {
	r.mu.Lock()
	e, ok := r.strategies[id]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", models.ErrStrategyNotFound, id)
	}
	e.strategy.Enabled = enabled
	s := clone(e.strategy)
	r.mu.Unlock()

	return r.save(ctx, s)
}

// Get returns a copy of a strategy
func (r *Registry) Get(id string) (models.Strategy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.strategies[id]
	if !ok {
		return models.Strategy{}, fmt.Errorf("%w: %s", models.ErrStrategyNotFound, id)
	}
	return clone(e.strategy), nil
}

// List returns copies of all strategies ordered by id
func (r *Registry) List() []models.Strategy {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.Strategy, 0, len(r.strategies))
	for _, e := range r.strategies {
		out = append(out, clone(e.strategy))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Begin claims a strategy for a run. It refuses disabled strategies, ones
// already running and ones still inside the cooldown window.
func (r *Registry) Begin(id string, now time.Time) (models.Strategy, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.strategies[id]
	if !ok || !e.strategy.Enabled || e.running {
		return models.Strategy{}, false
	}
	if last := e.strategy.LastExecutedAt; last != nil && now.Sub(*last) < r.cooldown {
		return models.Strategy{}, false
	}

	e.running = true
	return clone(e.strategy), true
}

// Finish records a completed run and releases the strategy
func (r *Registry) Finish(ctx context.Context, id string, outcome Outcome, now time.Time) error {
	r.mu.Lock()
	e, ok := r.strategies[id]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", models.ErrStrategyNotFound, id)
	}

	if outcome.Traded {
		e.strategy.Performance.TotalTrades++
		if outcome.Succeeded {
			e.strategy.Performance.SuccessfulTrades++
		}
		e.strategy.Performance.TotalReturn += outcome.ReturnPct
	}
	at := now
	e.strategy.LastExecutedAt = &at
	e.running = false
	s := clone(e.strategy)
	r.mu.Unlock()

	return r.save(ctx, s)
}

// Release frees a strategy after a failed run without touching its record
func (r *Registry) Release(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.strategies[id]; ok {
		e.running = false
	}
}

func (r *Registry) save(ctx context.Context, s models.Strategy) error {
	if r.store == nil {
		return nil
	}
	if err := r.store.SaveStrategy(ctx, s); err != nil {
		return fmt.Errorf("failed to save strategy %s: %w", s.ID, err)
	}
	return nil
}

func clone(s models.Strategy) models.Strategy {
	s.Parameters = copyParams(s.Parameters)
	if s.LastExecutedAt != nil {
		t := *s.LastExecutedAt
		s.LastExecutedAt = &t
	}
	return s
}

func copyParams(params map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(params))
	for k, v := range params {
		out[k] = v
	}
	return out
}
