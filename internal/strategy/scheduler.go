package strategy

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/Alias1177/WalletAdvisor/internal/metrics"
	"github.com/Alias1177/WalletAdvisor/models"
)

// Runner executes one evaluation of a strategy
type Runner interface {
	Run(ctx context.Context, s models.Strategy) (Outcome, error)
}

// TickResult summarises a scheduler tick
type TickResult struct {
	Started int
	Skipped int
	Failed  int
}

// Scheduler runs eligible strategies on each tick
type Scheduler struct {
	registry    *Registry
	runner      Runner
	maxParallel int
	logger      zerolog.Logger
}

// NewScheduler creates a scheduler running at most maxParallel strategies at once
func NewScheduler(registry *Registry, runner Runner, maxParallel int) *Scheduler {
	if maxParallel <= 0 {
		maxParallel = 1
	}
	return &Scheduler{
		registry:    registry,
		runner:      runner,
		maxParallel: maxParallel,
		logger:      log.With().Str("component", "strategy_scheduler").Logger(),
	}
}

// Tick runs every strategy that passes the guard. A failing strategy is
// logged and released; it never stops the others.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) TickResult {
	var (
		result     TickResult
		strategies = s.registry.List()
		outcome    = make(chan bool, len(strategies))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxParallel)

	for _, st := range strategies {
		claimed, ok := s.registry.Begin(st.ID, now)
		if !ok {
			result.Skipped++
			metrics.StrategyTickSkipped.Inc()
			continue
		}
		result.Started++

		g.Go(func() error {
			outcome <- s.runOne(gctx, claimed, now)
			return nil
		})
	}

	_ = g.Wait()
	close(outcome)

	for ok := range outcome {
		if !ok {
			result.Failed++
		}
	}

	s.logger.Debug().
		Int("started", result.Started).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Msg("Strategy tick complete")

	return result
}

func (s *Scheduler) runOne(ctx context.Context, st models.Strategy, now time.Time) bool {
	logger := s.logger.With().Str("strategy_id", st.ID).Str("asset", st.Asset).Logger()

	out, err := s.runner.Run(ctx, st)
	if err != nil {
		s.registry.Release(st.ID)
		metrics.StrategyErrors.WithLabelValues(st.Asset).Inc()
		logger.Error().Err(err).Msg("Strategy run failed")
		return false
	}

	if err := s.registry.Finish(ctx, st.ID, out, now); err != nil {
		logger.Warn().Err(err).Msg("Failed to record strategy run")
	}
	return true
}

// Run ticks every interval until ctx is cancelled
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.Tick(ctx, time.Now())
	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Strategy scheduler stopped")
			return
		case now := <-ticker.C:
			s.Tick(ctx, now)
		}
	}
}
