package strategy

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/WalletAdvisor/models"
)

// PaperBook fills every order at the quoted price without touching a venue.
// The return reported for an order is the return of the position the same
// strategy opened previously, marked at the new price.
type PaperBook struct {
	mu     sync.Mutex
	open   map[string]models.Order
	logger zerolog.Logger
}

// NewPaperBook creates an empty paper book
func NewPaperBook() *PaperBook {
	return &PaperBook{
		open:   make(map[string]models.Order),
		logger: log.With().Str("component", "paper_book").Logger(),
	}
}

// CreateOrder fills the order and settles the previous position
func (b *PaperBook) CreateOrder(_ context.Context, order models.Order) (models.OrderResult, error) {
	if order.Price <= 0 {
		return models.OrderResult{}, fmt.Errorf("order for %s has no price", order.Asset)
	}
	if order.Action != models.TradeBuy && order.Action != models.TradeSell {
		return models.OrderResult{}, fmt.Errorf("unsupported order action %q", order.Action)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	result := models.OrderResult{OrderID: uuid.NewString(), Filled: true}

	if prev, ok := b.open[order.StrategyID]; ok && prev.Price > 0 {
		move := (order.Price - prev.Price) / prev.Price
		if prev.Action == models.TradeSell {
			move = -move
		}
		result.ReturnPct = move * 100
	}
	b.open[order.StrategyID] = order

	b.logger.Info().
		Str("order_id", result.OrderID).
		Str("strategy_id", order.StrategyID).
		Str("asset", order.Asset).
		Str("action", string(order.Action)).
		Float64("fraction", order.Fraction).
		Float64("price", order.Price).
		Float64("return_pct", result.ReturnPct).
		Msg("Paper order filled")

	return result, nil
}

// position returns the open paper position of a strategy
func (b *PaperBook) position(strategyID string) (models.Order, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	o, ok := b.open[strategyID]
	return o, ok
}
