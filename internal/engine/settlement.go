package engine

import (
	"time"

	"updown-trade-engine-go/internal/models"
)

// SettlementEngine decides the outcome of an expiring trade.
type SettlementEngine struct {
	prices           *PriceProcess
	payoutMultiplier float64
}

// NewSettlementEngine creates a settlement engine using the given price
// process for final draws.
func NewSettlementEngine(prices *PriceProcess, payoutMultiplier float64) *SettlementEngine {
	return &SettlementEngine{prices: prices, payoutMultiplier: payoutMultiplier}
}

// Settle draws the final price and stamps the terminal fields on t.
//
// An up trade wins iff the final price is strictly above the start price, a
// down trade iff strictly below; an exact tie is a loss for both directions.
// The winning payout is amount * multiplier (the stake was debited at open
// time, so this is the total credit); a loss pays nothing.
//
// The caller must hold the only reference to t and must route the result
// through Ledger.MoveToHistory, which enforces that a trade settles at most
// once. A failed price draw leaves t untouched so it can be retried on the
// next tick.
func (s *SettlementEngine) Settle(t *models.Trade, now time.Time) error {
	endPrice, err := s.prices.SampleSettlement(t.StartPrice)
	if err != nil {
		return err
	}

	priceDelta := endPrice - t.StartPrice
	isWin := (t.Direction == models.DirectionUp && priceDelta > 0) ||
		(t.Direction == models.DirectionDown && priceDelta < 0)

	t.EndPrice = endPrice
	t.CurrentPrice = endPrice
	t.EndTime = now
	if isWin {
		t.Status = models.StatusWon
		t.Payout = t.Amount * s.payoutMultiplier
	} else {
		t.Status = models.StatusLost
		t.Payout = 0
	}
	return nil
}
