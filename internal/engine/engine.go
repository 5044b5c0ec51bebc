package engine

import (
	"errors"
	"sync"
	"time"

	"updown-trade-engine-go/internal/config"
	"updown-trade-engine-go/internal/models"

	"go.uber.org/zap"
)

// Validation errors returned by OpenTrade. A rejected trade is never
// admitted and leaves no partial state behind.
var (
	ErrInvalidAsset      = errors.New("asset must not be empty")
	ErrInvalidDirection  = errors.New("direction must be UP or DOWN")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrInvalidStartPrice = errors.New("start price must be positive")
	ErrInvalidDuration   = errors.New("duration must be positive")
	ErrEngineClosed      = errors.New("engine is closed")
)

// SettlementListener is notified after a trade has moved to history. The
// engine does not credit payouts itself; a listener may credit the user's
// balance and persist the record.
type SettlementListener func(trade models.Trade)

// Engine is the composition root of the contract simulator. It wires the
// clock, the price process, the settlement rule and the ledger, and exposes
// the open/observe operations to callers.
type Engine struct {
	logger  *zap.Logger
	ledger  *Ledger
	settler *SettlementEngine
	prices  *PriceProcess

	tickInterval time.Duration
	now          func() time.Time

	mu        sync.Mutex
	listeners []SettlementListener
	clockStop chan struct{} // non-nil while the clock goroutine runs
	clockDone chan struct{}
	closed    bool
}

// NewEngine creates a trading engine. Pass a nil NoiseSource to use a
// time-seeded one; tests inject fixed sources for determinism. Zero config
// fields fall back to the stock contract parameters.
func NewEngine(logger *zap.Logger, cfg *config.Trading, src NoiseSource) *Engine {
	if src == nil {
		src = NewRandSource(time.Now().UnixNano())
	}

	tickInterval := time.Duration(cfg.TickInterval) * time.Second
	if tickInterval <= 0 {
		tickInterval = time.Second
	}
	payoutMultiplier := cfg.PayoutMultiplier
	if payoutMultiplier <= 0 {
		payoutMultiplier = 1.85
	}
	tickVol := cfg.TickVolatility
	if tickVol <= 0 {
		tickVol = 0.001
	}
	settleVol := cfg.SettlementVolatility
	if settleVol <= 0 {
		settleVol = 0.002
	}

	prices := NewPriceProcess(src, tickVol, settleVol)
	return &Engine{
		logger:       logger,
		ledger:       NewLedger(),
		settler:      NewSettlementEngine(prices, payoutMultiplier),
		prices:       prices,
		tickInterval: tickInterval,
		now:          time.Now,
	}
}

// OnSettlement registers a listener called once per settled trade.
func (e *Engine) OnSettlement(fn SettlementListener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, fn)
}

// OpenTrade validates and admits a new contract. The caller has already
// verified sufficient balance and debited the stake; the engine never
// re-validates funds. The returned value is a copy of the admitted trade.
func (e *Engine) OpenTrade(asset string, direction models.Direction, amount, startPrice float64, duration time.Duration) (models.Trade, error) {
	if asset == "" {
		return models.Trade{}, ErrInvalidAsset
	}
	if !direction.Valid() {
		return models.Trade{}, ErrInvalidDirection
	}
	if amount <= 0 {
		return models.Trade{}, ErrInvalidAmount
	}
	if startPrice <= 0 {
		return models.Trade{}, ErrInvalidStartPrice
	}
	if duration <= 0 {
		return models.Trade{}, ErrInvalidDuration
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return models.Trade{}, ErrEngineClosed
	}

	t := models.NewTrade(asset, direction, amount, startPrice, duration, e.now())
	e.ledger.Admit(t)
	e.startClockLocked()

	e.logger.Info("Trade admitted",
		zap.String("trade_id", t.ID),
		zap.String("asset", asset),
		zap.String("direction", string(direction)),
		zap.Float64("amount", amount),
		zap.Float64("start_price", startPrice),
		zap.Duration("duration", duration),
	)
	return *t, nil
}

// Active returns a snapshot of the currently open trades.
func (e *Engine) Active() []models.Trade { return e.ledger.Active() }

// History returns the settled trades, newest first.
func (e *Engine) History() []models.Trade { return e.ledger.History() }

// Stats returns win rate and net P&L over the settled trades.
func (e *Engine) Stats() Stats { return e.ledger.Stats() }

// Close stops the clock. Trades still active are abandoned without
// settlement; the engine keeps no state worth flushing.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	stop, done := e.clockStop, e.clockDone
	e.clockStop, e.clockDone = nil, nil
	e.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
	e.logger.Info("Engine closed", zap.Int("abandoned_trades", e.ledger.ActiveCount()))
}

// startClockLocked launches the clock goroutine if it is not already
// running. Callers must hold e.mu. The clock stops itself once the active
// set drains and is relaunched here on the next admission.
func (e *Engine) startClockLocked() {
	if e.clockStop != nil || e.closed {
		return
	}
	stop := make(chan struct{})
	done := make(chan struct{})
	e.clockStop, e.clockDone = stop, done
	go e.runClock(stop, done)
	e.logger.Debug("Clock started", zap.Duration("interval", e.tickInterval))
}

func (e *Engine) runClock(stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(e.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			e.tick(e.now())
			// Idle check and admission both run under e.mu, so a trade
			// admitted after this check also observes a running clock.
			e.mu.Lock()
			if e.ledger.ActiveCount() == 0 && e.clockStop != nil {
				e.clockStop, e.clockDone = nil, nil
				e.mu.Unlock()
				e.logger.Debug("Clock stopped, active set empty")
				return
			}
			e.mu.Unlock()
		}
	}
}

// tick advances every active trade once: expired trades settle and move to
// history, live ones get a fresh interim price. Per-trade work is fanned out
// over goroutines; the tick waits for all of them, so ticks never overlap
// and each trade is touched by at most one goroutine at a time.
func (e *Engine) tick(now time.Time) {
	trades := e.ledger.Active()

	var wg sync.WaitGroup
	for _, t := range trades {
		wg.Add(1)
		go func(tr models.Trade) {
			defer wg.Done()
			e.processTrade(&tr, now)
		}(t)
	}
	wg.Wait()
}

// processTrade handles a single trade for a single tick, working on a
// private copy so settlement fields are only ever visible through a
// successful move to history.
func (e *Engine) processTrade(tr *models.Trade, now time.Time) {
	if tr.Expired(now) {
		if err := e.settler.Settle(tr, now); err != nil {
			// Transient: the trade stays active and is retried next tick.
			e.logger.Warn("Settlement price draw failed",
				zap.String("trade_id", tr.ID), zap.Error(err))
			return
		}
		if !e.ledger.MoveToHistory(tr.ID, tr) {
			// Lost the race to another settlement attempt; discard.
			e.logger.Debug("Trade already settled", zap.String("trade_id", tr.ID))
			return
		}
		e.logger.Info("Trade settled",
			zap.String("trade_id", tr.ID),
			zap.String("asset", tr.Asset),
			zap.String("status", string(tr.Status)),
			zap.Float64("end_price", tr.EndPrice),
			zap.Float64("payout", tr.Payout),
		)
		e.notify(*tr)
		return
	}

	price, err := e.prices.SampleInterim(tr.StartPrice)
	if err != nil {
		// Leave the last good display price in place.
		e.logger.Warn("Interim price draw failed",
			zap.String("trade_id", tr.ID), zap.Error(err))
		return
	}
	e.ledger.UpdateCurrentPrice(tr.ID, price)
}

func (e *Engine) notify(trade models.Trade) {
	e.mu.Lock()
	listeners := make([]SettlementListener, len(e.listeners))
	copy(listeners, e.listeners)
	e.mu.Unlock()

	for _, fn := range listeners {
		fn(trade)
	}
}
