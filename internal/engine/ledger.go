package engine

import (
	"sync"

	"updown-trade-engine-go/internal/models"
)

// Stats summarizes the completed trades held in history.
type Stats struct {
	Completed int     `json:"completed"`
	Won       int     `json:"won"`
	WinRate   float64 `json:"win_rate"` // percentage, 0 when history is empty
	NetPnL    float64 `json:"net_pnl"`  // sum of (payout - amount)
}

// Ledger owns the partition of trades into the active set and the history
// list. A trade belongs to exactly one side at any time and only ever moves
// active -> history. The move is the at-most-once settlement guard: a second
// attempt for the same id is a no-op.
type Ledger struct {
	mu      sync.Mutex
	active  map[string]*models.Trade
	history []*models.Trade // newest first
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{active: make(map[string]*models.Trade)}
}

// Admit inserts a freshly opened trade into the active set.
func (l *Ledger) Admit(t *models.Trade) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.active[t.ID] = t
}

// MoveToHistory removes the trade from the active set and prepends the
// settled copy to history. It reports whether the move happened; false means
// the id was no longer active (already settled) and the caller must discard
// its settlement result.
func (l *Ledger) MoveToHistory(id string, settled *models.Trade) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.active[id]; !ok {
		return false
	}
	delete(l.active, id)
	l.history = append([]*models.Trade{settled}, l.history...)
	return true
}

// UpdateCurrentPrice refreshes the live display price of an active trade.
// Unknown ids are ignored, so a price computed for a trade that settled in
// the meantime cannot resurrect it.
func (l *Ledger) UpdateCurrentPrice(id string, price float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if t, ok := l.active[id]; ok {
		t.CurrentPrice = price
	}
}

// Active returns a snapshot of the active set as value copies.
func (l *Ledger) Active() []models.Trade {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.Trade, 0, len(l.active))
	for _, t := range l.active {
		out = append(out, *t)
	}
	return out
}

// ActiveCount returns the size of the active set.
func (l *Ledger) ActiveCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.active)
}

// History returns a snapshot of settled trades, newest first.
func (l *Ledger) History() []models.Trade {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.Trade, 0, len(l.history))
	for _, t := range l.history {
		out = append(out, *t)
	}
	return out
}

// Stats computes win rate and net P&L over completed trades. An empty
// history yields an explicit zero win rate, never a division by zero.
func (l *Ledger) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()

	var s Stats
	for _, t := range l.history {
		if !t.Settled() {
			continue
		}
		s.Completed++
		if t.Status == models.StatusWon {
			s.Won++
		}
		s.NetPnL += t.Payout - t.Amount
	}
	if s.Completed > 0 {
		s.WinRate = float64(s.Won) / float64(s.Completed) * 100
	}
	return s
}
