package models

import (
	"time"

	"github.com/google/uuid"
)

// Direction is the side of an up/down contract.
type Direction string

const (
	DirectionUp   Direction = "UP"
	DirectionDown Direction = "DOWN"
)

// Valid reports whether d is one of the two known directions.
func (d Direction) Valid() bool {
	return d == DirectionUp || d == DirectionDown
}

// Status is the lifecycle state of a trade. A trade starts Active and
// transitions exactly once to Won or Lost; both are terminal.
type Status string

const (
	StatusActive Status = "ACTIVE"
	StatusWon    Status = "WON"
	StatusLost   Status = "LOST"
)

// Trade represents one up/down contract at runtime.
//
// ID, Asset, Direction, Amount, StartPrice, Duration and StartTime are fixed
// at open time. CurrentPrice is refreshed every clock tick while the trade is
// active and is for display only. EndPrice, EndTime, Payout and a terminal
// Status are stamped exactly once, at settlement.
type Trade struct {
	ID           string        `json:"id"`
	Asset        string        `json:"asset"`
	Direction    Direction     `json:"direction"`
	Amount       float64       `json:"amount"`
	StartPrice   float64       `json:"start_price"`
	CurrentPrice float64       `json:"current_price,omitempty"`
	EndPrice     float64       `json:"end_price,omitempty"`
	Duration     time.Duration `json:"duration"`
	StartTime    time.Time     `json:"start_time"`
	EndTime      time.Time     `json:"end_time,omitempty"`
	Status       Status        `json:"status"`
	Payout       float64       `json:"payout"`
}

// NewTrade builds an active trade with a fresh id. Validation of the inputs
// is the caller's job; this is plain construction.
func NewTrade(asset string, direction Direction, amount, startPrice float64, duration time.Duration, now time.Time) *Trade {
	return &Trade{
		ID:           uuid.NewString(),
		Asset:        asset,
		Direction:    direction,
		Amount:       amount,
		StartPrice:   startPrice,
		CurrentPrice: startPrice,
		Duration:     duration,
		StartTime:    now,
		Status:       StatusActive,
	}
}

// Elapsed returns how long the trade has been open at the given instant.
func (t *Trade) Elapsed(now time.Time) time.Duration {
	return now.Sub(t.StartTime)
}

// Expired reports whether the contract duration has fully run at the given
// instant. This is the sole expiry condition in the system.
func (t *Trade) Expired(now time.Time) bool {
	return t.Elapsed(now) >= t.Duration
}

// Remaining returns the time left until expiry, floored at zero for display.
func (t *Trade) Remaining(now time.Time) time.Duration {
	r := t.Duration - t.Elapsed(now)
	if r < 0 {
		return 0
	}
	return r
}

// Progress returns elapsed/duration clamped to [0, 1], so a late tick never
// reports more than 100% before settlement lands.
func (t *Trade) Progress(now time.Time) float64 {
	if t.Duration <= 0 {
		return 1
	}
	p := float64(t.Elapsed(now)) / float64(t.Duration)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// Settled reports whether the trade has reached a terminal state.
func (t *Trade) Settled() bool {
	return t.Status != StatusActive
}
