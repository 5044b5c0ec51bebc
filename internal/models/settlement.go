package models

import "gorm.io/gorm"

// Settlement is the persisted record of one completed trade.
// Rows are written once, at settlement, and never updated.
type Settlement struct {
	gorm.Model
	TradeID    string  `gorm:"uniqueIndex;not null" json:"trade_id"`
	Asset      string  `gorm:"index" json:"asset"`
	Direction  string  `json:"direction"`
	Amount     float64 `json:"amount"`
	StartPrice float64 `json:"start_price"`
	EndPrice   float64 `json:"end_price"`
	Status     string  `gorm:"index" json:"status"`
	Payout     float64 `json:"payout"`
	OpenedAt   int64   `json:"opened_at"`
	SettledAt  int64   `gorm:"index" json:"settled_at"`
}

// FromTrade converts a settled runtime trade into its persisted form.
// Timestamps are stored as unix milliseconds.
func FromTrade(t *Trade) Settlement {
	return Settlement{
		TradeID:    t.ID,
		Asset:      t.Asset,
		Direction:  string(t.Direction),
		Amount:     t.Amount,
		StartPrice: t.StartPrice,
		EndPrice:   t.EndPrice,
		Status:     string(t.Status),
		Payout:     t.Payout,
		OpenedAt:   t.StartTime.UnixMilli(),
		SettledAt:  t.EndTime.UnixMilli(),
	}
}
