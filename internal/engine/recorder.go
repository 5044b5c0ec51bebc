package engine

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"updown-trade-engine-go/internal/models"
)

// Recorder persists settled trades to the history database. It is wired as a
// settlement listener; the in-memory ledger stays authoritative for the
// running engine, the rows exist for dashboards and restarts.
type Recorder struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewRecorder creates a recorder writing to the given database.
func NewRecorder(db *gorm.DB, logger *zap.Logger) *Recorder {
	return &Recorder{db: db, logger: logger}
}

// Record writes one settlement row. A failed insert is logged and dropped;
// persistence is best-effort and must not disturb the engine.
func (r *Recorder) Record(trade models.Trade) {
	rec := models.FromTrade(&trade)
	if err := r.db.Create(&rec).Error; err != nil {
		r.logger.Error("Failed to save settlement record",
			zap.String("trade_id", trade.ID), zap.Error(err))
		return
	}
	r.logger.Info("Settlement record saved",
		zap.String("trade_id", trade.ID), zap.Uint("record_id", rec.ID))
}
