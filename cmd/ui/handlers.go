package main

import (
	"encoding/json"
	"net/http"
	"time"

	"updown-trade-engine-go/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// APIHandler holds dependencies for the API endpoints.
type APIHandler struct {
	log *zap.Logger
	db  *gorm.DB
}

// NewAPIHandler creates a new APIHandler.
func NewAPIHandler(log *zap.Logger, db *gorm.DB) *APIHandler {
	return &APIHandler{log: log, db: db}
}

// HistoryHandler returns all settled trades, most recent first.
func (h *APIHandler) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	var settlements []models.Settlement
	if err := h.db.Order("settled_at desc").Find(&settlements).Error; err != nil {
		h.log.Error("Failed to get settlements from database", zap.Error(err))
		http.Error(w, "Failed to get settlements", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(settlements)
}

// StatsDetail holds calculated statistics for a given period.
type StatsDetail struct {
	TotalTrades int64   `json:"total_trades"`
	WonTrades   int64   `json:"won_trades"`
	WinRate     float64 `json:"win_rate"`
	NetPnL      float64 `json:"net_pnl"`
}

// StatisticsResponse is the structure for the /api/statistics endpoint.
type StatisticsResponse struct {
	Since24h StatsDetail `json:"since_24h"`
	AllTime  StatsDetail `json:"all_time"`
}

// StatisticsHandler calculates and returns settlement statistics.
func (h *APIHandler) StatisticsHandler(w http.ResponseWriter, r *http.Request) {
	var settlements []models.Settlement
	if err := h.db.Find(&settlements).Error; err != nil {
		h.log.Error("Failed to get settlements for statistics", zap.Error(err))
		http.Error(w, "Failed to calculate statistics", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	since24h := now.Add(-24 * time.Hour)

	stats24h := StatsDetail{}
	statsAllTime := StatsDetail{}

	for _, s := range settlements {
		// Calculate for all time
		statsAllTime.TotalTrades++
		if s.Status == string(models.StatusWon) {
			statsAllTime.WonTrades++
		}
		statsAllTime.NetPnL += s.Payout - s.Amount

		// Calculate for last 24 hours
		settledTime := time.UnixMilli(s.SettledAt)
		if settledTime.After(since24h) {
			stats24h.TotalTrades++
			if s.Status == string(models.StatusWon) {
				stats24h.WonTrades++
			}
			stats24h.NetPnL += s.Payout - s.Amount
		}
	}

	if statsAllTime.TotalTrades > 0 {
		statsAllTime.WinRate = float64(statsAllTime.WonTrades) / float64(statsAllTime.TotalTrades) * 100
	}
	if stats24h.TotalTrades > 0 {
		stats24h.WinRate = float64(stats24h.WonTrades) / float64(stats24h.TotalTrades) * 100
	}

	response := StatisticsResponse{
		Since24h: stats24h,
		AllTime:  statsAllTime,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
