package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"updown-trade-engine-go/internal/models"
	"updown-trade-engine-go/internal/pricefeed"

	"go.uber.org/zap"
)

// APIServer exposes the engine's open/observe operations over HTTP.
type APIServer struct {
	server *http.Server
	engine *Engine
	feed   pricefeed.ClientInterface
	logger *zap.Logger
}

// NewAPIServer creates an APIServer on the given port. The price feed is
// used to seed start prices when the caller does not supply one; it may be
// nil, in which case start_price becomes mandatory.
func NewAPIServer(engine *Engine, feed pricefeed.ClientInterface, port int, logger *zap.Logger) *APIServer {
	s := &APIServer{
		engine: engine,
		feed:   feed,
		logger: logger.Named("api-server"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/trades", s.tradesHandler)
	mux.HandleFunc("/history", s.historyHandler)
	mux.HandleFunc("/stats", s.statsHandler)
	mux.HandleFunc("/health", s.healthHandler)

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}
	return s
}

// Start runs the HTTP server in a new goroutine.
func (s *APIServer) Start() {
	s.logger.Info("Starting API server", zap.String("address", s.server.Addr))
	go func() {
		if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
			s.logger.Error("API server failed", zap.Error(err))
		}
	}()
}

// Stop gracefully shuts down the server.
func (s *APIServer) Stop(ctx context.Context) error {
	s.logger.Info("Stopping API server...")
	return s.server.Shutdown(ctx)
}

// openTradeRequest is the POST /trades body. StartPrice is optional; when
// omitted the current feed quote for the asset is used.
type openTradeRequest struct {
	Asset           string  `json:"asset"`
	Direction       string  `json:"direction"`
	Amount          float64 `json:"amount"`
	StartPrice      float64 `json:"start_price,omitempty"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// activeTradeView decorates an active trade with display fields.
type activeTradeView struct {
	models.Trade
	RemainingSeconds float64 `json:"remaining_seconds"`
	Progress         float64 `json:"progress"`
}

func (s *APIServer) tradesHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.openTrade(w, r)
	case http.MethodGet:
		now := time.Now()
		active := s.engine.Active()
		views := make([]activeTradeView, 0, len(active))
		for _, t := range active {
			views = append(views, activeTradeView{
				Trade:            t,
				RemainingSeconds: t.Remaining(now).Seconds(),
				Progress:         t.Progress(now),
			})
		}
		s.writeJSON(w, http.StatusOK, views)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *APIServer) openTrade(w http.ResponseWriter, r *http.Request) {
	var req openTradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	startPrice := req.StartPrice
	if startPrice <= 0 {
		if s.feed == nil {
			http.Error(w, "start_price is required", http.StatusBadRequest)
			return
		}
		quote, err := s.feed.GetQuote(req.Asset)
		if err != nil {
			s.logger.Error("Failed to fetch seed quote",
				zap.String("asset", req.Asset), zap.Error(err))
			http.Error(w, "price feed unavailable", http.StatusBadGateway)
			return
		}
		startPrice = quote
	}

	duration := time.Duration(req.DurationSeconds * float64(time.Second))
	trade, err := s.engine.OpenTrade(req.Asset, models.Direction(req.Direction), req.Amount, startPrice, duration)
	if err != nil {
		if errors.Is(err, ErrEngineClosed) {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.writeJSON(w, http.StatusCreated, trade)
}

func (s *APIServer) historyHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.engine.History())
}

func (s *APIServer) statsHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.engine.Stats())
}

func (s *APIServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

func (s *APIServer) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to write response", zap.Error(err))
	}
}
