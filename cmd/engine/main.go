package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"updown-trade-engine-go/internal/config"
	"updown-trade-engine-go/internal/database"
	"updown-trade-engine-go/internal/engine"
	"updown-trade-engine-go/internal/logger"
	"updown-trade-engine-go/internal/pricefeed"

	"go.uber.org/zap"
)

func main() {
	// Load application configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		// We can't use the logger here because it's not initialized yet.
		panic(fmt.Sprintf("could not load config: %v", err))
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("Configuration loaded")

	// Initialize settlement history database
	db, err := database.NewDatabase(cfg.Database.DSN)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connection successful and schema migrated.")

	// Initialize price feed client. Admissions can still carry an explicit
	// start price if the feed is down, so this is not fatal.
	feed := pricefeed.NewClient(&cfg.PriceFeed, log)
	if _, err := feed.GetServerTime(); err != nil {
		log.Warn("Price feed unreachable, admissions must supply start_price", zap.Error(err))
	} else {
		log.Info("Successfully connected to price feed.")
	}

	// Initialize the trade engine and wire the settlement recorder
	tradeEngine := engine.NewEngine(log, &cfg.Trading, nil)
	recorder := engine.NewRecorder(db, log)
	tradeEngine.OnSettlement(recorder.Record)

	// Start the admission/observation API
	api := engine.NewAPIServer(tradeEngine, feed, cfg.Server.ApiPort, log)
	api.Start()

	// Wait for shutdown signal
	sigchan := make(chan os.Signal, 1)
	signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
	<-sigchan
	log.Info("Shutdown signal received, gracefully shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := api.Stop(shutdownCtx); err != nil {
		log.Error("API server shutdown failed", zap.Error(err))
	}
	tradeEngine.Close()

	log.Info("Engine has been shut down.")
}
