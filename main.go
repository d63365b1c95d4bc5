package main

import (
	"net/http"
	"os"

	"github.com/aoztanir/email-agent/api"
	"github.com/aoztanir/email-agent/config"
	"github.com/aoztanir/email-agent/scraper/maps"
	"github.com/aoztanir/email-agent/services"
	"github.com/aoztanir/email-agent/storage"
	"github.com/aoztanir/email-agent/utils"
)

func main() {
	logger := utils.NewLogger()
	cfg := config.Load()

	logger.Info("=== Lead scraping service starting ===")
	logger.Info("Config — listen: %s | max runs: %d | default total: %d | scroll ceiling: %d",
		cfg.ListenAddr, cfg.MaxConcurrentRuns, cfg.DefaultTotal, cfg.MaxScrollIters)

	store, err := storage.NewPostgresStore(cfg.DSN(), logger)
	if err != nil {
		logger.Error("Failed to connect to PostgreSQL: %v", err)
		logger.Error("Make sure Docker is running: docker compose up -d")
		os.Exit(1)
	}
	defer store.Close()

	var rawWriter services.RawPlaceWriter
	if cfg.RawCSVEnabled {
		csvWriter, err := storage.NewCSVWriter(cfg.CSVOutputPath)
		if err != nil {
			logger.Error("Failed to create CSV writer: %v", err)
			os.Exit(1)
		}
		defer csvWriter.Close()
		rawWriter = csvWriter
		logger.Info("Raw extraction dumps enabled → %s", cfg.CSVOutputPath)
	}

	scraper := maps.New(cfg, logger)
	pipeline := services.NewPipeline(scraper, store, rawWriter, logger)
	server := api.NewServer(cfg, pipeline, store, logger)

	logger.Info("Listening on %s", cfg.ListenAddr)
	if err := http.ListenAndServe(cfg.ListenAddr, server.Router()); err != nil {
		logger.Error("Server stopped: %v", err)
		os.Exit(1)
	}
}
