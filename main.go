package main

import (
	"log"

	"github.com/telebox/telebox/internal/config"
	"github.com/telebox/telebox/internal/logger"
	"github.com/telebox/telebox/internal/telegram"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	if err := logger.InitLogger(cfg.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	logger.Info("telebox is starting", map[string]interface{}{
		"log_level":   cfg.LogLevel,
		"has_routing": cfg.HasRoutingConfig(),
		"has_mapbox":  cfg.HasMapboxConfig(),
	})

	bot, err := telegram.NewBot(cfg)
	if err != nil {
		logger.Error("Failed to create Telegram bot", map[string]interface{}{
			"error": err.Error(),
		})
		log.Fatalf("Failed to create Telegram bot: %v", err)
	}

	defer bot.Stop()
	if err := bot.Start(); err != nil {
		logger.Error("Bot error", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
