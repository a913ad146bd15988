package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	TelegramBotToken string
	BaseDataPath     string
	LogLevel         string

	// Registered users and per-capability allow-lists
	RegisteredUsers []int64
	LocationUsers   []int64
	ArchiveUsers    []int64
	WorkbookUsers   []int64
	OcrUsers        []int64
	KmlUsers        []int64
	GeotagsUsers    []int64

	// External service credentials (all optional, features degrade)
	OrsAPIKey    string
	OcrAPIKey    string
	MapboxAPIKey string

	// Optional prometheus listener address (e.g. ":9090")
	MetricsAddr string
}

func Load() (*Config, error) {
	// A missing .env file is fine; variables may come from the environment
	_ = godotenv.Load()

	cfg := &Config{
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		BaseDataPath:     os.Getenv("BASE_DATA_PATH"),
		LogLevel:         getEnvOrDefault("LOG_LEVEL", "info"),
		OrsAPIKey:        os.Getenv("ORS_API_KEY"),
		OcrAPIKey:        os.Getenv("OCR_API_KEY"),
		MapboxAPIKey:     os.Getenv("MAPBOX_API_KEY"),
		MetricsAddr:      os.Getenv("METRICS_ADDR"),
	}

	lists := []struct {
		key  string
		dest *[]int64
	}{
		{"REGISTERED_USERS", &cfg.RegisteredUsers},
		{"LOKASI_ACCESS_USERS", &cfg.LocationUsers},
		{"RAR_ACCESS_USERS", &cfg.ArchiveUsers},
		{"WORKBOOK_ACCESS_USERS", &cfg.WorkbookUsers},
		{"OCR_ACCESS_USERS", &cfg.OcrUsers},
		{"KML_ACCESS_USERS", &cfg.KmlUsers},
		{"GEOTAGS_ACCESS_USERS", &cfg.GeotagsUsers},
	}
	for _, l := range lists {
		ids, err := parseIDList(os.Getenv(l.key))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", l.key, err)
		}
		*l.dest = ids
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	required := map[string]string{
		"TELEGRAM_BOT_TOKEN": c.TelegramBotToken,
		"BASE_DATA_PATH":     c.BaseDataPath,
	}

	for key, value := range required {
		if value == "" {
			return fmt.Errorf("required environment variable %s is not set", key)
		}
	}

	if len(c.RegisteredUsers) == 0 {
		return fmt.Errorf("required environment variable REGISTERED_USERS is not set")
	}

	return nil
}

func (c *Config) HasRoutingConfig() bool {
	return c.OrsAPIKey != ""
}

func (c *Config) HasMapboxConfig() bool {
	return c.MapboxAPIKey != ""
}

// parseIDList parses a comma-separated list of Telegram user IDs.
// Empty input yields an empty list, not an error.
func parseIDList(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a valid user id", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// getEnvOrDefault returns the environment variable value or a default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
