package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath    string
	OutputDir string

	StockAPIBaseURL   string
	StockAPIToken     string
	StockAPIRateRPS   int
	StockAPITimeoutMs int

	SearchDebounceMs   int
	CatalogMaxAgeHours int
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:    getEnv("DB_PATH", filepath.Join(cwd, "data", "app.db")),
		OutputDir: getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),

		StockAPIBaseURL:   getEnv("STOCK_API_BASE_URL", "https://api.sitestock.example/api/v1"),
		StockAPIToken:     getEnv("STOCK_API_TOKEN", ""),
		StockAPIRateRPS:   getEnvInt("STOCK_API_RATE_LIMIT_RPS", 5),
		StockAPITimeoutMs: getEnvInt("STOCK_API_TIMEOUT_MS", 30000),

		SearchDebounceMs:   getEnvInt("SEARCH_DEBOUNCE_MS", 300),
		CatalogMaxAgeHours: getEnvInt("CATALOG_MAX_AGE_HOURS", 24),
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
