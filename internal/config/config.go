package config

import (
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds everything the API server and the bot read from the
// environment.
type Config struct {
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	Port        string `envconfig:"PORT" default:"8080"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	BotToken    string `envconfig:"BOT_TOKEN"`
	AdminChatID int64  `envconfig:"ADMIN_CHAT_ID"`

	// Per-vendor fetch budget inside one price aggregation.
	VendorFetchTimeoutSec int `envconfig:"VENDOR_FETCH_TIMEOUT_SEC" default:"5"`
	// Largest number of vendor fetches in flight for one aggregation.
	VendorFetchParallel int `envconfig:"VENDOR_FETCH_PARALLEL" default:"4"`

	ChartBaseURL      string `envconfig:"CHART_BASE_URL" default:"https://quickchart.io"`
	ChartTimeoutSec   int    `envconfig:"CHART_TIMEOUT_SEC" default:"15"`
	TitleRefreshMin   int    `envconfig:"TITLE_REFRESH_MIN" default:"30"`
	BotPollTimeoutSec int    `envconfig:"BOT_POLL_TIMEOUT_SEC" default:"30"`
}

// Load reads .env if present, then maps environment variables onto the
// Config struct. A missing .env is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
