// internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/jason-s-yu/happyfamilies/internal/game"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

// Config is the server configuration, read from the environment (and a .env file, if present).
type Config struct {
	Port      string `env:"PORT" envDefault:"3001"`
	PublicURL string `env:"PUBLIC_URL"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	DatabaseURL string `env:"DATABASE_URL"`

	RedisAddr  string `env:"REDIS_ADDR"`
	RedisDB    int    `env:"REDIS_DB" envDefault:"0"`
	RedisQueue string `env:"ACTION_QUEUE_NAME" envDefault:"happyfamilies_actions"`

	GeminiAPIKey  string `env:"GEMINI_API_KEY"`
	GeminiBaseURL string `env:"GEMINI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com/v1beta/models"`
	GeminiModel   string `env:"GEMINI_TEXT_MODEL" envDefault:"gemini-2.0-flash"`

	Game      GameConfig
	Historian HistorianConfig
}

// GameConfig holds the rule tuning applied to every new session.
type GameConfig struct {
	InitialFamilies      int           `env:"GAME_INITIAL_FAMILIES" envDefault:"7"`
	CardsPerPlayer       int           `env:"GAME_CARDS_PER_PLAYER" envDefault:"7"`
	MinPlayers           int           `env:"GAME_MIN_PLAYERS" envDefault:"2"`
	MaxPlayers           int           `env:"GAME_MAX_PLAYERS" envDefault:"6"`
	NewFamiliesThreshold int           `env:"GAME_NEW_FAMILIES_THRESHOLD" envDefault:"1"`
	NewFamiliesToAdd     int           `env:"GAME_NEW_FAMILIES_TO_ADD" envDefault:"3"`
	CatalogTimeout       time.Duration `env:"CATALOG_TIMEOUT" envDefault:"2m"`
}

// HistorianConfig tunes the action archive consumer.
type HistorianConfig struct {
	BatchSize     int           `env:"HISTORIAN_BATCH_SIZE" envDefault:"20"`
	FlushInterval time.Duration `env:"HISTORIAN_FLUSH_INTERVAL" envDefault:"500ms"`
	Inactivity    time.Duration `env:"SESSION_INACTIVITY_TIMEOUT" envDefault:"10m"`
}

// Load parses the environment into a Config and validates the game rules.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Rules().Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid game rules: %w", err)
	}
	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		return Config{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	return cfg, nil
}

// Rules converts the game tuning into session rules.
func (c Config) Rules() game.Rules {
	return game.Rules{
		InitialFamilies:      c.Game.InitialFamilies,
		CardsPerPlayer:       c.Game.CardsPerPlayer,
		MinPlayers:           c.Game.MinPlayers,
		MaxPlayers:           c.Game.MaxPlayers,
		NewFamiliesThreshold: c.Game.NewFamiliesThreshold,
		NewFamiliesToAdd:     c.Game.NewFamiliesToAdd,
		CatalogTimeout:       c.Game.CatalogTimeout,
	}
}

// NewLogger builds the process logger from LogLevel and LogFormat.
func (c Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	if lvl, err := logrus.ParseLevel(c.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}
	if c.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}
