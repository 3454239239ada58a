// internal/config/config.go
//
// Process configuration. `.env` files are loaded in development
// (godotenv), then the environment is parsed into a struct with
// caarlos0/env tags. Every knob has a working default so the server runs
// with an empty environment.

package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the full process configuration.
type Config struct {
	Port     string `env:"PORT" envDefault:"5180"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	DBPath       string `env:"DB_PATH" envDefault:"./data/app.db"`
	LexiconPath  string `env:"LEXICON_PATH" envDefault:"./data/idioms.db"`
	MigrationDir string `env:"MIGRATION_DIR" envDefault:"sql"`

	JWTSecret     string `env:"JWT_SECRET" envDefault:"dev_secret_change_me"`
	JWTExpireDays int    `env:"JWT_EXPIRES_DAYS" envDefault:"14"`
	CookieName    string `env:"COOKIE_NAME" envDefault:"jielong_token"`
	ClientOrigin  string `env:"CLIENT_ORIGIN" envDefault:"http://localhost:5173"`

	// Game defaults; POST /game/new may override per game.
	GameDifficulty     string `env:"GAME_DIFFICULTY" envDefault:"normal"`
	GameTimeLimit      int    `env:"GAME_TIME_LIMIT" envDefault:"60"`
	GameAllowHomophone bool   `env:"GAME_ALLOW_HOMOPHONE" envDefault:"false"`
	GameMaxHints       int    `env:"GAME_MAX_HINTS" envDefault:"3"`

	// Opponent backend.
	LLMBaseURL string        `env:"LLM_BASE_URL" envDefault:"http://localhost:1234"`
	LLMModel   string        `env:"LLM_MODEL" envDefault:""`
	LLMTimeout time.Duration `env:"LLM_TIMEOUT" envDefault:"30s"`
}

// Load reads .env (when present) and the environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	switch cfg.GameDifficulty {
	case "easy", "normal", "hard":
	default:
		return Config{}, fmt.Errorf("invalid GAME_DIFFICULTY %q", cfg.GameDifficulty)
	}
	if cfg.GameTimeLimit < 0 || cfg.GameMaxHints < 0 {
		return Config{}, fmt.Errorf("GAME_TIME_LIMIT and GAME_MAX_HINTS must be >= 0")
	}
	return cfg, nil
}
