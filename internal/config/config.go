// internal/config/config.go
//
// Typed server configuration parsed from environment variables. `.env`
// loading happens in main before Load runs, so local development only needs
// a dotenv file.

package config

import (
	"github.com/caarlos0/env/v11"
)

// Config carries every tunable the server reads from the environment.
type Config struct {
	Port     string `env:"PORT" envDefault:"5175"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	Env      string `env:"APP_ENV" envDefault:"development"`

	// DBPath is the game-history/users database (created if missing).
	// CountriesDB points at the read-only country catalog; when empty the
	// embedded fallback dataset is used.
	DBPath      string `env:"DB_PATH" envDefault:"./data/worldle.db"`
	CountriesDB string `env:"COUNTRIES_DB"`

	ClientOrigin string `env:"CLIENT_ORIGIN" envDefault:"http://localhost:5173"`

	JWTSecret      string `env:"JWT_SECRET" envDefault:"dev_secret_change_me"`
	JWTExpiresDays int    `env:"JWT_EXPIRES_DAYS" envDefault:"14"`
	CookieName     string `env:"COOKIE_NAME" envDefault:"worldle_token"`

	DailySalt string `env:"DAILY_SALT" envDefault:"local_dev_salt"`
}

// Load parses a Config from the process environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Production reports whether the server runs with production hardening
// (secure cookies, cross-site cookie mode).
func (c Config) Production() bool { return c.Env == "production" }
