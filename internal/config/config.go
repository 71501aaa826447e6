// Package config loads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v8"
	"github.com/joho/godotenv"

	"github.com/mmynk/roomies/internal/calculator"
)

// Backends selectable with DATA_BACKEND.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

type Config struct {
	Port            int           `env:"PORT" envDefault:"8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	DataBackend string `env:"DATA_BACKEND" envDefault:"sqlite"`
	DBPath      string `env:"DB_PATH" envDefault:"./data/roomies.db"`

	// BalancePolicy decides whether viewers are charged for expenses they
	// are not party to. See calculator.Policy.
	BalancePolicy string `env:"BALANCE_POLICY" envDefault:"parties-only"`

	// ViewerTokenSecret enables bearer-token viewers. When empty the
	// X-Viewer header is trusted instead.
	ViewerTokenSecret string `env:"VIEWER_TOKEN_SECRET"`

	AMQP AMQP
}

type AMQP struct {
	URL      string `env:"AMQP_URL"`
	Exchange string `env:"AMQP_EXCHANGE" envDefault:"roomies"`
}

// Load reads an optional .env file, then parses the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// Policy returns the parsed balance policy.
func (c *Config) Policy() (calculator.Policy, error) {
	return calculator.ParsePolicy(c.BalancePolicy)
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var problems []string

	if c.Port < 1 || c.Port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", c.Port))
	}

	switch c.DataBackend {
	case BackendMemory:
	case BackendSQLite:
		if c.DBPath == "" {
			problems = append(problems, "DB_PATH cannot be empty when using the sqlite backend")
		}
	default:
		problems = append(problems, fmt.Sprintf("invalid data backend %q: must be %q or %q", c.DataBackend, BackendMemory, BackendSQLite))
	}

	if _, err := calculator.ParsePolicy(c.BalancePolicy); err != nil {
		problems = append(problems, err.Error())
	}

	if c.AMQP.URL != "" {
		if u, err := url.Parse(c.AMQP.URL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL: %v", err))
		} else if u.Scheme != "amqp" && u.Scheme != "amqps" {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL scheme %q: must be amqp or amqps", u.Scheme))
		}
		if c.AMQP.Exchange == "" {
			problems = append(problems, "AMQP_EXCHANGE cannot be empty when AMQP_URL is set")
		}
	}

	if c.ShutdownTimeout <= 0 {
		problems = append(problems, "SHUTDOWN_TIMEOUT must be positive")
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}
