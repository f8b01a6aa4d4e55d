// Package config loads server settings from the environment and CLI
// preferences from a TOML file.
package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds server configuration loaded from environment variables.
type Config struct {
	Port                 string        `envconfig:"PORT" default:"8080"`
	DBPath               string        `envconfig:"DB_PATH" default:"quit-tracker.db"`
	AdminUser            string        `envconfig:"ADMIN_USER"`
	AdminPassword        string        `envconfig:"ADMIN_PASSWORD"`
	SecureCookie         bool          `envconfig:"SECURE_COOKIE" default:"false"`
	LogLevel             string        `envconfig:"LOG_LEVEL" default:"info"` // debug|info|warn|error
	LogFile              string        `envconfig:"LOG_FILE"`                 // empty logs to stderr only
	TemplateDir          string        `envconfig:"TEMPLATE_DIR" default:"web/templates"`
	StaticDir            string        `envconfig:"STATIC_DIR" default:"web/static"`
	SessionSweepInterval time.Duration `envconfig:"SESSION_SWEEP_INTERVAL" default:"1h"`
}

// Load reads environment variables into Config.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Addr is the listen address for Port.
func (c Config) Addr() string {
	return ":" + c.Port
}
