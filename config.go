package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/urfave/cli/v3"
)

// Profile store backends
const (
	storeFile   = "file"
	storeSQLite = "sqlite"
	storeNone   = "none"
)

// appConfig is the process configuration. Environment variables (optionally
// from .env) set it first; command-line flags override them.
type appConfig struct {
	Host         string        `env:"PAIRMATCH_HOST"          envDefault:"localhost"`
	Port         int           `env:"PAIRMATCH_PORT"          envDefault:"8080"`
	ConfigDir    string        `env:"CONFIG_DIR"              envDefault:"configs"`
	DataDir      string        `env:"PAIRMATCH_DATA_DIR"      envDefault:"data"`
	ProfileStore string        `env:"PAIRMATCH_PROFILE_STORE" envDefault:"file"`
	TickInterval time.Duration `env:"PAIRMATCH_TICK_INTERVAL" envDefault:"250ms"`
	SessionTTL   time.Duration `env:"PAIRMATCH_SESSION_TTL"   envDefault:"24h"`
	CleanupEvery time.Duration `env:"PAIRMATCH_CLEANUP_EVERY" envDefault:"1h"`
	APIURL       string        `env:"PAIRMATCH_API_URL"       envDefault:"http://localhost:8080"`
	Debug        bool          `env:"PAIRMATCH_DEBUG"`

	NgrokEnabled   bool   `env:"NGROK_ENABLED"`
	NgrokAuthToken string `env:"NGROK_AUTHTOKEN"`
	NgrokDomain    string `env:"NGROK_DOMAIN"`
}

// loadConfig reads the environment into an appConfig
func loadConfig() (appConfig, error) {
	var cfg appConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if cfg.NgrokAuthToken == "" {
		cfg.NgrokAuthToken = os.Getenv("NGROK_AUTH_TOKEN")
	}
	return cfg, cfg.validate()
}

func (cfg appConfig) validate() error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("invalid port %d", cfg.Port)
	}
	switch cfg.ProfileStore {
	case storeFile, storeSQLite, storeNone:
	default:
		return fmt.Errorf("unknown profile store %q (want %s, %s or %s)", cfg.ProfileStore, storeFile, storeSQLite, storeNone)
	}
	if cfg.SessionTTL <= 0 || cfg.CleanupEvery <= 0 {
		return fmt.Errorf("session TTL and cleanup interval must be positive")
	}
	return nil
}

func (cfg appConfig) addr() string {
	return fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
}

// globalFlags are shared by every command
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "host", Usage: "HTTP server host"},
		&cli.IntFlag{Name: "port", Usage: "HTTP server port"},
		&cli.StringFlag{Name: "config-dir", Usage: "Directory containing difficulty tier files"},
		&cli.StringFlag{Name: "data-dir", Usage: "Directory for profile storage"},
		&cli.StringFlag{Name: "profile-store", Usage: "Profile store backend: file, sqlite or none"},
		&cli.DurationFlag{Name: "tick-interval", Usage: "How often running sessions check their clock"},
		&cli.DurationFlag{Name: "session-ttl", Usage: "Remove sessions idle for longer than this"},
		&cli.StringFlag{Name: "api-url", Usage: "REST API used by the mcp command"},
		&cli.BoolFlag{Name: "debug", Usage: "Enable debug logging"},
		&cli.BoolFlag{Name: "ngrok", Usage: "Enable ngrok tunnel"},
		&cli.StringFlag{Name: "ngrok-auth", Usage: "Ngrok auth token (or NGROK_AUTHTOKEN)"},
		&cli.StringFlag{Name: "ngrok-domain", Usage: "Custom ngrok domain (optional)"},
	}
}

// applyFlags overrides cfg with the flags set on the command line
func applyFlags(cfg *appConfig, c *cli.Command) error {
	if c.IsSet("host") {
		cfg.Host = c.String("host")
	}
	if c.IsSet("port") {
		cfg.Port = int(c.Int("port"))
	}
	if c.IsSet("config-dir") {
		cfg.ConfigDir = c.String("config-dir")
	}
	if c.IsSet("data-dir") {
		cfg.DataDir = c.String("data-dir")
	}
	if c.IsSet("profile-store") {
		cfg.ProfileStore = strings.ToLower(c.String("profile-store"))
	}
	if c.IsSet("tick-interval") {
		cfg.TickInterval = c.Duration("tick-interval")
	}
	if c.IsSet("session-ttl") {
		cfg.SessionTTL = c.Duration("session-ttl")
	}
	if c.IsSet("api-url") {
		cfg.APIURL = c.String("api-url")
	}
	if c.IsSet("debug") {
		cfg.Debug = c.Bool("debug")
	}
	if c.IsSet("ngrok") {
		cfg.NgrokEnabled = c.Bool("ngrok")
	}
	if c.IsSet("ngrok-auth") {
		cfg.NgrokAuthToken = c.String("ngrok-auth")
	}
	if c.IsSet("ngrok-domain") {
		cfg.NgrokDomain = c.String("ngrok-domain")
	}
	return cfg.validate()
}
