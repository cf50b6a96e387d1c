package config

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/calvinwijaya/klondike-be/internal/db"
	"github.com/calvinwijaya/klondike-be/internal/game"
	"gopkg.in/yaml.v3"
)

// Config holds the server settings. Values are layered: defaults, then the
// optional YAML file, then KLONDIKE_* environment variables, then flags.
type Config struct {
	Port        string `yaml:"port"         env:"KLONDIKE_PORT"`
	DBDriver    string `yaml:"db_driver"    env:"KLONDIKE_DB_DRIVER"`
	DBDSN       string `yaml:"db_dsn"       env:"KLONDIKE_DB_DSN"`
	FrontendURL string `yaml:"frontend_url" env:"KLONDIKE_FRONTEND_URL"`
	Mode        string `yaml:"mode"         env:"KLONDIKE_MODE"`
	DrawCount   int    `yaml:"draw_count"   env:"KLONDIKE_DRAW_COUNT"`
	Debug       bool   `yaml:"debug"        env:"KLONDIKE_DEBUG"`
}

// Default returns the built-in settings
func Default() Config {
	return Config{
		Port:        "8080",
		DBDriver:    db.DriverSQLite,
		DBDSN:       "./data/klondike.db",
		FrontendURL: "http://localhost:5173",
		Mode:        string(game.Play),
		DrawCount:   1,
	}
}

// Load builds the configuration for args (without the program name).
func Load(args []string) (Config, error) {
	cfg := Default()

	fs := flag.NewFlagSet("klondike", flag.ContinueOnError)
	path := fs.String("config", os.Getenv("KLONDIKE_CONFIG"), "YAML config file")
	port := fs.String("port", "", "Server port")
	driver := fs.String("db-driver", "", "Database driver (sqlite3, postgres, mysql)")
	dsn := fs.String("db", "", "Database DSN")
	frontendURL := fs.String("frontend", "", "Frontend URL for CORS")
	mode := fs.String("mode", "", "Default game mode (game, render_cards)")
	drawCount := fs.Int("draw", 0, "Cards per draw (1 or 3)")
	debug := fs.Bool("debug", false, "Development logging")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	if *path != "" {
		if err := loadFile(*path, &cfg); err != nil {
			return cfg, err
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}

	// Flags win over everything else, but only when set.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Port = *port
		case "db-driver":
			cfg.DBDriver = *driver
		case "db":
			cfg.DBDSN = *dsn
		case "frontend":
			cfg.FrontendURL = *frontendURL
		case "mode":
			cfg.Mode = *mode
		case "draw":
			cfg.DrawCount = *drawCount
		case "debug":
			cfg.Debug = *debug
		}
	})

	return cfg, cfg.Validate()
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return nil
}

// Validate checks the settings that cannot be fixed later. An unknown mode is
// reported as game.ErrUnknownMode.
func (c Config) Validate() error {
	if _, err := c.GameMode(); err != nil {
		return err
	}
	if !game.ValidDrawCount(c.DrawCount) {
		return fmt.Errorf("invalid draw count %d: must be 1 or 3", c.DrawCount)
	}
	if c.Port == "" {
		return errors.New("port is required")
	}
	return nil
}

// GameMode resolves the mode selector
func (c Config) GameMode() (game.Mode, error) {
	return game.ParseMode(c.Mode)
}
