package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"runtime"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Bot token format: 123456789:ABCdefGHIjklMNOpqrsTUVwxyz...
var botTokenPattern = regexp.MustCompile(`^\d{8,10}:[A-Za-z0-9_-]{35}$`)

// Channel ID format: @channelname or -100123456789.
var channelIDPattern = regexp.MustCompile(`^(@[a-zA-Z0-9_]{5,32}|-100\d{10,})$`)

// Config holds all environment-based configuration for tgvault.
type Config struct {
	// Telegram bot credential and destination channel (always required).
	BotToken  string `env:"BOT_TOKEN"`
	ChannelID string `env:"CHANNEL_ID"`

	// Directory to upload. Required for upload/update/watch runs.
	UploadDir string `env:"UPLOAD_DIR"`

	// Index server base URL.
	ServerURL string `env:"SERVER_URL" envDefault:"http://localhost:3000"`

	// UpdateMode diffs against the previously persisted tree instead of
	// uploading everything from scratch.
	UpdateMode bool `env:"UPDATE_MODE" envDefault:"false"`

	// Watch keeps the process alive and re-runs an update sync when the
	// upload directory changes. Implies UpdateMode after the first run.
	Watch bool `env:"WATCH" envDefault:"false"`

	// Environment controls log format.
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
}

// warnInsecureEnvFile checks whether the .env file (if present) has
// overly permissive permissions. On Unix systems, group or world
// readable files risk exposing the bot token to other users.
func warnInsecureEnvFile() {
	if runtime.GOOS == "windows" {
		return
	}

	info, err := os.Stat(".env")
	if err != nil {
		return // file does not exist, nothing to check
	}

	mode := info.Mode().Perm()
	if mode&0o077 != 0 {
		log.Printf("WARNING: .env file has insecure permissions %04o; recommended 0600", mode)
	}
}

// Load reads configuration from environment variables.
// It first attempts to load a .env file if present, then parses env vars.
func Load() (*Config, error) {
	_ = godotenv.Load()

	warnInsecureEnvFile()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	// Resolve UploadDir to an absolute path at startup so relative paths
	// derived during scanning stay stable regardless of the process
	// working directory.
	if cfg.UploadDir != "" {
		absDir, err := filepath.Abs(cfg.UploadDir)
		if err != nil {
			return nil, fmt.Errorf("resolving upload dir to absolute path: %w", err)
		}

		cfg.UploadDir = absDir
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.BotToken == "" {
		return fmt.Errorf("BOT_TOKEN is required")
	}

	if !botTokenPattern.MatchString(c.BotToken) {
		return fmt.Errorf("BOT_TOKEN does not look like a bot token (expected <digits>:<35 chars>)")
	}

	if c.ChannelID == "" {
		return fmt.Errorf("CHANNEL_ID is required")
	}

	if !channelIDPattern.MatchString(c.ChannelID) {
		return fmt.Errorf("CHANNEL_ID must be @channelname or a -100... numeric id")
	}

	if c.ServerURL == "" {
		return fmt.Errorf("SERVER_URL is required")
	}

	return nil
}

// IsProduction returns true when the environment is set to production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
