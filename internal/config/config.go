// Package config loads service configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultPalette is the fixed set of participant colors assigned in order as
// users join a session. Its length bounds the effective participant capacity;
// configuration, not protocol.
var DefaultPalette = []string{
	"#E6194B", // red
	"#3CB44B", // green
	"#4363D8", // blue
	"#F58231", // orange
	"#911EB4", // purple
	"#46C5D8", // cyan
	"#F032E6", // magenta
	"#9A6324", // brown
	"#808000", // olive
	"#469990", // teal
}

// Config holds all configuration for the application.
type Config struct {
	Port   string
	Env    string
	DBPath string

	// JWTSecret enables bearer-token identity when set. Empty means
	// development header identity.
	JWTSecret string

	// JoinGrace is how long a connection may sit without a valid join
	// before it is closed.
	JoinGrace time.Duration

	// JournalDir enables per-session activity journals when non-empty.
	JournalDir string

	// Palette is the participant color palette.
	Palette []string
}

// Load reads configuration from environment variables.
// In development, it loads from a .env file if present.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		Port:       getEnv("PORT", "8080"),
		Env:        getEnv("ENV", "development"),
		DBPath:     getEnv("DB_PATH", "data/collab.db"),
		JWTSecret:  os.Getenv("JWT_SECRET"),
		JoinGrace:  time.Duration(getEnvInt("JOIN_GRACE_SECONDS", 10)) * time.Second,
		JournalDir: os.Getenv("JOURNAL_DIR"),
		Palette:    DefaultPalette,
	}

	if raw := os.Getenv("COLLAB_PALETTE"); raw != "" {
		var palette []string
		for _, entry := range strings.Split(raw, ",") {
			entry = strings.TrimSpace(entry)
			if entry != "" {
				palette = append(palette, entry)
			}
		}
		if len(palette) > 0 {
			cfg.Palette = palette
		}
	}

	return cfg
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
