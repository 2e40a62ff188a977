package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("DB_PATH", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("JOIN_GRACE_SECONDS", "")
	t.Setenv("COLLAB_PALETTE", "")

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.True(t, cfg.IsDevelopment())
	assert.Empty(t, cfg.JWTSecret)
	assert.Equal(t, 10*time.Second, cfg.JoinGrace)
	assert.Equal(t, DefaultPalette, cfg.Palette)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ENV", "production")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("JOIN_GRACE_SECONDS", "3")

	cfg := Load()
	assert.Equal(t, "9000", cfg.Port)
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, 3*time.Second, cfg.JoinGrace)
}

func TestLoadPaletteParsing(t *testing.T) {
	t.Setenv("COLLAB_PALETTE", " #111111, #222222 ,, #333333 ")

	cfg := Load()
	assert.Equal(t, []string{"#111111", "#222222", "#333333"}, cfg.Palette)
}

func TestLoadPaletteIgnoresEmptyValue(t *testing.T) {
	t.Setenv("COLLAB_PALETTE", " , ")

	cfg := Load()
	assert.Equal(t, DefaultPalette, cfg.Palette)
}

func TestLoadBadGraceFallsBack(t *testing.T) {
	t.Setenv("JOIN_GRACE_SECONDS", "soon")

	cfg := Load()
	assert.Equal(t, 10*time.Second, cfg.JoinGrace)
}
