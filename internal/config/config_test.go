package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, int32(8188), cfg.HTTP.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, DefaultDatabasePath, cfg.Database.Path)
	assert.Equal(t, "inline", cfg.Covers.Strategy)
	assert.Equal(t, DefaultCoverAllowedTypes, cfg.Covers.AllowedTypes)
	assert.Equal(t, int64(5<<20), cfg.Covers.MaxUploadBytes)
	assert.Equal(t, "local", cfg.Covers.Store)
	assert.False(t, cfg.CoverSweep.Enabled)
	assert.Equal(t, time.Hour, cfg.CoverSweep.Grace)
	assert.Equal(t, 24*time.Hour, cfg.Session.Lifetime)
	assert.False(t, cfg.Global.ReadOnly)
}

func TestNewConfig_Environment(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("COVER_STRATEGY", "FILE")
	t.Setenv("COVER_ALLOWED_TYPES", "image/png, image/webp ,")
	t.Setenv("COVER_SWEEP_GRACE", "30m")
	t.Setenv("READ_ONLY", "true")
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/librarian")

	cfg := NewConfig()

	assert.Equal(t, int32(9000), cfg.HTTP.Port)
	assert.Equal(t, "file", cfg.Covers.Strategy)
	assert.Equal(t, []string{"image/png", "image/webp"}, cfg.Covers.AllowedTypes)
	assert.Equal(t, 30*time.Minute, cfg.CoverSweep.Grace)
	assert.True(t, cfg.Global.ReadOnly)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://localhost/librarian", cfg.Database.URL)
}
