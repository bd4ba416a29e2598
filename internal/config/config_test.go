package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "SESSION_ID", "TICK_HZ", "TERRAIN_SEED", "OBSTACLE_SEED", "GROUND_OFFSET"} {
		os.Unsetenv(k)
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "default", cfg.SessionID)
	assert.Equal(t, 20, cfg.TickHz)
	assert.Equal(t, int64(1), cfg.TerrainSeed)
	assert.Equal(t, int64(2), cfg.ObstacleSeed)
	assert.Equal(t, 0.5, cfg.GroundOffset)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TICK_HZ", "30")
	t.Setenv("TERRAIN_SEED", "42")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.TickHz)
	assert.Equal(t, int64(42), cfg.TerrainSeed)
}

func TestLoadRejectsMalformedInt(t *testing.T) {
	t.Setenv("TICK_HZ", "not-a-number")
	_, err := Load()
	assert.Error(t, err)
}
