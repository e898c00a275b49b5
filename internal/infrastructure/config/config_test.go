package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "8750", cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)

	assert.Equal(t, 700*time.Millisecond, cfg.Engine.MinVisible())
	assert.Equal(t, 1500*time.Millisecond, cfg.Engine.DedupeWindow())
	assert.Equal(t, 30*time.Second, cfg.Engine.Cooldown())
	assert.Equal(t, 4*time.Second, cfg.Engine.FastDismiss())
	assert.Equal(t, 10*time.Second, cfg.Engine.BurstWindow())
	assert.Equal(t, 3, cfg.Engine.BurstSize)
	assert.Equal(t, 22, cfg.Engine.QuietHoursStart)
	assert.Equal(t, 7, cfg.Engine.QuietHoursEnd)
	assert.False(t, cfg.Engine.Debug)

	assert.Equal(t, 1500*time.Millisecond, cfg.Bridge.BridgeTimeout())
	assert.False(t, cfg.Bridge.Enabled)
}

func TestLoadFromEnvironment(t *testing.T) {
	os.Setenv("PORT", "9100")
	os.Setenv("ENGINE_MIN_VISIBLE_MS", "900")
	os.Setenv("ENGINE_LIMIT_MODE", "MOST_RECENT")
	t.Cleanup(func() {
		os.Unsetenv("PORT")
		os.Unsetenv("ENGINE_MIN_VISIBLE_MS")
		os.Unsetenv("ENGINE_LIMIT_MODE")
	})

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Server.Port)
	assert.Equal(t, 900*time.Millisecond, cfg.Engine.MinVisible())
	assert.Equal(t, "MOST_RECENT", cfg.Engine.LimitMode)
}
