package prefs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coni/hyperisle/internal/logging"
	"github.com/coni/hyperisle/internal/shared/types"
)

func newTestStore(t *testing.T, contents string) *Store {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "prefs.toml")
	if contents != "" {
		require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	}
	return NewStore(path, logging.NewDevelopment())
}

func TestMissingFileFallsBackToDefaults(t *testing.T) {
	s := newTestStore(t, "")

	snap := s.Current()
	assert.Equal(t, 30, snap.CooldownSeconds)
	assert.Equal(t, types.LimitPriority, snap.Limit())
	assert.True(t, snap.HapticsEnabled)
}

func TestLoadAndQuery(t *testing.T) {
	s := newTestStore(t, `
cooldown_seconds = 12
limit_mode = "MOST_RECENT"
muted_apps = ["com.example.chat"]
blocked_apps = ["com.spam.app"]
spoiler_terms = ["finale"]
focus_enabled = true
focus_allow = ["call"]
`)

	snap := s.Current()
	assert.Equal(t, 12, snap.CooldownSeconds)
	assert.Equal(t, types.LimitMostRecent, snap.Limit())
	assert.True(t, snap.IsMuted("com.example.chat"))
	assert.True(t, snap.IsBlocked("com.spam.app"))
	assert.False(t, snap.IsMuted("com.other"))
	assert.True(t, snap.FocusAllows(types.CategoryCall))
	assert.False(t, snap.FocusAllows(types.CategoryMessage))
	assert.Equal(t, "finale", snap.SpoilerMatch("any", "Season FINALE tonight"))
	assert.Empty(t, snap.SpoilerMatch("any", "lunch?"))
}

func TestMuteAppPersistsAndNotifies(t *testing.T) {
	s := newTestStore(t, "cooldown_seconds = 10\n")
	sub := s.Subscribe()

	require.NoError(t, s.MuteApp("com.example.chat"))

	snap := <-sub
	assert.True(t, snap.IsMuted("com.example.chat"))

	// The mutation survives a reload from disk
	require.NoError(t, s.Reload())
	assert.True(t, s.Current().IsMuted("com.example.chat"))
	assert.Equal(t, 10, s.Current().CooldownSeconds)
}

func TestMuteWindowRoundTrip(t *testing.T) {
	s := newTestStore(t, "cooldown_seconds = 10\n")
	at := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.MuteAppAt("com.example.chat", at))

	// The timestamp survives a reload from disk.
	require.NoError(t, s.Reload())
	snap := s.Current()
	assert.True(t, snap.MuteActive("com.example.chat", at.Add(9*time.Second)))
	assert.False(t, snap.MuteActive("com.example.chat", at.Add(10*time.Second)))
	assert.False(t, snap.MuteActive("com.other", at))

	// Muting again restarts the window.
	require.NoError(t, s.MuteAppAt("com.example.chat", at.Add(time.Minute)))
	assert.True(t, s.Current().MuteActive("com.example.chat", at.Add(time.Minute+5*time.Second)))
}

func TestPriorityRank(t *testing.T) {
	snap := DefaultSnapshot()
	snap.AppPriorityOrder = []string{"com.dialer", "com.clock"}

	assert.Equal(t, 0, snap.PriorityRank("com.dialer"))
	assert.Equal(t, 1, snap.PriorityRank("com.clock"))
	assert.Equal(t, 2, snap.PriorityRank("com.unknown"))
}

func TestPresets(t *testing.T) {
	p := DefaultPresets()

	assert.True(t, p.Allows(PresetDriving, types.CategoryCall))
	assert.True(t, p.Allows(PresetDriving, types.CategoryNavigation))
	assert.False(t, p.Allows(PresetDriving, types.CategoryStandard))
	// Presets never gate media
	assert.True(t, p.Allows(PresetMeeting, types.CategoryMedia))
	// Unknown preset admits everything
	assert.True(t, p.Allows("UNKNOWN", types.CategoryStandard))
}

func TestLoadPresetsFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "presets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
presets:
  MEETING:
    allow: [call]
`), 0o644))

	p, err := LoadPresets(path)
	require.NoError(t, err)
	assert.True(t, p.Allows(PresetMeeting, types.CategoryCall))
	assert.False(t, p.Allows(PresetMeeting, types.CategoryAlarm))
}

func TestLoadPresetsMissingFile(t *testing.T) {
	p, err := LoadPresets(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.NotEmpty(t, p)
}
