package prefs

import (
	"strings"
	"time"

	"github.com/coni/hyperisle/internal/shared/types"
)

// MusicMode selects how media notifications are rendered
const (
	MusicModeShow        = "SHOW"
	MusicModeBlockSystem = "BLOCK_SYSTEM"
)

// Snapshot is one immutable view of all user preferences. The pipeline
// reads exactly one snapshot per event cycle.
type Snapshot struct {
	CooldownSeconds  int                  `toml:"cooldown_seconds"`
	LimitMode        string               `toml:"limit_mode"`
	ContextAware     bool                 `toml:"context_aware"`
	ContextAllow     []string             `toml:"context_allow"`
	FocusEnabled     bool                 `toml:"focus_enabled"`
	FocusAllow       []string             `toml:"focus_allow"`
	ActivePreset     string               `toml:"active_preset"`
	MutedApps        []string             `toml:"muted_apps"`
	MutedAt          map[string]time.Time `toml:"muted_at"`
	BlockedApps      []string             `toml:"blocked_apps"`
	SpoilerTerms     []string             `toml:"spoiler_terms"`
	SpoilerAppTerms  map[string][]string  `toml:"spoiler_app_terms"`
	HapticsEnabled   bool                 `toml:"haptics_enabled"`
	MusicMode        string               `toml:"music_mode"`
	AppPriorityOrder []string             `toml:"app_priority_order"`
	AppProfiles      map[string]string    `toml:"app_profiles"`
}

// DefaultSnapshot returns the preference defaults used before the
// first file load and for any missing key.
func DefaultSnapshot() Snapshot {
	return Snapshot{
		CooldownSeconds: 30,
		LimitMode:       string(types.LimitPriority),
		ContextAware:    true,
		ContextAllow:    []string{string(types.CategoryCall), string(types.CategoryAlarm), string(types.CategoryTimer)},
		FocusAllow:      []string{string(types.CategoryCall), string(types.CategoryAlarm)},
		HapticsEnabled:  true,
		MusicMode:       MusicModeShow,
		MutedAt:         map[string]time.Time{},
		SpoilerAppTerms: map[string][]string{},
		AppProfiles:     map[string]string{},
	}
}

// Limit returns the configured arbitration limit mode.
func (s Snapshot) Limit() types.LimitMode {
	switch types.LimitMode(s.LimitMode) {
	case types.LimitFirstCome, types.LimitMostRecent, types.LimitPriority:
		return types.LimitMode(s.LimitMode)
	default:
		return types.LimitPriority
	}
}

// IsMuted reports whether a package is in the muted set, regardless of
// whether the mute window has elapsed.
func (s Snapshot) IsMuted(pkg string) bool {
	return containsFold(s.MutedApps, pkg)
}

// MuteActive reports whether a package's mute still holds at now. A
// mute is a cooldown-length breather, not a ban: it expires one
// cooldown window after the mute gesture. An entry without a recorded
// timestamp (a hand-edited file) never expires.
func (s Snapshot) MuteActive(pkg string, now time.Time) bool {
	if !containsFold(s.MutedApps, pkg) {
		return false
	}
	at, ok := s.mutedAt(pkg)
	if !ok {
		return true
	}
	window := time.Duration(s.CooldownSeconds) * time.Second
	if window <= 0 {
		return true
	}
	return now.Sub(at) < window
}

func (s Snapshot) mutedAt(pkg string) (time.Time, bool) {
	for p, at := range s.MutedAt {
		if strings.EqualFold(p, pkg) {
			return at, true
		}
	}
	return time.Time{}, false
}

// IsBlocked reports whether a package is blocked.
func (s Snapshot) IsBlocked(pkg string) bool {
	return containsFold(s.BlockedApps, pkg)
}

// ContextAllows reports whether a category passes the raw screen-off
// context filter.
func (s Snapshot) ContextAllows(cat types.Category) bool {
	return containsFold(s.ContextAllow, string(cat))
}

// FocusAllows reports whether a category passes Focus Mode.
func (s Snapshot) FocusAllows(cat types.Category) bool {
	return containsFold(s.FocusAllow, string(cat))
}

// SpoilerMatch returns the first blocked term found in the text,
// checking global terms then per-app terms. Empty string means clean.
func (s Snapshot) SpoilerMatch(pkg, text string) string {
	lower := strings.ToLower(text)
	for _, term := range s.SpoilerTerms {
		if term != "" && strings.Contains(lower, strings.ToLower(term)) {
			return term
		}
	}
	for _, term := range s.SpoilerAppTerms[pkg] {
		if term != "" && strings.Contains(lower, strings.ToLower(term)) {
			return term
		}
	}
	return ""
}

// ProfileFor returns the throttle profile configured for a package.
func (s Snapshot) ProfileFor(pkg string) types.ThrottleProfile {
	switch types.ThrottleProfile(s.AppProfiles[pkg]) {
	case types.ProfileLenient:
		return types.ProfileLenient
	case types.ProfileStrict:
		return types.ProfileStrict
	default:
		return types.ProfileNormal
	}
}

// PriorityRank returns the manual tie-break rank for a package; lower
// is stronger. Packages absent from the order list rank last.
func (s Snapshot) PriorityRank(pkg string) int {
	for i, p := range s.AppPriorityOrder {
		if strings.EqualFold(p, pkg) {
			return i
		}
	}
	return len(s.AppPriorityOrder)
}

func containsFold(list []string, v string) bool {
	for _, item := range list {
		if strings.EqualFold(item, v) {
			return true
		}
	}
	return false
}
