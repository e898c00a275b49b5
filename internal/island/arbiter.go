package island

import (
	"sort"

	"github.com/coni/hyperisle/internal/feature"
	"github.com/coni/hyperisle/internal/prefs"
	"github.com/coni/hyperisle/internal/shared/types"
)

// Select ranks the live candidates under the configured limit mode and
// returns the winner, or nil when nothing is live. The winner still
// has to clear the activity state machine before it renders.
func Select(cands []feature.Candidate, mode types.LimitMode, snap prefs.Snapshot) *feature.Candidate {
	if len(cands) == 0 {
		return nil
	}

	ranked := make([]feature.Candidate, len(cands))
	copy(ranked, cands)

	switch mode {
	case types.LimitFirstCome:
		// Highest priority still wins; among equals the earliest
		// arrival keeps the slot and newer ones are dropped.
		sort.SliceStable(ranked, func(i, j int) bool {
			if ranked[i].Priority != ranked[j].Priority {
				return ranked[i].Priority > ranked[j].Priority
			}
			return ranked[i].EventAt.Before(ranked[j].EventAt)
		})

	case types.LimitMostRecent:
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].EventAt.After(ranked[j].EventAt)
		})

	default: // PRIORITY
		sort.SliceStable(ranked, func(i, j int) bool {
			if ranked[i].Priority != ranked[j].Priority {
				return ranked[i].Priority > ranked[j].Priority
			}
			ri := snap.PriorityRank(statePackage(ranked[i].State))
			rj := snap.PriorityRank(statePackage(ranked[j].State))
			if ri != rj {
				return ri < rj
			}
			return ranked[i].EventAt.After(ranked[j].EventAt)
		})
	}

	winner := ranked[0]
	return &winner
}

// statePackage extracts the owning package from a feature state for
// the manual per-app tie-break list.
func statePackage(st types.FeatureState) string {
	switch s := st.(type) {
	case feature.CallState:
		return s.Package
	case feature.AlarmState:
		return s.Package
	case feature.TimerState:
		return s.Package
	case feature.NavigationState:
		return s.Package
	case feature.MediaState:
		return s.Package
	case feature.ProgressState:
		return s.Package
	case feature.StandardState:
		return s.Package
	default:
		return ""
	}
}
