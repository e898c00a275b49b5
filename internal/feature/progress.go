package feature

import (
	"time"

	"github.com/coni/hyperisle/internal/shared/types"
)

// ProgressFeature merges successive download or task updates by
// replacing the state. Reaching max progress is terminal.
type ProgressFeature struct {
	policy types.IslandPolicy
}

func (f *ProgressFeature) ID() string { return "progress" }

func (f *ProgressFeature) CanHandle(ev types.NotificationEvent) bool {
	return ev.Category == types.CategoryProgress
}

func (f *ProgressFeature) Reduce(prev types.FeatureState, ev types.NotificationEvent, now time.Time) types.FeatureState {
	if ev.Origin == types.OriginRemove {
		if removes(prev, ev) {
			return nil
		}
		return prev
	}
	return ProgressState{
		Key:      ev.Key(),
		Package:  ev.SourceApp,
		Title:    ev.Title,
		Progress: ev.Progress,
		Max:      ev.MaxProgress,
		Done:     ev.MaxProgress > 0 && ev.Progress >= ev.MaxProgress,
	}
}

func (f *ProgressFeature) Priority(st types.FeatureState) int {
	return PriorityProgress
}

func (f *ProgressFeature) Policy(st types.FeatureState) types.IslandPolicy {
	return f.policy
}

func (f *ProgressFeature) Route(st types.FeatureState) types.Route {
	return types.RouteOverlay
}
