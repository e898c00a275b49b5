package feature

import (
	"time"

	"github.com/coni/hyperisle/internal/shared/types"
)

// NavigationFeature shows the current maneuver from a turn-by-turn app.
type NavigationFeature struct {
	policy types.IslandPolicy
}

func (f *NavigationFeature) ID() string { return "navigation" }

func (f *NavigationFeature) CanHandle(ev types.NotificationEvent) bool {
	return ev.Category == types.CategoryNavigation
}

func (f *NavigationFeature) Reduce(prev types.FeatureState, ev types.NotificationEvent, now time.Time) types.FeatureState {
	if ev.Origin == types.OriginRemove {
		if removes(prev, ev) {
			return nil
		}
		return prev
	}
	return NavigationState{
		Key:         ev.Key(),
		Package:     ev.SourceApp,
		Instruction: ev.Title,
		Detail:      ev.Text,
	}
}

func (f *NavigationFeature) Priority(st types.FeatureState) int {
	return PriorityNavigation
}

func (f *NavigationFeature) Policy(st types.FeatureState) types.IslandPolicy {
	return f.policy
}

func (f *NavigationFeature) Route(st types.FeatureState) types.Route {
	return types.RouteOverlay
}
