package feature

import (
	"time"

	"github.com/coni/hyperisle/internal/shared/types"
)

// TimerFeature renders a countdown while the timer runs and rings at
// zero. The UI clock derives the remaining time from Base; only phase
// or label changes re-enter the pipeline.
type TimerFeature struct {
	policy types.IslandPolicy
}

func (f *TimerFeature) ID() string { return "timer" }

func (f *TimerFeature) CanHandle(ev types.NotificationEvent) bool {
	return ev.Category == types.CategoryTimer
}

func (f *TimerFeature) Reduce(prev types.FeatureState, ev types.NotificationEvent, now time.Time) types.FeatureState {
	if ev.Origin == types.OriginRemove {
		if removes(prev, ev) {
			return nil
		}
		return prev
	}

	base := ev.Timestamp
	if p, ok := prev.(TimerState); ok && p.Key == ev.Key() && ev.Ongoing {
		base = p.Base
	}
	return TimerState{
		Key:     ev.Key(),
		Package: ev.SourceApp,
		Label:   ev.Title,
		Base:    base,
		Ringing: !ev.Ongoing,
	}
}

func (f *TimerFeature) Priority(st types.FeatureState) int {
	if s, ok := st.(TimerState); ok && s.Ringing {
		return PriorityTimerRinging
	}
	return PriorityTimer
}

func (f *TimerFeature) Policy(st types.FeatureState) types.IslandPolicy {
	return f.policy
}

func (f *TimerFeature) Route(st types.FeatureState) types.Route {
	return types.RouteOverlay
}
