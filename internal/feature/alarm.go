package feature

import (
	"time"

	"github.com/coni/hyperisle/internal/shared/types"
)

// AlarmFeature fires until the alarm is dismissed or snoozed.
type AlarmFeature struct {
	policy types.IslandPolicy
}

func (f *AlarmFeature) ID() string { return "alarm" }

func (f *AlarmFeature) CanHandle(ev types.NotificationEvent) bool {
	return ev.Category == types.CategoryAlarm
}

func (f *AlarmFeature) Reduce(prev types.FeatureState, ev types.NotificationEvent, now time.Time) types.FeatureState {
	if ev.Origin == types.OriginRemove {
		if removes(prev, ev) {
			return nil
		}
		return prev
	}

	since := now
	if p, ok := prev.(AlarmState); ok && p.Key == ev.Key() {
		since = p.Since
	}
	return AlarmState{
		Key:     ev.Key(),
		Package: ev.SourceApp,
		Label:   ev.Title,
		Since:   since,
	}
}

func (f *AlarmFeature) Priority(st types.FeatureState) int {
	return PriorityAlarm
}

func (f *AlarmFeature) Policy(st types.FeatureState) types.IslandPolicy {
	p := f.policy
	p.Modal = true
	return p
}

func (f *AlarmFeature) Route(st types.FeatureState) types.Route {
	return types.RouteOverlay
}
