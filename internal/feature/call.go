package feature

import (
	"time"

	"github.com/coni/hyperisle/internal/shared/types"
)

// CallFeature drives Incoming -> Ongoing -> removed.
type CallFeature struct {
	policy types.IslandPolicy
}

func (f *CallFeature) ID() string { return "call" }

func (f *CallFeature) CanHandle(ev types.NotificationEvent) bool {
	return ev.Category == types.CategoryCall
}

func (f *CallFeature) Reduce(prev types.FeatureState, ev types.NotificationEvent, now time.Time) types.FeatureState {
	if ev.Origin == types.OriginRemove {
		if removes(prev, ev) {
			return nil
		}
		return prev
	}

	since := now
	if p, ok := prev.(CallState); ok && p.Key == ev.Key() {
		since = p.Since
	}
	return CallState{
		Key:      ev.Key(),
		Package:  ev.SourceApp,
		Caller:   ev.Title,
		Incoming: !ev.Ongoing,
		Since:    since,
	}
}

func (f *CallFeature) Priority(st types.FeatureState) int {
	if s, ok := st.(CallState); ok && s.Incoming {
		return PriorityIncomingCall
	}
	return PriorityOngoingCall
}

// Policy makes a ringing call modal and non-dismissible; the user
// answers or declines, swiping it away is not an option.
func (f *CallFeature) Policy(st types.FeatureState) types.IslandPolicy {
	p := f.policy
	if s, ok := st.(CallState); ok && s.Incoming {
		p.Dismissible = false
		p.Modal = true
	}
	return p
}

func (f *CallFeature) Route(st types.FeatureState) types.Route {
	return types.RouteOverlay
}
