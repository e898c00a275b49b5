package feature

import (
	"time"

	"github.com/coni/hyperisle/internal/shared/types"
)

// StandardFeature is the fallback reducer for messages and plain
// notifications. It must stay last in the registry: it handles
// everything the typed features declined.
type StandardFeature struct {
	policy types.IslandPolicy
}

func (f *StandardFeature) ID() string { return "standard" }

func (f *StandardFeature) CanHandle(ev types.NotificationEvent) bool {
	return true
}

func (f *StandardFeature) Reduce(prev types.FeatureState, ev types.NotificationEvent, now time.Time) types.FeatureState {
	if ev.Origin == types.OriginRemove {
		if removes(prev, ev) {
			return nil
		}
		return prev
	}
	return StandardState{
		Key:      ev.Key(),
		Package:  ev.SourceApp,
		Title:    ev.Title,
		Text:     ev.Text,
		CanReply: ev.CanReply,
		Message:  ev.Category == types.CategoryMessage,
	}
}

func (f *StandardFeature) Priority(st types.FeatureState) int {
	if s, ok := st.(StandardState); ok && s.Message {
		return PriorityMessage
	}
	return PriorityStandard
}

func (f *StandardFeature) Policy(st types.FeatureState) types.IslandPolicy {
	return f.policy
}

func (f *StandardFeature) Route(st types.FeatureState) types.Route {
	return types.RouteOverlay
}
