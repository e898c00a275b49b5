package feature

import (
	"time"

	"github.com/coni/hyperisle/internal/shared/types"
)

// MediaFeature mirrors playback chrome. The music BLOCK_SYSTEM mode is
// applied downstream by the route dispatcher, which consults the
// preference snapshot; the reducer stays pure.
type MediaFeature struct {
	policy types.IslandPolicy
}

func (f *MediaFeature) ID() string { return "media" }

func (f *MediaFeature) CanHandle(ev types.NotificationEvent) bool {
	return ev.Category == types.CategoryMedia
}

func (f *MediaFeature) Reduce(prev types.FeatureState, ev types.NotificationEvent, now time.Time) types.FeatureState {
	if ev.Origin == types.OriginRemove {
		if removes(prev, ev) {
			return nil
		}
		return prev
	}
	return MediaState{
		Key:     ev.Key(),
		Package: ev.SourceApp,
		Track:   ev.Title,
		Artist:  ev.Text,
	}
}

func (f *MediaFeature) Priority(st types.FeatureState) int {
	return PriorityMedia
}

func (f *MediaFeature) Policy(st types.FeatureState) types.IslandPolicy {
	return f.policy
}

func (f *MediaFeature) Route(st types.FeatureState) types.Route {
	return types.RouteOverlay
}
