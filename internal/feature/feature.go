package feature

import (
	"time"

	"github.com/coni/hyperisle/internal/infrastructure/config"
	"github.com/coni/hyperisle/internal/shared/types"
)

// Priority ladder. Incoming calls outrank everything; a firing alarm
// outranks an ongoing call but not an incoming one.
const (
	PriorityIncomingCall = 100
	PriorityAlarm        = 90
	PriorityOngoingCall  = 80
	PriorityTimerRinging = 70
	PriorityNavigation   = 60
	PriorityTimer        = 50
	PriorityMedia        = 40
	PriorityProgress     = 30
	PriorityMessage      = 20
	PriorityStandard     = 10
)

// Feature is one typed reducer over a notification kind.
type Feature interface {
	// ID names the feature's single live slot
	ID() string
	// CanHandle is a pure predicate on event shape
	CanHandle(ev types.NotificationEvent) bool
	// Reduce derives the next state purely from (prev, event, now).
	// Nil removes this feature's island.
	Reduce(prev types.FeatureState, ev types.NotificationEvent, now time.Time) types.FeatureState
	// Priority ranks a live state for arbitration
	Priority(st types.FeatureState) int
	// Policy is the declarative render contract for a state
	Policy(st types.FeatureState) types.IslandPolicy
	// Route selects the rendering target for a state
	Route(st types.FeatureState) types.Route
}

// terminal is implemented by states that declare their own end,
// e.g. a finished download.
type terminal interface {
	Terminal() bool
}

// IsTerminal reports whether a state declared itself finished.
func IsTerminal(st types.FeatureState) bool {
	t, ok := st.(terminal)
	return ok && t.Terminal()
}

// removes reports whether a removal event names the live state. A
// removal frees only the slot whose key it carries; an unrelated
// same-category removal must leave the shown state alone.
func removes(prev types.FeatureState, ev types.NotificationEvent) bool {
	return prev != nil && prev.NotificationKey() == ev.Key()
}

// Candidate is one live feature state offered to arbitration. Route is
// the listener's hint when the event carried one, otherwise the
// feature's own choice.
type Candidate struct {
	Feature  Feature
	State    types.FeatureState
	Priority int
	Route    types.Route
	EventAt  time.Time
}

// slot holds one feature's live state.
type slot struct {
	state   types.FeatureState
	eventAt time.Time
	route   types.Route
}

// Registry owns the fixed feature list and each feature's live slot.
// Single-writer: only the pipeline loop calls Apply and Remove.
type Registry struct {
	features []Feature
	slots    map[string]*slot
}

// NewRegistry builds the registry in dispatch order. The standard
// feature is last because it handles everything.
func NewRegistry(cfg config.EngineConfig) *Registry {
	policy := basePolicy(cfg)
	return &Registry{
		features: []Feature{
			&CallFeature{policy: policy},
			&AlarmFeature{policy: policy},
			&TimerFeature{policy: policy},
			&NavigationFeature{policy: policy},
			&MediaFeature{policy: policy},
			&ProgressFeature{policy: policy},
			&StandardFeature{policy: policy},
		},
		slots: make(map[string]*slot),
	}
}

// basePolicy derives the default render contract from engine config.
func basePolicy(cfg config.EngineConfig) types.IslandPolicy {
	return types.IslandPolicy{
		Dismissible:  true,
		MinVisible:   cfg.MinVisible(),
		DedupeWindow: cfg.DedupeWindow(),
	}
}

// Dispatch returns the first feature whose predicate matches.
func (r *Registry) Dispatch(ev types.NotificationEvent) (Feature, bool) {
	for _, f := range r.features {
		if f.CanHandle(ev) {
			return f, true
		}
	}
	return nil, false
}

// Apply routes the event to its feature and reduces that feature's
// slot. Returns the feature, the new state (nil when the slot was
// freed) and whether any feature handled the event at all. An event
// no feature claims is a routing miss, not an error.
func (r *Registry) Apply(ev types.NotificationEvent, now time.Time) (Feature, types.FeatureState, bool) {
	f, ok := r.Dispatch(ev)
	if !ok {
		return nil, nil, false
	}

	var prev types.FeatureState
	if s, live := r.slots[f.ID()]; live {
		prev = s.state
	}

	next := f.Reduce(prev, ev, now)
	if next == nil {
		delete(r.slots, f.ID())
		return f, nil, true
	}

	// A removal that kept the state untouched must not refresh the
	// slot's event time or route.
	if ev.Origin == types.OriginRemove {
		return f, next, true
	}

	route := f.Route(next)
	if ev.RouteHint != "" {
		route = ev.RouteHint
	}
	r.slots[f.ID()] = &slot{state: next, eventAt: ev.Timestamp, route: route}
	return f, next, true
}

// Remove frees a feature's slot, e.g. after an explicit dismiss.
func (r *Registry) Remove(featureID string) {
	delete(r.slots, featureID)
}

// RemoveByKey frees whichever slot renders the given island key.
func (r *Registry) RemoveByKey(islandKey string) {
	for id, s := range r.slots {
		if s.state.NotificationKey() == islandKey {
			delete(r.slots, id)
			return
		}
	}
}

// Live returns all candidates with a non-nil state, in registry order.
func (r *Registry) Live() []Candidate {
	out := make([]Candidate, 0, len(r.slots))
	for _, f := range r.features {
		s, ok := r.slots[f.ID()]
		if !ok {
			continue
		}
		out = append(out, Candidate{
			Feature:  f,
			State:    s.state,
			Priority: f.Priority(s.state),
			Route:    s.route,
			EventAt:  s.eventAt,
		})
	}
	return out
}
