package suppress

import (
	"time"

	"go.uber.org/zap"

	"github.com/coni/hyperisle/internal/infrastructure/monitoring"
	"github.com/coni/hyperisle/internal/logging"
	"github.com/coni/hyperisle/internal/prefs"
	"github.com/coni/hyperisle/internal/priority"
	"github.com/coni/hyperisle/internal/shared/types"
)

// Input carries one event plus the live flows a check consults. The
// caller reads exactly one preference snapshot per cycle so all eight
// filters see the same world.
type Input struct {
	Event   types.NotificationEvent
	Prefs   prefs.Snapshot
	Presets prefs.Presets
	Context types.ContextState
	Now     time.Time
}

// Filter is one independently testable veto stage.
type Filter interface {
	Name() string
	Check(in Input) types.SuppressionDecision
}

// Throttler answers "is this app/type currently throttled".
// Satisfied by priority.Engine.
type Throttler interface {
	Throttled(pkg string, cat types.Category, profile types.ThrottleProfile, now time.Time) (bool, priority.Cause)
}

// DigestSink receives one row per denied event. Satisfied by
// digest.Recorder.
type DigestSink interface {
	Record(pkg string, postTime time.Time, reason types.Reason)
}

// Pipeline runs the ordered filter chain.
type Pipeline struct {
	filters []Filter
	sink    DigestSink
	metrics *monitoring.Metrics
	logger  *logging.Logger
}

// New builds the chain in its canonical order.
func New(cooldowns *Cooldowns, throttle Throttler, sink DigestSink, metrics *monitoring.Metrics, logger *logging.Logger) *Pipeline {
	return &Pipeline{
		filters: []Filter{
			blockedFilter{},
			mutedFilter{},
			cooldownFilter{ledger: cooldowns},
			contextFilter{},
			focusFilter{},
			presetFilter{},
			throttleFilter{engine: throttle, metrics: metrics},
			spoilerFilter{},
		},
		sink:    sink,
		metrics: metrics,
		logger:  logger.Component("suppress"),
	}
}

// Check runs the event through every filter in order, short-circuiting
// on the first deny. Denials are counted and digest-logged here so no
// suppression is ever silent to the system.
func (p *Pipeline) Check(in Input) types.SuppressionDecision {
	for _, f := range p.filters {
		decision := f.Check(in)
		if decision.Allowed {
			continue
		}

		if p.metrics != nil {
			p.metrics.RecordSuppression(string(decision.Reason))
		}
		if p.sink != nil {
			p.sink.Record(in.Event.SourceApp, in.Event.Timestamp, decision.Reason)
		}
		p.logger.Debug("event suppressed",
			logging.Pkg(in.Event.SourceApp),
			zap.String("category", string(in.Event.Category)),
			zap.String("filter", f.Name()),
			logging.Reason(string(decision.Reason)))
		return decision
	}
	return types.Allow()
}

// blockedFilter denies blocked apps outright.
type blockedFilter struct{}

func (blockedFilter) Name() string { return "blocked" }

func (blockedFilter) Check(in Input) types.SuppressionDecision {
	if in.Prefs.IsBlocked(in.Event.SourceApp) {
		return types.Deny(types.ReasonBlocked)
	}
	return types.Allow()
}

// mutedFilter denies muted apps while the mute window holds. Unlike
// blocking, a mute expires one cooldown window after the gesture.
type mutedFilter struct{}

func (mutedFilter) Name() string { return "muted" }

func (mutedFilter) Check(in Input) types.SuppressionDecision {
	if in.Prefs.MuteActive(in.Event.SourceApp, in.Now) {
		return types.Deny(types.ReasonMuted)
	}
	return types.Allow()
}

// cooldownFilter denies repeats of a recently dismissed pkg:type.
type cooldownFilter struct {
	ledger *Cooldowns
}

func (cooldownFilter) Name() string { return "cooldown" }

func (f cooldownFilter) Check(in Input) types.SuppressionDecision {
	window := time.Duration(in.Prefs.CooldownSeconds) * time.Second
	if window <= 0 || f.ledger == nil {
		return types.Allow()
	}
	if last, ok := f.ledger.Last(in.Event.SourceApp, in.Event.Category); ok {
		if in.Now.Sub(last) < window {
			return types.Deny(types.ReasonCooldown)
		}
	}
	return types.Allow()
}

// contextFilter denies non-allowed categories while the screen is off.
// Media is exempt: playback chrome stays reachable regardless.
type contextFilter struct{}

func (contextFilter) Name() string { return "context" }

func (contextFilter) Check(in Input) types.SuppressionDecision {
	if !in.Prefs.ContextAware || in.Context.ScreenOn {
		return types.Allow()
	}
	if in.Event.Category == types.CategoryMedia {
		return types.Allow()
	}
	if !in.Prefs.ContextAllows(in.Event.Category) {
		return types.Deny(types.ReasonContextScreenOff)
	}
	return types.Allow()
}

// focusFilter is the strongest override: it runs before presets and
// wins regardless of what a preset alone would have allowed.
type focusFilter struct{}

func (focusFilter) Name() string { return "focus" }

func (focusFilter) Check(in Input) types.SuppressionDecision {
	if !in.Prefs.FocusEnabled {
		return types.Allow()
	}
	if !in.Prefs.FocusAllows(in.Event.Category) {
		return types.Deny(types.ReasonFocus)
	}
	return types.Allow()
}

// presetFilter applies the active named bundle (MEETING, DRIVING,
// HEADPHONES). Never weakens focus; never applies to media.
type presetFilter struct{}

func (presetFilter) Name() string { return "preset" }

func (presetFilter) Check(in Input) types.SuppressionDecision {
	if in.Prefs.ActivePreset == "" {
		return types.Allow()
	}
	if !in.Presets.Allows(in.Prefs.ActivePreset, in.Event.Category) {
		return types.Deny(types.ReasonPreset)
	}
	return types.Allow()
}

// throttleFilter asks the priority engine for its verdict.
type throttleFilter struct {
	engine  Throttler
	metrics *monitoring.Metrics
}

func (throttleFilter) Name() string { return "throttle" }

func (f throttleFilter) Check(in Input) types.SuppressionDecision {
	if f.engine == nil {
		return types.Allow()
	}
	throttled, cause := f.engine.Throttled(
		in.Event.SourceApp, in.Event.Category, in.Prefs.ProfileFor(in.Event.SourceApp), in.Now)
	if !throttled {
		return types.Allow()
	}
	if f.metrics != nil {
		if cause == priority.CauseBurst {
			f.metrics.BurstDrops.Inc()
		} else {
			f.metrics.ThrottleTrips.Inc()
		}
	}
	return types.Deny(types.ReasonPriorityThrottle)
}

// spoilerFilter denies events whose text matches a blocked term,
// globally or per-app.
type spoilerFilter struct{}

func (spoilerFilter) Name() string { return "spoiler" }

func (spoilerFilter) Check(in Input) types.SuppressionDecision {
	text := in.Event.Title + " " + in.Event.Text + " " + in.Event.BigText
	if in.Prefs.SpoilerMatch(in.Event.SourceApp, text) != "" {
		return types.Deny(types.ReasonSpoiler)
	}
	return types.Allow()
}
