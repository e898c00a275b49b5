package island

import (
	"time"

	"go.uber.org/zap"

	"github.com/coni/hyperisle/internal/feature"
	"github.com/coni/hyperisle/internal/infrastructure/config"
	"github.com/coni/hyperisle/internal/infrastructure/monitoring"
	"github.com/coni/hyperisle/internal/logging"
	"github.com/coni/hyperisle/internal/shared/id"
	"github.com/coni/hyperisle/internal/shared/types"
)

// Outcome classifies what an Offer or Complete did to the slot.
type Outcome string

const (
	OutcomeNone      Outcome = "none"
	OutcomeCreated   Outcome = "created"
	OutcomeUpdated   Outcome = "updated"
	OutcomeDeduped   Outcome = "deduped"
	OutcomeHeld      Outcome = "held"
	OutcomeCompleted Outcome = "completed"
)

// Result is what the route dispatcher reacts to.
type Result struct {
	Outcome Outcome
	// Island is the slot after the operation, nil when empty
	Island *types.ActiveIsland
	// Completed is an island torn down during the operation, if any
	Completed *types.ActiveIsland
}

// Activity owns the single ActiveIsland slot. Single-writer: only the
// pipeline loop calls it, so no lock guards the slot itself.
type Activity struct {
	cfg     config.EngineConfig
	metrics *monitoring.Metrics
	logger  *logging.Logger
	dump    *Dump

	current       *types.ActiveIsland
	lastContent   string
	lastContentAt time.Time
}

// NewActivity creates the state machine with an empty slot.
func NewActivity(cfg config.EngineConfig, metrics *monitoring.Metrics, dump *Dump, logger *logging.Logger) *Activity {
	return &Activity{
		cfg:     cfg,
		metrics: metrics,
		logger:  logger.Component("island"),
		dump:    dump,
	}
}

// Current returns a copy of the slot, or nil when empty.
func (a *Activity) Current() *types.ActiveIsland {
	if a.current == nil {
		return nil
	}
	cp := *a.current
	return &cp
}

// SetExpanded flips the expanded UI flag on the live island.
func (a *Activity) SetExpanded(expanded bool) {
	if a.current != nil {
		a.current.Expanded = expanded
	}
}

// SetReplying flips the replying UI flag on the live island. While
// replying the island is non-preemptible.
func (a *Activity) SetReplying(replying bool) {
	if a.current != nil {
		a.current.Replying = replying
	}
}

// Offer hands the arbitration winner to the slot. A nil winner with a
// live slot completes it. All timing decisions compare timestamps
// against now.
func (a *Activity) Offer(winner *feature.Candidate, now time.Time) Result {
	if winner == nil {
		if a.current == nil {
			return Result{Outcome: OutcomeNone}
		}
		done := a.completeLocked("no live candidates", now)
		return Result{Outcome: OutcomeCompleted, Completed: done}
	}

	if a.current == nil {
		isl := a.createLocked(winner, now)
		return Result{Outcome: OutcomeCreated, Island: isl}
	}

	if winner.State.NotificationKey() == a.current.State.NotificationKey() {
		return a.updateLocked(winner, now)
	}

	return a.replaceLocked(winner, now)
}

// CompleteCurrent tears the slot down explicitly, e.g. on dismiss or
// a feature-declared terminal state.
func (a *Activity) CompleteCurrent(note string, now time.Time) Result {
	if a.current == nil {
		return Result{Outcome: OutcomeNone}
	}
	done := a.completeLocked(note, now)
	return Result{Outcome: OutcomeCompleted, Completed: done}
}

// updateLocked handles a reduce of the already shown key.
func (a *Activity) updateLocked(winner *feature.Candidate, now time.Time) Result {
	sig := winner.State.ContentSignature()
	window := a.current.Policy.DedupeWindow
	if window <= 0 {
		window = a.cfg.DedupeWindow()
	}

	// Duplicate OS callbacks are swallowed whole: no re-render, no haptic.
	if sig == a.lastContent && now.Sub(a.lastContentAt) < window {
		if a.metrics != nil {
			a.metrics.UpdatesDeduped.Inc()
		}
		cp := *a.current
		return Result{Outcome: OutcomeDeduped, Island: &cp}
	}

	a.current.State = winner.State
	a.current.Priority = winner.Priority
	a.current.EventAt = winner.EventAt
	if winner.Route != "" {
		a.current.Route = winner.Route
	}
	a.lastContent = sig
	a.lastContentAt = now

	a.transition(types.PhaseUpdated, types.PhaseUpdated, "", now)
	if a.metrics != nil {
		a.metrics.RecordTransition(string(types.PhaseUpdated))
	}

	cp := *a.current
	return Result{Outcome: OutcomeUpdated, Island: &cp}
}

// replaceLocked handles a winner for a different key than the one
// shown. Strictly higher priority preempts immediately; anything else
// waits out the minimum-visible window.
func (a *Activity) replaceLocked(winner *feature.Candidate, now time.Time) Result {
	// Mid-reply the slot is non-preemptible for any candidate.
	if a.current.Replying {
		return Result{Outcome: OutcomeHeld, Island: a.Current()}
	}

	if winner.Priority > a.current.Priority {
		if a.metrics != nil {
			a.metrics.Preemptions.Inc()
		}
		done := a.completeLocked("preempted", now)
		isl := a.createLocked(winner, now)
		return Result{Outcome: OutcomeCreated, Island: isl, Completed: done}
	}

	minVisible := a.current.Policy.MinVisible
	if minVisible <= 0 {
		minVisible = a.cfg.MinVisible()
	}
	if now.Sub(a.current.FirstShownAt) < minVisible {
		return Result{Outcome: OutcomeHeld, Island: a.Current()}
	}

	done := a.completeLocked("replaced", now)
	isl := a.createLocked(winner, now)
	return Result{Outcome: OutcomeCreated, Island: isl, Completed: done}
}

func (a *Activity) createLocked(winner *feature.Candidate, now time.Time) *types.ActiveIsland {
	route := winner.Route
	if route == "" {
		route = winner.Feature.Route(winner.State)
	}
	a.current = &types.ActiveIsland{
		ID:           id.NewIslandID().String(),
		FeatureID:    winner.Feature.ID(),
		State:        winner.State,
		Route:        route,
		Policy:       winner.Feature.Policy(winner.State),
		Priority:     winner.Priority,
		FirstShownAt: now,
		EventAt:      winner.EventAt,
	}
	a.lastContent = winner.State.ContentSignature()
	a.lastContentAt = now

	a.transition("", types.PhaseCreated, "", now)
	if a.metrics != nil {
		a.metrics.RecordTransition(string(types.PhaseCreated))
	}
	a.logger.Debug("island created",
		zap.String("id", a.current.ID),
		zap.String("feature", a.current.FeatureID),
		zap.Int("priority", a.current.Priority))

	cp := *a.current
	return &cp
}

func (a *Activity) completeLocked(note string, now time.Time) *types.ActiveIsland {
	done := *a.current
	a.current = nil
	a.lastContent = ""
	a.lastContentAt = time.Time{}

	a.transitionFor(done, types.PhaseUpdated, types.PhaseCompleted, note, now)
	if a.metrics != nil {
		a.metrics.RecordTransition(string(types.PhaseCompleted))
	}
	a.logger.Debug("island completed",
		zap.String("id", done.ID),
		zap.String("feature", done.FeatureID),
		zap.String("note", note))
	return &done
}

func (a *Activity) transition(from, to types.Phase, note string, now time.Time) {
	if a.current != nil {
		a.transitionFor(*a.current, from, to, note, now)
	}
}

func (a *Activity) transitionFor(isl types.ActiveIsland, from, to types.Phase, note string, now time.Time) {
	if a.dump == nil {
		return
	}
	a.dump.Add(types.TransitionRecord{
		At:        now,
		IslandKey: isl.State.NotificationKey(),
		FeatureID: isl.FeatureID,
		From:      from,
		To:        to,
		Note:      note,
	})
}
