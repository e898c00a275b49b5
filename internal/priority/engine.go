package priority

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gonum.org/v1/gonum/floats"

	"github.com/coni/hyperisle/internal/infrastructure/config"
	"github.com/coni/hyperisle/internal/logging"
	"github.com/coni/hyperisle/internal/shared/types"
	"github.com/coni/hyperisle/internal/storage"
)

// Cause explains why an app is currently throttled.
type Cause string

const (
	CauseNone    Cause = ""
	CauseBurst   Cause = "burst"
	CauseManual  Cause = "manual"
	CauseLearned Cause = "learned"
)

// Decay weights for the last three calendar days, today first.
var dayWeights = []float64{1.0, 0.6, 0.3}

const (
	baseThreshold   = -3.0
	dismissWeight   = -1.0
	openWeight      = 2.0
	quietDecayScale = 0.5 // weakened long-term penalty during quiet hours
	quietBias       = 0.5 // lowered short-term threshold during quiet hours
	decisionRing    = 64
)

// typeMultipliers scale the throttle threshold per category. Higher
// means a much deeper negative score is needed before throttling.
var typeMultipliers = map[types.Category]float64{
	types.CategoryCall:       4.0,
	types.CategoryTimer:      4.0,
	types.CategoryAlarm:      4.0,
	types.CategoryNavigation: 4.0,
	types.CategoryMedia:      2.0,
	types.CategoryProgress:   1.5,
	types.CategoryMessage:    1.2,
	types.CategoryStandard:   1.0,
}

// Persister is the storage surface the engine hydrates from and
// writes behind. Nil means memory-only operation.
type Persister interface {
	SaveProfile(ctx context.Context, p types.AppPriorityProfile) error
	AppendScoreEvent(ctx context.Context, ev storage.ScoreEvent) error
	LoadProfiles(ctx context.Context) ([]types.AppPriorityProfile, error)
	LoadScoreEvents(ctx context.Context, since time.Time) (map[string][]storage.ScoreEvent, error)
	PruneScoreEvents(ctx context.Context, before time.Time) error
}

// decision is one in-memory throttle verdict kept for debugging only.
type decision struct {
	At      time.Time
	Package string
	Cause   Cause
}

// Engine owns all AppPriorityProfile records.
type Engine struct {
	cfg    config.EngineConfig
	store  Persister
	logger *logging.Logger
	clock  func() time.Time

	mu        sync.RWMutex
	profiles  map[string]*types.AppPriorityProfile
	events    map[string][]storage.ScoreEvent
	limiters  map[string]*rate.Limiter
	decisions []decision
	hydrated  bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock injects a deterministic clock for tests.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) { e.clock = clock }
}

// NewEngine creates a priority engine. store may be nil.
func NewEngine(cfg config.EngineConfig, store Persister, logger *logging.Logger, opts ...Option) *Engine {
	e := &Engine{
		cfg:      cfg,
		store:    store,
		logger:   logger.Component("priority"),
		clock:    time.Now,
		profiles: make(map[string]*types.AppPriorityProfile),
		events:   make(map[string][]storage.ScoreEvent),
		limiters: make(map[string]*rate.Limiter),
	}
	for _, opt := range opts {
		opt(e)
	}
	if store == nil {
		e.hydrated = true
	}
	return e
}

// Hydrate loads persisted profiles and score events into the cache.
// Called off the hot path; until it completes every check fails open.
func (e *Engine) Hydrate(ctx context.Context) error {
	if e.store == nil {
		return nil
	}

	profiles, err := e.store.LoadProfiles(ctx)
	if err != nil {
		return err
	}
	cutoff := e.clock().Add(-72 * time.Hour)
	events, err := e.store.LoadScoreEvents(ctx, cutoff)
	if err != nil {
		return err
	}
	// Samples past the decay horizon can never move a score again.
	if err := e.store.PruneScoreEvents(ctx, cutoff); err != nil {
		e.logger.Warn("score event prune failed", zap.Error(err))
	}

	e.mu.Lock()
	for i := range profiles {
		p := profiles[i]
		e.profiles[p.Package] = &p
	}
	for pkg, evs := range events {
		e.events[pkg] = evs
	}
	e.hydrated = true
	e.mu.Unlock()

	e.logger.Info("priority cache hydrated",
		zap.Int("profiles", len(profiles)), zap.Int("packages_with_events", len(events)))
	return nil
}

// Throttled reports whether events from pkg should currently be
// suppressed. Burst control is checked first (content-agnostic), then
// the manual override, then the learned score. A cold cache fails
// open: never throttle on a miss.
func (e *Engine) Throttled(pkg string, cat types.Category, profile types.ThrottleProfile, now time.Time) (bool, Cause) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.hydrated {
		return false, CauseNone
	}

	// Burst control first: N events per burst window per app, newest
	// content still reaches the screen via the update path.
	if !e.limiter(pkg).AllowN(now, 1) {
		e.record(now, pkg, CauseBurst)
		return true, CauseBurst
	}

	if p, ok := e.profiles[pkg]; ok && !p.ThrottledUntil.IsZero() && now.Before(p.ThrottledUntil) {
		e.record(now, pkg, CauseManual)
		return true, CauseManual
	}

	if e.scoreLocked(pkg, now) <= e.threshold(cat, profile, now) {
		e.record(now, pkg, CauseLearned)
		return true, CauseLearned
	}

	return false, CauseNone
}

// Score returns the decayed spam score for pkg at now.
func (e *Engine) Score(pkg string, now time.Time) float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.scoreLocked(pkg, now)
}

// scoreLocked computes the weighted 3-day sum. Caller holds a lock.
func (e *Engine) scoreLocked(pkg string, now time.Time) float64 {
	evs := e.events[pkg]
	if len(evs) == 0 {
		return 0
	}

	days := make([]float64, len(dayWeights))
	today := dayFloor(now)
	for _, ev := range evs {
		// Round absorbs DST-shortened or -stretched days.
		age := int(today.Sub(dayFloor(ev.At)).Round(24*time.Hour).Hours() / 24)
		if age >= 0 && age < len(days) {
			days[age] += ev.Weight
		}
	}
	return floats.Dot(days, dayWeights)
}

// dayFloor returns local midnight for t. Calendar days follow the
// device's wall clock, same as quiet hours.
func dayFloor(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// threshold computes the throttle trip point for a category.
func (e *Engine) threshold(cat types.Category, profile types.ThrottleProfile, now time.Time) float64 {
	mult, ok := typeMultipliers[cat]
	if !ok {
		mult = 1.0
	}
	switch profile {
	case types.ProfileLenient:
		mult *= 2.0
	case types.ProfileStrict:
		mult *= 0.5
	}

	threshold := baseThreshold * mult
	if e.inQuietHours(now) {
		// Easier to trip while the user likely sleeps
		threshold *= quietBias
	}
	return threshold
}

// RecordDismiss scores a dismissal. Only fast dismissals (inside the
// configured threshold) count as a spam signal.
func (e *Engine) RecordDismiss(pkg string, shownAt, now time.Time) {
	weight := 0.0
	if now.Sub(shownAt) < e.cfg.FastDismiss() {
		weight = dismissWeight
		if e.inQuietHours(now) {
			// Night-time spam should not permanently hurt the daytime score
			weight *= quietDecayScale
		}
	}

	e.mu.Lock()
	p := e.profileLocked(pkg)
	p.LastDismiss = now
	if weight != 0 {
		e.events[pkg] = append(e.events[pkg], storage.ScoreEvent{Package: pkg, At: now, Weight: weight})
		p.Score = e.scoreLocked(pkg, now)
	}
	snapshot := *p
	e.mu.Unlock()

	e.persist(snapshot, weight, now)
}

// RecordOpen scores a tap-to-open.
func (e *Engine) RecordOpen(pkg string, now time.Time) {
	e.mu.Lock()
	p := e.profileLocked(pkg)
	p.LastOpen = now
	e.events[pkg] = append(e.events[pkg], storage.ScoreEvent{Package: pkg, At: now, Weight: openWeight})
	p.Score = e.scoreLocked(pkg, now)
	snapshot := *p
	e.mu.Unlock()

	e.persist(snapshot, openWeight, now)
}

// ManualThrottle sets an explicit user override until the given time.
func (e *Engine) ManualThrottle(pkg string, until time.Time) {
	e.mu.Lock()
	p := e.profileLocked(pkg)
	p.ThrottledUntil = until
	snapshot := *p
	e.mu.Unlock()

	e.persist(snapshot, 0, e.clock())
}

// ClearThrottle removes the manual override.
func (e *Engine) ClearThrottle(pkg string) {
	e.mu.Lock()
	p := e.profileLocked(pkg)
	p.ThrottledUntil = time.Time{}
	snapshot := *p
	e.mu.Unlock()

	e.persist(snapshot, 0, e.clock())
}

// Profile returns a copy of the profile for pkg, if known.
func (e *Engine) Profile(pkg string) (types.AppPriorityProfile, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	p, ok := e.profiles[pkg]
	if !ok {
		return types.AppPriorityProfile{}, false
	}
	return *p, true
}

// RecentDecisions returns the in-memory throttle verdicts, newest
// last. Debug only; never persisted or surfaced to end users.
func (e *Engine) RecentDecisions() []map[string]any {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]map[string]any, 0, len(e.decisions))
	for _, d := range e.decisions {
		out = append(out, map[string]any{
			"at":      d.At,
			"package": d.Package,
			"cause":   string(d.Cause),
		})
	}
	return out
}

// profileLocked returns or creates the profile entry. Caller holds mu.
func (e *Engine) profileLocked(pkg string) *types.AppPriorityProfile {
	p, ok := e.profiles[pkg]
	if !ok {
		p = &types.AppPriorityProfile{Package: pkg, Profile: types.ProfileNormal}
		e.profiles[pkg] = p
	}
	return p
}

// limiter returns or creates the per-app burst limiter. Caller holds mu.
func (e *Engine) limiter(pkg string) *rate.Limiter {
	l, ok := e.limiters[pkg]
	if !ok {
		l = rate.NewLimiter(rate.Every(e.cfg.BurstWindow()), e.cfg.BurstSize)
		e.limiters[pkg] = l
	}
	return l
}

func (e *Engine) record(now time.Time, pkg string, cause Cause) {
	e.decisions = append(e.decisions, decision{At: now, Package: pkg, Cause: cause})
	if len(e.decisions) > decisionRing {
		e.decisions = e.decisions[len(e.decisions)-decisionRing:]
	}
}

func (e *Engine) inQuietHours(now time.Time) bool {
	h := now.Hour()
	start, end := e.cfg.QuietHoursStart, e.cfg.QuietHoursEnd
	if start <= end {
		return h >= start && h < end
	}
	return h >= start || h < end
}

// persist writes behind without blocking the caller.
func (e *Engine) persist(p types.AppPriorityProfile, weight float64, at time.Time) {
	if e.store == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if err := e.store.SaveProfile(ctx, p); err != nil {
			e.logger.Warn("profile persist failed", logging.Pkg(p.Package), zap.Error(err))
		}
		if weight != 0 {
			ev := storage.ScoreEvent{Package: p.Package, At: at, Weight: weight}
			if err := e.store.AppendScoreEvent(ctx, ev); err != nil {
				e.logger.Warn("score event persist failed", logging.Pkg(p.Package), zap.Error(err))
			}
		}
	}()
}
