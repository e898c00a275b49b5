package engine

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/coni/hyperisle/internal/digest"
	"github.com/coni/hyperisle/internal/feature"
	"github.com/coni/hyperisle/internal/infrastructure/config"
	"github.com/coni/hyperisle/internal/infrastructure/monitoring"
	"github.com/coni/hyperisle/internal/island"
	"github.com/coni/hyperisle/internal/logging"
	"github.com/coni/hyperisle/internal/prefs"
	"github.com/coni/hyperisle/internal/priority"
	"github.com/coni/hyperisle/internal/route"
	"github.com/coni/hyperisle/internal/shared/types"
	"github.com/coni/hyperisle/internal/storage"
	"github.com/coni/hyperisle/internal/suppress"
)

// message is the union flowing through the single input channel.
// Exactly one field is set.
type message struct {
	event      *types.NotificationEvent
	context    *types.ContextState
	action     *types.UserAction
	prefsFlip  bool
}

// Deps are the injected collaborators. Store and Metrics may be nil.
type Deps struct {
	Config     config.EngineConfig
	Logger     *logging.Logger
	Metrics    *monitoring.Metrics
	Prefs      *prefs.Store
	Presets    prefs.Presets
	Priority   *priority.Engine
	Digest     suppress.DigestSink
	Dispatcher *route.Dispatcher
	Store      *storage.Store
	Clock      func() time.Time
}

// Engine owns the pipeline loop and every single-writer slot in it.
type Engine struct {
	cfg        config.EngineConfig
	logger     *logging.Logger
	metrics    *monitoring.Metrics
	prefsStore *prefs.Store
	presets    prefs.Presets
	priority   *priority.Engine
	sink       suppress.DigestSink
	dispatcher *route.Dispatcher
	store      *storage.Store
	clock      func() time.Time

	cooldowns *suppress.Cooldowns
	pipeline  *suppress.Pipeline
	registry  *feature.Registry
	activity  *island.Activity
	dump      *island.Dump

	// ctxState is owned by the loop goroutine
	ctxState types.ContextState

	// currentMu guards the read-only island snapshot for HTTP callers
	currentMu sync.RWMutex
	current   *types.ActiveIsland

	input     chan message
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New assembles the pipeline around the injected collaborators.
func New(deps Deps) *Engine {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	logger := deps.Logger.Component("engine")
	cooldowns := suppress.NewCooldowns()
	dump := island.NewDump(deps.Config.DumpCapacity)

	return &Engine{
		cfg:        deps.Config,
		logger:     logger,
		metrics:    deps.Metrics,
		prefsStore: deps.Prefs,
		presets:    deps.Presets,
		priority:   deps.Priority,
		sink:       deps.Digest,
		dispatcher: deps.Dispatcher,
		store:      deps.Store,
		clock:      clock,
		cooldowns:  cooldowns,
		pipeline:   suppress.New(cooldowns, deps.Priority, deps.Digest, deps.Metrics, deps.Logger),
		registry:   feature.NewRegistry(deps.Config),
		activity:   island.NewActivity(deps.Config, deps.Metrics, dump, deps.Logger),
		dump:       dump,
		ctxState:   types.ContextState{ScreenOn: true},
		input:      make(chan message, max(deps.Config.QueueSize, 1)),
		done:       make(chan struct{}),
	}
}

// Dump exposes the transition ring for the debug endpoint.
func (e *Engine) Dump() *island.Dump { return e.dump }

// Start launches the loop and the background hydration.
func (e *Engine) Start(ctx context.Context) {
	e.wg.Add(1)
	go e.loop(ctx)

	// Hydrate caches off the hot path; until done every check fails open.
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		hctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if e.priority != nil {
			if err := e.priority.Hydrate(hctx); err != nil {
				e.logger.Warn("priority hydration failed", zap.Error(err))
			}
		}
		if e.store != nil {
			records, err := e.store.LoadCooldowns(hctx)
			if err != nil {
				e.logger.Warn("cooldown hydration failed", zap.Error(err))
				return
			}
			e.cooldowns.Hydrate(records)
		}
	}()

	if e.prefsStore != nil {
		updates := e.prefsStore.Subscribe()
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			for {
				select {
				case <-e.done:
					return
				case <-updates:
					select {
					case e.input <- message{prefsFlip: true}:
					case <-e.done:
						return
					}
				}
			}
		}()
	}
}

// Close stops the loop after the queued work drains.
func (e *Engine) Close() {
	e.closeOnce.Do(func() { close(e.done) })
	e.wg.Wait()
}

// Ingest queues one normalized event. Returns false once the engine
// is shutting down.
func (e *Engine) Ingest(ev types.NotificationEvent) bool {
	select {
	case e.input <- message{event: &ev}:
		return true
	case <-e.done:
		return false
	}
}

// UpdateContext queues a screen or power flip.
func (e *Engine) UpdateContext(cs types.ContextState) bool {
	select {
	case e.input <- message{context: &cs}:
		return true
	case <-e.done:
		return false
	}
}

// HandleAction queues one user gesture.
func (e *Engine) HandleAction(a types.UserAction) bool {
	select {
	case e.input <- message{action: &a}:
		return true
	case <-e.done:
		return false
	}
}

// CurrentIsland returns a copy of the rendered island, or nil.
func (e *Engine) CurrentIsland() *types.ActiveIsland {
	e.currentMu.RLock()
	defer e.currentMu.RUnlock()
	if e.current == nil {
		return nil
	}
	cp := *e.current
	return &cp
}

// loop is the single consumer of the input channel.
func (e *Engine) loop(ctx context.Context) {
	defer e.wg.Done()
	for {
		select {
		case <-e.done:
			return
		case msg := <-e.input:
			e.dispatch(ctx, msg)
		}
	}
}

// dispatch routes one message. Any single bad message must not take
// the loop down, so reducers and filters are all non-panicking by
// construction and side effects are error-wrapped downstream.
func (e *Engine) dispatch(ctx context.Context, msg message) {
	switch {
	case msg.event != nil:
		e.handleEvent(ctx, *msg.event)
	case msg.context != nil:
		e.ctxState = *msg.context
	case msg.action != nil:
		e.handleAction(ctx, *msg.action)
	case msg.prefsFlip:
		// Limit mode or priority order may have changed.
		e.rearbitrate(ctx, e.snapshot(), e.clock())
	}
}

func (e *Engine) handleEvent(ctx context.Context, ev types.NotificationEvent) {
	now := e.clock()
	snap := e.snapshot()

	if e.metrics != nil {
		e.metrics.RecordIngested(string(ev.Origin), string(ev.Category))
	}

	// Removals bypass suppression: they only free state.
	if ev.Origin != types.OriginRemove {
		decision := e.pipeline.Check(suppress.Input{
			Event:   ev,
			Prefs:   snap,
			Presets: e.presets,
			Context: e.ctxState,
			Now:     now,
		})
		if !decision.Allowed {
			return
		}
		// Accepted events are digest-logged with no reason, so events
		// that lose arbitration still count in the summary.
		if e.sink != nil {
			e.sink.Record(ev.SourceApp, ev.Timestamp, "")
		}
	}

	f, st, handled := e.registry.Apply(ev, now)
	if !handled {
		// Routing miss, not an error.
		e.logger.Debug("no feature claimed event", logging.Pkg(ev.SourceApp))
		return
	}

	// A feature-declared terminal state completes the island at once.
	if st != nil && feature.IsTerminal(st) {
		cur := e.activity.Current()
		if cur != nil && cur.State.NotificationKey() == st.NotificationKey() {
			res := e.activity.CompleteCurrent("finished", now)
			e.dispatcher.Dispatch(ctx, res, snap)
		}
		e.registry.Remove(f.ID())
	}

	e.rearbitrate(ctx, snap, now)
}

// rearbitrate recomputes the winner and pushes the result downstream.
func (e *Engine) rearbitrate(ctx context.Context, snap prefs.Snapshot, now time.Time) {
	winner := island.Select(e.registry.Live(), snap.Limit(), snap)
	res := e.activity.Offer(winner, now)
	e.dispatcher.Dispatch(ctx, res, snap)
	e.publishCurrent()
}

func (e *Engine) handleAction(ctx context.Context, a types.UserAction) {
	now := e.clock()
	snap := e.snapshot()
	cur := e.activity.Current()

	switch a.Kind {
	case types.ActionDismiss:
		if cur == nil {
			return
		}
		e.cooldownFor(cur, a, now)
		if e.priority != nil {
			e.priority.RecordDismiss(islandPackage(cur, a), cur.FirstShownAt, now)
		}
		e.dispatcher.SendAction(ctx, a, snap)
		e.completeCurrent(ctx, cur, "dismissed", snap, now)

	case types.ActionOpen:
		if e.priority != nil {
			e.priority.RecordOpen(islandPackage(cur, a), now)
		}
		e.dispatcher.SendAction(ctx, a, snap)
		if cur != nil {
			e.completeCurrent(ctx, cur, "opened", snap, now)
		}

	case types.ActionAccept:
		// The answered call re-enters as an ongoing update; the island
		// stays put until then.
		e.dispatcher.SendAction(ctx, a, snap)

	case types.ActionDecline:
		e.dispatcher.SendAction(ctx, a, snap)
		if cur != nil {
			e.completeCurrent(ctx, cur, "declined", snap, now)
		}

	case types.ActionReply:
		if a.ReplyText == "" {
			// Reply begun: the slot becomes non-preemptible.
			e.activity.SetReplying(true)
			e.publishCurrent()
			return
		}
		e.dispatcher.SendAction(ctx, a, snap)
		e.activity.SetReplying(false)
		// A candidate held back during the reply can come in now.
		e.rearbitrate(ctx, snap, now)

	case types.ActionExpand:
		if cur != nil {
			e.activity.SetExpanded(!cur.Expanded)
			e.publishCurrent()
		}

	case types.ActionMute:
		if e.prefsStore != nil {
			if err := e.prefsStore.MuteAppAt(a.Package, now); err != nil {
				e.logger.Warn("mute failed", logging.Pkg(a.Package), zap.Error(err))
			}
		}
		if cur != nil && islandPackage(cur, a) == a.Package {
			e.completeCurrent(ctx, cur, "muted", snap, now)
		}

	case types.ActionBlock:
		if e.prefsStore != nil {
			if err := e.prefsStore.BlockApp(a.Package); err != nil {
				e.logger.Warn("block failed", logging.Pkg(a.Package), zap.Error(err))
			}
		}
		if cur != nil && islandPackage(cur, a) == a.Package {
			e.completeCurrent(ctx, cur, "blocked", snap, now)
		}
	}
}

// completeCurrent tears the shown island down, frees its feature slot
// and lets the next candidate in.
func (e *Engine) completeCurrent(ctx context.Context, cur *types.ActiveIsland, note string, snap prefs.Snapshot, now time.Time) {
	res := e.activity.CompleteCurrent(note, now)
	e.registry.RemoveByKey(cur.State.NotificationKey())
	e.dispatcher.Dispatch(ctx, res, snap)
	e.rearbitrate(ctx, snap, now)
}

// cooldownFor records the dismissal in the cooldown ledger and writes
// it behind.
func (e *Engine) cooldownFor(cur *types.ActiveIsland, a types.UserAction, now time.Time) {
	pkg := islandPackage(cur, a)
	cat := stateCategory(cur.State)
	e.cooldowns.Record(pkg, cat, now)

	if e.store == nil {
		return
	}
	rec := types.CooldownRecord{PackageName: pkg, NotificationType: cat, LastDismissedAt: now}
	go func() {
		sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := e.store.SaveCooldown(sctx, rec); err != nil {
			e.logger.Warn("cooldown persist failed", logging.Pkg(pkg), zap.Error(err))
		}
	}()
}

func (e *Engine) snapshot() prefs.Snapshot {
	if e.prefsStore == nil {
		return prefs.DefaultSnapshot()
	}
	return e.prefsStore.Current()
}

func (e *Engine) publishCurrent() {
	cur := e.activity.Current()
	e.currentMu.Lock()
	e.current = cur
	e.currentMu.Unlock()
}

// islandPackage resolves the owning package, preferring the action's
// explicit package over the island key prefix.
func islandPackage(cur *types.ActiveIsland, a types.UserAction) string {
	if a.Package != "" {
		return a.Package
	}
	if cur == nil {
		return ""
	}
	key := cur.State.NotificationKey()
	for i := 0; i < len(key); i++ {
		if key[i] == '/' {
			return key[:i]
		}
	}
	return key
}

// stateCategory maps a live state back to the cooldown category.
func stateCategory(st types.FeatureState) types.Category {
	switch s := st.(type) {
	case feature.CallState:
		return types.CategoryCall
	case feature.AlarmState:
		return types.CategoryAlarm
	case feature.TimerState:
		return types.CategoryTimer
	case feature.NavigationState:
		return types.CategoryNavigation
	case feature.MediaState:
		return types.CategoryMedia
	case feature.ProgressState:
		return types.CategoryProgress
	case feature.StandardState:
		if s.Message {
			return types.CategoryMessage
		}
		return types.CategoryStandard
	default:
		return types.CategoryStandard
	}
}

// Callers pass *digest.Recorder directly as the sink.
var _ suppress.DigestSink = (*digest.Recorder)(nil)
