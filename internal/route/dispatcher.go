package route

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/coni/hyperisle/internal/infrastructure/monitoring"
	"github.com/coni/hyperisle/internal/island"
	"github.com/coni/hyperisle/internal/logging"
	"github.com/coni/hyperisle/internal/prefs"
	"github.com/coni/hyperisle/internal/shared/types"
)

// ActionDispatcher abstracts platform side effects. The core never
// touches a platform intent type; the excluded integration layer
// implements this against real PendingIntents and RemoteInputs.
type ActionDispatcher interface {
	SendAction(ctx context.Context, ref types.ActionRef) error
	CancelNotification(ctx context.Context, islandKey string) error
	Haptic(ctx context.Context, kind types.HapticKind) error
}

// Renderer receives island snapshots for the in-process overlay.
// Implemented by the websocket hub.
type Renderer interface {
	Render(isl *types.ActiveIsland)
	Teardown(islandID string)
}

// NativeRenderer pushes islands to the OS-native bridge instead of
// the overlay.
type NativeRenderer interface {
	RenderNative(ctx context.Context, isl *types.ActiveIsland) error
	TeardownNative(ctx context.Context, islandID string) error
}

// Dispatcher fans one arbitration result out to the render target and
// its side effects.
type Dispatcher struct {
	overlay Renderer
	native  NativeRenderer
	actions ActionDispatcher
	metrics *monitoring.Metrics
	logger  *logging.Logger
}

// NewDispatcher wires the dispatcher. Any collaborator may be nil and
// degrades to a no-op.
func NewDispatcher(overlay Renderer, native NativeRenderer, actions ActionDispatcher, metrics *monitoring.Metrics, logger *logging.Logger) *Dispatcher {
	return &Dispatcher{
		overlay: overlay,
		native:  native,
		actions: actions,
		metrics: metrics,
		logger:  logger.Component("route"),
	}
}

// Dispatch reacts to one activity result under the current preference
// snapshot. It owns the BLOCK_SYSTEM override: a media island renders
// nowhere and the underlying notification is cancelled instead.
func (d *Dispatcher) Dispatch(ctx context.Context, res island.Result, snap prefs.Snapshot) {
	if res.Completed != nil {
		d.teardown(ctx, res.Completed)
	}

	switch res.Outcome {
	case island.OutcomeCreated:
		d.render(ctx, res.Island, snap, true)
	case island.OutcomeUpdated:
		d.render(ctx, res.Island, snap, false)
	default:
		// deduped, held, none: nothing reaches the screen
	}
}

func (d *Dispatcher) render(ctx context.Context, isl *types.ActiveIsland, snap prefs.Snapshot, created bool) {
	if isl == nil {
		return
	}

	route := isl.Route
	if isl.FeatureID == "media" && snap.MusicMode == prefs.MusicModeBlockSystem {
		route = types.RouteNone
	}

	if d.metrics != nil {
		d.metrics.RecordRouteDispatch(string(route))
	}

	switch route {
	case types.RouteOverlay:
		if d.overlay != nil {
			d.overlay.Render(isl)
		}
	case types.RouteNative:
		if d.native != nil {
			nctx, cancel := WithTimeout(ctx)
			err := d.native.RenderNative(nctx, isl)
			cancel()
			if err != nil {
				d.logger.Warn("native render failed", zap.String("id", isl.ID), zap.Error(err))
			}
		}
	case types.RouteNone:
		// Log-only. BLOCK_SYSTEM also cancels the source notification
		// so the system tray does not double it.
		d.cancelNotification(ctx, isl.State.NotificationKey())
	}

	if created && snap.HapticsEnabled && route != types.RouteNone {
		d.haptic(ctx, types.HapticShown)
	}
}

func (d *Dispatcher) teardown(ctx context.Context, isl *types.ActiveIsland) {
	if d.overlay != nil {
		d.overlay.Teardown(isl.ID)
	}
	if d.native != nil && isl.Route == types.RouteNative {
		nctx, cancel := WithTimeout(ctx)
		err := d.native.TeardownNative(nctx, isl.ID)
		cancel()
		if err != nil {
			d.logger.Warn("native teardown failed", zap.String("id", isl.ID), zap.Error(err))
		}
	}
}

// SendAction forwards a user gesture to the platform layer. Failure
// degrades to a logged no-op; the pipeline keeps going.
func (d *Dispatcher) SendAction(ctx context.Context, action types.UserAction, snap prefs.Snapshot) {
	if d.actions == nil {
		return
	}

	ref := types.ActionRef{
		IslandKey: action.IslandKey,
		Package:   action.Package,
		Kind:      action.Kind,
		ReplyText: action.ReplyText,
	}
	actx, cancel := WithTimeout(ctx)
	defer cancel()
	if err := d.actions.SendAction(actx, ref); err != nil {
		derr := &DispatchError{Kind: action.Kind, Err: err}
		if d.metrics != nil {
			d.metrics.RecordActionError(string(action.Kind))
		}
		d.logger.Warn("action dispatch failed",
			zap.String("kind", string(action.Kind)),
			logging.Pkg(action.Package),
			zap.Error(derr))
		return
	}

	if snap.HapticsEnabled {
		switch action.Kind {
		case types.ActionAccept, types.ActionDismiss, types.ActionReply:
			d.haptic(ctx, types.HapticSuccess)
		}
	}
}

func (d *Dispatcher) cancelNotification(ctx context.Context, islandKey string) {
	if d.actions == nil {
		return
	}
	actx, cancel := WithTimeout(ctx)
	defer cancel()
	if err := d.actions.CancelNotification(actx, islandKey); err != nil {
		d.logger.Warn("cancel notification failed", logging.IslandKey(islandKey), zap.Error(err))
	}
}

func (d *Dispatcher) haptic(ctx context.Context, kind types.HapticKind) {
	if d.actions == nil {
		return
	}
	actx, cancel := WithTimeout(ctx)
	defer cancel()
	if err := d.actions.Haptic(actx, kind); err != nil {
		d.logger.Debug("haptic failed", zap.String("kind", string(kind)), zap.Error(err))
	}
}

// noopActions is the dispatcher used when no bridge is configured.
type noopActions struct{}

func (noopActions) SendAction(context.Context, types.ActionRef) error { return nil }
func (noopActions) CancelNotification(context.Context, string) error  { return nil }
func (noopActions) Haptic(context.Context, types.HapticKind) error    { return nil }

// NoopActions returns an ActionDispatcher that accepts everything.
func NoopActions() ActionDispatcher { return noopActions{} }

// timeout bounds any single side-effect call.
const sideEffectTimeout = 2 * time.Second

// WithTimeout derives a bounded context for one side effect.
func WithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, sideEffectTimeout)
}
