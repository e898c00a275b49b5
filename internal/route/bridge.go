package route

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/coni/hyperisle/internal/infrastructure/config"
	"github.com/coni/hyperisle/internal/infrastructure/resilience"
	"github.com/coni/hyperisle/internal/logging"
	"github.com/coni/hyperisle/internal/shared/types"
)

// Bridge is the HTTP client for the OS-native island surface. It
// implements both NativeRenderer and ActionDispatcher. A circuit
// breaker fails calls fast while the bridge process is down.
type Bridge struct {
	client  *resty.Client
	breaker *resilience.Breaker
	logger  *logging.Logger
}

// NewBridge creates a bridge client against the configured base URL.
func NewBridge(cfg config.BridgeConfig, logger *logging.Logger) *Bridge {
	client := resty.New().
		SetBaseURL(cfg.URL).
		SetTimeout(cfg.BridgeTimeout()).
		SetRetryCount(cfg.RetryCount).
		SetHeader("Content-Type", "application/json")

	log := logger.Component("bridge")
	breaker := resilience.New(resilience.Settings{
		Threshold: 5,
		Cooldown:  cfg.BridgeTimeout() * 10,
		OnStateChange: func(from, to resilience.State) {
			log.Warn("bridge circuit changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &Bridge{
		client:  client,
		breaker: breaker,
		logger:  log,
	}
}

// islandPayload is the wire form of a rendered island. State is
// flattened to key and signature; the native surface keeps its own
// presentation.
type islandPayload struct {
	ID        string      `json:"id"`
	FeatureID string      `json:"feature_id"`
	IslandKey string      `json:"island_key"`
	Priority  int         `json:"priority"`
	Policy    interface{} `json:"policy"`
}

// post sends one request through the breaker, wrapping failures in the
// given error kind.
func (b *Bridge) post(ctx context.Context, kind error, path string, body any) error {
	return b.breaker.Do(func() error {
		resp, err := b.client.R().
			SetContext(ctx).
			SetBody(body).
			Post(path)
		if err != nil {
			return fmt.Errorf("%w: %v", kind, err)
		}
		if resp.IsError() {
			return fmt.Errorf("%w: %s status %d", kind, path, resp.StatusCode())
		}
		return nil
	})
}

// RenderNative pushes one island snapshot to the bridge.
func (b *Bridge) RenderNative(ctx context.Context, isl *types.ActiveIsland) error {
	return b.post(ctx, ErrBridgeUnavailable, "/island/render", islandPayload{
		ID:        isl.ID,
		FeatureID: isl.FeatureID,
		IslandKey: isl.State.NotificationKey(),
		Priority:  isl.Priority,
		Policy:    isl.Policy,
	})
}

// TeardownNative removes an island from the bridge surface.
func (b *Bridge) TeardownNative(ctx context.Context, islandID string) error {
	return b.post(ctx, ErrBridgeUnavailable, "/island/teardown", map[string]string{"id": islandID})
}

// SendAction forwards a user gesture as a pending-intent dispatch.
func (b *Bridge) SendAction(ctx context.Context, ref types.ActionRef) error {
	return b.post(ctx, ErrIntentDelivery, "/action", ref)
}

// CancelNotification cancels the underlying OS notification for a key.
func (b *Bridge) CancelNotification(ctx context.Context, islandKey string) error {
	return b.post(ctx, ErrIntentDelivery, "/notification/cancel", map[string]string{"island_key": islandKey})
}

// Haptic fires a pulse on the device.
func (b *Bridge) Haptic(ctx context.Context, kind types.HapticKind) error {
	return b.post(ctx, ErrIntentDelivery, "/haptic", map[string]string{"kind": string(kind)})
}
