package route

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coni/hyperisle/internal/feature"
	"github.com/coni/hyperisle/internal/infrastructure/config"
	"github.com/coni/hyperisle/internal/logging"
	"github.com/coni/hyperisle/internal/shared/types"
)

func newTestBridge(t *testing.T, handler http.HandlerFunc) *Bridge {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.BridgeConfig{URL: srv.URL, RetryCount: 0, TimeoutMs: 1000}
	return NewBridge(cfg, logging.NewDevelopment())
}

func TestBridgeRenderNative(t *testing.T) {
	var got islandPayload
	b := newTestBridge(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/island/render", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	})

	isl := &types.ActiveIsland{
		ID:        "isl_1",
		FeatureID: "navigation",
		State:     feature.NavigationState{Key: "com.maps/nav", Instruction: "turn left"},
		Priority:  60,
	}
	require.NoError(t, b.RenderNative(context.Background(), isl))

	assert.Equal(t, "isl_1", got.ID)
	assert.Equal(t, "navigation", got.FeatureID)
	assert.Equal(t, "com.maps/nav", got.IslandKey)
	assert.Equal(t, 60, got.Priority)
}

func TestBridgeSendActionError(t *testing.T) {
	b := newTestBridge(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	err := b.SendAction(context.Background(), types.ActionRef{Kind: types.ActionAccept})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIntentDelivery)
}

func TestBridgeCancelNotification(t *testing.T) {
	var gotPath string
	var body map[string]string
	b := newTestBridge(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, b.CancelNotification(context.Background(), "com.player/media"))
	assert.Equal(t, "/notification/cancel", gotPath)
	assert.Equal(t, "com.player/media", body["island_key"])
}

func TestBridgeUnreachable(t *testing.T) {
	cfg := config.BridgeConfig{URL: "http://127.0.0.1:1", RetryCount: 0, TimeoutMs: 200}
	b := NewBridge(cfg, logging.NewDevelopment())

	err := b.Haptic(context.Background(), types.HapticShown)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIntentDelivery)
}
