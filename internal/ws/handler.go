package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/coni/hyperisle/internal/infrastructure/monitoring"
	"github.com/coni/hyperisle/internal/logging"
	"github.com/coni/hyperisle/internal/shared/types"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// The overlay runs on-device; cross-origin is not a concern
		return true
	},
}

const writeTimeout = 2 * time.Second

// ActionSink receives user gestures from connected overlays.
// Satisfied by the engine.
type ActionSink interface {
	HandleAction(a types.UserAction) bool
}

// Snapshotter supplies the current island for late-joining overlays.
type Snapshotter interface {
	CurrentIsland() *types.ActiveIsland
}

// inbound is one message read from an overlay connection.
type inbound struct {
	Type   string            `json:"type"`
	Action *types.UserAction `json:"action,omitempty"`
}

// Hub fans island snapshots out to every connected overlay and feeds
// their gestures back into the pipeline. It implements route.Renderer.
type Hub struct {
	sink     ActionSink
	snapshot Snapshotter
	metrics  *monitoring.Metrics
	logger   *logging.Logger

	mu    sync.RWMutex
	conns map[string]*connection
}

type connection struct {
	id      string
	conn    *websocket.Conn
	writeMu sync.Mutex
}

// NewHub creates an empty hub. Bind must be called before the first
// connection is served; the engine is built after the hub because the
// render path points the other way.
func NewHub(metrics *monitoring.Metrics, logger *logging.Logger) *Hub {
	return &Hub{
		metrics: metrics,
		logger:  logger.Component("ws"),
		conns:   make(map[string]*connection),
	}
}

// Bind attaches the gesture sink and island snapshot source.
func (h *Hub) Bind(sink ActionSink, snapshot Snapshotter) {
	h.sink = sink
	h.snapshot = snapshot
}

// HandleConnection upgrades and serves one overlay connection.
func (h *Hub) HandleConnection(c *gin.Context) {
	if h.sink == nil {
		c.AbortWithStatus(http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	cn := &connection{id: uuid.NewString(), conn: conn}
	h.register(cn)
	defer h.unregister(cn)

	// Late joiners immediately see whatever is on screen.
	if h.snapshot != nil {
		if cur := h.snapshot.CurrentIsland(); cur != nil {
			h.writeTo(cn, renderPayload(cur))
		}
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg inbound
		if err := sonic.Unmarshal(data, &msg); err != nil {
			h.writeTo(cn, map[string]any{"type": "error", "message": "malformed message"})
			continue
		}

		switch msg.Type {
		case "action":
			if msg.Action == nil {
				h.writeTo(cn, map[string]any{"type": "error", "message": "missing action"})
				continue
			}
			action := *msg.Action
			if action.At.IsZero() {
				action.At = time.Now()
			}
			if !h.sink.HandleAction(action) {
				return
			}
		case "ping":
			h.writeTo(cn, map[string]any{"type": "pong"})
		default:
			h.writeTo(cn, map[string]any{"type": "error", "message": "unknown message type"})
		}
	}
}

// Render pushes an island snapshot to every overlay. Never blocks the
// pipeline: a dead connection is dropped on write failure.
func (h *Hub) Render(isl *types.ActiveIsland) {
	h.broadcast(renderPayload(isl))
}

// Teardown tells every overlay to remove an island.
func (h *Hub) Teardown(islandID string) {
	h.broadcast(map[string]any{"type": "teardown", "id": islandID})
}

// ConnectionCount reports the number of live overlays.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func renderPayload(isl *types.ActiveIsland) map[string]any {
	return map[string]any{
		"type":       "island",
		"island":     isl,
		"island_key": isl.State.NotificationKey(),
		"state":      isl.State,
	}
}

func (h *Hub) register(cn *connection) {
	h.mu.Lock()
	h.conns[cn.id] = cn
	h.mu.Unlock()
	if h.metrics != nil {
		h.metrics.IncWSConnections()
	}
	h.logger.Debug("overlay connected", zap.String("conn", cn.id))
}

// unregister is idempotent: the broadcast path and the read loop's
// deferred cleanup may both drop the same connection.
func (h *Hub) unregister(cn *connection) {
	h.mu.Lock()
	_, live := h.conns[cn.id]
	delete(h.conns, cn.id)
	h.mu.Unlock()
	cn.conn.Close()
	if !live {
		return
	}
	if h.metrics != nil {
		h.metrics.DecWSConnections()
	}
	h.logger.Debug("overlay disconnected", zap.String("conn", cn.id))
}

func (h *Hub) broadcast(payload any) {
	data, err := sonic.Marshal(payload)
	if err != nil {
		h.logger.Warn("broadcast encode failed", zap.Error(err))
		return
	}

	h.mu.RLock()
	conns := make([]*connection, 0, len(h.conns))
	for _, cn := range h.conns {
		conns = append(conns, cn)
	}
	h.mu.RUnlock()

	for _, cn := range conns {
		if err := cn.write(data); err != nil {
			h.logger.Debug("overlay write failed, dropping", zap.String("conn", cn.id), zap.Error(err))
			h.unregister(cn)
		}
	}
}

func (h *Hub) writeTo(cn *connection, payload any) {
	data, err := sonic.Marshal(payload)
	if err != nil {
		return
	}
	if err := cn.write(data); err != nil {
		h.logger.Debug("overlay write failed", zap.String("conn", cn.id), zap.Error(err))
	}
}

func (cn *connection) write(data []byte) error {
	cn.writeMu.Lock()
	defer cn.writeMu.Unlock()
	cn.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return cn.conn.WriteMessage(websocket.TextMessage, data)
}
