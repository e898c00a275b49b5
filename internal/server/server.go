package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/coni/hyperisle/internal/digest"
	"github.com/coni/hyperisle/internal/engine"
	enginehttp "github.com/coni/hyperisle/internal/http"
	"github.com/coni/hyperisle/internal/infrastructure/config"
	"github.com/coni/hyperisle/internal/infrastructure/monitoring"
	"github.com/coni/hyperisle/internal/logging"
	"github.com/coni/hyperisle/internal/middleware"
	"github.com/coni/hyperisle/internal/prefs"
	"github.com/coni/hyperisle/internal/priority"
	"github.com/coni/hyperisle/internal/route"
	"github.com/coni/hyperisle/internal/storage"
	"github.com/coni/hyperisle/internal/ws"
)

// Server wires every pipeline component and serves the REST and
// websocket surfaces.
type Server struct {
	cfg      *config.Config
	logger   *logging.Logger
	httpSrv  *http.Server
	engine   *engine.Engine
	recorder *digest.Recorder
	store    *storage.Store
	cancelBg context.CancelFunc
}

// NewServer builds the full pipeline from configuration.
func NewServer(cfg *config.Config, logger *logging.Logger) (*Server, error) {
	metrics := monitoring.NewMetrics()

	store, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	prefsStore := prefs.NewStore(cfg.Prefs.Path, logger)
	if err := prefsStore.Reload(); err != nil {
		logger.Warn("preference file unreadable, using defaults", zap.Error(err))
	}

	presets, err := prefs.LoadPresets(cfg.Prefs.PresetPath)
	if err != nil {
		logger.Warn("preset file unreadable, using defaults", zap.Error(err))
		presets = prefs.DefaultPresets()
	}

	recorder := digest.NewRecorder(store, logger)
	recorder.Start()

	prio := priority.NewEngine(cfg.Engine, store, logger)

	hub := ws.NewHub(metrics, logger)

	var native route.NativeRenderer
	actions := route.NoopActions()
	if cfg.Bridge.Enabled && cfg.Bridge.URL != "" {
		bridge := route.NewBridge(cfg.Bridge, logger)
		native = bridge
		actions = bridge
	}
	dispatcher := route.NewDispatcher(hub, native, actions, metrics, logger)

	eng := engine.New(engine.Deps{
		Config:     cfg.Engine,
		Logger:     logger,
		Metrics:    metrics,
		Prefs:      prefsStore,
		Presets:    presets,
		Priority:   prio,
		Digest:     recorder,
		Dispatcher: dispatcher,
		Store:      store,
	})
	hub.Bind(eng, eng)

	bg, cancelBg := context.WithCancel(context.Background())
	eng.Start(bg)

	if cfg.Prefs.Watch {
		go func() {
			if err := prefsStore.Watch(bg); err != nil {
				logger.Warn("preference watcher stopped", zap.Error(err))
			}
		}()
	}

	if cfg.Logging.Development {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(monitoring.Middleware(metrics))
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "Accept", "Origin"},
		MaxAge:       12 * time.Hour,
	}))

	handlers := enginehttp.NewHandlers(eng, recorder, prefsStore, prio, eng.Dump(), metrics, cfg)

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	ingest := router.Group("/", middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.Server.RateRPS,
		Burst:             cfg.Server.RateBurst,
	}))
	ingest.POST("/events", handlers.PostEvent)
	ingest.POST("/context", handlers.PostContext)
	ingest.POST("/actions", handlers.PostAction)
	router.GET("/island", handlers.GetIsland)

	router.GET("/digest", handlers.GetDigest)
	router.GET("/digest/export", handlers.ExportDigest)

	router.GET("/prefs", handlers.GetPrefs)
	router.POST("/prefs/mute", handlers.MuteApp)
	router.POST("/prefs/block", handlers.BlockApp)

	if cfg.Engine.Debug {
		router.GET("/debug/dump", handlers.Dump)
	}

	router.GET("/overlay", hub.HandleConnection)

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	return &Server{
		cfg:    cfg,
		logger: logger.Component("server"),
		httpSrv: &http.Server{
			Addr:    addr,
			Handler: router,
		},
		engine:   eng,
		recorder: recorder,
		store:    store,
		cancelBg: cancelBg,
	}, nil
}

// Run serves until the listener fails or Shutdown is called.
func (s *Server) Run() error {
	s.logger.Info("listening", zap.String("addr", s.httpSrv.Addr))
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains HTTP, stops the pipeline loop and flushes storage.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpSrv.Shutdown(ctx)

	s.cancelBg()
	s.engine.Close()
	s.recorder.Close()
	if cerr := s.store.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
