package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"echocore/internal/api"
	"echocore/internal/auth"
	"echocore/internal/config"
	"echocore/internal/gateway"
	"echocore/internal/importer"
	"echocore/internal/media"
	"echocore/internal/store"
)

// Application coordinates all system components.
// Initialization follows strict dependency order:
// Store → Registry → Verifier → Gateway → Importer → API → HTTP
type Application struct {
	config     *config.Config
	store      *store.Manager
	registry   *gateway.Registry
	gateway    *gateway.Gateway
	worker     *importer.Worker
	apiServer  *api.Server
	httpServer *http.Server
	logger     *zap.Logger
}

func NewApplication(cfg *config.Config, logger *zap.Logger) (*Application, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	storeManager, err := store.NewManager(cfg.Database.Path, cfg.Database.Timeout, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	verifier, err := auth.NewVerifier(cfg.Auth.Secret)
	if err != nil {
		storeManager.Close()
		return nil, fmt.Errorf("failed to initialize credential verifier: %w", err)
	}

	registry := gateway.NewRegistry()
	gw := gateway.New(registry, verifier, storeManager, storeManager, logger)
	wsHandler := gateway.NewHandler(gw, registry, cfg.WebSocket, logger)

	source := media.NewSourceClient(cfg.Import.SourceBaseURL, cfg.Import.SourceToken, cfg.Import.DownloadTimeout)
	storage := media.NewLocalStorage(cfg.Import.MediaDir, cfg.Import.MediaBaseURL)

	// The pipeline reports progress through the worker, and the worker runs
	// the pipeline. The closure resolves the cycle: worker is assigned
	// before any job can run.
	var worker *importer.Worker
	downloadClient := &http.Client{Timeout: cfg.Import.DownloadTimeout}
	pipeline := importer.NewPipeline(source, storage, storeManager, downloadClient, cfg.Import.TempDir,
		func(message, logType string) { worker.Log(message, logType) }, logger)
	worker = importer.NewWorker(gw, pipeline, logger)

	apiServer := api.NewServer(worker, gw, storeManager, logger)

	mux := http.NewServeMux()
	mux.Handle("/api/", apiServer)
	mux.Handle("/health", apiServer)
	mux.HandleFunc("/ws", wsHandler.HandleWebSocket)
	mux.Handle("/media/", http.StripPrefix("/media/", http.FileServer(http.Dir(cfg.Import.MediaDir))))

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      mux,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	return &Application{
		config:     cfg,
		store:      storeManager,
		registry:   registry,
		gateway:    gw,
		worker:     worker,
		apiServer:  apiServer,
		httpServer: httpServer,
		logger:     logger,
	}, nil
}

// Start begins serving. It returns once the HTTP listener is confirmed up.
func (app *Application) Start(ctx context.Context) error {
	app.logger.Info("starting application", zap.String("addr", app.httpServer.Addr))

	serverErrCh := make(chan error, 1)
	go func() {
		if err := app.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	select {
	case err := <-serverErrCh:
		return err
	case <-time.After(100 * time.Millisecond):
		app.logger.Info("application started")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop shuts down in reverse dependency order: HTTP → connections → store.
func (app *Application) Stop(ctx context.Context) error {
	app.logger.Info("shutting down application")

	if err := app.httpServer.Shutdown(ctx); err != nil {
		app.logger.Warn("HTTP server shutdown error", zap.Error(err))
	}

	for _, conn := range app.registry.AllConnections() {
		conn.Close()
	}

	if err := app.store.Close(); err != nil {
		app.logger.Warn("store shutdown error", zap.Error(err))
	}

	app.logger.Info("application shutdown complete")
	return nil
}
