// Package server builds the application from configuration and runs it.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/camillebr/photosite/internal/api"
	"github.com/camillebr/photosite/internal/clock/system"
	"github.com/camillebr/photosite/internal/config"
	"github.com/camillebr/photosite/internal/content"
	"github.com/camillebr/photosite/internal/ingest"
	"github.com/camillebr/photosite/internal/logging"
	"github.com/camillebr/photosite/internal/notify"
	pubsubnotify "github.com/camillebr/photosite/internal/notify/pubsub"
	"github.com/camillebr/photosite/internal/policy/loginlimit"
	gcsstorage "github.com/camillebr/photosite/internal/storage/gcs"
	memorystorage "github.com/camillebr/photosite/internal/storage/memory"
	pgstore "github.com/camillebr/photosite/internal/storage/postgres"
)

// App holds the wired application dependencies.
type App struct {
	cfg          config.Config
	logger       *zap.Logger
	apiServer    *api.Server
	gcsClient    *storage.Client
	pubsubClient *pubsub.Client
	pubsubTopic  *pubsub.Topic
	pgImages     *pgstore.ImageStore
}

// Build creates the application's dependencies from configuration.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("logger init failed: %w", err)
	}
	zap.ReplaceGlobals(logger)

	app := &App{cfg: cfg, logger: logger}
	app.logger.Info("building application dependencies")

	blobStore, err := setupStorage(ctx, app)
	if err != nil {
		return nil, err
	}

	images, texts, err := setupDatabase(ctx, app)
	if err != nil {
		return nil, err
	}

	publisher, err := setupPublisher(ctx, app)
	if err != nil {
		return nil, err
	}

	orch := ingest.New(blobStore, images, publisher, system.New(), ingest.Config{
		Sections:       content.NewSectionSet(cfg.Sections),
		Quality:        cfg.Ingest.Quality,
		ForceTranscode: cfg.Ingest.ForceTranscode,
	}, logger.Named("ingest"))

	limiter := loginlimit.New(loginlimit.Config{
		AttemptsPerMinute: cfg.Login.AttemptsPerMinute,
		Burst:             cfg.Login.Burst,
	})

	var pinger api.Pinger
	if app.pgImages != nil {
		pinger = app.pgImages
	}

	app.apiServer = api.NewServer(
		orch,
		images,
		texts,
		publisher,
		limiter,
		pinger,
		cfg,
		logger.Named("api"),
	)

	return app, nil
}

// Run starts the HTTP server and blocks until the context is canceled or a
// termination signal arrives.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           a.apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		a.logger.Info("http server started", zap.Int("port", a.cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	a.logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server shutdown error", zap.Error(err))
	}

	return a.Close()
}

// Close releases the backing clients.
func (a *App) Close() error {
	if a.pubsubTopic != nil {
		a.pubsubTopic.Stop()
	}
	if a.pubsubClient != nil {
		if err := a.pubsubClient.Close(); err != nil {
			a.logger.Warn("pubsub client close failed", zap.Error(err))
		}
	}
	if a.gcsClient != nil {
		if err := a.gcsClient.Close(); err != nil {
			a.logger.Warn("gcs client close failed", zap.Error(err))
		}
	}
	if a.pgImages != nil {
		a.pgImages.Close()
	}
	_ = a.logger.Sync()
	a.logger.Info("shutdown complete")
	return nil
}

func setupStorage(ctx context.Context, app *App) (content.BlobStore, error) {
	switch app.cfg.Storage.Provider {
	case "gcs":
		app.logger.Info("using GCS storage provider",
			zap.String("bucket", app.cfg.Storage.Bucket))
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("gcs client init failed: %w", err)
		}
		app.gcsClient = client
		store, err := gcsstorage.New(client, gcsstorage.Config{
			Bucket:        app.cfg.Storage.Bucket,
			PublicBaseURL: app.cfg.Storage.PublicBaseURL,
		})
		if err != nil {
			return nil, fmt.Errorf("gcs blob store init failed: %w", err)
		}
		return store, nil
	default:
		app.logger.Info("using in-memory storage provider")
		return memorystorage.NewBlobStore(), nil
	}
}

func setupDatabase(ctx context.Context, app *App) (content.ImageStore, content.TextStore, error) {
	if app.cfg.DB.Provider != "postgres" {
		app.logger.Info("using in-memory metadata stores")
		return memorystorage.NewImageStore(system.New()), memorystorage.NewTextStore(), nil
	}

	pool, err := pgstore.NewPool(ctx, pgstore.Config{
		DSN:      app.cfg.DB.DSN,
		MaxConns: int32(app.cfg.DB.MaxConns),
		MinConns: int32(app.cfg.DB.MinConns),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("postgres pool init failed: %w", err)
	}
	images, err := pgstore.NewImageStore(pool)
	if err != nil {
		return nil, nil, fmt.Errorf("image store init failed: %w", err)
	}
	texts, err := pgstore.NewTextStore(pool)
	if err != nil {
		return nil, nil, fmt.Errorf("text store init failed: %w", err)
	}
	app.pgImages = images
	app.logger.Info("postgres metadata stores initialized")
	return images, texts, nil
}

func setupPublisher(ctx context.Context, app *App) (notify.Publisher, error) {
	if app.cfg.PubSub.ProjectID == "" || app.cfg.PubSub.TopicID == "" {
		app.logger.Info("no pub/sub topic configured, notifications disabled")
		return notify.NoOp{}, nil
	}
	client, err := pubsub.NewClient(ctx, app.cfg.PubSub.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("pubsub client init failed: %w", err)
	}
	app.pubsubClient = client
	app.pubsubTopic = client.Topic(app.cfg.PubSub.TopicID)
	app.logger.Info("pub/sub publisher initialized",
		zap.String("project", app.cfg.PubSub.ProjectID),
		zap.String("topic", app.cfg.PubSub.TopicID),
	)
	return pubsubnotify.New(app.pubsubTopic), nil
}
