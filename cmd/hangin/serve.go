package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"hang-in-there/internal/api"
	"hang-in-there/internal/cms"
	"hang-in-there/internal/db"
	"hang-in-there/internal/event"
	"hang-in-there/internal/ingest"
	"hang-in-there/internal/metrics"
	"hang-in-there/internal/story"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the story API (and the CMS mirror when SYNC_ENABLED is set)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(parent context.Context) error {
	// Root context cancelled on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, logger := a.cfg, a.logger

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	client := a.cmsClient(cms.WithObserver(m))
	defer client.Close()

	var mongoClient *mongo.Client
	if cfg.SyncEnabled {
		var err error
		mongoClient, err = a.startMirror(ctx, client)
		if err != nil {
			return err
		}
	}

	srv, err := api.Start(cfg.HTTPAddr, api.NewRouter(client, m, reg, logger.Named("http")), logger)
	if err != nil {
		stop()
		disconnect(mongoClient, logger)
		return err
	}

	logger.Info("service started", zap.Bool("sync_enabled", cfg.SyncEnabled))

	// Block until we receive a signal / ctx cancelled, or the server dies
	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, shutting down...")
	case serveErr = <-srv.Err():
		logger.Error("HTTP server stopped, shutting down...", zap.Error(serveErr))
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	disconnect(mongoClient, logger)

	logger.Info("shutdown complete")
	return serveErr
}

func disconnect(mongoClient *mongo.Client, logger *zap.Logger) {
	if mongoClient == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := mongoClient.Disconnect(ctx); err != nil {
		logger.Error("mongo disconnect error", zap.Error(err))
	}
}

// startMirror connects the mirror database and starts the poller and the
// change stream publisher. Both stop when ctx is cancelled.
func (a *app) startMirror(ctx context.Context, client *cms.Client) (*mongo.Client, error) {
	cfg, logger := a.cfg, a.logger

	mongoClient, err := db.ConnectMongo(ctx, cfg.MongoURI)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to db: %w", err)
	}
	database := mongoClient.Database(cfg.MongoDBName)

	repo, err := story.NewMongoStoryRepository(database, logger.Named("repository"))
	if err != nil {
		_ = mongoClient.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to init repository: %w", err)
	}
	logger.Info("story repository initialised")

	publisher, err := event.NewRabbitPublisher(cfg.RabbitURI, cfg.RabbitExchange, cfg.RabbitRoutingKey, logger.Named("publisher"))
	if err != nil {
		_ = mongoClient.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to init rabbit publisher: %w", err)
	}

	ingestService := ingest.NewService(repo, client, cfg.PageSize, cfg.MaxPages, cfg.MaxPolls, logger.Named("ingest"))
	eventsService := event.NewService(database.Collection(story.CollectionName), publisher, logger.Named("events"))

	go ingestService.StartPolling(ctx, cfg.PollInterval)
	go func() {
		defer publisher.Close()
		eventsService.Run(ctx)
	}()

	return mongoClient, nil
}
