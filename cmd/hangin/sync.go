package main

import (
	"context"
	"fmt"
	"time"

	"hang-in-there/internal/db"
	"hang-in-there/internal/ingest"
	"hang-in-there/internal/story"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newSyncCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Mirror published stories into MongoDB once and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, logger := a.cfg, a.logger

			mongoClient, err := db.ConnectMongo(ctx, cfg.MongoURI)
			if err != nil {
				return fmt.Errorf("failed to connect to db: %w", err)
			}
			defer func() {
				dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := mongoClient.Disconnect(dctx); err != nil {
					logger.Error("mongo disconnect error", zap.Error(err))
				}
			}()

			repo, err := story.NewMongoStoryRepository(mongoClient.Database(cfg.MongoDBName), logger.Named("repository"))
			if err != nil {
				return fmt.Errorf("failed to init repository: %w", err)
			}

			client := a.cmsClient()
			defer client.Close()

			svc := ingest.NewService(repo, client, cfg.PageSize, cfg.MaxPages, cfg.MaxPolls, logger.Named("ingest"))
			return svc.RunOnce(ctx)
		},
	}
}
