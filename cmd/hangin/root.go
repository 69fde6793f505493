package main

import (
	"fmt"

	"hang-in-there/internal/cms"
	"hang-in-there/internal/config"
	"hang-in-there/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type app struct {
	envFile string

	cfg    config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:          "hangin",
		Short:        "Hang In There story service and Strapi CMS client",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	root.AddCommand(
		newServeCmd(a),
		newStoriesCmd(a),
		newDailyCmd(a),
		newStoryCmd(a),
		newHealthCmd(a),
		newSyncCmd(a),
	)
	return root
}

func (a *app) init() error {
	cfg, err := config.Load(a.envFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(cfg.LogDevelopment)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	a.cfg = cfg
	a.logger = l
	return nil
}

func (a *app) cmsClient(opts ...cms.Option) *cms.Client {
	opts = append([]cms.Option{
		cms.WithTimeouts(a.cfg.ContentTimeout, a.cfg.HealthTimeout),
		cms.WithLogger(a.logger.Named("cms")),
	}, opts...)
	return cms.NewClient(a.cfg.StrapiURL, a.cfg.StrapiAPIToken, opts...)
}
