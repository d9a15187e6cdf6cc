package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	workerpool "github.com/okian/teamsite/internal/adapters/mq/worker"
	"github.com/okian/teamsite/internal/adapters/repository"
	"github.com/okian/teamsite/internal/bootstrap"
	"github.com/okian/teamsite/internal/config"
	"github.com/okian/teamsite/pkg/logger"
)

// env holds the hooks commands use to reach the outside world.
type env struct {
	loadConfig  func(ctx context.Context) (*config.Config, error)
	openStore   func(ctx context.Context, cfg *config.Config, log logger.Logger, migrate bool) (repository.Store, error)
	newImporter func(cfg *config.Config, store repository.Store, log logger.Logger) workerpool.Importer
}

func defaultEnv() *env {
	return &env{
		loadConfig: config.Load,
		openStore:  bootstrap.OpenStore,
		newImporter: func(cfg *config.Config, store repository.Store, log logger.Logger) workerpool.Importer {
			if imp := bootstrap.NewImporter(cfg, store, log); imp != nil {
				return imp
			}
			return nil
		},
	}
}

// session is what a command gets after config and store are up.
type session struct {
	cfg   *config.Config
	store repository.Store
	log   logger.Logger
}

// open loads config, sets up logging on stderr and connects to the store.
// The caller closes the store.
func (e *env) open(cmd *cobra.Command, migrate bool) (*session, error) {
	ctx := cmd.Context()
	cfg, err := e.loadConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	if err := logger.Init(logger.WithFormat("text"), logger.WithOutput(cmd.ErrOrStderr())); err != nil {
		return nil, err
	}
	level := "warn"
	if verbose {
		level = "debug"
	}
	_ = logger.SetLevelString(level)
	log := logger.Get().Named("teamsitectl")

	store, err := e.openStore(ctx, cfg, log, migrate)
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, store: store, log: log}, nil
}

func newRootCmd(e *env) *cobra.Command {
	root := &cobra.Command{
		Use:   "teamsitectl",
		Short: "Maintenance tasks for the team site",
		Long: `teamsitectl works on the same database as the server and reads the same
configuration (.env, TEAMSITE_CONFIG, TEAMSITE_* variables).`,
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newMigrateCmd(e),
		newSyncCmd(e),
		newAchievementsCmd(e),
		newClassifyCmd(e),
	)
	return root
}
