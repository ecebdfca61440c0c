// Command regadmin runs maintenance tasks against the registration store:
// schema migration, exports, counts, deletes and admin password hashing.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"hogis-registration/config"
	"hogis-registration/internal/repository"
	"hogis-registration/pkg/database"
	applogger "hogis-registration/pkg/logger"
)

const programName = "regadmin"

var globalFlags = struct {
	configFile string
	debug      bool
}{}

// env resources shared by the store-backed commands
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *gorm.DB
	repo   *repository.Repository
}

func (e *env) close() {
	if sqlDB, _ := e.db.DB(); sqlDB != nil {
		sqlDB.Close()
	}
	_ = e.logger.Sync()
}

// openEnv loads config and connects to the database
func openEnv() (*env, error) {
	cfg, err := config.Load(globalFlags.configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if globalFlags.debug {
		cfg.Log.Level = "debug"
	}

	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}

	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return nil, err
	}

	return &env{cfg: cfg, logger: logger, db: db, repo: repository.NewRepository(db)}, nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "HOGIS registration maintenance",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().
		StringVar(&globalFlags.configFile, "config", "", "path to config file")
	rootCmd.PersistentFlags().
		BoolVarP(&globalFlags.debug, "debug", "D", false, "enable debug logging")

	rootCmd.AddCommand(migrateCommand())
	rootCmd.AddCommand(exportCommand())
	rootCmd.AddCommand(statsCommand())
	rootCmd.AddCommand(deleteCommand())
	rootCmd.AddCommand(hashPasswordCommand())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", programName, err)
		os.Exit(1)
	}
}
