package main

import (
	"context"
	"fmt"

	"catalog-api/internal/bootstrap"
	"catalog-api/internal/config"
	"catalog-api/internal/database"
	"catalog-api/internal/logger"
	"catalog-api/internal/repository"
	"catalog-api/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// bootDB loads config and opens the database connection
func bootDB(ctx context.Context) (*config.Config, *database.Service, *zap.Logger, error) {
	cfg := config.Load()

	log, err := logger.New(cfg.Server.Env)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	dbService, err := database.New(ctx, cfg.Database)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, dbService, log, nil
}

// catalog-api migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage database migrations",
}

// catalog-api migrate up
var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, dbService, log, err := bootDB(cmd.Context())
		if err != nil {
			return err
		}
		defer dbService.Close()
		return database.RunMigrations(dbService.DB(), log)
	},
}

// catalog-api migrate status
var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the status of each migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, dbService, _, err := bootDB(cmd.Context())
		if err != nil {
			return err
		}
		defer dbService.Close()
		return database.MigrationStatus(dbService.DB())
	},
}

// catalog-api migrate down
var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recent migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, dbService, log, err := bootDB(cmd.Context())
		if err != nil {
			return err
		}
		defer dbService.Close()
		return database.RollbackMigration(dbService.DB(), log)
	},
}

// catalog-api seed
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the admin user and default collection",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, dbService, log, err := bootDB(cmd.Context())
		if err != nil {
			return err
		}
		defer dbService.Close()

		if err := database.RunMigrations(dbService.DB(), log); err != nil {
			return err
		}
		return runSeed(cmd.Context(), cfg, dbService, log)
	},
}

func runSeed(ctx context.Context, cfg *config.Config, dbService *database.Service, log *zap.Logger) error {
	db := dbService.DB()
	seeder := bootstrap.NewSeeder(
		repository.NewUserRepository(db),
		service.NewCollectionService(repository.NewTransactor(db, log), log),
		log,
	)

	result, err := seeder.Run(ctx, cfg.Seed, cfg.JWT.Secret)
	if err != nil {
		return fmt.Errorf("seed failed: %w", err)
	}

	log.Info("Seed complete",
		zap.String("admin_id", result.AdminID.String()),
		zap.String("collection_id", result.CollectionID.String()),
	)
	if result.Token != "" && cfg.IsDevelopment() {
		fmt.Printf("Admin bearer token (24h): %s\n", result.Token)
	}
	return nil
}
