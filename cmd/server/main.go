package main

import (
	"context"
	"fmt"

	"github.com/cliniclink/recordsync/internal/config"
	handler "github.com/cliniclink/recordsync/internal/handler/http"
	"github.com/cliniclink/recordsync/internal/logger"
	"github.com/cliniclink/recordsync/internal/server"
	"github.com/cliniclink/recordsync/internal/service"
	"github.com/cliniclink/recordsync/internal/store"
	"github.com/cliniclink/recordsync/migrations"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	log := logger.NewLogger("record-server")
	cfg, err := config.GetStructuredConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}
	if err = cfg.ValidateServer(); err != nil {
		log.Fatal().Err(err).Msg("invalid server configs")
	}

	log.Debug().Any("config", cfg).Msg("received configs")

	storages, err := buildStorages(context.Background(), cfg.Storage, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating storages")
	}

	services := service.NewServices(storages, log)
	handlers := handler.NewHandler(services, log)

	srv, err := server.NewServer(handlers, cfg.Server, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating server")
	}

	srv.RunServer()
}

// buildStorages connects PostgreSQL when a DSN is configured and falls back
// to the in-memory repository otherwise, so the server can run without a
// database for local development.
func buildStorages(ctx context.Context, cfg config.Storage, log *logger.Logger) (store.Storages, error) {
	if cfg.DB.DSN == "" {
		log.Info().Msg("no database configured, using in-memory record repository")
		return store.Storages{RecordRepository: store.NewMemoryRecordRepository()}, nil
	}

	db, err := store.NewConnectPostgres(ctx, cfg.DB, log)
	if err != nil {
		return store.Storages{}, err
	}

	if err = migrations.Migrate(db.DB); err != nil {
		return store.Storages{}, err
	}

	return store.NewStorages(db), nil
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}

	if buildDate == "" {
		buildDate = "N/A"
	}

	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
