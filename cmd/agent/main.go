package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cliniclink/recordsync/internal/adapter"
	"github.com/cliniclink/recordsync/internal/config"
	"github.com/cliniclink/recordsync/internal/engine"
	"github.com/cliniclink/recordsync/internal/logger"
	"github.com/cliniclink/recordsync/internal/monitor"
	"github.com/cliniclink/recordsync/internal/store"
	"github.com/cliniclink/recordsync/models"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	log := logger.NewLogger("record-agent")
	cfg, err := config.GetStructuredConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}
	if err = cfg.ValidateAgent(); err != nil {
		log.Fatal().Err(err).Msg("invalid agent configs")
	}

	log.Debug().Any("config", cfg).Msg("received configs")

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
		syscall.SIGQUIT,
	)
	defer stop()

	backend, err := buildBackend(ctx, cfg.Storage.Local, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating local backend")
	}

	collection := cfg.Sync.Collection
	snapshots := store.NewStore[json.RawMessage](backend, collection, log)

	source, err := adapter.NewHTTPRecordSource[json.RawMessage](cfg.Remote, collection, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating remote source")
	}

	probe := monitor.NewHTTPProbe(cfg.Remote.BaseURL, cfg.Remote.RequestTimeout)
	mon := monitor.NewMonitor(probe, cfg.Monitor.ProbeInterval, cfg.Monitor.Grace, log)

	eng := engine.NewEngine(snapshots, source, source, mon, log, engine.Options[json.RawMessage]{
		Strategy: models.Strategy(cfg.Sync.Strategy),
		MaxAge:   cfg.Sync.MaxAge,
		IDOf:     payloadID,
		Metrics:  engine.NewMetrics(prometheus.DefaultRegisterer, collection),
	})
	records := engine.NewCollection(collection, eng)

	records.Subscribe(func(update models.StatusUpdate) {
		evt := log.Info()
		if update.Err != nil {
			evt = log.Warn().Err(update.Err)
		}
		evt.Str("collection", records.Name()).
			Str("status", string(update.Status)).
			Int("pending", update.PendingCount).
			Msg("sync status changed")
	})

	mon.Start(ctx)
	defer mon.Stop()

	job := engine.NewJob(eng, log)
	job.Start(ctx, cfg.Sync.Interval)
	defer job.Stop()

	<-ctx.Done()
	log.Info().Msg("agent shutting down")
}

// payloadID reads the "id" field of an opaque record payload, so an upsert of
// a payload that names its own id edits that record instead of creating a new
// one. Payloads without an id get a generated one.
func payloadID(payload json.RawMessage) string {
	var probe struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(payload, &probe); err != nil {
		return ""
	}
	return probe.ID
}

func buildBackend(ctx context.Context, cfg config.Local, log *logger.Logger) (store.Backend, error) {
	switch cfg.Driver {
	case "", "memory":
		log.Info().Msg("using in-memory snapshot backend, cache is lost on restart")
		return store.NewMemoryBackend(), nil
	case "file":
		return store.NewFileBackend(cfg.Path)
	case "sqlite":
		return store.NewSQLiteBackend(ctx, cfg.Path, log)
	default:
		return nil, fmt.Errorf("unknown local storage driver %q", cfg.Driver)
	}
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
