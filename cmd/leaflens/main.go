// LeafLens Gateway
//
// leaflens serves the plant-monitoring sensor, plant and store collections
// from MongoDB as read-only JSON over HTTP, behind a shared-secret header.
// Rejected requests are kept in a local SQLite audit trail and can be
// announced over MQTT; per-query telemetry can be written to InfluxDB.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/leaflens-gateway/internal/api"
	"github.com/nerrad567/leaflens-gateway/internal/audit"
	"github.com/nerrad567/leaflens-gateway/internal/auth"
	"github.com/nerrad567/leaflens-gateway/internal/gateway"
	"github.com/nerrad567/leaflens-gateway/internal/infrastructure/config"
	"github.com/nerrad567/leaflens-gateway/internal/infrastructure/database"
	"github.com/nerrad567/leaflens-gateway/internal/infrastructure/influxdb"
	"github.com/nerrad567/leaflens-gateway/internal/infrastructure/logging"
	"github.com/nerrad567/leaflens-gateway/internal/infrastructure/mongodb"
	"github.com/nerrad567/leaflens-gateway/internal/infrastructure/mqtt"
	"github.com/nerrad567/leaflens-gateway/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// defaultConfigPath is read when present and LEAFLENS_CONFIG is unset.
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run wires the gateway and blocks until ctx is cancelled or a component fails.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting LeafLens gateway",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if configPath == "" {
		log.Info("configuration loaded from environment")
	} else {
		log.Info("configuration loaded", "path", configPath)
	}

	log = logging.New(cfg.Logging, version)

	metrics := api.NewMetrics()
	observers := []gateway.QueryObserver{metrics}
	components := make(map[string]api.HealthChecker)

	var publisher audit.Publisher
	if cfg.MQTT.Enabled {
		mqttClient, mqttErr := mqtt.Connect(cfg.MQTT)
		if mqttErr != nil {
			return fmt.Errorf("connecting to MQTT: %w", mqttErr)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log.Component("mqtt"))
		publisher = mqttClient
		components["mqtt"] = mqttClient
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
			"status_topic", mqttClient.Topics().SystemStatus(),
		)
	} else {
		log.Info("MQTT disabled")
	}

	if cfg.InfluxDB.Enabled {
		influxClient, influxErr := influxdb.Connect(ctx, cfg.InfluxDB)
		if influxErr != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", influxErr)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		observers = append(observers, influxClient)
		components["influxdb"] = influxClient
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	} else {
		log.Info("InfluxDB disabled")
	}

	var (
		recorder  *audit.Recorder
		failures  auth.FailureRecorder
		auditRepo audit.Repository
	)
	if cfg.Audit.Enabled {
		db, dbErr := database.Open(ctx, cfg.Database)
		if dbErr != nil {
			return fmt.Errorf("opening database: %w", dbErr)
		}
		defer func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()
		if migrateErr := db.Migrate(ctx, migrations.FS); migrateErr != nil {
			return fmt.Errorf("running migrations: %w", migrateErr)
		}
		log.Info("audit database ready", "path", db.Path())

		repo := audit.NewSQLiteRepository(db.DB)
		recorder = audit.NewRecorder(repo, publisher, log, cfg.Audit.Buffer)
		failures = recorder
		auditRepo = repo
		components["audit_db"] = db
	} else {
		log.Info("audit trail disabled")
	}

	svc, err := gateway.NewService(gateway.ServiceDeps{
		Store:     mongodb.New(cfg.MongoDB),
		Logger:    log,
		Observers: observers,
	})
	if err != nil {
		return fmt.Errorf("creating gateway service: %w", err)
	}
	log.Info("collection catalog loaded", "targets", len(svc.Catalog().Targets()))

	gate, err := auth.NewGate(cfg.Auth, log, failures)
	if err != nil {
		return fmt.Errorf("creating auth gate: %w", err)
	}

	server, err := api.New(api.Deps{
		Config:  cfg.API,
		Site:    cfg.Site,
		Logger:  log,
		Gateway: svc,
		Gate:    gate,
		Audit:   auditRepo,
		Metrics: metrics,
		Version: version,

		Components: components,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	// The recorder outlives the HTTP server so entries from requests that
	// finish during shutdown are still written.
	recorderCtx, stopRecorder := context.WithCancel(context.WithoutCancel(ctx))
	defer stopRecorder()
	if recorder != nil {
		g.Go(func() error {
			return recorder.Run(recorderCtx)
		})
	}

	if err := server.Start(gctx); err != nil {
		stopRecorder()
		_ = g.Wait() //nolint:errcheck // startup error takes precedence
		return fmt.Errorf("starting API server: %w", err)
	}
	log.Info("LeafLens gateway ready", "address", server.Addr())

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received")
		err := server.Close()
		stopRecorder()
		return err
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	if recorder != nil && recorder.Dropped() > 0 {
		log.Warn("audit entries dropped under load", "count", recorder.Dropped())
	}
	log.Info("LeafLens gateway stopped")
	return nil
}

// getConfigPath returns LEAFLENS_CONFIG, else the default path if that file
// exists, else "" to load from the environment alone.
func getConfigPath() string {
	if path := os.Getenv("LEAFLENS_CONFIG"); path != "" {
		return path
	}
	if config.FileExists(defaultConfigPath) {
		return defaultConfigPath
	}
	return ""
}
