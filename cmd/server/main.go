package main

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"freightledger/internal/audit"
	"freightledger/internal/catalog"
	"freightledger/internal/escrow"
	jwttoken "freightledger/internal/jwt_token"
	"freightledger/internal/platform/config"
	"freightledger/internal/platform/httpserver"
	"freightledger/internal/platform/logger"
	"freightledger/internal/platform/metrics"
	"freightledger/internal/provenance"
	"freightledger/internal/registry"
	"freightledger/internal/shipment"
	httptransport "freightledger/internal/transport/http"
	"freightledger/internal/verification"
)

// main wires the ledger node: stores, domain services, audit pipeline, and
// the HTTP surface. Business logic lives in the internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Event journal: durable when postgres is configured, in-memory otherwise.
	var journal audit.Store
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("pgx", cfg.PostgresDSN)
		if err != nil {
			log.Error("open postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		pg := audit.NewPostgres(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Error("ensure audit schema", "error", err)
			os.Exit(1)
		}
		journal = pg
	} else {
		journal = audit.NewInMemoryStore()
	}

	publisherOpts := []audit.Option{audit.WithLogger(log)}
	group, ctx := errgroup.WithContext(ctx)
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			log.Error("connect kafka", "error", err)
			os.Exit(1)
		}
		defer kafkaSink.Close()

		queue := audit.NewQueueSink(1024)
		worker := audit.NewWorker(queue, kafkaSink)
		group.Go(func() error { return worker.Run(ctx) })
		publisherOpts = append(publisherOpts, audit.WithSink(queue))
	}
	events := audit.NewPublisher(journal, publisherOpts...)

	// Reference data and identity stores. Provisioning is out of band; the
	// dev seed makes a standalone node usable.
	warehouses := catalog.NewInMemoryWarehouseStore()
	carriers := catalog.NewInMemoryCarrierStore()
	orders := catalog.NewInMemoryOrderStore()
	if cfg.DevSeed {
		if err := catalog.LoadDevSeed(ctx, warehouses, carriers, orders); err != nil {
			log.Error("load dev seed", "error", err)
			os.Exit(1)
		}
		log.Info("dev seed loaded", "event", "dev_seed_loaded")
	}

	registryStore := registry.NewInMemoryStore()
	reg, err := registry.New(registryStore, carriers, registry.WithLogger(log))
	if err != nil {
		log.Error("build registry", "error", err)
		os.Exit(1)
	}

	sealer, err := buildSealer(cfg)
	if err != nil {
		log.Error("build sealer", "error", err)
		os.Exit(1)
	}

	engine, err := escrow.New(escrow.NewInMemoryStore(), escrow.NewLoggedTransfer(log),
		escrow.WithLogger(log),
		escrow.WithAuditPublisher(events),
		escrow.WithMetrics(m),
	)
	if err != nil {
		log.Error("build escrow engine", "error", err)
		os.Exit(1)
	}

	shipmentStore := shipment.NewInMemoryStore()
	shipments, err := shipment.New(shipmentStore, orders, catalog.NewSelector(warehouses, carriers),
		reg, sealer, engine,
		shipment.WithLogger(log),
		shipment.WithAuditPublisher(events),
		shipment.WithMetrics(m),
	)
	if err != nil {
		log.Error("build shipment service", "error", err)
		os.Exit(1)
	}

	verifications, err := verification.New(verification.NewInMemoryStore(), shipmentStore,
		registry.NewMemoryKeyring(), reg, engine,
		verification.WithLogger(log),
		verification.WithAuditPublisher(events),
		verification.WithMetrics(m),
	)
	if err != nil {
		log.Error("build verification service", "error", err)
		os.Exit(1)
	}

	products, err := provenance.New(provenance.NewInMemoryStore(), reg,
		provenance.WithLogger(log),
		provenance.WithAuditPublisher(events),
		provenance.WithMetrics(m),
	)
	if err != nil {
		log.Error("build provenance service", "error", err)
		os.Exit(1)
	}

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, "freightledger", "freightledger-api")
	handler := httptransport.NewHandler(shipments, verifications, products, engine, events, jwtService, log)
	router := httptransport.NewRouter(handler, prometheus.DefaultGatherer)

	srv := httpserver.New(cfg.Addr, router)
	group.Go(func() error {
		log.Info("server listening", "event", "server_started", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped", "event", "server_stopped")
}

// buildSealer loads the configured seal key, or generates an ephemeral one so
// dev nodes run without provisioning. Ephemeral seals cannot be opened after
// a restart.
func buildSealer(cfg config.Server) (*provenance.Sealer, error) {
	if cfg.SealPublicKey != "" {
		raw, err := base64.StdEncoding.DecodeString(cfg.SealPublicKey)
		if err != nil {
			return nil, err
		}
		return provenance.NewSealerFromBytes(raw)
	}
	public, _, err := provenance.SealScheme.GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	return provenance.NewSealer(public)
}
