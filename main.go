package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"

	"github.com/Billy-Davies-2/draft-board-planner/internal/clickhouse"
	"github.com/Billy-Davies-2/draft-board-planner/internal/config"
	"github.com/Billy-Davies-2/draft-board-planner/internal/dal"
	grpcserver "github.com/Billy-Davies-2/draft-board-planner/internal/grpc"
	"github.com/Billy-Davies-2/draft-board-planner/internal/handlers"
	"github.com/Billy-Davies-2/draft-board-planner/internal/logger"
	"github.com/Billy-Davies-2/draft-board-planner/internal/mocks"
	"github.com/Billy-Davies-2/draft-board-planner/internal/models"
	"github.com/Billy-Davies-2/draft-board-planner/internal/pubsub"
)

// analytics records board snapshots (ClickHouse in production, a mock in development)
type analytics interface {
	EnsureSchema(ctx context.Context) error
	RecordSnapshot(ctx context.Context, sessionID string, state *models.BoardState) error
	StatusCounts(ctx context.Context, sessionID string) (map[models.Status]int, error)
	Close() error
}

// upstream is a NATS-backed event bus
type upstream interface {
	pubsub.Upstream
	Close()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.InitWith(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	logger.Info("Starting draft board planner", "environment", cfg.Environment, "session", cfg.SessionID)

	dataStore, err := openStore(cfg)
	if err != nil {
		logger.Error("Failed to initialize data store", "error", err, "driver", cfg.DBDriver)
		log.Fatalf("Failed to initialize data store: %v", err)
	}
	defer dataStore.Close()

	bus, err := openBus(cfg)
	if err != nil {
		logger.Error("Failed to initialize NATS", "error", err)
		log.Fatalf("Failed to initialize NATS: %v", err)
	}
	defer bus.Close()
	ps := pubsub.NewWithUpstream(bus)

	stats, err := openAnalytics(cfg)
	if err != nil {
		logger.Error("Failed to initialize ClickHouse", "error", err, "address", cfg.ClickHouseAddr)
		log.Fatalf("Failed to initialize ClickHouse: %v", err)
	}
	defer stats.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go snapshotLoop(ctx, cfg, dataStore, stats)

	// gRPC server
	grpcServer := grpc.NewServer()
	grpcserver.RegisterBoardServiceServer(grpcServer, grpcserver.NewServer(dataStore, ps))
	go func() {
		lis, err := net.Listen("tcp", "0.0.0.0:"+cfg.GRPCPort)
		if err != nil {
			logger.Error("Failed to listen for gRPC", "error", err, "port", cfg.GRPCPort)
			log.Fatalf("Failed to listen for gRPC: %v", err)
		}
		logger.Info("gRPC server starting", "address", lis.Addr().String())
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("Failed to serve gRPC", "error", err)
		}
	}()

	// HTTP routes
	mux := http.NewServeMux()
	handlers.NewAPIHandlers(dataStore, ps).Register(mux)
	handlers.NewHealthHandlers(dataStore, handlers.Check{
		Name:     "clickhouse",
		Critical: !cfg.Development(),
		Probe: func(ctx context.Context) error {
			_, err := stats.StatusCounts(ctx, cfg.SessionID)
			return err
		},
	}).Register(mux)

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("Server starting", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown incomplete", "error", err)
	}
	grpcServer.GracefulStop()
}

func openStore(cfg *config.Config) (dal.BoardDAL, error) {
	switch cfg.DBDriver {
	case config.DriverSQLite:
		d, err := dal.NewSQLiteDAL(cfg.SQLiteFile, cfg.SessionID, cfg.DefaultCategories)
		if err != nil {
			return nil, err
		}
		logger.Info("Connected to SQLite database", "file", cfg.SQLiteFile)
		return d, nil
	case config.DriverPostgres:
		if cfg.DatabaseURL == "" {
			// Development without a server
			d, err := mocks.NewMockPostgresDAL(cfg.SQLiteFile, cfg.SessionID, cfg.DefaultCategories)
			if err != nil {
				return nil, err
			}
			return d, nil
		}
		d, err := dal.NewPostgresDAL(cfg.DatabaseURL, cfg.SessionID, cfg.DefaultCategories)
		if err != nil {
			return nil, err
		}
		logger.Info("Connected to Postgres database")
		return d, nil
	default:
		logger.Info("Using in-memory data store")
		return dal.NewMemoryDAL(cfg.DefaultCategories), nil
	}
}

// openBus uses embedded NATS in development and real NATS JetStream in production
func openBus(cfg *config.Config) (upstream, error) {
	if !cfg.Development() {
		logger.Info("Using real NATS JetStream for production")
		bus, err := pubsub.NewNATSPubSub(cfg.NATSURL, cfg.NATSSubject)
		if err != nil {
			return nil, err
		}
		logger.Info("Connected to NATS", "url", cfg.NATSURL)
		return bus, nil
	}

	logger.Info("Starting embedded NATS server for local development")
	opts := pubsub.DefaultEmbeddedNATSOptions()
	opts.Subject = cfg.NATSSubject
	embedded, err := pubsub.NewEmbeddedNATSPubSub(opts)
	if err != nil {
		logger.Warn("Embedded NATS unavailable, falling back to in-process mock", "error", err)
		return pubsub.NewMockNATSPubSub(cfg.NATSSubject, 1000), nil
	}
	logger.Info("Embedded NATS server ready", "url", embedded.ServerURL())
	return embedded, nil
}

func openAnalytics(cfg *config.Config) (analytics, error) {
	if cfg.Development() {
		return mocks.NewMockAnalytics(), nil
	}

	client, err := clickhouse.NewClient(cfg.ClickHouseAddr, cfg.ClickHouseDB, cfg.ClickHouseUser, cfg.ClickHousePassword)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := client.EnsureSchema(ctx); err != nil {
		client.Close()
		return nil, err
	}
	logger.Info("Connected to ClickHouse", "address", cfg.ClickHouseAddr, "database", cfg.ClickHouseDB)
	return client, nil
}

// snapshotLoop records the boards every SNAPSHOT_INTERVAL until ctx is done
func snapshotLoop(ctx context.Context, cfg *config.Config, d dal.BoardDAL, stats analytics) {
	ticker := time.NewTicker(cfg.SnapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			recordSnapshot(ctx, cfg.SessionID, d, stats)
		}
	}
}

func recordSnapshot(ctx context.Context, sessionID string, d dal.BoardDAL, stats analytics) {
	state, err := d.GetState()
	if err != nil {
		logger.Error("Failed to read boards for snapshot", "error", err)
		return
	}
	if err := stats.RecordSnapshot(ctx, sessionID, state); err != nil {
		logger.Error("Failed to record board snapshot", "error", err)
		return
	}
	counts, err := stats.StatusCounts(ctx, sessionID)
	if err != nil {
		logger.Warn("Failed to read snapshot counts", "error", err)
		return
	}
	logger.Debug("Board snapshot recorded", "counts", counts)
}
