package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"devicesession/backend/internal/config"
	"devicesession/backend/internal/db"
	"devicesession/backend/internal/identity/repository"
	identityservice "devicesession/backend/internal/identity/service"
	"devicesession/backend/internal/policy/engine"
	"devicesession/backend/internal/revocation"
	"devicesession/backend/internal/security"
	"devicesession/backend/internal/server"
	sessionservice "devicesession/backend/internal/session/service"
	"devicesession/backend/internal/telemetry"
	telemetryotel "devicesession/backend/internal/telemetry/otel"
	"devicesession/backend/internal/telemetry/producer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("server: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	providers, err := telemetryotel.NewProviders(ctx, cfg.OTelEndpoint, cfg.OTelServiceName, cfg.OTelInsecure)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	providers.SetGlobal()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			log.Printf("otel: shutdown: %v", err)
		}
	}()

	var (
		repo   repository.Repository
		pinger *sql.DB
	)
	if cfg.DatabaseURL != "" {
		database, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer database.Close()
		repo = repository.NewPostgresRepository(database)
		pinger = database
	} else {
		log.Println("server: DATABASE_URL not set, credentials are kept in memory")
		repo = repository.NewMemoryRepository()
	}

	codec, err := security.NewTokenCodec([]byte(cfg.SigningSecret))
	if err != nil {
		return fmt.Errorf("token codec: %w", err)
	}
	store := revocation.NewMemoryStore(cfg.RefreshTTL())
	sessions, err := sessionservice.NewManager(codec, store, cfg.AccessTTL(), cfg.RefreshTTL())
	if err != nil {
		return fmt.Errorf("session manager: %w", err)
	}

	kafka := producer.NewKafkaProducer(cfg.KafkaBrokersList(), cfg.SessionEventsTopic)
	if kafka != nil {
		log.Printf("server: publishing session events to kafka topic %s", cfg.SessionEventsTopic)
		defer func() {
			if err := kafka.Close(); err != nil {
				log.Printf("kafka: close: %v", err)
			}
		}()
	}
	var events telemetry.EventEmitter = telemetry.NewFanout(telemetryotel.NewEventEmitter(providers.LoggerProvider), kafkaEmitter(kafka))

	auth := identityservice.NewAuthService(repo, security.NewHasher(), sessions, events, cfg.MaxConcurrentHashes)

	policy, err := loadPolicy(ctx, cfg.AccessPolicyFile)
	if err != nil {
		return err
	}

	deps := server.Deps{
		Auth:                auth,
		Policy:              policy,
		Events:              events,
		HealthPolicyChecker: policy,
	}
	if pinger != nil {
		deps.HealthPinger = pinger
	}
	s := server.NewGRPCServer(deps, grpc.StatsHandler(otelgrpc.NewServerHandler()))

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		revocation.NewJanitor(store, cfg.SweepInterval()).Run(gctx)
		return nil
	})
	g.Go(func() error {
		log.Printf("gRPC server listening on %s", cfg.GRPCAddr)
		if err := s.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Println("shutting down gRPC server...")
		s.GracefulStop()
		log.Println("gRPC server stopped")
		return nil
	})
	err = g.Wait()

	drainCtx, cancel := context.WithTimeout(context.Background(), telemetry.ShutdownDrainDuration)
	defer cancel()
	if derr := telemetry.Drain(drainCtx); derr != nil {
		log.Printf("telemetry: drain: %v", derr)
	}
	return err
}

// kafkaEmitter keeps a disabled producer out of the fanout.
func kafkaEmitter(p *producer.KafkaProducer) telemetry.EventEmitter {
	if p == nil {
		return nil
	}
	return p
}

// loadPolicy compiles the access policy from path, or the built-in policy when path is empty.
func loadPolicy(ctx context.Context, path string) (*engine.OPAEvaluator, error) {
	var module string
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read access policy: %w", err)
		}
		module = string(b)
	}
	policy, err := engine.NewOPAEvaluator(ctx, module)
	if err != nil {
		return nil, err
	}
	if err := policy.HealthCheck(ctx); err != nil {
		return nil, fmt.Errorf("access policy: %w", err)
	}
	return policy, nil
}
