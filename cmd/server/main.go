package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/aws/aws-sdk-go-v2/aws"

	"tfbridge/internal/awsfacade"
	"tfbridge/internal/dispatch"
	"tfbridge/internal/envelope"
	"tfbridge/internal/ledger"
	"tfbridge/internal/notify"
	"tfbridge/internal/orchestrator"
	"tfbridge/internal/platform/config"
	"tfbridge/internal/platform/httpserver"
	"tfbridge/internal/platform/logger"
	"tfbridge/internal/platform/metrics"
	platformredis "tfbridge/internal/platform/redis"
	httptransport "tfbridge/internal/transport/http"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	log := logger.New()
	if err := run(log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	awsCfg, err := awsfacade.LoadConfig(ctx)
	if err != nil {
		return err
	}

	m := metrics.New()

	broker := awsfacade.NewSTSBroker(awsCfg)
	hubAccount, err := broker.CallerAccountID(ctx)
	if err != nil {
		return err
	}

	records, closeStore, err := newLedgerStore(ctx, cfg, awsCfg)
	if err != nil {
		return err
	}
	defer closeStore()

	poster := notify.NewPoster(log, notify.WithMetrics(m))
	dispatcher := dispatch.New(
		awsfacade.NewFleet(awsCfg),
		awsfacade.NewCommander(awsCfg),
		records,
		poster,
		dispatch.Config{
			ServerTagKey:        cfg.ServerTagKey,
			ServerTagValue:      cfg.ServerTagValue,
			CommandOutputBucket: cfg.CommandOutputBucket,
		},
		dispatch.WithLogger(log),
		dispatch.WithMetrics(m),
	)
	orch := orchestrator.New(
		envelope.NewVerifier(envelope.NewHTTPCertFetcher()),
		broker,
		awsfacade.NewStackProber(awsCfg),
		dispatcher,
		poster,
		orchestrator.Config{
			ArtifactBucket: cfg.ArtifactBucket,
			ExternalID:     awsfacade.ExternalID(hubAccount),
		},
		orchestrator.WithLogger(log),
		orchestrator.WithMetrics(m),
	)

	handler := httptransport.NewHandler(orch, log)
	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(handler, promhttp.Handler()))

	log.Info("starting tfbridge server", "addr", cfg.Addr, "hub_account", hubAccount,
		"ledger_backend", cfg.LedgerBackend)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// newLedgerStore builds the configured ledger backend and returns a close
// function for whatever connection it holds.
func newLedgerStore(ctx context.Context, cfg config.Server, awsCfg aws.Config) (ledger.Store, func(), error) {
	noop := func() {}
	switch cfg.LedgerBackend {
	case config.LedgerBackendS3:
		return ledger.NewS3Store(awsCfg, cfg.CommandRecordBucket), noop, nil
	case config.LedgerBackendPostgres:
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		store := ledger.NewPostgres(db)
		if err := store.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return store, func() { _ = db.Close() }, nil
	case config.LedgerBackendRedis:
		client, err := platformredis.New(cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return ledger.NewRedis(client.Client), func() { _ = client.Close() }, nil
	case config.LedgerBackendMemory:
		return ledger.NewInMemory(), noop, nil
	default:
		return nil, nil, errors.New("unknown ledger backend " + cfg.LedgerBackend)
	}
}
