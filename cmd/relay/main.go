package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"tfbridge/internal/awsfacade"
	"tfbridge/internal/notify"
	"tfbridge/internal/platform/config"
	"tfbridge/internal/platform/httpserver"
	"tfbridge/internal/platform/logger"
	"tfbridge/internal/platform/metrics"
	"tfbridge/internal/relay"
	httptransport "tfbridge/internal/transport/http"
)

// main runs the spoke-side relay: a small HTTP server that forwards lifecycle
// events to the hub topic under this account's identity.
func main() {
	log := logger.New()
	if err := run(log); err != nil {
		log.Error("relay exited", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.RelayFromEnv()
	if err != nil {
		return err
	}
	awsCfg, err := awsfacade.LoadConfig(ctx)
	if err != nil {
		return err
	}

	accountID, err := awsfacade.NewSTSBroker(awsCfg).CallerAccountID(ctx)
	if err != nil {
		return err
	}

	m := metrics.New()
	service := relay.New(
		awsfacade.NewPublisher(awsCfg, cfg.HubTopicARN),
		notify.NewPoster(log, notify.WithMetrics(m)),
		accountID,
		relay.WithLogger(log),
		relay.WithMetrics(m),
	)

	handler := httptransport.NewHandler(service, log)
	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(handler, promhttp.Handler()))

	log.Info("starting tfbridge relay", "addr", cfg.Addr, "account", accountID,
		"hub_topic", cfg.HubTopicARN)

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
