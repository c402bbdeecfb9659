// Command vcstore runs the content-addressed version-control file store.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/FotoVerite/protohack/internal/config"
	"github.com/FotoVerite/protohack/internal/logging"
	"github.com/FotoVerite/protohack/internal/metrics"
	"github.com/FotoVerite/protohack/internal/netsrv"
	"github.com/FotoVerite/protohack/internal/ratelimit"
	"github.com/FotoVerite/protohack/internal/resourceguard"
	"github.com/FotoVerite/protohack/internal/vcstore"
)

type appConfig struct {
	config.Base
}

func main() {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		panic(err)
	}
	if err := cfg.Base.Validate(); err != nil {
		panic(err)
	}

	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}, "vcstore")

	guard := resourceguard.New(cfg.CPURejectThreshold)
	limiter := ratelimit.New(ratelimit.Config{
		IPBurst:     cfg.ConnRateLimitIPBurst,
		IPRate:      cfg.ConnRateLimitIPRate,
		GlobalBurst: cfg.ConnRateLimitGlobalBurst,
		GlobalRate:  cfg.ConnRateLimitGlobalRate,
	})

	guardCtx, guardCancel := context.WithCancel(context.Background())
	defer guardCancel()
	go guard.Run(guardCtx, 2*time.Second)

	go func() {
		if err := metrics.Serve(cfg.MetricsAddr); err != nil {
			logger.Error().Err(err).Msg("metrics server exited")
		}
	}()

	store := vcstore.New()
	srv := netsrv.New(netsrv.Options{
		Name:        "vcstore",
		Logger:      logger,
		Guard:       guard,
		RateLimiter: limiter,
	}, cfg.MaxConnections, vcstore.Handler(logger, store))

	go func() {
		if err := srv.ListenAndServe(cfg.Addr); err != nil {
			logger.Fatal().Err(err).Msg("server exited")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info().Msg("shutting down")
	srv.Shutdown()
}
