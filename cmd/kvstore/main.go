// Command kvstore runs the UDP key/value store.
package main

import (
	"os"
	"os/signal"
	"syscall"

	_ "go.uber.org/automaxprocs"

	"github.com/FotoVerite/protohack/internal/config"
	"github.com/FotoVerite/protohack/internal/kvstore"
	"github.com/FotoVerite/protohack/internal/logging"
	"github.com/FotoVerite/protohack/internal/metrics"
	"github.com/FotoVerite/protohack/internal/netsrv"
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

	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}, "kvstore")

	go func() {
		if err := metrics.Serve(cfg.MetricsAddr); err != nil {
			logger.Error().Err(err).Msg("metrics server exited")
		}
	}()

	store := kvstore.New()
	srv := &netsrv.UDPServer{
		Name:    "kvstore",
		Logger:  logger,
		Handler: kvstore.Handler(logger, store),
	}

	go func() {
		if err := srv.ListenAndServe(cfg.Addr); err != nil {
			logger.Fatal().Err(err).Msg("server exited")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info().Msg("shutting down")
	srv.Close()
}
