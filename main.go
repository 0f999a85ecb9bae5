package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/nixxel-company-limited/receipt-printer-bridge/bridge"
	"github.com/nixxel-company-limited/receipt-printer-bridge/config"
	"github.com/nixxel-company-limited/receipt-printer-bridge/logging"
	"github.com/nixxel-company-limited/receipt-printer-bridge/platform"
	"github.com/nixxel-company-limited/receipt-printer-bridge/server"
)

func main() {
	configPath := flag.String("config", "", "optional config file (yaml, json, toml)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLogger := logging.New(logging.Config{App: "receipt-printer-bridge"})
		bootLogger.Fatal().Err(err).Msg("invalid configuration")
	}

	logger := logging.New(logging.Config{
		App:    "receipt-printer-bridge",
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	if err := run(cfg, logger); err != nil {
		logger.Error().Err(err).Msg("bridge stopped with error")
		os.Exit(1)
	}
}

func run(cfg config.Config, logger zerolog.Logger) error {
	host := platform.NewHost(platform.HostConfig{
		RFCOMMChannel: uint8(cfg.BluetoothChannel),
		BaudRate:      cfg.BluetoothBaudRate,
		SerialPorts:   cfg.BluetoothSerialPorts,
	}, logger)

	b := bridge.New(host, logger)
	defer b.Close()

	errc := make(chan error, 1)

	var raw *server.Server
	if cfg.ServerAddress != "" {
		raw = server.New(b, cfg.ServerAddress, logger)
		if err := raw.StartAsync(); err != nil {
			return err
		}
		defer raw.Stop()
	}

	var api *server.API
	if cfg.APIAddress != "" {
		api = server.NewAPI(b, server.APIConfig{
			Address:        cfg.APIAddress,
			AllowedOrigins: cfg.AllowedOrigins,
		}, logger)
		go func() {
			errc <- api.ListenAndServe()
		}()
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigc)

	var err error
	select {
	case sig := <-sigc:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	case err = <-errc:
	}

	if api != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := api.Shutdown(ctx); shutdownErr != nil {
			logger.Warn().Err(shutdownErr).Msg("HTTP API shutdown")
		}
	}
	return err
}
