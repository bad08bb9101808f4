package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/muness/unified-hifi-control/pkg/adapter"
	"github.com/muness/unified-hifi-control/pkg/bridge"
	"github.com/muness/unified-hifi-control/pkg/bus"
	"github.com/muness/unified-hifi-control/pkg/config"
	"github.com/muness/unified-hifi-control/pkg/control"
	"github.com/muness/unified-hifi-control/pkg/hqp"
	"github.com/muness/unified-hifi-control/pkg/httpapi"
	"github.com/muness/unified-hifi-control/pkg/lms"
	"github.com/muness/unified-hifi-control/pkg/roon"
	"github.com/muness/unified-hifi-control/pkg/upnp"
	"github.com/muness/unified-hifi-control/pkg/zone"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("Failed to load .env file")
	}

	dbPath := flag.String("db", os.Getenv("BRIDGE_DB"), "Path to configuration database (default: XDG config dir)")
	addr := flag.String("addr", envOr("BRIDGE_ADDR", ":8080"), "HTTP listen address")
	flag.Parse()

	ctx := context.Background()

	store, err := config.Open(*dbPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open configuration database")
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close configuration database")
		}
	}()

	log.Info().Str("path", store.Path()).Msg("Configuration database opened")

	if err := store.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to run configuration migrations")
	}

	needsBootstrap, err := store.NeedsBootstrap(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to check bootstrap status")
	}
	if needsBootstrap {
		log.Info().Msg("First run detected, bootstrapping configuration...")
		if err := store.Bootstrap(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to bootstrap configuration")
		}
	}

	enabled, err := store.EnabledPrefixes(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load enabled adapters")
	}
	log.Info().Strs("adapters", enabled).Msg("Enabled adapters loaded")

	b := bus.New()
	agg := zone.NewAggregator(b)
	go agg.Run()
	defer agg.Close()

	coord := adapter.NewCoordinator(b)

	coord.RegisterFactory("roon", func() adapter.AdapterLogic {
		return roon.NewAdapterLogic()
	})
	coord.RegisterFactory("upnp", func() adapter.AdapterLogic {
		return upnp.NewAdapterLogic()
	})
	coord.RegisterFactory("lms", func() adapter.AdapterLogic {
		cfg, err := store.GetAdapterConfig(ctx, "lms")
		if err != nil {
			log.Error().Err(err).Msg("lms: no connection settings configured")
			return lms.NewAdapterLogic("", 0)
		}
		return lms.NewAdapterLogic(cfg.Host, cfg.Port)
	})
	coord.RegisterFactory("hqp", func() adapter.AdapterLogic {
		cfg, err := store.GetAdapterConfig(ctx, "hqp")
		if err != nil {
			log.Error().Err(err).Msg("hqp: no connection settings configured")
			return hqp.NewAdapterLogic("")
		}
		return hqp.NewAdapterLogic(cfg.Host)
	})

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()
	coord.Start(runCtx, enabled)

	br := bridge.New(b, agg, coord)
	router := httpapi.NewRouter(br, control.NewValidator())

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info().Msg("Shutting down...")
		b.Publish(bus.ShuttingDown())
		coord.Shutdown()
		cancelRun()
		agg.Close()
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close configuration database")
		}
		os.Exit(0)
	}()

	log.Info().Str("address", *addr).Msg("Starting bridge HTTP server")
	if err := router.Run(*addr); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
