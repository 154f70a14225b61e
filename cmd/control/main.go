package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/roadsense/autobrake/internal/actuator"
	"github.com/roadsense/autobrake/internal/api"
	"github.com/roadsense/autobrake/internal/brake"
	"github.com/roadsense/autobrake/internal/config"
	"github.com/roadsense/autobrake/internal/control"
	"github.com/roadsense/autobrake/internal/models"
	"github.com/roadsense/autobrake/internal/sensors"
	"github.com/roadsense/autobrake/internal/store"
	"github.com/roadsense/autobrake/internal/stream"
	"github.com/roadsense/autobrake/internal/telemetry"
	"github.com/roadsense/autobrake/internal/tlsutil"
)

func main() {
	// Setup logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg := config.Load()

	// Init DB
	db, err := store.New(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init database")
	}
	defer db.Close()

	// Init bus and controller
	dispatcher := control.NewDispatcher()
	controller := brake.New(dispatcher)

	// Init brake actuator
	brakes := actuator.NewSim()
	defer brakes.Close()

	// Init live stream hub
	hub := stream.NewHub()
	go hub.Run()
	defer hub.Close()

	// Status cache feeds /api/status and the live stream
	cache := control.NewStatusCache(cfg.AgentID, controller, hub)
	cache.Attach(dispatcher)

	telemetry.Attach(dispatcher, controller)

	// Every published command is persisted and applied to the brakes
	dispatcher.SubscribeBrakeCommands(func(cmd models.BrakeCommand) {
		if _, err := db.InsertCommand(context.Background(), cfg.AgentID, cmd); err != nil {
			log.Error().Err(err).Msg("failed to persist brake command")
		}
		if err := brakes.Apply(context.Background(), cmd); err != nil {
			log.Error().Err(err).Msg("failed to apply brake command")
		}
	})

	// Init embedded sensor agent
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if !cfg.DisableAgent {
		agent := sensors.New(sensors.NewBusReporter(dispatcher), cfg.AgentID, cfg.Heartbeat)
		if cfg.ScenarioPath != "" {
			if err := agent.LoadScenario(cfg.ScenarioPath); err != nil {
				log.Fatal().Err(err).Str("path", cfg.ScenarioPath).Msg("failed to load scenario")
			}
			if cfg.WatchScenario {
				watcher := sensors.NewWatcher(cfg.ScenarioPath, agent)
				if err := watcher.Start(ctx); err != nil {
					log.Error().Err(err).Msg("failed to start scenario watcher")
				}
			}
		}
		go func() {
			if err := agent.Run(ctx); err != nil {
				log.Error().Err(err).Msg("agent run error")
			}
		}()
	} else {
		log.Info().Msg("embedded sensor agent disabled by configuration")
	}

	// Init API server
	srv := api.NewServer(cfg, db, cache, controller, dispatcher, brakes, hub)

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: srv,
	}

	go func() {
		if cfg.TLSAuto {
			if cfg.TLSCert == "" {
				cfg.TLSCert = "cert.pem"
			}
			if cfg.TLSKey == "" {
				cfg.TLSKey = "key.pem"
			}

			if _, err := os.Stat(cfg.TLSCert); os.IsNotExist(err) {
				log.Info().Msg("generating self-signed certificates")
				if err := tlsutil.GenerateSelfSignedCert(cfg.TLSCert, cfg.TLSKey, cfg.TLSSANs); err != nil {
					log.Fatal().Err(err).Msg("failed to generate certificates")
				}
			}
		}

		if cfg.TLSCert != "" && cfg.TLSKey != "" {
			log.Info().Str("port", cfg.Port).Str("cert", cfg.TLSCert).Msg("starting control server (HTTPS)")
			if err := httpServer.ListenAndServeTLS(cfg.TLSCert, cfg.TLSKey); err != nil && err != http.ErrServerClosed {
				log.Fatal().Err(err).Msg("server error")
			}
		} else {
			log.Info().Str("port", cfg.Port).Msg("starting control server (HTTP)")
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatal().Err(err).Msg("server error")
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited")
}
