package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/roadsense/autobrake/internal/config"
	"github.com/roadsense/autobrake/internal/sensors"
)

func main() {
	// Setup logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg := config.Load()

	reporter := sensors.NewHTTPReporter(cfg.ControlURL, cfg.AuthToken, cfg.Insecure)
	agent := sensors.New(reporter, cfg.AgentID, cfg.Heartbeat)

	if cfg.ScenarioPath == "" {
		log.Fatal().Msg("AUTOBRAKE_SCENARIO is required for the standalone agent")
	}
	if err := agent.LoadScenario(cfg.ScenarioPath); err != nil {
		log.Fatal().Err(err).Str("path", cfg.ScenarioPath).Msg("failed to load scenario")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.WatchScenario {
		watcher := sensors.NewWatcher(cfg.ScenarioPath, agent)
		if err := watcher.Start(ctx); err != nil {
			log.Error().Err(err).Msg("failed to start scenario watcher")
		}
	}

	go func() {
		if err := agent.Run(ctx); err != nil {
			log.Error().Err(err).Msg("agent error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down agent...")
	cancel()
	time.Sleep(1 * time.Second)
	log.Info().Msg("agent exited")
}
