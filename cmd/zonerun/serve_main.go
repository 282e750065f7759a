package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/zonerun/internal/application"
	"github.com/sawpanic/zonerun/internal/config"
	"github.com/sawpanic/zonerun/internal/data"
	"github.com/sawpanic/zonerun/internal/domain/zone"
	"github.com/sawpanic/zonerun/internal/infrastructure/cache"
	zonehttp "github.com/sawpanic/zonerun/internal/interfaces/http"
	"github.com/sawpanic/zonerun/internal/metrics"
	"github.com/sawpanic/zonerun/internal/persistence"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the engine with the HTTP surface attached",
		Long: `Feeds a bar stream through the engine while serving the read-only HTTP
surface: GET /zones (latest ranked snapshot), GET /health, GET /metrics and
a websocket event stream at /ws/events. Redis caching and Postgres event
journaling activate when configured.`,
		RunE: runServe,
	}
	cmd.Flags().String("input", "", "Bar CSV file to stream (required)")
	cmd.Flags().Float64("rate", 1, "Bars per second (0 = unpaced)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfgPath, _ := cmd.Flags().GetString("config")
	input, _ := cmd.Flags().GetString("input")
	pace, _ := cmd.Flags().GetFloat64("rate")

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	engine, err := zone.NewEngine(cfg.EngineConfig())
	if err != nil {
		return err
	}
	bars, err := data.LoadBars(input)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mets := metrics.New()
	hub := zonehttp.NewEventHub()
	defer hub.Close()

	opts := []application.Option{
		application.WithPacing(pace),
		application.WithMetrics(mets),
		application.WithEventSink(application.HubSink{Hub: hub}),
	}

	if cfg.Redis.Addr != "" {
		snapCache, err := cache.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			time.Duration(cfg.Redis.TTLSec)*time.Second)
		if err != nil {
			return err
		}
		defer snapCache.Close()
		opts = append(opts, application.WithSnapshotSink(application.CacheSink{Cache: snapCache}))
		log.Info().Str("addr", cfg.Redis.Addr).Msg("snapshot cache enabled")
	}

	if cfg.Postgres.DSN != "" {
		journal, err := persistence.Open(cfg.Postgres.DSN, 5*time.Second)
		if err != nil {
			return err
		}
		defer journal.Close()
		opts = append(opts, application.WithEventSink(application.JournalSink{Journal: journal}))
		log.Info().Msg("event journal enabled")
	}

	runner := application.NewRunner(cfg.Symbol, engine, opts...)

	server := zonehttp.NewServer(zonehttp.DefaultServerConfig(cfg.HTTP.Listen), zonehttp.Deps{
		Snapshots:      runner,
		Hub:            hub,
		MetricsHandler: mets.Handler(),
	})

	serverErr := make(chan error, 1)
	go func() { serverErr <- server.Start(ctx) }()

	if err := runner.Run(ctx, bars); err != nil && ctx.Err() == nil {
		stop()
		<-serverErr
		return err
	}

	log.Info().Msg("stream finished, serving until interrupted")
	<-ctx.Done()
	return <-serverErr
}
