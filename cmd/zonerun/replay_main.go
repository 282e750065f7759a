package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/zonerun/internal/application"
	"github.com/sawpanic/zonerun/internal/config"
	"github.com/sawpanic/zonerun/internal/data"
	"github.com/sawpanic/zonerun/internal/domain/zone"
)

func newReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay a bar CSV through the zone engine",
		Long: `Replays a captured bar file through the engine one bar at a time and
writes lifecycle events as JSON lines to stdout, followed by the final
ranked snapshot.`,
		RunE: runReplay,
	}
	cmd.Flags().String("input", "", "Bar CSV file (required)")
	cmd.Flags().Float64("rate", 0, "Bars per second (0 = unpaced)")
	cmd.Flags().Bool("quiet", false, "Suppress per-event output, print only the final snapshot")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func runReplay(cmd *cobra.Command, _ []string) error {
	cfgPath, _ := cmd.Flags().GetString("config")
	input, _ := cmd.Flags().GetString("input")
	pace, _ := cmd.Flags().GetFloat64("rate")
	quiet, _ := cmd.Flags().GetBool("quiet")

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
	log.Info().Str("input", input).Int("bars", len(bars)).Msg("replay starting")

	opts := []application.Option{application.WithPacing(pace)}
	if !quiet {
		opts = append(opts, application.WithEventSink(stdoutEventSink{}))
	}
	runner := application.NewRunner(cfg.Symbol, engine, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runner.Run(ctx, bars); err != nil {
		return err
	}

	if snap := runner.LatestSnapshot(); snap != nil {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snap); err != nil {
			return fmt.Errorf("encode final snapshot: %w", err)
		}
	}
	return nil
}

// stdoutEventSink prints each lifecycle event as one JSON line.
type stdoutEventSink struct{}

func (stdoutEventSink) PublishEvents(_ context.Context, _ string, events []zone.Event) error {
	enc := json.NewEncoder(os.Stdout)
	for _, ev := range events {
		if err := enc.Encode(ev); err != nil {
			return err
		}
	}
	return nil
}
