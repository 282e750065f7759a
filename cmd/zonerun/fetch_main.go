package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/zonerun/internal/data"
	"github.com/sawpanic/zonerun/internal/fetch"
)

func newFetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch historical klines into a replay CSV",
		RunE:  runFetch,
	}
	cmd.Flags().String("symbol", "BTCUSDT", "Instrument symbol")
	cmd.Flags().String("interval", "1h", "Kline interval (1m|5m|15m|1h|4h|1d)")
	cmd.Flags().Int("limit", 500, "Number of bars to fetch (max 1000)")
	cmd.Flags().String("out", "", "Output CSV path (required)")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func runFetch(cmd *cobra.Command, _ []string) error {
	symbol, _ := cmd.Flags().GetString("symbol")
	interval, _ := cmd.Flags().GetString("interval")
	limit, _ := cmd.Flags().GetInt("limit")
	out, _ := cmd.Flags().GetString("out")

	if limit < 1 || limit > 1000 {
		return fmt.Errorf("limit must be in [1, 1000], got %d", limit)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
	defer cancel()

	client := fetch.NewClient("")
	bars, err := client.Klines(ctx, symbol, interval, limit)
	if err != nil {
		return err
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create %s: %w", out, err)
	}
	defer f.Close()

	if err := data.WriteBars(f, bars); err != nil {
		return err
	}
	log.Info().Str("symbol", symbol).Str("interval", interval).Int("bars", len(bars)).Str("out", out).Msg("klines written")
	return nil
}
