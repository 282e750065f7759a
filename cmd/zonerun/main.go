package main

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

const (
	appName = "ZoneRun"
	version = "v1.2.0"
)

func main() {
	// .env is optional developer convenience; missing file is fine.
	_ = godotenv.Load()

	zerolog.TimeFieldFormat = time.RFC3339
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	rootCmd := &cobra.Command{
		Use:     "zonerun",
		Short:   "Streaming support/resistance zone engine",
		Version: version,
		Long: appName + ` ingests a bar stream for a single instrument and maintains a
ranked set of support/resistance zones with statistically informed strength
scores, emitting lifecycle events for alerting and visualization layers.`,
	}

	// Accept snake_case flags from older scripts.
	rootCmd.SetGlobalNormalizationFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	rootCmd.PersistentFlags().String("config", "", "Path to YAML config file")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (trace|debug|info|warn|error)")

	rootCmd.AddCommand(newReplayCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newFetchCmd())

	cobra.OnInitialize(func() {
		level, err := zerolog.ParseLevel(mustString(rootCmd.PersistentFlags().GetString("log-level")))
		if err == nil {
			zerolog.SetGlobalLevel(level)
		}
	})

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func mustString(v string, _ error) string { return v }
