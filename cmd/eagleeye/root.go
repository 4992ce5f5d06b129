package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/derweg/eagleeye/vehicle/config"
)

var (
	configPath string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "eagleeye",
	Short: "Obstacle-avoidance driving stack for the model vehicle",
	Long: `eagleeye drives a car-like model vehicle along a reference curve,
locating it with a StarGazer ceiling-marker beacon and steering it around
known obstacles with a short-horizon lookahead planner.`,
	PersistentPreRunE: setup,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (YAML); defaults apply when omitted")
	rootCmd.AddCommand(driveCmd, planCmd, beaconCmd)
}

// setup loads the configuration and installs the default logger before any
// subcommand runs.
func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.LoadWithDefaults(configPath)
	if err != nil {
		return err
	}

	var level slog.Level
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}
