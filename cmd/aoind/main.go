package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/jchantrell/aoind/internal/config"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

var (
	cfg     *config.Config
	cfgFile string

	indexDir     string
	graphicsDir  string
	dbPath       string
	headSystem   string
	helmetSystem string
	workers      int
	logLevel     string
	logFormat    string
	noProgress   bool
)

var rootCmd = &cobra.Command{
	Use:   "aoind",
	Short: "Legacy .ind index codec and sprite sheet segmentation tool",
	Long: `aoind reads and writes the binary .ind asset index files of a legacy 2D
game client (graphics, heads, helmets, bodies, shields, weapons, effects),
detecting their header and record layout automatically, and cuts sprite
sheets into individual frames.

Decoded records and segmentation runs can be stored in a local SQLite
catalog and queried afterwards.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		flags := cmd.Flags()
		if flags.Changed("index-dir") {
			cfg.IndexDir = indexDir
		}
		if flags.Changed("graphics-dir") {
			cfg.GraphicsDir = graphicsDir
		}
		if flags.Changed("database") {
			cfg.Database = dbPath
		}
		if flags.Changed("head-system") {
			cfg.HeadSystem = headSystem
		}
		if flags.Changed("helmet-system") {
			cfg.HelmetSystem = helmetSystem
		}
		if flags.Changed("workers") {
			cfg.Workers = workers
		}
		if flags.Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		if flags.Changed("log-format") {
			cfg.LogFormat = logFormat
		}

		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid flags: %w", err)
		}

		var level slog.Level
		switch cfg.LogLevel {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		default:
			level = slog.LevelInfo
		}

		var handler slog.Handler
		if cfg.LogFormat == "json" {
			handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
				Level: level,
			})
		} else {
			handler = tint.NewHandler(os.Stderr, &tint.Options{
				Level: level,
			})
		}

		slog.SetDefault(slog.New(handler))

		slog.Debug("Configuration",
			"index_dir", cfg.IndexDir,
			"graphics_dir", cfg.GraphicsDir,
			"database", cfg.Database,
			"head_system", cfg.HeadSystem,
			"helmet_system", cfg.HelmetSystem,
			"workers", cfg.Workers,
			"detection", cfg.Detection)

		return nil
	},
}

// progressEnabled reports whether progress bars may be drawn alongside logs
func progressEnabled() bool {
	return !(noProgress || cfg.LogFormat == "json" || cfg.LogLevel == "debug")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is aoind.yaml in $HOME or pwd)")
	rootCmd.PersistentFlags().StringVarP(&indexDir, "index-dir", "i", "", "directory holding the client .ind files")
	rootCmd.PersistentFlags().StringVar(&graphicsDir, "graphics-dir", "", "directory holding the client sprite sheets")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "database", "d", "", "catalog database file path")
	rootCmd.PersistentFlags().StringVar(&headSystem, "head-system", "", "record shape of the heads index (directional, mold)")
	rootCmd.PersistentFlags().StringVar(&helmetSystem, "helmet-system", "", "record shape of the helmets index (directional, mold)")
	rootCmd.PersistentFlags().IntVarP(&workers, "workers", "w", 0, "number of files processed concurrently")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text, json)")
	rootCmd.PersistentFlags().BoolVar(&noProgress, "no-progress", false, "disable progress bar")
}
