package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/examlens/internal/config"
	"github.com/abhisek/examlens/internal/logger"
	"github.com/abhisek/examlens/internal/store"
)

var (
	cfg config.Config
	log *logger.Logger
)

var rootCmd = &cobra.Command{
	Use:   "examlens",
	Short: "Photograph an exam question, find where your reasoning went wrong",
	Long: `ExamLens recognizes a photographed exam question, derives the standard
solution, draws a verified diagram, compares your reasoning against it and
generates practice questions for the weak points it finds.

Run without a subcommand to start the interactive study session.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = loaded

		mode := cfg.LogMode
		if m, _ := cmd.Flags().GetString("log-mode"); m != "" {
			mode = m
		}
		verbose, _ := cmd.Flags().GetBool("verbose")
		if log, err = logger.New(mode, verbose); err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}
		log.Debug("config loaded", "db", cfg.DBPath, "log_mode", mode)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		log.Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStudy(cmd)
	},
}

// ExecuteContext runs the root command. Cancelling ctx aborts in-flight
// gateway calls.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides EXAMLENS_DB env var)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file (overrides EXAMLENS_CONFIG env var)")
	rootCmd.PersistentFlags().String("log-mode", "", "Log encoding: dev or prod")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(studyCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(favoritesCmd)
	rootCmd.AddCommand(speakCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then the configured path (file or EXAMLENS_DB), then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if cfg.DBPath != "" {
		return cfg.DBPath, store.EnsureDir(cfg.DBPath)
	}
	return store.DefaultDBPath()
}

// openStore opens the database named by the flags and config.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

// outputDir returns --out when set, otherwise the configured output directory.
func outputDir(cmd *cobra.Command) string {
	if d, _ := cmd.Flags().GetString("out"); d != "" {
		return d
	}
	if cfg.OutputDir != "" {
		return cfg.OutputDir
	}
	return "."
}
