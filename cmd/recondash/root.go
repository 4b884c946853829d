package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/recondash/recondash/internal/auth"
	"github.com/recondash/recondash/internal/config"
	"github.com/recondash/recondash/internal/scheduler"
	"github.com/recondash/recondash/internal/storage"
	"github.com/recondash/recondash/internal/update"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configPath string
	authURL    string
	auditDB    string
	logFile    string
	verbose    bool

	cfg    config.RuntimeConfig
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "recondash",
	Short: "Terminal dashboard for the reconciliation platform",
	Long: `recondash signs in against the reconciliation platform's auth service
(password plus a six-digit MFA code) and opens the operations dashboard:
matching, settlement, GL posting, approvals, reports and the audit log.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("auth-url") {
			cfg.AuthBaseURL = authURL
		}
		if cmd.Flags().Changed("db") {
			cfg.AuditDBPath = auditDB
		}
		if cmd.Flags().Changed("log-file") {
			cfg.LogPath = logFile
		}
		logger, err = newLogger(cfg.LogPath, verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDashboard()
	},
}

// newLogger writes JSON logs to path; the terminal belongs to the UI, so an
// empty path disables logging.
func newLogger(path string, verbose bool) (*zap.Logger, error) {
	if path == "" {
		return zap.NewNop(), nil
	}
	zcfg := zap.NewProductionConfig()
	zcfg.OutputPaths = []string{path}
	zcfg.ErrorOutputPaths = []string{path}
	if verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return zcfg.Build()
}

func runDashboard() error {
	deps := update.Deps{
		Auth:   auth.NewHTTPClient(cfg.AuthBaseURL, cfg.RequestTimeout, auth.WithLogger(logger.Named("auth"))),
		Logger: logger,
		Config: cfg,
	}

	if cfg.AuditDBPath != "" {
		repo, err := storage.OpenSQLite(cfg.AuditDBPath)
		if err != nil {
			return fmt.Errorf("open audit log: %w", err)
		}
		defer repo.Close()
		deps.Audit = repo
	} else {
		logger.Info("audit log disabled")
	}

	engine := scheduler.NewEngine(cfg.SchedulerBuffer)
	engine.Start()
	defer func() {
		engine.Stop()
		if dropped := engine.Dropped(); dropped > 0 {
			logger.Warn("scheduler dropped events", zap.Uint64("dropped", dropped))
		}
	}()
	deps.Scheduler = engine

	logger.Info("starting dashboard", zap.String("auth_url", cfg.AuthBaseURL))
	program := tea.NewProgram(update.NewModelWithDeps(deps), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("recondash failed: %w", err)
	}
	return nil
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "recondash.yaml", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&authURL, "auth-url", "", "auth service base URL")
	rootCmd.PersistentFlags().StringVar(&auditDB, "db", "", "audit log SQLite path; empty disables the audit log")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "log file path; empty disables logging")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}
