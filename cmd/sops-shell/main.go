package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/schaermu/sops-shell/internal/config"
	"github.com/schaermu/sops-shell/internal/discover"
	"github.com/schaermu/sops-shell/internal/failure"
	"github.com/schaermu/sops-shell/internal/logging"
	"github.com/schaermu/sops-shell/internal/shell"
	"github.com/schaermu/sops-shell/internal/sops"
	"github.com/schaermu/sops-shell/internal/sync"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	// Set by goreleaser
	version = "dev"
	commit  = "none"
	date    = "unknown"

	// Global flags
	cfgFile   string
	logLevel  string
	logFormat string
	dryRun    bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "sops-shell",
	Short: "Sync secrets from shell commands to SOPS encrypted files",
	Long: `sops-shell keeps values inside SOPS encrypted files in sync with the output
of shell commands. Annotate a key with a comment directly above it:

  # shell: aws sts get-session-token --query Credentials.SessionToken --output text
  aws_session_token: ...

Directories are searched for .yaml, .yml, .json, .env and .ini files.
Every run decrypts the file, runs each command and writes back the keys whose
stored value differs from the command output.`,
	SilenceUsage: true,
}

var syncCmd = &cobra.Command{
	Use:   "sync <files...>",
	Short: "Update secrets whose value differs from their command output",
	Long: `Sync decrypts each file, runs the command bound to every annotated key and
writes back the secrets that are out of sync using sops --set.

Failures of single files or keys are reported and skipped; the exit status is
non-zero only when a named file does not exist.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSync,
}

var checkCmd = &cobra.Command{
	Use:   "check <files...>",
	Short: "Report secrets whose value differs from their command output",
	Long: `Check runs the same workflow as sync but never writes to the files. It reports
how many secrets are out of sync.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "sops-shell %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/sops-shell/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")

	// Sync command flags
	syncCmd.Flags().BoolVar(&dryRun, "dry-run", false, "report out of sync secrets without writing them (same as check)")

	// Add commands
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(versionCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	return runFiles(cmd, args, dryRun)
}

func runCheck(cmd *cobra.Command, args []string) error {
	return runFiles(cmd, args, true)
}

// runFiles validates the arguments and drives one sync or check run
func runFiles(cmd *cobra.Command, args []string, dryRun bool) error {
	if err := checkFiles(args); err != nil {
		return err
	}

	files, err := discover.Expand(args)
	if err != nil {
		return fmt.Errorf("failed to expand arguments: %w", err)
	}

	ctx, cancel := setupSignalHandler()
	defer cancel()

	ctx = logging.WithRunID(ctx, uuid.NewString())

	// Setup logger
	logger := setupLogger()

	// Load configuration
	cfg, err := loadConfig(logger)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	interactive := term.IsTerminal(int(os.Stdin.Fd()))

	// Create dependencies
	sopsClient := sops.NewShellClient(cfg.Sops.Binary, cfg.Sops.Args)
	runner := shell.NewShellRunner(
		shell.WithShell(cfg.Shell.Path),
		shell.WithEnv(cfg.Shell.Env),
	)

	engine := sync.NewEngine(cfg, sopsClient, runner, logger, dryRun)

	logger.InfoContext(ctx, "starting sync operation", "files", len(files), "dry_run", dryRun)
	summary := engine.Run(ctx, files)

	printSummary(cmd.OutOrStdout(), summary, args)

	reportWarnings(ctx, logger, summary, interactive)

	return nil
}

// reportWarnings logs how many problems of each kind the run reported. Failed
// commands without a terminal on stdin get a hint, as they may have tried to
// prompt.
func reportWarnings(ctx context.Context, logger *slog.Logger, summary *sync.Summary, interactive bool) {
	var agg *failure.Aggregate
	if !errors.As(summary.Err(), &agg) {
		return
	}

	counts := agg.CountByKind()
	attrs := []any{"count", len(agg.Errors())}
	for kind := failure.FileNotFound; kind <= failure.Encoding; kind++ {
		if n := counts[kind]; n > 0 {
			attrs = append(attrs, strings.ReplaceAll(kind.String(), " ", "_"), n)
		}
	}
	logger.WarnContext(ctx, "completed with warnings", attrs...)

	if failed := counts[failure.CommandExecution]; failed > 0 && !interactive {
		logger.WarnContext(ctx, "stdin is not a terminal, commands that prompt for input cannot succeed", "failed_commands", failed)
	}
}

// checkFiles fails on the first path that does not exist
func checkFiles(files []string) error {
	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return failure.Errorf(failure.FileNotFound, "file not found: %s", file)
			}
			return fmt.Errorf("failed to stat %s: %w", file, err)
		}
	}
	return nil
}

// printSummary writes the end-of-run report
func printSummary(w io.Writer, summary *sync.Summary, files []string) {
	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 60))
	fmt.Fprintln(w, "Summary:")

	if summary.DryRun {
		fmt.Fprintf(w, "  Files checked: %d\n", summary.Files)
		fmt.Fprintf(w, "  Secrets checked: %d\n", summary.Secrets)
		fmt.Fprintf(w, "  Secrets out of sync: %d\n", summary.Updates)

		if summary.Updates > 0 {
			fmt.Fprintf(w, "\nRun 'sops-shell sync %s' to update\n", strings.Join(files, " "))
		}
		return
	}

	fmt.Fprintf(w, "  Files processed: %d\n", summary.Files)
	fmt.Fprintf(w, "  Secrets checked: %d\n", summary.Secrets)
	fmt.Fprintf(w, "  Secrets updated: %d\n", summary.Updates)
}

func setupLogger() *slog.Logger {
	// Parse log level
	var level slog.Level
	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	// Create handler based on format
	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}

	if logFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(logging.NewCorrelationHandler(handler))
}

func loadConfig(logger *slog.Logger) (*config.Config, error) {
	// An explicit path must exist; the default one is optional
	configPath := cfgFile
	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		configPath = filepath.Join(home, ".config", "sops-shell", "config.yaml")

		if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
			logger.Debug("no configuration file, using defaults", "path", configPath)
			return config.Default(), nil
		}
	}

	logger.Debug("loading configuration", "path", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger.Debug("configuration loaded",
		"sops_binary", cfg.Sops.Binary,
		"shell", cfg.Shell.Path,
		"prescan_lines", cfg.Sync.PrescanLines)

	return cfg, nil
}

func setupSignalHandler() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		cancel()
	}()

	return ctx, cancel
}
