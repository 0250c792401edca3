package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"batch-image-processor/internal/action"
	"batch-image-processor/internal/batch"
	"batch-image-processor/internal/config"
	"batch-image-processor/internal/logger"
	"batch-image-processor/internal/report"
	"batch-image-processor/internal/web"
)

var (
	cfgFile     string
	verbose     bool
	quiet       bool
	headless    bool
	dirs        []string
	exts        []string
	actionIDs   []string
	reportFile  string
	noReport    bool
	workers     int
	failOnError bool
	host        string
	port        int
)

// errFailures is returned by a headless run with --fail-on-error when any
// action failed.
var errFailures = errors.New("one or more actions failed")

// rootCmd is the base command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "batch-image-processor",
	Short: "Run validation and optimization actions over directories of images",
	Long: `Batch Image Processor walks a list of directories, runs a set of image
actions on every file with a matching extension and writes an XML report of
every verdict.

Built-in actions:
- compress_png: losslessly re-encode PNGs and report the bytes saved
- check_power_of_2: verify both dimensions are powers of two
- verify_pbr_values: check metal masks in *_mra.png textures are pure black or white
- check_stripped_metadata: flag JPEGs that still carry identifying EXIF fields

With --headless the batch runs immediately and prints progress to the console.
Without it the interactive web interface is started.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if !cfg.Headless {
			return runServe(cfg)
		}
		return runBatch(cmd.Context(), cfg)
	},
}

// actionsCmd lists the registered actions.
var actionsCmd = &cobra.Command{
	Use:   "actions",
	Short: "List available image actions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runListActions()
	},
}

// serveCmd starts the web interface server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start web interface server",
	Long: `Starts a web server for running batches interactively. The interface
allows you to:
- Toggle which actions run
- Start and stop batches
- Monitor progress in real-time over a WebSocket
- Download the XML report of the last run

Access the interface at http://localhost:<port> (default: 8080)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return runServe(cfg)
	},
}

// reportCmd prints the failures recorded in a saved report.
var reportCmd = &cobra.Command{
	Use:   "report <file>",
	Short: "Show the failures recorded in a saved report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runShowReport(args[0])
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "suppress non-error output")
	rootCmd.PersistentFlags().StringSliceVar(&dirs, "dirs", nil, "comma-separated directories to process")
	rootCmd.PersistentFlags().StringSliceVar(&exts, "exts", nil, "comma-separated file extensions to process")
	rootCmd.PersistentFlags().StringSliceVar(&actionIDs, "actions", nil, "comma-separated action names (default: the default-enabled actions)")
	rootCmd.PersistentFlags().StringVar(&reportFile, "logfile", "", "path of the XML report")
	rootCmd.PersistentFlags().BoolVar(&noReport, "no-report", false, "do not write the XML report")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0, "number of files processed in parallel")

	rootCmd.Flags().BoolVar(&headless, "headless", false, "run the batch immediately without the web interface")
	rootCmd.Flags().BoolVar(&failOnError, "fail-on-error", false, "exit non-zero when any action fails")

	serveCmd.Flags().StringVar(&host, "host", "", "address to bind the web server to")
	serveCmd.Flags().IntVar(&port, "port", 0, "port to run web server on")

	rootCmd.AddCommand(actionsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(reportCmd)
}

// loadConfig loads configuration and applies CLI overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("headless") {
		cfg.Headless = headless
	}
	if flags.Changed("dirs") {
		cfg.Directories = dirs
	}
	if flags.Changed("exts") {
		cfg.Extensions = exts
	}
	if flags.Changed("actions") {
		cfg.Actions = actionIDs
		cfg.ActionsSet = true
	}
	if flags.Changed("logfile") {
		cfg.Report.Path = reportFile
	}
	if noReport {
		cfg.Report.Enabled = false
	}
	if flags.Changed("workers") {
		cfg.Performance.WorkerThreads = workers
	}
	if flags.Changed("fail-on-error") {
		cfg.FailOnError = failOnError
	}
	if flags.Changed("host") {
		cfg.Web.Host = host
	}
	if flags.Changed("port") {
		cfg.Web.Port = port
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// runBatch executes one headless batch and prints the statistics summary.
func runBatch(ctx context.Context, cfg *config.Config) error {
	log := setupLogger(cfg)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine := batch.NewEngine(action.Builtin(), log)
	err := engine.Run(ctx, batch.Options{
		Directories: cfg.Directories,
		Extensions:  cfg.Extensions,
		Actions:     cfg.ActionIDs(),
		ReportPath:  cfg.Report.Path,
		SaveReport:  cfg.Report.Enabled,
		Headless:    true,
		Workers:     cfg.Performance.WorkerThreads,
	})
	if err != nil {
		return fmt.Errorf("batch failed: %w", err)
	}

	stats := engine.Statistics()
	if !quiet {
		fmt.Println("\n" + stats.GetSummary())
		fmt.Println("\n" + stats.GetActionBreakdown())
		if len(stats.Errors) > 0 {
			fmt.Println(stats.GetErrorSummary())
		}
		if engine.Report().Persist() {
			fmt.Printf("Report written to %s\n", engine.ReportPath())
		}
	}

	if cfg.FailOnError && engine.Report().FailureCount() > 0 {
		return errFailures
	}
	return nil
}

// runListActions prints every registered action.
func runListActions() error {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tTITLE\tDEFAULT\tVISIBLE")
	for _, d := range action.Builtin().Descriptors() {
		fmt.Fprintf(tw, "%s\t%s\t%t\t%t\n", d.Name, d.Title, d.DefaultEnabled, d.Visible)
	}
	return tw.Flush()
}

// runShowReport prints the failures section of a saved report.
func runShowReport(path string) error {
	if !fileExists(path) {
		return fmt.Errorf("file does not exist: %s", path)
	}

	rep, err := report.Load(path)
	if err != nil {
		return err
	}

	fmt.Printf("Run %s (completed: %t)\n", rep.RunID(), rep.Completed())
	if !rep.StartTime().IsZero() {
		fmt.Printf("Started %s, finished %s\n",
			rep.StartTime().Format(time.RFC3339), rep.EndTime().Format(time.RFC3339))
	}
	fmt.Printf("%d files, %d failing\n\n", len(rep.Files()), len(rep.FailedFiles()))

	for _, file := range rep.FailedFiles() {
		fmt.Println(file)
		for _, f := range rep.Failures(file) {
			fmt.Printf("  %s: %s\n", f.Action, f.Message)
		}
	}
	return nil
}

// runServe starts the web server and handles graceful shutdown.
func runServe(cfg *config.Config) error {
	log := setupLogger(cfg)
	server := web.NewServer(cfg, log, action.Builtin())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Start(cfg.Web.Host, cfg.Web.Port); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	fmt.Printf("Batch Image Processor web interface started\n")
	fmt.Printf("Open your browser and go to: http://%s:%d\n", cfg.Web.Host, cfg.Web.Port)
	fmt.Printf("Press Ctrl+C to stop the server\n\n")

	select {
	case err := <-errChan:
		return fmt.Errorf("server failed to start: %w", err)
	case <-sigChan:
	}
	fmt.Println("\nShutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	fmt.Println("Server stopped gracefully")
	return nil
}

// setupLogger configures and returns a logger.
func setupLogger(cfg *config.Config) *logrus.Logger {
	loggerCfg := logger.LoggerConfig{
		Level:      cfg.Logging.Level,
		FilePath:   cfg.Logging.FilePath,
		MaxSize:    cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAge:     cfg.Logging.MaxAge,
		Compress:   cfg.Logging.Compress,
		Console:    verbose && !quiet,
	}

	if verbose {
		loggerCfg.Level = "debug"
	}
	if quiet {
		loggerCfg.Level = "error"
	}

	log, err := logger.NewLogger(loggerCfg)
	if err != nil {
		log = logrus.New()
		log.SetLevel(logrus.InfoLevel)
	}

	return log
}

// fileExists returns true if the given path exists and is a file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func main() {
	rootCmd.SetArgs(rewriteLegacyArgs(os.Args[1:]))
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
