package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pfrederiksen/ultra-entrants/internal/config"
	"github.com/pfrederiksen/ultra-entrants/internal/logger"
	"github.com/pfrederiksen/ultra-entrants/internal/notifier"
	"github.com/pfrederiksen/ultra-entrants/internal/scraper"
	"github.com/pfrederiksen/ultra-entrants/internal/storage"
)

const (
	ExitSuccess = 0
	ExitError   = 1
	ExitChanges = 2
)

// exitCodeError carries a non-error exit status out of a command
type exitCodeError struct {
	code int
}

func (e *exitCodeError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// app holds state shared by every command in one invocation
type app struct {
	configPath  string
	dataDir     string
	format      string
	metricsFile string
	verbose     bool

	cfg     *config.Config
	store   *storage.Storage
	scraper *scraper.Scraper
	runID   string

	stdout io.Writer
	stderr io.Writer
	now    func() time.Time
}

// newRootCmd creates the root command
func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ultra-entrants",
		Short: "Track ultramarathon entrant lists and rank returning veterans",
		Long: `A CLI tool to track ultramarathon entrant lists across runs.
Records who joined and who dropped on every run, and cross-references the
current roster against historical results to rank returning veterans.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to a YAML config file (default $ULTRA_CONFIG)")
	cmd.PersistentFlags().StringVar(&a.dataDir, "data-dir", "", "Data directory for snapshots and change logs (overrides config)")
	cmd.PersistentFlags().StringVar(&a.format, "format", "text", "Output format: text or json")
	cmd.PersistentFlags().StringVar(&a.metricsFile, "metrics-file", "", "Write run metrics in Prometheus text format to this file")
	cmd.PersistentFlags().BoolVar(&a.verbose, "verbose", false, "Enable debug logging")

	cmd.AddCommand(
		a.newTrackCmd(),
		a.newTrackAllCmd(),
		a.newChangedCmd(),
		a.newVeteransCmd(),
		a.newAnalyzeCmd(),
		a.newArchiveStatsCmd(),
		a.newImportResultsCmd(),
	)

	return cmd
}

// setup loads configuration and wires logging and storage for a command
func (a *app) setup(cmd *cobra.Command, args []string) error {
	format := OutputFormat(strings.ToLower(a.format))
	if format != FormatText && format != FormatJSON {
		return fmt.Errorf("invalid format: %s (must be 'text' or 'json')", a.format)
	}
	a.format = string(format)

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if a.dataDir != "" {
		cfg.DataDir = a.dataDir
	}
	a.cfg = cfg

	level := logger.ParseLevel(cfg.LogLevel)
	if a.verbose {
		level = logger.LevelDebug
	}
	a.runID = uuid.NewString()
	logger.SetDefault(logger.New(level, a.stderr).With(logger.Fields{"run_id": a.runID}))

	store, err := storage.New(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}
	a.store = store
	a.scraper = scraper.New(cfg.UserAgent)

	logger.Debug("Configured run", logger.Fields{
		"command":  cmd.Name(),
		"data_dir": store.DataDir(),
		"events":   len(cfg.Events),
	})
	return nil
}

// outputFormat returns the validated output format
func (a *app) outputFormat() OutputFormat {
	return OutputFormat(a.format)
}

// newNotifier builds the configured notifier; nil means notifications are off
func (a *app) newNotifier() (notifier.Notifier, error) {
	switch a.cfg.Notifier {
	case "dryrun":
		return notifier.NewDryRunNotifier(a.stderr), nil
	case "twitter":
		return notifier.NewTwitterNotifier(notifier.TwitterCredentialsFromEnv())
	default:
		return nil, nil
	}
}

// reportMetrics logs the run's metrics at debug level and dumps them when
// --metrics-file is set
func (a *app) reportMetrics() {
	if a.verbose {
		logger.Debug("Run metrics", logger.Fields{"metrics": logger.GetMetricsSnapshot()})
	}
	if a.metricsFile == "" {
		return
	}
	if err := logger.WriteMetricsTextfile(a.metricsFile); err != nil {
		logger.Error("Failed to write metrics", logger.Fields{"path": a.metricsFile}, err)
	}
}

// Run executes the CLI with args and returns the process exit code
func Run(args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr, now: time.Now}
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	a.reportMetrics()

	var exit *exitCodeError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &exit):
		return exit.code
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitError
	}
}

// Execute runs the CLI
func Execute() {
	os.Exit(Run(os.Args[1:], os.Stdout, os.Stderr))
}
