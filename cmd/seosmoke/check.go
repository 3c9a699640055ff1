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
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/seosmoke/internal/check"
	"github.com/nao1215/seosmoke/internal/config"
	"github.com/nao1215/seosmoke/internal/database"
	"github.com/nao1215/seosmoke/internal/fetch"
	"github.com/nao1215/seosmoke/internal/log"
	"github.com/nao1215/seosmoke/internal/model"
	"github.com/nao1215/seosmoke/internal/pipeline"
	"github.com/nao1215/seosmoke/internal/report"
)

// errChecksFailed is returned when at least one URL failed a check or
// could not be fetched. It makes the process exit with status 1.
var errChecksFailed = errors.New("SEO checks failed")

// NewCheckCmd creates the check command.
func NewCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [url...]",
		Short: "Run SEO smoke checks against one or more URLs",
		Long: `Check fetches each URL with a Googlebot user agent and verifies:

- the page has a non-empty <title>
- the first <h1> is non-empty
- <meta name="description"> has content
- <link rel="canonical"> equals the checked URL exactly
- <meta name="robots"> is not "noindex"

With --extended, the X-Robots-Tag response header and the site's robots.txt
are checked as well.

The command exits with status 1 when any check fails or a page cannot be
fetched, so it can gate a deployment.

Examples:
  # Check a single page
  seosmoke check --url=https://example.com/

  # Check several pages, four at a time
  seosmoke check --url=https://example.com/ --url=https://example.com/about

  # Positional arguments work too
  seosmoke check https://example.com/ https://example.com/pricing

  # Include header and robots.txt checks, write Markdown to a file
  seosmoke check --extended -m -o report.md https://example.com/

  # Keep the run for 'seosmoke compare'
  seosmoke check --save https://example.com/

Configuration file (.seosmoke) example:
  defaults:
    extended: true
  sites:
    staging.example.com:
      cookie: "session=abc123"
      headers:
        Authorization: "Basic dXNlcjpwYXNz"`,
		Args: cobra.ArbitraryArgs,
		RunE: runCheckCmd,
	}

	cmd.Flags().StringArray("url", nil,
		"URL to check (repeatable)")

	// Request flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each request")
	cmd.Flags().StringP("user-agent", "u", config.DefaultUserAgent,
		"User-Agent header sent with every request")
	cmd.Flags().StringP("proxy", "x", "",
		"Route requests through a SOCKS5 proxy (host:port)")

	// Check flags
	cmd.Flags().BoolP("extended", "e", false,
		"Also check the X-Robots-Tag header and robots.txt")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of URLs checked concurrently")

	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .seosmoke in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().String("log-format", config.LogFormatText,
		"Log format on stderr: text or json")
	cmd.Flags().Bool("save", false,
		"Store results in the history database for 'seosmoke compare'")

	return cmd
}

// runCheckCmd executes the check command.
func runCheckCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(os.Stderr, cfg.Verbose, cfg.LogFormat)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return runCheck(ctx, cfg, cmd.OutOrStdout(), logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	urls, err := cmd.Flags().GetStringArray("url")
	if err != nil {
		return nil, err
	}
	cfg.Targets = append(append([]string{}, urls...), args...)

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.UserAgent, err = cmd.Flags().GetString("user-agent")
	if err != nil {
		return nil, err
	}

	cfg.ProxyAddress, err = cmd.Flags().GetString("proxy")
	if err != nil {
		return nil, err
	}

	cfg.Extended, err = cmd.Flags().GetBool("extended")
	if err != nil {
		return nil, err
	}

	cfg.BatchSize, err = cmd.Flags().GetInt("batch")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// An explicitly given config file must exist; the default locations
	// are optional.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	default:
		cfg.SiteConfigs = &config.File{
			Sites: make(map[string]config.SiteConfig),
		}
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	save, err := cmd.Flags().GetBool("save")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = save || cfg.SiteConfigs.History
	cfg.DBDir = config.XDGDataDir()

	cfg.Verbose = getVerboseFlag(cmd)

	cfg.LogFormat, err = cmd.Flags().GetString("log-format")
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// setupLogger creates a structured logger that masks cookies and
// credentials. format is config.LogFormatText or config.LogFormatJSON.
func setupLogger(w io.Writer, verbose bool, format string) *slog.Logger {
	if format == config.LogFormatJSON {
		return log.NewSecureJSONLogger(w, verbose)
	}
	return log.NewSecureLogger(w, verbose)
}

// runCheck checks every target in cfg and writes one report per target to
// stdout, or to cfg.ReportFile when set. Reports are written as they
// complete.
func runCheck(ctx context.Context, cfg *config.Config, stdout io.Writer, logger *slog.Logger) error {
	if len(cfg.Targets) == 0 {
		return config.ErrNoTarget
	}

	logger.Info("starting check",
		"urls", cfg.Targets,
		"extended", cfg.Extended,
		"batchSize", cfg.BatchSize,
		"saveToDB", cfg.SaveToDB,
	)

	// Clients are built up front so a bad proxy address fails before any
	// request is sent.
	clients, err := newClients(cfg, logger)
	if err != nil {
		return err
	}

	var db *database.HistoryDB
	if cfg.SaveToDB {
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "path", db.Path())
	}

	writer, closeOutput, err := newReportWriter(cfg, stdout)
	if err != nil {
		return err
	}
	defer closeOutput()

	bp := pipeline.NewBatchProcessor(
		func(target string) *pipeline.Pipeline {
			return createPipelineForTarget(cfg, target, clients[target], logger)
		},
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	var (
		mu     sync.Mutex
		failed int
	)
	err = bp.ProcessBatchWithCallback(ctx, cfg.Targets, func(r *model.Report, _ int) {
		mu.Lock()
		defer mu.Unlock()

		if r.Summary().Failed > 0 {
			failed++
		}

		if _, err := writer.Write(r); err != nil {
			logger.Error("report failed", "url", r.URL, "error", err)
		}

		if err := saveReport(ctx, db, r, logger); err != nil {
			logger.Error("failed to save report", "url", r.URL, "error", err)
		}
	})
	if err != nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d URL(s)", errChecksFailed, failed, len(cfg.Targets))
	}
	return nil
}

// newClients builds one fetch client per distinct target, applying the
// site settings from the config file.
func newClients(cfg *config.Config, logger *slog.Logger) (map[string]*fetch.Client, error) {
	clients := make(map[string]*fetch.Client, len(cfg.Targets))
	for _, target := range cfg.Targets {
		if _, ok := clients[target]; ok {
			continue
		}
		client, err := newClient(cfg, cfg.SiteConfigs.GetSiteConfig(target), logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP client: %w", err)
		}
		logger.Debug("fetch client ready",
			"url", target,
			"user_agent", client.UserAgent(),
			"proxy", client.ProxyAddress(),
		)
		clients[target] = client
	}
	return clients, nil
}

// newClient creates a fetch client. Site settings override the global ones.
func newClient(cfg *config.Config, site config.SiteConfig, logger *slog.Logger) (*fetch.Client, error) {
	userAgent := cfg.UserAgent
	if site.UserAgent != "" {
		userAgent = site.UserAgent
	}

	opts := []fetch.Option{
		fetch.WithUserAgent(userAgent),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
		fetch.WithLogger(logger),
	}
	if site.Cookie != "" {
		opts = append(opts, fetch.WithCookie(site.Cookie))
	}
	if len(site.Headers) > 0 {
		opts = append(opts, fetch.WithHeaders(site.Headers))
	}

	return fetch.NewClient(cfg.Timeout, cfg.ProxyAddress, opts...)
}

// createPipelineForTarget creates the check pipeline for one URL.
func createPipelineForTarget(cfg *config.Config, target string, client *fetch.Client, logger *slog.Logger) *pipeline.Pipeline {
	checks := check.Defaults()
	site := cfg.SiteConfigs.GetSiteConfig(target)
	if cfg.Extended || site.Extended {
		checks = append(checks, check.Extended(client)...)
	}

	p := pipeline.NewCheckPipeline(client, checks,
		pipeline.WithLogger(logger),
		pipeline.WithContinueOnError(true),
	)
	logger.Debug("pipeline created", "url", target, "steps", p.StepNames())
	return p
}

// newReportWriter returns the writer for the requested format.
//
// With --output the selected format goes to the file and the human-readable
// report still goes to stdout. The returned close function must be called
// when all reports are written.
func newReportWriter(cfg *config.Config, stdout io.Writer) (report.Writer, func(), error) {
	if cfg.ReportFile == "" {
		return formatWriter(cfg, stdout), func() {}, nil
	}

	dir := filepath.Dir(cfg.ReportFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}

	w := report.NewMultiWriter(
		formatWriter(cfg, f),
		report.NewSimpleWriter(stdout, report.WithVerbose(cfg.Verbose)),
	)
	return w, func() { _ = f.Close() }, nil //nolint:errcheck // Best effort close
}

func formatWriter(cfg *config.Config, w io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewJSONWriter(w, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(w)
	default:
		return report.NewSimpleWriter(w, report.WithVerbose(cfg.Verbose))
	}
}

// saveReport stores the report in the history database.
// If db is nil, this function is a no-op.
func saveReport(ctx context.Context, db *database.HistoryDB, r *model.Report, logger *slog.Logger) error {
	if db == nil {
		return nil
	}

	previous, err := db.GetLatestReport(ctx, r.URL)
	if err != nil {
		return err
	}
	if previous != nil && previous.Fingerprint != "" && r.Fingerprint != "" &&
		previous.Fingerprint != r.Fingerprint {
		logger.Info("page content changed since last run",
			"url", r.URL,
			"previous", previous.DateChecked,
		)
	}

	id, err := db.SaveReport(ctx, r)
	if err != nil {
		return err
	}

	logger.Info("report saved to database", "url", r.URL, "id", id)
	return nil
}
