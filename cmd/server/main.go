package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/good-yellow-bee/logpulse/internal/alerting"
	"github.com/good-yellow-bee/logpulse/internal/api"
	"github.com/good-yellow-bee/logpulse/internal/api/health"
	"github.com/good-yellow-bee/logpulse/internal/api/stream"
	"github.com/good-yellow-bee/logpulse/internal/hub"
	"github.com/good-yellow-bee/logpulse/internal/ingest"
	"github.com/good-yellow-bee/logpulse/internal/metrics"
	"github.com/good-yellow-bee/logpulse/internal/notifier"
	"github.com/good-yellow-bee/logpulse/internal/retention"
	"github.com/good-yellow-bee/logpulse/internal/storage"
	"github.com/good-yellow-bee/logpulse/pkg/config"
)

var (
	configFile  string
	httpAddr    string
	metricsAddr string
	logLevel    string
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "logpulse-server",
	Short: "LogPulse Server - log ingestion, alerting and live streaming",
	Long: `LogPulse Server accepts structured log records over HTTP or from
followed files, evaluates alert rules against them and pushes new logs
and alerts to dashboard clients over WebSocket or SSE.`,
	SilenceUsage: true,
	RunE:         runServer,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(config.VersionString("logpulse-server"))
	},
}

var checkRulesCmd = &cobra.Command{
	Use:   "check-rules <file>",
	Short: "Validate an alert rules file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rules, err := alerting.LoadRulesFromFile(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d rule(s) OK\n", args[0], len(rules))
		for _, r := range rules {
			fmt.Fprintf(cmd.OutOrStdout(), "  %-24s %s window=%s\n", r.Name, r.Type, r.Window)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (optional)")
	rootCmd.Flags().StringVarP(&httpAddr, "address", "a", "", "HTTP API listen address")
	rootCmd.Flags().StringVar(&metricsAddr, "metrics-address", "", "Prometheus metrics listen address")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log every HTTP request")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(checkRulesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// CLI flags win over file and environment.
	flags := cmd.Flags()
	if flags.Changed("address") {
		cfg.Server.HTTPAddress = httpAddr
	}
	if flags.Changed("metrics-address") {
		cfg.Server.MetricsAddress = metricsAddr
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("verbose") {
		cfg.Server.Verbose = verbose
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	info := config.GetBuildInfo()
	metrics.SetBuildInfo(info.Version, info.Commit, info.BuildTime)

	logger.WithFields(logrus.Fields{
		"version": info.Version,
		"commit":  info.Commit,
	}).Info("starting logpulse server")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := build(cfg, logger)
	if err != nil {
		return err
	}
	defer app.close()

	err = app.run(ctx)
	logger.Info("server stopped")
	return err
}

func newLogger(cfg LogConfig) (*logrus.Logger, error) {
	logger := logrus.New()
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	logger.SetLevel(level)
	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger, nil
}

// app holds every long-running component of the server.
type app struct {
	cfg    *Config
	logger *logrus.Logger

	store       *storage.MemoryLogStore
	preferences storage.PreferenceStore
	hub         *hub.Hub
	evaluator   *alerting.Evaluator
	pipeline    *ingest.Pipeline
	dispatcher  *notifier.Dispatcher
	sweeper     *retention.Sweeper
	api         *api.Server
	metrics     *metrics.Server
	sources     []*ingest.FileSource
	watcher     *alerting.RuleWatcher
}

func build(cfg *Config, logger *logrus.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	a.store = storage.NewMemoryLogStore(cfg.Storage.MaxRecords)
	bookmarks := storage.NewMemoryBookmarkStore()
	history := alerting.NewHistory(cfg.Alerting.MaxAlerts)

	prefs, err := openPreferences(cfg.Preferences)
	if err != nil {
		return nil, err
	}
	a.preferences = prefs

	a.hub = hub.New(func() any { return history.List() }, logger)
	a.hub.OnDrop = func(_ *hub.Subscriber, ev hub.Event) {
		metrics.EventsDroppedTotal.WithLabelValues(ev.Type).Inc()
	}

	a.dispatcher = notifier.NewDispatcher(notifier.Options{MaxPerMinute: cfg.Notify.MaxPerMinute}, logger)
	if err := registerNotifiers(a.dispatcher, cfg.Notify); err != nil {
		a.close()
		return nil, err
	}
	var alertNotifier ingest.AlertNotifier
	if a.dispatcher.Len() > 0 {
		alertNotifier = a.dispatcher
	}

	rules := alerting.DefaultRules()
	if cfg.Alerting.RulesFile != "" {
		rules, err = alerting.LoadRulesFromFile(cfg.Alerting.RulesFile)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("load alert rules: %w", err)
		}
	}

	sink := ingest.NewAlertSink(history, a.hub, alertNotifier, logger)
	a.evaluator = alerting.NewEvaluator(a.store, rules, sink, logger)
	a.pipeline = ingest.NewPipeline(a.store, a.hub, a.evaluator,
		ingest.Options{EvaluateInterval: cfg.Alerting.EvaluateInterval}, logger)

	a.sweeper = retention.NewSweeper(a.store, cfg.Storage.Retention, cfg.Storage.SweepInterval, logger)
	a.sweeper.OnSweep = func(evicted int) {
		metrics.StoreEvictedTotal.Add(float64(evicted))
		metrics.StoreRecords.Set(float64(a.store.Len()))
	}

	streamOpts := stream.DefaultOptions()
	streamOpts.Buffer = cfg.Hub.SubscriberBuffer
	streamOpts.MaxDuration = cfg.Server.StreamMaxDuration

	a.api, err = api.New(&api.Config{
		Address:         cfg.Server.HTTPAddress,
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		IngestRateLimit: cfg.Ingest.RateLimit,
		IngestBurst:     cfg.Ingest.Burst,
		MaxBodyBytes:    cfg.Ingest.MaxBodyBytes,
		Stream:          streamOpts,
		Version:         config.Version,
		Verbose:         cfg.Server.Verbose,
	}, api.Deps{
		Logs:        a.store,
		Bookmarks:   bookmarks,
		Preferences: prefs,
		Ingester:    a.pipeline,
		Alerts:      history,
		Hub:         a.hub,
	}, logger)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("create API server: %w", err)
	}
	a.api.RegisterHealthChecker(health.NewPreferenceStoreChecker(prefs))
	a.api.RegisterHealthChecker(health.NewLogStoreChecker(a.store, cfg.Storage.MaxRecords))

	if cfg.Server.MetricsAddress != "" {
		a.metrics = metrics.NewServer(cfg.Server.MetricsAddress, logger)
	}

	sourceOpts := ingest.DefaultFileSourceOptions()
	sourceOpts.FromStart = cfg.Ingest.FromStart
	for _, path := range cfg.Ingest.Files {
		a.sources = append(a.sources, ingest.NewFileSource(path, a.pipeline, sourceOpts, logger))
	}

	if cfg.Alerting.RulesFile != "" && cfg.Alerting.WatchRules {
		a.watcher, err = alerting.NewRuleWatcher(cfg.Alerting.RulesFile, a.evaluator, logger)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("watch alert rules: %w", err)
		}
	}

	return a, nil
}

func openPreferences(cfg PreferencesConfig) (storage.PreferenceStore, error) {
	if cfg.Path == "" {
		return storage.NewMemoryPreferenceStore(), nil
	}

	if dir := filepath.Dir(cfg.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create preferences directory: %w", err)
		}
	}
	store := storage.NewSQLitePreferenceStore(cfg.Path)
	if err := store.Open(); err != nil {
		return nil, fmt.Errorf("open preferences database: %w", err)
	}
	if err := store.Migrate(); err != nil {
		store.Close()
		return nil, fmt.Errorf("migrate preferences database: %w", err)
	}
	return store, nil
}

func registerNotifiers(d *notifier.Dispatcher, cfg NotifyConfig) error {
	if cfg.SlackWebhookURL != "" {
		n, err := notifier.NewSlackNotifier(notifier.SlackConfig{WebhookURL: cfg.SlackWebhookURL})
		if err != nil {
			return err
		}
		d.Register(n)
	}
	if cfg.TeamsWebhookURL != "" {
		n, err := notifier.NewTeamsNotifier(notifier.TeamsConfig{WebhookURL: cfg.TeamsWebhookURL})
		if err != nil {
			return err
		}
		d.Register(n)
	}
	if cfg.WebhookURL != "" {
		n, err := notifier.NewWebhookNotifier(notifier.WebhookConfig{URL: cfg.WebhookURL})
		if err != nil {
			return err
		}
		d.Register(n)
	}
	return nil
}

func (a *app) run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return a.api.Run(ctx) })
	if a.metrics != nil {
		g.Go(func() error { return a.metrics.Run(ctx) })
	}
	g.Go(func() error { return a.pipeline.RunEvaluator(ctx) })
	g.Go(func() error { return a.sweeper.Run(ctx) })
	if a.dispatcher.Len() > 0 {
		g.Go(func() error { return a.dispatcher.Run(ctx) })
	}
	for _, src := range a.sources {
		g.Go(func() error {
			if err := src.Run(ctx); err != nil {
				return fmt.Errorf("file source %s: %w", src.Path(), err)
			}
			return nil
		})
	}
	if a.watcher != nil {
		g.Go(func() error { return a.watcher.Run(ctx) })
	}

	a.logger.WithFields(logrus.Fields{
		"http":       a.cfg.Server.HTTPAddress,
		"metrics":    a.cfg.Server.MetricsAddress,
		"files":      len(a.sources),
		"rules":      len(a.evaluator.Rules()),
		"notifiers":  a.dispatcher.Len(),
		"max_alerts": a.cfg.Alerting.MaxAlerts,
	}).Info("logpulse server running")

	return g.Wait()
}

func (a *app) close() {
	if a.dispatcher != nil {
		if err := a.dispatcher.Close(); err != nil {
			a.logger.WithError(err).Warn("close notifiers")
		}
	}
	if a.preferences != nil {
		if err := a.preferences.Close(); err != nil {
			a.logger.WithError(err).Warn("close preferences store")
		}
	}
}
