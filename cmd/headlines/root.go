package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/pders01/headlines/internal/config"
	"github.com/pders01/headlines/internal/debuglog"
	"github.com/pders01/headlines/internal/metrics"
	"github.com/pders01/headlines/internal/newsapi"
	"github.com/pders01/headlines/internal/storage"
	"github.com/pders01/headlines/internal/tui"
)

var (
	flagConfig     string
	flagDB         string
	flagLogLevel   string
	flagQuiet      bool
	flagKeyword    string
	flagCategories bool
)

var rootCmd = &cobra.Command{
	Use:   "headlines",
	Short: "Terminal news reader",
	Long: `headlines browses news by keyword or category. Articles are cached locally,
so anything seen once stays readable offline.`,
	SilenceUsage: true,
	RunE:         runTUI,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "path to database file (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error or off (overrides config)")

	rootCmd.Flags().BoolVar(&flagQuiet, "quiet", false, "skip startup banner")
	rootCmd.Flags().StringVar(&flagKeyword, "keyword", "", "initial keyword search")
	rootCmd.Flags().BoolVar(&flagCategories, "categories", false, "start on the category screen")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(statsCmd)
}

// env is everything a command needs once flags and config are resolved.
type env struct {
	cfg      *config.Config
	store    storage.ArticleStore
	client   *newsapi.Client
	registry *prometheus.Registry
	recorder *metrics.Collector
}

func (e *env) Close() {
	if e.store != nil {
		if err := e.store.Close(); err != nil {
			debuglog.Warnf("closing store: %v", err)
		}
	}
	debuglog.Close()
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if flagDB != "" {
		cfg.Database.Path = flagDB
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func setup() (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	if err := debuglog.Setup(debuglog.ParseLogLevel(cfg.Log.Level), cfg.Log.Path); err != nil {
		return nil, fmt.Errorf("setting up logging: %w", err)
	}

	store, err := storage.Open(cfg.Database.Driver, cfg.Database.Path, cfg.Database.Timeout)
	if err != nil {
		debuglog.Close()
		return nil, fmt.Errorf("opening store: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	recorder := metrics.NewCollector(reg)

	client := newsapi.NewClient(newsapi.Options{
		BaseURL:           cfg.API.BaseURL,
		APIKey:            cfg.API.Key,
		UserAgent:         cfg.API.UserAgent,
		Timeout:           cfg.API.HTTPTimeout,
		RequestsPerMinute: cfg.API.RequestsPerMinute,
		Metrics:           recorder,
	})

	if cfg.API.Key == "" {
		debuglog.Warnf("no API key configured; only cached articles will be shown")
	}

	return &env{cfg: cfg, store: store, client: client, registry: reg, recorder: recorder}, nil
}

// serveMetrics exposes the registry on cfg.Metrics.Listen until ctx ends.
// It does nothing when no address is configured.
func serveMetrics(ctx context.Context, e *env) {
	addr := e.cfg.Metrics.Listen
	if addr == "" {
		return
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           metrics.Handler(e.registry),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		debuglog.Infof("serving metrics on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			debuglog.Errorf("metrics server: %v", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
}

func runTUI(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.Close()

	if !flagQuiet {
		tui.ShowBanner(Version)
	}
	tui.ApplyColors(e.cfg.UI.Colors)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	serveMetrics(ctx, e)

	start := tui.ViewSearch
	if flagCategories {
		start = tui.ViewCategories
	}
	app := tui.NewApp(ctx, e.cfg, e.store, e.client, tui.Options{
		Metrics:   e.recorder,
		StartView: start,
		Keyword:   flagKeyword,
	})
	defer app.Close()

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running ui: %w", err)
	}
	return nil
}
