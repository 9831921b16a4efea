package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"

	"github.com/umputun/plainly/pkg/config"
	"github.com/umputun/plainly/pkg/content"
	"github.com/umputun/plainly/pkg/feed"
	"github.com/umputun/plainly/pkg/ingest"
	"github.com/umputun/plainly/pkg/repository"
	"github.com/umputun/plainly/pkg/scheduler"
	"github.com/umputun/plainly/server"
)

// Opts with all CLI options
type Opts struct {
	Config string `short:"c" long:"config" env:"CONFIG" description:"configuration file, defaults are used if not set"`
	Secret string `short:"s" long:"secret" env:"RSS_SECRET" description:"bearer secret of the fetch endpoint, overrides auth.secret"`
	Listen string `short:"l" long:"listen" env:"LISTEN" description:"listen address, overrides server.listen"`
	Once   bool   `long:"once" description:"run ingestion once and exit"`

	// common options
	Debug   bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool `short:"V" long:"version" description:"show version info"`
	NoColor bool `long:"no-color" env:"NO_COLOR" description:"disable color output"`
}

var revision = "unknown"

// feedSources is the list of feeds pulled by the ingester
var feedSources = ingest.DefaultFeeds

func main() {
	var opts Opts
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("Version: %s\nGolang: %s\n", revision, runtime.Version())
		os.Exit(0)
	}

	if opts.NoColor {
		color.NoColor = true
	}
	setupLog(opts.Debug, opts.Secret)
	lgr.Printf("[INFO] starting plainly version %s", revision)

	ctx, cancel := context.WithCancel(context.Background())

	// handle termination signals
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		lgr.Print("[INFO] termination signal received")
		cancel()
	}()

	err := run(ctx, opts)
	cancel()

	if err != nil {
		lgr.Printf("[ERROR] %v", err)
		os.Exit(1)
	}
	lgr.Print("[INFO] shutdown complete")
}

func run(ctx context.Context, opts Opts) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Auth.Secret != "" && cfg.Auth.Secret != opts.Secret {
		setupLog(opts.Debug, cfg.Auth.Secret)
	}

	repos, err := repository.NewRepositories(ctx, repository.Config{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetime) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := repos.Close(); err != nil {
			lgr.Printf("[WARN] failed to close database: %v", err)
		}
	}()

	ing := makeIngester(cfg, repos)

	if opts.Once {
		res, err := ing.Run(ctx)
		if err != nil {
			return fmt.Errorf("ingestion failed: %w", err)
		}
		lgr.Printf("[INFO] ingestion done, processed %d, deleted %d, failed feeds %v", res.Processed, res.Deleted, res.FailedFeeds)
		return nil
	}

	if cfg.Auth.Secret == "" {
		return errors.New("secret is required, set --secret, RSS_SECRET or auth.secret")
	}

	if cfg.Ingest.Schedule != "" {
		sched, err := scheduler.NewScheduler(ing, scheduler.Config{Schedule: cfg.Ingest.Schedule, RunOnStart: cfg.Ingest.RunOnStart})
		if err != nil {
			return fmt.Errorf("failed to create scheduler: %w", err)
		}
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer sched.Stop()
	}

	srv := server.New(cfg, ing, repos.Run, revision, opts.Debug)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// loadConfig reads config file if set and applies cli overrides
func loadConfig(opts Opts) (*config.Config, error) {
	cfg := config.Default()
	if opts.Config != "" {
		var err error
		if cfg, err = config.Load(opts.Config); err != nil {
			return nil, err
		}
	}
	if opts.Secret != "" {
		cfg.Auth.Secret = opts.Secret
	}
	if opts.Listen != "" {
		cfg.Server.Listen = opts.Listen
	}
	return cfg, nil
}

func makeIngester(cfg *config.Config, repos *repository.Repositories) *ingest.Ingester {
	icfg := ingest.Config{
		Fetcher:    feed.NewFetcher(cfg.Ingest.FetchTimeout, cfg.Ingest.UserAgent),
		Store:      repos.Store(),
		Feeds:      feedSources,
		MaxWorkers: cfg.Ingest.MaxWorkers,
	}
	if cfg.Extraction.Enabled {
		icfg.Enricher = content.NewExtractor(content.Options{
			Timeout:       cfg.Extraction.Timeout,
			RateLimit:     cfg.Extraction.RateLimit,
			MinTextLength: cfg.Extraction.MinTextLength,
			UserAgent:     cfg.Extraction.UserAgent,
		})
		lgr.Printf("[INFO] content extraction enabled, %.2f pages/sec", cfg.Extraction.RateLimit)
	}
	return ingest.New(icfg)
}

func setupLog(dbg bool, secs ...string) {
	logOpts := []lgr.Option{lgr.Msec, lgr.LevelBraces}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.CallerFile, lgr.CallerFunc, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	}

	colorizer := lgr.Mapper{
		ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
		WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
		InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
		DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
		CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
		TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
	}
	logOpts = append(logOpts, lgr.Map(colorizer))

	secrets := make([]string, 0, len(secs))
	for _, s := range secs {
		if s != "" {
			secrets = append(secrets, s)
		}
	}
	if len(secrets) > 0 {
		logOpts = append(logOpts, lgr.Secret(secrets...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
