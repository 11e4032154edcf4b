package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"MarketETL/internal/collector"
	"MarketETL/internal/config"
	"MarketETL/internal/logging"
	"MarketETL/internal/monitoring"
	"MarketETL/internal/notifier"
	"MarketETL/internal/pipeline"
	"MarketETL/internal/scheduler"
	"MarketETL/internal/state"
	"MarketETL/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "marketetl: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	defaultCfg := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultCfg = v
	}
	cfgPath := flag.String("config", defaultCfg, "path to the YAML config file")
	once := flag.Bool("once", false, "run the pipeline once and exit, even when a schedule is configured")
	flag.Parse()

	config.LoadDotenv()

	cfg, err := config.LoadAndValidate(*cfgPath)
	if err != nil {
		return err
	}

	slogger, closeLog, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.Paths.LogFile})
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer closeLog()
	logger := slogger.With("env", cfg.Env)
	logger.Info("MarketETL starting", "config", *cfgPath, "symbols", cfg.Symbols)

	reporter, err := monitoring.NewSentryReporter(cfg.Monitoring.SentryDSN, cfg.Env)
	if err != nil {
		logger.Warn("sentry disabled", "error", err)
		reporter = monitoring.Nop()
	}
	defer reporter.Flush(2 * time.Second)

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("store unavailable", "driver", cfg.Database.Driver, "error", err)
		reporter.CaptureError(err, map[string]string{"stage": "store"})
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	stateLog, closeState, err := state.NewLog(cfg.State, cfg.Paths.State)
	if err != nil {
		return err
	}
	defer closeState()

	fetcher := collector.NewFetcher(cfg.DataSource, cfg.Proxy)
	logger.Info("data source selected", "provider", fetcher.Name())

	alerts := notifier.New(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, logger)

	p, err := pipeline.New(pipeline.Deps{
		Config:   cfg,
		Fetcher:  fetcher,
		Store:    st,
		StateLog: stateLog,
		Logger:   logger,
		Reporter: reporter,
		Notifier: alerts,
	})
	if err != nil {
		return err
	}

	if *once || cfg.Schedule.Cron == "" {
		report, err := p.Run(ctx)
		if err != nil {
			return err
		}
		fmt.Print(report.Summary())
		return nil
	}

	sched := scheduler.NewScheduler(ctx, func(ctx context.Context) (string, error) {
		report, err := p.Run(ctx)
		return report.Summary(), err
	}, alerts, logger)
	if err := sched.Register(cfg.Schedule.Cron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if tn, ok := alerts.(*notifier.TelegramNotifier); ok {
		go tn.StartPolling(ctx, sched.HandleCommand)
		logger.Info("telegram polling started")
	}

	if cfg.Schedule.RunOnStart {
		logger.Info("run_on_start enabled, executing pipeline now")
		sched.RunAsync()
	}

	logger.Info("MarketETL is running. Press Ctrl+C to stop.", "cron", cfg.Schedule.Cron)
	<-ctx.Done()
	logger.Info("shutdown signal received, stopping...")
	return nil
}
