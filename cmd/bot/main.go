package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"OptionSentinel/internal/api"
	"OptionSentinel/internal/chain"
	"OptionSentinel/internal/collector"
	"OptionSentinel/internal/config"
	"OptionSentinel/internal/notifier"
	"OptionSentinel/internal/pricing"
	"OptionSentinel/internal/recorder"
	"OptionSentinel/internal/scheduler"
	"OptionSentinel/internal/strategy"
)

func main() {
	_ = godotenv.Load()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	log.Info().Msg("OptionSentinel starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}
	level, _ := config.ParseLevel(cfg.Log.Level)
	log = log.Level(level)

	// Init fetcher
	var fetcher collector.Fetcher
	switch cfg.DataSource.Provider {
	case config.ProviderVsTrader:
		fetcher = collector.NewVsTraderFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	case config.ProviderMock:
		fetcher = &collector.MockFetcher{Prices: map[string]float64{
			"SPX": 5800, "NDX": 20500, "RUT": 2200, "VIX": 16, "VXN": 20,
		}}
	default:
		fetcher = collector.NewYahooFetcher(cfg.Proxy)
	}
	if cfg.DataSource.CacheTTL > 0 {
		fetcher = collector.NewCachedFetcher(fetcher, cfg.DataSource.CacheTTL)
	}
	log.Info().Str("source", fetcher.Name()).Dur("cache_ttl", cfg.DataSource.CacheTTL).Msg("data source ready")

	// Init engine
	col := collector.NewCollector(fetcher, cfg.ImpliedIndex(), log)
	engineCfg, err := cfg.StrategyConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("build engine config")
	}
	engine := strategy.NewEngine(strategy.Collaborators{
		Market:     col,
		Volatility: col,
		Chain:      chain.NewModelChain(col, col, cfg.Listings(), cfg.Rate(), cfg.Engine.VolatilityLookbackDays, log),
		Greeks:     pricing.NewCalculator(cfg.Rate()),
	}, engineCfg, log)

	// Init notifiers
	var targets notifier.Fanout
	var tn *notifier.TelegramNotifier
	if cfg.Telegram.BotToken != "" {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, log)
		targets = append(targets, notifier.Target{Name: "telegram", Notifier: tn})
	}
	if cfg.Redis.Addr != "" {
		rp, client := notifier.NewRedisPublisher(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Channel)
		defer client.Close()
		targets = append(targets, notifier.Target{Name: "redis", Notifier: rp})
		log.Info().Str("addr", cfg.Redis.Addr).Str("channel", cfg.Redis.Channel).Msg("redis publishing enabled")
	}
	if len(targets) == 0 {
		log.Warn().Msg("no delivery target configured, strategies are only journaled")
	}

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, engine, targets, rec, cfg.Symbols(), log)
	sched.Timeout = cfg.Engine.Timeout
	sched.Parallel = cfg.Engine.Parallel
	if err := sched.RegisterAll(cfg.Schedule.EvaluateCron); err != nil {
		log.Fatal().Err(err).Msg("register cron tasks")
	}
	sched.Start()
	defer sched.Stop()

	// Start Telegram polling
	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info().Msg("Telegram polling started")
	}

	// Start HTTP API
	var srv *api.Server
	if cfg.API.Listen != "" {
		srv = api.NewServer(api.ServerConfig{
			Listen:         cfg.API.Listen,
			ProductionMode: cfg.API.Production,
			AllowOrigins:   cfg.API.AllowOrigins,
			Timeout:        cfg.Engine.Timeout,
		}, engine, rec, log)
		go func() {
			if err := srv.Start(); err != nil {
				log.Error().Err(err).Msg("HTTP server")
			}
		}()
	}

	// Optional: run immediately on start
	if cfg.Schedule.RunOnStart {
		log.Info().Msg("run_on_start enabled, evaluating now")
		go sched.RunNow()
	}

	log.Info().Strs("symbols", cfg.Symbols()).Msg("OptionSentinel is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutdown signal received, stopping...")
	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("HTTP shutdown")
		}
		shutdownCancel()
	}
	cancel()
	log.Info().Msg("OptionSentinel stopped")
}
