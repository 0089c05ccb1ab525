// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"telegram-video-access/internal/application"
	"telegram-video-access/internal/config"
	"telegram-video-access/internal/domain/ports/adapter"
	"telegram-video-access/internal/domain/ports/repository"
	payAdapters "telegram-video-access/internal/infra/adapters/payment"
	tele "telegram-video-access/internal/infra/adapters/telegram"
	"telegram-video-access/internal/infra/api"
	pg "telegram-video-access/internal/infra/db/postgres"
	"telegram-video-access/internal/infra/logging"
	"telegram-video-access/internal/infra/metrics"
	red "telegram-video-access/internal/infra/redis"
	"telegram-video-access/internal/infra/sched"
	"telegram-video-access/internal/usecase"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, auto-confirmed payments without YooMoney credentials)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		zlog.Fatal().Err(err).Msg("config")
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	logger.Info().Str("version", version).Str("commit", commit).Bool("dev", cfg.Runtime.Dev).Msg("starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()
	metrics.TrackPool(func() metrics.PoolSnapshot {
		s := pool.Stat()
		return metrics.PoolSnapshot{
			Open:          s.TotalConns(),
			Idle:          s.IdleConns(),
			Acquired:      s.AcquiredConns(),
			Max:           s.MaxConns(),
			EmptyAcquires: s.EmptyAcquireCount(),
		}
	})

	// ---- Redis (optional) ----
	var (
		redisClient *red.Client
		locker      adapter.Locker
		limiter     adapter.RateLimiter
		chats       repository.ChatStateRepository
	)
	if cfg.Redis.URL != "" {
		redisClient, err = red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer redisClient.Close()
		limiter = red.NewRateLimiter(redisClient)
		chats = red.NewChatStateRepo(redisClient, 0)
		if cfg.Scheduler.UseLock {
			locker = red.NewLocker(redisClient)
		}
	} else {
		logger.Warn().Msg("redis.url is empty: running without cache, rate limits and sweep locks")
	}

	// ---- Repositories ----
	tm := pg.NewTxManager(pool)
	payRepo := pg.NewPaymentRepo(pool)
	accessRepo := pg.NewAccessRepo(pool)
	watermarkRepo := pg.NewWatermarkRepo(pool)
	deliveryRepo := pg.NewDeliveryRepo(pool)
	var userRepo repository.UserRepository = pg.NewUserRepo(pool)
	var videoRepo repository.VideoRepository = pg.NewVideoRepo(pool)
	if redisClient != nil {
		userRepo = pg.NewUserRepoCacheDecorator(userRepo, redisClient, 0, logger)
		videoRepo = pg.NewVideoRepoCacheDecorator(videoRepo, redisClient, cfg.Redis.TTL, logger)
	}

	// ---- Adapters ----
	var gateway adapter.PaymentGateway
	yoo := payAdapters.NewYooMoneyGateway(
		cfg.Payment.YooMoney.Token,
		cfg.Payment.YooMoney.Wallet,
		cfg.Payment.YooMoney.HistoryURL,
		cfg.Payment.YooMoney.PaymentURL,
		cfg.Runtime.Dev,
		logger,
	)
	switch {
	case yoo.Enabled():
		gateway = yoo
	case cfg.Runtime.Dev:
		logger.Warn().Msg("[DEV MODE] YooMoney credentials missing: payments are auto-confirmed")
		gateway = payAdapters.NewNoopPaymentGateway(true)
	default:
		logger.Warn().Msg("YooMoney credentials missing: purchases are disabled")
		gateway = yoo
	}

	var (
		transport adapter.ChatTransport
		bot       *tele.RealTelegramBotAdapter
	)
	if cfg.Bot.DryRun {
		logger.Warn().Msg("bot.dry_run: messages are logged, updates are not polled")
		transport = tele.NewNoopBotAdapter(logger)
	} else {
		bot, err = tele.NewRealTelegramBotAdapter(&cfg.Bot, nil, chats, limiter, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("telegram")
		}
		transport = bot
	}

	// ---- Use cases ----
	userUC := usecase.NewUserUseCase(userRepo, component(logger, "UserUC"))
	catalogUC := usecase.NewCatalogUseCase(videoRepo, component(logger, "CatalogUC"))
	accessUC := usecase.NewAccessUseCase(accessRepo, component(logger, "AccessUC"))
	ledgerUC := usecase.NewLedgerUseCase(
		payRepo, userRepo, videoRepo, accessUC, tm, gateway, transport, limiter,
		usecase.LedgerConfig{
			Description: cfg.Payment.Description,
			CheckLimit:  cfg.Payment.CheckLimit,
			CheckWindow: cfg.Payment.CheckWindow,
			BatchSize:   cfg.Scheduler.BatchSize,
			Dev:         cfg.Runtime.Dev,
		},
		component(logger, "LedgerUC"),
	)
	deliveryUC := usecase.NewDeliveryUseCase(
		deliveryRepo, videoRepo, accessUC, transport,
		cfg.Catalog.MaxMessageLifetime, cfg.Scheduler.BatchSize,
		component(logger, "DeliveryUC"),
	)
	statsUC := usecase.NewStatsUseCase(userRepo, accessRepo, payRepo, videoRepo, component(logger, "StatsUC"))
	expiryUC := usecase.NewExpiryUseCase(accessRepo, watermarkRepo, transport, cfg.Scheduler.NotifyDays, component(logger, "ExpiryUC"))

	if err := catalogUC.Seed(ctx, cfg.Catalog.VideoFileIDs); err != nil {
		logger.Fatal().Err(err).Msg("seed catalog")
	}

	var wg sync.WaitGroup
	run := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil && ctx.Err() == nil {
				logger.Error().Err(err).Str("task", name).Msg("stopped with error")
			}
		}()
	}

	// ---- Telegram ----
	if bot != nil {
		bot.SetFacade(application.NewBotFacade(userUC, catalogUC, ledgerUC, accessUC, deliveryUC, statsUC, logger))
		run("telegram", bot.StartPolling)
	}

	// ---- Periodic drivers ----
	run("payments", sched.NewPaymentReconciler(cfg.Scheduler.PaymentInterval, ledgerUC, locker, logger).Run)
	run("deletions", sched.NewDeletionReaper(cfg.Scheduler.DeleteInterval, deliveryUC, locker, logger).Run)
	run("expiry", sched.NewExpiryWorker(cfg.Scheduler.ExpiryInterval, expiryUC, locker, logger).Run)

	// ---- Ops HTTP ----
	checks := map[string]api.Pinger{"postgres": pool}
	if redisClient != nil {
		checks["redis"] = redisClient
	}
	ops := api.NewServer(cfg.Admin.Port, checks, logger)
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := ops.Start(); err != nil {
			logger.Error().Err(err).Msg("ops server")
			stop()
		}
	}()

	// ---- Graceful shutdown ----
	<-ctx.Done()
	logger.Info().Msg("shutdown requested")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := ops.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("ops server shutdown")
	}
	wg.Wait()
	logger.Info().Msg("bye")
}

func component(logger *zerolog.Logger, name string) *zerolog.Logger {
	l := logger.With().Str("component", name).Logger()
	return &l
}
