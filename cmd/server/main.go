package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prodentai/companion/internal/apierr"
	"github.com/prodentai/companion/internal/auth"
	"github.com/prodentai/companion/internal/bot"
	"github.com/prodentai/companion/internal/config"
	"github.com/prodentai/companion/internal/database"
	"github.com/prodentai/companion/internal/facts"
	"github.com/prodentai/companion/internal/llm"
	"github.com/prodentai/companion/internal/logging"
	"github.com/prodentai/companion/internal/models"
	"github.com/prodentai/companion/internal/server"
	"github.com/prodentai/companion/internal/streams"
	"github.com/prodentai/companion/internal/worker"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	shutdownTimeout = 30 * time.Second
	botStateTTL     = 24 * time.Hour
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Exiting with error", "error", err)
		logger.Sync()
		os.Exit(1)
	}
	logger.Info("Shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, logger *logging.Logger) error {
	logger.Info("Starting ProDentAI", "env", cfg.Env, "mode", cfg.AppMode)

	if !cfg.RunsAPI() && !cfg.RunsBot() {
		return fmt.Errorf("unknown APP_MODE %q", cfg.AppMode)
	}
	if cfg.RunsBot() && cfg.TelegramBotToken == "" {
		return errors.New("TELEGRAM_BOT_TOKEN is required to run the bot")
	}

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		client, err := streams.NewRedisClient(cfg.RedisURL)
		if err != nil {
			return err
		}
		defer client.Close()
		rdb = client
	}

	var tg *tgbotapi.BotAPI
	if cfg.TelegramBotToken != "" {
		api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
		if err != nil {
			return fmt.Errorf("failed to initialize Telegram bot: %w", err)
		}
		logger.Info("Authorized on Telegram", "bot", api.Self.UserName)
		tg = api
	}

	location := worker.LoadLocation(cfg.ReminderTimezone, logger)
	g, gctx := errgroup.WithContext(ctx)

	var source worker.Source
	var notifier worker.Notifier
	streamDelivery := cfg.ReminderDelivery == config.DeliveryStream && rdb != nil

	if cfg.RunsAPI() {
		db, err := openDatabase(cfg, logger)
		if err != nil {
			return err
		}
		defer database.Close(db)

		gw, err := llm.NewFromConfig(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer gw.Close()
		if err := apierr.RegisterValidators(); err != nil {
			return fmt.Errorf("failed to register validators: %w", err)
		}

		deps := server.Deps{
			DB:             db,
			Gateway:        gw,
			Tokens:         auth.NewTokenIssuer(cfg.JWTSecret, time.Duration(cfg.JWTTTLHours)*time.Hour),
			Log:            logger,
			AllowedOrigins: cfg.AllowedOrigins,
		}
		// Keep the interface nil rather than a typed nil when Redis is off
		if rdb != nil {
			deps.Redis = rdb
		}
		serveHTTP(gctx, g, cfg, server.NewRouter(deps), logger)

		source = worker.NewDBSource(db)
	}

	if streamDelivery && cfg.RunsAPI() {
		notifier = streams.NewPublisher(rdb)
	}

	if cfg.RunsBot() {
		backend := bot.NewBackendClient(cfg.BackendURL, time.Duration(cfg.AITimeoutSeconds+10)*time.Second)
		var state bot.StateStore = bot.NewMemoryStore()
		if rdb != nil {
			state = bot.NewRedisStore(rdb, botStateTTL)
		}
		b := bot.New(tg, backend, state, location, logger)
		g.Go(func() error { return b.Run(gctx) })

		sender := bot.NewSender(tg)
		switch {
		case streamDelivery:
			consumer, err := streams.NewConsumer(ctx, rdb, consumerName(), logger)
			if err != nil {
				return err
			}
			g.Go(func() error { return consumer.Run(gctx, sender) })
		case source == nil:
			// Bot-only process with direct delivery polls through the API
			source = backend
			notifier = sender
		default:
			notifier = sender
		}
	}

	switch {
	case source != nil && notifier != nil:
		poller := worker.NewPoller(source, notifier, location, time.Duration(cfg.ReminderIntervalSeconds)*time.Second, logger)
		if err := startReminders(gctx, g, cfg, poller, logger); err != nil {
			return err
		}
	case cfg.RunsAPI() && !streamDelivery:
		logger.Info("Reminder poller not started here; the bot process delivers reminders")
	}

	return g.Wait()
}

func openDatabase(cfg *config.Config, logger *logging.Logger) (*gorm.DB, error) {
	db, err := database.Init(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	logger.Info("Database connected", "sqlite", database.IsSQLite(cfg.DatabaseURL))

	if err := database.Migrate(db, logger); err != nil {
		return nil, err
	}

	if cfg.EncryptionKey != "" {
		if err := models.InitEncryption(cfg.EncryptionKey); err != nil {
			return nil, fmt.Errorf("failed to initialize field encryption: %w", err)
		}
		logger.Info("Psychology session encryption enabled")
	}

	if cfg.SeedReferenceData {
		if err := database.SeedReferenceData(db, logger, facts.DefaultBracesFAQs()); err != nil {
			return nil, err
		}
	}
	if cfg.Env == "development" {
		if err := database.SeedDevData(db, logger); err != nil {
			logger.Warn("Failed to seed dev data", "error", err)
		}
	}
	return db, nil
}

func serveHTTP(ctx context.Context, g *errgroup.Group, cfg *config.Config, handler http.Handler, logger *logging.Logger) {
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
		// LLM calls can take time
		WriteTimeout: time.Duration(cfg.AITimeoutSeconds+30) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	g.Go(func() error {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}

// startReminders runs the poller either as an in-process loop or as a
// scheduled Asynq task.
func startReminders(ctx context.Context, g *errgroup.Group, cfg *config.Config, poller *worker.Poller, logger *logging.Logger) error {
	if cfg.ReminderDispatch != config.DispatchAsynq {
		g.Go(func() error { return poller.Run(ctx) })
		return nil
	}

	stopScheduler, err := worker.StartScheduler(cfg, logger)
	if err != nil {
		return err
	}
	stopWorker, err := worker.Start(cfg, poller, logger)
	if err != nil {
		stopScheduler()
		return err
	}
	g.Go(func() error {
		<-ctx.Done()
		stopScheduler()
		stopWorker()
		return nil
	})
	return nil
}

func consumerName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "bot"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}
