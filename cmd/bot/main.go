package main

import (
	"context"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"student_schedule_bot/internal/app"
	"student_schedule_bot/internal/domain/reminder"
	"student_schedule_bot/internal/infra/calendar"
	"student_schedule_bot/internal/infra/config"
	idb "student_schedule_bot/internal/infra/database"
	"student_schedule_bot/internal/infra/httpapi"
	"student_schedule_bot/internal/infra/logger"
	"student_schedule_bot/internal/infra/metrics"
	"student_schedule_bot/internal/infra/notifyqueue"
	"student_schedule_bot/internal/infra/scheduler"
	"student_schedule_bot/internal/infra/telegram"
)

const redisKeyPrefix = "student_schedule_bot:reminders"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Could not load application configuration: %v", err)
	}

	logger.Init(cfg)
	baseLogger := logrus.NewEntry(logger.Log)
	mainLogger := logger.Component("main")
	mainLogger.WithFields(logrus.Fields{
		"log_level":   cfg.LogLevel,
		"environment": cfg.Environment,
		"timezone":    cfg.Timezone,
		"owner_id":    cfg.OwnerTelegramID,
	}).Info("Student Schedule Bot starting...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize Database Connection
	db, err := idb.NewPostgresConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not connect to database")
	}
	defer db.Close()
	if err := idb.EnsureSchema(ctx, db); err != nil {
		mainLogger.WithError(err).Fatal("Could not prepare database schema")
	}
	mainLogger.Info("Database connection established successfully.")

	classRepo := idb.NewPostgresClassRepository(db)
	assignmentRepo := idb.NewPostgresAssignmentRepository(db)

	// Notification queue: Redis when configured, otherwise in-process.
	var queue notifyqueue.Queue
	if cfg.RedisURL != "" {
		client, err := notifyqueue.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			mainLogger.WithError(err).Fatal("Could not connect to Redis")
		}
		defer client.Close()
		queue = notifyqueue.NewRedisQueue(client, redisKeyPrefix, baseLogger)
		mainLogger.Info("Using Redis notification queue.")
	} else {
		queue = notifyqueue.NewMemoryQueue()
		mainLogger.Warn("REDIS_URL is not set, reminders are kept in memory and re-planned at boot.")
	}

	appMetrics := metrics.New()
	ledger := reminder.NewLedger(metrics.InstrumentScheduler(queue, appMetrics), baseLogger)
	encoder := calendar.NewEncoder(cfg.CalendarName, cfg.Location)
	scheduleService := app.NewScheduleService(classRepo, assignmentRepo, ledger, encoder, appMetrics, cfg.Location, baseLogger)

	// Initialize Telegram Bot
	botLogger := logger.Component("telegram")
	pref := telebot.Settings{
		Token:  cfg.TelegramToken,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) {
			entry := botLogger.WithError(err)
			if c != nil && c.Sender() != nil && c.Chat() != nil {
				entry = entry.WithFields(logrus.Fields{
					"message":   c.Text(),
					"sender_id": c.Sender().ID,
					"chat_id":   c.Chat().ID,
				})
			}
			entry.Error("Telebot error")
		},
	}
	bot, err := telebot.NewBot(pref)
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not create Telegram bot")
	}
	bot.Use(telegram.OwnerOnly(cfg.OwnerTelegramID, botLogger))

	telegram.RegisterBotCommands(bot, botLogger)
	telegram.RegisterScheduleHandlers(ctx, bot, scheduleService, botLogger)
	telegram.RegisterReminderResponseHandlers(ctx, bot, scheduleService, botLogger)
	mainLogger.Info("Telegram handlers registered.")

	adapter := telegram.NewTelebotAdapter(bot, cfg.OwnerTelegramID)
	reminderScheduler := scheduler.NewReminderScheduler(
		queue,
		adapter,
		scheduleService,
		appMetrics,
		cfg.Location,
		baseLogger,
		cfg.CronSpecDispatch,
		cfg.CronSpecClassRearm,
	)
	if err := reminderScheduler.Start(); err != nil {
		mainLogger.WithError(err).Fatal("Could not start reminder scheduler")
	}

	// Class reminders only cover the next meeting, so refresh them on boot.
	if err := scheduleService.RearmClassReminders(ctx); err != nil {
		mainLogger.WithError(err).Warn("Initial class reminder re-arm finished with errors")
	}
	// The queue may have lost pending reminders across the restart.
	if err := scheduleService.RearmAssignmentReminders(ctx); err != nil {
		mainLogger.WithError(err).Warn("Initial assignment reminder re-arm finished with errors")
	}

	httpDone := make(chan struct{})
	if cfg.HTTPListen != "" {
		env := strings.ToLower(cfg.Environment)
		if env == "production" || env == "staging" {
			gin.SetMode(gin.ReleaseMode)
		}
		router := httpapi.NewRouter(scheduleService, appMetrics, logger.Component("http_api"))
		server := httpapi.NewServer(cfg.HTTPListen, router, baseLogger)
		go func() {
			defer close(httpDone)
			if err := server.Run(ctx); err != nil {
				mainLogger.WithError(err).Error("HTTP API stopped with error")
				stop()
			}
		}()
	} else {
		close(httpDone)
	}

	go bot.Start()
	mainLogger.Info("Application setup complete. Bot and scheduler are running.")

	<-ctx.Done()
	mainLogger.Info("Shutting down application...")
	bot.Stop()
	reminderScheduler.Stop()
	<-httpDone
	mainLogger.Info("Application shut down gracefully.")
}
