package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"museum-sunday/internal/bot"
	"museum-sunday/internal/config"
	"museum-sunday/internal/logger"
	"museum-sunday/internal/model"
	"museum-sunday/internal/museum"
	"museum-sunday/internal/notify"
	"museum-sunday/internal/repository"
	"museum-sunday/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = os.Stderr.WriteString("config error: " + err.Error() + "\n")
		os.Exit(2)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		_, _ = os.Stderr.WriteString("logger init error: " + err.Error() + "\n")
		os.Exit(2)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("open database failed", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	users := repository.NewUserCache(repository.NewUserRepository(db))
	tasks := repository.NewTaskRepository(db)

	adminID, adminName, err := cfg.AdminUser()
	if err != nil {
		log.Fatal("admin config invalid", zap.Error(err))
	}
	if err := ensureAdmin(ctx, users, adminID, adminName, log); err != nil {
		log.Fatal("ensure admin failed", zap.Error(err))
	}
	if err := users.Warm(ctx); err != nil {
		log.Fatal("warm user cache failed", zap.Error(err))
	}

	museums := museum.NewService(museum.NewClient(cfg.ProviderBaseURL), log)

	telegram, err := bot.New(cfg.BotToken, log)
	if err != nil {
		log.Fatal("bot init failed", zap.Error(err))
	}
	handler := bot.NewHandler(telegram, users, tasks, museums, adminID, log)

	dispatcher := service.NewDispatcher(museums, telegram, notify.NewWebhook(), log)
	scheduler := service.NewScheduler(tasks, museums, dispatcher, cfg.DaysMin, cfg.DaysMax, cfg.PollInterval, log)
	if err := scheduler.Start(); err != nil {
		log.Fatal("scheduler start failed", zap.Error(err))
	}
	defer scheduler.Stop()

	log.Info("museum bot started")
	if err := telegram.Run(ctx, handler); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal("bot stopped with error", zap.Error(err))
	}
	log.Info("shutdown complete")
}

// ensureAdmin creates the configured admin user on first run.
func ensureAdmin(ctx context.Context, users *repository.UserCache, id int64, name string, log *zap.Logger) error {
	if _, err := users.Get(ctx, id); err == nil {
		log.Info("admin exists", zap.String("name", name))
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	log.Info("creating admin", zap.String("name", name))
	return users.Create(ctx, &model.User{ID: id, Name: name})
}
