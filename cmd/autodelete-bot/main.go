package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tg-autodelete/internal/bot"
	"tg-autodelete/internal/config"
	"tg-autodelete/internal/crash"
	"tg-autodelete/internal/handler"
	"tg-autodelete/internal/logger"
	"tg-autodelete/internal/scheduler"
	"tg-autodelete/internal/service"
	"tg-autodelete/internal/storage"
)

func main() {
	defer crash.RecoverWithStackAndExit("main")

	configPath := flag.String("config", "configs/config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Setup(cfg); err != nil {
		log.Fatalf("Failed to set up logger: %v", err)
	}

	if err := storage.Initialize(cfg); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	repo := storage.NewSettingRepository(storage.GetDB())
	if err := repo.MigrateTable(); err != nil {
		log.Fatalf("Failed to migrate GroupSetting table: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Settings must be in memory before any update is processed; a failed
	// bootstrap degrades to defaults instead of blocking startup.
	store := service.NewSettingsStore(repo, time.Duration(cfg.AutoDelete.DefaultDeleteAfter)*time.Second)
	if err := store.Bootstrap(ctx); err != nil {
		logger.Warningf("Running with a degraded settings cache: %v", err)
	}

	botService, server, err := bot.Initialize(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize bot: %v", err)
	}

	auth := service.NewAdminAuthorizer(botService.Bot)
	sched := scheduler.New(botService.Bot, store)
	handler.New(botService.Bot, store, auth, sched).Register(botService.Handler)

	crash.SafeGoroutine("http-server", func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("HTTP server error: %v", err)
		}
	})

	// Give server time to start
	time.Sleep(500 * time.Millisecond)
	logger.Info("HTTP server is ready, starting bot handler...")

	crash.SafeGoroutine("bot-handler", func() {
		botService.Start()
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	sig := <-sigChan
	logger.Infof("Received signal: %v, shutting down...", sig)

	botService.Stop()

	// Drain: cancel waiting deletion tasks, give in-flight deletes a moment
	drainCtx, drainCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer drainCancel()
	if err := sched.Shutdown(drainCtx); err != nil {
		logger.Warningf("Timeout draining deletion tasks: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	log.Println("Server gracefully stopped")
}
