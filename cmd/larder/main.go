package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/larder/internal/backup"
	"github.com/dukerupert/larder/internal/config"
	"github.com/dukerupert/larder/internal/database"
	"github.com/dukerupert/larder/internal/logging"
	"github.com/dukerupert/larder/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := logging.Setup(cfg.App.LogLevel)

	db, err := database.Open(cfg.App.DBPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	backupCfg := backup.Config{
		S3: backup.S3Config{
			Endpoint:  cfg.Backup.S3Endpoint,
			Bucket:    cfg.Backup.S3Bucket,
			Region:    cfg.Backup.S3Region,
			AccessKey: cfg.Backup.S3AccessKey,
			SecretKey: cfg.Backup.S3SecretKey,
		},
		DBPath:        cfg.App.DBPath,
		Passphrase:    cfg.Backup.Passphrase,
		ScheduleHour:  cfg.Backup.ScheduleHour,
		RetentionDays: cfg.Backup.RetentionDays,
	}

	srv, err := server.New(db, backupCfg, logger)
	if err != nil {
		log.Fatalf("failed to initialize server: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	srv.BackupManager().Start(ctx)

	httpServer := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		fmt.Printf("Larder running at http://localhost:%s\n", cfg.App.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	srv.BackupManager().Stop()
	// Drain pending optimistic writes before the process exits.
	srv.Close()
}
