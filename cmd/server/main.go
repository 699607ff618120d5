package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"vantrack/internal/config"
	"vantrack/internal/logger"
	"vantrack/internal/routes"
	"vantrack/internal/store"
	"vantrack/internal/sweeper"
	"vantrack/internal/tracking"
	"vantrack/internal/ws"
)

func main() {
	// Initialize structured logging to file
	logger.Setup()

	// Connect to the database
	config.InitDB()

	cfg := config.LoadTracking()

	st := store.NewGorm(config.DB)
	svc := tracking.New(st, tracking.Options{
		HistoryThrottle: cfg.HistoryThrottle,
		DefaultRadiusM:  cfg.DefaultRadiusM,
	})
	hub := ws.NewHub()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sw := sweeper.New(st, cfg.RetentionDays, cfg.SweepInterval, cfg.RetentionEnabled)
	go sw.Run(ctx)

	r := routes.SetupRouter(config.DB, svc, hub)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:         "0.0.0.0:" + port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.WithField("addr", srv.Addr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutdown signal received, draining connections")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Fatal("forced shutdown")
	}

	log.Info("server stopped")
}
