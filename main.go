package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"optipos/m/internal/api"
	"optipos/m/internal/config"
	"optipos/m/internal/database"
	"optipos/m/internal/logger"
	"optipos/m/internal/migrations"
	"optipos/m/internal/seed"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.New(cfg.Env)
	defer log.Sync()

	db := database.Connect(cfg.DatabaseDSN)
	defer db.Close()

	migrations.Run(db)
	if cfg.SeedCompanyID != 0 && cfg.SeedCatalogCSV != "" {
		seed.LoadCatalog(db, cfg.SeedCompanyID, cfg.SeedCatalogCSV)
	}

	handler := api.New(db, cfg.Secret, log, cfg.MetricsEnabled)
	srv := &http.Server{Addr: ":" + cfg.HTTPPort, Handler: handler.Router()}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("OptiPOS server starting", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("graceful shutdown complete")
}
