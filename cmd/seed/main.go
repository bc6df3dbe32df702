package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"github.com/iliyamo/cinema-booking/internal/config"
	"github.com/iliyamo/cinema-booking/internal/database"
	"github.com/iliyamo/cinema-booking/internal/logger"
	"github.com/iliyamo/cinema-booking/internal/seed"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFmt)
	log := logger.Get()

	db, dialect, err := database.Open(database.Options{
		Driver: cfg.DBDriver,
		User:   cfg.DBUser,
		Pass:   cfg.DBPass,
		Host:   cfg.DBHost,
		Port:   cfg.DBPort,
		Name:   cfg.DBName,
		Path:   cfg.DBPath,
	})
	if err != nil {
		log.WithError(err).Fatal("open database")
	}
	defer db.Close()

	ctx := context.Background()
	if err := database.Migrate(ctx, db, dialect); err != nil {
		log.WithError(err).Fatal("migrate")
	}

	res, err := seed.Run(ctx, db, seed.Options{
		AdminEmail:    os.Getenv("SEED_ADMIN_EMAIL"),
		AdminUsername: os.Getenv("SEED_ADMIN_USERNAME"),
		AdminPassword: os.Getenv("SEED_ADMIN_PASSWORD"),
		BcryptCost:    cfg.BcryptCost,
	}, log)
	if err != nil {
		log.WithError(err).Fatal("seed")
	}
	if res.AdminID == 0 {
		log.Warn("SEED_ADMIN_EMAIL or SEED_ADMIN_PASSWORD not set; no admin created")
	} else {
		log.WithField("admin_id", res.AdminID).Info("admin account ready")
	}
}
