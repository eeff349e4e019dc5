package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/hotelhub/service-booking/internal/config"
	"github.com/hotelhub/service-booking/pkg/database"
	"github.com/hotelhub/service-booking/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	dir := flag.String("dir", cfg.MigrationsPath, "directory containing the SQL migrations")
	flag.Parse()

	log, err := logger.NewNamed(cfg.AppEnv, "service-booking-migrate")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	dbConfig := database.PostgresConfig{
		Host:     cfg.DBConfig.Host,
		Port:     cfg.DBConfig.Port,
		User:     cfg.DBConfig.User,
		Password: cfg.DBConfig.Password,
		DBName:   cfg.DBConfig.DBName,
		SSLMode:  cfg.DBConfig.SSLMode,
	}

	if err := database.RunMigrations(dbConfig.DatabaseURL(), *dir, log); err != nil {
		log.Fatal("migration failed", zap.Error(err), zap.String("dir", *dir))
	}
}
