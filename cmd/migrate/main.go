package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/gorm"

	pgstore "github.com/dwarvesf/walletpay-backend/internal/store/postgres"
	"github.com/dwarvesf/walletpay-backend/internal/utils/config"
	"github.com/dwarvesf/walletpay-backend/internal/utils/logger"
)

func newMigrate(db *gorm.DB) (*migrate.Migrate, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database connection: %w", err)
	}

	dir := os.Getenv("MIGRATIONS_DIR")
	if dir == "" {
		dir = filepath.Join("migrations", "schema")
	}

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+dir, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}

// usage: migrate [up|down]
func main() {
	appConfig := config.New()
	logger := logger.New(appConfig.Environment)

	direction := "up"
	if len(os.Args) > 1 {
		direction = os.Args[1]
	}

	db := pgstore.New(appConfig, logger)
	m, err := newMigrate(db)
	if err != nil {
		logger.Fatal("[main][newMigrate]", map[string]string{"error": err.Error()})
	}

	switch direction {
	case "up":
		err = m.Up()
	case "down":
		err = m.Steps(-1)
	default:
		logger.Fatal("[main] unknown direction", map[string]string{"direction": direction})
	}

	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error("[main][migrate] failed to run migrations", map[string]string{
			"direction": direction,
			"error":     err.Error(),
		})
		os.Exit(1)
	}

	version, dirty, _ := m.Version()
	logger.Info("[main] migrations completed", map[string]string{
		"direction": direction,
		"version":   fmt.Sprint(version),
		"dirty":     fmt.Sprint(dirty),
	})
}
