package db

import (
	"embed"
	"errors"
	"fmt"
	"time"

	migrate "github.com/golang-migrate/migrate/v4"
	// Registers the postgres driver for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/diewo77/backoffice/internal/config"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Open connects to the configured database. Postgres connections are retried
// while the server starts.
func Open(cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	gcfg := &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	}
	if cfg.Driver == "sqlite" {
		log.Info("opening sqlite database", zap.String("path", cfg.SQLitePath))
		return gorm.Open(sqlite.Open(cfg.SQLitePath), gcfg)
	}

	log.Info("connecting to database",
		zap.String("host", cfg.Host), zap.Int("port", cfg.Port),
		zap.String("dbname", cfg.DBName), zap.String("user", cfg.User))
	var db *gorm.DB
	var err error
	for i := 0; i < 5; i++ {
		db, err = gorm.Open(postgres.Open(cfg.DSN()), gcfg)
		if err == nil {
			break
		}
		log.Warn("database connection failed, retrying", zap.Int("attempt", i+1), zap.Error(err))
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return db, nil
}

// Migrate runs AutoMigrate for all records.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(AllRecords()...)
}

// RunSQLMigrations applies the embedded SQL migrations with golang-migrate.
// Postgres only; databaseURL is in URL form.
func RunSQLMigrations(databaseURL string) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return err
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// Setup migrates the schema: SQL migrations when enabled on postgres, AutoMigrate otherwise.
func Setup(db *gorm.DB, cfg *config.Config, log *zap.Logger) error {
	if cfg.App.Migrations && cfg.Database.Driver != "sqlite" {
		log.Info("running sql migrations")
		if err := RunSQLMigrations(cfg.Database.URL()); err != nil {
			return fmt.Errorf("sql migrations: %w", err)
		}
		return nil
	}
	if err := Migrate(db); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}
