package database

import (
	"fmt"
	"log"
	"time"

	"mentorship/backend/internal/config"
	"mentorship/backend/internal/logger"
	"mentorship/backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// liveIndexSQL keeps at most one PENDING or ACCEPTED row per ordered
// (mentor, mentee) pair. Historical rows are outside the index.
const liveIndexSQL = `CREATE UNIQUE INDEX IF NOT EXISTS uidx_relationship_live
	ON relationships (mentor_id, mentee_id)
	WHERE status IN ('PENDING', 'ACCEPTED')`

// Connect opens the database selected by cfg.Driver.
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.URL)
	case "sqlite":
		dialector = sqlite.Open(cfg.FilePath)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	l := logger.L().With().Str("source", "gorm").Logger()
	customLogger := gormlogger.New(
		log.New(l, "", 0),
		gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         customLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	}

	return db, nil
}

// Migrate creates the schema and the live-relationship unique index.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.User{}, &models.Relationship{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	if err := db.Exec(liveIndexSQL).Error; err != nil {
		return fmt.Errorf("failed to create live relationship index: %w", err)
	}
	return nil
}
