package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Alijeyrad/carevisit_backend/config"
	"github.com/Alijeyrad/carevisit_backend/internal/schema"
)

// NewGormDB opens the application database from central config.
func NewGormDB(cfg config.DatabaseConfig) (*gorm.DB, error) {
	return NewGormDBFromConfig(FromCentralConfig(cfg))
}

// NewGormDBFromConfig opens a pooled connection through the pgx-backed gorm driver.
func NewGormDBFromConfig(cfg Config) (*gorm.DB, error) {
	logLevel := gormlogger.Silent
	if cfg.EnableLogging {
		logLevel = gormlogger.Warn
	}

	gormCfg := &gorm.Config{
		Logger: gormlogger.New(slogWriter{}, gormlogger.Config{
			SlowThreshold:             cfg.SlowQueryThreshold(),
			LogLevel:                  logLevel,
			IgnoreRecordNotFoundError: true,
		}),
		PrepareStmt:    true,
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}

	db, err := gorm.Open(postgres.New(postgres.Config{DSN: cfg.DSN()}), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Migrate creates or updates every table and the partial indexes gorm tags cannot express.
func Migrate(ctx context.Context, db *gorm.DB) error {
	start := time.Now()

	if err := db.WithContext(ctx).AutoMigrate(schema.All()...); err != nil {
		return fmt.Errorf("auto-migrate models: %w", err)
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_events_org_range ON events (organization_id, start_at) WHERE is_active`,
		`CREATE INDEX IF NOT EXISTS idx_events_assignee_range ON events (assignee_id, start_at) WHERE is_active`,
		`CREATE INDEX IF NOT EXISTS idx_reminders_due ON reminders (remind_at) WHERE is_active AND NOT is_sent`,
	}
	for _, q := range indexes {
		if err := db.WithContext(ctx).Exec(q).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}

	slog.Info("database migrations completed", "duration", time.Since(start))
	return nil
}

// Ping checks the underlying pool.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the pool behind db.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// slogWriter routes gorm's printf-style logger into slog.
type slogWriter struct{}

func (slogWriter) Printf(format string, args ...any) {
	slog.Warn(fmt.Sprintf(format, args...), "component", "gorm")
}
