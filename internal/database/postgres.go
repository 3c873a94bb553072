package database

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/lchampz/saas-bakery/internal/logger"
)

const sqlitePrefix = "sqlite://"

// Open connects to the database named by databaseURL. A sqlite:// URL selects the
// embedded sqlite driver (local runs, demos); anything else is treated as PostgreSQL.
func Open(databaseURL string, log *logger.Logger) (*gorm.DB, error) {
	if strings.HasPrefix(databaseURL, sqlitePrefix) {
		return ConnectSQLite(strings.TrimPrefix(databaseURL, sqlitePrefix), log)
	}
	return ConnectPostgres(databaseURL, log)
}

// ConnectPostgres connects to PostgreSQL and tunes the pool
func ConnectPostgres(databaseURL string, log *logger.Logger) (*gorm.DB, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	db, err := gorm.Open(postgres.Open(databaseURL), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	sqlDB.SetConnMaxIdleTime(1 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info("✅ PostgreSQL connected")
	return db, nil
}

// ConnectSQLite opens a sqlite database. sqlite serializes writers, so the pool is
// pinned to one connection; this also keeps ":memory:" databases alive across calls.
func ConnectSQLite(dsn string, log *logger.Logger) (*gorm.DB, error) {
	if dsn == "" {
		dsn = "bakery.db"
	}

	db, err := gorm.Open(sqlite.Open(dsn), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	log.Info("✅ SQLite opened", "dsn", dsn)
	return db, nil
}

// Close closes the underlying connection pool
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}
