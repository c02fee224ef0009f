package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"shareit/internal/config"
	"shareit/internal/domain"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
)

//go:embed migrations/sqlite3/*.sql migrations/mysql/*.sql
var migrations embed.FS

// DB is the SQL-backed repository. It runs on sqlite3 or mysql; every query
// uses "?" placeholders understood by both drivers.
type DB struct {
	*sql.DB
	driver string
	path   string
	logger *zerolog.Logger
}

// NewDB opens the configured database and applies pending migrations.
func NewDB(cfg config.DatabaseConfig, logger *zerolog.Logger) (*DB, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = config.DriverSQLite
	}

	var (
		dsn string
		err error
	)
	switch driver {
	case config.DriverSQLite:
		dsn, err = sqliteDSN(cfg.Path)
	case config.DriverMySQL:
		dsn, err = mysqlDSN(cfg.DSN)
	default:
		err = fmt.Errorf("unsupported database driver: %s", driver)
	}
	if err != nil {
		return nil, err
	}

	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driver == config.DriverSQLite {
		// One writer at a time; also keeps ":memory:" on a single connection.
		sqlDB.SetMaxOpenConns(1)
	} else if cfg.MaxConnections > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxConnections)
		sqlDB.SetMaxIdleConns(cfg.MaxConnections)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := &DB{DB: sqlDB, driver: driver, path: cfg.Path, logger: logger}
	if err := db.migrate(context.Background()); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	logger.Info().Str("driver", driver).Msg("database initialized")
	return db, nil
}

func sqliteDSN(path string) (string, error) {
	if path == "" {
		return "", errors.New("database path is required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return "", fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	return path + "?_foreign_keys=on&_busy_timeout=5000", nil
}

func mysqlDSN(raw string) (string, error) {
	cfg, err := mysql.ParseDSN(raw)
	if err != nil {
		return "", fmt.Errorf("invalid mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	return cfg.FormatDSN(), nil
}

func (db *DB) migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(gooseLogger{db.logger})
	if err := goose.SetDialect(db.driver); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db.DB, "migrations/"+db.driver); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// Driver returns the SQL driver name in use.
func (db *DB) Driver() string { return db.driver }

// Path returns the sqlite file path, empty for mysql.
func (db *DB) Path() string { return db.path }

func (db *DB) Ping(ctx context.Context) error {
	return db.PingContext(ctx)
}

type gooseLogger struct {
	logger *zerolog.Logger
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Debug().Str("component", "migrations").Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l gooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Fatal().Str("component", "migrations").Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// utc normalizes times before they reach the database so that sqlite text
// comparisons order correctly.
func utc(t time.Time) time.Time {
	return t.UTC()
}

func nullableID(id int64) interface{} {
	if id == 0 {
		return nil
	}
	return id
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1452
	}
	return false
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func int64Args(ids []int64) []interface{} {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// likePattern builds a case-insensitive substring pattern escaped with '!'.
func likePattern(text string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return "%" + r.Replace(strings.ToLower(text)) + "%"
}

var _ domain.Repository = (*DB)(nil)
