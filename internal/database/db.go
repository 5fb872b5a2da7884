package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "github.com/tursodatabase/libsql-client-go/libsql" // Turso/libsql
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // встроенный SQLite
)

type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// ErrEmptyDSN — строка подключения не задана.
var ErrEmptyDSN = errors.New("empty DSN")

// DB представляет подключение к БД
type DB struct {
	SQL     *sql.DB
	Pool    *pgxpool.Pool // только для Postgres
	Dialect Dialect
	Logger  *zap.Logger

	driver string
	dsn    string
}

// NewDB создает подключение к PostgreSQL через pgxpool.
// database/sql поверх пула нужен репозиториям, общим для обоих диалектов.
func NewDB(ctx context.Context, dsn string, logger *zap.Logger) (*DB, error) {
	if dsn == "" {
		return nil, ErrEmptyDSN
	}

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	db := &DB{
		SQL:     stdlib.OpenDBFromPool(pool),
		Pool:    pool,
		Dialect: Postgres,
		Logger:  logger,
		driver:  "pgx",
		dsn:     dsn,
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	return db, nil
}

// NewSQLite открывает SQLite (файл, память или libsql:// для Turso).
func NewSQLite(ctx context.Context, dsn string, logger *zap.Logger) (*DB, error) {
	if dsn == "" {
		return nil, ErrEmptyDSN
	}

	driver := "sqlite"
	if strings.HasPrefix(dsn, "libsql://") || strings.HasPrefix(dsn, "wss://") {
		driver = "libsql"
	}

	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// Один писатель: SQLite не любит параллельные транзакции.
	sqlDB.SetMaxOpenConns(1)

	db := &DB{SQL: sqlDB, Dialect: SQLite, Logger: logger, driver: driver, dsn: dsn}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to sqlite: %w", err)
	}
	return db, nil
}

// MemoryDSN возвращает DSN именованной in-memory базы SQLite с общим кэшем.
func MemoryDSN(name string) string {
	name = strings.Map(func(r rune) rune {
		if r == '/' || r == ' ' || r == '?' || r == '#' {
			return '_'
		}
		return r
	}, name)
	return "file:" + name + "?mode=memory&cache=shared&_pragma=busy_timeout(5000)"
}

// Ping проверяет соединение с БД
func (db *DB) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return db.SQL.PingContext(ctx)
}

// Close закрывает соединение с БД
func (db *DB) Close() {
	if err := db.SQL.Close(); err != nil && db.Logger != nil {
		db.Logger.Warn("failed to close database", zap.Error(err))
	}
	if db.Pool != nil {
		db.Pool.Close()
	}
}

// Rebind переписывает плейсхолдеры "?" в "$N" для PostgreSQL.
func (db *DB) Rebind(query string) string {
	if db.Dialect != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// Contains возвращает выражение регистрозависимого поиска подстроки.
func (db *DB) Contains(column string) string {
	if db.Dialect == Postgres {
		return "strpos(" + column + ", ?) > 0"
	}
	return "instr(" + column + ", ?) > 0"
}

// OrderBytes возвращает выражение сортировки по байтам, независимо от локали.
func (db *DB) OrderBytes(column string) string {
	if db.Dialect == Postgres {
		return column + ` COLLATE "C"`
	}
	return column
}
