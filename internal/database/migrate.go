package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// SchemaVersion — версия схемы, которую ожидает код.
const SchemaVersion uint = 3

// Migrate применяет SQL-миграции из embedded FS.
// Использует отдельное подключение: драйвер migrate закрывает его вместе с собой.
func Migrate(db *DB) error {
	return runMigrations(db, false)
}

// Reapply сбрасывает маркер версии и прогоняет все скрипты заново.
// Скрипты идемпотентны, поэтому существующие таблицы и данные не трогаются,
// а удалённые создаются снова.
func Reapply(db *DB) error {
	return runMigrations(db, true)
}

func runMigrations(db *DB, reapply bool) error {
	source, err := iofs.New(migrationsFS, "migrations/"+string(db.Dialect))
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	conn, err := sql.Open(db.driver, db.dsn)
	if err != nil {
		return fmt.Errorf("failed to open migration connection: %w", err)
	}

	var (
		driver migratedb.Driver
		name   string
	)
	switch db.Dialect {
	case Postgres:
		name = "pgx5"
		driver, err = migratepgx.WithInstance(conn, &migratepgx.Config{})
	case SQLite:
		name = "sqlite"
		driver, err = migratesqlite.WithInstance(conn, &migratesqlite.Config{})
	default:
		err = fmt.Errorf("unsupported dialect %q", db.Dialect)
	}
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to init migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, name, driver)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to init migrations: %w", err)
	}
	defer m.Close()

	// Незавершённая миграция: откатываем маркер на шаг и повторяем,
	// все скрипты идемпотентны.
	if reapply {
		if err := m.Force(migratedb.NilVersion); err != nil {
			return fmt.Errorf("failed to reset schema marker: %w", err)
		}
	} else if version, dirty, verr := m.Version(); verr == nil && dirty {
		prev := int(version) - 1
		if prev < 1 {
			prev = migratedb.NilVersion
		}
		if err := m.Force(prev); err != nil {
			return fmt.Errorf("failed to reset dirty migration: %w", err)
		}
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, _ := m.Version()
	if db.Logger != nil {
		db.Logger.Info("migrations applied",
			zap.String("dialect", string(db.Dialect)),
			zap.Uint("version", version),
			zap.Bool("dirty", dirty),
		)
	}
	return nil
}

// Installer лениво разворачивает схему при первом обращении.
// Маркер установки — строка schema_migrations; пока он совпадает
// с SchemaVersion, повторная установка пропускается. После Invalidate
// маркеру не доверяем: скрипты прогоняются заново через Reapply.
type Installer struct {
	db        *DB
	mu        sync.Mutex
	installed atomic.Bool
	suspect   atomic.Bool
}

// NewInstaller создаёт установщик схемы для подключения.
func NewInstaller(db *DB) *Installer {
	return &Installer{db: db}
}

// EnsureInstalled проверяет маркер версии и при необходимости применяет миграции.
func (i *Installer) EnsureInstalled(ctx context.Context) error {
	if i.installed.Load() {
		return nil
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.installed.Load() {
		return nil
	}

	version, dirty, err := i.Marker(ctx)
	markerOK := err == nil && !dirty && version >= SchemaVersion
	switch {
	case markerOK && !i.suspect.Load():
	case markerOK:
		err = Reapply(i.db)
	default:
		err = Migrate(i.db)
	}
	if err != nil {
		return err
	}
	i.suspect.Store(false)
	i.installed.Store(true)
	return nil
}

// Invalidate сбрасывает признак установки после ошибки хранилища.
// Следующий EnsureInstalled восстановит недостающие таблицы,
// даже если маркер версии цел.
func (i *Installer) Invalidate() {
	i.suspect.Store(true)
	i.installed.Store(false)
}

// Installed сообщает, подтверждена ли установка в этом процессе.
func (i *Installer) Installed() bool {
	return i.installed.Load()
}

// Marker читает текущую версию схемы из таблицы schema_migrations.
func (i *Installer) Marker(ctx context.Context) (version uint, dirty bool, err error) {
	var v int64
	row := i.db.SQL.QueryRowContext(ctx, `SELECT version, dirty FROM schema_migrations LIMIT 1`)
	if err := row.Scan(&v, &dirty); err != nil {
		return 0, false, fmt.Errorf("failed to read schema marker: %w", err)
	}
	if v < 0 {
		return 0, dirty, nil
	}
	return uint(v), dirty, nil
}
