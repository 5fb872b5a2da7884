package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Totarae/UTMBuilder/internal/database"
	"github.com/Totarae/UTMBuilder/internal/model"
)

// SettingsRepositoryInterface описывает доступ к таблице settings.
type SettingsRepositoryInterface interface {
	// Get возвращает настройку по ключу. Если не найдена — ErrNotFound.
	Get(ctx context.Context, key string) (*model.Setting, error)
	// Set создаёт или обновляет настройку (upsert).
	Set(ctx context.Context, key, value string) error
}

// SettingsRepository реализует SettingsRepositoryInterface.
type SettingsRepository struct {
	DB *database.DB
}

// NewSettingsRepository создаёт репозиторий настроек.
func NewSettingsRepository(db *database.DB) *SettingsRepository {
	return &SettingsRepository{DB: db}
}

func (r *SettingsRepository) Get(ctx context.Context, key string) (*model.Setting, error) {
	s := &model.Setting{}
	err := r.DB.SQL.QueryRowContext(ctx,
		r.DB.Rebind(`SELECT key, value, updated_at FROM settings WHERE key = ?`), key,
	).Scan(&s.Key, &s.Value, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get settings[%s]: %w", key, err)
	}
	return s, nil
}

// Set создаёт или обновляет настройку (INSERT ... ON CONFLICT DO UPDATE).
func (r *SettingsRepository) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO settings (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE
		SET value = excluded.value,
			updated_at = excluded.updated_at`

	if _, err := r.DB.SQL.ExecContext(ctx, r.DB.Rebind(query), key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to save settings[%s]: %w", key, err)
	}
	return nil
}
