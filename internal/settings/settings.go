// Package settings управляет переключателем сбора UTM-метаданных.
package settings

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/Totarae/UTMBuilder/internal/repositories"
)

// KeyMetaEnabled — ключ настройки в таблице settings.
const KeyMetaEnabled = "utm_meta_enabled"

// Service читает и изменяет переключатель. Значение хранится в базе
// и читается заново при каждой операции.
type Service struct {
	repo       repositories.SettingsRepositoryInterface
	logger     *zap.Logger
	defaultVal bool
}

// NewService создаёт сервис настроек. defaultVal используется, пока значение
// не сохранено или база недоступна.
func NewService(repo repositories.SettingsRepositoryInterface, logger *zap.Logger, defaultVal bool) *Service {
	return &Service{repo: repo, logger: logger, defaultVal: defaultVal}
}

// Activate сохраняет значение по умолчанию при первом запуске.
// Уже сохранённое значение не перезаписывается.
func (s *Service) Activate(ctx context.Context) error {
	_, err := s.repo.Get(ctx, KeyMetaEnabled)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("failed to read %s: %w", KeyMetaEnabled, err)
	}
	if err := s.repo.Set(ctx, KeyMetaEnabled, formatBool(s.defaultVal)); err != nil {
		return err
	}
	s.logger.Info("metadata setting initialised", zap.Bool("enabled", s.defaultVal))
	return nil
}

// Enabled возвращает текущее состояние переключателя.
func (s *Service) Enabled(ctx context.Context) bool {
	st, err := s.repo.Get(ctx, KeyMetaEnabled)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			s.logger.Warn("failed to read metadata setting, using default", zap.Error(err))
		}
		return s.defaultVal
	}
	v, err := strconv.ParseBool(st.Value)
	if err != nil {
		s.logger.Warn("malformed metadata setting", zap.String("value", st.Value))
		return s.defaultVal
	}
	return v
}

// SetEnabled сохраняет новое состояние. Выключение не удаляет накопленные записи.
func (s *Service) SetEnabled(ctx context.Context, enabled bool) error {
	if err := s.repo.Set(ctx, KeyMetaEnabled, formatBool(enabled)); err != nil {
		return err
	}
	s.logger.Info("metadata setting changed", zap.Bool("enabled", enabled))
	return nil
}

func formatBool(v bool) string {
	if v {
		return "1"
	}
	return "0"
}
