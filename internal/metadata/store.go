// Package metadata хранит UTM-метаданные рядом с короткими ссылками.
//
// Хранилище работает по принципу best effort: любые ошибки базы
// логируются и считаются, но никогда не возвращаются в операции над ссылками.
// Запись превращается в no-op, чтение — в «не найдено».
package metadata

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/Totarae/UTMBuilder/internal/model"
	"github.com/Totarae/UTMBuilder/internal/repositories"
)

// ErrInvalidIdentifier — после очистки от ключевого слова ничего не осталось.
var ErrInvalidIdentifier = errors.New("invalid link identifier")

var metaOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "utm_meta_operations_total",
		Help: "Количество операций над UTM-метаданными по типу и результату.",
	},
	[]string{"op", "result"},
)

// Installer разворачивает схему при первом обращении.
type Installer interface {
	EnsureInstalled(ctx context.Context) error
	Invalidate()
}

// Invalidator сбрасывает производные данные после записи, например кэш подсказок.
type Invalidator interface {
	Purge(ctx context.Context)
}

// Option настраивает Store.
type Option func(*Store)

// WithClock подменяет источник текущего времени.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithInstaller включает ленивую установку схемы.
func WithInstaller(i Installer) Option {
	return func(s *Store) { s.installer = i }
}

// WithInvalidator задаёт кэш, который сбрасывается после каждой записи.
func WithInvalidator(inv Invalidator) Option {
	return func(s *Store) { s.invalidator = inv }
}

// Store хранит метаданные и изолирует ошибки базы.
type Store struct {
	repo        repositories.MetaRepositoryInterface
	logger      *zap.Logger
	installer   Installer
	invalidator Invalidator
	now         func() time.Time
}

// NewStore создаёт хранилище поверх репозитория utm_meta.
func NewStore(repo repositories.MetaRepositoryInterface, logger *zap.Logger, opts ...Option) *Store {
	s := &Store{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SanitizeKeyword приводит ключевое слово к виду, в котором оно хранится:
// нижний регистр, только [a-z0-9_-].
func SanitizeKeyword(keyword string) (string, error) {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	var b strings.Builder
	b.Grow(len(keyword))
	for _, r := range keyword {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "", ErrInvalidIdentifier
	}
	return b.String(), nil
}

// Upsert сохраняет метаданные для ключевого слова. Пустые данные удаляют запись.
func (s *Store) Upsert(ctx context.Context, keyword string, data model.MetaData) {
	kw, ok := s.keyword("upsert", keyword)
	if !ok {
		return
	}
	data = data.Sanitized()
	if data.IsEmpty() {
		s.delete(ctx, kw)
		return
	}
	if !s.ensure(ctx, "upsert") {
		return
	}
	if err := s.repo.Upsert(ctx, kw, data, s.now()); err != nil {
		s.fail("upsert", kw, err)
		return
	}
	s.done(ctx, "upsert", true)
}

// Delete удаляет запись. Отсутствие записи не является ошибкой.
func (s *Store) Delete(ctx context.Context, keyword string) {
	kw, ok := s.keyword("delete", keyword)
	if !ok {
		return
	}
	s.delete(ctx, kw)
}

// Move переносит запись при переименовании ссылки.
func (s *Store) Move(ctx context.Context, from, to string) {
	src, ok := s.keyword("move", from)
	if !ok {
		return
	}
	dst, ok := s.keyword("move", to)
	if !ok {
		return
	}
	if src == dst {
		return
	}
	if !s.ensure(ctx, "move") {
		return
	}
	moved, err := s.repo.Move(ctx, src, dst, s.now())
	if err != nil {
		s.fail("move", src, err)
		return
	}
	s.done(ctx, "move", moved)
}

// Get возвращает запись, если она есть. Ошибки чтения дают false.
func (s *Store) Get(ctx context.Context, keyword string) (*model.MetaRecord, bool) {
	kw, ok := s.keyword("get", keyword)
	if !ok {
		return nil, false
	}
	if !s.ensure(ctx, "get") {
		return nil, false
	}
	rec, err := s.repo.Get(ctx, kw)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			metaOperationsTotal.WithLabelValues("get", "miss").Inc()
			return nil, false
		}
		s.fail("get", kw, err)
		return nil, false
	}
	metaOperationsTotal.WithLabelValues("get", "ok").Inc()
	return rec, true
}

func (s *Store) delete(ctx context.Context, kw string) {
	if !s.ensure(ctx, "delete") {
		return
	}
	n, err := s.repo.Delete(ctx, kw)
	if err != nil {
		s.fail("delete", kw, err)
		return
	}
	s.done(ctx, "delete", n > 0)
}

func (s *Store) keyword(op, keyword string) (string, bool) {
	kw, err := SanitizeKeyword(keyword)
	if err != nil {
		s.logger.Debug("metadata operation skipped",
			zap.String("op", op),
			zap.String("keyword", keyword),
			zap.Error(err),
		)
		metaOperationsTotal.WithLabelValues(op, "invalid").Inc()
		return "", false
	}
	return kw, true
}

func (s *Store) ensure(ctx context.Context, op string) bool {
	if s.installer == nil {
		return true
	}
	if err := s.installer.EnsureInstalled(ctx); err != nil {
		s.logger.Error("metadata schema install failed", zap.String("op", op), zap.Error(err))
		metaOperationsTotal.WithLabelValues(op, "error").Inc()
		return false
	}
	return true
}

func (s *Store) fail(op, kw string, err error) {
	s.logger.Error("metadata operation failed",
		zap.String("op", op),
		zap.String("keyword", kw),
		zap.Error(err),
	)
	metaOperationsTotal.WithLabelValues(op, "error").Inc()
	// Схема могла пропасть: следующий вызов восстановит таблицы.
	if s.installer != nil {
		s.installer.Invalidate()
	}
}

func (s *Store) done(ctx context.Context, op string, changed bool) {
	if !changed {
		metaOperationsTotal.WithLabelValues(op, "noop").Inc()
		return
	}
	metaOperationsTotal.WithLabelValues(op, "ok").Inc()
	if s.invalidator != nil {
		s.invalidator.Purge(ctx)
	}
}
