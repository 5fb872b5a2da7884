// Package suggest отдаёт ранее использованные значения UTM-полей
// для автодополнения.
package suggest

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/Totarae/UTMBuilder/internal/utm"
)

// Границы размера ответа.
const (
	MinLimit     = 5
	MaxLimit     = 100
	DefaultLimit = 10
)

// ErrUnknownField — поле не входит в пять известных UTM-ключей.
var ErrUnknownField = errors.New("unknown UTM field")

// Source отдаёт уникальные значения поля.
type Source interface {
	DistinctValues(ctx context.Context, field utm.Key, search string, limit int) ([]string, error)
}

// Cache хранит готовые ответы. Реализации: LRUCache и RedisCache.
type Cache interface {
	Get(ctx context.Context, key string) ([]string, bool)
	Set(ctx context.Context, key string, values []string)
	Purge(ctx context.Context)
}

type Result struct {
	Field   utm.Key
	Values  []string
	HasMore bool
}

// Service выбирает подсказки из хранилища метаданных.
type Service struct {
	source Source
	cache  Cache
	logger *zap.Logger

	// generation растёт при каждом Purge. Ответ, прочитанный до сброса,
	// в кэш не попадает.
	generation atomic.Uint64
}

// NewService создаёт сервис подсказок. cache может быть nil.
func NewService(source Source, cache Cache, logger *zap.Logger) *Service {
	return &Service{source: source, cache: cache, logger: logger}
}

// ClampLimit приводит лимит к диапазону [MinLimit, MaxLimit].
func ClampLimit(limit int) int {
	if limit < MinLimit {
		return MinLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Suggest возвращает уникальные непустые значения поля, содержащие search,
// в порядке возрастания. HasMore выставляется, когда ответ упёрся в лимит.
func (s *Service) Suggest(ctx context.Context, field, search string, limit int) (Result, error) {
	key, ok := utm.ParseKey(field)
	if !ok {
		return Result{Values: []string{}}, ErrUnknownField
	}
	limit = ClampLimit(limit)

	cacheKey := string(key) + "|" + strconv.Itoa(limit) + "|" + search
	values, hit := s.lookup(ctx, cacheKey)
	if !hit {
		gen := s.generation.Load()
		var err error
		values, err = s.source.DistinctValues(ctx, key, search, limit)
		if err != nil {
			return Result{Field: key, Values: []string{}}, fmt.Errorf("failed to load suggestions: %w", err)
		}
		if len(values) > limit {
			values = values[:limit]
		}
		if s.cache != nil && s.generation.Load() == gen {
			s.cache.Set(ctx, cacheKey, values)
		}
	}
	if values == nil {
		values = []string{}
	}

	return Result{
		Field:   key,
		Values:  values,
		HasMore: len(values) >= limit,
	}, nil
}

// Purge сбрасывает кэш после изменения метаданных.
func (s *Service) Purge(ctx context.Context) {
	s.generation.Add(1)
	if s.cache != nil {
		s.cache.Purge(ctx)
	}
}

func (s *Service) lookup(ctx context.Context, key string) ([]string, bool) {
	if s.cache == nil {
		return nil, false
	}
	return s.cache.Get(ctx, key)
}
