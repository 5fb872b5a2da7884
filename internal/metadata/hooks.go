package metadata

import (
	"context"

	"go.uber.org/zap"

	"github.com/Totarae/UTMBuilder/internal/payload"
)

// SettingsReader отдаёт состояние переключателя метаданных.
type SettingsReader interface {
	Enabled(ctx context.Context) bool
}

// Hooks связывает жизненный цикл ссылки с хранилищем метаданных.
// Методы вызываются после успешной операции над ссылкой и ничего не возвращают.
type Hooks struct {
	store    payload.Store
	settings SettingsReader
	logger   *zap.Logger
}

// NewHooks создаёт обработчики событий ссылки.
func NewHooks(store payload.Store, settings SettingsReader, logger *zap.Logger) *Hooks {
	return &Hooks{store: store, settings: settings, logger: logger}
}

// LinkCreated вызывается после создания ссылки.
func (h *Hooks) LinkCreated(ctx context.Context, keyword string, ok bool, values payload.Values) {
	if !ok {
		return
	}
	cfg := payload.Config{Enabled: h.settings.Enabled(ctx)}
	p := payload.Derive(values, cfg)
	h.logger.Debug("link created", zap.String("keyword", keyword), zap.Stringer("action", p.Action))
	payload.Apply(ctx, h.store, p, keyword, "")
}

// LinkEdited вызывается после изменения ссылки, в том числе переименования.
// При выключенной настройке метаданные ссылки удаляются.
func (h *Hooks) LinkEdited(ctx context.Context, oldKeyword, newKeyword string, ok bool, values payload.Values) {
	if !ok {
		return
	}
	cfg := payload.Config{Enabled: h.settings.Enabled(ctx)}

	p := payload.Payload{Action: payload.Delete}
	if cfg.Enabled {
		p = payload.Derive(values, cfg)
	}
	h.logger.Debug("link edited",
		zap.String("old_keyword", oldKeyword),
		zap.String("keyword", newKeyword),
		zap.Stringer("action", p.Action),
	)
	payload.Apply(ctx, h.store, p, newKeyword, oldKeyword)
}

// LinkDeleted вызывается после удаления ссылки.
func (h *Hooks) LinkDeleted(ctx context.Context, keyword string, rowsAffected int64) {
	if rowsAffected <= 0 {
		return
	}
	h.store.Delete(ctx, keyword)
}
