package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Totarae/UTMBuilder/internal/auth"
	"github.com/Totarae/UTMBuilder/internal/editrow"
	"github.com/Totarae/UTMBuilder/internal/model"
	"github.com/Totarae/UTMBuilder/internal/payload"
	"github.com/Totarae/UTMBuilder/internal/service"
	"github.com/Totarae/UTMBuilder/internal/suggest"
	"github.com/Totarae/UTMBuilder/internal/utm"
)

// MetaReader отдаёт сохранённые метаданные ссылки.
type MetaReader interface {
	Get(ctx context.Context, keyword string) (*model.MetaRecord, bool)
}

// SettingsService управляет переключателем метаданных.
type SettingsService interface {
	Enabled(ctx context.Context) bool
	SetEnabled(ctx context.Context, enabled bool) error
}

type Handler struct {
	Links       *service.ShortenerService
	Meta        MetaReader
	Suggestions *suggest.Service
	Settings    SettingsService
	Auth        *auth.Auth
	Logger      *zap.Logger
}

func NewHandler(
	links *service.ShortenerService,
	meta MetaReader,
	suggestions *suggest.Service,
	settings SettingsService,
	authService *auth.Auth,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Links:       links,
		Meta:        meta,
		Suggestions: suggestions,
		Settings:    settings,
		Auth:        authService,
		Logger:      logger,
	}
}

// CreateLink обрабатывает POST /api/links (form-encoded: url, keyword, title и поля метаданных).
func (h *Handler) CreateLink(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.writeError(w, http.StatusBadRequest, "malformed form")
		return
	}
	in := service.LinkInput{
		URL:     r.PostForm.Get("url"),
		Keyword: r.PostForm.Get("keyword"),
		Title:   r.PostForm.Get("title"),
	}

	link, err := h.Links.Create(r.Context(), in, payload.FormValues(r.PostForm))
	if err != nil {
		h.writeLinkError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, model.LinkResponse{Link: *link, ShortURL: h.Links.ShortURL(link.Keyword)})
}

// EditLink обрабатывает PUT /api/links/{keyword}. Поле keyword в теле переименовывает ссылку.
func (h *Handler) EditLink(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.writeError(w, http.StatusBadRequest, "malformed form")
		return
	}
	in := service.LinkInput{
		URL:     r.PostForm.Get("url"),
		Keyword: r.PostForm.Get("keyword"),
		Title:   r.PostForm.Get("title"),
	}

	link, err := h.Links.Edit(r.Context(), chi.URLParam(r, "keyword"), in, payload.FormValues(r.PostForm))
	if err != nil {
		h.writeLinkError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, model.LinkResponse{Link: *link, ShortURL: h.Links.ShortURL(link.Keyword)})
}

// DeleteLink обрабатывает DELETE /api/links/{keyword}.
func (h *Handler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	n, err := h.Links.Delete(r.Context(), chi.URLParam(r, "keyword"))
	if err != nil {
		h.writeLinkError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, model.DeleteResponse{Deleted: n})
}

// GetMeta обрабатывает GET /api/links/{keyword}/meta.
func (h *Handler) GetMeta(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.Meta.Get(r.Context(), chi.URLParam(r, "keyword"))
	if !ok {
		h.writeError(w, http.StatusNotFound, "metadata not found")
		return
	}
	h.writeJSON(w, http.StatusOK, rec)
}

// EditRow обрабатывает GET /api/links/{keyword}/edit-row: строка редактирования
// с полем исходного URL.
func (h *Handler) EditRow(w http.ResponseWriter, r *http.Request) {
	link, err := h.Links.Get(r.Context(), chi.URLParam(r, "keyword"))
	if err != nil {
		h.writeLinkError(w, err)
		return
	}

	originalURL := utm.StripFields(link.URL)
	if rec, ok := h.Meta.Get(r.Context(), link.Keyword); ok && rec.OriginalURL != "" {
		originalURL = rec.OriginalURL
	}

	markup, err := editrow.Render(link, originalURL)
	if err != nil {
		h.Logger.Error("failed to render edit row", zap.String("keyword", link.Keyword), zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(markup))
}

// ResponseURL перенаправляет GET /{keyword} на длинный URL.
func (h *Handler) ResponseURL(w http.ResponseWriter, r *http.Request) {
	link, err := h.Links.Get(r.Context(), chi.URLParam(r, "keyword"))
	if err != nil {
		if errors.Is(err, service.ErrLinkNotFound) {
			http.NotFound(w, r)
			return
		}
		h.Logger.Error("failed to resolve link", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	// Устанавливаем заголовок Location и код 307
	w.Header().Set("Location", link.URL)
	w.WriteHeader(http.StatusTemporaryRedirect)
}

// Nonce выдаёт токен автодополнения для сессии пользователя.
func (h *Handler) Nonce(w http.ResponseWriter, r *http.Request) {
	userID := h.Auth.GetOrSetUserID(w, r)
	token, err := h.Auth.IssueToken(userID, auth.SuggestAction)
	if err != nil {
		h.Logger.Error("failed to issue token", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.writeJSON(w, http.StatusOK, model.NonceResponse{Token: token, Action: auth.SuggestAction})
}

// Suggest обрабатывает GET|POST /api/suggest.
func (h *Handler) Suggest(w http.ResponseWriter, r *http.Request) {
	field := r.FormValue("field")
	userID, _ := h.Auth.ValidateUserID(r)
	if err := h.Auth.VerifyToken(r.FormValue("token"), userID, auth.SuggestAction); err != nil {
		h.Logger.Warn("suggest rejected: invalid token", zap.String("field", field))
		h.writeError(w, http.StatusForbidden, "invalid token")
		return
	}

	limit, err := strconv.Atoi(r.FormValue("limit"))
	if err != nil {
		limit = suggest.DefaultLimit
	}

	res, err := h.Suggestions.Suggest(r.Context(), field, r.FormValue("search"), limit)
	if err != nil {
		if errors.Is(err, suggest.ErrUnknownField) {
			h.Logger.Warn("suggest rejected: unknown field", zap.String("field", field))
			h.writeError(w, http.StatusBadRequest, "invalid field")
			return
		}
		h.Logger.Error("suggest failed", zap.String("field", field), zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.writeJSON(w, http.StatusOK, model.SuggestResponse{
		Success: true,
		Field:   string(res.Field),
		Values:  res.Values,
		HasMore: res.HasMore,
	})
}

// GetSettings обрабатывает GET /api/settings.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, model.SettingsResponse{Enabled: h.Settings.Enabled(r.Context())})
}

// UpdateSettings обрабатывает PUT /api/settings с телом {"enabled": bool}.
// Без подписанной сессионной куки отвечает 403.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.Auth.ValidateUserID(r); !ok {
		h.Logger.Warn("settings update rejected: no session")
		h.writeError(w, http.StatusForbidden, "session required")
		return
	}
	var req model.SettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Enabled == nil {
		h.writeError(w, http.StatusBadRequest, "enabled is required")
		return
	}
	if err := h.Settings.SetEnabled(r.Context(), *req.Enabled); err != nil {
		h.Logger.Error("failed to save settings", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.writeJSON(w, http.StatusOK, model.SettingsResponse{Enabled: *req.Enabled})
}

// Ping проверяет доступность базы.
func (h *Handler) Ping(w http.ResponseWriter, r *http.Request) {
	if err := h.Links.Ping(r.Context()); err != nil {
		h.Logger.Error("ping failed", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) writeLinkError(w http.ResponseWriter, err error) {
	var verr *utm.ValidationError
	switch {
	case errors.As(err, &verr):
		h.writeJSON(w, http.StatusBadRequest, model.ErrorResponse{
			Error:   verr.Error(),
			Field:   verr.Field,
			Missing: verr.Labels(),
		})
	case errors.Is(err, service.ErrInvalidKeyword):
		h.writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: err.Error(), Field: "keyword"})
	case errors.Is(err, service.ErrLinkNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrKeywordExists):
		h.writeError(w, http.StatusConflict, err.Error())
	default:
		h.Logger.Error("link operation failed", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Logger.Error("failed to encode response", zap.Error(err))
	}
}
