package form

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/Totarae/UTMBuilder/internal/model"
	"github.com/Totarae/UTMBuilder/internal/utm"
)

// ErrForbidden — сервер отклонил токен автодополнения.
var ErrForbidden = errors.New("suggest token rejected")

// HTTPSuggester запрашивает подсказки у эндпоинта /api/suggest.
// Клиенту нужна та же сессия (cookie jar), для которой выдан токен.
type HTTPSuggester struct {
	Client  *http.Client
	BaseURL string

	mu    sync.RWMutex
	token string
}

// NewHTTPSuggester создаёт клиента автодополнения.
func NewHTTPSuggester(client *http.Client, baseURL, token string) *HTTPSuggester {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSuggester{Client: client, BaseURL: strings.TrimSuffix(baseURL, "/"), token: token}
}

// Token возвращает текущий токен автодополнения.
func (h *HTTPSuggester) Token() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

// SetToken заменяет токен, например после повторной выдачи.
func (h *HTTPSuggester) SetToken(token string) {
	h.mu.Lock()
	h.token = token
	h.mu.Unlock()
}

// FetchToken получает токен автодополнения для текущей сессии.
func (h *HTTPSuggester) FetchToken(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.BaseURL+"/api/nonce", nil)
	if err != nil {
		return err
	}
	resp, err := h.Client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to fetch token: status %d", resp.StatusCode)
	}
	var body model.NonceResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("failed to decode token: %w", err)
	}
	h.SetToken(body.Token)
	return nil
}

func (h *HTTPSuggester) Suggest(ctx context.Context, field utm.Key, search string, limit int) ([]string, bool, error) {
	q := url.Values{}
	q.Set("field", string(field))
	q.Set("search", search)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("token", h.Token())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.BaseURL+"/api/suggest?"+q.Encode(), nil)
	if err != nil {
		return nil, false, err
	}
	resp, err := h.Client.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("suggest request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		return nil, false, ErrForbidden
	}

	var body model.SuggestResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, false, fmt.Errorf("failed to decode suggestions: %w", err)
	}
	if !body.Success {
		return nil, false, fmt.Errorf("suggest failed: %s", body.Error)
	}
	return body.Values, body.HasMore, nil
}
