package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Totarae/UTMBuilder/internal/auth"
	"github.com/Totarae/UTMBuilder/internal/database"
	"github.com/Totarae/UTMBuilder/internal/handlers"
	"github.com/Totarae/UTMBuilder/internal/metadata"
	"github.com/Totarae/UTMBuilder/internal/model"
	"github.com/Totarae/UTMBuilder/internal/payload"
	"github.com/Totarae/UTMBuilder/internal/repositories"
	"github.com/Totarae/UTMBuilder/internal/router"
	"github.com/Totarae/UTMBuilder/internal/service"
	"github.com/Totarae/UTMBuilder/internal/settings"
	"github.com/Totarae/UTMBuilder/internal/suggest"
	"github.com/Totarae/UTMBuilder/internal/utm"
)

type testApp struct {
	router   http.Handler
	store    *metadata.Store
	settings *settings.Service
}

// newTestApp собирает приложение целиком поверх in-memory SQLite.
func newTestApp(t testing.TB) *testApp {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()

	db, err := database.NewSQLite(ctx, database.MemoryDSN(t.Name()), logger)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, database.Migrate(db))

	metaRepo := repositories.NewMetaRepository(db)
	suggestions := suggest.NewService(metaRepo, suggest.NewLRUCache(64, time.Minute), logger)
	store := metadata.NewStore(metaRepo, logger,
		metadata.WithInstaller(database.NewInstaller(db)),
		metadata.WithInvalidator(suggestions),
	)

	st := settings.NewService(repositories.NewSettingsRepository(db), logger, true)
	require.NoError(t, st.Activate(ctx))

	links := service.NewShortenerService(
		repositories.NewURLRepository(db),
		metadata.NewHooks(store, st, logger),
		logger,
		"http://localhost:8080",
	)
	h := handlers.NewHandler(links, store, suggestions, st, auth.New("test-secret"), logger)

	return &testApp{router: router.NewRouter(h, logger, nil), store: store, settings: st}
}

func (a *testApp) do(t testing.TB, method, target string, form url.Values, cookies ...*http.Cookie) *http.Response {
	t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec.Result()
}

func decode[T any](t testing.TB, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func linkForm(rawURL, keyword string, extra url.Values) url.Values {
	v := url.Values{"url": {rawURL}, "keyword": {keyword}, "title": {"Title"}}
	for k, vs := range extra {
		v[k] = vs
	}
	return v
}

func utmPayload() url.Values {
	return payload.Encode("https://example.com/page?ref=1", utm.Fields{
		utm.Source:   "newsletter",
		utm.Medium:   "email",
		utm.Campaign: "spring",
	})
}

func TestCreateLink_WithMetadata(t *testing.T) {
	app := newTestApp(t)
	merged := "https://example.com/page?ref=1&utm_source=newsletter&utm_medium=email&utm_campaign=spring"

	resp := app.do(t, http.MethodPost, "/api/links", linkForm(merged, "abc1", utmPayload()))
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	link := decode[model.LinkResponse](t, resp)
	assert.Equal(t, "abc1", link.Keyword)
	assert.Equal(t, merged, link.URL)
	assert.Equal(t, "http://localhost:8080/abc1", link.ShortURL)

	meta := app.do(t, http.MethodGet, "/api/links/abc1/meta", nil)
	defer meta.Body.Close()
	require.Equal(t, http.StatusOK, meta.StatusCode)
	rec := decode[model.MetaRecord](t, meta)
	assert.Equal(t, "https://example.com/page?ref=1", rec.OriginalURL)
	assert.Equal(t, "newsletter", rec.Source)
	assert.Equal(t, "spring", rec.Campaign)
}

func TestCreateLink_WithoutPayload(t *testing.T) {
	app := newTestApp(t)

	resp := app.do(t, http.MethodPost, "/api/links", linkForm("https://example.com", "abc1", nil))
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	meta := app.do(t, http.MethodGet, "/api/links/abc1/meta", nil)
	defer meta.Body.Close()
	assert.Equal(t, http.StatusNotFound, meta.StatusCode)
}

func TestCreateLink_SettingDisabled(t *testing.T) {
	app := newTestApp(t)
	require.NoError(t, app.settings.SetEnabled(context.Background(), false))

	resp := app.do(t, http.MethodPost, "/api/links", linkForm("https://example.com", "abc1", utmPayload()))
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	_, ok := app.store.Get(context.Background(), "abc1")
	assert.False(t, ok)
}

func TestCreateLink_Errors(t *testing.T) {
	app := newTestApp(t)

	resp := app.do(t, http.MethodPost, "/api/links", linkForm("example.com/page", "abc1", nil))
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, utm.FieldURL, decode[model.ErrorResponse](t, resp).Field)

	ok := app.do(t, http.MethodPost, "/api/links", linkForm("https://example.com", "abc1", nil))
	defer ok.Body.Close()
	require.Equal(t, http.StatusCreated, ok.StatusCode)

	dup := app.do(t, http.MethodPost, "/api/links", linkForm("https://example.org", "abc1", nil))
	defer dup.Body.Close()
	assert.Equal(t, http.StatusConflict, dup.StatusCode)

	bad := app.do(t, http.MethodPost, "/api/links", linkForm("https://example.org", "%%%", nil))
	defer bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestEditLink_RenameMovesMetadata(t *testing.T) {
	app := newTestApp(t)

	resp := app.do(t, http.MethodPost, "/api/links", linkForm("https://example.com/page?ref=1", "abc1", utmPayload()))
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Форма сборки выключена: полей метаданных нет.
	edit := app.do(t, http.MethodPut, "/api/links/abc1", linkForm("", "xyz9", nil))
	defer edit.Body.Close()
	require.Equal(t, http.StatusOK, edit.StatusCode)
	assert.Equal(t, "xyz9", decode[model.LinkResponse](t, edit).Keyword)

	old := app.do(t, http.MethodGet, "/api/links/abc1/meta", nil)
	defer old.Body.Close()
	assert.Equal(t, http.StatusNotFound, old.StatusCode)

	moved := app.do(t, http.MethodGet, "/api/links/xyz9/meta", nil)
	defer moved.Body.Close()
	require.Equal(t, http.StatusOK, moved.StatusCode)
	assert.Equal(t, "newsletter", decode[model.MetaRecord](t, moved).Source)
}

func TestEditLink_UncheckedFlagDeletes(t *testing.T) {
	app := newTestApp(t)

	resp := app.do(t, http.MethodPost, "/api/links", linkForm("https://example.com", "abc1", utmPayload()))
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	edit := app.do(t, http.MethodPut, "/api/links/abc1", linkForm("", "", url.Values{payload.FieldEnabled: {"0"}}))
	defer edit.Body.Close()
	require.Equal(t, http.StatusOK, edit.StatusCode)

	_, ok := app.store.Get(context.Background(), "abc1")
	assert.False(t, ok)
}

func TestEditLink_NotFound(t *testing.T) {
	app := newTestApp(t)
	resp := app.do(t, http.MethodPut, "/api/links/missing", linkForm("https://example.com", "", nil))
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteLink(t *testing.T) {
	app := newTestApp(t)

	resp := app.do(t, http.MethodPost, "/api/links", linkForm("https://example.com", "abc1", utmPayload()))
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	del := app.do(t, http.MethodDelete, "/api/links/abc1", nil)
	defer del.Body.Close()
	require.Equal(t, http.StatusOK, del.StatusCode)
	assert.EqualValues(t, 1, decode[model.DeleteResponse](t, del).Deleted)

	_, ok := app.store.Get(context.Background(), "abc1")
	assert.False(t, ok)

	again := app.do(t, http.MethodDelete, "/api/links/abc1", nil)
	defer again.Body.Close()
	require.Equal(t, http.StatusOK, again.StatusCode)
	assert.EqualValues(t, 0, decode[model.DeleteResponse](t, again).Deleted)
}

func TestResponseURL(t *testing.T) {
	app := newTestApp(t)

	resp := app.do(t, http.MethodPost, "/api/links", linkForm("https://example.com", "abc1", nil))
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	redirect := app.do(t, http.MethodGet, "/abc1", nil)
	defer redirect.Body.Close()
	assert.Equal(t, http.StatusTemporaryRedirect, redirect.StatusCode)
	assert.Equal(t, "https://example.com", redirect.Header.Get("Location"))

	missing := app.do(t, http.MethodGet, "/nonexistent", nil)
	defer missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestEditRow(t *testing.T) {
	app := newTestApp(t)
	merged := "https://example.com/page?ref=1&utm_source=newsletter&utm_medium=email&utm_campaign=spring"

	resp := app.do(t, http.MethodPost, "/api/links", linkForm(merged, "abc1", utmPayload()))
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	row := app.do(t, http.MethodGet, "/api/links/abc1/edit-row", nil)
	defer row.Body.Close()
	require.Equal(t, http.StatusOK, row.StatusCode)
	assert.Contains(t, row.Header.Get("Content-Type"), "text/html")

	var b bytes.Buffer
	_, err := b.ReadFrom(row.Body)
	require.NoError(t, err)
	assert.Contains(t, b.String(), `id="edit-utm-original-url-abc1"`)
	assert.Contains(t, b.String(), `value="https://example.com/page?ref=1"`)
}

func suggestSession(t *testing.T, app *testApp) (*http.Cookie, string) {
	t.Helper()
	resp := app.do(t, http.MethodGet, "/api/nonce", nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	cookies := resp.Cookies()
	require.NotEmpty(t, cookies)
	nonce := decode[model.NonceResponse](t, resp)
	assert.Equal(t, auth.SuggestAction, nonce.Action)
	return cookies[0], nonce.Token
}

func TestSuggest(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	for kw, src := range map[string]string{"a": "newsletter", "b": "news", "c": "other"} {
		app.store.Upsert(ctx, kw, model.MetaData{Source: src})
	}

	cookie, token := suggestSession(t, app)

	q := url.Values{"field": {"utm_source"}, "search": {"new"}, "limit": {"10"}, "token": {token}}
	resp := app.do(t, http.MethodGet, "/api/suggest?"+q.Encode(), nil, cookie)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[model.SuggestResponse](t, resp)
	assert.True(t, body.Success)
	assert.Equal(t, "utm_source", body.Field)
	assert.Equal(t, []string{"news", "newsletter"}, body.Values)
	assert.False(t, body.HasMore)

	// POST с теми же полями.
	post := app.do(t, http.MethodPost, "/api/suggest", q, cookie)
	defer post.Body.Close()
	assert.Equal(t, http.StatusOK, post.StatusCode)
}

func TestSuggest_Rejected(t *testing.T) {
	app := newTestApp(t)
	cookie, token := suggestSession(t, app)

	tests := []struct {
		name    string
		query   url.Values
		cookies []*http.Cookie
		status  int
	}{
		{
			name:    "без токена",
			query:   url.Values{"field": {"utm_source"}},
			cookies: []*http.Cookie{cookie},
			status:  http.StatusForbidden,
		},
		{
			name:   "токен без сессии",
			query:  url.Values{"field": {"utm_source"}, "token": {token}},
			status: http.StatusForbidden,
		},
		{
			name:    "неизвестное поле",
			query:   url.Values{"field": {"utm_id"}, "token": {token}},
			cookies: []*http.Cookie{cookie},
			status:  http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := app.do(t, http.MethodGet, "/api/suggest?"+tt.query.Encode(), nil, tt.cookies...)
			defer resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
			body := decode[model.ErrorResponse](t, resp)
			assert.False(t, body.Success)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestSettings(t *testing.T) {
	app := newTestApp(t)

	get := app.do(t, http.MethodGet, "/api/settings", nil)
	defer get.Body.Close()
	assert.Equal(t, http.StatusOK, get.StatusCode)
	assert.True(t, decode[model.SettingsResponse](t, get).Enabled)

	cookie, _ := suggestSession(t, app)
	put := func(body string, cookies ...*http.Cookie) int {
		req := httptest.NewRequest(http.MethodPut, "/api/settings", strings.NewReader(body))
		for _, c := range cookies {
			req.AddCookie(c)
		}
		rec := httptest.NewRecorder()
		app.router.ServeHTTP(rec, req)
		return rec.Code
	}

	t.Run("без сессии", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, put(`{"enabled":false}`))
		assert.True(t, app.settings.Enabled(context.Background()))
	})

	t.Run("поддельная сессия", func(t *testing.T) {
		forged := &http.Cookie{Name: cookie.Name, Value: "user:deadbeef"}
		assert.Equal(t, http.StatusForbidden, put(`{"enabled":false}`, forged))
		assert.True(t, app.settings.Enabled(context.Background()))
	})

	t.Run("с сессией", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, put(`{"enabled":false}`, cookie))
		assert.False(t, app.settings.Enabled(context.Background()))
	})

	t.Run("пустое тело", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, put(`{}`, cookie))
	})
}

func TestPingAndMetrics(t *testing.T) {
	app := newTestApp(t)

	ping := app.do(t, http.MethodGet, "/ping", nil)
	defer ping.Body.Close()
	assert.Equal(t, http.StatusOK, ping.StatusCode)

	metrics := app.do(t, http.MethodGet, "/metrics", nil)
	defer metrics.Body.Close()
	assert.Equal(t, http.StatusOK, metrics.StatusCode)
}
