package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndValidate(t *testing.T) {
	a := New("test-secret")
	userID := "user123"
	signed := a.SignCookieValue(userID)

	parts := strings.SplitN(signed, ":", 2)
	assert.Len(t, parts, 2)
	assert.Equal(t, userID, parts[0])
	assert.Equal(t, a.SignCookieValue(userID), signed)
}

func TestIssueCookie(t *testing.T) {
	a := New("test-secret")
	rec := httptest.NewRecorder()
	userID := a.GetOrSetUserID(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.NotEmpty(t, userID)

	resp := rec.Result()
	defer resp.Body.Close()

	cookies := resp.Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, "auth_token", cookies[0].Name)
}

func TestGetOrSetUserID_Valid(t *testing.T) {
	a := New("test-secret")
	userID := "test-user"

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "auth_token", Value: a.SignCookieValue(userID)})

	rec := httptest.NewRecorder()
	assert.Equal(t, userID, a.GetOrSetUserID(rec, req))
	resp := rec.Result()
	defer resp.Body.Close()
	assert.Empty(t, resp.Cookies(), "валидная сессия не переиздаётся")
}

func TestGetOrSetUserID_Invalid(t *testing.T) {
	a := New("test-secret")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "auth_token", Value: "invalidformat"})

	rec := httptest.NewRecorder()
	userID := a.GetOrSetUserID(rec, req)
	assert.NotEmpty(t, userID)
	assert.NotEqual(t, "invalidformat", userID)
}

func TestValidateUserID_Invalid(t *testing.T) {
	a := New("test-secret")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "auth_token", Value: "someuser:bad-signature"})

	id, ok := a.ValidateUserID(req)
	assert.False(t, ok)
	assert.Empty(t, id)
}

func TestActionToken(t *testing.T) {
	a := New("test-secret")

	token, err := a.IssueToken("user-1", SuggestAction)
	require.NoError(t, err)

	assert.NoError(t, a.VerifyToken(token, "user-1", SuggestAction))

	tests := []struct {
		name   string
		token  string
		user   string
		action string
	}{
		{"пустой токен", "", "user-1", SuggestAction},
		{"чужой пользователь", token, "user-2", SuggestAction},
		{"другое действие", token, "user-1", "delete_link"},
		{"мусор", "not-a-jwt", "user-1", SuggestAction},
		{"без сессии", token, "", SuggestAction},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, a.VerifyToken(tt.token, tt.user, tt.action), ErrUnauthorized)
		})
	}
}

func TestActionToken_WrongSecret(t *testing.T) {
	token, err := New("secret-a").IssueToken("user-1", SuggestAction)
	require.NoError(t, err)
	assert.ErrorIs(t, New("secret-b").VerifyToken(token, "user-1", SuggestAction), ErrUnauthorized)
}

func TestActionToken_Expired(t *testing.T) {
	a := New("test-secret")
	issued := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return issued }

	token, err := a.IssueToken("user-1", SuggestAction)
	require.NoError(t, err)

	a.now = func() time.Time { return issued.Add(TokenTTL + time.Minute) }
	assert.ErrorIs(t, a.VerifyToken(token, "user-1", SuggestAction), ErrUnauthorized)
}
