package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	cookieName   = "auth_token"
	cookieMaxAge = 365 * 24 * 60 * 60 // 1 год

	// SuggestAction — действие, на которое выдаётся токен автодополнения.
	SuggestAction = "utm_builder_suggest"
	// TokenTTL — время жизни токена действия.
	TokenTTL = 12 * time.Hour
)

// ErrUnauthorized — токен отсутствует, подделан, просрочен или выдан на другое действие.
var ErrUnauthorized = errors.New("unauthorized")

type Auth struct {
	SecretKey string
	now       func() time.Time
}

func New(secret string) *Auth {
	return &Auth{SecretKey: secret, now: time.Now}
}

type actionClaims struct {
	Action string `json:"act"`
	jwt.RegisteredClaims
}

// Создать подпись
func (a *Auth) sign(userID string) string {
	mac := hmac.New(sha256.New, []byte(a.SecretKey))
	mac.Write([]byte(userID))
	return hex.EncodeToString(mac.Sum(nil))
}

// Создать куки типа: auth_token=userID:signature
func (a *Auth) issueCookie(w http.ResponseWriter) string {
	userID := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    a.SignCookieValue(userID),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   cookieMaxAge,
	})
	return userID
}

// GetOrSetUserID возвращает идентификатор сессии из куки, выдавая новую при необходимости.
func (a *Auth) GetOrSetUserID(w http.ResponseWriter, r *http.Request) string {
	if id, ok := a.ValidateUserID(r); ok {
		return id
	}
	return a.issueCookie(w)
}

// проверить, есть ли у запроса подписанная сессия
func (a *Auth) ValidateUserID(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(cookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}

	parts := strings.SplitN(cookie.Value, ":", 2)
	if len(parts) != 2 || !hmac.Equal([]byte(a.sign(parts[0])), []byte(parts[1])) {
		return "", false
	}

	return parts[0], true
}

// SignCookieValue формирует значение куки для идентификатора.
func (a *Auth) SignCookieValue(userID string) string {
	return fmt.Sprintf("%s:%s", userID, a.sign(userID))
}

// IssueToken выдаёт токен, привязанный к пользователю и действию.
func (a *Auth) IssueToken(userID, action string) (string, error) {
	now := a.now()
	claims := &actionClaims{
		Action: action,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(a.SecretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// VerifyToken проверяет подпись, срок, пользователя и действие токена.
func (a *Auth) VerifyToken(token, userID, action string) error {
	if token == "" || userID == "" {
		return ErrUnauthorized
	}
	claims := &actionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(a.SecretKey), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil || !parsed.Valid {
		return ErrUnauthorized
	}
	if claims.Subject != userID || claims.Action != action {
		return ErrUnauthorized
	}
	return nil
}
