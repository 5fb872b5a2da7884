package util

import (
	"crypto/sha256"
	"encoding/base64"
	"strconv"
	"strings"
)

// KeywordLength — длина сгенерированного ключевого слова.
const KeywordLength = 8

// GenerateKeyword строит ключевое слово из хеша URL.
// attempt меняет результат для повторной попытки при коллизии.
func GenerateKeyword(originalURL string, attempt int) string {
	src := originalURL
	if attempt > 0 {
		src += "#" + strconv.Itoa(attempt)
	}
	hash := sha256.Sum256([]byte(src))
	hashString := base64.RawURLEncoding.EncodeToString(hash[:16])
	hashString = strings.ToLower(hashString) // Ensure lowercase for consistency

	return hashString[:KeywordLength]
}

// ShortURL склеивает базовый URL и ключевое слово.
func ShortURL(baseURL, keyword string) string {
	return strings.TrimSuffix(baseURL, "/") + "/" + keyword
}
