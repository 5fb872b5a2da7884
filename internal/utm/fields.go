// Package utm содержит чистые функции для работы с UTM-метками:
// извлечение, удаление и слияние параметров запроса, санитизацию значений
// и проверку обязательных полей.
package utm

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Key — имя одного из пяти поддерживаемых UTM-параметров.
type Key string

const (
	Source   Key = "utm_source"
	Medium   Key = "utm_medium"
	Campaign Key = "utm_campaign"
	Term     Key = "utm_term"
	Content  Key = "utm_content"
)

// MaxValueLength — максимальная длина значения UTM-поля в символах.
const MaxValueLength = 255

// Keys перечисляет все поддерживаемые ключи в каноническом порядке.
var Keys = []Key{Source, Medium, Campaign, Term, Content}

// RequiredKeys — поля, без которых ссылка не собирается.
var RequiredKeys = []Key{Source, Medium, Campaign}

var labels = map[Key]string{
	Source:   "Source",
	Medium:   "Medium",
	Campaign: "Campaign",
	Term:     "Term",
	Content:  "Content",
}

// Label возвращает человекочитаемое название поля.
func (k Key) Label() string {
	if l, ok := labels[k]; ok {
		return l
	}
	return string(k)
}

// Valid сообщает, является ли ключ одним из пяти известных.
func (k Key) Valid() bool {
	_, ok := labels[k]
	return ok
}

// ParseKey проверяет строку на принадлежность к известным ключам.
func ParseKey(s string) (Key, bool) {
	k := Key(s)
	return k, k.Valid()
}

// Fields — набор значений UTM-полей. Отсутствующий ключ и ключ
// с пустым значением — разные состояния.
type Fields map[Key]string

// IsBlank сообщает, что все значения пустые после обрезки пробелов.
func (f Fields) IsBlank() bool {
	for _, k := range Keys {
		if strings.TrimSpace(f[k]) != "" {
			return false
		}
	}
	return true
}

// SanitizeValue приводит значение UTM-поля к безопасному литералу:
// обрезает пробелы, убирает управляющие и опасные символы,
// схлопывает пробельные последовательности и ограничивает длину.
func SanitizeValue(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r == utf8.RuneError:
			continue
		case unicode.IsSpace(r):
			space = true
			continue
		case unicode.IsControl(r), strings.ContainsRune("<>\"'`", r):
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	return truncate(b.String(), MaxValueLength)
}

// SanitizeURL очищает исходный URL перед сохранением: обрезка,
// удаление управляющих символов и любых utm_* параметров.
func SanitizeURL(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
	return StripAllUTM(s)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:n]))
}
