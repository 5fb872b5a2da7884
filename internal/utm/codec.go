package utm

import (
	"errors"
	"net/url"
	"strings"
)

// ErrInvalidURL — строка не является абсолютным URL.
var ErrInvalidURL = errors.New("invalid absolute URL")

// param хранит один сегмент строки запроса в исходном виде.
type param struct {
	raw string // "k=v" как в исходном URL
	key string // декодированный ключ
}

// parts делит URL на базу, строку запроса и фрагмент без перекодирования.
type parts struct {
	base     string
	query    string
	hasQuery bool
	fragment string
}

// IsAbsoluteURL проверяет, что строка разбирается как URL со схемой и хостом.
func IsAbsoluteURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// ExtractFields возвращает известные UTM-параметры из строки запроса.
// Ключи, которых нет в URL, в результат не попадают.
func ExtractFields(rawURL string) Fields {
	out := Fields{}
	if !IsAbsoluteURL(rawURL) {
		return out
	}
	for _, p := range split(rawURL).params() {
		k, ok := ParseKey(p.key)
		if !ok {
			continue
		}
		if _, seen := out[k]; seen {
			continue
		}
		out[k] = p.value()
	}
	return out
}

// StripFields удаляет пять известных UTM-параметров, не трогая остальной URL.
func StripFields(rawURL string) string {
	return strip(rawURL, func(key string) bool {
		return Key(key).Valid()
	})
}

// StripAllUTM удаляет любые параметры, имя которых (без учёта регистра) начинается с utm_.
func StripAllUTM(rawURL string) string {
	return strip(rawURL, func(key string) bool {
		return strings.HasPrefix(strings.ToLower(key), "utm_")
	})
}

// MergeFields записывает набор полей в URL: непустые значения устанавливаются,
// пустые удаляются. Прочие параметры и их порядок сохраняются.
func MergeFields(rawURL string, fields Fields) (string, error) {
	if !IsAbsoluteURL(rawURL) {
		return "", ErrInvalidURL
	}
	pt := split(rawURL)
	params := pt.params()
	for _, k := range Keys {
		v, ok := fields[k]
		if !ok {
			continue
		}
		params = set(params, string(k), strings.TrimSpace(v))
	}
	return pt.join(params), nil
}

func strip(rawURL string, drop func(key string) bool) string {
	if !IsAbsoluteURL(rawURL) {
		return rawURL
	}
	pt := split(rawURL)
	if !pt.hasQuery {
		return rawURL
	}
	params := pt.params()
	kept := params[:0:0]
	for _, p := range params {
		if !drop(p.key) {
			kept = append(kept, p)
		}
	}
	if len(kept) == len(params) {
		return rawURL
	}
	return pt.join(kept)
}

func split(rawURL string) parts {
	var pt parts
	if i := strings.IndexByte(rawURL, '#'); i >= 0 {
		pt.fragment = rawURL[i:]
		rawURL = rawURL[:i]
	}
	if i := strings.IndexByte(rawURL, '?'); i >= 0 {
		pt.query = rawURL[i+1:]
		pt.hasQuery = true
		rawURL = rawURL[:i]
	}
	pt.base = rawURL
	return pt
}

func (pt parts) params() []param {
	if pt.query == "" {
		return nil
	}
	segs := strings.Split(pt.query, "&")
	out := make([]param, 0, len(segs))
	for _, s := range segs {
		if s == "" {
			continue
		}
		k, _, _ := strings.Cut(s, "=")
		if dk, err := url.QueryUnescape(k); err == nil {
			k = dk
		}
		out = append(out, param{raw: s, key: k})
	}
	return out
}

func (pt parts) join(params []param) string {
	var b strings.Builder
	b.WriteString(pt.base)
	for i, p := range params {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(p.raw)
	}
	b.WriteString(pt.fragment)
	return b.String()
}

func (p param) value() string {
	_, v, _ := strings.Cut(p.raw, "=")
	if dv, err := url.QueryUnescape(v); err == nil {
		return dv
	}
	return v
}

// set заменяет первое вхождение ключа на месте и удаляет повторы;
// новый ключ добавляется в конец. Пустое значение удаляет ключ.
func set(params []param, key, value string) []param {
	out := make([]param, 0, len(params)+1)
	replaced := false
	for _, p := range params {
		if p.key != key {
			out = append(out, p)
			continue
		}
		if value != "" && !replaced {
			out = append(out, newParam(key, value))
			replaced = true
		}
	}
	if value != "" && !replaced {
		out = append(out, newParam(key, value))
	}
	return out
}

func newParam(key, value string) param {
	return param{raw: url.QueryEscape(key) + "=" + url.QueryEscape(value), key: key}
}
