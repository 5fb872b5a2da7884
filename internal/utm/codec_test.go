package utm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFields(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want Fields
	}{
		{
			name: "все пять параметров",
			url:  "https://example.com/?utm_source=a&utm_medium=b&utm_campaign=c&utm_term=d&utm_content=e",
			want: Fields{Source: "a", Medium: "b", Campaign: "c", Term: "d", Content: "e"},
		},
		{
			name: "декодирование значений",
			url:  "https://example.com/p?utm_campaign=spring+sale&utm_source=news%2Fletter",
			want: Fields{Campaign: "spring sale", Source: "news/letter"},
		},
		{
			name: "пустое значение сохраняется",
			url:  "https://example.com/?utm_term=&ref=1",
			want: Fields{Term: ""},
		},
		{
			name: "чужие и регистрозависимые ключи игнорируются",
			url:  "https://example.com/?UTM_SOURCE=x&utm_id=7",
			want: Fields{},
		},
		{
			name: "первое вхождение выигрывает",
			url:  "https://example.com/?utm_source=first&utm_source=second",
			want: Fields{Source: "first"},
		},
		{
			name: "не абсолютный URL",
			url:  "example.com/?utm_source=a",
			want: Fields{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractFields(tt.url))
		})
	}
}

func TestStripFields(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"без запроса", "https://example.com/page", "https://example.com/page"},
		{"только utm", "https://example.com/page?utm_source=x&utm_medium=y", "https://example.com/page"},
		{"порядок и кодирование сохраняются", "https://example.com/p?b=2&utm_source=x&a=%20z&utm_term=t", "https://example.com/p?b=2&a=%20z"},
		{"фрагмент сохраняется", "https://example.com/p?a=1&utm_source=x#top", "https://example.com/p?a=1#top"},
		{"неизвестные utm_ остаются", "https://example.com/?utm_id=1&utm_source=x", "https://example.com/?utm_id=1"},
		{"некорректный URL", "not a url?utm_source=x", "not a url?utm_source=x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripFields(tt.url))
		})
	}
}

func TestStripAllUTM(t *testing.T) {
	got := StripAllUTM("https://example.com/?UTM_Foo=1&utm_id=2&a=b&utm_source=x")
	assert.Equal(t, "https://example.com/?a=b", got)
}

func TestStripIsComplete(t *testing.T) {
	urls := []string{
		"https://example.com/?utm_source=a&utm_medium=b&utm_campaign=c&utm_term=d&utm_content=e",
		"https://example.com/x?ref=1&utm_source=a&utm_source=b#frag",
		"http://localhost:8080/?utm_content=",
	}
	for _, u := range urls {
		assert.Empty(t, ExtractFields(StripFields(u)), u)
	}
}

func TestMergeFields(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		fields Fields
		want   string
	}{
		{
			name:   "новые ключи добавляются в каноническом порядке",
			url:    "https://example.com/page?ref=1",
			fields: Fields{Campaign: "spring", Source: "newsletter", Medium: "email"},
			want:   "https://example.com/page?ref=1&utm_source=newsletter&utm_medium=email&utm_campaign=spring",
		},
		{
			name:   "существующий ключ заменяется на месте",
			url:    "https://example.com/?utm_medium=old&x=1",
			fields: Fields{Medium: "new"},
			want:   "https://example.com/?utm_medium=new&x=1",
		},
		{
			name:   "пустое значение удаляет параметр",
			url:    "https://example.com/?utm_source=a&x=1",
			fields: Fields{Source: "   "},
			want:   "https://example.com/?x=1",
		},
		{
			name:   "значения обрезаются и кодируются",
			url:    "https://example.com/",
			fields: Fields{Campaign: " spring sale "},
			want:   "https://example.com/?utm_campaign=spring+sale",
		},
		{
			name:   "фрагмент остаётся в конце",
			url:    "https://example.com/p#top",
			fields: Fields{Source: "x"},
			want:   "https://example.com/p?utm_source=x#top",
		},
		{
			name:   "неизвестные ключи игнорируются",
			url:    "https://example.com/",
			fields: Fields{Key("utm_id"): "1"},
			want:   "https://example.com/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MergeFields(tt.url, tt.fields)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMergeFields_InvalidURL(t *testing.T) {
	for _, u := range []string{"", "example.com/page", "::::", "/relative?x=1"} {
		_, err := MergeFields(u, Fields{Source: "x"})
		assert.ErrorIs(t, err, ErrInvalidURL, u)
	}
}

func TestMergeRoundTrip(t *testing.T) {
	u := "https://example.com/landing?utm_source=news&utm_medium=email&utm_campaign=spring&utm_term=shoes&utm_content=hero"
	got, err := MergeFields(StripFields(u), ExtractFields(u))
	require.NoError(t, err)
	assert.Equal(t, ExtractFields(u), ExtractFields(got))
	assert.Equal(t, StripFields(u), StripFields(got))
}

func TestSanitizeValue(t *testing.T) {
	assert.Equal(t, "newsbletter spring", SanitizeValue(" news<b>letter\x00  spring "))
	assert.Equal(t, "", SanitizeValue(" \t\n "))
	assert.Equal(t, "quoted", SanitizeValue(`"quoted'`))
	assert.Len(t, SanitizeValue(strings.Repeat("a", 300)), MaxValueLength)
	assert.Equal(t, 255, len([]rune(SanitizeValue(strings.Repeat("ж", 400)))))
}

func TestSanitizeURL(t *testing.T) {
	got := SanitizeURL("  https://example.com/p?ref=1&utm_source=x&Utm_Extra=y\n")
	assert.Equal(t, "https://example.com/p?ref=1", got)
}
