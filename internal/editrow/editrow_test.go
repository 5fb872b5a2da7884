package editrow

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Totarae/UTMBuilder/internal/model"
)

func sampleLink() *model.Link {
	return &model.Link{
		Keyword:   "abc1",
		URL:       "https://example.com/page?ref=1&utm_source=newsletter",
		Title:     "Page",
		CreatedAt: time.Now(),
	}
}

func TestRender(t *testing.T) {
	out, err := Render(sampleLink(), "https://example.com/page?ref=1")
	require.NoError(t, err)

	assert.Equal(t, 3, strings.Count(out, `class="`+BlockClass+`"`))
	assert.Contains(t, out, `id="edit-utm-original-url-abc1"`)
	assert.Contains(t, out, `value="https://example.com/page?ref=1"`)
	assert.Contains(t, out, `id="edit-keyword-abc1"`, "прочие поля остаются на месте")

	iURL := strings.Index(out, `id="edit-url-abc1"`)
	iTitle := strings.Index(out, `id="edit-title-abc1"`)
	iOrig := strings.Index(out, `id="edit-utm-original-url-abc1"`)
	assert.True(t, iURL < iTitle && iTitle < iOrig, "порядок блоков: URL, заголовок, исходный URL")

	assert.Equal(t, 1, strings.Count(out, `for="edit-url-abc1"`), "подпись переезжает вместе с полем")
}

func TestInject_Idempotent(t *testing.T) {
	once, err := Render(sampleLink(), "https://example.com/page")
	require.NoError(t, err)

	twice, err := Inject(once, "abc1", "https://example.com/other")
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestInject_EscapesValue(t *testing.T) {
	markup := `<div><input id="edit-url-r1" value="x"/><input id="edit-title-r1" value="t"/></div>`
	out, err := Inject(markup, "r1", `https://e.com/?q="><script>`)
	require.NoError(t, err)

	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, `&#34;&gt;&lt;script&gt;`)
	assert.Contains(t, out, `<label for="edit-utm-original-url-r1">Original URL (without UTM)</label>`)
}

func TestInject_InputsMissing(t *testing.T) {
	markup := `<div><input id="edit-url-r1"/></div>`
	out, err := Inject(markup, "r1", "https://e.com")
	assert.ErrorIs(t, err, ErrInputsNotFound)
	assert.Equal(t, markup, out)

	out, err = Inject(markup, "r2", "https://e.com")
	assert.ErrorIs(t, err, ErrInputsNotFound)
	assert.Equal(t, markup, out)
}
