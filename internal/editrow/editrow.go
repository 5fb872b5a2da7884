// Package editrow дополняет строку редактирования ссылки полем исходного URL.
//
// Строка редактирования рендерится хостом. Inject находит в ней поля URL и
// заголовка, добавляет поле исходного URL без UTM-меток и группирует все три
// поля в блоки с подписями. Повторный вызов ничего не меняет.
package editrow

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/Totarae/UTMBuilder/internal/model"
)

// CSS-класс блока с подписью и полем ввода.
const BlockClass = "utm-edit-block"

// ErrInputsNotFound — в разметке нет полей URL или заголовка для строки.
var ErrInputsNotFound = errors.New("edit row inputs not found")

// Идентификаторы полей строки.
func URLInputID(row string) string         { return "edit-url-" + row }
func TitleInputID(row string) string       { return "edit-title-" + row }
func OriginalURLInputID(row string) string { return "edit-utm-original-url-" + row }

var rowTemplate = template.Must(template.New("row").Parse(
	`<tr id="edit-{{.Keyword}}" class="edit-row"><td colspan="5">` +
		`<label for="edit-url-{{.Keyword}}">Long URL</label>: ` +
		`<input type="text" id="edit-url-{{.Keyword}}" name="edit-url-{{.Keyword}}" value="{{.URL}}" class="text" size="70"/>` +
		`<br/><label for="edit-keyword-{{.Keyword}}">Short URL</label>: ` +
		`<input type="text" id="edit-keyword-{{.Keyword}}" name="edit-keyword-{{.Keyword}}" value="{{.Keyword}}" class="text" size="10"/>` +
		`<br/><label for="edit-title-{{.Keyword}}">Title</label>: ` +
		`<input type="text" id="edit-title-{{.Keyword}}" name="edit-title-{{.Keyword}}" value="{{.Title}}" class="text" size="60"/>` +
		`<br/><input type="button" id="edit-submit-{{.Keyword}}" name="edit-submit-{{.Keyword}}" value="Save" class="button"/>` +
		` <input type="button" id="edit-close-{{.Keyword}}" name="edit-close-{{.Keyword}}" value="Cancel" class="button"/>` +
		`</td></tr>`,
))

// Render формирует строку редактирования ссылки с полем исходного URL.
func Render(link *model.Link, originalURL string) (string, error) {
	var buf bytes.Buffer
	if err := rowTemplate.Execute(&buf, link); err != nil {
		return "", fmt.Errorf("failed to render edit row: %w", err)
	}
	return Inject(buf.String(), link.Keyword, originalURL)
}

// Inject добавляет поле исходного URL в разметку строки row.
// Если поле уже есть, разметка возвращается без изменений.
func Inject(markup, row, originalURL string) (string, error) {
	nodes, err := parse(markup)
	if err != nil {
		return markup, err
	}

	byID := func(id string) *html.Node {
		for _, n := range nodes {
			if found := findByID(n, id); found != nil {
				return found
			}
		}
		return nil
	}

	if byID(OriginalURLInputID(row)) != nil {
		return markup, nil
	}
	urlInput := byID(URLInputID(row))
	titleInput := byID(TitleInputID(row))
	if urlInput == nil || titleInput == nil || urlInput.Parent == nil {
		return markup, ErrInputsNotFound
	}

	origInput := &html.Node{
		Type:     html.ElementNode,
		Data:     "input",
		DataAtom: atom.Input,
		Attr: []html.Attribute{
			{Key: "type", Val: "text"},
			{Key: "id", Val: OriginalURLInputID(row)},
			{Key: "name", Val: OriginalURLInputID(row)},
			{Key: "value", Val: originalURL},
			{Key: "class", Val: "text"},
			{Key: "size", Val: "70"},
		},
	}

	// Контейнер встаёт на место поля URL, поля переезжают в блоки.
	container := element("div", "utm-edit-blocks")
	urlInput.Parent.InsertBefore(container, urlInput)

	groups := []struct {
		input *html.Node
		label string
	}{
		{urlInput, "Long URL"},
		{titleInput, "Title"},
		{origInput, "Original URL (without UTM)"},
	}
	for _, g := range groups {
		block := element("div", BlockClass)
		label := takeLabel(nodes, attr(g.input, "id"))
		if label == nil {
			label = element("label", "")
			label.Attr = append(label.Attr, html.Attribute{Key: "for", Val: attr(g.input, "id")})
			label.AppendChild(&html.Node{Type: html.TextNode, Data: g.label})
		}
		if g.input.Parent != nil {
			g.input.Parent.RemoveChild(g.input)
		}
		block.AppendChild(label)
		block.AppendChild(g.input)
		container.AppendChild(block)
	}

	var b strings.Builder
	for _, n := range nodes {
		if err := html.Render(&b, n); err != nil {
			return markup, fmt.Errorf("failed to render markup: %w", err)
		}
	}
	return b.String(), nil
}

func parse(markup string) ([]*html.Node, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	trimmed := strings.ToLower(strings.TrimSpace(markup))
	if strings.HasPrefix(trimmed, "<tr") {
		ctx = &html.Node{Type: html.ElementNode, Data: "tbody", DataAtom: atom.Tbody}
	}
	nodes, err := html.ParseFragment(strings.NewReader(markup), ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse markup: %w", err)
	}
	return nodes, nil
}

func findByID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode && attr(n, "id") == id {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByID(c, id); found != nil {
			return found
		}
	}
	return nil
}

// takeLabel отцепляет <label for=id> вместе с двоеточием после него.
func takeLabel(nodes []*html.Node, id string) *html.Node {
	var found *html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.DataAtom == atom.Label && attr(n, "for") == id {
			found = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	if found == nil || found.Parent == nil {
		return found
	}

	if next := found.NextSibling; next != nil && next.Type == html.TextNode && strings.TrimSpace(next.Data) == ":" {
		found.Parent.RemoveChild(next)
	}
	if prev := found.PrevSibling; prev != nil && prev.DataAtom == atom.Br {
		found.Parent.RemoveChild(prev)
	}
	found.Parent.RemoveChild(found)
	return found
}

func element(tag, class string) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
	if class != "" {
		n.Attr = []html.Attribute{{Key: "class", Val: class}}
	}
	return n
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
