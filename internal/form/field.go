package form

import (
	"sync"

	"github.com/Totarae/UTMBuilder/internal/utm"
)

// FieldInput — поле ввода одного UTM-параметра.
type FieldInput interface {
	Key() utm.Key
	Value() string
	// SetValue записывает значение программно, без запроса подсказок.
	SetValue(v string)
	// Type имитирует ввод пользователя.
	Type(v string)
	Invalid() bool
	SetInvalid(invalid bool)
	// Suggestions возвращает текущие подсказки, если поле их поддерживает.
	Suggestions() []string
	// Reset очищает значение, отметку ошибки и незавершённые запросы.
	Reset()
}

// NewFieldInput выбирает реализацию по возможностям окружения:
// с источником подсказок поле получает автодополнение.
func NewFieldInput(key utm.Key, source Suggester) FieldInput {
	if source == nil {
		return &PlainFieldInput{key: key}
	}
	return &RichFieldInput{
		base: PlainFieldInput{key: key},
		ac:   NewAutocomplete(key, source),
	}
}

// PlainFieldInput реализует обычное текстовое поле.
type PlainFieldInput struct {
	key utm.Key

	mu      sync.Mutex
	value   string
	invalid bool
}

func (p *PlainFieldInput) Key() utm.Key { return p.key }

func (p *PlainFieldInput) Value() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value
}

func (p *PlainFieldInput) SetValue(v string) {
	p.mu.Lock()
	p.value = v
	p.mu.Unlock()
}

func (p *PlainFieldInput) Type(v string) { p.SetValue(v) }

func (p *PlainFieldInput) Invalid() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.invalid
}

func (p *PlainFieldInput) SetInvalid(invalid bool) {
	p.mu.Lock()
	p.invalid = invalid
	p.mu.Unlock()
}

func (p *PlainFieldInput) Suggestions() []string { return nil }

func (p *PlainFieldInput) Reset() {
	p.mu.Lock()
	p.value = ""
	p.invalid = false
	p.mu.Unlock()
}

// RichFieldInput — поле с автодополнением. Хранение значения делегируется
// простому полю.
type RichFieldInput struct {
	base PlainFieldInput
	ac   *Autocomplete
}

func (r *RichFieldInput) Key() utm.Key            { return r.base.Key() }
func (r *RichFieldInput) Value() string           { return r.base.Value() }
func (r *RichFieldInput) SetValue(v string)       { r.base.SetValue(v) }
func (r *RichFieldInput) Invalid() bool           { return r.base.Invalid() }
func (r *RichFieldInput) SetInvalid(invalid bool) { r.base.SetInvalid(invalid) }

// Type сохраняет значение и планирует запрос подсказок.
func (r *RichFieldInput) Type(v string) {
	r.base.SetValue(v)
	r.ac.Request(v)
}

func (r *RichFieldInput) Suggestions() []string {
	values, _ := r.ac.Results()
	return values
}

func (r *RichFieldInput) Reset() {
	r.ac.Cancel()
	r.base.Reset()
}

// Autocomplete возвращает автодополнение поля.
func (r *RichFieldInput) Autocomplete() *Autocomplete {
	return r.ac
}
