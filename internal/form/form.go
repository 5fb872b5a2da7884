// Package form моделирует клиентскую форму сборки UTM-ссылки.
//
// Форма существует в двух состояниях. В выключенном она отправляет URL как
// есть и не добавляет полей метаданных. Во включённом перед отправкой
// проверяет обязательные UTM-поля, вписывает их в URL и формирует нагрузку
// для сервера.
package form

import (
	"net/url"
	"strings"
	"sync"

	"github.com/Totarae/UTMBuilder/internal/payload"
	"github.com/Totarae/UTMBuilder/internal/utm"
)

type State int

const (
	Disabled State = iota
	Enabled
)

func (s State) String() string {
	if s == Enabled {
		return "enabled"
	}
	return "disabled"
}

// Поля формы ссылки.
const (
	FieldKeyword = "keyword"
	FieldTitle   = "title"
)

// Option настраивает форму.
type Option func(*Form)

// WithSuggester подключает автодополнение к UTM-полям.
func WithSuggester(s Suggester) Option {
	return func(f *Form) { f.suggester = s }
}

// WithOriginalKeyword делает форму формой редактирования существующей ссылки.
func WithOriginalKeyword(keyword string) Option {
	return func(f *Form) {
		f.origKeyword = keyword
		f.keyword = keyword
	}
}

// WithURL задаёт начальное значение поля URL.
func WithURL(raw string) Option {
	return func(f *Form) { f.url = raw }
}

// Submission содержит данные, уходящие на сервер.
type Submission struct {
	URL        string
	Keyword    string
	OldKeyword string
	Title      string
	// Payload — поля метаданных; nil, если форма выключена.
	Payload url.Values
}

// Values кодирует отправку как поля формы.
func (s Submission) Values() url.Values {
	v := url.Values{}
	v.Set(utm.FieldURL, s.URL)
	v.Set(FieldKeyword, s.Keyword)
	v.Set(FieldTitle, s.Title)
	for k, vs := range s.Payload {
		v[k] = append([]string(nil), vs...)
	}
	return v
}

// Renamed сообщает, меняет ли отправка ключевое слово.
func (s Submission) Renamed() bool {
	return s.OldKeyword != "" && s.Keyword != "" && s.OldKeyword != s.Keyword
}

// Form хранит состояние одного экземпляра формы.
type Form struct {
	mu sync.Mutex

	state       State
	url         string
	originalURL string
	keyword     string
	origKeyword string
	title       string
	focus       string
	lastErr     *utm.ValidationError

	suggester Suggester
	fields    map[utm.Key]FieldInput
}

// New создаёт форму в выключенном состоянии.
func New(opts ...Option) *Form {
	f := &Form{state: Disabled}
	for _, opt := range opts {
		opt(f)
	}
	f.fields = make(map[utm.Key]FieldInput, len(utm.Keys))
	for _, k := range utm.Keys {
		f.fields[k] = NewFieldInput(k, f.suggester)
	}
	return f
}

func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Field возвращает поле ввода UTM-параметра или nil для неизвестного ключа.
func (f *Form) Field(k utm.Key) FieldInput {
	return f.fields[k]
}

func (f *Form) SetURL(raw string) {
	f.mu.Lock()
	f.url = raw
	f.mu.Unlock()
}

func (f *Form) URL() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.url
}

func (f *Form) SetKeyword(kw string) {
	f.mu.Lock()
	f.keyword = kw
	f.mu.Unlock()
}

func (f *Form) SetTitle(title string) {
	f.mu.Lock()
	f.title = title
	f.mu.Unlock()
}

// OriginalURL возвращает значение поля исходного URL.
func (f *Form) OriginalURL() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.originalURL
}

// Focus возвращает имя поля, на которое переведён фокус после ошибки.
func (f *Form) Focus() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.focus
}

// LastError возвращает последнюю ошибку проверки.
func (f *Form) LastError() *utm.ValidationError {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

// Enable включает режим сборки и заполняет пустые поля из текущего URL.
func (f *Form) Enable() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.state = Enabled
	extracted := utm.ExtractFields(f.url)
	for _, k := range utm.Keys {
		v, ok := extracted[k]
		if !ok {
			continue
		}
		if in := f.fields[k]; strings.TrimSpace(in.Value()) == "" {
			in.SetValue(v)
		}
	}
	if utm.IsAbsoluteURL(f.url) {
		f.originalURL = utm.StripFields(f.url)
	}
}

// Disable выключает режим сборки: поля, ошибки и запросы подсказок
// сбрасываются, поле URL не трогается.
func (f *Form) Disable() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.state = Disabled
	for _, in := range f.fields {
		in.Reset()
	}
	f.originalURL = ""
	f.focus = ""
	f.lastErr = nil
}

// Close отменяет незавершённые запросы подсказок.
func (f *Form) Close() {
	for _, in := range f.fields {
		if rich, ok := in.(*RichFieldInput); ok {
			rich.Autocomplete().Cancel()
		}
	}
}

// Submit готовит отправку. Во включённом режиме ошибка проверки
// блокирует отправку и возвращается как *utm.ValidationError.
func (f *Form) Submit() (Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	sub := Submission{
		Keyword:    strings.TrimSpace(f.keyword),
		OldKeyword: f.origKeyword,
		Title:      f.title,
	}
	if f.state == Disabled {
		sub.URL = f.url
		return sub, nil
	}

	raw := strings.TrimSpace(f.url)
	if raw == "" {
		return Submission{}, f.failLocked(utm.NewURLError(utm.ErrEmptyURL))
	}
	if !utm.IsAbsoluteURL(raw) {
		return Submission{}, f.failLocked(utm.NewURLError(utm.ErrInvalidURL))
	}

	values := make(utm.Fields, len(utm.Keys))
	for _, k := range utm.Keys {
		values[k] = strings.TrimSpace(f.fields[k].Value())
	}

	missing := utm.FindMissing(values, utm.RequiredKeys)
	for _, k := range utm.Keys {
		f.fields[k].SetInvalid(false)
	}
	if len(missing) > 0 {
		for _, k := range missing {
			f.fields[k].SetInvalid(true)
		}
		return Submission{}, f.failLocked(utm.NewMissingError(missing))
	}

	base := utm.StripFields(raw)
	merged, err := utm.MergeFields(base, values)
	if err != nil {
		return Submission{}, f.failLocked(utm.NewURLError(err))
	}

	f.originalURL = base
	f.url = merged
	f.focus = ""
	f.lastErr = nil

	sub.URL = merged
	sub.Payload = payload.Encode(f.originalURL, values)
	return sub, nil
}

func (f *Form) failLocked(err *utm.ValidationError) *utm.ValidationError {
	f.focus = err.Field
	f.lastErr = err
	return err
}
