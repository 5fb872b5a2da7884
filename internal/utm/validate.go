package utm

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyURL — поле URL не заполнено.
	ErrEmptyURL = errors.New("URL is required")
	// ErrMissingFields — не заполнены обязательные UTM-поля.
	ErrMissingFields = errors.New("required UTM fields are missing")
)

// FieldURL — имя поля ввода URL в ошибках валидации.
const FieldURL = "url"

// FindMissing возвращает обязательные ключи с пустыми значениями в порядке required.
func FindMissing(values Fields, required []Key) []Key {
	var missing []Key
	for _, k := range required {
		if strings.TrimSpace(values[k]) == "" {
			missing = append(missing, k)
		}
	}
	return missing
}

// ValidationError — ошибка ввода пользователя на шаге сборки ссылки.
type ValidationError struct {
	// Field — поле, на которое нужно перевести фокус.
	Field   string
	Missing []Key
	Err     error
}

// NewMissingError строит ошибку по списку незаполненных полей.
func NewMissingError(missing []Key) *ValidationError {
	e := &ValidationError{Missing: missing, Err: ErrMissingFields}
	if len(missing) > 0 {
		e.Field = string(missing[0])
	}
	return e
}

// NewURLError строит ошибку для пустого или некорректного URL.
func NewURLError(err error) *ValidationError {
	return &ValidationError{Field: FieldURL, Err: err}
}

// Labels возвращает названия незаполненных полей.
func (e *ValidationError) Labels() []string {
	out := make([]string, 0, len(e.Missing))
	for _, k := range e.Missing {
		out = append(out, k.Label())
	}
	return out
}

func (e *ValidationError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("%v: %s", e.Err, strings.Join(e.Labels(), ", "))
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
