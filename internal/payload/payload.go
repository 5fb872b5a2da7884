// Package payload описывает протокол метаданных, который сопровождает
// запросы на создание и изменение ссылки: что сделать с метаданными
// (ничего, удалить, сохранить) и с какими данными.
package payload

import (
	"context"
	"net/url"
	"strings"

	"github.com/Totarae/UTMBuilder/internal/model"
	"github.com/Totarae/UTMBuilder/internal/utm"
)

// Поля запроса.
const (
	FieldEnabled     = "utm_meta_enabled"
	FieldOriginalURL = "utm_original_url"
)

// Action — вариант полезной нагрузки.
type Action int

const (
	Skip Action = iota
	Delete
	Upsert
)

func (a Action) String() string {
	switch a {
	case Skip:
		return "skip"
	case Delete:
		return "delete"
	case Upsert:
		return "upsert"
	}
	return "unknown"
}

// Payload — ровно одна из форм: Skip, Delete или Upsert с данными.
type Payload struct {
	Action Action
	Data   model.MetaData
}

// Config — состояние переключателя, читается один раз на операцию.
type Config struct {
	Enabled bool
}

// Values отдаёт сырые поля запроса.
type Values interface {
	Lookup(key string) (string, bool)
}

// FormValues адаптирует url.Values к Values.
type FormValues url.Values

func (v FormValues) Lookup(key string) (string, bool) {
	vs, ok := v[key]
	if !ok {
		return "", false
	}
	if len(vs) == 0 {
		return "", true
	}
	return vs[0], true
}

//go:generate mockgen -source=payload.go -destination=mocks/store_mock.go -package=mocks Store

// Store описывает операции хранилища, нужные для применения нагрузки.
type Store interface {
	Upsert(ctx context.Context, keyword string, data model.MetaData)
	Delete(ctx context.Context, keyword string)
	Move(ctx context.Context, from, to string)
}

// Derive строит нагрузку из сырых полей запроса.
func Derive(values Values, cfg Config) Payload {
	raw, present := values.Lookup(FieldEnabled)
	if !present || !cfg.Enabled {
		return Payload{Action: Skip}
	}
	if !parseFlag(raw) {
		return Payload{Action: Delete}
	}

	fields := make(utm.Fields, len(utm.Keys))
	for _, k := range utm.Keys {
		fields[k], _ = values.Lookup(string(k))
	}
	originalURL, _ := values.Lookup(FieldOriginalURL)

	data := model.MetaDataFromFields(originalURL, fields).Sanitized()
	if data.IsEmpty() {
		return Payload{Action: Delete}
	}
	return Payload{Action: Upsert, Data: data}
}

// Apply применяет нагрузку к ключу current. previous — прежний ключ при
// переименовании, пустой или равный current, если ключ не менялся.
func Apply(ctx context.Context, store Store, p Payload, current, previous string) {
	renamed := previous != "" && previous != current

	switch p.Action {
	case Skip:
		if renamed {
			store.Move(ctx, previous, current)
		}
	case Delete:
		store.Delete(ctx, current)
		if renamed {
			store.Delete(ctx, previous)
		}
	case Upsert:
		store.Upsert(ctx, current, p.Data)
		if renamed {
			store.Delete(ctx, previous)
		}
	}
}

// Encode формирует поля нагрузки для отправки вместе с формой.
func Encode(originalURL string, fields utm.Fields) url.Values {
	v := url.Values{}
	v.Set(FieldEnabled, "1")
	v.Set(FieldOriginalURL, originalURL)
	for _, k := range utm.Keys {
		v.Set(string(k), fields[k])
	}
	return v
}

func parseFlag(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}
