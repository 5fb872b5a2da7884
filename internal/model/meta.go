package model

import (
	"time"

	"github.com/Totarae/UTMBuilder/internal/utm"
)

// MetaData — исходный URL без UTM-параметров и пять UTM-значений.
type MetaData struct {
	OriginalURL string `json:"original_url"`
	Source      string `json:"utm_source"`
	Medium      string `json:"utm_medium"`
	Campaign    string `json:"utm_campaign"`
	Term        string `json:"utm_term"`
	Content     string `json:"utm_content"`
}

// MetaRecord — строка таблицы utm_meta.
type MetaRecord struct {
	Keyword string `json:"keyword"`
	MetaData
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsEmpty сообщает, что хранить нечего.
func (d MetaData) IsEmpty() bool {
	return d.OriginalURL == "" && d.Fields().IsBlank()
}

// Fields возвращает UTM-значения в виде набора полей.
func (d MetaData) Fields() utm.Fields {
	return utm.Fields{
		utm.Source:   d.Source,
		utm.Medium:   d.Medium,
		utm.Campaign: d.Campaign,
		utm.Term:     d.Term,
		utm.Content:  d.Content,
	}
}

// MetaDataFromFields собирает MetaData из исходного URL и набора полей.
func MetaDataFromFields(originalURL string, f utm.Fields) MetaData {
	return MetaData{
		OriginalURL: originalURL,
		Source:      f[utm.Source],
		Medium:      f[utm.Medium],
		Campaign:    f[utm.Campaign],
		Term:        f[utm.Term],
		Content:     f[utm.Content],
	}
}

// Sanitized возвращает копию с очищенными значениями: UTM-поля — безопасные
// литералы не длиннее 255 символов, исходный URL — без utm_* параметров.
func (d MetaData) Sanitized() MetaData {
	return MetaData{
		OriginalURL: utm.SanitizeURL(d.OriginalURL),
		Source:      utm.SanitizeValue(d.Source),
		Medium:      utm.SanitizeValue(d.Medium),
		Campaign:    utm.SanitizeValue(d.Campaign),
		Term:        utm.SanitizeValue(d.Term),
		Content:     utm.SanitizeValue(d.Content),
	}
}
