package model

// SuggestResponse представляет ответ эндпоинта автодополнения.
type SuggestResponse struct {
	Success bool     `json:"success"`
	Field   string   `json:"field,omitempty"`
	Values  []string `json:"values"`
	HasMore bool     `json:"hasMore"`
	Error   string   `json:"error,omitempty"`
}

type ErrorResponse struct {
	Success bool     `json:"success"`
	Error   string   `json:"error"`
	Field   string   `json:"field,omitempty"` // поле формы с ошибкой проверки
	Missing []string `json:"missing,omitempty"`
}

// LinkResponse — созданная или изменённая ссылка.
type LinkResponse struct {
	Link
	ShortURL string `json:"short_url"`
}

// NonceResponse содержит токен для запросов автодополнения.
type NonceResponse struct {
	Token  string `json:"token"`
	Action string `json:"action"`
}

// SettingsRequest представляет запрос на изменение настроек.
type SettingsRequest struct {
	Enabled *bool `json:"enabled"`
}

type SettingsResponse struct {
	Enabled bool `json:"enabled"`
}

// DeleteResponse содержит число удалённых ссылок.
type DeleteResponse struct {
	Deleted int64 `json:"deleted"`
}
