package model

import "time"

// Setting соответствует строке таблицы settings.
type Setting struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}
