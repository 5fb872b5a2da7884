package form

import "sync"

// Registry сопоставляет строку таблицы ссылок с экземпляром формы.
// Строки добавляются и удаляются событиями жизненного цикла.
type Registry struct {
	mu      sync.Mutex
	forms   map[string]*Form
	factory func(row string) *Form
}

// NewRegistry создаёт реестр. factory строит форму для новой строки.
func NewRegistry(factory func(row string) *Form) *Registry {
	return &Registry{forms: make(map[string]*Form), factory: factory}
}

// Add регистрирует строку. Для уже известной строки возвращается её форма.
func (r *Registry) Add(row string) *Form {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.forms[row]; ok {
		return f
	}
	f := r.factory(row)
	r.forms[row] = f
	return f
}

// Get возвращает форму строки.
func (r *Registry) Get(row string) (*Form, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.forms[row]
	return f, ok
}

// Remove снимает строку с учёта и отменяет её запросы подсказок.
func (r *Registry) Remove(row string) {
	r.mu.Lock()
	f, ok := r.forms[row]
	delete(r.forms, row)
	r.mu.Unlock()

	if ok {
		f.Close()
	}
}

// Len возвращает число зарегистрированных строк.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.forms)
}
