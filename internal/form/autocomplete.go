package form

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Totarae/UTMBuilder/internal/suggest"
	"github.com/Totarae/UTMBuilder/internal/utm"
)

// DebounceDelay — пауза после последнего ввода перед запросом подсказок.
const DebounceDelay = 250 * time.Millisecond

// Suggester — источник подсказок для поля.
type Suggester interface {
	Suggest(ctx context.Context, field utm.Key, search string, limit int) (values []string, hasMore bool, err error)
}

// Autocomplete запрашивает подсказки для одного поля.
// Каждый запрос получает номер; ответ применяется, только если после него
// не было новых запросов и Cancel.
type Autocomplete struct {
	field  utm.Key
	source Suggester
	delay  time.Duration
	limit  int

	mu       sync.Mutex
	seq      uint64
	timer    *time.Timer
	cancel   context.CancelFunc
	values   []string
	hasMore  bool
	onResult func(values []string, hasMore bool)
}

// NewAutocomplete создаёт автодополнение поля field.
func NewAutocomplete(field utm.Key, source Suggester) *Autocomplete {
	return &Autocomplete{
		field:  field,
		source: source,
		delay:  DebounceDelay,
		limit:  suggest.DefaultLimit,
	}
}

// OnResult задаёт обработчик применённых ответов.
func (a *Autocomplete) OnResult(fn func(values []string, hasMore bool)) {
	a.mu.Lock()
	a.onResult = fn
	a.mu.Unlock()
}

// Request планирует запрос подсказок для term. Предыдущий запрос,
// отложенный или выполняющийся, отменяется.
func (a *Autocomplete) Request(term string) uint64 {
	search := strings.ToLower(strings.TrimSpace(term))

	a.mu.Lock()
	defer a.mu.Unlock()

	a.stopLocked()
	a.seq++
	seq := a.seq
	a.timer = time.AfterFunc(a.delay, func() { a.fetch(seq, search) })
	return seq
}

// Cancel отменяет отложенный и выполняющийся запросы и очищает подсказки.
// Ответы, пришедшие после отмены, отбрасываются.
func (a *Autocomplete) Cancel() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.stopLocked()
	a.seq++
	a.values = nil
	a.hasMore = false
}

// Results возвращает последние применённые подсказки.
func (a *Autocomplete) Results() ([]string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.values...), a.hasMore
}

func (a *Autocomplete) fetch(seq uint64, search string) {
	a.mu.Lock()
	if seq != a.seq {
		a.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.mu.Unlock()
	defer cancel()

	values, hasMore, err := a.source.Suggest(ctx, a.field, search, a.limit)

	a.mu.Lock()
	if seq != a.seq || ctx.Err() != nil || err != nil {
		a.mu.Unlock()
		return
	}
	a.values = values
	a.hasMore = hasMore
	a.cancel = nil
	fn := a.onResult
	a.mu.Unlock()

	if fn != nil {
		fn(values, hasMore)
	}
}

func (a *Autocomplete) stopLocked() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
}
