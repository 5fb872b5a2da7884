package metadata

import "errors"

func upsert(keyword string) error {
	if keyword == "" {
		panic("empty keyword") // want "вызов panic в пакете metadata запрещён"
	}
	return nil
}

func move(from, to string) {
	defer func() {
		if r := recover(); r != nil {
			_ = r
		}
	}()
	if from == to {
		panic(errors.New("same keyword")) // want "вызов panic в пакете metadata запрещён"
	}
}

type store struct{}

// panic как имя метода не встроенная функция.
func (store) panic(string) {}

func shadowed() {
	var s store
	s.panic("ok")
	panic := func(string) {}
	panic("ok")
}
