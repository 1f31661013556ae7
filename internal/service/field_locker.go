package service

import "sync"

// FieldLocker сериализует изменения слотов одного поля:
// замену расписания, блокировки и материализацию слота при подтверждении.
type FieldLocker struct {
	mu    sync.Mutex
	locks map[int64]*fieldLock
}

type fieldLock struct {
	mu   sync.Mutex
	refs int
}

func NewFieldLocker() *FieldLocker {
	return &FieldLocker{locks: make(map[int64]*fieldLock)}
}

// Lock захватывает блокировку поля и возвращает функцию освобождения
func (l *FieldLocker) Lock(fieldID int64) (unlock func()) {
	l.mu.Lock()
	fl, ok := l.locks[fieldID]
	if !ok {
		fl = &fieldLock{}
		l.locks[fieldID] = fl
	}
	fl.refs++
	l.mu.Unlock()

	fl.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			fl.mu.Unlock()

			l.mu.Lock()
			fl.refs--
			if fl.refs == 0 {
				delete(l.locks, fieldID)
			}
			l.mu.Unlock()
		})
	}
}

// size количество полей с активными блокировками
func (l *FieldLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
