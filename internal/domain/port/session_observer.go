package port

import "terrain-bot/internal/domain/entity"

// SessionObserver получает снимок сессии после каждого перехода состояния
type SessionObserver interface {
	OnSessionChange(snapshot entity.Snapshot)
}

// SessionObserverFunc адаптер функции к SessionObserver
type SessionObserverFunc func(snapshot entity.Snapshot)

// OnSessionChange вызывает f(snapshot)
func (f SessionObserverFunc) OnSessionChange(snapshot entity.Snapshot) {
	f(snapshot)
}
