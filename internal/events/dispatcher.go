package events

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Freeeeeet/fieldbook/internal/model"
)

// Observer реагирует на события жизненного цикла бронирования
type Observer interface {
	OnBookingEvent(ctx context.Context, event model.BookingEvent) error
}

// ObserverFunc позволяет использовать функцию как Observer
type ObserverFunc func(ctx context.Context, event model.BookingEvent) error

func (f ObserverFunc) OnBookingEvent(ctx context.Context, event model.BookingEvent) error {
	return f(ctx, event)
}

type subscription struct {
	name     string
	observer Observer
}

// Dispatcher рассылает события подписчикам.
// Ошибка или паника одного наблюдателя не влияет на остальных и на вызывающую операцию.
type Dispatcher struct {
	mu            sync.RWMutex
	subscriptions []subscription
	logger        *zap.Logger
}

// NewDispatcher создаёт пустой диспетчер
func NewDispatcher(logger *zap.Logger) *Dispatcher {
	return &Dispatcher{logger: logger}
}

// Subscribe регистрирует наблюдателя под именем. Повторная регистрация заменяет прежнего.
func (d *Dispatcher) Subscribe(name string, observer Observer) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, s := range d.subscriptions {
		if s.name == name {
			d.subscriptions[i].observer = observer
			return
		}
	}
	d.subscriptions = append(d.subscriptions, subscription{name: name, observer: observer})

	d.logger.Debug("Observer subscribed", zap.String("observer", name))
}

// Unsubscribe удаляет наблюдателя. Возвращает false, если его не было.
func (d *Dispatcher) Unsubscribe(name string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, s := range d.subscriptions {
		if s.name == name {
			d.subscriptions = append(d.subscriptions[:i], d.subscriptions[i+1:]...)
			d.logger.Debug("Observer unsubscribed", zap.String("observer", name))
			return true
		}
	}
	return false
}

// Publish уведомляет всех подписчиков в порядке регистрации
func (d *Dispatcher) Publish(ctx context.Context, event model.BookingEvent) {
	d.mu.RLock()
	subs := make([]subscription, len(d.subscriptions))
	copy(subs, d.subscriptions)
	d.mu.RUnlock()

	for _, s := range subs {
		if err := d.notify(ctx, s, event); err != nil {
			fields := []zap.Field{
				zap.String("observer", s.name),
				zap.String("event", string(event.Kind)),
				zap.Error(err),
			}
			if event.Booking != nil {
				fields = append(fields, zap.Int64("booking_id", event.Booking.ID))
			}
			d.logger.Error("Observer failed", fields...)
		}
	}
}

func (d *Dispatcher) notify(ctx context.Context, s subscription, event model.BookingEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("observer panic: %v", r)
		}
	}()
	return s.observer.OnBookingEvent(ctx, event)
}
