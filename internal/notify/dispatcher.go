package notify

import (
	"context"
	"sync"
	"time"

	"github.com/Freeeeeet/lesson_market/internal/metrics"
	"github.com/Freeeeeet/lesson_market/internal/model"
	"go.uber.org/zap"
)

const deliveryTimeout = 30 * time.Second

// Dispatcher отправляет уведомления в фоне, не блокируя вызывающего
type Dispatcher struct {
	notifier Notifier
	logger   *zap.Logger
	wg       sync.WaitGroup
}

func NewDispatcher(notifier Notifier, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		notifier: notifier,
		logger:   logger,
	}
}

// ClassScheduled уведомляет что урок поставлен в расписание
func (d *Dispatcher) ClassScheduled(ctx context.Context, user *model.User, class *model.Class, entry *model.TimelineEntry) {
	d.dispatch(ctx, "class_scheduled", func(ctx context.Context) error {
		return d.notifier.ClassScheduled(ctx, user, class, entry)
	})
}

// SubscriptionUnused напоминает об абонементе, который простаивает неделю
func (d *Dispatcher) SubscriptionUnused(ctx context.Context, user *model.User, sub *model.Subscription) {
	d.dispatch(ctx, "subscription_unused", func(ctx context.Context) error {
		return d.notifier.SubscriptionUnused(ctx, user, sub)
	})
}

// Wait ждёт завершения всех отправок (для остановки и тестов)
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) dispatch(ctx context.Context, kind string, send func(ctx context.Context) error) {
	// Запрос мог уже завершиться, отправка от него не зависит
	ctx = context.WithoutCancel(ctx)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(ctx, deliveryTimeout)
		defer cancel()

		if err := send(ctx); err != nil {
			metrics.Notifications.WithLabelValues(kind, "error").Inc()
			d.logger.Error("Failed to deliver notification",
				zap.String("kind", kind),
				zap.Error(err))
			return
		}
		metrics.Notifications.WithLabelValues(kind, "ok").Inc()
	}()
}
