//go:build testutil
// +build testutil

package service_test

import (
	"testing"
	"time"

	"github.com/Freeeeeet/lesson_market/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *env) staleSubscription(t *testing.T, customer *model.User, boughtAt time.Time) *model.Subscription {
	t.Helper()

	product := e.product(t, 90, map[model.LessonType]int{model.LessonOrdinary: 4})
	e.svc.Subscriptions.SetClock(func() time.Time { return boughtAt })
	t.Cleanup(func() { e.svc.Subscriptions.SetClock(time.Now) })

	sub, err := e.svc.Subscriptions.PurchaseSubscription(e.ctx, actorOf(customer), customer.ID, product.ID, 100)
	require.NoError(t, err)
	return sub
}

func TestNotifyUnusedOnce(t *testing.T) {
	e := setup(t)
	now := time.Now().UTC().Truncate(time.Second)
	customer := e.customer(t)
	sub := e.staleSubscription(t, customer, now.AddDate(0, 0, -20))

	sent, err := e.svc.Inactivity.NotifyUnused(e.ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	sent, err = e.svc.Inactivity.NotifyUnused(e.ctx, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, sent)

	e.dispatcher.Wait()
	assert.Equal(t, []int64{sub.ID}, e.sent.Unused())

	stored, err := e.svc.Subscriptions.GetByID(e.ctx, sub.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.UnusedNotificationDate)
	assert.True(t, stored.UnusedNotificationDate.Equal(now))
}

func TestNotifyUnusedSkips(t *testing.T) {
	e := setup(t)
	now := time.Now().UTC().Truncate(time.Second)

	t.Run("future lesson scheduled", func(t *testing.T) {
		customer := e.customer(t)
		sub := e.staleSubscription(t, customer, now.AddDate(0, 0, -20))
		entry := e.entry(t, model.LessonOrdinary, now.Add(48*time.Hour))

		_, err := e.svc.Schedule.Schedule(e.ctx, actorOf(customer), sub.Classes[0].ID, entry.ID)
		require.NoError(t, err)
	})

	t.Run("recent activity", func(t *testing.T) {
		customer := e.customer(t)
		sub := e.staleSubscription(t, customer, now.AddDate(0, 0, -20))
		entry := e.entry(t, model.LessonOrdinary, now.AddDate(0, 0, -2))

		_, err := e.svc.Schedule.Schedule(e.ctx, actorOf(customer), sub.Classes[0].ID, entry.ID)
		require.NoError(t, err)
	})

	t.Run("bought recently", func(t *testing.T) {
		e.staleSubscription(t, e.customer(t), now.AddDate(0, 0, -3))
	})

	t.Run("inactive subscription", func(t *testing.T) {
		sub := e.staleSubscription(t, e.customer(t), now.AddDate(0, 0, -20))

		_, err := e.svc.Subscriptions.SetSubscriptionActive(e.ctx, model.SystemActor, sub.ID, false)
		require.NoError(t, err)
	})

	sent, err := e.svc.Inactivity.NotifyUnused(e.ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 0, sent)

	e.dispatcher.Wait()
	assert.Empty(t, e.sent.Unused())
}

func TestNotifyUnusedRearmsAfterActivity(t *testing.T) {
	e := setup(t)
	now := time.Now().UTC().Truncate(time.Second)
	customer := e.customer(t)
	sub := e.staleSubscription(t, customer, now.AddDate(0, 0, -20))

	sent, err := e.svc.Inactivity.NotifyUnused(e.ctx, now.AddDate(0, 0, -9))
	require.NoError(t, err)
	require.Equal(t, 1, sent)

	// Занятие после напоминания начинает новый период простоя
	entry := e.entry(t, model.LessonOrdinary, now.AddDate(0, 0, -8))
	_, err = e.svc.Schedule.Schedule(e.ctx, actorOf(customer), sub.Classes[0].ID, entry.ID)
	require.NoError(t, err)

	sent, err = e.svc.Inactivity.NotifyUnused(e.ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	sent, err = e.svc.Inactivity.NotifyUnused(e.ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 0, sent)

	e.dispatcher.Wait()
	assert.Equal(t, []int64{sub.ID, sub.ID}, e.sent.Unused())
}
