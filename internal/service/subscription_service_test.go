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

func TestPurchaseSubscriptionExpandsProduct(t *testing.T) {
	e := setup(t)
	customer := e.customer(t)
	product := e.product(t, 30, map[model.LessonType]int{
		model.LessonOrdinary:   2,
		model.LessonWithNative: 2,
		model.LessonPaired:     1,
	})

	buyDate := time.Date(2032, 1, 10, 9, 0, 0, 0, time.UTC)
	e.svc.Subscriptions.SetClock(func() time.Time { return buyDate })

	sub, err := e.svc.Subscriptions.PurchaseSubscription(e.ctx, actorOf(customer), customer.ID, product.ID, 9900)
	require.NoError(t, err)
	require.NotNil(t, sub.ActivatedAt)
	require.NotNil(t, sub.ExpiresAt)
	assert.True(t, sub.ExpiresAt.Equal(buyDate.AddDate(0, 0, 30)))

	stored, err := e.svc.Subscriptions.GetByID(e.ctx, sub.ID)
	require.NoError(t, err)
	require.Len(t, stored.Classes, 5)
	assert.Equal(t, product.Name, stored.Product.Name)

	counts := map[model.LessonType]int{}
	for _, c := range stored.Classes {
		counts[c.LessonType]++
		assert.Equal(t, model.BuySourceSubscription, c.BuySource)
		assert.Equal(t, customer.ID, c.CustomerID)
		require.NotNil(t, c.SubscriptionID)
		assert.Equal(t, sub.ID, *c.SubscriptionID)
		assert.True(t, c.IsActive)
		assert.True(t, c.BuyDate.Equal(buyDate))
		require.NotNil(t, c.ExpiresAt)
		assert.True(t, c.ExpiresAt.Equal(*sub.ExpiresAt))
	}
	assert.Equal(t, map[model.LessonType]int{
		model.LessonOrdinary:   2,
		model.LessonWithNative: 2,
		model.LessonPaired:     1,
	}, counts)
}

func TestActivateIsIdempotent(t *testing.T) {
	e := setup(t)
	customer := e.customer(t)
	product := e.product(t, 30, map[model.LessonType]int{model.LessonHappyHour: 3})

	sub, err := e.svc.Subscriptions.PurchaseSubscription(e.ctx, actorOf(customer), customer.ID, product.ID, 100)
	require.NoError(t, err)

	again, err := e.svc.Subscriptions.Activate(e.ctx, actorOf(customer), sub.ID)
	require.NoError(t, err)
	require.Len(t, again.Classes, 3)

	ids := func(classes []*model.Class) []int64 {
		out := make([]int64, 0, len(classes))
		for _, c := range classes {
			out = append(out, c.ID)
		}
		return out
	}
	assert.ElementsMatch(t, ids(sub.Classes), ids(again.Classes))
	assert.True(t, sub.ActivatedAt.Equal(*again.ActivatedAt))

	all, err := e.svc.Classes.GetCustomerClasses(e.ctx, customer.ID)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestPurchaseSubscriptionRollsBack(t *testing.T) {
	e := setup(t)
	customer := e.customer(t)
	product := e.product(t, 30, map[model.LessonType]int{model.LessonOrdinary: 4})

	t.Run("unknown product", func(t *testing.T) {
		_, err := e.svc.Subscriptions.PurchaseSubscription(e.ctx, actorOf(customer), customer.ID, 424242, 100)
		require.ErrorIs(t, err, model.ErrPurchaseFailed)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("failure after subscription insert", func(t *testing.T) {
		ghost := model.Actor{UserID: 424242}

		_, err := e.svc.Subscriptions.PurchaseSubscription(e.ctx, ghost, customer.ID, product.ID, 100)
		require.ErrorIs(t, err, model.ErrPurchaseFailed)
	})

	subs, err := e.svc.Subscriptions.GetCustomerSubscriptions(e.ctx, customer.ID)
	require.NoError(t, err)
	assert.Empty(t, subs)

	classes, err := e.svc.Classes.GetCustomerClasses(e.ctx, customer.ID)
	require.NoError(t, err)
	assert.Empty(t, classes)
}

func TestSubscriptionActiveCascade(t *testing.T) {
	e := setup(t)
	customer := e.customer(t)
	product := e.product(t, 30, map[model.LessonType]int{
		model.LessonOrdinary: 2,
		model.LessonPaired:   1,
	})

	sub, err := e.svc.Subscriptions.PurchaseSubscription(e.ctx, actorOf(customer), customer.ID, product.ID, 100)
	require.NoError(t, err)

	assertAll := func(active bool) {
		t.Helper()
		stored, err := e.svc.Subscriptions.GetByID(e.ctx, sub.ID)
		require.NoError(t, err)
		assert.Equal(t, active, stored.IsActive)
		for _, c := range stored.Classes {
			assert.Equal(t, active, c.IsActive, "class %d", c.ID)
		}
	}

	_, err = e.svc.Subscriptions.SetSubscriptionActive(e.ctx, model.SystemActor, sub.ID, false)
	require.NoError(t, err)
	assertAll(false)

	_, err = e.svc.Classes.SetClassActive(e.ctx, model.SystemActor, sub.Classes[0].ID, true)
	require.ErrorIs(t, err, model.ErrInvalidState)
	assert.Equal(t, model.CodeInvalidState, model.CodeOf(err))
	assertAll(false)

	found, err := e.svc.Classes.FindClass(e.ctx, customer.ID, model.LessonOrdinary)
	require.NoError(t, err)
	assert.False(t, found.Result)

	_, err = e.svc.Subscriptions.SetSubscriptionActive(e.ctx, model.SystemActor, sub.ID, true)
	require.NoError(t, err)
	assertAll(true)

	// Отдельный урок абонемента можно выключить при активном абонементе
	class, err := e.svc.Classes.SetClassActive(e.ctx, model.SystemActor, sub.Classes[0].ID, false)
	require.NoError(t, err)
	assert.False(t, class.IsActive)
}
