//go:build testutil
// +build testutil

package service_test

import (
	"sync"
	"testing"

	"github.com/Freeeeeet/lesson_market/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleAndUnschedule(t *testing.T) {
	e := setup(t)
	customer := e.customer(t)
	class := e.lesson(t, customer, model.LessonOrdinary)
	entry := e.entry(t, model.LessonOrdinary, future(24))

	scheduled, err := e.svc.Schedule.Schedule(e.ctx, actorOf(customer), class.ID, entry.ID)
	require.NoError(t, err)
	require.NotNil(t, scheduled.TimelineEntryID)
	assert.Equal(t, entry.ID, *scheduled.TimelineEntryID)
	assert.Equal(t, 1, e.takenSlots(t, entry.ID))

	unscheduled, err := e.svc.Schedule.Unschedule(e.ctx, actorOf(customer), class.ID)
	require.NoError(t, err)
	assert.Nil(t, unscheduled.TimelineEntryID)
	assert.Equal(t, 0, e.takenSlots(t, entry.ID))

	stored, err := e.svc.Classes.GetByID(e.ctx, class.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.TimelineEntryID)

	e.dispatcher.Wait()
	assert.Equal(t, []int64{class.ID}, e.sent.Scheduled())
}

func TestUnscheduleNotScheduled(t *testing.T) {
	e := setup(t)
	customer := e.customer(t)
	class := e.lesson(t, customer, model.LessonOrdinary)

	_, err := e.svc.Schedule.Unschedule(e.ctx, actorOf(customer), class.ID)
	require.ErrorIs(t, err, model.ErrCannotBeUnscheduled)
	assert.Equal(t, model.CodeNotScheduled, model.CodeOf(err))
}

func TestScheduleRejections(t *testing.T) {
	e := setup(t)
	customer := e.customer(t)

	t.Run("type mismatch keeps occupancy", func(t *testing.T) {
		class := e.lesson(t, customer, model.LessonMasterClass)
		entry := e.entry(t, model.LessonPaired, future(10))

		_, err := e.svc.Schedule.Schedule(e.ctx, actorOf(customer), class.ID, entry.ID)
		require.ErrorIs(t, err, model.ErrCannotBeScheduled)
		assert.Equal(t, model.CodeTypeMismatch, model.CodeOf(err))
		assert.Equal(t, 0, e.takenSlots(t, entry.ID))
	})

	t.Run("already scheduled", func(t *testing.T) {
		class := e.lesson(t, customer, model.LessonOrdinary)
		first := e.entry(t, model.LessonOrdinary, future(11))
		second := e.entry(t, model.LessonOrdinary, future(12))

		_, err := e.svc.Schedule.Schedule(e.ctx, actorOf(customer), class.ID, first.ID)
		require.NoError(t, err)

		_, err = e.svc.Schedule.Schedule(e.ctx, actorOf(customer), class.ID, second.ID)
		require.ErrorIs(t, err, model.ErrCannotBeScheduled)
		assert.Equal(t, model.CodeAlreadyScheduled, model.CodeOf(err))
		assert.Equal(t, 0, e.takenSlots(t, second.ID))
	})

	t.Run("inactive class", func(t *testing.T) {
		class := e.lesson(t, customer, model.LessonOrdinary)
		entry := e.entry(t, model.LessonOrdinary, future(13))

		_, err := e.svc.Classes.SetClassActive(e.ctx, actorOf(customer), class.ID, false)
		require.NoError(t, err)

		_, err = e.svc.Schedule.Schedule(e.ctx, actorOf(customer), class.ID, entry.ID)
		require.ErrorIs(t, err, model.ErrCannotBeScheduled)
		assert.Equal(t, model.CodeInactive, model.CodeOf(err))
	})

	t.Run("unknown class", func(t *testing.T) {
		entry := e.entry(t, model.LessonOrdinary, future(14))

		_, err := e.svc.Schedule.Schedule(e.ctx, actorOf(customer), 987654, entry.ID)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}

func TestScheduleGroupCapacity(t *testing.T) {
	e := setup(t)
	entry := e.entry(t, model.LessonPaired, future(48))
	require.Equal(t, 2, entry.Slots)

	for i := 0; i < 2; i++ {
		customer := e.customer(t)
		class := e.lesson(t, customer, model.LessonPaired)

		_, err := e.svc.Schedule.Schedule(e.ctx, actorOf(customer), class.ID, entry.ID)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, e.takenSlots(t, entry.ID))

	late := e.customer(t)
	class := e.lesson(t, late, model.LessonPaired)

	_, err := e.svc.Schedule.Schedule(e.ctx, actorOf(late), class.ID, entry.ID)
	require.ErrorIs(t, err, model.ErrCannotBeScheduled)
	assert.Equal(t, model.CodeSlotFull, model.CodeOf(err))
	assert.Equal(t, 2, e.takenSlots(t, entry.ID))

	free, err := e.svc.Timeline.GetAvailableEntries(e.ctx, model.LessonPaired, future(0), future(72))
	require.NoError(t, err)
	assert.Empty(t, free)
}

func TestScheduleLastSeatRace(t *testing.T) {
	e := setup(t)
	entry := e.entry(t, model.LessonOrdinary, future(24))

	const racers = 6
	classes := make([]*model.Class, racers)
	customers := make([]*model.User, racers)
	for i := range racers {
		customers[i] = e.customer(t)
		classes[i] = e.lesson(t, customers[i], model.LessonOrdinary)
	}

	var (
		wg   sync.WaitGroup
		errs = make([]error, racers)
	)
	for i := range racers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = e.svc.Schedule.Schedule(e.ctx, actorOf(customers[i]), classes[i].ID, entry.ID)
		}()
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		assert.ErrorIs(t, err, model.ErrCannotBeScheduled)
		assert.Equal(t, model.CodeSlotFull, model.CodeOf(err))
	}
	assert.Equal(t, 1, winners)
	assert.Equal(t, 1, e.takenSlots(t, entry.ID))
}

func TestScheduleRecordsLedgerEvents(t *testing.T) {
	e := setup(t)
	customer := e.customer(t)
	class := e.lesson(t, customer, model.LessonWithNative)
	entry := e.entry(t, model.LessonWithNative, future(5))

	_, err := e.svc.Schedule.Schedule(e.ctx, actorOf(customer), class.ID, entry.ID)
	require.NoError(t, err)
	_, err = e.svc.Schedule.Unschedule(e.ctx, actorOf(customer), class.ID)
	require.NoError(t, err)

	events, err := e.svc.Events.GetByClassID(e.ctx, class.ID)
	require.NoError(t, err)

	kinds := make([]model.LedgerEventKind, 0, len(events))
	for _, ev := range events {
		kinds = append(kinds, ev.Kind)
		require.NotNil(t, ev.ActorID)
		assert.Equal(t, customer.ID, *ev.ActorID)
	}
	assert.ElementsMatch(t, []model.LedgerEventKind{
		model.EventClassPurchased,
		model.EventClassScheduled,
		model.EventClassUnscheduled,
	}, kinds)
}
