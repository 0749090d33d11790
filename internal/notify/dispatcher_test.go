package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/lesson_market/internal/model"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeNotifier struct {
	mu        sync.Mutex
	scheduled []int64
	unused    []int64
	err       error
}

func (f *fakeNotifier) ClassScheduled(ctx context.Context, user *model.User, class *model.Class, entry *model.TimelineEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scheduled = append(f.scheduled, class.ID)
	return f.err
}

func (f *fakeNotifier) SubscriptionUnused(ctx context.Context, user *model.User, sub *model.Subscription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unused = append(f.unused, sub.ID)
	return f.err
}

func TestDispatcherDeliversAfterCallerCancelled(t *testing.T) {
	fake := &fakeNotifier{}
	d := NewDispatcher(fake, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	user := &model.User{ID: 1}
	entry := &model.TimelineEntry{ID: 2, StartTime: time.Now()}
	d.ClassScheduled(ctx, user, &model.Class{ID: 3, LessonType: model.LessonOrdinary}, entry)
	d.SubscriptionUnused(ctx, user, &model.Subscription{ID: 4})
	d.Wait()

	assert.Equal(t, []int64{3}, fake.scheduled)
	assert.Equal(t, []int64{4}, fake.unused)
}

func TestDispatcherSwallowsDeliveryErrors(t *testing.T) {
	fake := &fakeNotifier{err: errors.New("chat not found")}
	d := NewDispatcher(fake, zap.NewNop())

	assert.NotPanics(t, func() {
		d.SubscriptionUnused(context.Background(), &model.User{ID: 1}, &model.Subscription{ID: 9})
		d.Wait()
	})
	assert.Equal(t, []int64{9}, fake.unused)
}

func TestTexts(t *testing.T) {
	start := time.Date(2032, 12, 11, 18, 30, 0, 0, time.UTC)
	entry := &model.TimelineEntry{StartTime: start, EndTime: start.Add(time.Hour)}

	text := classScheduledText(&model.Class{LessonType: model.LessonPaired}, entry)
	assert.Contains(t, text, "Paired lesson")
	assert.Contains(t, text, "11.12.2032 18:30")
	assert.Contains(t, text, "18:30-19:30")

	expires := start.AddDate(0, 1, 0)
	sub := &model.Subscription{
		ExpiresAt: &expires,
		Product:   &model.Product{Name: "Starter", Lessons: map[model.LessonType]int{model.LessonOrdinary: 1}},
	}
	text = subscriptionUnusedText(sub)
	assert.Contains(t, text, `"Starter"`)
	assert.Contains(t, text, "11.01.2033")
	assert.Contains(t, text, "1 lesson.")

	assert.Contains(t, subscriptionUnusedText(&model.Subscription{}), `"subscription"`)
}
