//go:build testutil
// +build testutil

package service_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Freeeeeet/lesson_market/internal/app"
	"github.com/Freeeeeet/lesson_market/internal/model"
	"github.com/Freeeeeet/lesson_market/internal/notify"
	"github.com/Freeeeeet/lesson_market/internal/testutil/testdb"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var db *testdb.DBHandle

func TestMain(m *testing.M) {
	h, err := testdb.Start(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "start test db: %v\n", err)
		os.Exit(1)
	}
	db = h

	code := m.Run()
	h.Close()
	os.Exit(code)
}

// recorder запоминает отправленные уведомления
type recorder struct {
	mu        sync.Mutex
	scheduled []int64
	unused    []int64
}

func (r *recorder) ClassScheduled(ctx context.Context, user *model.User, class *model.Class, entry *model.TimelineEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scheduled = append(r.scheduled, class.ID)
	return nil
}

func (r *recorder) SubscriptionUnused(ctx context.Context, user *model.User, sub *model.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unused = append(r.unused, sub.ID)
	return nil
}

func (r *recorder) Unused() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.unused...)
}

func (r *recorder) Scheduled() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.scheduled...)
}

type env struct {
	ctx        context.Context
	svc        *app.Services
	dispatcher *notify.Dispatcher
	sent       *recorder
	teacher    *model.User
}

var telegramSeq atomic.Int64

func setup(t *testing.T) *env {
	t.Helper()

	ctx := context.Background()
	require.NoError(t, db.Reset(ctx))

	sent := &recorder{}
	dispatcher := notify.NewDispatcher(sent, zap.NewNop())

	e := &env{
		ctx:        ctx,
		svc:        app.NewServices(db.Pool, dispatcher, zap.NewNop()),
		dispatcher: dispatcher,
		sent:       sent,
	}
	e.teacher = e.user(t, true)

	t.Cleanup(dispatcher.Wait)
	return e
}

func (e *env) user(t *testing.T, teacher bool) *model.User {
	t.Helper()

	u := &model.User{
		TelegramID: 100000 + telegramSeq.Add(1),
		FirstName:  "Test",
		IsTeacher:  teacher,
	}
	require.NoError(t, e.svc.Users.Create(e.ctx, u))
	return u
}

func (e *env) customer(t *testing.T) *model.User {
	return e.user(t, false)
}

func (e *env) product(t *testing.T, days int, lessons map[model.LessonType]int) *model.Product {
	t.Helper()

	p := &model.Product{
		Name:         "Pack",
		DurationDays: days,
		IsActive:     true,
		Lessons:      lessons,
	}
	require.NoError(t, e.svc.Products.Create(e.ctx, p))
	return p
}

func (e *env) entry(t *testing.T, lt model.LessonType, start time.Time) *model.TimelineEntry {
	t.Helper()

	entry, err := e.svc.Timeline.CreateEntry(e.ctx, e.teacher.ID, lt, start, time.Hour, 0)
	require.NoError(t, err)
	return entry
}

func (e *env) lesson(t *testing.T, customer *model.User, lt model.LessonType) *model.Class {
	t.Helper()

	class, err := e.svc.Classes.PurchaseLesson(e.ctx, model.Actor{UserID: customer.ID}, customer.ID, lt)
	require.NoError(t, err)
	return class
}

func (e *env) takenSlots(t *testing.T, entryID int64) int {
	t.Helper()

	entry, err := e.svc.Timeline.GetByID(e.ctx, entryID)
	require.NoError(t, err)
	return entry.TakenSlots
}

func actorOf(u *model.User) model.Actor {
	return model.Actor{UserID: u.ID}
}

// future возвращает момент через n часов, обрезанный до точности PostgreSQL
func future(n int) time.Time {
	return time.Now().UTC().Truncate(time.Second).Add(time.Duration(n) * time.Hour)
}
