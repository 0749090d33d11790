package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ClassesPurchased = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "lessonmarket", Name: "classes_purchased_total", Help: "Standalone classes purchased",
	})
	SubscriptionsPurchased = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "lessonmarket", Name: "subscriptions_purchased_total", Help: "Subscriptions purchased and expanded",
	})
	ScheduleAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lessonmarket", Name: "schedule_attempts_total", Help: "Schedule attempts by result code",
	}, []string{"result"})
	Unschedules = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "lessonmarket", Name: "unschedules_total", Help: "Classes taken off the timeline",
	})
	UnusedNotifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lessonmarket", Name: "unused_notifications_total", Help: "Unused subscription notifications",
	}, []string{"result"})
	Notifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lessonmarket", Name: "notifications_total", Help: "Dispatched notifications by kind and result",
	}, []string{"kind", "result"})
)

func init() {
	prometheus.MustRegister(ClassesPurchased, SubscriptionsPurchased, ScheduleAttempts, Unschedules,
		UnusedNotifications, Notifications)
}

func Handler() http.Handler { return promhttp.Handler() }

// ScheduleResult возвращает метку для ScheduleAttempts по коду ошибки
func ScheduleResult(code string) string {
	if code == "" {
		return "error"
	}
	return code
}
