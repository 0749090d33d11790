// Package notify доставляет уведомления покупателям. Доставка является побочным эффектом
// после коммита: её ошибки логируются и не откатывают изменения в леджере.
package notify

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/lesson_market/internal/model"
)

// Notifier описывает канал доставки
type Notifier interface {
	ClassScheduled(ctx context.Context, user *model.User, class *model.Class, entry *model.TimelineEntry) error
	SubscriptionUnused(ctx context.Context, user *model.User, sub *model.Subscription) error
}

func classScheduledText(class *model.Class, entry *model.TimelineEntry) string {
	return fmt.Sprintf("You are scheduled: %s on %s.", class.LessonType.Name(), formatEntry(entry))
}

func subscriptionUnusedText(sub *model.Subscription) string {
	text := fmt.Sprintf("You have not taken any lessons from \"%s\" for a week.", sub.NameForUser())
	if sub.ExpiresAt != nil {
		text += " It is valid until " + sub.ExpiresAt.Format("02.01.2006") + "."
	}
	if sub.Product != nil {
		n := sub.Product.LessonsCount()
		text += fmt.Sprintf(" The plan includes %d %s.", n, pluralizeLessons(n))
	}
	return text + " Time to schedule the next one!"
}
