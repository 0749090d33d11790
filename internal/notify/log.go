package notify

import (
	"context"

	"github.com/Freeeeeet/lesson_market/internal/model"
	"go.uber.org/zap"
)

// Log пишет уведомления в лог, когда Telegram не настроен
type Log struct {
	logger *zap.Logger
}

func NewLog(logger *zap.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) ClassScheduled(_ context.Context, user *model.User, class *model.Class, entry *model.TimelineEntry) error {
	l.logger.Info("Notification: class scheduled",
		zap.Int64("user_id", user.ID),
		zap.Int64("class_id", class.ID),
		zap.Int64("timeline_entry_id", entry.ID),
		zap.String("text", classScheduledText(class, entry)))
	return nil
}

func (l *Log) SubscriptionUnused(_ context.Context, user *model.User, sub *model.Subscription) error {
	l.logger.Info("Notification: subscription unused",
		zap.Int64("user_id", user.ID),
		zap.Int64("subscription_id", sub.ID),
		zap.String("text", subscriptionUnusedText(sub)))
	return nil
}
