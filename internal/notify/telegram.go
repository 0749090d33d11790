package notify

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/lesson_market/internal/model"
	"github.com/go-telegram/bot"
)

// Telegram отправляет уведомления в личный чат пользователя
type Telegram struct {
	bot *bot.Bot
}

// NewTelegram создаёт клиента бота по токену
func NewTelegram(token string) (*Telegram, error) {
	b, err := bot.New(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &Telegram{bot: b}, nil
}

func (t *Telegram) ClassScheduled(ctx context.Context, user *model.User, class *model.Class, entry *model.TimelineEntry) error {
	return t.send(ctx, user, classScheduledText(class, entry))
}

func (t *Telegram) SubscriptionUnused(ctx context.Context, user *model.User, sub *model.Subscription) error {
	return t.send(ctx, user, subscriptionUnusedText(sub))
}

func (t *Telegram) send(ctx context.Context, user *model.User, text string) error {
	if user.TelegramID == 0 {
		return fmt.Errorf("user %d has no telegram id", user.ID)
	}

	_, err := t.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: user.TelegramID,
		Text:   text,
	})
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}
