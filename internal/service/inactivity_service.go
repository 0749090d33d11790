package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/lesson_market/internal/metrics"
	"github.com/Freeeeeet/lesson_market/internal/model"
	"github.com/Freeeeeet/lesson_market/internal/notify"
	"github.com/Freeeeeet/lesson_market/internal/repository"
	"github.com/Freeeeeet/lesson_market/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// InactivityService напоминает покупателям об абонементах, которыми не пользуются неделю
type InactivityService struct {
	pool             *pgxpool.Pool
	userRepo         *repository.UserRepository
	productRepo      *repository.ProductRepository
	subscriptionRepo *repository.SubscriptionRepository
	classRepo        *repository.ClassRepository
	eventRepo        *repository.EventRepository
	dispatcher       *notify.Dispatcher
	logger           *zap.Logger
}

func NewInactivityService(
	pool *pgxpool.Pool,
	userRepo *repository.UserRepository,
	productRepo *repository.ProductRepository,
	subscriptionRepo *repository.SubscriptionRepository,
	classRepo *repository.ClassRepository,
	eventRepo *repository.EventRepository,
	dispatcher *notify.Dispatcher,
	logger *zap.Logger,
) *InactivityService {
	return &InactivityService{
		pool:             pool,
		userRepo:         userRepo,
		productRepo:      productRepo,
		subscriptionRepo: subscriptionRepo,
		classRepo:        classRepo,
		eventRepo:        eventRepo,
		dispatcher:       dispatcher,
		logger:           logger,
	}
}

// NotifyUnused отправляет по одному напоминанию на каждый простаивающий абонемент.
// Возвращает сколько напоминаний отправлено. Ошибка по одному абонементу не
// останавливает остальные.
func (s *InactivityService) NotifyUnused(ctx context.Context, now time.Time) (int, error) {
	subs, err := s.subscriptionRepo.UnusedForAWeek(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("get unused subscriptions: %w", err)
	}

	var (
		sent int
		errs []error
	)
	for _, sub := range subs {
		ok, err := s.notifyOne(ctx, sub, now)
		if err != nil {
			metrics.UnusedNotifications.WithLabelValues("error").Inc()
			s.logger.Error("Failed to process unused subscription",
				zap.Int64("subscription_id", sub.ID),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("subscription %d: %w", sub.ID, err))
			continue
		}

		if !ok {
			metrics.UnusedNotifications.WithLabelValues("skipped").Inc()
			continue
		}

		metrics.UnusedNotifications.WithLabelValues("sent").Inc()
		sent++
	}

	s.logger.Info("Unused subscriptions processed",
		zap.Int("candidates", len(subs)),
		zap.Int("notified", sent),
	)

	return sent, errors.Join(errs...)
}

func (s *InactivityService) notifyOne(ctx context.Context, sub *model.Subscription, now time.Time) (bool, error) {
	nearest, err := s.classRepo.NearestScheduled(ctx, sub.CustomerID, now)
	if err != nil {
		return false, err
	}

	// Покупатель уже записан на будущее занятие
	if nearest != nil {
		return false, nil
	}

	user, err := s.userRepo.GetByID(ctx, sub.CustomerID)
	if err != nil {
		return false, fmt.Errorf("get customer: %w", err)
	}

	if user == nil {
		return false, fmt.Errorf("customer %d: %w", sub.CustomerID, model.ErrNotFound)
	}

	sub.Product, err = s.productRepo.GetByID(ctx, sub.ProductID)
	if err != nil {
		return false, fmt.Errorf("get product: %w", err)
	}

	err = base.RunInTx(ctx, s.pool, func(tx pgx.Tx) error {
		if err := s.subscriptionRepo.WithTx(tx).SetUnusedNotificationDate(ctx, sub.ID, now); err != nil {
			return err
		}

		return s.eventRepo.WithTx(tx).Record(ctx, &model.LedgerEvent{
			Kind:           model.EventUnusedNotified,
			SubscriptionID: &sub.ID,
		})
	})
	if err != nil {
		return false, err
	}
	sub.UnusedNotificationDate = &now

	s.dispatcher.SubscriptionUnused(ctx, user, sub)

	return true, nil
}
