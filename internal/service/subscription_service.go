package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/lesson_market/internal/metrics"
	"github.com/Freeeeeet/lesson_market/internal/model"
	"github.com/Freeeeeet/lesson_market/internal/repository"
	"github.com/Freeeeeet/lesson_market/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// SubscriptionService отвечает за покупку абонементов, выдача уроков по составу продукта
// и включение/выключение абонемента вместе с его уроками
type SubscriptionService struct {
	pool             *pgxpool.Pool
	productRepo      *repository.ProductRepository
	subscriptionRepo *repository.SubscriptionRepository
	classRepo        *repository.ClassRepository
	eventRepo        *repository.EventRepository
	logger           *zap.Logger
	now              func() time.Time
}

func NewSubscriptionService(
	pool *pgxpool.Pool,
	productRepo *repository.ProductRepository,
	subscriptionRepo *repository.SubscriptionRepository,
	classRepo *repository.ClassRepository,
	eventRepo *repository.EventRepository,
	logger *zap.Logger,
) *SubscriptionService {
	return &SubscriptionService{
		pool:             pool,
		productRepo:      productRepo,
		subscriptionRepo: subscriptionRepo,
		classRepo:        classRepo,
		eventRepo:        eventRepo,
		logger:           logger,
		now:              time.Now,
	}
}

// SetClock подменяет источник текущего времени
func (s *SubscriptionService) SetClock(now func() time.Time) {
	s.now = now
}

// PurchaseSubscription покупает абонемент и сразу выдаёт все его уроки.
// Всё в одной транзакции: при любой ошибке не остаётся ни абонемента, ни уроков.
func (s *SubscriptionService) PurchaseSubscription(ctx context.Context, actor model.Actor, customerID, productID int64, buyPrice int) (*model.Subscription, error) {
	var sub *model.Subscription

	err := base.RunInTx(ctx, s.pool, func(tx pgx.Tx) error {
		product, err := s.productRepo.WithTx(tx).GetByID(ctx, productID)
		if err != nil {
			return err
		}

		if product == nil {
			return fmt.Errorf("product %d: %w", productID, model.ErrNotFound)
		}

		if !product.IsActive {
			return fmt.Errorf("product %d is not on sale", productID)
		}

		buyDate := s.now()
		expiresAt := buyDate.Add(product.Duration())
		sub = &model.Subscription{
			CustomerID: customerID,
			ProductID:  productID,
			BuyPrice:   buyPrice,
			IsActive:   true,
			BuyDate:    buyDate,
			ExpiresAt:  &expiresAt,
		}

		if err := s.subscriptionRepo.WithTx(tx).Create(ctx, sub); err != nil {
			return err
		}

		if err := s.eventRepo.WithTx(tx).Record(ctx, &model.LedgerEvent{
			Kind:           model.EventSubscriptionPurchased,
			SubscriptionID: &sub.ID,
			ActorID:        actor.Ref(),
		}); err != nil {
			return err
		}

		sub, err = s.activate(ctx, tx, actor, sub.ID)
		if err != nil {
			return err
		}
		sub.Product = product

		return nil
	})
	if err != nil {
		s.logger.Error("Subscription purchase failed",
			zap.Int64("customer_id", customerID),
			zap.Int64("product_id", productID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %w", model.ErrPurchaseFailed, err)
	}

	metrics.SubscriptionsPurchased.Inc()
	s.logger.Info("Subscription purchased",
		zap.Int64("subscription_id", sub.ID),
		zap.Int64("customer_id", customerID),
		zap.Int64("product_id", productID),
		zap.Int("classes", len(sub.Classes)),
	)

	return sub, nil
}

// Activate выдаёт уроки абонемента, если они ещё не выданы. Повторный вызов ничего не меняет.
func (s *SubscriptionService) Activate(ctx context.Context, actor model.Actor, subscriptionID int64) (*model.Subscription, error) {
	var sub *model.Subscription

	err := base.RunInTx(ctx, s.pool, func(tx pgx.Tx) error {
		var err error
		sub, err = s.activate(ctx, tx, actor, subscriptionID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("activate subscription: %w", err)
	}

	return sub, nil
}

// activate разворачивает состав продукта в уроки. Строка абонемента блокируется,
// поэтому параллельная активация дождётся первой и увидит activated_at.
func (s *SubscriptionService) activate(ctx context.Context, tx pgx.Tx, actor model.Actor, subscriptionID int64) (*model.Subscription, error) {
	subscriptionRepo := s.subscriptionRepo.WithTx(tx)
	classRepo := s.classRepo.WithTx(tx)

	sub, err := subscriptionRepo.GetByIDForUpdate(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}

	if sub == nil {
		return nil, fmt.Errorf("subscription %d: %w", subscriptionID, model.ErrNotFound)
	}

	if sub.IsActivated() {
		sub.Classes, err = classRepo.GetBySubscriptionID(ctx, sub.ID)
		if err != nil {
			return nil, err
		}
		return sub, nil
	}

	product, err := s.productRepo.WithTx(tx).GetByID(ctx, sub.ProductID)
	if err != nil {
		return nil, err
	}

	if product == nil {
		return nil, fmt.Errorf("product %d: %w", sub.ProductID, model.ErrNotFound)
	}

	units := product.Units()
	classes := make([]*model.Class, 0, len(units))
	for _, lessonType := range units {
		classes = append(classes, &model.Class{
			CustomerID:     sub.CustomerID,
			LessonType:     lessonType,
			SubscriptionID: &sub.ID,
			IsActive:       sub.IsActive,
			BuyDate:        sub.BuyDate,
			BuySource:      model.BuySourceSubscription,
			ExpiresAt:      sub.ExpiresAt,
			CreatedBy:      actor.Ref(),
		})
	}

	if err := classRepo.CreateBatch(ctx, classes); err != nil {
		return nil, err
	}

	activatedAt, err := subscriptionRepo.MarkActivated(ctx, sub.ID)
	if err != nil {
		return nil, err
	}
	sub.ActivatedAt = &activatedAt
	sub.Classes = classes
	sub.Product = product

	if err := s.eventRepo.WithTx(tx).Record(ctx, &model.LedgerEvent{
		Kind:           model.EventSubscriptionActivated,
		SubscriptionID: &sub.ID,
		ActorID:        actor.Ref(),
	}); err != nil {
		return nil, err
	}

	s.logger.Debug("Subscription classes created",
		zap.Int64("subscription_id", sub.ID),
		zap.Int("count", len(classes)),
	)

	return sub, nil
}

// SetSubscriptionActive включает или выключает абонемент и все его уроки
func (s *SubscriptionService) SetSubscriptionActive(ctx context.Context, actor model.Actor, subscriptionID int64, active bool) (*model.Subscription, error) {
	var (
		sub     *model.Subscription
		changed int64
	)

	err := base.RunInTx(ctx, s.pool, func(tx pgx.Tx) error {
		subscriptionRepo := s.subscriptionRepo.WithTx(tx)

		var err error
		sub, err = subscriptionRepo.GetByIDForUpdate(ctx, subscriptionID)
		if err != nil {
			return err
		}

		if sub == nil {
			return fmt.Errorf("subscription %d: %w", subscriptionID, model.ErrNotFound)
		}

		if err := subscriptionRepo.SetActive(ctx, sub.ID, active); err != nil {
			return err
		}
		sub.IsActive = active

		changed, err = s.propagateActive(ctx, tx, sub.ID, active)
		if err != nil {
			return err
		}

		return s.eventRepo.WithTx(tx).Record(ctx, &model.LedgerEvent{
			Kind:           model.EventActiveChanged,
			SubscriptionID: &sub.ID,
			ActorID:        actor.Ref(),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("set subscription active: %w", err)
	}

	s.logger.Info("Subscription active changed",
		zap.Int64("subscription_id", subscriptionID),
		zap.Bool("is_active", active),
		zap.Int64("classes", changed),
	)

	return sub, nil
}

// propagateActive переносит флаг абонемента на все его уроки в той же транзакции
func (s *SubscriptionService) propagateActive(ctx context.Context, tx pgx.Tx, subscriptionID int64, active bool) (int64, error) {
	return s.classRepo.WithTx(tx).SetActiveBySubscription(ctx, subscriptionID, active)
}

// GetByID получает абонемент вместе с продуктом и уроками
func (s *SubscriptionService) GetByID(ctx context.Context, subscriptionID int64) (*model.Subscription, error) {
	sub, err := s.subscriptionRepo.GetByID(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}

	if sub == nil {
		return nil, fmt.Errorf("subscription %d: %w", subscriptionID, model.ErrNotFound)
	}

	sub.Product, err = s.productRepo.GetByID(ctx, sub.ProductID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}

	sub.Classes, err = s.classRepo.GetBySubscriptionID(ctx, sub.ID)
	if err != nil {
		return nil, fmt.Errorf("get classes: %w", err)
	}

	return sub, nil
}

// GetCustomerSubscriptions получает абонементы покупателя
func (s *SubscriptionService) GetCustomerSubscriptions(ctx context.Context, customerID int64) ([]*model.Subscription, error) {
	return s.subscriptionRepo.GetByCustomerID(ctx, customerID)
}
