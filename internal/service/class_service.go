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

// ClassService ведёт леджер купленных уроков
type ClassService struct {
	pool             *pgxpool.Pool
	classRepo        *repository.ClassRepository
	subscriptionRepo *repository.SubscriptionRepository
	timelineRepo     *repository.TimelineRepository
	eventRepo        *repository.EventRepository
	logger           *zap.Logger
	now              func() time.Time
}

func NewClassService(
	pool *pgxpool.Pool,
	classRepo *repository.ClassRepository,
	subscriptionRepo *repository.SubscriptionRepository,
	timelineRepo *repository.TimelineRepository,
	eventRepo *repository.EventRepository,
	logger *zap.Logger,
) *ClassService {
	return &ClassService{
		pool:             pool,
		classRepo:        classRepo,
		subscriptionRepo: subscriptionRepo,
		timelineRepo:     timelineRepo,
		eventRepo:        eventRepo,
		logger:           logger,
		now:              time.Now,
	}
}

// SetClock подменяет источник текущего времени
func (s *ClassService) SetClock(now func() time.Time) {
	s.now = now
}

// PurchaseLesson создаёт отдельно купленный урок
func (s *ClassService) PurchaseLesson(ctx context.Context, actor model.Actor, customerID int64, lessonType model.LessonType) (*model.Class, error) {
	if !lessonType.IsValid() {
		return nil, fmt.Errorf("unknown lesson type %q", lessonType)
	}

	class := &model.Class{
		CustomerID: customerID,
		LessonType: lessonType,
		IsActive:   true,
		BuyDate:    s.now(),
		BuySource:  model.BuySourceSingle,
		CreatedBy:  actor.Ref(),
	}

	err := base.RunInTx(ctx, s.pool, func(tx pgx.Tx) error {
		if err := s.classRepo.WithTx(tx).Create(ctx, class); err != nil {
			return err
		}

		return s.eventRepo.WithTx(tx).Record(ctx, &model.LedgerEvent{
			Kind:    model.EventClassPurchased,
			ClassID: &class.ID,
			ActorID: actor.Ref(),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("purchase lesson: %w", err)
	}

	metrics.ClassesPurchased.Inc()
	s.logger.Info("Lesson purchased",
		zap.Int64("class_id", class.ID),
		zap.Int64("customer_id", customerID),
		zap.String("lesson_type", lessonType.String()),
	)

	return class, nil
}

// SetClassActive включает или выключает один урок.
// Урок из выключенного абонемента включить нельзя.
func (s *ClassService) SetClassActive(ctx context.Context, actor model.Actor, classID int64, active bool) (*model.Class, error) {
	var class *model.Class

	err := base.RunInTx(ctx, s.pool, func(tx pgx.Tx) error {
		classRepo := s.classRepo.WithTx(tx)

		current, err := classRepo.GetByID(ctx, classID)
		if err != nil {
			return err
		}

		if current == nil {
			return fmt.Errorf("class %d: %w", classID, model.ErrNotFound)
		}

		// Абонемент блокируем раньше урока: тот же порядок, что у SetSubscriptionActive
		if current.SubscriptionID != nil {
			sub, err := s.subscriptionRepo.WithTx(tx).GetByIDForUpdate(ctx, *current.SubscriptionID)
			if err != nil {
				return err
			}

			if active && sub != nil && !sub.IsActive {
				return model.NewRuleError(model.ErrInvalidState, model.CodeInvalidState,
					"cannot activate a class of an inactive subscription")
			}
		}

		class, err = classRepo.GetByIDForUpdate(ctx, classID)
		if err != nil {
			return err
		}

		if class.IsActive == active {
			return nil
		}

		if err := classRepo.SetActive(ctx, classID, active); err != nil {
			return err
		}
		class.IsActive = active

		return s.eventRepo.WithTx(tx).Record(ctx, &model.LedgerEvent{
			Kind:    model.EventActiveChanged,
			ClassID: &class.ID,
			ActorID: actor.Ref(),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("set class active: %w", err)
	}

	s.logger.Info("Class active changed",
		zap.Int64("class_id", classID),
		zap.Bool("is_active", active),
	)

	return class, nil
}

// MarkFullyUsed отмечает урок проведённым. Только для запланированного урока,
// слот которого уже начался.
func (s *ClassService) MarkFullyUsed(ctx context.Context, actor model.Actor, classID int64) (*model.Class, error) {
	var class *model.Class

	err := base.RunInTx(ctx, s.pool, func(tx pgx.Tx) error {
		classRepo := s.classRepo.WithTx(tx)

		var err error
		class, err = classRepo.GetByIDForUpdate(ctx, classID)
		if err != nil {
			return err
		}

		if class == nil {
			return fmt.Errorf("class %d: %w", classID, model.ErrNotFound)
		}

		var entry *model.TimelineEntry
		if class.IsScheduled() {
			entry, err = s.timelineRepo.WithTx(tx).GetByID(ctx, *class.TimelineEntryID)
			if err != nil {
				return err
			}
		}

		if err := model.CheckMarkFullyUsed(class, entry, s.now()); err != nil {
			return err
		}

		if err := classRepo.MarkFullyUsed(ctx, classID); err != nil {
			return err
		}
		class.IsFullyUsed = true
		class.TimelineEntry = entry

		return s.eventRepo.WithTx(tx).Record(ctx, &model.LedgerEvent{
			Kind:            model.EventClassFullyUsed,
			ClassID:         &class.ID,
			TimelineEntryID: class.TimelineEntryID,
			ActorID:         actor.Ref(),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("mark fully used: %w", err)
	}

	s.logger.Info("Class marked as fully used",
		zap.Int64("class_id", classID),
		zap.Int64("timeline_entry_id", *class.TimelineEntryID),
	)

	return class, nil
}

// GetByID получает урок по ID
func (s *ClassService) GetByID(ctx context.Context, classID int64) (*model.Class, error) {
	class, err := s.classRepo.GetByID(ctx, classID)
	if err != nil {
		return nil, err
	}

	if class == nil {
		return nil, fmt.Errorf("class %d: %w", classID, model.ErrNotFound)
	}

	return class, nil
}

// GetCustomerClasses получает все уроки покупателя
func (s *ClassService) GetCustomerClasses(ctx context.Context, customerID int64) ([]*model.Class, error) {
	return s.classRepo.GetByCustomerID(ctx, customerID)
}

// BoughtLessonTypes возвращает типы уроков, которые покупатель может планировать
func (s *ClassService) BoughtLessonTypes(ctx context.Context, customerID int64) ([]model.LessonType, error) {
	return s.classRepo.BoughtLessonTypes(ctx, customerID)
}
