package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Freeeeeet/lesson_market/internal/metrics"
	"github.com/Freeeeeet/lesson_market/internal/model"
	"github.com/Freeeeeet/lesson_market/internal/notify"
	"github.com/Freeeeeet/lesson_market/internal/repository"
	"github.com/Freeeeeet/lesson_market/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// ScheduleService привязывает купленные уроки к слотам и отвязывает их
type ScheduleService struct {
	pool         *pgxpool.Pool
	userRepo     *repository.UserRepository
	classRepo    *repository.ClassRepository
	timelineRepo *repository.TimelineRepository
	eventRepo    *repository.EventRepository
	dispatcher   *notify.Dispatcher
	logger       *zap.Logger
}

func NewScheduleService(
	pool *pgxpool.Pool,
	userRepo *repository.UserRepository,
	classRepo *repository.ClassRepository,
	timelineRepo *repository.TimelineRepository,
	eventRepo *repository.EventRepository,
	dispatcher *notify.Dispatcher,
	logger *zap.Logger,
) *ScheduleService {
	return &ScheduleService{
		pool:         pool,
		userRepo:     userRepo,
		classRepo:    classRepo,
		timelineRepo: timelineRepo,
		eventRepo:    eventRepo,
		dispatcher:   dispatcher,
		logger:       logger,
	}
}

// Schedule ставит урок в слот и занимает в нём одно место
func (s *ScheduleService) Schedule(ctx context.Context, actor model.Actor, classID, entryID int64) (*model.Class, error) {
	var (
		class *model.Class
		entry *model.TimelineEntry
	)

	err := base.RunInTx(ctx, s.pool, func(tx pgx.Tx) error {
		classRepo := s.classRepo.WithTx(tx)
		timelineRepo := s.timelineRepo.WithTx(tx)

		// Блокировка урока не даёт запланировать его дважды параллельно
		var err error
		class, err = classRepo.GetByIDForUpdate(ctx, classID)
		if err != nil {
			return err
		}

		if class == nil {
			return fmt.Errorf("class %d: %w", classID, model.ErrNotFound)
		}

		entry, err = timelineRepo.GetByID(ctx, entryID)
		if err != nil {
			return err
		}

		if entry == nil {
			return fmt.Errorf("timeline entry %d: %w", entryID, model.ErrNotFound)
		}

		if err := model.CheckSchedulable(class, entry); err != nil {
			return err
		}

		// Прочитанный taken_slots мог устареть, решает условный UPDATE
		taken, ok, err := timelineRepo.TakeSlot(ctx, entry.ID)
		if err != nil {
			return err
		}

		if !ok {
			return model.NewRuleError(model.ErrCannotBeScheduled, model.CodeSlotFull, "timeline entry has no free slots")
		}
		entry.TakenSlots = taken

		if err := classRepo.SetTimelineEntry(ctx, class.ID, &entry.ID); err != nil {
			return err
		}
		class.TimelineEntryID = &entry.ID
		class.TimelineEntry = entry

		return s.eventRepo.WithTx(tx).Record(ctx, &model.LedgerEvent{
			Kind:            model.EventClassScheduled,
			ClassID:         &class.ID,
			SubscriptionID:  class.SubscriptionID,
			TimelineEntryID: &entry.ID,
			ActorID:         actor.Ref(),
		})
	})
	if err != nil {
		metrics.ScheduleAttempts.WithLabelValues(metrics.ScheduleResult(model.CodeOf(err))).Inc()
		if errors.Is(err, model.ErrCannotBeScheduled) {
			s.logger.Info("Class cannot be scheduled",
				zap.Int64("class_id", classID),
				zap.Int64("timeline_entry_id", entryID),
				zap.String("code", model.CodeOf(err)),
			)
		}
		return nil, fmt.Errorf("schedule class: %w", err)
	}

	metrics.ScheduleAttempts.WithLabelValues("ok").Inc()
	s.logger.Info("Class scheduled",
		zap.Int64("class_id", class.ID),
		zap.Int64("customer_id", class.CustomerID),
		zap.Int64("timeline_entry_id", entry.ID),
		zap.Int("taken_slots", entry.TakenSlots),
	)

	s.notifyScheduled(ctx, class, entry)

	return class, nil
}

// Unschedule снимает урок со слота и освобождает место
func (s *ScheduleService) Unschedule(ctx context.Context, actor model.Actor, classID int64) (*model.Class, error) {
	var (
		class *model.Class
		taken int
	)

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

		if err := model.CheckUnschedulable(class); err != nil {
			return err
		}
		entryID := *class.TimelineEntryID

		taken, err = s.timelineRepo.WithTx(tx).ReleaseSlot(ctx, entryID)
		if err != nil {
			return err
		}

		if err := classRepo.SetTimelineEntry(ctx, class.ID, nil); err != nil {
			return err
		}
		class.TimelineEntryID = nil

		return s.eventRepo.WithTx(tx).Record(ctx, &model.LedgerEvent{
			Kind:            model.EventClassUnscheduled,
			ClassID:         &class.ID,
			SubscriptionID:  class.SubscriptionID,
			TimelineEntryID: &entryID,
			ActorID:         actor.Ref(),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("unschedule class: %w", err)
	}

	metrics.Unschedules.Inc()
	s.logger.Info("Class unscheduled",
		zap.Int64("class_id", class.ID),
		zap.Int64("customer_id", class.CustomerID),
		zap.Int("taken_slots", taken),
	)

	return class, nil
}

func (s *ScheduleService) notifyScheduled(ctx context.Context, class *model.Class, entry *model.TimelineEntry) {
	user, err := s.userRepo.GetByID(ctx, class.CustomerID)
	if err != nil || user == nil {
		s.logger.Warn("Skip scheduled notification: customer not loaded",
			zap.Int64("customer_id", class.CustomerID),
			zap.Error(err),
		)
		return
	}

	s.dispatcher.ClassScheduled(ctx, user, class, entry)
}
