package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/lesson_market/internal/model"
	"github.com/Freeeeeet/lesson_market/internal/repository"
	"go.uber.org/zap"
)

// TimelineService работает со слотами преподавателей. Расписание ведёт внешний инструмент,
// здесь только создание слота с правильной вместимостью и выборки.
type TimelineService struct {
	userRepo     *repository.UserRepository
	timelineRepo *repository.TimelineRepository
	logger       *zap.Logger
}

func NewTimelineService(
	userRepo *repository.UserRepository,
	timelineRepo *repository.TimelineRepository,
	logger *zap.Logger,
) *TimelineService {
	return &TimelineService{
		userRepo:     userRepo,
		timelineRepo: timelineRepo,
		logger:       logger,
	}
}

// CreateEntry создаёт слот. При slots=0 берётся вместимость по типу урока.
func (s *TimelineService) CreateEntry(ctx context.Context, teacherID int64, lessonType model.LessonType, startTime time.Time, duration time.Duration, slots int) (*model.TimelineEntry, error) {
	if !lessonType.IsValid() {
		return nil, fmt.Errorf("unknown lesson type %q", lessonType)
	}

	if duration <= 0 {
		return nil, fmt.Errorf("duration must be positive")
	}

	if slots < 0 {
		return nil, fmt.Errorf("slots must not be negative")
	}
	if slots == 0 {
		slots = lessonType.Capacity()
	}

	teacher, err := s.userRepo.GetByID(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("get teacher: %w", err)
	}

	if teacher == nil {
		return nil, fmt.Errorf("teacher %d: %w", teacherID, model.ErrNotFound)
	}

	if !teacher.IsTeacher {
		return nil, fmt.Errorf("user is not a teacher")
	}

	exists, err := s.timelineRepo.SlotExists(ctx, teacherID, startTime)
	if err != nil {
		return nil, fmt.Errorf("check slot exists: %w", err)
	}

	if exists {
		return nil, fmt.Errorf("teacher entry at %s: %w", startTime.Format(time.RFC3339), model.ErrAlreadyExists)
	}

	entry := &model.TimelineEntry{
		TeacherID:  teacherID,
		LessonType: lessonType,
		StartTime:  startTime,
		EndTime:    startTime.Add(duration),
		Slots:      slots,
	}

	err = s.timelineRepo.Create(ctx, entry)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Timeline entry created",
		zap.Int64("timeline_entry_id", entry.ID),
		zap.Int64("teacher_id", teacherID),
		zap.String("lesson_type", lessonType.String()),
		zap.Int("slots", slots),
		zap.Time("start_time", startTime),
	)

	return entry, nil
}

// GetByID получает слот по ID
func (s *TimelineService) GetByID(ctx context.Context, id int64) (*model.TimelineEntry, error) {
	entry, err := s.timelineRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if entry == nil {
		return nil, fmt.Errorf("timeline entry %d: %w", id, model.ErrNotFound)
	}

	return entry, nil
}

// GetAvailableEntries получает слоты со свободными местами для типа урока
func (s *TimelineService) GetAvailableEntries(ctx context.Context, lessonType model.LessonType, from, to time.Time) ([]*model.TimelineEntry, error) {
	return s.timelineRepo.GetFree(ctx, lessonType, from, to)
}

// GetTeacherSchedule получает расписание учителя за период
func (s *TimelineService) GetTeacherSchedule(ctx context.Context, teacherID int64, from, to time.Time) ([]*model.TimelineEntry, error) {
	return s.timelineRepo.GetByTeacherID(ctx, teacherID, from, to)
}
