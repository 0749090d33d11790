package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/lesson_market/internal/model"
	"github.com/Freeeeeet/lesson_market/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

const timelineColumns = `id, teacher_id, lesson_type, start_time, end_time, slots, taken_slots, created_at`

type TimelineRepository struct {
	base.Repository
}

func NewTimelineRepository(db base.Querier) *TimelineRepository {
	return &TimelineRepository{Repository: base.NewRepository(db)}
}

// WithTx возвращает копию репозитория, работающую внутри транзакции
func (r *TimelineRepository) WithTx(tx pgx.Tx) *TimelineRepository {
	return NewTimelineRepository(tx)
}

// Create создаёт новый слот
func (r *TimelineRepository) Create(ctx context.Context, entry *model.TimelineEntry) error {
	query := `
		INSERT INTO timeline_entries (teacher_id, lesson_type, start_time, end_time, slots, taken_slots)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.DB().QueryRow(
		ctx, query,
		entry.TeacherID,
		entry.LessonType,
		entry.StartTime,
		entry.EndTime,
		entry.Slots,
		entry.TakenSlots,
	).Scan(&entry.ID, &entry.CreatedAt)

	if err != nil {
		if base.IsUniqueViolation(err) {
			return fmt.Errorf("timeline entry at %s: %w", entry.StartTime.Format(time.RFC3339), model.ErrAlreadyExists)
		}
		return fmt.Errorf("create timeline entry: %w", err)
	}

	return nil
}

// GetByID получает слот по ID
func (r *TimelineRepository) GetByID(ctx context.Context, id int64) (*model.TimelineEntry, error) {
	query := `SELECT ` + timelineColumns + ` FROM timeline_entries WHERE id = $1`

	entry, err := scanTimelineEntry(r.DB().QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get timeline entry by id: %w", err)
	}

	return entry, nil
}

// GetFree получает слоты со свободными местами для типа урока в заданном диапазоне времени
func (r *TimelineRepository) GetFree(ctx context.Context, lessonType model.LessonType, from, to time.Time) ([]*model.TimelineEntry, error) {
	query := `
		SELECT ` + timelineColumns + `
		FROM timeline_entries
		WHERE lesson_type = $1
		  AND taken_slots < slots
		  AND start_time >= $2
		  AND start_time < $3
		ORDER BY start_time, id
	`

	rows, err := r.DB().Query(ctx, query, lessonType, from, to)
	if err != nil {
		return nil, fmt.Errorf("get free timeline entries: %w", err)
	}
	return collectTimelineEntries(rows)
}

// GetByTeacherID получает все слоты учителя
func (r *TimelineRepository) GetByTeacherID(ctx context.Context, teacherID int64, from, to time.Time) ([]*model.TimelineEntry, error) {
	query := `
		SELECT ` + timelineColumns + `
		FROM timeline_entries
		WHERE teacher_id = $1
		  AND start_time >= $2
		  AND start_time < $3
		ORDER BY start_time, id
	`

	rows, err := r.DB().Query(ctx, query, teacherID, from, to)
	if err != nil {
		return nil, fmt.Errorf("get timeline entries by teacher: %w", err)
	}
	return collectTimelineEntries(rows)
}

// TakeSlot атомарно занимает одно место и возвращает новое значение taken_slots.
// ok=false: мест уже нет. Проверка и инкремент в одном UPDATE: конкурирующая
// транзакция ждёт блокировку строки и перепроверяет условие на новом значении.
func (r *TimelineRepository) TakeSlot(ctx context.Context, entryID int64) (taken int, ok bool, err error) {
	query := `
		UPDATE timeline_entries
		SET taken_slots = taken_slots + 1
		WHERE id = $1 AND taken_slots < slots
		RETURNING taken_slots
	`

	err = r.DB().QueryRow(ctx, query, entryID).Scan(&taken)
	if err != nil {
		if base.IsNotFound(err) || base.IsCheckViolation(err, "timeline_entries_taken_slots_check") {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("take timeline slot: %w", err)
	}

	return taken, true, nil
}

// ReleaseSlot освобождает одно место, не опускаясь ниже нуля
func (r *TimelineRepository) ReleaseSlot(ctx context.Context, entryID int64) (int, error) {
	query := `
		UPDATE timeline_entries
		SET taken_slots = GREATEST(taken_slots - 1, 0)
		WHERE id = $1
		RETURNING taken_slots
	`

	var taken int
	err := r.DB().QueryRow(ctx, query, entryID).Scan(&taken)
	if err != nil {
		if base.IsNotFound(err) {
			return 0, fmt.Errorf("release timeline slot: %w", model.ErrNotFound)
		}
		return 0, fmt.Errorf("release timeline slot: %w", err)
	}

	return taken, nil
}

// SlotExists проверяет существование слота для учителя в указанное время
func (r *TimelineRepository) SlotExists(ctx context.Context, teacherID int64, startTime time.Time) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM timeline_entries
			WHERE teacher_id = $1 AND start_time = $2
		)
	`

	var exists bool
	err := r.DB().QueryRow(ctx, query, teacherID, startTime).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check timeline entry exists: %w", err)
	}

	return exists, nil
}

func scanTimelineEntry(row pgx.Row) (*model.TimelineEntry, error) {
	var entry model.TimelineEntry
	err := row.Scan(
		&entry.ID,
		&entry.TeacherID,
		&entry.LessonType,
		&entry.StartTime,
		&entry.EndTime,
		&entry.Slots,
		&entry.TakenSlots,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func collectTimelineEntries(rows pgx.Rows) ([]*model.TimelineEntry, error) {
	defer rows.Close()

	var entries []*model.TimelineEntry
	for rows.Next() {
		entry, err := scanTimelineEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan timeline entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate timeline entries: %w", err)
	}

	return entries, nil
}
