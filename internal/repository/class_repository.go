package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/lesson_market/internal/model"
	"github.com/Freeeeeet/lesson_market/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

const classColumns = `id, customer_id, lesson_type, subscription_id, is_active, buy_date, buy_source,
	timeline_entry_id, is_fully_used, expires_at, created_by`

type ClassRepository struct {
	base.Repository
}

func NewClassRepository(db base.Querier) *ClassRepository {
	return &ClassRepository{Repository: base.NewRepository(db)}
}

// WithTx возвращает копию репозитория, работающую внутри транзакции
func (r *ClassRepository) WithTx(tx pgx.Tx) *ClassRepository {
	return NewClassRepository(tx)
}

const insertClassQuery = `
	INSERT INTO classes (customer_id, lesson_type, subscription_id, is_active, buy_date, buy_source, expires_at, created_by)
	VALUES ($1, $2, $3, $4, COALESCE($5, now()), $6, $7, $8)
	RETURNING id, buy_date
`

func insertClassArgs(c *model.Class) []any {
	var buyDate *time.Time
	if !c.BuyDate.IsZero() {
		buyDate = &c.BuyDate
	}
	return []any{
		c.CustomerID,
		c.LessonType,
		c.SubscriptionID,
		c.IsActive,
		buyDate,
		c.BuySource,
		c.ExpiresAt,
		c.CreatedBy,
	}
}

// Create создаёт купленный урок
func (r *ClassRepository) Create(ctx context.Context, c *model.Class) error {
	err := r.DB().QueryRow(ctx, insertClassQuery, insertClassArgs(c)...).Scan(&c.ID, &c.BuyDate)
	if err != nil {
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}

// CreateBatch создаёт несколько уроков одним батчем.
// Должен вызываться внутри транзакции, иначе частичная вставка будет видна.
func (r *ClassRepository) CreateBatch(ctx context.Context, classes []*model.Class) error {
	if len(classes) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, c := range classes {
		batch.Queue(insertClassQuery, insertClassArgs(c)...).QueryRow(func(row pgx.Row) error {
			return row.Scan(&c.ID, &c.BuyDate)
		})
	}

	if err := r.DB().SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("create classes batch: %w", err)
	}

	return nil
}

// GetByID получает урок по ID
func (r *ClassRepository) GetByID(ctx context.Context, id int64) (*model.Class, error) {
	return r.getOne(ctx, `SELECT `+classColumns+` FROM classes WHERE id = $1`, id)
}

// GetByIDForUpdate получает урок и блокирует строку до конца транзакции
func (r *ClassRepository) GetByIDForUpdate(ctx context.Context, id int64) (*model.Class, error) {
	return r.getOne(ctx, `SELECT `+classColumns+` FROM classes WHERE id = $1 FOR UPDATE`, id)
}

// GetBySubscriptionID получает уроки абонемента в порядке покупки
func (r *ClassRepository) GetBySubscriptionID(ctx context.Context, subscriptionID int64) ([]*model.Class, error) {
	query := `
		SELECT ` + classColumns + `
		FROM classes
		WHERE subscription_id = $1
		ORDER BY buy_date, id
	`

	rows, err := r.DB().Query(ctx, query, subscriptionID)
	if err != nil {
		return nil, fmt.Errorf("get classes by subscription: %w", err)
	}
	return collectClasses(rows)
}

// GetByCustomerID получает все уроки покупателя
func (r *ClassRepository) GetByCustomerID(ctx context.Context, customerID int64) ([]*model.Class, error) {
	query := `
		SELECT ` + classColumns + `
		FROM classes
		WHERE customer_id = $1
		ORDER BY buy_date, id
	`

	rows, err := r.DB().Query(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("get classes by customer: %w", err)
	}
	return collectClasses(rows)
}

// FindUsable ищет лучший урок для записи одним запросом.
// Сначала уроки из абонементов, затем по дате покупки и ID.
func (r *ClassRepository) FindUsable(ctx context.Context, customerID int64, lessonType model.LessonType, now time.Time) (*model.Class, error) {
	query := `
		SELECT ` + classColumns + `
		FROM classes
		WHERE customer_id = $1
		  AND lesson_type = $2
		  AND is_active
		  AND timeline_entry_id IS NULL
		  AND NOT is_fully_used
		  AND (expires_at IS NULL OR expires_at > $3)
		ORDER BY (subscription_id IS NULL), buy_date, id
		LIMIT 1
	`

	return r.getOne(ctx, query, customerID, lessonType, now)
}

// BoughtLessonTypes возвращает типы уроков, которые у покупателя есть в активных покупках
func (r *ClassRepository) BoughtLessonTypes(ctx context.Context, customerID int64) ([]model.LessonType, error) {
	query := `
		SELECT DISTINCT lesson_type
		FROM classes
		WHERE customer_id = $1 AND is_active
		ORDER BY lesson_type
	`

	rows, err := r.DB().Query(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("get bought lesson types: %w", err)
	}

	types, err := pgx.CollectRows(rows, pgx.RowTo[model.LessonType])
	if err != nil {
		return nil, fmt.Errorf("scan lesson type: %w", err)
	}

	return types, nil
}

// NearestScheduled получает ближайший запланированный в будущем урок покупателя
func (r *ClassRepository) NearestScheduled(ctx context.Context, customerID int64, now time.Time) (*model.Class, error) {
	query := `
		SELECT c.id, c.customer_id, c.lesson_type, c.subscription_id, c.is_active, c.buy_date, c.buy_source,
		       c.timeline_entry_id, c.is_fully_used, c.expires_at, c.created_by
		FROM classes c
		JOIN timeline_entries te ON te.id = c.timeline_entry_id
		WHERE c.customer_id = $1
		  AND te.start_time > $2
		ORDER BY te.start_time, c.id
		LIMIT 1
	`

	return r.getOne(ctx, query, customerID, now)
}

// SetTimelineEntry привязывает урок к слоту или отвязывает (nil)
func (r *ClassRepository) SetTimelineEntry(ctx context.Context, classID int64, entryID *int64) error {
	query := `UPDATE classes SET timeline_entry_id = $1 WHERE id = $2`

	affected, err := r.ExecAffected(ctx, query, entryID, classID)
	if err != nil {
		return fmt.Errorf("set class timeline entry: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("set class timeline entry: %w", model.ErrNotFound)
	}

	return nil
}

// SetActive обновляет флаг активности одного урока
func (r *ClassRepository) SetActive(ctx context.Context, classID int64, active bool) error {
	query := `UPDATE classes SET is_active = $1 WHERE id = $2`

	affected, err := r.ExecAffected(ctx, query, active, classID)
	if err != nil {
		return fmt.Errorf("set class active: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("set class active: %w", model.ErrNotFound)
	}

	return nil
}

// SetActiveBySubscription обновляет флаг у всех уроков абонемента одним UPDATE
func (r *ClassRepository) SetActiveBySubscription(ctx context.Context, subscriptionID int64, active bool) (int64, error) {
	query := `UPDATE classes SET is_active = $1 WHERE subscription_id = $2`

	affected, err := r.ExecAffected(ctx, query, active, subscriptionID)
	if err != nil {
		return 0, fmt.Errorf("set subscription classes active: %w", err)
	}

	return affected, nil
}

// MarkFullyUsed отмечает урок проведённым
func (r *ClassRepository) MarkFullyUsed(ctx context.Context, classID int64) error {
	query := `UPDATE classes SET is_fully_used = TRUE WHERE id = $1`

	affected, err := r.ExecAffected(ctx, query, classID)
	if err != nil {
		return fmt.Errorf("mark class fully used: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("mark class fully used: %w", model.ErrNotFound)
	}

	return nil
}

func (r *ClassRepository) getOne(ctx context.Context, query string, args ...any) (*model.Class, error) {
	c, err := scanClass(r.DB().QueryRow(ctx, query, args...))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get class: %w", err)
	}
	return c, nil
}

func scanClass(row pgx.Row) (*model.Class, error) {
	var c model.Class
	err := row.Scan(
		&c.ID,
		&c.CustomerID,
		&c.LessonType,
		&c.SubscriptionID,
		&c.IsActive,
		&c.BuyDate,
		&c.BuySource,
		&c.TimelineEntryID,
		&c.IsFullyUsed,
		&c.ExpiresAt,
		&c.CreatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func collectClasses(rows pgx.Rows) ([]*model.Class, error) {
	defer rows.Close()

	var classes []*model.Class
	for rows.Next() {
		c, err := scanClass(rows)
		if err != nil {
			return nil, fmt.Errorf("scan class: %w", err)
		}
		classes = append(classes, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate classes: %w", err)
	}

	return classes, nil
}
