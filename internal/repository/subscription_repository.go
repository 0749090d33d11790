package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/lesson_market/internal/model"
	"github.com/Freeeeeet/lesson_market/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

const subscriptionColumns = `id, customer_id, product_id, buy_price, is_active, buy_date, expires_at,
	activated_at, unused_notification_date`

// UnusedPeriod задаёт сколько абонемент должен простаивать, чтобы о нём напомнить
const UnusedPeriod = 7 * 24 * time.Hour

type SubscriptionRepository struct {
	base.Repository
}

func NewSubscriptionRepository(db base.Querier) *SubscriptionRepository {
	return &SubscriptionRepository{Repository: base.NewRepository(db)}
}

// WithTx возвращает копию репозитория, работающую внутри транзакции
func (r *SubscriptionRepository) WithTx(tx pgx.Tx) *SubscriptionRepository {
	return NewSubscriptionRepository(tx)
}

// Create создаёт абонемент. BuyDate по умолчанию берётся из now() базы.
func (r *SubscriptionRepository) Create(ctx context.Context, s *model.Subscription) error {
	query := `
		INSERT INTO subscriptions (customer_id, product_id, buy_price, is_active, buy_date, expires_at)
		VALUES ($1, $2, $3, $4, COALESCE($5, now()), $6)
		RETURNING id, buy_date
	`

	var buyDate *time.Time
	if !s.BuyDate.IsZero() {
		buyDate = &s.BuyDate
	}

	err := r.DB().QueryRow(
		ctx, query,
		s.CustomerID,
		s.ProductID,
		s.BuyPrice,
		s.IsActive,
		buyDate,
		s.ExpiresAt,
	).Scan(&s.ID, &s.BuyDate)

	if err != nil {
		return fmt.Errorf("create subscription: %w", err)
	}

	return nil
}

// GetByID получает абонемент по ID
func (r *SubscriptionRepository) GetByID(ctx context.Context, id int64) (*model.Subscription, error) {
	return r.getOne(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = $1`, id)
}

// GetByIDForUpdate получает абонемент и блокирует строку до конца транзакции
func (r *SubscriptionRepository) GetByIDForUpdate(ctx context.Context, id int64) (*model.Subscription, error) {
	return r.getOne(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = $1 FOR UPDATE`, id)
}

// GetByCustomerID получает абонементы покупателя, новые первыми
func (r *SubscriptionRepository) GetByCustomerID(ctx context.Context, customerID int64) ([]*model.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE customer_id = $1
		ORDER BY buy_date DESC, id DESC
	`

	rows, err := r.DB().Query(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("get subscriptions by customer: %w", err)
	}
	return collectSubscriptions(rows)
}

// SetActive обновляет флаг активности абонемента (без уроков)
func (r *SubscriptionRepository) SetActive(ctx context.Context, id int64, active bool) error {
	query := `UPDATE subscriptions SET is_active = $1 WHERE id = $2`

	affected, err := r.ExecAffected(ctx, query, active, id)
	if err != nil {
		return fmt.Errorf("set subscription active: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("set subscription active: %w", model.ErrNotFound)
	}

	return nil
}

// MarkActivated отмечает что уроки абонемента созданы
func (r *SubscriptionRepository) MarkActivated(ctx context.Context, id int64) (time.Time, error) {
	query := `UPDATE subscriptions SET activated_at = now() WHERE id = $1 RETURNING activated_at`

	var activatedAt time.Time
	if err := r.DB().QueryRow(ctx, query, id).Scan(&activatedAt); err != nil {
		return time.Time{}, fmt.Errorf("mark subscription activated: %w", err)
	}

	return activatedAt, nil
}

// SetUnusedNotificationDate запоминает когда отправили напоминание о простое
func (r *SubscriptionRepository) SetUnusedNotificationDate(ctx context.Context, id int64, at time.Time) error {
	query := `UPDATE subscriptions SET unused_notification_date = $1 WHERE id = $2`

	affected, err := r.ExecAffected(ctx, query, at, id)
	if err != nil {
		return fmt.Errorf("set unused notification date: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("set unused notification date: %w", model.ErrNotFound)
	}

	return nil
}

// UnusedForAWeek находит активные абонементы старше недели без занятий за последнюю неделю,
// по которым ещё не напоминали после последней активности
func (r *SubscriptionRepository) UnusedForAWeek(ctx context.Context, now time.Time) ([]*model.Subscription, error) {
	query := `
		SELECT s.id, s.customer_id, s.product_id, s.buy_price, s.is_active, s.buy_date, s.expires_at,
		       s.activated_at, s.unused_notification_date
		FROM subscriptions s
		LEFT JOIN LATERAL (
			SELECT max(te.start_time) AS last_start
			FROM classes c
			JOIN timeline_entries te ON te.id = c.timeline_entry_id
			WHERE c.subscription_id = s.id
		) activity ON TRUE
		WHERE s.is_active
		  AND s.buy_date <= $1
		  AND (activity.last_start IS NULL OR activity.last_start <= $1)
		  AND (
		        s.unused_notification_date IS NULL
		     OR (activity.last_start IS NOT NULL AND s.unused_notification_date < activity.last_start)
		  )
		ORDER BY s.id
	`

	rows, err := r.DB().Query(ctx, query, now.Add(-UnusedPeriod))
	if err != nil {
		return nil, fmt.Errorf("get unused subscriptions: %w", err)
	}
	return collectSubscriptions(rows)
}

func (r *SubscriptionRepository) getOne(ctx context.Context, query string, args ...any) (*model.Subscription, error) {
	s, err := scanSubscription(r.DB().QueryRow(ctx, query, args...))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return s, nil
}

func scanSubscription(row pgx.Row) (*model.Subscription, error) {
	var s model.Subscription
	err := row.Scan(
		&s.ID,
		&s.CustomerID,
		&s.ProductID,
		&s.BuyPrice,
		&s.IsActive,
		&s.BuyDate,
		&s.ExpiresAt,
		&s.ActivatedAt,
		&s.UnusedNotificationDate,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func collectSubscriptions(rows pgx.Rows) ([]*model.Subscription, error) {
	defer rows.Close()

	var subs []*model.Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		subs = append(subs, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscriptions: %w", err)
	}

	return subs, nil
}
