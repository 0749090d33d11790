package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/lesson_market/internal/model"
	"github.com/Freeeeeet/lesson_market/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// EventRepository пишет журнал изменений леджера
type EventRepository struct {
	base.Repository
}

func NewEventRepository(db base.Querier) *EventRepository {
	return &EventRepository{Repository: base.NewRepository(db)}
}

// WithTx возвращает копию репозитория, работающую внутри транзакции
func (r *EventRepository) WithTx(tx pgx.Tx) *EventRepository {
	return NewEventRepository(tx)
}

// Record сохраняет событие. ID генерируется, если не задан.
func (r *EventRepository) Record(ctx context.Context, event *model.LedgerEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}

	query := `
		INSERT INTO ledger_events (id, kind, class_id, subscription_id, timeline_entry_id, actor_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	err := r.DB().QueryRow(
		ctx, query,
		event.ID,
		event.Kind,
		event.ClassID,
		event.SubscriptionID,
		event.TimelineEntryID,
		event.ActorID,
	).Scan(&event.CreatedAt)

	if err != nil {
		return fmt.Errorf("record ledger event: %w", err)
	}

	return nil
}

// GetByClassID получает события по уроку в хронологическом порядке
func (r *EventRepository) GetByClassID(ctx context.Context, classID int64) ([]*model.LedgerEvent, error) {
	query := `
		SELECT id, kind, class_id, subscription_id, timeline_entry_id, actor_id, created_at
		FROM ledger_events
		WHERE class_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.DB().Query(ctx, query, classID)
	if err != nil {
		return nil, fmt.Errorf("get ledger events by class: %w", err)
	}
	defer rows.Close()

	var events []*model.LedgerEvent
	for rows.Next() {
		var event model.LedgerEvent
		err := rows.Scan(
			&event.ID,
			&event.Kind,
			&event.ClassID,
			&event.SubscriptionID,
			&event.TimelineEntryID,
			&event.ActorID,
			&event.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan ledger event: %w", err)
		}
		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger events: %w", err)
	}

	return events, nil
}
