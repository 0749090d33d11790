package model

import (
	"time"

	"github.com/google/uuid"
)

type LedgerEventKind string

const (
	EventClassPurchased        LedgerEventKind = "class_purchased"
	EventSubscriptionPurchased LedgerEventKind = "subscription_purchased"
	EventSubscriptionActivated LedgerEventKind = "subscription_activated"
	EventActiveChanged         LedgerEventKind = "active_changed"
	EventClassScheduled        LedgerEventKind = "class_scheduled"
	EventClassUnscheduled      LedgerEventKind = "class_unscheduled"
	EventClassFullyUsed        LedgerEventKind = "class_fully_used"
	EventUnusedNotified        LedgerEventKind = "unused_notified"
)

// LedgerEvent представляет запись аудита по изменению урока или абонемента
type LedgerEvent struct {
	ID              uuid.UUID       `json:"id"`
	Kind            LedgerEventKind `json:"kind"`
	ClassID         *int64          `json:"class_id"`
	SubscriptionID  *int64          `json:"subscription_id"`
	TimelineEntryID *int64          `json:"timeline_entry_id"`
	ActorID         *int64          `json:"actor_id"`
	CreatedAt       time.Time       `json:"created_at"`
}
