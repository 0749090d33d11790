package model

import "time"

// BuySource показывает откуда взялся урок
type BuySource int16

const (
	BuySourceSingle       BuySource = 0 // Куплен отдельно
	BuySourceSubscription BuySource = 1 // Выдан абонементом
)

// Class представляет один купленный урок, который можно поставить в расписание
type Class struct {
	ID              int64      `json:"id"`
	CustomerID      int64      `json:"customer_id"`
	LessonType      LessonType `json:"lesson_type"`
	SubscriptionID  *int64     `json:"subscription_id"` // nil = куплен отдельно
	IsActive        bool       `json:"is_active"`
	BuyDate         time.Time  `json:"buy_date"`
	BuySource       BuySource  `json:"buy_source"`
	TimelineEntryID *int64     `json:"timeline_entry_id"` // nil = не запланирован
	IsFullyUsed     bool       `json:"is_fully_used"`
	ExpiresAt       *time.Time `json:"expires_at"` // nil = бессрочный
	CreatedBy       *int64     `json:"created_by"`

	// Дополнительные поля для удобства (не из БД)
	TimelineEntry *TimelineEntry `json:"timeline_entry,omitempty"`
}

// IsScheduled checks if the class is bound to a timeline entry
func (c *Class) IsScheduled() bool {
	return c.TimelineEntryID != nil
}

// IsExpired checks if the class validity window has passed
func (c *Class) IsExpired(now time.Time) bool {
	return c.ExpiresAt != nil && !c.ExpiresAt.After(now)
}

// FromSubscription checks if the class was issued by a subscription
func (c *Class) FromSubscription() bool {
	return c.SubscriptionID != nil
}

// CheckSchedulable проверяет можно ли поставить урок в слот.
// Порядок проверок важен: вызывающий код показывает пользователю первую причину.
func CheckSchedulable(c *Class, entry *TimelineEntry) error {
	if c.IsScheduled() {
		return NewRuleError(ErrCannotBeScheduled, CodeAlreadyScheduled, "class is already scheduled")
	}
	if c.LessonType != entry.LessonType {
		return NewRuleError(ErrCannotBeScheduled, CodeTypeMismatch,
			"class of type "+c.LessonType.String()+" cannot be scheduled to a "+entry.LessonType.String()+" entry")
	}
	if !entry.IsFree() {
		return NewRuleError(ErrCannotBeScheduled, CodeSlotFull, "timeline entry has no free slots")
	}
	if !c.IsActive {
		return NewRuleError(ErrCannotBeScheduled, CodeInactive, "class is not active")
	}
	return nil
}

// CheckUnschedulable проверяет можно ли снять урок с расписания
func CheckUnschedulable(c *Class) error {
	if !c.IsScheduled() {
		return NewRuleError(ErrCannotBeUnscheduled, CodeNotScheduled, "class is not scheduled")
	}
	if c.IsFullyUsed {
		return NewRuleError(ErrCannotBeUnscheduled, CodeFullyUsed, "class is already used")
	}
	return nil
}

// CheckMarkFullyUsed разрешает отметить урок проведённым только после начала слота
func CheckMarkFullyUsed(c *Class, entry *TimelineEntry, now time.Time) error {
	if !c.IsScheduled() || entry == nil || !entry.HasStarted(now) {
		return NewRuleError(ErrNotYetTaken, CodeNotYetTaken, "class has not been taken yet")
	}
	return nil
}
