package model

import "time"

// Subscription представляет купленный экземпляр продукта
type Subscription struct {
	ID                     int64      `json:"id"`
	CustomerID             int64      `json:"customer_id"`
	ProductID              int64      `json:"product_id"`
	BuyPrice               int        `json:"buy_price"` // в копейках/центах
	IsActive               bool       `json:"is_active"`
	BuyDate                time.Time  `json:"buy_date"`
	ExpiresAt              *time.Time `json:"expires_at"`
	ActivatedAt            *time.Time `json:"activated_at"` // когда уроки были выданы
	UnusedNotificationDate *time.Time `json:"unused_notification_date"`

	// Дополнительные поля для удобства (не из БД)
	Product *Product `json:"product,omitempty"`
	Classes []*Class `json:"classes,omitempty"`
}

// IsActivated checks if the subscription classes are already created
func (s *Subscription) IsActivated() bool {
	return s.ActivatedAt != nil
}

// NameForUser возвращает название для уведомлений
func (s *Subscription) NameForUser() string {
	if s.Product != nil {
		return s.Product.Name
	}
	return "subscription"
}
