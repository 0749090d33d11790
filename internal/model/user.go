package model

import "time"

// User represents a customer or a teacher. Accounts are managed by an external
// system, only the Telegram ID is needed here for notifications.
type User struct {
	ID         int64     `json:"id"`
	TelegramID int64     `json:"telegram_id"`
	Username   string    `json:"username"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	IsTeacher  bool      `json:"is_teacher"`
	CreatedAt  time.Time `json:"created_at"`
}

// Actor представляет пользователя, от имени которого меняется леджер
type Actor struct {
	UserID int64
}

// SystemActor используется фоновыми задачами
var SystemActor = Actor{}

// Ref возвращает ID для записи в БД, nil для системных операций
func (a Actor) Ref() *int64 {
	if a.UserID == 0 {
		return nil
	}
	id := a.UserID
	return &id
}
