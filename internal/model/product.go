package model

import "time"

// Product представляет пакет уроков из каталога (абонемент)
type Product struct {
	ID           int64              `json:"id"`
	Name         string             `json:"name"`
	DurationDays int                `json:"duration_days"` // срок действия абонемента
	IsActive     bool               `json:"is_active"`
	Lessons      map[LessonType]int `json:"lessons"` // состав: тип урока -> количество
	CreatedAt    time.Time          `json:"created_at"`
}

// Duration возвращает срок действия как time.Duration
func (p *Product) Duration() time.Duration {
	return time.Duration(p.DurationDays) * 24 * time.Hour
}

// LessonsCount возвращает сколько уроков всего даёт пакет
func (p *Product) LessonsCount() int {
	cnt := 0
	for _, qty := range p.Lessons {
		cnt += qty
	}
	return cnt
}

// Units разворачивает состав в список типов, по одному на каждый урок.
// Порядок стабильный: по LessonTypes().
func (p *Product) Units() []LessonType {
	units := make([]LessonType, 0, p.LessonsCount())
	for _, lt := range LessonTypes() {
		for i := 0; i < p.Lessons[lt]; i++ {
			units = append(units, lt)
		}
	}
	return units
}
