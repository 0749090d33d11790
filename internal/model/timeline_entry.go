package model

import "time"

// TimelineEntry представляет конкретный слот преподавателя, на который записывают уроки
type TimelineEntry struct {
	ID         int64      `json:"id"`
	TeacherID  int64      `json:"teacher_id"`
	LessonType LessonType `json:"lesson_type"`
	StartTime  time.Time  `json:"start_time"`
	EndTime    time.Time  `json:"end_time"`
	Slots      int        `json:"slots"`       // всего мест
	TakenSlots int        `json:"taken_slots"` // занято мест
	CreatedAt  time.Time  `json:"created_at"`
}

// IsFree checks if the entry has at least one free slot
func (e *TimelineEntry) IsFree() bool {
	return e.TakenSlots < e.Slots
}

// FreeSlots возвращает количество свободных мест
func (e *TimelineEntry) FreeSlots() int {
	if e.TakenSlots >= e.Slots {
		return 0
	}
	return e.Slots - e.TakenSlots
}

// HasStarted checks if the entry start time has passed at the given moment
func (e *TimelineEntry) HasStarted(now time.Time) bool {
	return !e.StartTime.After(now)
}
