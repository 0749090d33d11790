package notify

import (
	"fmt"
	"time"

	"github.com/Freeeeeet/lesson_market/internal/model"
)

// formatDateTime форматирует дату и время
func formatDateTime(t time.Time) string {
	return t.Format("02.01.2006 15:04")
}

// formatTimeRange форматирует диапазон времени
func formatTimeRange(start, end time.Time) string {
	return fmt.Sprintf("%s-%s", start.Format("15:04"), end.Format("15:04"))
}

// formatEntry форматирует день недели, дату и время слота
func formatEntry(entry *model.TimelineEntry) string {
	return fmt.Sprintf("%s %s (%s)",
		entry.StartTime.Format("Mon"),
		formatDateTime(entry.StartTime),
		formatTimeRange(entry.StartTime, entry.EndTime))
}

// pluralizeLessons возвращает "lesson" или "lessons"
func pluralizeLessons(count int) string {
	if count == 1 {
		return "lesson"
	}
	return "lessons"
}
