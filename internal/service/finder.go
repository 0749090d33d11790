package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/lesson_market/internal/model"
)

// FindResult описывает результат поиска урока для записи.
// "Не нашли" является нормальным состоянием, а не ошибкой.
type FindResult struct {
	Result bool         `json:"result"`
	Class  *model.Class `json:"class,omitempty"`
	Error  string       `json:"error,omitempty"`
	Text   string       `json:"text,omitempty"`
}

// FindClass подбирает урок покупателя для записи на слот нужного типа.
// Уроки из абонементов идут первыми, затем самые ранние покупки.
func (s *ClassService) FindClass(ctx context.Context, customerID int64, lessonType model.LessonType) (FindResult, error) {
	if !lessonType.IsValid() {
		return FindResult{}, fmt.Errorf("unknown lesson type %q", lessonType)
	}

	class, err := s.classRepo.FindUsable(ctx, customerID, lessonType, s.now())
	if err != nil {
		return FindResult{}, fmt.Errorf("find class: %w", err)
	}

	if class == nil {
		return FindResult{
			Result: false,
			Error:  model.CodeClassNotFound,
			Text:   fmt.Sprintf("You have no purchased %s to schedule", strings.ToLower(lessonType.Name())),
		}, nil
	}

	return FindResult{Result: true, Class: class}, nil
}
