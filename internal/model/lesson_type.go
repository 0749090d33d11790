package model

import "fmt"

// LessonType представляет вариант урока из каталога. Набор вариантов закрыт.
type LessonType string

const (
	LessonOrdinary    LessonType = "ordinary"     // Занятие с куратором
	LessonWithNative  LessonType = "with_native"  // Занятие с носителем языка
	LessonPaired      LessonType = "paired"       // Парное занятие
	LessonHappyHour   LessonType = "happy_hour"   // Happy hour
	LessonMasterClass LessonType = "master_class" // Мастер-класс
)

type lessonSpec struct {
	name     string
	capacity int
}

var lessonCatalog = map[LessonType]lessonSpec{
	LessonOrdinary:    {name: "Curated session", capacity: 1},
	LessonWithNative:  {name: "Lesson with a native speaker", capacity: 1},
	LessonPaired:      {name: "Paired lesson", capacity: 2},
	LessonHappyHour:   {name: "Happy hour", capacity: 5},
	LessonMasterClass: {name: "Master class", capacity: 10},
}

// LessonTypes возвращает все варианты в стабильном порядке
func LessonTypes() []LessonType {
	return []LessonType{LessonOrdinary, LessonWithNative, LessonPaired, LessonHappyHour, LessonMasterClass}
}

// ParseLessonType проверяет что строка является известным вариантом урока
func ParseLessonType(s string) (LessonType, error) {
	lt := LessonType(s)
	if !lt.IsValid() {
		return "", fmt.Errorf("unknown lesson type %q", s)
	}
	return lt, nil
}

// IsValid checks if the lesson type belongs to the catalog
func (t LessonType) IsValid() bool {
	_, ok := lessonCatalog[t]
	return ok
}

// Name возвращает название варианта для пользователя
func (t LessonType) Name() string {
	if spec, ok := lessonCatalog[t]; ok {
		return spec.name
	}
	return string(t)
}

// Capacity возвращает сколько учеников помещается в один слот этого типа
func (t LessonType) Capacity() int {
	if spec, ok := lessonCatalog[t]; ok {
		return spec.capacity
	}
	return 1
}

// IsGroup checks if the slot holds more than one student
func (t LessonType) IsGroup() bool {
	return t.Capacity() > 1
}

func (t LessonType) String() string {
	return string(t)
}
