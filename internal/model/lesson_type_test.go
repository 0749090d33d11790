package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLessonTypeCapacity(t *testing.T) {
	tests := []struct {
		lessonType LessonType
		capacity   int
		group      bool
	}{
		{LessonOrdinary, 1, false},
		{LessonWithNative, 1, false},
		{LessonPaired, 2, true},
		{LessonHappyHour, 5, true},
		{LessonMasterClass, 10, true},
	}

	for _, tt := range tests {
		t.Run(tt.lessonType.String(), func(t *testing.T) {
			assert.Equal(t, tt.capacity, tt.lessonType.Capacity())
			assert.Equal(t, tt.group, tt.lessonType.IsGroup())
			assert.True(t, tt.lessonType.IsValid())
		})
	}
}

func TestParseLessonType(t *testing.T) {
	lt, err := ParseLessonType("paired")
	require.NoError(t, err)
	assert.Equal(t, LessonPaired, lt)

	_, err = ParseLessonType("webinar")
	assert.Error(t, err)
}

func TestLessonTypesCoverCatalog(t *testing.T) {
	assert.Len(t, LessonTypes(), len(lessonCatalog))
	for _, lt := range LessonTypes() {
		assert.NotEmpty(t, lt.Name())
	}
	assert.Equal(t, "Curated session", LessonOrdinary.Name())
}
