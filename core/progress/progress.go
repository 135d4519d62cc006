// Package progress derives lesson lock state from completion records.
package progress

import (
	"sort"
	"time"

	"github.com/volatiletech/null/v8"
)

type Lesson struct {
	ID          int    `json:"id" db:"id"`
	CourseID    int    `json:"course_id" db:"course_id"`
	Title       string `json:"title" db:"title"`
	OrderNumber int    `json:"order_number" db:"order_number"`
}

type Progress struct {
	StudentID   int       `json:"student_id" db:"student_id"`
	LessonID    int       `json:"lesson_id" db:"lesson_id"`
	Completed   bool      `json:"completed" db:"completed"`
	CompletedAt null.Time `json:"completed_at" db:"completed_at"`
}

type LessonStatus struct {
	Lesson
	Unlocked    bool      `json:"unlocked"`
	Completed   bool      `json:"completed"`
	CompletedAt null.Time `json:"completed_at"`
}

// Derive walks the lessons in order: the first lesson is unlocked,
// every other lesson is unlocked iff the lesson right before it is completed.
// Nothing but the completion records is remembered between calls.
func Derive(lessons []Lesson, progress []Progress) []LessonStatus {
	ordered := make([]Lesson, len(lessons))
	copy(ordered, lessons)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].OrderNumber < ordered[j].OrderNumber })

	done := make(map[int]Progress, len(progress))
	for _, p := range progress {
		if p.Completed {
			done[p.LessonID] = p
		}
	}

	statuses := make([]LessonStatus, 0, len(ordered))
	prevCompleted := true
	for _, l := range ordered {
		p, completed := done[l.ID]
		statuses = append(statuses, LessonStatus{
			Lesson:      l,
			Unlocked:    prevCompleted,
			Completed:   completed,
			CompletedAt: p.CompletedAt,
		})
		prevCompleted = completed
	}
	return statuses
}

// Unrestricted reports every lesson unlocked, without completion data.
func Unrestricted(lessons []Lesson) []LessonStatus {
	ordered := make([]Lesson, len(lessons))
	copy(ordered, lessons)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].OrderNumber < ordered[j].OrderNumber })

	statuses := make([]LessonStatus, 0, len(ordered))
	for _, l := range ordered {
		statuses = append(statuses, LessonStatus{Lesson: l, Unlocked: true})
	}
	return statuses
}

func nullTime(t time.Time) null.Time { return null.TimeFrom(t) }

func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
