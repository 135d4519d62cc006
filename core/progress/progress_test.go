package progress_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core/progress"
)

func TestDerive(t *testing.T) {
	lessons := []progress.Lesson{
		{ID: 3, CourseID: 1, Title: "L3", OrderNumber: 3},
		{ID: 1, CourseID: 1, Title: "L1", OrderNumber: 1},
		{ID: 2, CourseID: 1, Title: "L2", OrderNumber: 2},
	}
	ts := time.Date(2021, 3, 1, 10, 0, 0, 0, time.UTC)
	done := func(ids ...int) []progress.Progress {
		var pp []progress.Progress
		for _, id := range ids {
			pp = append(pp, progress.Progress{StudentID: 7, LessonID: id, Completed: true, CompletedAt: null.TimeFrom(ts)})
		}
		return pp
	}

	tests := []struct {
		name         string
		lessons      []progress.Lesson
		progress     []progress.Progress
		wantOrder    []int
		wantUnlocked []bool
		wantDone     []bool
	}{
		{
			name:         "no progress",
			lessons:      lessons,
			wantOrder:    []int{1, 2, 3},
			wantUnlocked: []bool{true, false, false},
			wantDone:     []bool{false, false, false},
		},
		{
			name:         "first completed",
			lessons:      lessons,
			progress:     done(1),
			wantOrder:    []int{1, 2, 3},
			wantUnlocked: []bool{true, true, false},
			wantDone:     []bool{true, false, false},
		},
		{
			name:         "all completed",
			lessons:      lessons,
			progress:     done(1, 2, 3),
			wantOrder:    []int{1, 2, 3},
			wantUnlocked: []bool{true, true, true},
			wantDone:     []bool{true, true, true},
		},
		{
			name:         "gap",
			lessons:      lessons,
			progress:     done(2),
			wantOrder:    []int{1, 2, 3},
			wantUnlocked: []bool{true, false, true},
			wantDone:     []bool{false, true, false},
		},
		{
			name:    "incomplete record",
			lessons: lessons,
			progress: []progress.Progress{
				{StudentID: 7, LessonID: 1, Completed: false},
			},
			wantOrder:    []int{1, 2, 3},
			wantUnlocked: []bool{true, false, false},
			wantDone:     []bool{false, false, false},
		},
		{
			name: "reordered",
			lessons: []progress.Lesson{
				{ID: 1, OrderNumber: 2},
				{ID: 2, OrderNumber: 1},
				{ID: 3, OrderNumber: 3},
			},
			progress:     done(1),
			wantOrder:    []int{2, 1, 3},
			wantUnlocked: []bool{true, false, true},
			wantDone:     []bool{false, true, false},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := progress.Derive(tt.lessons, tt.progress)
			var order []int
			var unlocked, completed []bool
			for _, s := range got {
				order = append(order, s.ID)
				unlocked = append(unlocked, s.Unlocked)
				completed = append(completed, s.Completed)
			}
			assert.Equal(t, tt.wantOrder, order)
			assert.Equal(t, tt.wantUnlocked, unlocked)
			assert.Equal(t, tt.wantDone, completed)
		})
	}

	t.Run("completion time", func(t *testing.T) {
		got := progress.Derive(lessons, done(1))
		assert.Equal(t, null.TimeFrom(ts), got[0].CompletedAt)
		assert.False(t, got[1].CompletedAt.Valid)
	})

	t.Run("empty course", func(t *testing.T) {
		assert.Empty(t, progress.Derive(nil, done(1)))
	})

	t.Run("input untouched", func(t *testing.T) {
		progress.Derive(lessons, nil)
		assert.Equal(t, 3, lessons[0].ID)
	})
}

func TestUnrestricted(t *testing.T) {
	got := progress.Unrestricted([]progress.Lesson{{ID: 2, OrderNumber: 2}, {ID: 1, OrderNumber: 1}})
	if assert.Len(t, got, 2) {
		assert.Equal(t, 1, got[0].ID)
		assert.Equal(t, 2, got[1].ID)
		for _, s := range got {
			assert.True(t, s.Unlocked)
			assert.False(t, s.Completed)
		}
	}
}
