package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/progress"
)

type progressRepository struct {
	db *sqlx.DB
}

var _ progress.Repository = (*progressRepository)(nil)

func NewProgressRepository(db *sqlx.DB) *progressRepository {
	return &progressRepository{db: db}
}

func (repo *progressRepository) CourseExists(ctx context.Context, courseID int, exec ...core.DBExecutor) (bool, error) {
	return exists(ctx, core.GetExec(repo.db, exec), `SELECT 1 FROM courses WHERE id = ?`, courseID)
}

func (repo *progressRepository) QueryLessons(ctx context.Context, courseID int, exec ...core.DBExecutor) ([]progress.Lesson, error) {
	ex := core.GetExec(repo.db, exec)
	q := ex.Rebind(`
		SELECT id, course_id, title, order_number FROM lessons
		WHERE course_id = ?
		ORDER BY order_number, id`)

	lessons := make([]progress.Lesson, 0)
	if err := sqlx.SelectContext(ctx, ex, &lessons, q, courseID); err != nil {
		return nil, err
	}
	return lessons, nil
}

func (repo *progressRepository) GetLesson(ctx context.Context, lessonID int, exec ...core.DBExecutor) (progress.Lesson, error) {
	ex := core.GetExec(repo.db, exec)
	q := ex.Rebind(`SELECT id, course_id, title, order_number FROM lessons WHERE id = ?`)

	var l progress.Lesson
	if err := sqlx.GetContext(ctx, ex, &l, q, lessonID); err != nil {
		if err == sql.ErrNoRows {
			return progress.Lesson{}, progress.ErrLessonNotFound
		}
		return progress.Lesson{}, err
	}
	return l, nil
}

func (repo *progressRepository) QueryProgress(ctx context.Context, studentID, courseID int, exec ...core.DBExecutor) ([]progress.Progress, error) {
	ex := core.GetExec(repo.db, exec)
	q := ex.Rebind(`
		SELECT lp.student_id, lp.lesson_id, lp.completed, lp.completed_at
		FROM lesson_progress lp
		JOIN lessons l ON l.id = lp.lesson_id
		WHERE lp.student_id = ? AND l.course_id = ?`)

	rows := make([]progress.Progress, 0)
	if err := sqlx.SelectContext(ctx, ex, &rows, q, studentID, courseID); err != nil {
		return nil, err
	}
	return rows, nil
}

func (repo *progressRepository) UpsertCompletion(ctx context.Context, p progress.Progress, exec ...core.DBExecutor) (progress.Progress, error) {
	ex := core.GetExec(repo.db, exec)
	q := ex.Rebind(`
		INSERT INTO lesson_progress (student_id, lesson_id, completed, completed_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (student_id, lesson_id)
		DO UPDATE SET completed = excluded.completed, completed_at = excluded.completed_at`)
	if _, err := ex.ExecContext(ctx, q, p.StudentID, p.LessonID, p.Completed, p.CompletedAt); err != nil {
		return progress.Progress{}, err
	}

	// read back through the table so column types survive on sqlite
	q = ex.Rebind(`
		SELECT student_id, lesson_id, completed, completed_at FROM lesson_progress
		WHERE student_id = ? AND lesson_id = ?`)
	var saved progress.Progress
	if err := sqlx.GetContext(ctx, ex, &saved, q, p.StudentID, p.LessonID); err != nil {
		return progress.Progress{}, err
	}
	return saved, nil
}
