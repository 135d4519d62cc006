package progress

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/account"
)

var (
	ErrCourseNotFound = errors.New("course not found")
	ErrLessonNotFound = errors.New("lesson not found")
	ErrLessonLocked   = errors.New("complete the previous lesson first")
	ErrNotStudent     = errors.New("only students can complete lessons")
)

type (
	Repository interface {
		CourseExists(ctx context.Context, courseID int, exec ...core.DBExecutor) (bool, error)
		// QueryLessons returns the lessons of a course by ascending order number.
		QueryLessons(ctx context.Context, courseID int, exec ...core.DBExecutor) ([]Lesson, error)
		GetLesson(ctx context.Context, lessonID int, exec ...core.DBExecutor) (Lesson, error)
		QueryProgress(ctx context.Context, studentID, courseID int, exec ...core.DBExecutor) ([]Progress, error)
		// UpsertCompletion marks the lesson completed, keeping a single row per (student, lesson).
		UpsertCompletion(ctx context.Context, p Progress, exec ...core.DBExecutor) (Progress, error)
	}

	Service struct {
		db   core.DB
		repo Repository
		conf *core.Config
	}
)

func NewService(db core.DB, repo Repository, conf *core.Config) *Service {
	return &Service{db: db, repo: repo, conf: conf}
}

// ListLessons returns the course lessons annotated for the caller.
// Only students are gated.
func (svc *Service) ListLessons(ctx context.Context, caller account.Caller, courseID int) ([]LessonStatus, error) {
	exists, err := svc.repo.CourseExists(ctx, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "checking course")
	}
	if !exists {
		return nil, core.NewNotFoundError(ErrCourseNotFound)
	}

	lessons, err := svc.repo.QueryLessons(ctx, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "querying lessons")
	}
	if caller.Role != account.RoleStudent {
		return Unrestricted(lessons), nil
	}

	progress, err := svc.repo.QueryProgress(ctx, caller.ID, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "querying progress")
	}
	return Derive(lessons, progress), nil
}

// MarkComplete records the lesson as completed by the calling student.
// Locked lessons cannot be completed; completing a lesson again refreshes its completion time.
func (svc *Service) MarkComplete(ctx context.Context, caller account.Caller, lessonID int) (LessonStatus, error) {
	if caller.Role != account.RoleStudent {
		return LessonStatus{}, core.NewForbiddenError(ErrNotStudent)
	}

	var status LessonStatus
	err := core.RunInTx(ctx, svc.db, svc.conf.Database.QueryTimeout, func(ctx context.Context, tx core.DBExecutor) error {
		lesson, err := svc.repo.GetLesson(ctx, lessonID, tx)
		if err != nil {
			if errors.Is(err, ErrLessonNotFound) {
				return core.NewNotFoundError(err)
			}
			return errors.Wrap(err, "getting lesson")
		}

		lessons, err := svc.repo.QueryLessons(ctx, lesson.CourseID, tx)
		if err != nil {
			return errors.Wrap(err, "querying lessons")
		}
		progress, err := svc.repo.QueryProgress(ctx, caller.ID, lesson.CourseID, tx)
		if err != nil {
			return errors.Wrap(err, "querying progress")
		}
		for _, s := range Derive(lessons, progress) {
			if s.ID == lessonID && !s.Unlocked {
				return core.NewConflictError(ErrLessonLocked)
			}
		}

		p, err := svc.repo.UpsertCompletion(ctx, Progress{
			StudentID:   caller.ID,
			LessonID:    lessonID,
			Completed:   true,
			CompletedAt: nullTime(now()),
		}, tx)
		if err != nil {
			return errors.Wrap(err, "saving progress")
		}

		status = LessonStatus{Lesson: lesson, Unlocked: true, Completed: p.Completed, CompletedAt: p.CompletedAt}
		return nil
	})
	if err != nil {
		return LessonStatus{}, err
	}
	return status, nil
}
