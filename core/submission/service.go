// Package submission handles assignment submissions and their review.
package submission

import (
	"context"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/account"
)

var (
	ErrNotFound           = errors.New("submission not found")
	ErrAssignmentNotFound = errors.New("assignment not found")
	ErrAlreadyAssessed    = errors.New("this submission has already been assessed")
	ErrNotStudent         = errors.New("only students can submit assignments")
	ErrNotTeacher         = errors.New("only teachers can assess submissions")
	ErrNotOwner           = errors.New("you cannot access this submission")
	ErrInvalidLink        = errors.New("content must be a valid URL")
)

type (
	Repository interface {
		AssignmentExists(ctx context.Context, id int, exec ...core.DBExecutor) (bool, error)
		CreateSubmission(ctx context.Context, s Submission, exec ...core.DBExecutor) (Submission, error)
		GetSubmission(ctx context.Context, id int, exec ...core.DBExecutor) (Submission, error)
		// Assess applies the decision only if the submission is still pending and reports whether it did.
		Assess(ctx context.Context, s Submission, exec ...core.DBExecutor) (bool, error)
	}

	Service struct {
		db         core.DB
		repo       Repository
		validate   *validator.Validate
		translator ut.Translator
		conf       *core.Config
	}
)

func NewService(db core.DB, repo Repository, validate *validator.Validate, translator ut.Translator, conf *core.Config) *Service {
	return &Service{db: db, repo: repo, validate: validate, translator: translator, conf: conf}
}

// Submit creates a pending submission for the calling student.
func (svc *Service) Submit(ctx context.Context, caller account.Caller, assignmentID int, ns NewSubmission) (Submission, error) {
	if caller.Role != account.RoleStudent {
		return Submission{}, core.NewForbiddenError(ErrNotStudent)
	}
	ns.Clean()
	if err := core.TranslateValidationErrors(svc.validate.Struct(ns), svc.translator); err != nil {
		return Submission{}, err
	}
	if ns.ContentKind == KindLink {
		if err := svc.validate.Var(ns.Content, "url"); err != nil {
			return Submission{}, core.NewValidationError(ErrInvalidLink, core.FieldError{Field: "content", Error: ErrInvalidLink.Error()})
		}
	}

	exists, err := svc.repo.AssignmentExists(ctx, assignmentID)
	if err != nil {
		return Submission{}, errors.Wrap(err, "checking assignment")
	}
	if !exists {
		return Submission{}, core.NewNotFoundError(ErrAssignmentNotFound)
	}

	s, err := svc.repo.CreateSubmission(ctx, Submission{
		AssignmentID: assignmentID,
		StudentID:    caller.ID,
		ContentKind:  ns.ContentKind,
		Content:      ns.Content,
		Status:       StatusPending,
		SubmittedAt:  time.Now().UTC().Truncate(time.Microsecond),
	})
	return s, errors.Wrap(err, "creating submission")
}

// Get returns a submission to its student, or to any teacher or admin.
func (svc *Service) Get(ctx context.Context, caller account.Caller, id int) (Submission, error) {
	s, err := svc.repo.GetSubmission(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Submission{}, core.NewNotFoundError(err)
		}
		return Submission{}, errors.Wrap(err, "getting submission")
	}

	switch caller.Role {
	case account.RoleTeacher, account.RoleAdmin:
		return s, nil
	case account.RoleStudent:
		if s.StudentID == caller.ID {
			return s, nil
		}
	}
	return Submission{}, core.NewForbiddenError(ErrNotOwner)
}

// Assess decides a pending submission. A decided submission is never overwritten.
func (svc *Service) Assess(ctx context.Context, caller account.Caller, id int, a Assessment) (Submission, error) {
	if caller.Role != account.RoleTeacher {
		return Submission{}, core.NewForbiddenError(ErrNotTeacher)
	}
	a.Clean()
	if err := core.TranslateValidationErrors(svc.validate.Struct(a), svc.translator); err != nil {
		return Submission{}, err
	}

	var assessed Submission
	err := core.RunInTx(ctx, svc.db, svc.conf.Database.QueryTimeout, func(ctx context.Context, tx core.DBExecutor) error {
		current, err := svc.repo.GetSubmission(ctx, id, tx)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return core.NewNotFoundError(err)
			}
			return errors.Wrap(err, "getting submission")
		}
		if !current.IsPending() {
			return core.NewConflictError(ErrAlreadyAssessed)
		}

		ok, err := svc.repo.Assess(ctx, Submission{
			ID:         id,
			Status:     a.Status,
			Result:     null.StringFrom(string(a.Result)),
			Feedback:   null.StringFromPtr(a.Feedback),
			AssessedBy: null.IntFrom(caller.ID),
			AssessedAt: null.TimeFrom(time.Now().UTC().Truncate(time.Microsecond)),
		}, tx)
		if err != nil {
			return errors.Wrap(err, "assessing submission")
		}

		if !ok {
			// decided concurrently
			return core.NewConflictError(ErrAlreadyAssessed)
		}
		assessed, err = svc.repo.GetSubmission(ctx, id, tx)
		return errors.Wrap(err, "getting submission")
	})
	if err != nil {
		return Submission{}, err
	}
	return assessed, nil
}
