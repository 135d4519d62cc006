package submission_test

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/account"
	"github.com/trezcool/shule/core/submission"
	sqlxrepos "github.com/trezcool/shule/storage/database/sqlx"
	"github.com/trezcool/shule/tests"
)

type fixture struct {
	db           *sqlx.DB
	svc          *submission.Service
	assignmentID int
	student      account.Caller
	teacher      account.Caller
}

func caller(acc account.Account) account.Caller {
	return account.Caller{ID: acc.ID, Role: acc.Role}
}

// setup wires a Service on a fresh database. wrap, if given, decorates the repository.
func setup(t *testing.T, wrap ...func(submission.Repository) submission.Repository) fixture {
	db := testutil.PrepareDB(t)
	validate, translator := account.NewValidator()
	courseID := testutil.CreateCourse(t, db, "Physics")

	var repo submission.Repository = sqlxrepos.NewSubmissionRepository(db)
	for _, w := range wrap {
		repo = w(repo)
	}
	return fixture{
		db:           db,
		svc:          submission.NewService(db, repo, validate, translator, testutil.Config()),
		assignmentID: testutil.CreateAssignment(t, db, courseID, "Homework 1"),
		student:      caller(testutil.CreateAccount(t, db, account.RoleStudent, "Kid", "kid", "kid@test.cd", "")),
		teacher:      caller(testutil.CreateAccount(t, db, account.RoleTeacher, "Teach", "teach", "teach@test.cd", "")),
	}
}

func TestService_Submit(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	parent := caller(testutil.CreateAccount(t, f.db, account.RoleParent, "Mom", "mom", "mom@test.cd", ""))

	tests := []struct {
		name         string
		caller       account.Caller
		assignmentID int
		data         submission.NewSubmission
		check        func(error) bool
	}{
		{name: "text", caller: f.student, data: submission.NewSubmission{ContentKind: "text", Content: "my answer"}},
		{name: "link", caller: f.student, data: submission.NewSubmission{ContentKind: " LINK ", Content: "https://example.com/hw1"}},
		{name: "file", caller: f.student, data: submission.NewSubmission{ContentKind: "file", Content: "uploads/hw1.pdf"}},
		{name: "invalid link", caller: f.student, data: submission.NewSubmission{ContentKind: "link", Content: "not a url"}, check: core.IsValidation},
		{name: "unknown kind", caller: f.student, data: submission.NewSubmission{ContentKind: "video", Content: "x"}, check: core.IsValidation},
		{name: "blank content", caller: f.student, data: submission.NewSubmission{ContentKind: "text", Content: "   "}, check: core.IsValidation},
		{name: "unknown assignment", caller: f.student, assignmentID: 999999, data: submission.NewSubmission{ContentKind: "text", Content: "x"}, check: core.IsNotFound},
		{name: "teacher", caller: f.teacher, data: submission.NewSubmission{ContentKind: "text", Content: "x"}, check: core.IsForbidden},
		{name: "parent", caller: parent, data: submission.NewSubmission{ContentKind: "text", Content: "x"}, check: core.IsForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assignmentID := tt.assignmentID
			if assignmentID == 0 {
				assignmentID = f.assignmentID
			}
			s, err := f.svc.Submit(ctx, tt.caller, assignmentID, tt.data)
			if tt.check != nil {
				assert.True(t, tt.check(err), "err = %v", err)
				return
			}
			require.NoError(t, err)
			assert.NotZero(t, s.ID)
			assert.Equal(t, submission.StatusPending, s.Status)
			assert.False(t, s.Result.Valid)
			assert.Equal(t, f.student.ID, s.StudentID)

			stored, err := f.svc.Get(ctx, f.student, s.ID)
			require.NoError(t, err)
			assert.Equal(t, submission.StatusPending, stored.Status)
			assert.False(t, stored.Result.Valid)
			assert.False(t, stored.AssessedAt.Valid)
		})
	}
	assert.Equal(t, 3, testutil.Count(t, f.db, "assignment_submissions", ""))
}

func TestService_Assess(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	s, err := f.svc.Submit(ctx, f.student, f.assignmentID, submission.NewSubmission{ContentKind: "text", Content: "42"})
	require.NoError(t, err)

	t.Run("not a teacher", func(t *testing.T) {
		for _, c := range []account.Caller{f.student, {ID: f.student.ID, Role: account.RoleAdmin}} {
			_, err := f.svc.Assess(ctx, c, s.ID, submission.Assessment{Status: "approved", Result: "pass"})
			assert.True(t, core.IsForbidden(err), "err = %v", err)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		tests := []submission.Assessment{
			{Status: "pending", Result: "pass"},
			{Status: "approved"},
			{Status: "approved", Result: "maybe"},
		}
		for _, a := range tests {
			_, err := f.svc.Assess(ctx, f.teacher, s.ID, a)
			assert.True(t, core.IsValidation(err), "err = %v", err)
		}
	})

	t.Run("unknown submission", func(t *testing.T) {
		_, err := f.svc.Assess(ctx, f.teacher, 999999, submission.Assessment{Status: "approved", Result: "pass"})
		assert.True(t, core.IsNotFound(err), "err = %v", err)
	})

	feedback := "well done"
	got, err := f.svc.Assess(ctx, f.teacher, s.ID, submission.Assessment{Status: " Approved", Result: "PASS", Feedback: &feedback})
	require.NoError(t, err)
	assert.Equal(t, submission.StatusApproved, got.Status)
	assert.Equal(t, "pass", got.Result.String)
	assert.Equal(t, feedback, got.Feedback.String)
	assert.Equal(t, f.teacher.ID, got.AssessedBy.Int)
	assert.True(t, got.AssessedAt.Valid)

	_, err = f.svc.Assess(ctx, f.teacher, s.ID, submission.Assessment{Status: "rejected", Result: "fail"})
	require.True(t, core.IsConflict(err), "err = %v", err)
	assert.True(t, errors.Is(err, submission.ErrAlreadyAssessed))

	stored, err := f.svc.Get(ctx, f.teacher, s.ID)
	require.NoError(t, err)
	assert.Equal(t, submission.StatusApproved, stored.Status)
	assert.Equal(t, "pass", stored.Result.String)
	assert.Equal(t, feedback, stored.Feedback.String)
}

// staleReads reports every submission as pending, like a read racing another assessment.
type staleReads struct {
	submission.Repository
}

func (r staleReads) GetSubmission(ctx context.Context, id int, exec ...core.DBExecutor) (submission.Submission, error) {
	s, err := r.Repository.GetSubmission(ctx, id, exec...)
	s.Status = submission.StatusPending
	return s, err
}

func TestService_AssessRace(t *testing.T) {
	f := setup(t, func(repo submission.Repository) submission.Repository { return staleReads{repo} })
	ctx := context.Background()

	s, err := f.svc.Submit(ctx, f.student, f.assignmentID, submission.NewSubmission{ContentKind: "text", Content: "42"})
	require.NoError(t, err)

	_, err = f.svc.Assess(ctx, f.teacher, s.ID, submission.Assessment{Status: "approved", Result: "pass"})
	require.NoError(t, err)

	_, err = f.svc.Assess(ctx, f.teacher, s.ID, submission.Assessment{Status: "rejected", Result: "fail"})
	require.True(t, core.IsConflict(err), "err = %v", err)
	assert.True(t, errors.Is(err, submission.ErrAlreadyAssessed))
	assert.Equal(t, 1, testutil.Count(t, f.db, "assignment_submissions", "status = ? AND result = ?", "approved", "pass"))
}

func TestService_Get(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	s, err := f.svc.Submit(ctx, f.student, f.assignmentID, submission.NewSubmission{ContentKind: "text", Content: "42"})
	require.NoError(t, err)

	other := caller(testutil.CreateAccount(t, f.db, account.RoleStudent, "Kid 2", "kid2", "kid2@test.cd", ""))
	admin := caller(testutil.CreateAccount(t, f.db, account.RoleAdmin, "Admin", "admin", "admin@test.cd", ""))
	parent := caller(testutil.CreateAccount(t, f.db, account.RoleParent, "Mom", "mom", "mom@test.cd", ""))

	tests := []struct {
		name   string
		caller account.Caller
		id     int
		check  func(error) bool
	}{
		{name: "owner", caller: f.student, id: s.ID},
		{name: "teacher", caller: f.teacher, id: s.ID},
		{name: "admin", caller: admin, id: s.ID},
		{name: "other student", caller: other, id: s.ID, check: core.IsForbidden},
		{name: "parent", caller: parent, id: s.ID, check: core.IsForbidden},
		{name: "unknown", caller: f.teacher, id: s.ID + 1, check: core.IsNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.svc.Get(ctx, tt.caller, tt.id)
			if tt.check != nil {
				assert.True(t, tt.check(err), "err = %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "42", got.Content)
			assert.Equal(t, submission.KindText, got.ContentKind)
		})
	}
}
