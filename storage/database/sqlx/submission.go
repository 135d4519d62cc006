package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/submission"
)

const submissionColumns = `id, assignment_id, student_id, content_kind, content, status, result, feedback, assessed_by, assessed_at, submitted_at`

type submissionRepository struct {
	db *sqlx.DB
}

var _ submission.Repository = (*submissionRepository)(nil)

func NewSubmissionRepository(db *sqlx.DB) *submissionRepository {
	return &submissionRepository{db: db}
}

func (repo *submissionRepository) AssignmentExists(ctx context.Context, id int, exec ...core.DBExecutor) (bool, error) {
	return exists(ctx, core.GetExec(repo.db, exec), `SELECT 1 FROM assignments WHERE id = ?`, id)
}

func (repo *submissionRepository) CreateSubmission(ctx context.Context, s submission.Submission, exec ...core.DBExecutor) (submission.Submission, error) {
	ex := core.GetExec(repo.db, exec)
	q := ex.Rebind(`
		INSERT INTO assignment_submissions (assignment_id, student_id, content_kind, content, status, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`)

	if err := sqlx.GetContext(ctx, ex, &s.ID, q, s.AssignmentID, s.StudentID, s.ContentKind, s.Content, s.Status, s.SubmittedAt); err != nil {
		return submission.Submission{}, err
	}
	return s, nil
}

func (repo *submissionRepository) GetSubmission(ctx context.Context, id int, exec ...core.DBExecutor) (submission.Submission, error) {
	ex := core.GetExec(repo.db, exec)
	q := ex.Rebind(`SELECT ` + submissionColumns + ` FROM assignment_submissions WHERE id = ?`)

	var s submission.Submission
	if err := sqlx.GetContext(ctx, ex, &s, q, id); err != nil {
		if err == sql.ErrNoRows {
			return submission.Submission{}, submission.ErrNotFound
		}
		return submission.Submission{}, err
	}
	return s, nil
}

func (repo *submissionRepository) Assess(ctx context.Context, s submission.Submission, exec ...core.DBExecutor) (bool, error) {
	ex := core.GetExec(repo.db, exec)
	q := ex.Rebind(`
		UPDATE assignment_submissions
		SET status = ?, result = ?, feedback = ?, assessed_by = ?, assessed_at = ?
		WHERE id = ? AND status = ?`)

	res, err := ex.ExecContext(ctx, q, s.Status, s.Result, s.Feedback, s.AssessedBy, s.AssessedAt, s.ID, submission.StatusPending)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
