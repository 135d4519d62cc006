// Package sqlxrepos implements the repositories on sqlx.
// Queries are written with `?` placeholders and rebound for the connection's driver.
package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/account"
)

const accountColumns = `id, name, username, email, password_hash, role, phone, address, must_change_password, created_at, updated_at`

type accountRepository struct {
	db *sqlx.DB
}

var _ account.Repository = (*accountRepository)(nil)

func NewAccountRepository(db *sqlx.DB) *accountRepository {
	return &accountRepository{db: db}
}

func (repo *accountRepository) GetAccount(ctx context.Context, filter account.GetFilter, exec ...core.DBExecutor) (account.Account, error) {
	ex := core.GetExec(repo.db, exec)

	q := `SELECT ` + accountColumns + ` FROM accounts WHERE `
	var args []interface{}
	switch {
	case filter.ID != 0:
		q += `id = ?`
		args = append(args, filter.ID)
	case filter.Username != "":
		q += `username = ?`
		args = append(args, filter.Username)
	case filter.Email != "":
		q += `email = ?`
		args = append(args, filter.Email)
	case filter.UsernameOrEmail != "":
		q += `(username = ? OR email = ?)`
		args = append(args, filter.UsernameOrEmail, filter.UsernameOrEmail)
	default:
		return account.Account{}, account.ErrNotFound
	}

	var acc account.Account
	if err := sqlx.GetContext(ctx, ex, &acc, ex.Rebind(q+` LIMIT 1`), args...); err != nil {
		if err == sql.ErrNoRows {
			return account.Account{}, account.ErrNotFound
		}
		return account.Account{}, err
	}
	return acc, nil
}

func (repo *accountRepository) UsernameExists(ctx context.Context, username string, exec ...core.DBExecutor) (bool, error) {
	return exists(ctx, core.GetExec(repo.db, exec), `SELECT 1 FROM accounts WHERE username = ?`, username)
}

func (repo *accountRepository) CreateAccount(ctx context.Context, acc account.Account, exec ...core.DBExecutor) (account.Account, error) {
	ex := core.GetExec(repo.db, exec)
	q := ex.Rebind(`
		INSERT INTO accounts (name, username, email, password_hash, role, phone, address, must_change_password, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)

	err := sqlx.GetContext(ctx, ex, &acc.ID, q,
		acc.Name, acc.Username, acc.Email, acc.PasswordHash, acc.Role,
		acc.Phone, acc.Address, acc.MustChangePassword, acc.CreatedAt, acc.UpdatedAt,
	)
	switch {
	case err == nil:
		return acc, nil
	case isUniqueViolation(err, accountsUsernameKey):
		return account.Account{}, account.ErrUsernameExists
	case isUniqueViolation(err, accountsEmailKey):
		return account.Account{}, account.ErrEmailExists
	default:
		return account.Account{}, err
	}
}

func (repo *accountRepository) UpdatePassword(ctx context.Context, id int, hash []byte, mustChange bool, exec ...core.DBExecutor) error {
	ex := core.GetExec(repo.db, exec)
	q := ex.Rebind(`UPDATE accounts SET password_hash = ?, must_change_password = ?, updated_at = ? WHERE id = ?`)

	res, err := ex.ExecContext(ctx, q, hash, mustChange, now(), id)
	if err != nil {
		return err
	}
	return requireAffected(res, account.ErrNotFound)
}

func (repo *accountRepository) CreateStudentProfile(ctx context.Context, p account.StudentProfile, exec ...core.DBExecutor) error {
	ex := core.GetExec(repo.db, exec)
	q := ex.Rebind(`
		INSERT INTO student_profiles (account_id, is_enrolled, school, education, parent_email, referral_code)
		VALUES (?, ?, ?, ?, ?, ?)`)

	_, err := ex.ExecContext(ctx, q, p.AccountID, p.IsEnrolled, p.School, p.Education, p.ParentEmail, p.ReferralCode)
	if isUniqueViolation(err, studentReferralCodeKey) {
		return account.ErrReferralCodeTaken
	}
	return err
}

func (repo *accountRepository) ReferralCodeExists(ctx context.Context, code string, exec ...core.DBExecutor) (bool, error) {
	return exists(ctx, core.GetExec(repo.db, exec), `SELECT 1 FROM student_profiles WHERE referral_code = ?`, code)
}

func (repo *accountRepository) GetStudentByReferralCode(ctx context.Context, code string, exec ...core.DBExecutor) (account.StudentProfile, error) {
	return repo.getStudentProfile(ctx, core.GetExec(repo.db, exec), `referral_code = ?`, code)
}

func (repo *accountRepository) getStudentProfile(ctx context.Context, ex core.DBExecutor, where string, arg interface{}) (account.StudentProfile, error) {
	q := ex.Rebind(`
		SELECT account_id, is_enrolled, school, education, parent_email, referral_code
		FROM student_profiles WHERE ` + where)

	var p account.StudentProfile
	if err := sqlx.GetContext(ctx, ex, &p, q, arg); err != nil {
		if err == sql.ErrNoRows {
			return account.StudentProfile{}, account.ErrNotFound
		}
		return account.StudentProfile{}, err
	}
	return p, nil
}

func (repo *accountRepository) CreateParentProfile(ctx context.Context, accountID int, exec ...core.DBExecutor) error {
	ex := core.GetExec(repo.db, exec)
	_, err := ex.ExecContext(ctx, ex.Rebind(`INSERT INTO parent_profiles (account_id) VALUES (?)`), accountID)
	return err
}

func (repo *accountRepository) ParentProfileExists(ctx context.Context, accountID int, exec ...core.DBExecutor) (bool, error) {
	return exists(ctx, core.GetExec(repo.db, exec), `SELECT 1 FROM parent_profiles WHERE account_id = ?`, accountID)
}

func (repo *accountRepository) CreateTeacherProfile(ctx context.Context, p account.TeacherProfile, exec ...core.DBExecutor) error {
	ex := core.GetExec(repo.db, exec)
	q := ex.Rebind(`INSERT INTO teacher_profiles (account_id, specialization) VALUES (?, ?)`)
	_, err := ex.ExecContext(ctx, q, p.AccountID, p.Specialization)
	return err
}

func (repo *accountRepository) AddTeacherCourses(ctx context.Context, teacherID int, courseIDs []int, exec ...core.DBExecutor) error {
	ex := core.GetExec(repo.db, exec)
	q := ex.Rebind(`INSERT INTO teacher_courses (teacher_id, course_id) VALUES (?, ?)`)

	for _, courseID := range courseIDs {
		if _, err := ex.ExecContext(ctx, q, teacherID, courseID); err != nil {
			if isForeignKeyViolation(err) {
				return errors.Wrapf(account.ErrCourseNotFound, "course %d", courseID)
			}
			return err
		}
	}
	return nil
}

func (repo *accountRepository) LinkExists(ctx context.Context, parentID, studentID int, exec ...core.DBExecutor) (bool, error) {
	return exists(ctx, core.GetExec(repo.db, exec),
		`SELECT 1 FROM parent_students WHERE parent_id = ? AND student_id = ?`, parentID, studentID)
}

func (repo *accountRepository) CreateLink(ctx context.Context, parentID, studentID int, exec ...core.DBExecutor) error {
	ex := core.GetExec(repo.db, exec)
	q := ex.Rebind(`INSERT INTO parent_students (parent_id, student_id, created_at) VALUES (?, ?, ?)`)

	_, err := ex.ExecContext(ctx, q, parentID, studentID, now())
	if isUniqueViolation(err, parentStudentsPkey) {
		return account.ErrAlreadyLinked
	}
	return err
}

func (repo *accountRepository) QueryLinkedStudents(ctx context.Context, parentID int, exec ...core.DBExecutor) ([]account.LinkedStudent, error) {
	ex := core.GetExec(repo.db, exec)
	q := ex.Rebind(`
		SELECT a.id, a.name, a.username, a.email, sp.is_enrolled, sp.school, sp.education, ps.created_at
		FROM parent_students ps
		JOIN accounts a ON a.id = ps.student_id
		JOIN student_profiles sp ON sp.account_id = ps.student_id
		WHERE ps.parent_id = ?
		ORDER BY ps.created_at, a.id`)

	students := make([]account.LinkedStudent, 0)
	if err := sqlx.SelectContext(ctx, ex, &students, q, parentID); err != nil {
		return nil, err
	}
	return students, nil
}
