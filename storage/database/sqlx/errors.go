package sqlxrepos

import (
	"strings"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// constraint names a constraint in both dialects:
// postgres reports its name, sqlite reports the constrained columns.
type constraint struct {
	pgName     string
	sqliteCols string
}

var (
	accountsUsernameKey    = constraint{"accounts_username_key", "accounts.username"}
	accountsEmailKey       = constraint{"accounts_email_key", "accounts.email"}
	studentReferralCodeKey = constraint{"student_profiles_referral_code_key", "student_profiles.referral_code"}
	parentStudentsPkey     = constraint{"parent_students_pkey", "parent_students.parent_id, parent_students.student_id"}
)

// isUniqueViolation reports whether err violates c.
func isUniqueViolation(err error, c constraint) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqUniqueViolation && pqErr.Constraint == c.pgName
	}
	var sqErr sqlite3.Error
	if errors.As(err, &sqErr) {
		if sqErr.ExtendedCode != sqlite3.ErrConstraintUnique && sqErr.ExtendedCode != sqlite3.ErrConstraintPrimaryKey {
			return false
		}
		return strings.Contains(sqErr.Error(), c.sqliteCols)
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqForeignKeyViolation
	}
	var sqErr sqlite3.Error
	if errors.As(err, &sqErr) {
		return sqErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}
	return false
}
