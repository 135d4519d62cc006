package account

import (
	"time"

	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/shule/core"
)

type Role string

// Roles
const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
	RoleParent  Role = "parent"
)

var AllRoles = []Role{RoleAdmin, RoleTeacher, RoleStudent, RoleParent}

func (r Role) IsValid() bool {
	for _, role := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

type Account struct {
	ID                 int         `json:"id" db:"id"`
	Name               string      `json:"name" db:"name"`
	Username           string      `json:"username" db:"username"`
	Email              string      `json:"email" db:"email"`
	PasswordHash       []byte      `json:"-" db:"password_hash"`
	Role               Role        `json:"role" db:"role"`
	Phone              null.String `json:"phone" db:"phone"`
	Address            null.String `json:"address" db:"address"`
	MustChangePassword bool        `json:"must_change_password" db:"must_change_password"`
	CreatedAt          time.Time   `json:"created_at" db:"created_at"` // UTC
	UpdatedAt          time.Time   `json:"updated_at" db:"updated_at"` // UTC
}

// MaxPasswordBytes is the longest password bcrypt hashes without truncating it.
const MaxPasswordBytes = 72

func (a *Account) SetPassword(pwd string) error {
	if len(pwd) > MaxPasswordBytes {
		return ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.PasswordHash = hash
	return nil
}

func (a *Account) CheckPassword(pwd string) error {
	if len(pwd) > MaxPasswordBytes {
		return bcrypt.ErrMismatchedHashAndPassword
	}
	return bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(pwd))
}

func (a Account) IsParent() bool { return a.Role == RoleParent }

// LogPerson identifies the account in log reports.
func (a Account) LogPerson() core.LogPerson {
	return core.LogPerson{ID: a.ID, Username: a.Username, Email: a.Email, Role: string(a.Role)}
}

type StudentProfile struct {
	AccountID    int         `json:"account_id" db:"account_id"`
	IsEnrolled   bool        `json:"is_enrolled" db:"is_enrolled"`
	School       null.String `json:"school" db:"school"`
	Education    null.String `json:"education" db:"education"`
	ParentEmail  null.String `json:"parent_email" db:"parent_email"`
	ReferralCode null.String `json:"referral_code" db:"referral_code"`
}

type ParentProfile struct {
	AccountID int `json:"account_id" db:"account_id"`
}

type TeacherProfile struct {
	AccountID      int    `json:"account_id" db:"account_id"`
	Specialization string `json:"specialization" db:"specialization"`
	CourseIDs      []int  `json:"course_ids" db:"-"`
}

// LinkedStudent is a student as seen by a linked parent.
type LinkedStudent struct {
	ID         int         `json:"id" db:"id"`
	Name       string      `json:"name" db:"name"`
	Username   string      `json:"username" db:"username"`
	Email      string      `json:"email" db:"email"`
	IsEnrolled bool        `json:"is_enrolled" db:"is_enrolled"`
	School     null.String `json:"school" db:"school"`
	Education  null.String `json:"education" db:"education"`
	LinkedAt   time.Time   `json:"linked_at" db:"created_at"`
}

// GetFilter selects a single account. Only the first non-zero field is used.
type GetFilter struct {
	ID              int
	Username        string
	Email           string
	UsernameOrEmail string
}

// NewAccount contains information needed to register a parent or an admin.
type NewAccount struct {
	Name            string  `json:"name" validate:"required,notblank,max=150"`
	Username        string  `json:"username" validate:"required,min=3,max=150,alphanum_"`
	Email           string  `json:"email" validate:"required,email,max=254"`
	Password        string  `json:"password" validate:"required"`
	PasswordConfirm string  `json:"password_confirm" validate:"required,eqfield=Password"`
	Phone           *string `json:"phone" validate:"omitempty,max=32"`
	Address         *string `json:"address" validate:"omitempty,max=255"`
}

func (na *NewAccount) Clean() {
	na.Name = core.CleanString(na.Name)
	na.Username = core.CleanString(na.Username, true /* lower */)
	na.Email = core.CleanString(na.Email, true /* lower */)
	na.Phone = core.CleanStringPtr(na.Phone)
	na.Address = core.CleanStringPtr(na.Address)
}

// NewStudent contains information needed to register a student.
type NewStudent struct {
	Name            string  `json:"name" validate:"required,notblank,max=150"`
	Username        string  `json:"username" validate:"required,min=3,max=150,alphanum_"`
	Email           string  `json:"email" validate:"required,email,max=254"`
	Password        string  `json:"password" validate:"required"`
	PasswordConfirm string  `json:"password_confirm" validate:"required,eqfield=Password"`
	Phone           *string `json:"phone" validate:"omitempty,max=32"`
	Address         *string `json:"address" validate:"omitempty,max=255"`
	IsEnrolled      bool    `json:"is_enrolled"`
	School          *string `json:"school" validate:"omitempty,max=255"`
	Education       *string `json:"education" validate:"omitempty,max=255"`
	ParentEmail     *string `json:"parent_email" validate:"omitempty,email,max=254"`
}

func (ns *NewStudent) Clean() {
	ns.Name = core.CleanString(ns.Name)
	ns.Username = core.CleanString(ns.Username, true /* lower */)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.Phone = core.CleanStringPtr(ns.Phone)
	ns.Address = core.CleanStringPtr(ns.Address)
	ns.School = core.CleanStringPtr(ns.School)
	ns.Education = core.CleanStringPtr(ns.Education)
	ns.ParentEmail = core.CleanStringPtr(ns.ParentEmail, true /* lower */)
}

// NewTeacher contains information needed to register a teacher. Credentials are generated.
type NewTeacher struct {
	Name           string  `json:"name" validate:"required,notblank,max=150"`
	Email          string  `json:"email" validate:"required,email,max=254"`
	Phone          *string `json:"phone" validate:"omitempty,max=32"`
	Address        *string `json:"address" validate:"omitempty,max=255"`
	Specialization string  `json:"specialization" validate:"max=255"`
	CourseIDs      []int   `json:"course_ids" validate:"dive,gt=0"`
}

func (nt *NewTeacher) Clean() {
	nt.Name = core.CleanString(nt.Name)
	nt.Email = core.CleanString(nt.Email, true /* lower */)
	nt.Phone = core.CleanStringPtr(nt.Phone)
	nt.Address = core.CleanStringPtr(nt.Address)
	nt.Specialization = core.CleanString(nt.Specialization)

	seen := make(map[int]bool, len(nt.CourseIDs))
	ids := make([]int, 0, len(nt.CourseIDs))
	for _, id := range nt.CourseIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	nt.CourseIDs = ids
}

type LinkRequest struct {
	ReferralCode string `json:"referral_code" validate:"required,alphanum,max=16"`
}

func (lr *LinkRequest) Clean() {
	lr.ReferralCode = core.CleanString(lr.ReferralCode)
}

type ChangePassword struct {
	OldPassword     string `json:"old_password" validate:"required"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`

	// account attributes the new password is compared against
	name, username, email string
}

// StudentRegistration is the result of RegisterStudent.
type StudentRegistration struct {
	Account      Account     `json:"account"`
	ReferralCode null.String `json:"referral_code"`
}

// TeacherRegistration is the result of RegisterTeacher.
// Password is the plaintext temporary password and is never stored.
type TeacherRegistration struct {
	Account  Account `json:"account"`
	Username string  `json:"username"`
	Password string  `json:"password"`
}

func nullStr(s *string) null.String {
	return null.StringFromPtr(s)
}

// Caller is the authenticated account an operation runs for.
type Caller struct {
	ID   int
	Role Role
}
