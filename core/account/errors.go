package account

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrNotFound             = errors.New("account not found")
	ErrUsernameExists       = errors.New("a user with this username already exists")
	ErrEmailExists          = errors.New("a user with this email already exists")
	ErrEmailUsedByRole      = errors.New("this email is already used by an account with another role")
	ErrAlreadyRegistered    = errors.New("a parent account with this email already exists, please sign in instead")
	ErrSelfReferral         = errors.New("parent email cannot be the same as the student email")
	ErrParentEmailNotParent = errors.New("this email belongs to an account that is not a parent")
	ErrReferralCodeTaken    = errors.New("referral code already issued")
	ErrInvalidReferralCode  = errors.New("invalid referral code")
	ErrNotParent            = errors.New("only parents can link students")
	ErrAlreadyLinked        = errors.New("this student is already linked to your account")
	ErrCourseNotFound       = errors.New("course not found")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrWrongPassword        = errors.New("wrong password")
	ErrPasswordTooLong      = fmt.Errorf("password must not exceed %d bytes", MaxPasswordBytes)
)

// EmailRoleError reports an email already used by an account of Role.
type EmailRoleError struct {
	Role Role
}

func (e *EmailRoleError) Error() string {
	return fmt.Sprintf("this email is already used by a %s account", e.Role)
}

func (e *EmailRoleError) Is(target error) bool { return target == ErrEmailUsedByRole }
