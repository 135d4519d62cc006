package account

import (
	"context"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
)

type (
	// Repository is the identity store.
	// Every method runs on exec[0] when given, so that a Service can group calls in one transaction.
	// Unique violations are reported as ErrUsernameExists, ErrEmailExists, ErrReferralCodeTaken or ErrAlreadyLinked.
	Repository interface {
		GetAccount(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (Account, error)
		UsernameExists(ctx context.Context, username string, exec ...core.DBExecutor) (bool, error)
		CreateAccount(ctx context.Context, acc Account, exec ...core.DBExecutor) (Account, error)
		UpdatePassword(ctx context.Context, id int, hash []byte, mustChange bool, exec ...core.DBExecutor) error

		CreateStudentProfile(ctx context.Context, profile StudentProfile, exec ...core.DBExecutor) error
		ReferralCodeExists(ctx context.Context, code string, exec ...core.DBExecutor) (bool, error)
		GetStudentByReferralCode(ctx context.Context, code string, exec ...core.DBExecutor) (StudentProfile, error)

		CreateParentProfile(ctx context.Context, accountID int, exec ...core.DBExecutor) error
		ParentProfileExists(ctx context.Context, accountID int, exec ...core.DBExecutor) (bool, error)

		CreateTeacherProfile(ctx context.Context, profile TeacherProfile, exec ...core.DBExecutor) error
		// AddTeacherCourses reports unknown course ids as ErrCourseNotFound.
		AddTeacherCourses(ctx context.Context, teacherID int, courseIDs []int, exec ...core.DBExecutor) error

		LinkExists(ctx context.Context, parentID, studentID int, exec ...core.DBExecutor) (bool, error)
		CreateLink(ctx context.Context, parentID, studentID int, exec ...core.DBExecutor) error
		QueryLinkedStudents(ctx context.Context, parentID int, exec ...core.DBExecutor) ([]LinkedStudent, error)
	}

	Service struct {
		db         core.DB
		repo       Repository
		mailSvc    core.EmailService
		logger     core.Logger
		validate   *validator.Validate
		translator ut.Translator
		conf       *core.Config
	}
)

func NewService(
	db core.DB,
	repo Repository,
	mailSvc core.EmailService,
	logger core.Logger,
	validate *validator.Validate,
	translator ut.Translator,
	conf *core.Config,
) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(db, "db"),
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(mailSvc, "mailSvc"),
		vala.IsNotNil(logger, "logger"),
		vala.IsNotNil(validate, "validate"),
		vala.IsNotNil(conf, "conf"),
	).CheckAndPanic()

	return &Service{
		db:         db,
		repo:       repo,
		mailSvc:    mailSvc,
		logger:     logger,
		validate:   validate,
		translator: translator,
		conf:       conf,
	}
}

func (svc *Service) validateStruct(s interface{}) error {
	return core.TranslateValidationErrors(svc.validate.Struct(s), svc.translator)
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// checkUniqueness must run on the registration transaction.
// Email collisions are reported by role: same role, parent re-registration, or another role.
func (svc *Service) checkUniqueness(ctx context.Context, tx core.DBExecutor, role Role, uname, email string) error {
	if uname != "" {
		exists, err := svc.repo.UsernameExists(ctx, uname, tx)
		if err != nil {
			return errors.Wrap(err, "checking username")
		}
		if exists {
			return core.NewConflictError(ErrUsernameExists, "username")
		}
	}

	acc, err := svc.repo.GetAccount(ctx, GetFilter{Email: email}, tx)
	switch {
	case err == nil:
		return core.NewConflictError(emailCollision(role, acc.Role), "email")
	case errors.Is(err, ErrNotFound):
		return nil
	default:
		return errors.Wrap(err, "checking email")
	}
}

func emailCollision(role, existing Role) error {
	switch {
	case existing == role && role == RoleParent:
		return ErrAlreadyRegistered
	case existing == role:
		return ErrEmailExists
	default:
		return &EmailRoleError{Role: existing}
	}
}

// storeErr turns a storage-level unique violation into a conflict and wraps any other error with msg.
func storeErr(err error, msg string) error {
	switch {
	case errors.Is(err, ErrUsernameExists):
		return core.NewConflictError(ErrUsernameExists, "username")
	case errors.Is(err, ErrEmailExists):
		return core.NewConflictError(ErrEmailExists, "email")
	case errors.Is(err, ErrReferralCodeTaken):
		return core.NewConflictError(ErrReferralCodeTaken)
	case errors.Is(err, ErrAlreadyLinked):
		return core.NewConflictError(ErrAlreadyLinked)
	}
	return errors.Wrap(err, msg)
}

func (svc *Service) GetByID(ctx context.Context, id int) (Account, error) {
	acc, err := svc.repo.GetAccount(ctx, GetFilter{ID: id})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Account{}, core.NewNotFoundError(err)
		}
		return Account{}, errors.Wrap(err, "getting account")
	}
	return acc, nil
}

// Authenticate checks the credentials of the account identified by username or email.
func (svc *Service) Authenticate(ctx context.Context, usernameOrEmail, pwd string) (Account, error) {
	acc, err := svc.repo.GetAccount(ctx, GetFilter{UsernameOrEmail: core.CleanString(usernameOrEmail, true /* lower */)})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Account{}, core.NewValidationError(ErrInvalidCredentials)
		}
		return Account{}, errors.Wrap(err, "getting account")
	}
	if err = acc.CheckPassword(pwd); err != nil {
		return Account{}, core.NewValidationError(ErrInvalidCredentials)
	}
	return acc, nil
}

// ChangePassword replaces the caller's password and clears MustChangePassword.
func (svc *Service) ChangePassword(ctx context.Context, accountID int, cp ChangePassword) error {
	acc, err := svc.GetByID(ctx, accountID)
	if err != nil {
		return err
	}

	cp.name, cp.username, cp.email = acc.Name, acc.Username, acc.Email
	if err = svc.validateStruct(cp); err != nil {
		return err
	}
	if err = acc.CheckPassword(cp.OldPassword); err != nil {
		return core.NewValidationError(ErrWrongPassword, core.FieldError{Field: "old_password", Error: ErrWrongPassword.Error()})
	}

	if err = acc.SetPassword(cp.Password); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	return errors.Wrap(svc.repo.UpdatePassword(ctx, acc.ID, acc.PasswordHash, false), "updating password")
}

// SetPassword overwrites the password of the account identified by username or email, without policy checks.
func (svc *Service) SetPassword(ctx context.Context, usernameOrEmail, pwd string) error {
	acc, err := svc.repo.GetAccount(ctx, GetFilter{UsernameOrEmail: core.CleanString(usernameOrEmail, true /* lower */)})
	if err != nil {
		return err
	}
	if err = acc.SetPassword(pwd); err != nil {
		if errors.Is(err, ErrPasswordTooLong) {
			return core.NewValidationError(err, core.FieldError{Field: "password", Error: err.Error()})
		}
		return errors.Wrap(err, "hashing password")
	}
	return svc.repo.UpdatePassword(ctx, acc.ID, acc.PasswordHash, false)
}
