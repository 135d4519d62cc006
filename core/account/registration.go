package account

import (
	"context"
	"net/mail"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/credential"
)

// RegisterStudent creates a student account and profile in one transaction.
// Enrolled students get a referral code, which is emailed to the declared parent after commit.
func (svc *Service) RegisterStudent(ctx context.Context, ns NewStudent) (StudentRegistration, error) {
	ns.Clean()
	if ns.ParentEmail != nil && *ns.ParentEmail == ns.Email {
		return StudentRegistration{}, core.NewValidationError(
			ErrSelfReferral,
			core.FieldError{Field: "parent_email", Error: ErrSelfReferral.Error()},
		)
	}
	if err := svc.validateStruct(ns); err != nil {
		return StudentRegistration{}, err
	}

	var reg StudentRegistration
	err := core.RunInTx(ctx, svc.db, svc.conf.Database.QueryTimeout, func(ctx context.Context, tx core.DBExecutor) error {
		if ns.ParentEmail != nil {
			parent, err := svc.repo.GetAccount(ctx, GetFilter{Email: *ns.ParentEmail}, tx)
			if err == nil && !parent.IsParent() {
				return core.NewValidationError(
					ErrParentEmailNotParent,
					core.FieldError{Field: "parent_email", Error: ErrParentEmailNotParent.Error()},
				)
			} else if err != nil && !errors.Is(err, ErrNotFound) {
				return errors.Wrap(err, "checking parent email")
			}
		}
		if err := svc.checkUniqueness(ctx, tx, RoleStudent, ns.Username, ns.Email); err != nil {
			return err
		}

		ts := now()
		acc := Account{
			Name:      ns.Name,
			Username:  ns.Username,
			Email:     ns.Email,
			Role:      RoleStudent,
			Phone:     nullStr(ns.Phone),
			Address:   nullStr(ns.Address),
			CreatedAt: ts,
			UpdatedAt: ts,
		}
		if err := acc.SetPassword(ns.Password); err != nil {
			return errors.Wrap(err, "hashing password")
		}
		acc, err := svc.repo.CreateAccount(ctx, acc, tx)
		if err != nil {
			return storeErr(err, "creating account")
		}

		profile := StudentProfile{
			AccountID:   acc.ID,
			IsEnrolled:  ns.IsEnrolled,
			School:      nullStr(ns.School),
			Education:   nullStr(ns.Education),
			ParentEmail: nullStr(ns.ParentEmail),
		}
		if ns.IsEnrolled {
			code, err := svc.newReferralCode(ctx, tx)
			if err != nil {
				return err
			}
			profile.ReferralCode = null.StringFrom(code)
		}
		if err = svc.repo.CreateStudentProfile(ctx, profile, tx); err != nil {
			return storeErr(err, "creating student profile")
		}

		reg = StudentRegistration{Account: acc, ReferralCode: profile.ReferralCode}
		return nil
	})
	if err != nil {
		return StudentRegistration{}, err
	}

	if ns.ParentEmail != nil && reg.ReferralCode.Valid {
		svc.sendReferralMail(reg.Account, *ns.ParentEmail, reg.ReferralCode.String)
	}
	return reg, nil
}

func (svc *Service) newReferralCode(ctx context.Context, tx core.DBExecutor) (string, error) {
	code, err := credential.FindUnique(
		svc.conf.Account.ReferralCodeMaxAttempts,
		func(int) (string, error) { return credential.GenerateReferralCode(svc.conf.Account.ReferralCodeLength) },
		func(code string) (bool, error) { return svc.repo.ReferralCodeExists(ctx, code, tx) },
	)
	if err != nil {
		if errors.Is(err, credential.ErrExhausted) {
			svc.logger.Error("generating referral code", err)
		}
		return "", errors.Wrap(err, "generating referral code")
	}
	return code, nil
}

// RegisterParent creates a parent account and profile in one transaction.
func (svc *Service) RegisterParent(ctx context.Context, na NewAccount) (Account, error) {
	return svc.registerAccount(ctx, RoleParent, na, func(tx core.DBExecutor, acc Account) error {
		return errors.Wrap(svc.repo.CreateParentProfile(ctx, acc.ID, tx), "creating parent profile")
	})
}

// RegisterAdmin creates an admin account. Admins have no profile table.
func (svc *Service) RegisterAdmin(ctx context.Context, na NewAccount) (Account, error) {
	return svc.registerAccount(ctx, RoleAdmin, na, nil)
}

func (svc *Service) registerAccount(
	ctx context.Context,
	role Role,
	na NewAccount,
	createProfile func(tx core.DBExecutor, acc Account) error,
) (Account, error) {
	na.Clean()
	if err := svc.validateStruct(na); err != nil {
		return Account{}, err
	}

	var acc Account
	err := core.RunInTx(ctx, svc.db, svc.conf.Database.QueryTimeout, func(ctx context.Context, tx core.DBExecutor) error {
		if err := svc.checkUniqueness(ctx, tx, role, na.Username, na.Email); err != nil {
			return err
		}

		ts := now()
		acc = Account{
			Name:      na.Name,
			Username:  na.Username,
			Email:     na.Email,
			Role:      role,
			Phone:     nullStr(na.Phone),
			Address:   nullStr(na.Address),
			CreatedAt: ts,
			UpdatedAt: ts,
		}
		if err := acc.SetPassword(na.Password); err != nil {
			return errors.Wrap(err, "hashing password")
		}
		var err error
		if acc, err = svc.repo.CreateAccount(ctx, acc, tx); err != nil {
			return storeErr(err, "creating account")
		}
		if createProfile != nil {
			return createProfile(tx, acc)
		}
		return nil
	})
	if err != nil {
		return Account{}, err
	}
	return acc, nil
}

// RegisterTeacher creates a teacher with a generated username and temporary password.
// The plaintext password is only returned here and in the welcome email.
func (svc *Service) RegisterTeacher(ctx context.Context, nt NewTeacher) (TeacherRegistration, error) {
	nt.Clean()
	if err := svc.validateStruct(nt); err != nil {
		return TeacherRegistration{}, err
	}

	var reg TeacherRegistration
	err := core.RunInTx(ctx, svc.db, svc.conf.Database.QueryTimeout, func(ctx context.Context, tx core.DBExecutor) error {
		if err := svc.checkUniqueness(ctx, tx, RoleTeacher, "", nt.Email); err != nil {
			return err
		}

		base := credential.GenerateUsername(nt.Name)
		uname, err := credential.FindUnique(
			svc.conf.Account.UsernameMaxAttempts,
			func(attempt int) (string, error) { return credential.UsernameCandidate(base, attempt), nil },
			func(uname string) (bool, error) { return svc.repo.UsernameExists(ctx, uname, tx) },
		)
		if err != nil {
			if errors.Is(err, credential.ErrExhausted) {
				svc.logger.Error("generating teacher username", err)
			}
			return errors.Wrap(err, "generating username")
		}

		pwd, err := credential.GenerateSecurePassword(svc.conf.Account.TemporaryPasswordLength)
		if err != nil {
			return errors.Wrap(err, "generating password")
		}

		ts := now()
		acc := Account{
			Name:               nt.Name,
			Username:           uname,
			Email:              nt.Email,
			Role:               RoleTeacher,
			Phone:              nullStr(nt.Phone),
			Address:            nullStr(nt.Address),
			MustChangePassword: true,
			CreatedAt:          ts,
			UpdatedAt:          ts,
		}
		if err = acc.SetPassword(pwd); err != nil {
			return errors.Wrap(err, "hashing password")
		}
		if acc, err = svc.repo.CreateAccount(ctx, acc, tx); err != nil {
			return storeErr(err, "creating account")
		}

		profile := TeacherProfile{AccountID: acc.ID, Specialization: nt.Specialization, CourseIDs: nt.CourseIDs}
		if err = svc.repo.CreateTeacherProfile(ctx, profile, tx); err != nil {
			return errors.Wrap(err, "creating teacher profile")
		}
		if len(nt.CourseIDs) > 0 {
			if err = svc.repo.AddTeacherCourses(ctx, acc.ID, nt.CourseIDs, tx); err != nil {
				if errors.Is(err, ErrCourseNotFound) {
					return core.NewValidationError(err, core.FieldError{Field: "course_ids", Error: err.Error()})
				}
				return errors.Wrap(err, "assigning courses")
			}
		}

		reg = TeacherRegistration{Account: acc, Username: uname, Password: pwd}
		return nil
	})
	if err != nil {
		return TeacherRegistration{}, err
	}

	svc.sendTeacherWelcomeMail(reg)
	return reg, nil
}

type referralMailData struct {
	AppName         string
	FrontendBaseURL string
	StudentName     string
	ReferralCode    string
}

func (svc *Service) sendReferralMail(student Account, parentEmail, code string) {
	svc.mailSvc.SendMessages(core.NewEmailMessage(
		mail.Address{Address: parentEmail},
		student.Name+" joined "+svc.conf.AppName,
		"referral",
		referralMailData{
			AppName:         svc.conf.AppName,
			FrontendBaseURL: svc.conf.FrontendBaseURL,
			StudentName:     student.Name,
			ReferralCode:    code,
		},
	))
}

type teacherWelcomeMailData struct {
	AppName         string
	FrontendBaseURL string
	Name            string
	Username        string
	Password        string
}

func (svc *Service) sendTeacherWelcomeMail(reg TeacherRegistration) {
	svc.mailSvc.SendMessages(core.NewEmailMessage(
		mail.Address{Name: reg.Account.Name, Address: reg.Account.Email},
		"Your "+svc.conf.AppName+" teacher account",
		"teacher_welcome",
		teacherWelcomeMailData{
			AppName:         svc.conf.AppName,
			FrontendBaseURL: svc.conf.FrontendBaseURL,
			Name:            reg.Account.Name,
			Username:        reg.Username,
			Password:        reg.Password,
		},
	))
}
