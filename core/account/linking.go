package account

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
)

// LinkStudent links the calling parent to the student owning the referral code.
// Linking the same pair twice is a conflict.
func (svc *Service) LinkStudent(ctx context.Context, parentID int, lr LinkRequest) (Account, error) {
	lr.Clean()
	if err := svc.validateStruct(lr); err != nil {
		return Account{}, err
	}
	code := strings.ToUpper(lr.ReferralCode)

	var student Account
	err := core.RunInTx(ctx, svc.db, svc.conf.Database.QueryTimeout, func(ctx context.Context, tx core.DBExecutor) error {
		if err := svc.requireParent(ctx, parentID, tx); err != nil {
			return err
		}

		profile, err := svc.repo.GetStudentByReferralCode(ctx, code, tx)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return core.NewNotFoundError(ErrInvalidReferralCode)
			}
			return errors.Wrap(err, "resolving referral code")
		}

		linked, err := svc.repo.LinkExists(ctx, parentID, profile.AccountID, tx)
		if err != nil {
			return errors.Wrap(err, "checking link")
		}
		if linked {
			return core.NewConflictError(ErrAlreadyLinked)
		}
		if err = svc.repo.CreateLink(ctx, parentID, profile.AccountID, tx); err != nil {
			return storeErr(err, "creating link")
		}

		student, err = svc.repo.GetAccount(ctx, GetFilter{ID: profile.AccountID}, tx)
		return errors.Wrap(err, "getting student")
	})
	if err != nil {
		return Account{}, err
	}
	return student, nil
}

// LinkedStudents lists the students linked to the calling parent.
func (svc *Service) LinkedStudents(ctx context.Context, parentID int) ([]LinkedStudent, error) {
	if err := svc.requireParent(ctx, parentID); err != nil {
		return nil, err
	}
	students, err := svc.repo.QueryLinkedStudents(ctx, parentID)
	if err != nil {
		return nil, errors.Wrap(err, "querying linked students")
	}
	return students, nil
}

func (svc *Service) requireParent(ctx context.Context, accountID int, exec ...core.DBExecutor) error {
	ok, err := svc.repo.ParentProfileExists(ctx, accountID, exec...)
	if err != nil {
		return errors.Wrap(err, "resolving parent profile")
	}
	if !ok {
		return core.NewForbiddenError(ErrNotParent)
	}
	return nil
}
