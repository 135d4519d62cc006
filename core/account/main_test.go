package account_test

import (
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/account"
	emailsvc "github.com/trezcool/shule/services/email"
	sqlxrepos "github.com/trezcool/shule/storage/database/sqlx"
	"github.com/trezcool/shule/tests"
)

type fixture struct {
	db   *sqlx.DB
	conf *core.Config
	repo account.Repository
	mail *emailsvc.ConsoleServiceMock
	svc  *account.Service
}

// setup wires a Service on a fresh database. wrap, if given, decorates the repository.
func setup(t *testing.T, wrap ...func(account.Repository) account.Repository) fixture {
	conf := testutil.Config()
	db := testutil.PrepareDB(t)
	logger := testutil.NewLogger(conf)
	validate, translator := account.NewValidator()

	var repo account.Repository = sqlxrepos.NewAccountRepository(db)
	for _, w := range wrap {
		repo = w(repo)
	}
	mail := emailsvc.NewConsoleServiceMock(conf, logger)
	return fixture{
		db:   db,
		conf: conf,
		repo: repo,
		mail: mail,
		svc:  account.NewService(db, repo, mail, logger, validate, translator, conf),
	}
}

func strPtr(s string) *string { return &s }

// fieldErrors indexes the field errors of a core.ValidationError.
func fieldErrors(err error) map[string]string {
	var vErr *core.ValidationError
	flds := make(map[string]string)
	if errors.As(err, &vErr) {
		for _, f := range vErr.Fields {
			flds[f.Field] = f.Error
		}
	}
	return flds
}
