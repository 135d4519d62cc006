package echoapi_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/jmoiron/sqlx"

	. "github.com/trezcool/shule/apps/api/echo"
	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/account"
	"github.com/trezcool/shule/core/progress"
	"github.com/trezcool/shule/core/submission"
	emailsvc "github.com/trezcool/shule/services/email"
	sqlxrepos "github.com/trezcool/shule/storage/database/sqlx"
	"github.com/trezcool/shule/tests"
)

type fixture struct {
	db   *sqlx.DB
	conf *core.Config
	mail *emailsvc.ConsoleServiceMock
	app  Server
}

func setup(t *testing.T) fixture {
	conf := testutil.Config()
	db := testutil.PrepareDB(t)
	logger := testutil.NewLogger(conf)
	validate, translator := account.NewValidator()
	mail := emailsvc.NewConsoleServiceMock(conf, logger)

	app := NewServer(ServerDeps{
		Conf:           conf,
		Logger:         logger,
		AccountSvc:     account.NewService(db, sqlxrepos.NewAccountRepository(db), mail, logger, validate, translator, conf),
		ProgressSvc:    progress.NewService(db, sqlxrepos.NewProgressRepository(db), conf),
		SubmissionSvc:  submission.NewService(db, sqlxrepos.NewSubmissionRepository(db), validate, translator, conf),
		DisableReqLogs: true,
	})
	return fixture{db: db, conf: conf, mail: mail, app: app}
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     interface{}
	token    string
	wantCode int
}

// do sends a JSON request to the app and returns the recorded response.
func (f fixture) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.app.ServeHTTP(rec, req)
	return rec
}

func (f fixture) run(t *testing.T, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, tt.method, tt.path, tt.token, tt.body)
			if rec.Code != tt.wantCode {
				t.Errorf("%s %s: code = %d; want %d; body = %s", tt.method, tt.path, rec.Code, tt.wantCode, rec.Body.String())
			}
		})
	}
}

func (f fixture) token(t *testing.T, acc account.Account) string {
	t.Helper()
	token, err := GenerateToken(NewClaims(acc, f.conf), f.conf)
	if err != nil {
		t.Fatalf("token() failed: %v", err)
	}
	return token
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decoding %q: %v", rec.Body.String(), err)
	}
}

type echoMap map[string]interface{}

func itoa(i int) string { return strconv.Itoa(i) }
