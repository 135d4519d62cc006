package logsvc

import (
	"fmt"
	"log"
	"strconv"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/shule/core"
)

// RollbarLogger prints to std and reports to Rollbar when enabled.
// The account a message relates to is reported as the Rollbar person, its role as extra data.
type RollbarLogger struct {
	std *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	return &RollbarLogger{std: std}
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// entry is a log message split into what Rollbar reports and the account it relates to.
type entry struct {
	args   []interface{} // msg, then errors and one extras map
	person *core.LogPerson
}

// newEntry splits args into errors, extras and the first core.LogPerson.
// Rollbar keeps a single extras map, so all maps are merged.
func newEntry(msg string, args []interface{}) entry {
	var (
		e      entry
		extras map[string]interface{}
	)
	e.args = append(make([]interface{}, 0, len(args)+1), msg)
	for _, arg := range args {
		switch v := arg.(type) {
		case core.LogPerson:
			if e.person == nil {
				p := v
				e.person = &p
			}
		case map[string]interface{}:
			if extras == nil {
				extras = make(map[string]interface{}, len(v)+1)
			}
			for k, val := range v {
				extras[k] = val
			}
		default:
			e.args = append(e.args, arg)
		}
	}
	if e.person != nil && e.person.Role != "" {
		if extras == nil {
			extras = make(map[string]interface{}, 1)
		}
		extras["account_role"] = e.person.Role
	}
	if extras != nil {
		e.args = append(e.args, extras)
	}
	return e
}

func (l RollbarLogger) report(level string, msg string, args []interface{}) {
	e := newEntry(msg, args)
	if e.person != nil {
		rollbar.SetPerson(strconv.Itoa(e.person.ID), e.person.Username, e.person.Email)
	} else {
		rollbar.ClearPerson()
	}
	rollbar.Log(level, e.args...)
	l.print(e)
}

func (l RollbarLogger) print(e entry) {
	l.std.Println(e.args[0])
	if e.person != nil {
		l.std.Println(describePerson(*e.person))
	}
	for _, arg := range e.args[1:] {
		l.std.Printf("%+v\n", arg)
	}
}

func describePerson(p core.LogPerson) string {
	if p.Role == "" {
		return fmt.Sprintf("account: #%d %s", p.ID, p.Username)
	}
	return fmt.Sprintf("account: #%d %s (%s)", p.ID, p.Username, p.Role)
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	l.report(rollbar.DEBUG, msg, args)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	l.report(rollbar.INFO, msg, args)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	l.report(rollbar.WARN, msg, args)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	l.report(rollbar.ERR, msg, args)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.report(rollbar.CRIT, msg, args)
	l.std.Fatal(msg)
}
