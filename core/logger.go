package core

// Logger is any service that can log messages.
// args may contain errors, maps of extra data and the account the message relates to.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// LogPerson identifies the account a log message relates to.
type LogPerson struct {
	ID       int
	Username string
	Email    string
	Role     string
}
