package core

// Logger is implemented by the application loggers.
// Args may carry errors, maps of extra fields, or the account.Identity of the current session.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
