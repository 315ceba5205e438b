package core

// Logger is the logging abstraction used by services and apps.
// Besides the message, implementations may receive an error, a map of extras and the requester (user.User).
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
