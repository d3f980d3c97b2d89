package core

// Logger is the logging service used across the app.
// args may contain errors, maps of extra data and at most one user.User (the actor the entry is about).
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
