package core

// Logger logs messages with optional args: errors, maps of extra data or the session's user.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Person identifies the logged-in user attached to a log entry.
type Person struct {
	ID    string
	Name  string
	Email string
}
