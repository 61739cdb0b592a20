package core

// Logger is implemented by logging services.
// args may contain errors, maps of extra data and the Admin performing the request.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Person identifies the user attached to a log entry.
type Person interface {
	LogIdentity() (id, username, email string)
}
