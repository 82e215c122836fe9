package core

// Logger is any service able to log & report app events.
// expected args: error, map[string]interface{} (extra data), user.User (person being served)
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
