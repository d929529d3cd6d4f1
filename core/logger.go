package core

// Fields holds structured context attached to a log entry.
type Fields map[string]interface{}

// Logger is any service that can log messages.
// args may contain errors and Fields.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
