package interfaces

// Logger abstraction, structured logger passed explicitly to every component
type Logger interface {
	Debug(message string)
	Info(message string)
	Warn(message string)
	Error(message string)
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	// Child return logger with additional scope field
	Child(scope string) Logger
}
