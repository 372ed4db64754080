package logger

import (
	"fmt"
	"time"

	"github.com/golangid/meshserve/candihelper"
	"go.uber.org/zap"
)

var (
	debugMode = true
	logger    *zap.SugaredLogger
)

func init() {
	InitZap()
}

// InitZap global logger used by boot helpers, default writer to stdout
func InitZap(opts ...OptionFunc) {
	logger = newZap(opts...)
}

// SetDebugMode set local debug mode, colored boot logs are printed only in debug mode
func SetDebugMode(mode bool) {
	debugMode = mode
}

// LogEf error with format
func LogEf(format string, i ...interface{}) {
	logger.Errorf(format, i...)
}

// LogWithDefer return defer func for status
func LogWithDefer(str string) (deferFunc func()) {
	fmt.Printf("%s %s ", time.Now().Format(candihelper.TimeFormatLogger), str)
	return func() {
		if r := recover(); r != nil {
			fmt.Printf("\x1b[31;1mERROR: %v\x1b[0m\n", r)
			panic(r)
		}
		fmt.Println("\x1b[32;1mSUCCESS\x1b[0m")
	}
}

// LogYellow log with yellow color
func LogYellow(str string) {
	if debugMode {
		fmt.Printf("\x1b[33;2m%s\x1b[0m\n", str)
	}
}

// LogRed log with red color
func LogRed(str string) {
	if debugMode {
		fmt.Printf("\x1b[31;2m%s\x1b[0m\n", str)
	}
}

// LogGreen log with green color
func LogGreen(str string) {
	if debugMode {
		fmt.Printf("\x1b[32;2m%s\x1b[0m\n", str)
	}
}
