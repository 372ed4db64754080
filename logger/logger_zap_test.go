package logger_test

import (
	"bytes"
	"testing"

	"github.com/golangid/meshserve/logger"
	"github.com/stretchr/testify/assert"
)

func TestInitZap(t *testing.T) {
	logOutput := new(bytes.Buffer)
	logger.InitZap(logger.OptionSetWriter(logOutput))

	logger.LogEf("formatted error: %s", "something went wrong")

	assert.Contains(t, logOutput.String(), `"level":"ERROR"`)
	assert.Contains(t, logOutput.String(), "formatted error: something went wrong")
}

func TestZapLogger(t *testing.T) {
	logOutput := new(bytes.Buffer)
	log := logger.NewZapLogger(logger.OptionSetWriter(logOutput), logger.OptionAddField("service", "meshserve"))

	log.Info("starting")
	log.Child("mysql").Errorf("cannot connect %s", "db")

	out := logOutput.String()
	assert.Contains(t, out, `"message":"starting"`)
	assert.Contains(t, out, `"service":"meshserve"`)
	assert.Contains(t, out, `"scope":"mysql"`)
	assert.Contains(t, out, `"level":"ERROR"`)
	assert.Contains(t, out, "cannot connect db")
}

func TestZapLoggerLevel(t *testing.T) {
	logOutput := new(bytes.Buffer)
	log := logger.NewZapLogger(logger.OptionSetWriter(logOutput), logger.OptionSetLevel("warn"))

	log.Debug("hidden debug")
	log.Info("hidden info")
	log.Warn("visible warn")

	assert.NotContains(t, logOutput.String(), "hidden")
	assert.Contains(t, logOutput.String(), "visible warn")
}

func TestNop(t *testing.T) {
	log := logger.NewNop()
	assert.NotPanics(t, func() {
		log.Info("nothing")
		log.Child("x").Error("nothing")
	})
}
