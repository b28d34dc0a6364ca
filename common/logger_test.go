package common

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestLog(t *testing.T) {
	SetLogLevel(Debug)
	Debugf("this is a test")
	assert.True(t, DebugEnabled())
	assert.True(t, InfoEnabled())
	SetLogLevel(Info)
	assert.False(t, DebugEnabled())
	assert.True(t, InfoEnabled())
	Debugf("this is a test, no debug")
	Infof("this is a test, info")
	SetLogLevel("")
	assert.False(t, DebugEnabled())
	assert.True(t, InfoEnabled())
	Infof("this is a test, no level")
	Warnf("this is a test, warn")
	SetLogLevel(Error)
	assert.False(t, DebugEnabled())
	assert.False(t, InfoEnabled())
	assert.False(t, WarnEnabled())
	assert.True(t, ErrorEnabled())
	Infof("this is a test, no error")
	Errorf("this is a test, error")
	SetLogLevel(Debug)
}

func TestZapLoggerOutput(t *testing.T) {
	var buf bytes.Buffer
	l := newZapLogger(&LogConfig{Env: EnvProduction, Encoding: "json", NoCaller: true}, zapcore.AddSync(&buf))
	assert.False(t, l.DebugEnabled())
	l.Debugf("hidden %d", 1)
	l.Infof("visits %d", 42)
	l.Sync()
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"visits 42"`)

	buf.Reset()
	l = newZapLogger(&LogConfig{Env: EnvDevelopment, Level: "WARN", NoCaller: true}, zapcore.AddSync(&buf))
	assert.False(t, l.InfoEnabled())
	assert.True(t, l.WarnEnabled())
	l.Warnf("store down")
	assert.Contains(t, buf.String(), "store down")
}

func TestLogLevel(t *testing.T) {
	level, ok := LogLevel("Info").zapLevel()
	assert.True(t, ok)
	assert.Equal(t, zapcore.InfoLevel, level)
	_, ok = LogLevel("trace").zapLevel()
	assert.False(t, ok)
}
