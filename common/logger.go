package common

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap/zapcore"
)

// LogLevel 日志级别
type LogLevel string

// 日志级别定义
const (
	Debug LogLevel = "debug"
	Info  LogLevel = "info"
	Warn  LogLevel = "warn"
	Error LogLevel = "error"
)

// 运行环境
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

func (p LogLevel) zapLevel() (level zapcore.Level, ok bool) {
	switch LogLevel(strings.ToLower(string(p))) {
	case Debug:
		return zapcore.DebugLevel, true
	case Info:
		return zapcore.InfoLevel, true
	case Warn:
		return zapcore.WarnLevel, true
	case Error:
		return zapcore.ErrorLevel, true
	}
	return zapcore.InfoLevel, false
}

// Logger 日志接口
type Logger interface {
	Debugf(format string, params ...interface{})
	DebugEnabled() bool
	Infof(format string, params ...interface{})
	InfoEnabled() bool
	Warnf(format string, params ...interface{})
	WarnEnabled() bool
	Errorf(format string, params ...interface{})
	ErrorEnabled() bool
	SetLevel(level LogLevel)
	Sync()
}

var (
	logger     Logger = NewZapLogger(&LogConfig{Env: EnvDevelopment})
	loggerLock sync.RWMutex
	loggerInit bool
)

func currentLogger() Logger {
	loggerLock.RLock()
	defer loggerLock.RUnlock()
	return logger
}

// initLogger 使用配置初始化全局的logger,只能初始化一次
func initLogger(conf *LogConfig) error {
	if conf == nil {
		return nil
	}
	loggerLock.Lock()
	defer loggerLock.Unlock()
	if loggerInit {
		logger.Warnf("logger has been already inited,skip")
		return nil
	}
	fmt.Fprintf(os.Stderr, "init logger,env:%s,level:%s,file:%s\n", conf.Env, conf.Level, conf.FileName)
	logger.Sync()
	logger = NewZapLogger(conf)
	loggerInit = true
	return nil
}

// SetLogger 替换全局的logger,返回之前的logger;l为nil时不替换
func SetLogger(l Logger) Logger {
	loggerLock.Lock()
	defer loggerLock.Unlock()
	prev := logger
	if l != nil {
		logger = l
	}
	return prev
}

// SetLogLevel 设置日志级别,无效的级别会被忽略
func SetLogLevel(level LogLevel) {
	currentLogger().SetLevel(level)
}

// Debugf debug
func Debugf(format string, params ...interface{}) {
	currentLogger().Debugf(format, params...)
}

// DebugEnabled debug是否开启
func DebugEnabled() bool {
	return currentLogger().DebugEnabled()
}

// Infof info
func Infof(format string, params ...interface{}) {
	currentLogger().Infof(format, params...)
}

// InfoEnabled info是否开启
func InfoEnabled() bool {
	return currentLogger().InfoEnabled()
}

// Warnf warn
func Warnf(format string, params ...interface{}) {
	currentLogger().Warnf(format, params...)
}

// WarnEnabled warn是否开启
func WarnEnabled() bool {
	return currentLogger().WarnEnabled()
}

// Errorf error
func Errorf(format string, params ...interface{}) {
	currentLogger().Errorf(format, params...)
}

// ErrorEnabled error是否开启
func ErrorEnabled() bool {
	return currentLogger().ErrorEnabled()
}

// SyncLog 刷新日志缓冲
func SyncLog() {
	currentLogger().Sync()
}
