package common

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ZapLogger 使用zap封装的logger
type ZapLogger struct {
	level  zap.AtomicLevel
	logger *zap.SugaredLogger
}

// Debugf debug
func (l *ZapLogger) Debugf(format string, params ...interface{}) {
	l.logger.Debugf(format, params...)
}

// DebugEnabled is debug enabled
func (l *ZapLogger) DebugEnabled() bool {
	return l.level.Enabled(zap.DebugLevel)
}

// Infof info
func (l *ZapLogger) Infof(format string, params ...interface{}) {
	l.logger.Infof(format, params...)
}

// InfoEnabled is info enabled
func (l *ZapLogger) InfoEnabled() bool {
	return l.level.Enabled(zap.InfoLevel)
}

// Warnf warn
func (l *ZapLogger) Warnf(format string, params ...interface{}) {
	l.logger.Warnf(format, params...)
}

// WarnEnabled is warn enabled
func (l *ZapLogger) WarnEnabled() bool {
	return l.level.Enabled(zap.WarnLevel)
}

// Errorf error
func (l *ZapLogger) Errorf(format string, params ...interface{}) {
	l.logger.Errorf(format, params...)
}

// ErrorEnabled is error enabled
func (l *ZapLogger) ErrorEnabled() bool {
	return l.level.Enabled(zap.ErrorLevel)
}

// Sync impls Logger.Sync
func (l *ZapLogger) Sync() {
	_ = l.logger.Sync()
}

// SetLevel set the log level
func (l *ZapLogger) SetLevel(level LogLevel) {
	if zapl, ok := level.zapLevel(); ok {
		l.level.SetLevel(zapl)
	}
}

// NewZapLogger new zap logger
func NewZapLogger(logConfig *LogConfig) *ZapLogger {
	var out io.Writer = os.Stderr
	if logConfig.FileName != "" {
		out = &lumberjack.Logger{
			Filename:   logConfig.FileName,
			MaxSize:    logConfig.MaxSize,
			MaxBackups: logConfig.MaxBackups,
			MaxAge:     logConfig.MaxAge,
			LocalTime:  true,
		}
	}
	return newZapLogger(logConfig, zapcore.AddSync(out))
}

func newZapLogger(logConfig *LogConfig, writer zapcore.WriteSyncer) *ZapLogger {
	var encoderConfig zapcore.EncoderConfig
	var level zap.AtomicLevel

	if logConfig.Env == EnvProduction {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	} else {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	if logConfig.Level != "" {
		if zapl, ok := LogLevel(logConfig.Level).zapLevel(); ok {
			level.SetLevel(zapl)
		}
	}

	var encoder zapcore.Encoder
	if logConfig.Encoding == "json" {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	logger := zap.New(zapcore.NewCore(encoder, writer, level))
	if !logConfig.NoCaller {
		// 跳过全局函数和ZapLogger两层
		logger = logger.WithOptions(zap.AddCaller(), zap.AddCallerSkip(2))
	}
	return &ZapLogger{logger: logger.Sugar(), level: level}
}
