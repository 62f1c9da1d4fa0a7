package utils

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	logLevelDebugStringConstant          = "debug"
	logLevelInfoStringConstant           = "info"
	logLevelWarnStringConstant           = "warn"
	logLevelErrorStringConstant          = "error"
	logFormatStructuredStringConstant    = "structured"
	logFormatConsoleStringConstant       = "console"
	unsupportedLogLevelTemplateConstant  = "unsupported log level: %s"
	unsupportedLogFormatTemplateConstant = "unsupported log format: %s"
	consoleMessageKeyConstant            = "message"
	logFileMaximumSizeMegabytesConstant  = 10
	logFileMaximumBackupsConstant        = 3
	logFileMaximumAgeDaysConstant        = 28
)

// LogLevel enumerates supported logging granularities.
type LogLevel string

// Exported log level constants for reuse across packages.
const (
	LogLevelDebug LogLevel = LogLevel(logLevelDebugStringConstant)
	LogLevelInfo  LogLevel = LogLevel(logLevelInfoStringConstant)
	LogLevelWarn  LogLevel = LogLevel(logLevelWarnStringConstant)
	LogLevelError LogLevel = LogLevel(logLevelErrorStringConstant)
)

// LogFormat enumerates supported logger output encodings.
type LogFormat string

// Exported log format constants for reuse across packages.
const (
	LogFormatStructured LogFormat = LogFormat(logFormatStructuredStringConstant)
	LogFormatConsole    LogFormat = LogFormat(logFormatConsoleStringConstant)
)

// LoggerOutputs groups the loggers the CLI writes to.
type LoggerOutputs struct {
	// DiagnosticLogger receives structured diagnostics at the configured level.
	DiagnosticLogger *zap.Logger
	// ConsoleLogger prints bare human-readable progress lines.
	ConsoleLogger *zap.Logger
}

// LoggerFactory builds zap.Logger instances with consistent configuration.
type LoggerFactory struct {
	destination io.Writer
}

var logLevelMapping = map[LogLevel]zapcore.Level{
	LogLevelDebug: zapcore.DebugLevel,
	LogLevelInfo:  zapcore.InfoLevel,
	LogLevelWarn:  zapcore.WarnLevel,
	LogLevelError: zapcore.ErrorLevel,
}

// NewLoggerFactory constructs a logger factory writing to standard error.
func NewLoggerFactory() *LoggerFactory {
	return NewLoggerFactoryWithWriter(os.Stderr)
}

// NewLoggerFactoryWithWriter constructs a logger factory writing to destination.
func NewLoggerFactoryWithWriter(destination io.Writer) *LoggerFactory {
	if destination == nil {
		destination = os.Stderr
	}
	return &LoggerFactory{destination: destination}
}

// CreateLoggerOutputs produces the diagnostic and console loggers. A non-empty logFilePath
// additionally tees diagnostics as JSON into a rotating file.
func (factory *LoggerFactory) CreateLoggerOutputs(requestedLogLevel LogLevel, requestedLogFormat LogFormat, logFilePath string) (LoggerOutputs, error) {
	zapLogLevel, levelExists := logLevelMapping[LogLevel(strings.ToLower(strings.TrimSpace(string(requestedLogLevel))))]
	if !levelExists {
		return LoggerOutputs{}, fmt.Errorf(unsupportedLogLevelTemplateConstant, requestedLogLevel)
	}

	diagnosticEncoder, encoderError := factory.diagnosticEncoder(requestedLogFormat)
	if encoderError != nil {
		return LoggerOutputs{}, encoderError
	}

	destination := factory.destination
	if destination == nil {
		destination = os.Stderr
	}
	standardError := zapcore.Lock(zapcore.AddSync(NewFlushingWriter(destination)))
	diagnosticCores := []zapcore.Core{zapcore.NewCore(diagnosticEncoder, standardError, zapLogLevel)}

	trimmedLogFilePath := strings.TrimSpace(logFilePath)
	if len(trimmedLogFilePath) > 0 {
		rotatingFile := &lumberjack.Logger{
			Filename:   trimmedLogFilePath,
			MaxSize:    logFileMaximumSizeMegabytesConstant,
			MaxBackups: logFileMaximumBackupsConstant,
			MaxAge:     logFileMaximumAgeDaysConstant,
		}
		fileEncoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		diagnosticCores = append(diagnosticCores, zapcore.NewCore(fileEncoder, zapcore.AddSync(rotatingFile), zapLogLevel))
	}

	consoleEncoder := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		MessageKey: consoleMessageKeyConstant,
		LineEnding: zapcore.DefaultLineEnding,
	})

	return LoggerOutputs{
		DiagnosticLogger: zap.New(zapcore.NewTee(diagnosticCores...)),
		ConsoleLogger:    zap.New(zapcore.NewCore(consoleEncoder, standardError, zapcore.InfoLevel)),
	}, nil
}

func (factory *LoggerFactory) diagnosticEncoder(requestedLogFormat LogFormat) (zapcore.Encoder, error) {
	encoderConfiguration := zap.NewProductionEncoderConfig()
	switch LogFormat(strings.ToLower(strings.TrimSpace(string(requestedLogFormat)))) {
	case LogFormatStructured:
		return zapcore.NewJSONEncoder(encoderConfiguration), nil
	case LogFormatConsole:
		encoderConfiguration.EncodeTime = zapcore.ISO8601TimeEncoder
		encoderConfiguration.EncodeLevel = zapcore.CapitalLevelEncoder
		return zapcore.NewConsoleEncoder(encoderConfiguration), nil
	default:
		return nil, fmt.Errorf(unsupportedLogFormatTemplateConstant, requestedLogFormat)
	}
}
