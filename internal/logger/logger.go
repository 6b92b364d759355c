package logger

import (
	"os"
	"path/filepath"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	L       *zap.Logger
	S       *zap.SugaredLogger
	logFile *os.File
)

// Init initializes the global logger.
// Logs are written to ~/.config/qnote/qnote.log; QNOTE_DEBUG=1 forces debug
// level.
func Init(debug bool) error {
	if v := os.Getenv("QNOTE_DEBUG"); v != "" && v != "0" {
		debug = true
	}
	logPath, err := getLogPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return err
	}

	logFile, err = os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(logFile),
		level,
	)

	Set(zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)))

	S.Infow("logger initialized", "path", logPath, "debug", debug, "pid", os.Getpid())
	return nil
}

// Set installs l as the global logger. Tests use it with an observer core.
func Set(l *zap.Logger) {
	L = l
	S = l.Sugar()
}

// Close flushes and closes the logger.
func Close() error {
	var err error
	if L != nil {
		err = multierr.Append(err, L.Sync())
	}
	if logFile != nil {
		err = multierr.Append(err, logFile.Close())
		logFile = nil
	}
	return err
}

// getLogPath returns the path to the log file
func getLogPath() (string, error) {
	if v := os.Getenv("QNOTE_LOG_FILE"); v != "" {
		return v, nil
	}

	if v := os.Getenv("QNOTE_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "qnote.log"), nil
	}
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "qnote", "qnote.log"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "qnote", "qnote.log"), nil
}

// Helpers are no-ops until Init has run, so packages can log from tests.

func Debug(msg string, keysAndValues ...interface{}) {
	if S != nil {
		S.Debugw(msg, keysAndValues...)
	}
}

func Info(msg string, keysAndValues ...interface{}) {
	if S != nil {
		S.Infow(msg, keysAndValues...)
	}
}

func Warn(msg string, keysAndValues ...interface{}) {
	if S != nil {
		S.Warnw(msg, keysAndValues...)
	}
}

func Error(msg string, keysAndValues ...interface{}) {
	if S != nil {
		S.Errorw(msg, keysAndValues...)
	}
}
