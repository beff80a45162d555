package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Log levels supported by the logger
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

// FileName is the log file created inside the log directory.
const FileName = "poolserver.log"

// Logger provides structured logging with persistent fields.
type Logger struct {
	l      *logrus.Logger
	fields logrus.Fields
	closer *fileCloser
}

type fileCloser struct {
	mu   sync.Mutex
	file *os.File
}

// NewLogger creates a Logger writing JSON entries to {dir}/poolserver.log.
// If dir is empty, logs go to stderr.
func NewLogger(dir string, level string) (*Logger, error) {
	if dir == "" {
		return NewWithWriter(os.Stderr, level), nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(filepath.Join(dir, FileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	logger := NewWithWriter(file, level)
	logger.closer = &fileCloser{file: file}
	return logger, nil
}

// NewWithWriter creates a Logger writing JSON entries to w.
func NewWithWriter(w io.Writer, level string) *Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetLevel(parseLevel(level))

	return &Logger{l: l, fields: logrus.Fields{}}
}

// NopLogger returns a Logger that discards everything.
func NopLogger() *Logger {
	return NewWithWriter(io.Discard, LevelError)
}

// ValidLevels returns the accepted level names.
func ValidLevels() []string {
	return []string{LevelDebug, LevelInfo, LevelWarn, LevelError}
}

// ParseLevel normalizes a user-provided level. ok is false for unknown levels.
func ParseLevel(level string) (string, bool) {
	upper := strings.ToUpper(strings.TrimSpace(level))
	for _, v := range ValidLevels() {
		if v == upper {
			return v, true
		}
	}
	return LevelInfo, false
}

// Defaults to INFO if the level string is not recognized.
func parseLevel(level string) logrus.Level {
	switch strings.ToUpper(level) {
	case LevelDebug:
		return logrus.DebugLevel
	case LevelWarn:
		return logrus.WarnLevel
	case LevelError:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// SetLevel changes the level of this logger and every logger derived from
// the same root.
func (l *Logger) SetLevel(level string) {
	l.l.SetLevel(parseLevel(level))
}

// Level returns the current level name.
func (l *Logger) Level() string {
	switch l.l.GetLevel() {
	case logrus.DebugLevel, logrus.TraceLevel:
		return LevelDebug
	case logrus.WarnLevel:
		return LevelWarn
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		return LevelError
	default:
		return LevelInfo
	}
}

// With returns a child Logger that adds the key/value pairs to every entry.
func (l *Logger) With(args ...any) *Logger {
	if len(args) == 0 {
		return l
	}

	fields := make(logrus.Fields, len(l.fields)+len(args)/2)
	for k, v := range l.fields {
		fields[k] = v
	}
	addPairs(fields, args)

	return &Logger{l: l.l, fields: fields, closer: l.closer}
}

func (l *Logger) Debug(msg string, args ...any) {
	l.log(logrus.DebugLevel, msg, args)
}

func (l *Logger) Info(msg string, args ...any) {
	l.log(logrus.InfoLevel, msg, args)
}

func (l *Logger) Warn(msg string, args ...any) {
	l.log(logrus.WarnLevel, msg, args)
}

func (l *Logger) Error(msg string, args ...any) {
	l.log(logrus.ErrorLevel, msg, args)
}

func (l *Logger) log(level logrus.Level, msg string, args []any) {
	if !l.l.IsLevelEnabled(level) {
		return
	}

	fields := make(logrus.Fields, len(l.fields)+len(args)/2+1)
	for k, v := range l.fields {
		fields[k] = v
	}
	addPairs(fields, args)

	// skip log and the exported level method
	if _, file, line, ok := runtime.Caller(2); ok {
		fields["position"] = position(file, line)
	}

	l.l.WithFields(fields).Log(level, msg)
}

// position keeps the last three path elements of file.
func position(file string, line int) string {
	path := strings.Split(file, "/")
	if len(path) > 3 {
		path = path[len(path)-3:]
	}
	return fmt.Sprintf("%s:%d", strings.Join(path, "/"), line)
}

func addPairs(fields logrus.Fields, args []any) {
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		if i+1 == len(args) {
			fields["!BADKEY"] = args[i]
			return
		}

		v := args[i+1]
		if err, isErr := v.(error); isErr {
			v = err.Error()
		}
		fields[key] = v
	}
}

// Close closes the log file. It is a no-op for loggers without a file.
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}

	l.closer.mu.Lock()
	defer l.closer.mu.Unlock()

	if l.closer.file == nil {
		return nil
	}
	err := l.closer.file.Close()
	l.closer.file = nil
	return err
}
