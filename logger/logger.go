package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogLevel represents the severity of a log message.
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

var zerologLevels = map[LogLevel]zerolog.Level{
	DEBUG: zerolog.DebugLevel,
	INFO:  zerolog.InfoLevel,
	WARN:  zerolog.WarnLevel,
	ERROR: zerolog.ErrorLevel,
	FATAL: zerolog.FatalLevel,
}

// ParseLevel maps a config string ("debug", "info", ...) to a LogLevel.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "trace":
		return DEBUG
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	case "fatal":
		return FATAL
	default:
		return INFO
	}
}

// Logger wraps a zerolog logger and the file rotator behind it.
type Logger struct {
	zl      zerolog.Logger
	rotator *lumberjack.Logger
	level   LogLevel
	mu      sync.RWMutex
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// Config describes how the logger should be initialised.
type Config struct {
	Level      LogLevel
	LogDir     string
	MaxSize    int // megabytes
	MaxAge     int // days
	MaxBackups int
	UseColor   bool
	ShowCaller bool
	Prefix     string
	Output     io.Writer // defaults to os.Stdout
}

// Initialize boots the global logger instance if it has not been created yet.
func Initialize(config Config) error {
	var err error
	once.Do(func() {
		var l *Logger
		l, err = New(config)
		if err == nil {
			defaultLogger = l
		}
	})
	return err
}

// New builds a standalone logger. Initialize should be preferred in main.
func New(config Config) (*Logger, error) {
	out := config.Output
	if out == nil {
		out = os.Stdout
	}

	console := zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    !config.UseColor,
		TimeFormat: "2006-01-02 15:04:05.000",
	}
	writers := []io.Writer{console}

	var rotator *lumberjack.Logger
	if config.LogDir != "" {
		if err := os.MkdirAll(config.LogDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory %s: %w", config.LogDir, err)
		}

		maxSize := config.MaxSize
		if maxSize <= 0 {
			maxSize = 10
		}
		rotator = &lumberjack.Logger{
			Filename:   filepath.Join(config.LogDir, "server.log"),
			MaxSize:    maxSize,
			MaxAge:     config.MaxAge,
			MaxBackups: config.MaxBackups,
		}
		writers = append(writers, rotator)
	}

	ctx := zerolog.New(io.MultiWriter(writers...)).With().Timestamp()
	if config.Prefix != "" {
		ctx = ctx.Str("component", config.Prefix)
	}
	if config.ShowCaller {
		ctx = ctx.CallerWithSkipFrameCount(4)
	}

	return &Logger{
		zl:      ctx.Logger().Level(zerologLevels[config.Level]),
		rotator: rotator,
		level:   config.Level,
	}, nil
}

// log writes the formatted entry with optional structured fields.
func (l *Logger) log(level LogLevel, fields map[string]interface{}, format string, args ...interface{}) {
	l.mu.RLock()
	enabled := level >= l.level
	zl := l.zl
	l.mu.RUnlock()
	if !enabled {
		return
	}

	var event *zerolog.Event
	switch level {
	case DEBUG:
		event = zl.Debug()
	case WARN:
		event = zl.Warn()
	case ERROR:
		event = zl.Error()
	case FATAL:
		// zerolog's Fatal exits the process after writing.
		event = zl.Fatal()
	default:
		event = zl.Info()
	}

	// Stable field order keeps the console output diffable.
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		event = event.Interface(k, fields[k])
	}

	if len(args) == 0 {
		event.Msg(format)
		return
	}
	event.Msgf(format, args...)
}

// Close flushes and closes the file rotator, if any.
func (l *Logger) Close() error {
	if l.rotator != nil {
		return l.rotator.Close()
	}
	return nil
}

// Default returns the global logger, or nil before Initialize.
func Default() *Logger {
	return defaultLogger
}

// Public helper methods for the default logger.
func Debug(format string, args ...interface{}) {
	if defaultLogger != nil {
		defaultLogger.log(DEBUG, nil, format, args...)
	}
}

func Info(format string, args ...interface{}) {
	if defaultLogger != nil {
		defaultLogger.log(INFO, nil, format, args...)
	}
}

func Warn(format string, args ...interface{}) {
	if defaultLogger != nil {
		defaultLogger.log(WARN, nil, format, args...)
	}
}

func Error(format string, args ...interface{}) {
	if defaultLogger != nil {
		defaultLogger.log(ERROR, nil, format, args...)
	}
}

func Fatal(format string, args ...interface{}) {
	if defaultLogger != nil {
		defaultLogger.log(FATAL, nil, format, args...)
	}
	fmt.Fprintf(os.Stderr, "[FATAL] "+format+"\n", args...)
	os.Exit(1)
}

// WithFields attaches structured fields to the log entry.
func WithFields(fields map[string]interface{}) *LogEntry {
	return &LogEntry{
		fields: fields,
		logger: defaultLogger,
	}
}

// LogEntry represents a structured log entry builder.
type LogEntry struct {
	fields map[string]interface{}
	logger *Logger
}

func (e *LogEntry) Debug(format string, args ...interface{}) {
	e.Log(DEBUG, format, args...)
}

func (e *LogEntry) Info(format string, args ...interface{}) {
	e.Log(INFO, format, args...)
}

func (e *LogEntry) Warn(format string, args ...interface{}) {
	e.Log(WARN, format, args...)
}

func (e *LogEntry) Error(format string, args ...interface{}) {
	e.Log(ERROR, format, args...)
}

// Log allows emitting a message with an explicit level via the entry.
func (e *LogEntry) Log(level LogLevel, format string, args ...interface{}) {
	if e.logger == nil {
		return
	}
	e.logger.log(level, e.fields, format, args...)
}

// SetLevel updates the global logging level.
func SetLevel(level LogLevel) {
	if defaultLogger != nil {
		defaultLogger.mu.Lock()
		defaultLogger.level = level
		defaultLogger.zl = defaultLogger.zl.Level(zerologLevels[level])
		defaultLogger.mu.Unlock()
	}
}
