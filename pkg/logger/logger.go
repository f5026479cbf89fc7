package logger

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// LogLevel represents log level
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

const (
	// MaxLogFileSize maximum log file size in bytes (10MB)
	MaxLogFileSize = 10 * 1024 * 1024
)

// Record is a log line handed to appenders after level filtering
type Record struct {
	Context context.Context
	Logger  string
	Level   LogLevel
	Message string
	Time    time.Time
}

// Appender receives every record a logger writes
type Appender interface {
	Append(rec Record)
}

// AppenderFunc adapts a function to the Appender interface
type AppenderFunc func(rec Record)

// Append calls f(rec)
func (f AppenderFunc) Append(rec Record) {
	f(rec)
}

// output is the file/stdout sink shared by a logger and all of its named children
type output struct {
	mu       sync.Mutex
	file     *os.File
	logger   *log.Logger
	level    LogLevel
	logFile  string
	fileSize int64
}

// Logger represents a logger instance
type Logger struct {
	out       *output
	name      string
	appenders []Appender
}

// NewLogger creates a new logger instance
func NewLogger(logFile, level string) (*Logger, error) {
	// Parse log level
	logLevel, err := ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %s", level)
	}

	// Create log directory
	logDir := filepath.Dir(logFile)
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	// Get current file size
	fileInfo, err := os.Stat(logFile)
	var currentSize int64 = 0
	if err == nil {
		currentSize = fileInfo.Size()
		// If file is too large, truncate it
		if currentSize > MaxLogFileSize {
			file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
			if err != nil {
				return nil, fmt.Errorf("failed to truncate log file: %w", err)
			}
			file.Close()
			currentSize = 0
		}
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	// Create logger that outputs to both file and stdout
	multiWriter := io.MultiWriter(file, os.Stdout)

	return &Logger{
		out: &output{
			file:     file,
			logger:   log.New(multiWriter, "", 0), // No default prefix, we format ourselves
			level:    logLevel,
			logFile:  logFile,
			fileSize: currentSize,
		},
	}, nil
}

// ParseLevel parses log level string
func ParseLevel(level string) (LogLevel, error) {
	switch strings.ToLower(level) {
	case "debug":
		return DEBUG, nil
	case "info":
		return INFO, nil
	case "warn", "warning":
		return WARN, nil
	case "error":
		return ERROR, nil
	default:
		return INFO, fmt.Errorf("unknown log level: %s", level)
	}
}

// String returns string representation of log level
func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Named returns a logger with the given name that shares output and level
// with l. Appenders are not inherited.
func (l *Logger) Named(name string) *Logger {
	return &Logger{out: l.out, name: name}
}

// WithAppender returns a copy of l that also forwards records to a
func (l *Logger) WithAppender(a Appender) *Logger {
	appenders := make([]Appender, 0, len(l.appenders)+1)
	appenders = append(appenders, l.appenders...)
	appenders = append(appenders, a)
	return &Logger{out: l.out, name: l.name, appenders: appenders}
}

// Name returns the logger name, empty for the root logger
func (l *Logger) Name() string {
	return l.name
}

// log writes a log message
func (l *Logger) log(ctx context.Context, level LogLevel, message string) {
	if level < l.out.level {
		return
	}

	now := time.Now()

	var logMessage string
	if l.name != "" {
		logMessage = fmt.Sprintf("[%s] [%s] [%s] %s", now.Format("2006-01-02 15:04:05"), level.String(), l.name, message)
	} else {
		logMessage = fmt.Sprintf("[%s] [%s] %s", now.Format("2006-01-02 15:04:05"), level.String(), message)
	}

	l.out.write(logMessage)

	if len(l.appenders) == 0 {
		return
	}
	rec := Record{Context: ctx, Logger: l.name, Level: level, Message: message, Time: now}
	for _, a := range l.appenders {
		a.Append(rec)
	}
}

func (o *output) write(logMessage string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	// Check file size before writing
	messageSize := int64(len(logMessage) + 1) // +1 for newline
	if o.fileSize+messageSize > MaxLogFileSize {
		o.truncateLogFile()
	}

	o.logger.Println(logMessage)
	o.fileSize += messageSize
}

// truncateLogFile truncates the log file when it becomes too large
func (o *output) truncateLogFile() {
	if o.file != nil {
		o.file.Close()
	}

	file, err := os.OpenFile(o.logFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		// If we can't truncate, just continue with the old file
		return
	}

	multiWriter := io.MultiWriter(file, os.Stdout)
	o.logger = log.New(multiWriter, "", 0)
	o.file = file
	o.fileSize = 0

	truncateMsg := fmt.Sprintf("[%s] [INFO] Log file truncated due to size limit (%d bytes)",
		time.Now().Format("2006-01-02 15:04:05"), MaxLogFileSize)
	o.logger.Println(truncateMsg)
	o.fileSize = int64(len(truncateMsg) + 1)
}

// Debug logs a debug level message
func (l *Logger) Debug(message string) {
	l.log(context.Background(), DEBUG, message)
}

// Info logs an info level message
func (l *Logger) Info(message string) {
	l.log(context.Background(), INFO, message)
}

// Warn logs a warning level message
func (l *Logger) Warn(message string) {
	l.log(context.Background(), WARN, message)
}

// Error logs an error level message
func (l *Logger) Error(message string) {
	l.log(context.Background(), ERROR, message)
}

// Debugf logs a formatted debug level message
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.Debug(fmt.Sprintf(format, args...))
}

// Infof logs a formatted info level message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

// Warnf logs a formatted warning level message
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.Warn(fmt.Sprintf(format, args...))
}

// Errorf logs a formatted error level message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Error(fmt.Sprintf(format, args...))
}

// DebugContext logs a debug message, resolving {} placeholders from args.
// ctx is passed on to appenders.
func (l *Logger) DebugContext(ctx context.Context, format string, args ...interface{}) {
	l.log(ctx, DEBUG, Substitute(format, args...))
}

// InfoContext logs an info message, resolving {} placeholders from args
func (l *Logger) InfoContext(ctx context.Context, format string, args ...interface{}) {
	l.log(ctx, INFO, Substitute(format, args...))
}

// WarnContext logs a warning message, resolving {} placeholders from args
func (l *Logger) WarnContext(ctx context.Context, format string, args ...interface{}) {
	l.log(ctx, WARN, Substitute(format, args...))
}

// ErrorContext logs an error message, resolving {} placeholders from args
func (l *Logger) ErrorContext(ctx context.Context, format string, args ...interface{}) {
	l.log(ctx, ERROR, Substitute(format, args...))
}

// Substitute replaces each {} in format with the next argument, in order.
// Placeholders without a matching argument are kept as is; extra arguments
// are dropped.
func Substitute(format string, args ...interface{}) string {
	if len(args) == 0 || !strings.Contains(format, "{}") {
		return format
	}

	var b strings.Builder
	b.Grow(len(format))
	rest := format
	for _, arg := range args {
		i := strings.Index(rest, "{}")
		if i < 0 {
			break
		}
		b.WriteString(rest[:i])
		b.WriteString(fmt.Sprint(arg))
		rest = rest[i+2:]
	}
	b.WriteString(rest)
	return b.String()
}

// Sync flushes the buffer
func (l *Logger) Sync() {
	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	if l.out.file != nil {
		l.out.file.Sync()
	}
}

// Close closes the logger
func (l *Logger) Close() {
	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	if l.out.file != nil {
		l.out.file.Close()
		l.out.file = nil
	}
}
