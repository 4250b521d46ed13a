package runlog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

const SystemAccount = "system"

type Entry struct {
	Level   Level
	Account string
	Message string
	At      time.Time
	Seq     uint64
}

// Line renders e the way the run log is printed and delivered.
func (e Entry) Line() string {
	prefix := map[Level]string{
		LevelInfo:    "[INFO]",
		LevelSuccess: "[SUCCESS]",
		LevelWarning: "[WARNING]",
		LevelError:   "[ERROR]",
	}[e.Level]
	if prefix == "" {
		prefix = "[INFO]"
	}
	return fmt.Sprintf("%s %s %s - %s", prefix, e.At.Format(time.DateTime), e.Account, e.Message)
}

// Logger appends to a buffer shared with every logger derived from the same
// root, and forwards each entry to slog.
type Logger struct {
	account string
	buffer  *buffer
	sink    *slog.Logger
	now     func() time.Time
}

type buffer struct {
	mu      sync.Mutex
	entries []Entry
	seq     uint64
}

type Option func(*Logger)

func WithClock(now func() time.Time) Option {
	return func(l *Logger) {
		if now != nil {
			l.now = now
		}
	}
}

// New creates a root logger. A nil sink only buffers.
func New(sink *slog.Logger, opts ...Option) *Logger {
	logger := &Logger{
		account: SystemAccount,
		buffer:  &buffer{},
		sink:    sink,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(logger)
	}
	return logger
}

// For returns a logger that tags entries with account and shares l's buffer.
func (l *Logger) For(account string) *Logger {
	if account == "" {
		account = SystemAccount
	}
	return &Logger{
		account: account,
		buffer:  l.buffer,
		sink:    l.sink,
		now:     l.now,
	}
}

func (l *Logger) Account() string {
	return l.account
}

func (l *Logger) Info(message string, attrs ...slog.Attr) {
	l.append(LevelInfo, message, attrs...)
}

func (l *Logger) Success(message string, attrs ...slog.Attr) {
	l.append(LevelSuccess, message, attrs...)
}

func (l *Logger) Warn(message string, attrs ...slog.Attr) {
	l.append(LevelWarning, message, attrs...)
}

func (l *Logger) Error(message string, attrs ...slog.Attr) {
	l.append(LevelError, message, attrs...)
}

func (l *Logger) Infof(format string, args ...any) {
	l.append(LevelInfo, fmt.Sprintf(format, args...))
}

func (l *Logger) Successf(format string, args ...any) {
	l.append(LevelSuccess, fmt.Sprintf(format, args...))
}

func (l *Logger) Warnf(format string, args ...any) {
	l.append(LevelWarning, fmt.Sprintf(format, args...))
}

func (l *Logger) Errorf(format string, args ...any) {
	l.append(LevelError, fmt.Sprintf(format, args...))
}

// Entries returns a copy of everything logged so far, in order.
func (l *Logger) Entries() []Entry {
	l.buffer.mu.Lock()
	defer l.buffer.mu.Unlock()
	entries := make([]Entry, len(l.buffer.entries))
	copy(entries, l.buffer.entries)
	return entries
}

func (l *Logger) Lines() []string {
	entries := l.Entries()
	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		lines = append(lines, entry.Line())
	}
	return lines
}

func (l *Logger) append(level Level, message string, attrs ...slog.Attr) {
	l.buffer.mu.Lock()
	l.buffer.seq++
	entry := Entry{
		Level:   level,
		Account: l.account,
		Message: message,
		At:      l.now(),
		Seq:     l.buffer.seq,
	}
	l.buffer.entries = append(l.buffer.entries, entry)
	l.buffer.mu.Unlock()

	if l.sink == nil {
		return
	}
	args := make([]any, 0, len(attrs)+1)
	args = append(args, slog.String("account", l.account))
	for _, attr := range attrs {
		args = append(args, attr)
	}
	l.sink.Log(context.Background(), slogLevel(level), message, args...)
}

func slogLevel(level Level) slog.Level {
	switch level {
	case LevelWarning:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
