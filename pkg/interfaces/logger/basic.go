package logger

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// BasicLogger prints log lines to stdout using fmt.Printf. It is meant for
// examples and local development; hosts embed their own logger in production.
type BasicLogger struct {
	mu     *sync.Mutex
	fields []Field
}

var _ Logger = (*BasicLogger)(nil)

// New returns a basic logger that writes to stdout.
func New() *BasicLogger {
	return &BasicLogger{mu: &sync.Mutex{}}
}

// With returns a logger that includes the fields on every line.
func (l *BasicLogger) With(fields ...Field) Logger {
	if len(fields) == 0 {
		return l
	}
	next := &BasicLogger{mu: l.mu}
	next.fields = append(next.fields, l.fields...)
	next.fields = append(next.fields, fields...)
	return next
}

func (l *BasicLogger) Debug(msg string, fields ...Field) { l.log("DEBUG", msg, fields...) }
func (l *BasicLogger) Info(msg string, fields ...Field)  { l.log("INFO", msg, fields...) }
func (l *BasicLogger) Warn(msg string, fields ...Field)  { l.log("WARN", msg, fields...) }
func (l *BasicLogger) Error(msg string, fields ...Field) { l.log("ERROR", msg, fields...) }

func (l *BasicLogger) log(level, msg string, fields ...Field) {
	line := fmt.Sprintf("[%s] %s", level, msg)
	if rendered := formatFields(append(l.fields, fields...)); rendered != "" {
		line += " " + rendered
	}
	l.mu.Lock()
	fmt.Printf("%s\n", line)
	l.mu.Unlock()
}

func formatFields(fields []Field) string {
	if len(fields) == 0 {
		return ""
	}
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s=%v", f.Key, f.Value))
	}
	sort.Strings(parts)
	return strings.Join(parts, " ")
}
