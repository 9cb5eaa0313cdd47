// Package logger provides the leveled diagnostic logger used across the bridge.
// All output goes to the diagnostic stream; stdout is reserved for the result line.
package logger

import (
	"fmt"
	"io"
	"log"
	"strings"
)

// Prefix is prepended to every diagnostic line.
const Prefix = "[Charlotte] "

// Logger is the logging interface used by the bridge components.
type Logger interface {
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
	Debug(msg string, keysAndValues ...any)
}

// SimpleLogger writes leveled lines through the standard log package.
type SimpleLogger struct {
	out   *log.Logger
	debug bool
}

// New returns a Logger writing to w. Debug lines are dropped unless debug is set.
func New(w io.Writer, debug bool) *SimpleLogger {
	return &SimpleLogger{
		out:   log.New(w, Prefix, log.Ldate|log.Ltime),
		debug: debug,
	}
}

// Discard returns a Logger that drops everything.
func Discard() *SimpleLogger {
	return New(io.Discard, false)
}

func (l *SimpleLogger) Info(msg string, keysAndValues ...any) {
	l.print("INFO", msg, keysAndValues)
}

func (l *SimpleLogger) Warn(msg string, keysAndValues ...any) {
	l.print("WARN", msg, keysAndValues)
}

func (l *SimpleLogger) Error(msg string, keysAndValues ...any) {
	l.print("ERROR", msg, keysAndValues)
}

func (l *SimpleLogger) Debug(msg string, keysAndValues ...any) {
	if !l.debug {
		return
	}
	l.print("DEBUG", msg, keysAndValues)
}

func (l *SimpleLogger) print(level, msg string, kv []any) {
	l.out.Print(level + ": " + msg + formatPairs(kv))
}

// formatPairs renders key/value pairs as " k=v k2=v2". A trailing key without
// a value is rendered as "k=(missing)".
func formatPairs(kv []any) string {
	if len(kv) == 0 {
		return ""
	}
	var b strings.Builder
	for i := 0; i < len(kv); i += 2 {
		b.WriteByte(' ')
		b.WriteString(fmt.Sprint(kv[i]))
		b.WriteByte('=')
		if i+1 < len(kv) {
			fmt.Fprintf(&b, "%v", kv[i+1])
		} else {
			b.WriteString("(missing)")
		}
	}
	return b.String()
}
