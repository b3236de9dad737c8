package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
)

var (
	debugTag = color.New(color.FgHiBlack).SprintFunc()
	warnTag  = color.New(color.FgYellow).SprintFunc()
	errorTag = color.New(color.FgRed, color.Bold).SprintFunc()
)

// Logger writes leveled printf-style messages to stdout and, optionally, a log file.
// It is safe for concurrent use by pipeline workers.
type Logger struct {
	Verbose bool
	writer  io.Writer
	errOut  io.Writer
	mu      sync.Mutex
	fileLog *os.File
	hasBar  bool
}

// New creates a Logger writing to stdout/stderr.
func New(verbose bool) *Logger {
	return &Logger{
		Verbose: verbose,
		writer:  os.Stdout,
		errOut:  os.Stderr,
	}
}

// NewWithWriter creates a Logger that sends every level to w, uncolored.
func NewWithWriter(w io.Writer, verbose bool) *Logger {
	return &Logger{
		Verbose: verbose,
		writer:  w,
		errOut:  w,
	}
}

// SetFileLog enables logging to a file
func (l *Logger) SetFileLog(path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	l.fileLog = f
	return nil
}

// SetProgressBar indicates that a progress bar owns the terminal
func (l *Logger) SetProgressBar(active bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hasBar = active
}

// Close closes the log file if open
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fileLog != nil {
		err := l.fileLog.Close()
		l.fileLog = nil
		return err
	}
	return nil
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.log("INFO", format, args...)
}

// Debug logs only in verbose mode; the file log always receives it.
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.Verbose {
		l.log("DEBUG", format, args...)
	} else {
		l.logToFile("DEBUG", format, args...)
	}
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.log("WARN", format, args...)
}

// Error logs to stderr regardless of verbosity or progress bar.
func (l *Logger) Error(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	body := fmt.Sprintf(format, args...)
	fmt.Fprintf(l.errOut, "%s %s\n", l.tag("ERROR"), body)

	if l.fileLog != nil {
		fmt.Fprintf(l.fileLog, "[ERROR] %s\n", body)
	}
}

func (l *Logger) log(level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	body := fmt.Sprintf(format, args...)

	if l.Verbose || !l.hasBar {
		if level == "INFO" {
			fmt.Fprintln(l.writer, body)
		} else {
			fmt.Fprintf(l.writer, "%s %s\n", l.tag(level), body)
		}
	}

	if l.fileLog != nil {
		if level == "INFO" {
			fmt.Fprintln(l.fileLog, body)
		} else {
			fmt.Fprintf(l.fileLog, "[%s] %s\n", level, body)
		}
	}
}

func (l *Logger) logToFile(level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fileLog != nil {
		fmt.Fprintf(l.fileLog, "["+level+"] "+format+"\n", args...)
	}
}

// tag renders the level marker, colored only when writing to the real terminal.
func (l *Logger) tag(level string) string {
	plain := "[" + level + "]"
	if l.writer != os.Stdout && l.errOut != os.Stderr {
		return plain
	}
	switch level {
	case "DEBUG":
		return debugTag(plain)
	case "WARN":
		return warnTag(plain)
	case "ERROR":
		return errorTag(plain)
	}
	return plain
}
