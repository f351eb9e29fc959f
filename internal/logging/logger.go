package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"
)

const timestampLayout = "2006-01-02 15:04:05,000"

// Logger writes timestamped, leveled lines like
// "2024-05-01 12:00:00,000 - INFO - message".
type Logger struct {
	out    *log.Logger
	closer io.Closer
	now    func() time.Time
}

// New returns a Logger writing to w.
func New(w io.Writer) *Logger {
	return &Logger{
		out: log.New(w, "", 0),
		now: time.Now,
	}
}

// Open returns a Logger appending to the file at path and mirroring every
// line to console.
func Open(path string, console io.Writer) (*Logger, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}

	logger := New(io.MultiWriter(file, console))
	logger.closer = file
	return logger, nil
}

func (l *Logger) Infof(format string, args ...any) {
	l.write("INFO", format, args...)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.write("WARNING", format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.write("ERROR", format, args...)
}

// Close releases the log file, if any.
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

func (l *Logger) write(level, format string, args ...any) {
	l.out.Printf("%s - %s - %s", l.now().Format(timestampLayout), level, fmt.Sprintf(format, args...))
}
