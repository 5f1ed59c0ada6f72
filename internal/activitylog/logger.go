// Package activitylog writes one JSON object per line to a log file,
// modeled on the teacher's internal/activitylog.Logger: each entry carries
// an actor tag and a level, plus whatever fields the call site supplies.
package activitylog

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// Logger appends JSON-lines entries to a file. It satisfies
// pbxterm.Logger's Debugf/Infof/Warnf/Errorf surface.
type Logger struct {
	actor string

	mu   sync.Mutex
	file *os.File
}

// New opens (creating if necessary) the log file at path. actor tags every
// entry written through this Logger, e.g. the configured PBX name.
func New(path, actor string) (*Logger, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open activity log %s: %w", path, err)
	}
	return &Logger{actor: actor, file: f}, nil
}

// Close closes the underlying file.
func (l *Logger) Close() error {
	return l.file.Close()
}

type entry struct {
	Time    string `json:"time"`
	Actor   string `json:"actor"`
	Level   string `json:"level"`
	Message string `json:"message"`
}

func (l *Logger) write(level, format string, args ...any) {
	e := entry{
		Time:    time.Now().UTC().Format(time.RFC3339Nano),
		Actor:   l.actor,
		Level:   level,
		Message: fmt.Sprintf(format, args...),
	}
	line, err := json.Marshal(e)
	if err != nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.file.Write(append(line, '\n'))
}

// Debugf logs at DEBUG.
func (l *Logger) Debugf(format string, args ...any) { l.write("DEBUG", format, args...) }

// Infof logs at INFO.
func (l *Logger) Infof(format string, args ...any) { l.write("INFO", format, args...) }

// Warnf logs at WARN.
func (l *Logger) Warnf(format string, args ...any) { l.write("WARN", format, args...) }

// Errorf logs at ERROR.
func (l *Logger) Errorf(format string, args ...any) { l.write("ERROR", format, args...) }
