package logsvc

import (
	"sync"

	"github.com/trezcool/coursework/core"
)

// Entry is one call recorded by a RecordingLogger.
type Entry struct {
	Level string
	Msg   string
	Args  []interface{}
}

// RecordingLogger keeps entries in memory instead of printing them. Fatal does not exit.
type RecordingLogger struct {
	mu      sync.Mutex
	entries []Entry
}

var _ core.Logger = (*RecordingLogger)(nil)

func NewRecordingLogger() *RecordingLogger {
	return &RecordingLogger{}
}

func (l *RecordingLogger) record(level, msg string, args []interface{}) {
	l.mu.Lock()
	l.entries = append(l.entries, Entry{Level: level, Msg: msg, Args: args})
	l.mu.Unlock()
}

// Entries returns the recorded entries of the given level (all of them if level is "").
func (l *RecordingLogger) Entries(level string) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Entry, 0, len(l.entries))
	for _, e := range l.entries {
		if level == "" || e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

func (l *RecordingLogger) Debug(msg string, args ...interface{}) { l.record("DEBUG", msg, args) }
func (l *RecordingLogger) Info(msg string, args ...interface{})  { l.record("INFO", msg, args) }
func (l *RecordingLogger) Warn(msg string, args ...interface{})  { l.record("WARN", msg, args) }
func (l *RecordingLogger) Error(msg string, args ...interface{}) { l.record("ERROR", msg, args) }
func (l *RecordingLogger) Fatal(msg string, args ...interface{}) { l.record("FATAL", msg, args) }
