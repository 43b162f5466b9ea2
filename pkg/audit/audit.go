// Package audit is the append-only commit-log expansion SPEC_FULL.md §2
// adds around pkg/txn: one structured line per Transaction.Commit outcome,
// independent of the error values Commit itself already returns to its
// caller, so a separate reader can answer "what happened to this graph
// over time" without replaying pkg/persist's full commit log.
//
// Grounded on the teacher's pkg/audit/audit.go Logger: an append-only,
// newline-delimited JSON log with thread-safe writes and optional fsync,
// trimmed to this domain's two outcomes and stripped of the teacher's
// GDPR/HIPAA/SOC2 actor and compliance fields — this container has no
// users, requests, or IP addresses to record.
package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Outcome classifies one logged commit attempt.
type Outcome string

const (
	// OutcomeCommitted records a commit that reached phase 8 and applied.
	OutcomeCommitted Outcome = "COMMITTED"

	// OutcomeRejected records a commit that failed validation in phases
	// 1-7 and left the graph unchanged.
	OutcomeRejected Outcome = "REJECTED"
)

// Event is one immutable audit log entry.
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Outcome   Outcome   `json:"outcome"`

	// Puts and Deletes count the nodes a committed transaction applied.
	// Both are zero for a rejected commit.
	Puts    int `json:"puts,omitempty"`
	Deletes int `json:"deletes,omitempty"`

	// Reason carries the rejecting error's message for a REJECTED event.
	Reason string `json:"reason,omitempty"`
}

// Config holds audit logger configuration.
type Config struct {
	// Enabled controls whether audit logging is active. A disabled
	// Logger's Log calls are no-ops.
	Enabled bool

	// LogPath is the path to the audit log file.
	LogPath string

	// SyncWrites forces fsync after each write.
	SyncWrites bool
}

// DefaultConfig returns sensible defaults for audit logging.
func DefaultConfig() Config {
	return Config{
		Enabled:    true,
		LogPath:    "./cairn-audit.log",
		SyncWrites: true,
	}
}

// Logger appends Events to an audit log file. The zero value is not
// usable; construct with NewLogger or NewLoggerWithWriter.
type Logger struct {
	mu       sync.Mutex
	writer   io.Writer
	file     *os.File
	config   Config
	sequence uint64
	closed   bool
}

// NewLogger opens (creating if absent) the audit log named by
// config.LogPath for appending.
func NewLogger(config Config) (*Logger, error) {
	if !config.Enabled {
		return &Logger{config: config}, nil
	}

	dir := filepath.Dir(config.LogPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("audit: create log directory: %w", err)
	}

	file, err := os.OpenFile(config.LogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, fmt.Errorf("audit: open log file: %w", err)
	}

	return &Logger{writer: file, file: file, config: config}, nil
}

// NewLoggerWithWriter builds a Logger around an arbitrary writer, for
// tests that want to inspect what gets logged without touching disk.
func NewLoggerWithWriter(writer io.Writer, config Config) *Logger {
	config.Enabled = true
	return &Logger{writer: writer, config: config}
}

// Log appends event to the audit trail, assigning a Timestamp and ID if
// unset. A disabled Logger silently drops the event.
func (l *Logger) Log(event Event) error {
	if !l.config.Enabled {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return fmt.Errorf("audit: logger is closed")
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.ID == "" {
		l.sequence++
		event.ID = fmt.Sprintf("audit-%d-%d", event.Timestamp.UnixNano(), l.sequence)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("audit: marshal event: %w", err)
	}

	if _, err := l.writer.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("audit: write event: %w", err)
	}

	if l.config.SyncWrites && l.file != nil {
		if err := l.file.Sync(); err != nil {
			return fmt.Errorf("audit: sync log: %w", err)
		}
	}
	return nil
}

// LogCommit records a successful commit that applied puts and deletes
// nodes.
func (l *Logger) LogCommit(puts, deletes int) error {
	return l.Log(Event{Outcome: OutcomeCommitted, Puts: puts, Deletes: deletes})
}

// LogRejection records a commit that failed validation, carrying the
// rejecting error's message.
func (l *Logger) LogRejection(err error) error {
	reason := ""
	if err != nil {
		reason = err.Error()
	}
	return l.Log(Event{Outcome: OutcomeRejected, Reason: reason})
}

// Close releases the underlying log file, if any.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// Reader replays a previously written audit log for inspection.
type Reader struct {
	path string
}

// NewReader opens an audit log at path for reading.
func NewReader(path string) *Reader {
	return &Reader{path: path}
}

// ReadAll returns every Event in the log, in the order they were written.
func (r *Reader) ReadAll() ([]Event, error) {
	file, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("audit: open log for reading: %w", err)
	}
	defer file.Close()

	var events []Event
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var event Event
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			return nil, fmt.Errorf("audit: unmarshal event: %w", err)
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("audit: scan log: %w", err)
	}
	return events, nil
}

// CountOutcome returns how many logged events have the given outcome.
func (r *Reader) CountOutcome(outcome Outcome) (int, error) {
	events, err := r.ReadAll()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range events {
		if e.Outcome == outcome {
			n++
		}
	}
	return n, nil
}
