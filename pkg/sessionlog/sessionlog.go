// Package sessionlog persists voice session transcripts as an
// append-only JSONL file. Each line is one utterance with the session
// it belongs to, so a conversation can be reconstructed across both
// directions (recognized user speech and synthesized replies).
package sessionlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Roles recorded in the transcript.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Record is one transcript line.
type Record struct {
	SessionID string `json:"sessionId"`
	Timestamp int64  `json:"ts"` // unix milliseconds
	Role      string `json:"role"`
	Text      string `json:"text"`
	Source    string `json:"source,omitempty"`
}

// Log appends transcript records to a JSONL file. Safe for concurrent
// use within one process; the file is opened per append so external
// rotation is harmless.
type Log struct {
	mu   sync.Mutex
	path string
}

// Open returns a log backed by path. The file and its parent directory
// are created on first append.
func Open(path string) *Log {
	return &Log{path: path}
}

// Path returns the backing file path.
func (l *Log) Path() string {
	return l.path
}

// NewSessionID returns a fresh session identifier.
func NewSessionID() string {
	return uuid.New().String()
}

// Append writes one record. Records with empty text are silently
// dropped; a transcript of blanks helps nobody.
func (l *Log) Append(sessionID, role, text, source string) error {
	if text == "" {
		return nil
	}
	rec := Record{
		SessionID: sessionID,
		Timestamp: time.Now().UnixMilli(),
		Role:      role,
		Text:      text,
		Source:    source,
	}
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal transcript record: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create transcript dir: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open transcript log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append transcript record: %w", err)
	}
	return nil
}

// Records reads the whole transcript back in file order. A missing file
// is an empty transcript. Unparsable lines are skipped rather than
// failing the read; a partially written trailing line must not make the
// history unreadable.
func (l *Log) Records() ([]Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open transcript log: %w", err)
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read transcript log: %w", err)
	}
	return records, nil
}

// Session filters the transcript down to one session id.
func (l *Log) Session(sessionID string) ([]Record, error) {
	all, err := l.Records()
	if err != nil {
		return nil, err
	}
	var records []Record
	for _, rec := range all {
		if rec.SessionID == sessionID {
			records = append(records, rec)
		}
	}
	return records, nil
}
