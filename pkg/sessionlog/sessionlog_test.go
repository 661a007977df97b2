package sessionlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAppendAndRecords(t *testing.T) {
	log := Open(filepath.Join(t.TempDir(), "logs", "transcript.jsonl"))
	sid := NewSessionID()

	if err := log.Append(sid, RoleUser, "hello there", "recognition"); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := log.Append(sid, RoleAssistant, "hi, how can I help?", "synthesis"); err != nil {
		t.Fatalf("Append: %v", err)
	}

	records, err := log.Records()
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d; want 2", len(records))
	}
	if records[0].Role != RoleUser || records[0].Text != "hello there" {
		t.Errorf("records[0] = %+v", records[0])
	}
	if records[1].Role != RoleAssistant || records[1].SessionID != sid {
		t.Errorf("records[1] = %+v", records[1])
	}
	if records[0].Timestamp == 0 {
		t.Error("timestamp not set")
	}
}

func TestAppendSkipsEmptyText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transcript.jsonl")
	log := Open(path)

	if err := log.Append(NewSessionID(), RoleUser, "", "recognition"); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("empty record created the log file")
	}
}

func TestRecordsMissingFile(t *testing.T) {
	log := Open(filepath.Join(t.TempDir(), "never-written.jsonl"))
	records, err := log.Records()
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if records != nil {
		t.Errorf("records = %v; want nil", records)
	}
}

func TestRecordsSkipsCorruptLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transcript.jsonl")
	log := Open(path)
	if err := log.Append("s1", RoleUser, "good line", ""); err != nil {
		t.Fatalf("Append: %v", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("{truncated"); err != nil {
		t.Fatal(err)
	}
	f.Close()

	records, err := log.Records()
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(records) != 1 || records[0].Text != "good line" {
		t.Errorf("records = %+v; want the one valid line", records)
	}
}

func TestSessionFilter(t *testing.T) {
	log := Open(filepath.Join(t.TempDir(), "transcript.jsonl"))
	for _, rec := range []struct{ sid, text string }{
		{"a", "first"},
		{"b", "other session"},
		{"a", "second"},
	} {
		if err := log.Append(rec.sid, RoleUser, rec.text, ""); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	records, err := log.Session("a")
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d; want 2", len(records))
	}
	got := records[0].Text + "|" + records[1].Text
	if got != "first|second" {
		t.Errorf("texts = %q; want first|second", got)
	}
}

func TestNewSessionID(t *testing.T) {
	a, b := NewSessionID(), NewSessionID()
	if a == b {
		t.Error("session ids collide")
	}
	if strings.Count(a, "-") != 4 {
		t.Errorf("session id %q is not a uuid", a)
	}
}
