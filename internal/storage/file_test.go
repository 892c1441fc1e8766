package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileRecorder_AppendAndLoad(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "logs", "turns.jsonl")
	rec, err := NewFileRecorder(p)
	if err != nil {
		t.Fatalf("init recorder: %v", err)
	}

	r1 := TurnRecord{Timestamp: time.Unix(1, 0).UTC(), SessionKey: "tg:1", UserMessage: "hi", AssistantResponse: "hello", ToolUsed: "final_output"}
	r2 := TurnRecord{Timestamp: time.Unix(2, 0).UTC(), SessionKey: "tg:2", UserMessage: "meeting", AssistantResponse: "When?", ToolUsed: "waiting_for_time"}
	if err := rec.AppendTurn(r1); err != nil {
		t.Fatalf("append1: %v", err)
	}
	if err := rec.AppendTurn(r2); err != nil {
		t.Fatalf("append2: %v", err)
	}

	records, err := rec.LoadTurns()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("want 2, got %d", len(records))
	}
	if !sameRecord(records[0], r1) || !sameRecord(records[1], r2) {
		t.Fatalf("order mismatch: %+v", records)
	}

	st, err := os.Stat(p)
	if err != nil || st.Size() == 0 {
		t.Fatalf("file not written")
	}
}

func TestFileRecorder_SkipsMalformedLines(t *testing.T) {
	p := filepath.Join(t.TempDir(), "turns.jsonl")
	content := "{\"session_key\":\"tg:1\",\"tool_used\":\"error\"}\n\nnot json\n"
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	rec, err := NewFileRecorder(p)
	if err != nil {
		t.Fatalf("init recorder: %v", err)
	}

	records, err := rec.LoadTurns()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(records) != 1 || records[0].ToolUsed != "error" {
		t.Fatalf("unexpected records: %+v", records)
	}
}

func sameRecord(a, b TurnRecord) bool {
	return a.Timestamp.Equal(b.Timestamp) &&
		a.SessionKey == b.SessionKey &&
		a.UserMessage == b.UserMessage &&
		a.AssistantResponse == b.AssistantResponse &&
		a.ToolUsed == b.ToolUsed
}
