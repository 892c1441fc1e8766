package history

import (
	"testing"

	"office-assistant/internal/llm"
)

func TestTranscriptAppendGetReset(t *testing.T) {
	h := NewTranscript()

	h.AppendUser("hello")
	h.AppendAssistant("hi")

	msgs := h.Messages()
	if len(msgs) != 2 || h.Len() != 2 {
		t.Fatalf("unexpected length: %d", len(msgs))
	}
	if msgs[0].Role != llm.RoleUser || msgs[0].Content != "hello" {
		t.Fatalf("unexpected [0]: %+v", msgs[0])
	}
	if msgs[1].Role != llm.RoleAssistant || msgs[1].Content != "hi" {
		t.Fatalf("unexpected [1]: %+v", msgs[1])
	}

	// Ensure copy semantics (modifying returned slice does not affect internal state)
	msgs[0] = llm.Message{Role: llm.RoleUser, Content: "mutated"}
	if h.Messages()[0].Content != "hello" {
		t.Fatalf("internal state mutated via returned slice")
	}

	h.Reset()
	if h.Len() != 0 {
		t.Fatalf("reset did not clear transcript")
	}
}

func TestFormat(t *testing.T) {
	out := Format([]llm.Message{
		{Role: llm.RoleUser, Content: "add a task"},
		{Role: llm.RoleAssistant, Content: "Task added"},
		{Role: llm.RoleTool, Content: "raw"},
	})
	want := "User: add a task\nAssistant: Task added"
	if out != want {
		t.Fatalf("want %q, got %q", want, out)
	}
}
