package observer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"office-assistant/internal/llm"
)

type fakeLLM struct {
	resp llm.Response
	err  error
	seen []llm.Message
}

func (f *fakeLLM) Generate(ctx context.Context, msgs []llm.Message) (llm.Response, error) {
	f.seen = msgs
	return f.resp, f.err
}

func TestObserve_JudgedText(t *testing.T) {
	f := &fakeLLM{resp: llm.Response{Content: "  Meeting scheduled with Jane at 2 PM on Thursday.  "}}
	v := New(f).Observe(context.Background(), "meet Jane thursday 2pm", "add_calendar_event_with_availability_check", `{"status":"created"}`)
	if !v.Complete || v.Text != "Meeting scheduled with Jane at 2 PM on Thursday." {
		t.Fatalf("unexpected verdict: %+v", v)
	}
	prompt := f.seen[0].Content
	if !strings.Contains(prompt, "meet Jane thursday 2pm") || !strings.Contains(prompt, "add_calendar_event_with_availability_check") {
		t.Fatalf("prompt misses context: %q", prompt)
	}
}

func TestObserve_SentinelIsInconclusive(t *testing.T) {
	for _, reply := range []string{"NOT COMPLETE", " not complete. ", `"NOT COMPLETE"`, ""} {
		v := New(&fakeLLM{resp: llm.Response{Content: reply}}).Observe(context.Background(), "x", "t", "y")
		if v.Complete {
			t.Fatalf("reply %q should be inconclusive, got %+v", reply, v)
		}
	}
}

func TestObserve_ModelErrorIsInconclusive(t *testing.T) {
	v := New(&fakeLLM{err: errors.New("model down")}).Observe(context.Background(), "x", "t", "y")
	if v != Inconclusive() {
		t.Fatalf("model error must be absorbed, got %+v", v)
	}
}

func TestObserve_TextMentioningSentinelIsStillJudged(t *testing.T) {
	v := New(&fakeLLM{resp: llm.Response{Content: "The task 'NOT COMPLETE report' was added."}}).Observe(context.Background(), "x", "t", "y")
	if !v.Complete {
		t.Fatalf("only an exact sentinel reply is inconclusive: %+v", v)
	}
}
