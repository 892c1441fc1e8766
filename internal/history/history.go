package history

import (
	"strings"
	"sync"

	"office-assistant/internal/llm"
)

// Transcript is the ordered, append-only conversation of one session.
type Transcript struct {
	mu       sync.RWMutex
	messages []llm.Message
}

func NewTranscript() *Transcript {
	return &Transcript{}
}

func (t *Transcript) AppendUser(content string) {
	t.append(llm.Message{Role: llm.RoleUser, Content: content})
}

func (t *Transcript) AppendAssistant(content string) {
	t.append(llm.Message{Role: llm.RoleAssistant, Content: content})
}

func (t *Transcript) append(msg llm.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, msg)
}

// Messages returns a copy of the transcript.
func (t *Transcript) Messages() []llm.Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]llm.Message, len(t.messages))
	copy(out, t.messages)
	return out
}

func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}

func (t *Transcript) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = nil
}

// Format renders messages as "User: ..." / "Assistant: ..." lines.
func Format(messages []llm.Message) string {
	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case llm.RoleUser:
			lines = append(lines, "User: "+m.Content)
		case llm.RoleAssistant:
			lines = append(lines, "Assistant: "+m.Content)
		}
	}
	return strings.Join(lines, "\n")
}
