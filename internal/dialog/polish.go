package dialog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"office-assistant/internal/history"
	"office-assistant/internal/llm"
)

var errEmptyPolish = errors.New("polish returned empty text")

// LLMPolisher rewrites a raw user turn into an instruction-shaped request.
type LLMPolisher struct {
	llmClient llm.Client
	signature string
	now       func() time.Time
}

func NewLLMPolisher(llmClient llm.Client, signature string) *LLMPolisher {
	return &LLMPolisher{llmClient: llmClient, signature: signature, now: time.Now}
}

func (p *LLMPolisher) Polish(ctx context.Context, past []llm.Message, input string, rules Rules) (string, error) {
	prompt := buildPolishPrompt(history.Format(past), input, rules.String(), p.signature, p.now())
	resp, err := p.llmClient.Generate(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}})
	if err != nil {
		return "", fmt.Errorf("polish: %w", err)
	}
	out := strings.TrimSpace(resp.Content)
	if out == "" {
		return "", errEmptyPolish
	}
	return out, nil
}

func buildPolishPrompt(recent, input, rules, signature string, today time.Time) string {
	return fmt.Sprintf(`Today is %s.

Conversation history:
%s

New input:
%s

Context:
%s

Instructions:
- If responding to a pending action (task, meeting, email), complete it.
- Always confirm email body with user before sending.
- Append "Best regards, %s" to email body during formatting.
- Ask for missing time if creating a task or meeting without time.
- For email, use actual contact email if known.
- There should be no placeholder in final emails.
- Avoid repeating previous questions. Only ask once and reuse memory.`, today.Format("January 02, 2006"), recent, input, rules, signature)
}
