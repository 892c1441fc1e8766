package observer

import (
	"context"
	"fmt"
	"log"
	"strings"

	"office-assistant/internal/llm"
)

// notComplete is the literal the rubric asks the model to emit.
const notComplete = "NOT COMPLETE"

// Verdict is the outcome of judging a tool result.
type Verdict struct {
	Text     string
	Complete bool
}

func Judged(text string) Verdict { return Verdict{Text: text, Complete: true} }

func Inconclusive() Verdict { return Verdict{} }

type Observer struct {
	llmClient llm.Client
}

func New(llmClient llm.Client) *Observer {
	return &Observer{llmClient: llmClient}
}

// Observe asks the model whether rawOutput answers userInput. Model errors
// are absorbed into Inconclusive.
func (o *Observer) Observe(ctx context.Context, userInput, toolName, rawOutput string) Verdict {
	msgs := []llm.Message{{Role: llm.RoleUser, Content: buildPrompt(userInput, toolName, rawOutput)}}
	resp, err := o.llmClient.Generate(ctx, msgs)
	if err != nil {
		log.Printf("❌ observer failed for tool %s: %v", toolName, err)
		return Inconclusive()
	}
	text := strings.TrimSpace(resp.Content)
	if text == "" || strings.EqualFold(strings.Trim(text, `"'.`), notComplete) {
		log.Printf("🔎 observer judged %s output as not complete", toolName)
		return Inconclusive()
	}
	return Judged(text)
}

func buildPrompt(userInput, toolName, rawOutput string) string {
	return fmt.Sprintf(`You are reviewing a tool's output for a professional assistant.

Context:
- Original User Request: %q
- Tool Used: %q
- Tool Output: %q

Your Tasks:
- If the tool output correctly fulfills the user request, format it nicely and return.
- If the tool output shows a clear status or error like "conflict with meeting", "no availability", "contact not found", accept it and politely inform the user.
- If the tool correctly interprets casual references like 'tomorrow', 'today', 'next week' into proper dates, consider it correct.

ONLY reply either:
- A clear final message to the user (formatted nicely).
- OR "%s" if it is totally wrong or confusing.`, userInput, toolName, rawOutput, notComplete)
}
