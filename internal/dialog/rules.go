package dialog

import (
	"fmt"
	"strings"

	"office-assistant/internal/llm"
)

// Rule is the static guidance for one intent kind.
type Rule struct {
	Intent   string
	Tools    []string
	Analysis string
	Format   string
}

// Rules is read-only after construction.
type Rules []Rule

// DefaultRules returns the classification context rules. signature is
// appended to outgoing email bodies.
func DefaultRules(signature string) Rules {
	return Rules{
		{
			Intent:   "task",
			Tools:    []string{llm.ToolCreateTask},
			Analysis: "If task title or time is missing, ask the user before calling the tool.",
			Format:   "Task added: Follow up with client at 3 PM.",
		},
		{
			Intent:   "meeting",
			Tools:    []string{llm.ToolAddEvent},
			Analysis: "If meeting time is missing, ask the user.",
			Format:   "Meeting scheduled with Jane at 2 PM on Thursday.",
		},
		{
			Intent:   "email",
			Tools:    []string{llm.ToolSendEmail, llm.ToolGetUserContacts},
			Analysis: fmt.Sprintf("If recipient and body are present, ask the user to confirm before sending. Append 'Best regards, %s' during formatting.", signature),
			Format:   "Send email to Alex confirming project status. Confirm body before sending.",
		},
	}
}

func (r Rules) String() string {
	blocks := make([]string, 0, len(r))
	for _, rule := range r {
		var b strings.Builder
		b.WriteString(capitalize(rule.Intent) + ":\n")
		b.WriteString("- Tool: " + strings.Join(rule.Tools, ",") + "\n")
		b.WriteString("- Analysis: " + rule.Analysis + "\n")
		b.WriteString("- Format: " + rule.Format)
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
