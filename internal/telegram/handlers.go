package telegram

import (
	"context"
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"office-assistant/internal/analytics"
	"office-assistant/internal/dialog"
	"office-assistant/internal/storage"
)

const helpText = "I can create tasks, schedule meetings and send emails. Just tell me what you need.\n/reset clears our conversation.\n/report shows today's usage, /report json as raw stats."

func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start", "help":
		b.sendMessage(msg.Chat.ID, helpText)
	case "reset":
		key := sessionKey(msg.Chat.ID)
		if b.sessions.Evict(key) {
			log.Printf("🧹 Session %s reset", key)
		}
		b.sendMessage(msg.Chat.ID, "Conversation cleared.")
	case "report":
		b.sendMessage(msg.Chat.ID, b.dailyReport(strings.TrimSpace(msg.CommandArguments()) == "json"))
	default:
		b.sendMessage(msg.Chat.ID, "Unknown command. "+helpText)
	}
}

func (b *Bot) handleIncomingMessage(ctx context.Context, msg *tgbotapi.Message) {
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}
	key := sessionKey(msg.Chat.ID)
	log.Printf("Incoming message for %s: %q", key, text)

	res := b.runTurn(ctx, key, text)
	log.Printf("✅ Turn %s finished [tool_used=%s]", key, res.ToolUsed)

	b.sendMessage(msg.Chat.ID, res.Output)
	b.record(key, text, res)
}

// runTurn reports a panic inside the turn as a failed result.
func (b *Bot) runTurn(ctx context.Context, key, text string) (res dialog.TurnResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ Turn %s panicked: %v", key, r)
			res = dialog.TurnResult{Output: fmt.Sprintf("Failed: %v", r), ToolUsed: dialog.Error}
		}
	}()
	return b.assistant.ProcessTurn(ctx, key, text)
}

func (b *Bot) record(key, text string, res dialog.TurnResult) {
	if b.recorder == nil {
		return
	}
	err := b.recorder.AppendTurn(storage.TurnRecord{
		Timestamp:         b.now(),
		SessionKey:        key,
		UserMessage:       text,
		AssistantResponse: res.Output,
		ToolUsed:          res.ToolUsed,
	})
	if err != nil {
		log.Printf("⚠️ Failed to record turn: %v", err)
	}
}

func (b *Bot) dailyReport(asJSON bool) string {
	if b.recorder == nil {
		return "Turn journal is disabled."
	}
	records, err := b.recorder.LoadTurns()
	if err != nil {
		log.Printf("❌ Report generation failed: %v", err)
		return fmt.Sprintf("Failed: %v", err)
	}
	stats := analytics.AnalyzeDay(records, b.now())
	if !asJSON {
		return stats.Summary()
	}
	out, err := stats.ToJSON()
	if err != nil {
		log.Printf("❌ Report encoding failed: %v", err)
		return fmt.Sprintf("Failed: %v", err)
	}
	return out
}
