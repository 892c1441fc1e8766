package telegram

import (
	"context"
	"fmt"
	"log"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"office-assistant/internal/dialog"
	"office-assistant/internal/storage"
)

// Assistant handles one user turn for a session.
type Assistant interface {
	ProcessTurn(ctx context.Context, key, input string) dialog.TurnResult
}

// Sessions is the part of the session registry the bot needs for /reset.
type Sessions interface {
	Evict(key string) bool
}

type Bot struct {
	api       *tgbotapi.BotAPI
	s         sender
	assistant Assistant
	sessions  Sessions
	recorder  storage.Recorder
	now       func() time.Time
}

// New connects to the Bot API. recorder may be nil.
func New(botToken string, assistant Assistant, sessions Sessions, recorder storage.Recorder) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("telegram bot api: %w", err)
	}
	log.Printf("🤖 Authorized on account @%s", api.Self.UserName)
	return &Bot{
		api:       api,
		s:         botAPISender{api: api},
		assistant: assistant,
		sessions:  sessions,
		recorder:  recorder,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

// Start handles updates until ctx is cancelled. Messages are processed
// concurrently; turns of one chat are serialized by the session lock.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil {
				continue
			}
			go b.handleUpdate(ctx, update.Message)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, msg *tgbotapi.Message) {
	if msg.IsCommand() {
		b.handleCommand(msg)
		return
	}
	b.handleIncomingMessage(ctx, msg)
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.s.Send(msg); err != nil {
		log.Printf("failed to send message: %v", err)
	}
}

func sessionKey(chatID int64) string {
	return fmt.Sprintf("tg:%d", chatID)
}
