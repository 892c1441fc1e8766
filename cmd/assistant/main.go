package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"office-assistant/internal/analytics"
	"office-assistant/internal/config"
	"office-assistant/internal/dialog"
	"office-assistant/internal/dispatch"
	"office-assistant/internal/llm"
	"office-assistant/internal/observer"
	"office-assistant/internal/office"
	"office-assistant/internal/pending"
	"office-assistant/internal/scheduler"
	"office-assistant/internal/session"
	"office-assistant/internal/storage"
	"office-assistant/internal/telegram"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	factory := llm.NewFactory(cfg)
	textClient, err := factory.CreateClient(string(cfg.LLMProvider), cfg.OpenAIModel)
	if err != nil {
		log.Fatalf("failed to create llm client: %v", err)
	}
	toolClient := factory.CreateToolClient(cfg.OpenAIModel)

	var pRepo pending.Repository
	if cfg.PendingFilePath != "" {
		pr, err := pending.NewFileRepository(cfg.PendingFilePath)
		if err != nil {
			log.Printf("failed to init pending repo: %v", err)
		} else {
			pRepo = pr
		}
	}

	var rec storage.Recorder
	if cfg.LogFilePath != "" {
		fr, err := storage.NewFileRecorder(cfg.LogFilePath)
		if err != nil {
			log.Printf("failed to init file recorder: %v", err)
		} else {
			rec = fr
		}
	}

	officeClient := office.NewMCPClient(cfg.OfficeMCPServerPath)
	if err := officeClient.Connect(ctx); err != nil {
		log.Fatalf("❌ %v", err)
	}
	defer officeClient.Close()

	sessions := session.NewRegistry(session.Options{
		TTL:        cfg.SessionTTL,
		Capacity:   cfg.SessionCapacity,
		Repository: pRepo,
	})

	orchestrator := dialog.New(
		sessions,
		dialog.NewLLMPolisher(textClient, cfg.SignatureName),
		dispatch.NewRunner(toolClient, officeClient, llm.OfficeTools(), cfg.MaxToolRounds),
		officeClient,
		observer.New(textClient),
		dialog.Options{
			Rules:                       dialog.DefaultRules(cfg.SignatureName),
			PolishTimeout:               cfg.PolishTimeout,
			DispatchTimeout:             cfg.DispatchTimeout,
			DirectoryTimeout:            cfg.DirectoryTimeout,
			JudgeTimeout:                cfg.JudgeTimeout,
			ClearPendingOnPolishFailure: cfg.ClearPendingOnPolishFailure,
		},
	)

	sched := scheduler.New()
	if err := sched.Add("session sweep", cfg.SessionSweepSpec, func(context.Context) error {
		if n := sessions.Sweep(); n > 0 {
			log.Printf("🧹 Swept %d idle sessions, %d live", n, sessions.Len())
		}
		return nil
	}); err != nil {
		log.Fatalf("❌ %v", err)
	}
	if rec != nil {
		if err := sched.Add("daily report", cfg.ReportSpec, func(context.Context) error {
			records, err := rec.LoadTurns()
			if err != nil {
				return err
			}
			log.Printf("📊 %s", analytics.AnalyzeDay(records, time.Now().UTC()).Summary())
			return nil
		}); err != nil {
			log.Fatalf("❌ %v", err)
		}
	}
	sched.Start()
	defer sched.Stop()

	bot, err := telegram.New(cfg.TelegramBotToken, orchestrator, sessions, rec)
	if err != nil {
		log.Fatalf("failed to create bot: %v", err)
	}

	log.Printf("🚀 Office assistant started")
	bot.Start(ctx)
	log.Printf("👋 Shutting down")
}
