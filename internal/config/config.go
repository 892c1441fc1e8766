package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v6"
)

type LLMProvider string

const (
	ProviderOpenAI LLMProvider = "openai"
	ProviderYandex LLMProvider = "yandex"
)

type Config struct {
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN,required"`

	// LLM settings. LLMProvider drives polishing and judging; tool dispatch
	// always goes through the OpenAI-compatible endpoint.
	LLMProvider      LLMProvider `env:"LLM_PROVIDER" envDefault:"openai"`
	OpenAIAPIKey     string      `env:"OPENAI_API_KEY"`
	OpenAIBaseURL    string      `env:"OPENAI_BASE_URL"`
	OpenAIModel      string      `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	YandexOAuthToken string      `env:"YANDEX_OAUTH_TOKEN"`
	YandexFolderID   string      `env:"YANDEX_FOLDER_ID"`

	// OpenRouter (optional)
	OpenRouterReferrer string `env:"OPENROUTER_REFERRER"`
	OpenRouterTitle    string `env:"OPENROUTER_TITLE"`

	// Dialogue
	SignatureName               string        `env:"SIGNATURE_NAME" envDefault:"Your Assistant"`
	PolishTimeout               time.Duration `env:"POLISH_TIMEOUT" envDefault:"30s"`
	DispatchTimeout             time.Duration `env:"DISPATCH_TIMEOUT" envDefault:"90s"`
	DirectoryTimeout            time.Duration `env:"DIRECTORY_TIMEOUT" envDefault:"15s"`
	JudgeTimeout                time.Duration `env:"JUDGE_TIMEOUT" envDefault:"30s"`
	MaxToolRounds               int           `env:"MAX_TOOL_ROUNDS" envDefault:"5"`
	ClearPendingOnPolishFailure bool          `env:"CLEAR_PENDING_ON_POLISH_FAILURE" envDefault:"false"`

	// Sessions
	SessionTTL       time.Duration `env:"SESSION_TTL" envDefault:"2h"`
	SessionCapacity  int           `env:"SESSION_CAPACITY" envDefault:"1000"`
	SessionSweepSpec string        `env:"SESSION_SWEEP_SPEC" envDefault:"@every 1m"`
	ReportSpec       string        `env:"REPORT_SPEC" envDefault:"0 21 * * *"`

	// Storage
	LogFilePath     string `env:"LOG_FILE_PATH" envDefault:"logs/turns.jsonl"`
	PendingFilePath string `env:"PENDING_FILE_PATH" envDefault:"data/pending.json"`

	// Office tools
	OfficeMCPServerPath string `env:"OFFICE_MCP_SERVER_PATH" envDefault:"./office-mcp-server"`
}

func New() *Config {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	return cfg
}

// Workspace holds the Google settings read by the office MCP server process.
type Workspace struct {
	CredentialsJSON     string `env:"GOOGLE_CREDENTIALS_JSON"`
	CredentialsJSONPath string `env:"GOOGLE_CREDENTIALS_JSON_PATH"`
	RefreshToken        string `env:"GOOGLE_REFRESH_TOKEN"`
	TokenFile           string `env:"GOOGLE_TOKEN_FILE"`
	CalendarID          string `env:"GOOGLE_CALENDAR_ID" envDefault:"primary"`
	TaskListID          string `env:"GOOGLE_TASK_LIST_ID" envDefault:"@default"`
	TimeZone            string `env:"OFFICE_TIME_ZONE" envDefault:"UTC"`
}

func NewWorkspace() *Workspace {
	cfg := &Workspace{}
	if err := env.Parse(cfg); err != nil {
		log.Fatalf("failed to parse workspace config: %v", err)
	}
	return cfg
}
