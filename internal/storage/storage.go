package storage

import "time"

// TurnRecord is one processed turn of a conversation: what the user said,
// what the assistant answered and which branch produced the answer.
type TurnRecord struct {
	Timestamp         time.Time `json:"timestamp"`
	SessionKey        string    `json:"session_key"`
	UserMessage       string    `json:"user_message"`
	AssistantResponse string    `json:"assistant_response"`
	ToolUsed          string    `json:"tool_used"`
}

// Recorder persists turn records. LoadTurns returns them in append order.
// Implementations must be safe for concurrent use.
type Recorder interface {
	AppendTurn(rec TurnRecord) error
	LoadTurns() ([]TurnRecord, error)
}
