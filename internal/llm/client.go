package llm

import "context"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

type Message struct {
	Role    string
	Content string

	// ToolCalls is set on assistant messages that requested tool execution.
	ToolCalls []ToolCall
	// ToolCallID links a tool message to the call it answers.
	ToolCallID string
}

type Response struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	ToolCalls        []ToolCall
}

type Client interface {
	Generate(ctx context.Context, messages []Message) (Response, error)
}

// ToolClient is a Client that can also offer function tools to the model.
type ToolClient interface {
	Client
	GenerateWithTools(ctx context.Context, messages []Message, tools []Tool) (Response, error)
}

type Tool struct {
	Type     string
	Function Function
}

type Function struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
}

type ToolCall struct {
	ID       string
	Type     string
	Function FunctionCall
}

type FunctionCall struct {
	Name      string
	Arguments map[string]interface{}
}
