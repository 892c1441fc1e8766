package office

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"office-assistant/internal/contacts"
	"office-assistant/internal/dispatch"
	"office-assistant/internal/llm"
)

type toolCaller interface {
	CallTool(ctx context.Context, params *mcp.CallToolParams) (*mcp.CallToolResult, error)
}

// MCPClient talks to the office MCP server. It is both the dispatch toolbox
// and the contact directory.
type MCPClient struct {
	serverPath string
	client     *mcp.Client
	session    *mcp.ClientSession
	caller     toolCaller
}

var (
	_ dispatch.Toolbox   = (*MCPClient)(nil)
	_ contacts.Directory = (*MCPClient)(nil)
)

func NewMCPClient(serverPath string) *MCPClient {
	return &MCPClient{serverPath: serverPath}
}

// Connect starts the office MCP server as a subprocess and attaches over stdio.
func (m *MCPClient) Connect(ctx context.Context) error {
	log.Printf("🔗 Connecting to office MCP server %s", m.serverPath)

	m.client = mcp.NewClient(&mcp.Implementation{
		Name:    "office-assistant",
		Version: "1.0.0",
	}, nil)

	cmd := exec.CommandContext(ctx, m.serverPath)
	cmd.Env = os.Environ()
	cmd.Stderr = os.Stderr

	session, err := m.client.Connect(ctx, mcp.NewCommandTransport(cmd))
	if err != nil {
		return fmt.Errorf("failed to connect to office MCP server: %w", err)
	}
	m.session = session
	m.caller = session
	log.Printf("✅ Connected to office MCP server")
	return nil
}

func (m *MCPClient) Close() error {
	if m.session != nil {
		return m.session.Close()
	}
	return nil
}

// Call runs a tool and returns its text output. A tool-level error is
// returned as output so the model can react to it.
func (m *MCPClient) Call(ctx context.Context, name string, args map[string]any) (string, error) {
	if m.caller == nil {
		return "", fmt.Errorf("office MCP session not connected")
	}
	result, err := m.caller.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		return "", fmt.Errorf("call %s: %w", name, err)
	}
	text := resultText(result)
	if result.IsError {
		return "error: " + text, nil
	}
	return text, nil
}

type contactList struct {
	Contacts []contacts.Contact `json:"contacts"`
}

func (m *MCPClient) FetchContacts(ctx context.Context) ([]contacts.Contact, error) {
	if m.caller == nil {
		return nil, fmt.Errorf("office MCP session not connected")
	}
	result, err := m.caller.CallTool(ctx, &mcp.CallToolParams{Name: llm.ToolGetUserContacts, Arguments: map[string]any{}})
	if err != nil {
		return nil, fmt.Errorf("fetch contacts: %w", err)
	}
	text := resultText(result)
	if result.IsError {
		return nil, fmt.Errorf("fetch contacts: %s", text)
	}
	var list contactList
	if err := json.Unmarshal([]byte(text), &list); err != nil {
		return nil, fmt.Errorf("decode contacts: %w", err)
	}
	return list.Contacts, nil
}

func resultText(result *mcp.CallToolResult) string {
	var b strings.Builder
	for _, content := range result.Content {
		if tc, ok := content.(*mcp.TextContent); ok {
			b.WriteString(tc.Text)
		}
	}
	return b.String()
}
