package office

import (
	"context"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"office-assistant/internal/llm"
)

type fakeCaller struct {
	result *mcp.CallToolResult
	err    error
	params []*mcp.CallToolParams
}

func (f *fakeCaller) CallTool(ctx context.Context, params *mcp.CallToolParams) (*mcp.CallToolResult, error) {
	f.params = append(f.params, params)
	return f.result, f.err
}

func textResult(text string, isErr bool) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}, IsError: isErr}
}

func TestCall_ReturnsText(t *testing.T) {
	fc := &fakeCaller{result: textResult("Task 'call client' created", false)}
	m := &MCPClient{caller: fc}
	out, err := m.Call(context.Background(), llm.ToolCreateTask, map[string]any{"title": "call client"})
	if err != nil || out != "Task 'call client' created" {
		t.Fatalf("unexpected: %q %v", out, err)
	}
	if fc.params[0].Name != llm.ToolCreateTask {
		t.Fatalf("wrong tool called: %+v", fc.params[0])
	}
}

func TestCall_ToolErrorIsObservation(t *testing.T) {
	m := &MCPClient{caller: &fakeCaller{result: textResult("conflict with meeting at 2 PM", true)}}
	out, err := m.Call(context.Background(), llm.ToolAddEvent, nil)
	if err != nil || out != "error: conflict with meeting at 2 PM" {
		t.Fatalf("unexpected: %q %v", out, err)
	}
}

func TestCall_TransportError(t *testing.T) {
	m := &MCPClient{caller: &fakeCaller{err: errors.New("broken pipe")}}
	if _, err := m.Call(context.Background(), llm.ToolAddEvent, nil); err == nil {
		t.Fatalf("expected error")
	}
}

func TestCall_NotConnected(t *testing.T) {
	if _, err := NewMCPClient("x").Call(context.Background(), "t", nil); err == nil {
		t.Fatalf("expected error when not connected")
	}
}

func TestFetchContacts(t *testing.T) {
	fc := &fakeCaller{result: textResult(`{"contacts":[{"name":"Alex","email":"alex@x.com"},{"name":"Sam","email":"sam@x.com"}]}`, false)}
	m := &MCPClient{caller: fc}
	list, err := m.FetchContacts(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(list) != 2 || list[0].Name != "Alex" || list[0].Address != "alex@x.com" {
		t.Fatalf("unexpected contacts: %+v", list)
	}
	if fc.params[0].Name != llm.ToolGetUserContacts {
		t.Fatalf("wrong tool: %s", fc.params[0].Name)
	}
}

func TestFetchContacts_Errors(t *testing.T) {
	m := &MCPClient{caller: &fakeCaller{result: textResult("permission denied", true)}}
	if _, err := m.FetchContacts(context.Background()); err == nil {
		t.Fatalf("tool error should fail the fetch")
	}
	m = &MCPClient{caller: &fakeCaller{result: textResult("not json", false)}}
	if _, err := m.FetchContacts(context.Background()); err == nil {
		t.Fatalf("bad payload should fail the fetch")
	}
}
