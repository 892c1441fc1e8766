// Package dispatch runs the tool-calling loop that turns a finalized
// instruction into office tool invocations.
package dispatch

import (
	"context"
	"fmt"
	"log"
	"time"

	"office-assistant/internal/llm"
)

const noResponse = "No response."

// Toolbox executes a named office tool and returns its raw output.
type Toolbox interface {
	Call(ctx context.Context, name string, args map[string]any) (string, error)
}

// Step is one tool invocation made while handling an instruction.
type Step struct {
	Tool        string
	Arguments   map[string]any
	Observation string
}

type Result struct {
	Output string
	Steps  []Step
}

type Runner struct {
	llmClient llm.ToolClient
	toolbox   Toolbox
	tools     []llm.Tool
	maxRounds int
	now       func() time.Time
}

func NewRunner(llmClient llm.ToolClient, toolbox Toolbox, tools []llm.Tool, maxRounds int) *Runner {
	if maxRounds <= 0 {
		maxRounds = 5
	}
	return &Runner{
		llmClient: llmClient,
		toolbox:   toolbox,
		tools:     tools,
		maxRounds: maxRounds,
		now:       time.Now,
	}
}

// Dispatch sends the instruction to the model and executes the tool calls it
// asks for until it answers in plain text.
func (r *Runner) Dispatch(ctx context.Context, instruction string, history []llm.Message) (Result, error) {
	msgs := make([]llm.Message, 0, len(history)+2)
	msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: r.systemPrompt()})
	msgs = append(msgs, history...)
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: instruction})

	var res Result
	for round := 0; round < r.maxRounds; round++ {
		resp, err := r.llmClient.GenerateWithTools(ctx, msgs, r.tools)
		if err != nil {
			return Result{}, fmt.Errorf("dispatch round %d: %w", round, err)
		}
		if len(resp.ToolCalls) == 0 {
			res.Output = resp.Content
			if res.Output == "" {
				res.Output = noResponse
			}
			return res, nil
		}

		msgs = append(msgs, llm.Message{Role: llm.RoleAssistant, Content: resp.Content, ToolCalls: resp.ToolCalls})
		for _, tc := range resp.ToolCalls {
			observation := r.call(ctx, tc)
			res.Steps = append(res.Steps, Step{Tool: tc.Function.Name, Arguments: tc.Function.Arguments, Observation: observation})
			msgs = append(msgs, llm.Message{Role: llm.RoleTool, Content: observation, ToolCallID: tc.ID})
		}
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
	}

	log.Printf("⚠️ dispatch stopped after %d tool rounds", r.maxRounds)
	res.Output = fmt.Sprintf("Stopped after %d tool rounds without a final answer.", r.maxRounds)
	return res, nil
}

func (r *Runner) call(ctx context.Context, tc llm.ToolCall) string {
	log.Printf("🔧 calling tool %s with %v", tc.Function.Name, tc.Function.Arguments)
	out, err := r.toolbox.Call(ctx, tc.Function.Name, tc.Function.Arguments)
	if err != nil {
		log.Printf("❌ tool %s failed: %v", tc.Function.Name, err)
		return fmt.Sprintf("error: %v", err)
	}
	return out
}

func (r *Runner) systemPrompt() string {
	return fmt.Sprintf("You are a professional admin assistant. Today is %s.", r.now().Format("January 02, 2006"))
}
