package llm

import (
	"context"

	"google.golang.org/genai"
)

// Tool declares one callable action the model may invoke during a chat.
// Parameters is nil for no-argument tools.
type Tool struct {
	Name        string
	Description string
	Parameters  *genai.Schema
}

// ToolCall is one function invocation requested by the model.
type ToolCall struct {
	Name string
	Args map[string]any
}

// Turn is the model's output for one round of a chat.
type Turn struct {
	Text      string
	ToolCalls []ToolCall
}

// Chat is a running tool-calling dialogue. Implementations keep the full
// conversation history; every Send appends the model's reply to it.
type Chat interface {
	AddUserText(text string)
	AddToolResult(name, result string)
	Send(ctx context.Context) (*Turn, error)
}

// Client is the LLM surface the pipeline depends on. The production
// implementation is Gemini; tests plug in fakes.
type Client interface {
	GenerateText(ctx context.Context, system, prompt string) (string, error)
	NewChat(system string, tools []Tool) Chat
}
