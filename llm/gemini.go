package llm

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	"charity-matcher/logger"
	"charity-matcher/models"
)

// UsageSink receives one AILog per LLM request for system monitoring.
type UsageSink interface {
	Insert(ctx context.Context, l models.AILog) error
}

// Gemini implements Client on top of google.golang.org/genai.
type Gemini struct {
	client      *genai.Client
	model       string
	purpose     string
	temperature *float32
	sink        UsageSink
}

var _ Client = (*Gemini)(nil)

// NewGemini builds the shared Gemini client. A missing API key is an
// initialization failure, not a degraded mode.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is not set")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, err
	}
	return &Gemini{client: client, model: model, purpose: "generate"}, nil
}

// SetUsageSink attaches an optional telemetry sink.
func (g *Gemini) SetUsageSink(s UsageSink) { g.sink = s }

// WithModel returns a copy of the client bound to another model name.
func (g *Gemini) WithModel(model string) *Gemini {
	c := *g
	c.model = model
	return &c
}

// WithPurpose returns a copy tagged for telemetry.
func (g *Gemini) WithPurpose(purpose string) *Gemini {
	c := *g
	c.purpose = purpose
	return &c
}

// WithTemperature returns a copy with a fixed sampling temperature.
func (g *Gemini) WithTemperature(t float32) *Gemini {
	c := *g
	c.temperature = &t
	return &c
}

func (g *Gemini) GenerateText(ctx context.Context, system, prompt string) (string, error) {
	start := time.Now()
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: system}}},
		Temperature:       g.temperature,
	}
	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", err
	}
	g.record(ctx, prompt, result, start)
	return result.Text(), nil
}

func (g *Gemini) NewChat(system string, tools []Tool) Chat {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: system}}},
		Temperature:       g.temperature,
	}
	if len(tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(tools))
		for _, t := range tools {
			decls = append(decls, &genai.FunctionDeclaration{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			})
		}
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}
	return &geminiChat{gemini: g, cfg: cfg}
}

// record writes telemetry when a sink is attached. Telemetry failures must
// never break the calling pipeline.
func (g *Gemini) record(ctx context.Context, prompt string, result *genai.GenerateContentResponse, start time.Time) {
	if g.sink == nil || result == nil || result.UsageMetadata == nil {
		return
	}
	l := models.AILog{
		ModelName:      g.model,
		ModelVersion:   result.ModelVersion,
		Purpose:        g.purpose,
		InputTokens:    int64(result.UsageMetadata.PromptTokenCount),
		OutputTokens:   int64(result.UsageMetadata.CandidatesTokenCount),
		TotalTokens:    int64(result.UsageMetadata.TotalTokenCount),
		DurationMs:     time.Since(start).Milliseconds(),
		InputPrompt:    prompt,
		OutputResponse: result.Text(),
		RequestedAt:    start,
		CompletedAt:    time.Now(),
	}
	if err := g.sink.Insert(ctx, l); err != nil {
		logger.Log.Warnf("failed to insert AI log: %v", err)
	}
}

// geminiChat keeps the dialogue history explicitly and replays it on every
// Send, which is what the underlying protocol requires for tool calling.
type geminiChat struct {
	gemini  *Gemini
	cfg     *genai.GenerateContentConfig
	history []*genai.Content
}

func (c *geminiChat) AddUserText(text string) {
	c.history = append(c.history, &genai.Content{
		Role:  genai.RoleUser,
		Parts: []*genai.Part{{Text: text}},
	})
}

func (c *geminiChat) AddToolResult(name, result string) {
	c.history = append(c.history, &genai.Content{
		Role: genai.RoleUser,
		Parts: []*genai.Part{{
			FunctionResponse: &genai.FunctionResponse{
				Name:     name,
				Response: map[string]any{"result": result},
			},
		}},
	})
}

func (c *geminiChat) Send(ctx context.Context) (*Turn, error) {
	start := time.Now()
	result, err := c.gemini.client.Models.GenerateContent(ctx, c.gemini.model, c.history, c.cfg)
	if err != nil {
		return nil, err
	}
	if len(result.Candidates) > 0 && result.Candidates[0].Content != nil {
		c.history = append(c.history, result.Candidates[0].Content)
	}
	c.gemini.record(ctx, lastUserText(c.history), result, start)

	turn := &Turn{Text: result.Text()}
	for _, fc := range result.FunctionCalls() {
		turn.ToolCalls = append(turn.ToolCalls, ToolCall{Name: fc.Name, Args: fc.Args})
	}
	return turn, nil
}

func lastUserText(history []*genai.Content) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role != genai.RoleUser {
			continue
		}
		for _, p := range history[i].Parts {
			if p.Text != "" {
				return p.Text
			}
		}
	}
	return ""
}
