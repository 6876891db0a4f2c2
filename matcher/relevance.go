package matcher

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"charity-matcher/llm"
	"charity-matcher/logger"
)

const relevanceSystemPrompt = `You are a charity impact analyst. Your job is to determine if news articles could affect charitable giving or create needs for charitable work.

Consider:
- Could this affect people's willingness or ability to donate?
- Might this create new needs for charitable assistance?
- Could this influence how charities operate?
- Might this affect vulnerable populations?

If you're uncertain, use request_more_info to research the article before deciding.
Mark articles as relevant if there's any potential charitable impact.`

const researchSystemPrompt = "You are a research analyst specializing in analyzing news articles. Provide comprehensive context and analysis."

func relevanceTools() []llm.Tool {
	reasonSchema := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"reason": {Type: genai.TypeString, Description: "Reason for the decision"},
		},
	}
	return []llm.Tool{
		{
			Name:        "mark_relevant",
			Description: "Mark an article as relevant to charity impact",
			Parameters:  reasonSchema,
		},
		{
			Name:        "mark_irrelevant",
			Description: "Mark an article as irrelevant to charity impact",
			Parameters:  reasonSchema,
		},
		{
			Name:        "request_more_info",
			Description: "Research the article in more depth before deciding",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"article_title":       {Type: genai.TypeString},
					"article_description": {Type: genai.TypeString},
				},
			},
		},
	}
}

// IsRelevant decides whether an article has charitable-impact relevance via
// an iterative tool-calling dialogue. Any failure, including exhausting the
// round ceiling, resolves to relevant: a wrongly included article costs
// review time, a wrongly dropped one loses potential impact.
func (m *Matcher) IsRelevant(ctx context.Context, title, description string) bool {
	chat := m.agent.NewChat(relevanceSystemPrompt, relevanceTools())
	chat.AddUserText(fmt.Sprintf("Analyze this article for charitable impact:\nTitle: %s\nDescription: %s", title, description))

	for round := 0; round < m.maxRounds; round++ {
		turn, err := chat.Send(ctx)
		if err != nil {
			logger.Log.Errorf("relevance check failed, defaulting to relevant: %v", err)
			return true
		}

		for _, call := range turn.ToolCalls {
			switch call.Name {
			case "mark_relevant":
				logger.InfoWithFields("article marked relevant", logger.Fields{
					"title":  title,
					"reason": stringArg(call.Args, "reason", "No reason provided"),
				})
				return true
			case "mark_irrelevant":
				logger.InfoWithFields("article marked irrelevant", logger.Fields{
					"title":  title,
					"reason": stringArg(call.Args, "reason", "No reason provided"),
				})
				return false
			case "request_more_info":
				research := m.research(ctx,
					stringArg(call.Args, "article_title", title),
					stringArg(call.Args, "article_description", description))
				chat.AddToolResult(call.Name, research)
			default:
				chat.AddToolResult(call.Name, "Unknown action, choose mark_relevant or mark_irrelevant")
			}
		}

		if len(turn.ToolCalls) == 0 {
			chat.AddUserText("Decide now by calling mark_relevant or mark_irrelevant.")
		}
	}

	logger.Log.Warnf("relevance dialogue exhausted %d rounds for %q, defaulting to relevant", m.maxRounds, title)
	return true
}

// research fetches deeper model-generated context for an uncertain article.
func (m *Matcher) research(ctx context.Context, title, description string) string {
	prompt := fmt.Sprintf(`Research this news article in detail:
Title: %s
Description: %s

Please provide:
1. Background context
2. More information about the article`, title, description)

	out, err := m.agent.GenerateText(ctx, researchSystemPrompt, prompt)
	if err != nil {
		return fmt.Sprintf("Error in research: %v", err)
	}
	return out
}

func stringArg(args map[string]any, key, fallback string) string {
	if v, ok := args[key].(string); ok && v != "" {
		return v
	}
	return fallback
}
