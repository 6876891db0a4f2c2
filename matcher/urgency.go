package matcher

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"charity-matcher/logger"
	"charity-matcher/models"
)

const urgencySystemPrompt = "You are an expert at assessing humanitarian and charitable funding urgency. Be objective and analytical in your assessment."

const defaultUrgencyScore = 5.0

// ScoreUrgency rates an article's funding urgency on a 1-10 scale with a
// single model call. The returned text follows the fixed two-line format and
// is also fed verbatim into the portfolio dialogue; failures produce an
// explicit error placeholder that parses to the default score.
func (m *Matcher) ScoreUrgency(ctx context.Context, article models.Article) string {
	prompt := fmt.Sprintf(`Article Title: %s
Description: %s

On a scale of 1-10, rate the urgency of this situation in terms of immediate funding needs, where:
1 = No immediate funding urgency
10 = Extremely urgent, immediate funding crucial

Consider factors like:
- Immediate threat to life or well-being
- Time-sensitivity of the situation
- Scale of impact
- Current resource availability
- Vulnerability of affected populations

Provide your response in this exact format:
"Urgency Score: [number 1-10]
Brief Reason: [one-line explanation]"`, article.Title, article.Description)

	out, err := m.urgency.GenerateText(ctx, urgencySystemPrompt, prompt)
	if err != nil {
		logger.Log.Errorf("urgency scoring failed: %v", err)
		return "Urgency Score: N/A\nBrief Reason: Error in assessment"
	}
	return strings.TrimSpace(out)
}

// ParseUrgencyScore extracts the numeric score from the first line of the
// urgency text. Anything malformed resolves to the default of 5.0.
func ParseUrgencyScore(text string) float64 {
	if !strings.Contains(text, "Score:") {
		return defaultUrgencyScore
	}
	firstLine := strings.SplitN(text, "\n", 2)[0]
	parts := strings.SplitN(firstLine, ": ", 2)
	if len(parts) != 2 {
		return defaultUrgencyScore
	}
	score, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return defaultUrgencyScore
	}
	return score
}
