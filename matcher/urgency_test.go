package matcher

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"charity-matcher/models"
)

func TestParseUrgencyScore(t *testing.T) {
	cases := []struct {
		name string
		text string
		want float64
	}{
		{"well formed", "Urgency Score: 8\nBrief Reason: Severe wildfires", 8},
		{"fractional", "Urgency Score: 7.5\nBrief Reason: Ongoing drought", 7.5},
		{"error placeholder", "Urgency Score: N/A\nBrief Reason: Error in assessment", 5},
		{"missing score line", "The situation seems urgent.", 5},
		{"empty", "", 5},
		{"no separator", "Urgency Score:9", 5},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseUrgencyScore(tc.text))
		})
	}
}

func TestScoreUrgencyFallsBackOnError(t *testing.T) {
	urgency := &fakeLLM{textErr: fmt.Errorf("quota exceeded")}
	m := newTestMatcher(t, &fakeLLM{}, urgency, environmentIndex(), &fakeCharityStore{}, &fakeWallet{})

	text := m.ScoreUrgency(context.Background(), models.Article{Title: "t", Description: "d"})
	assert.Equal(t, "Urgency Score: N/A\nBrief Reason: Error in assessment", text)
	assert.Equal(t, 5.0, ParseUrgencyScore(text))
}
