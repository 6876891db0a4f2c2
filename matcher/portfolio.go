package matcher

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"google.golang.org/genai"

	"charity-matcher/events"
	"charity-matcher/llm"
	"charity-matcher/logger"
	"charity-matcher/models"
)

// portfolioState is the working allocation for one user during one article
// pass. It is seeded from the on-chain portfolio, mutated only by the
// dispatch actions below and discarded when the loop ends; durable state
// lives in the wallet service.
type portfolioState struct {
	userID    string
	names     []string
	percents  []float64
	changed   bool
	running   bool
	submitted bool
}

func (s *portfolioState) text() string {
	if len(s.names) == 0 {
		return "No charities in the portfolio"
	}
	lines := make([]string, 0, len(s.names))
	for i, name := range s.names {
		var percent float64
		if i < len(s.percents) {
			percent = s.percents[i]
		}
		lines = append(lines, fmt.Sprintf("%s (%g%%)", name, percent))
	}
	return strings.Join(lines, "\n")
}

func portfolioTools() []llm.Tool {
	return []llm.Tool{
		{
			Name:        "keep_portfolio",
			Description: "Keep the current portfolio without changes",
		},
		{
			Name:        "update_portfolio",
			Description: "Update the portfolio with new charities and percentages",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"new_charities": {
						Type:  genai.TypeArray,
						Items: &genai.Schema{Type: genai.TypeString},
					},
					"new_percents": {
						Type:  genai.TypeArray,
						Items: &genai.Schema{Type: genai.TypeNumber},
					},
				},
			},
		},
		{
			Name:        "send_money",
			Description: "Send money to charities in the portfolio",
		},
	}
}

// UpdatePortfolios runs the portfolio agent once per subscriber for a
// matched article. Urgency is scored once and shared across subscribers.
// Returns the parsed urgency score for the recommendation snapshots.
func (m *Matcher) UpdatePortfolios(ctx context.Context, subscribers []models.Subscription, category string, candidates []models.CharityCandidate, article models.Article) float64 {
	urgencyText := m.ScoreUrgency(ctx, article)
	urgencyScore := ParseUrgencyScore(urgencyText)
	logger.InfoWithFields("urgency assessed", logger.Fields{
		"title": article.Title,
		"score": urgencyScore,
	})

	for _, sub := range subscribers {
		m.managePortfolio(ctx, sub.UserID, category, candidates, article, urgencyScore)
	}
	return urgencyScore
}

// managePortfolio seeds and drives the agentic loop for one user. The loop
// ends when the model calls keep_portfolio or send_money, when a round fails,
// or when the round ceiling is hit; exhaustion commits pending changes the
// same way keep_portfolio would.
func (m *Matcher) managePortfolio(ctx context.Context, userID, category string, candidates []models.CharityCandidate, article models.Article, urgencyScore float64) {
	portfolio, err := m.wallet.GetUserPortfolio(ctx, userID)
	if err != nil {
		logger.Log.Warnf("skipping user %s, portfolio unavailable: %v", userID, err)
		return
	}

	names, err := m.charities.CharityNamesByAddress(ctx, portfolio.Addresses)
	if err != nil {
		logger.Log.Errorf("skipping user %s, charity name resolution failed: %v", userID, err)
		return
	}

	st := &portfolioState{
		userID:   userID,
		names:    names,
		percents: portfolio.Percentages,
		running:  true,
	}

	candidatesJSON, err := json.MarshalIndent(candidates, "", "  ")
	if err != nil {
		candidatesJSON = []byte("[]")
	}

	system := fmt.Sprintf("User %s, you are a portfolio manager for a charity impact fund. Your job is to manage the fund's portfolio of charities to maximize social impact. You have the following charities in your portfolio:\n%s", userID, st.text())
	chat := m.agent.NewChat(system, portfolioTools())
	chat.AddUserText("Analyze the portfolio and make any necessary changes based on the article and the new charities. Call the 'keep_portfolio' function if you want to keep the current portfolio without changes, the 'update_portfolio' function if you want to update the portfolio with new charities and percentages, or the 'send_money' function if you want to send money to the charities in the portfolio. Make sure the charity percentages sum to 100, and end the conversation by calling the 'keep_portfolio' function.")
	chat.AddUserText(fmt.Sprintf("Article Title: %s\nDescription: %s\nCategory: %s\nUrgency Score: %g\nSimilar Charities:\n%s",
		article.Title, article.Description, category, urgencyScore, candidatesJSON))

	dispatch := map[string]func(context.Context, *portfolioState, map[string]any) string{
		"keep_portfolio":   m.keepPortfolio,
		"update_portfolio": m.updatePortfolio,
		"send_money":       m.sendMoney,
	}

	for round := 0; round < m.maxRounds && st.running; round++ {
		turn, err := chat.Send(ctx)
		if err != nil {
			logger.Log.Errorf("portfolio dialogue failed for user %s: %v", userID, err)
			return
		}

		if len(turn.ToolCalls) == 0 {
			chat.AddUserText("Choose an action: keep_portfolio, update_portfolio or send_money.")
			continue
		}

		for _, call := range turn.ToolCalls {
			action, ok := dispatch[call.Name]
			if !ok {
				chat.AddToolResult(call.Name, "Unknown action")
				continue
			}
			result := action(ctx, st, call.Args)
			chat.AddToolResult(call.Name, result)

			// A terminal action ends the pass; ignore any further calls in
			// the same turn so at most one submission happens.
			if !st.running {
				break
			}
		}
	}

	if st.running {
		logger.Log.Warnf("portfolio dialogue for user %s hit the %d round ceiling, keeping portfolio", userID, m.maxRounds)
		st.running = false
		m.keepPortfolio(ctx, st, nil)
	}
}

// keepPortfolio terminates the loop. Pending update_portfolio changes are
// committed to the wallet; otherwise nothing is submitted.
func (m *Matcher) keepPortfolio(ctx context.Context, st *portfolioState, _ map[string]any) string {
	st.running = false
	if !st.changed || st.submitted {
		return "Keeping the current portfolio without changes"
	}

	if err := m.commitPortfolio(ctx, st); err != nil {
		logger.Log.Errorf("failed to commit portfolio for user %s: %v", st.userID, err)
		return fmt.Sprintf("Failed to update the portfolio: %v", err)
	}
	logger.Log.Infof("updated portfolio for user %s", st.userID)
	return "Keeping the current portfolio without changes"
}

// updatePortfolio replaces the working allocation and keeps the loop
// running; nothing reaches the wallet until keep_portfolio commits it.
func (m *Matcher) updatePortfolio(_ context.Context, st *portfolioState, args map[string]any) string {
	st.names = stringSliceArg(args, "new_charities")
	st.percents = floatSliceArg(args, "new_percents")
	st.changed = true
	return "Portfolio updated with new charities and percentages:\n" + st.text()
}

// sendMoney triggers distribution across the current on-chain portfolio and
// terminates the loop, bypassing any uncommitted working changes.
func (m *Matcher) sendMoney(ctx context.Context, st *portfolioState, _ map[string]any) string {
	st.running = false
	if err := m.wallet.DistributeFunds(ctx, st.userID); err != nil {
		logger.Log.Errorf("fund distribution failed for user %s: %v", st.userID, err)
		return fmt.Sprintf("Failed to send money: %v", err)
	}
	st.submitted = true
	logger.Log.Infof("distributed funds for user %s", st.userID)

	evt := events.FundsDistributedEvent{
		BaseEvent: events.NewBaseEvent(events.FundsDistributed, "matcher"),
		UserID:    st.userID,
	}
	if err := m.bus.Publish(ctx, m.topic, evt.ID, evt); err != nil {
		logger.Log.Errorf("failed to publish distribution event: %v", err)
	}
	return "Money sent to charities in portfolio"
}

// commitPortfolio resolves the working charity names to addresses, orders
// the addresses to match the name order, normalizes percentages to sum to
// 100 and submits the allocation.
func (m *Matcher) commitPortfolio(ctx context.Context, st *portfolioState) error {
	resolved, err := m.charities.CharityAddressesByName(ctx, st.names)
	if err != nil {
		return fmt.Errorf("resolve charity addresses: %w", err)
	}

	order := make(map[string]int, len(st.names))
	for i, name := range st.names {
		order[name] = i
	}
	sort.SliceStable(resolved, func(i, j int) bool {
		return order[resolved[i].Name] < order[resolved[j].Name]
	})

	addresses := make([]string, 0, len(resolved))
	for _, r := range resolved {
		addresses = append(addresses, r.Address)
	}

	percents := normalizePercents(st.percents)
	if err := m.wallet.SetCharities(ctx, st.userID, addresses, percents); err != nil {
		return err
	}
	st.submitted = true

	evt := events.PortfolioUpdatedEvent{
		BaseEvent:   events.NewBaseEvent(events.PortfolioUpdated, "matcher"),
		UserID:      st.userID,
		Charities:   append([]string(nil), st.names...),
		Percentages: percents,
	}
	if err := m.bus.Publish(ctx, m.topic, evt.ID, evt); err != nil {
		logger.Log.Errorf("failed to publish portfolio event: %v", err)
	}
	return nil
}

// normalizePercents rescales an allocation so it sums to 100. The model is
// asked for percentages summing to 100 but nothing enforces that on its
// side. A non-positive sum is returned unchanged for the wallet to reject.
func normalizePercents(percents []float64) []float64 {
	sum := 0.0
	for _, p := range percents {
		sum += p
	}
	if sum <= 0 {
		return percents
	}

	out := make([]float64, len(percents))
	for i, p := range percents {
		out[i] = p * 100 / sum
	}
	return out
}

func stringSliceArg(args map[string]any, key string) []string {
	raw, ok := args[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func floatSliceArg(args map[string]any, key string) []float64 {
	raw, ok := args[key].([]any)
	if !ok {
		return nil
	}
	out := make([]float64, 0, len(raw))
	for _, v := range raw {
		switch n := v.(type) {
		case float64:
			out = append(out, n)
		case int:
			out = append(out, float64(n))
		}
	}
	return out
}
