package matcher

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"charity-matcher/config"
	"charity-matcher/llm"
	"charity-matcher/models"
	"charity-matcher/similarity"
	"charity-matcher/store"
)

// fakeChat replays a scripted sequence of turns. Once the script runs out it
// keeps answering with plain text and no tool calls.
type fakeChat struct {
	turns    []llm.Turn
	idx      int
	sendErr  error
	appended []string
}

func (c *fakeChat) AddUserText(text string) {
	c.appended = append(c.appended, "user: "+text)
}

func (c *fakeChat) AddToolResult(name, result string) {
	c.appended = append(c.appended, name+": "+result)
}

func (c *fakeChat) Send(ctx context.Context) (*llm.Turn, error) {
	if c.sendErr != nil {
		return nil, c.sendErr
	}
	if c.idx >= len(c.turns) {
		return &llm.Turn{Text: "thinking"}, nil
	}
	t := c.turns[c.idx]
	c.idx++
	return &t, nil
}

// fakeLLM hands out scripted chats in order and serves a fixed GenerateText
// response.
type fakeLLM struct {
	chats   []*fakeChat
	next    int
	text    string
	textErr error
	systems []string
}

func (f *fakeLLM) GenerateText(ctx context.Context, system, prompt string) (string, error) {
	return f.text, f.textErr
}

func (f *fakeLLM) NewChat(system string, tools []llm.Tool) llm.Chat {
	f.systems = append(f.systems, system)
	if f.next < len(f.chats) {
		c := f.chats[f.next]
		f.next++
		return c
	}
	return &fakeChat{}
}

func toolCall(name string, args map[string]any) llm.ToolCall {
	return llm.ToolCall{Name: name, Args: args}
}

// fakeIndex serves canned results per collection and records the last query.
type fakeIndex struct {
	getResults   map[string]*similarity.QueryResult
	queryResults map[string]*similarity.QueryResult
	queryErr     error

	lastQueryText string
	lastWhere     map[string]string
	lastN         int
}

func (f *fakeIndex) Get(ctx context.Context, collection string) (*similarity.QueryResult, error) {
	if res, ok := f.getResults[collection]; ok {
		return res, nil
	}
	return nil, fmt.Errorf("unknown collection %s", collection)
}

func (f *fakeIndex) Query(ctx context.Context, collection, text string, where map[string]string, n int) (*similarity.QueryResult, error) {
	f.lastQueryText = text
	f.lastWhere = where
	f.lastN = n
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	if res, ok := f.queryResults[collection]; ok {
		return res, nil
	}
	return &similarity.QueryResult{}, nil
}

// fakeCharityStore is an in-memory relational collaborator.
type fakeCharityStore struct {
	charitiesBySlug map[string][]models.Charity
	subscribers     map[string][]models.Subscription
	users           []models.User
	namesByAddress  map[string]string
	addressesByName map[string]string

	subscribersErr error
	usersErr       error
	charitiesErr   error

	lastSlug string
}

func (f *fakeCharityStore) CharitiesForCategory(ctx context.Context, slug string) ([]models.Charity, error) {
	f.lastSlug = slug
	if f.charitiesErr != nil {
		return nil, f.charitiesErr
	}
	return f.charitiesBySlug[slug], nil
}

func (f *fakeCharityStore) UsersForCategory(ctx context.Context, category string) ([]models.Subscription, error) {
	if f.subscribersErr != nil {
		return nil, f.subscribersErr
	}
	return f.subscribers[category], nil
}

func (f *fakeCharityStore) AllUsers(ctx context.Context) ([]models.User, error) {
	if f.usersErr != nil {
		return nil, f.usersErr
	}
	return f.users, nil
}

func (f *fakeCharityStore) CharityNamesByAddress(ctx context.Context, addresses []string) ([]string, error) {
	var names []string
	for _, addr := range addresses {
		if name, ok := f.namesByAddress[addr]; ok {
			names = append(names, name)
		}
	}
	return names, nil
}

func (f *fakeCharityStore) CharityAddressesByName(ctx context.Context, names []string) ([]models.CharityAddress, error) {
	// Returned in map iteration independent order: sorted by address to make
	// sure callers do their own ordering.
	var out []models.CharityAddress
	for _, name := range names {
		if addr, ok := f.addressesByName[name]; ok {
			out = append(out, models.CharityAddress{Name: name, Address: addr})
		}
	}
	// reverse to exercise reordering at the call site
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

type setCharitiesCall struct {
	userID      string
	addresses   []string
	percentages []float64
}

// fakeWallet records every write against the blockchain collaborator.
type fakeWallet struct {
	portfolios   map[string]*models.Portfolio
	portfolioErr error

	setCalls        []setCharitiesCall
	distributeCalls []string
}

func (f *fakeWallet) GetUserPortfolio(ctx context.Context, userID string) (*models.Portfolio, error) {
	if f.portfolioErr != nil {
		return nil, f.portfolioErr
	}
	if p, ok := f.portfolios[userID]; ok {
		return p, nil
	}
	return &models.Portfolio{}, nil
}

func (f *fakeWallet) SetCharities(ctx context.Context, userID string, addresses []string, percentages []float64) error {
	f.setCalls = append(f.setCalls, setCharitiesCall{userID: userID, addresses: addresses, percentages: percentages})
	return nil
}

func (f *fakeWallet) DistributeFunds(ctx context.Context, userID string) error {
	f.distributeCalls = append(f.distributeCalls, userID)
	return nil
}

func newTestMatcher(t *testing.T, agent, urgency llm.Client, index *fakeIndex, cs *fakeCharityStore, w *fakeWallet) *Matcher {
	t.Helper()
	dir := t.TempDir()
	m, err := New(context.Background(), Options{
		Agent:           agent,
		Urgency:         urgency,
		Index:           index,
		Charities:       cs,
		Wallet:          w,
		Processed:       store.OpenLedger(filepath.Join(dir, "processed.json")),
		Recommendations: store.OpenRecommendationStore(filepath.Join(dir, "recommendations.json")),
		MaxRounds:       4,
		CategorySlugs:   config.DefaultCategorySlugs(),
	})
	require.NoError(t, err)
	return m
}

func environmentIndex() *fakeIndex {
	return &fakeIndex{
		getResults: map[string]*similarity.QueryResult{
			"categories": {
				IDs:       []string{"cat-1"},
				Documents: []string{"Environment"},
			},
		},
		queryResults: map[string]*similarity.QueryResult{},
	}
}
