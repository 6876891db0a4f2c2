package feeder_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"charity-matcher/feeder"
)

const feedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>World News</title>
    <item>
      <title>Climate Change Crisis</title>
      <description>Wildfires spread across the region.</description>
      <link>https://example.com/articles/1</link>
      <pubDate>Mon, 06 Jan 2025 10:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Flooding Displaces Thousands</title>
      <description>Rivers burst their banks overnight.</description>
      <link>https://example.com/articles/2</link>
      <pubDate>Mon, 06 Jan 2025 11:00:00 GMT</pubDate>
    </item>
  </channel>
</rss>`

type memLedger struct {
	seen map[string]bool
}

func (l *memLedger) Contains(link string) bool { return l.seen[link] }
func (l *memLedger) mark(link string)          { l.seen[link] = true }

func newFeedServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(feedXML))
	}))
}

func TestFetchSkipsProcessedArticles(t *testing.T) {
	srv := newFeedServer(t)
	defer srv.Close()

	ledger := &memLedger{seen: map[string]bool{}}
	in := feeder.New([]string{srv.URL}, ledger)
	in.EnrichFn = nil

	articles := in.Fetch(context.Background())
	require.Len(t, articles, 2)
	assert.Equal(t, "Climate Change Crisis", articles[0].Title)
	assert.Equal(t, "https://example.com/articles/1", articles[0].Link)
	assert.False(t, articles[0].PublishedAt.IsZero())

	// Marking every link processed makes a second pass return nothing.
	for _, a := range articles {
		ledger.mark(a.Link)
	}
	again := in.Fetch(context.Background())
	assert.Empty(t, again)
}

func TestFetchSurvivesBrokenSource(t *testing.T) {
	srv := newFeedServer(t)
	defer srv.Close()

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer broken.Close()

	in := feeder.New([]string{broken.URL, srv.URL}, &memLedger{seen: map[string]bool{}})
	in.EnrichFn = nil

	articles := in.Fetch(context.Background())
	assert.Len(t, articles, 2)
}

func TestFetchEnrichesEmptyDescriptions(t *testing.T) {
	const bareXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>t</title>
<item><title>No Description</title><link>https://example.com/articles/3</link></item>
</channel></rss>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(bareXML))
	}))
	defer srv.Close()

	in := feeder.New([]string{srv.URL}, &memLedger{seen: map[string]bool{}})
	in.EnrichFn = func(link string) string { return "fetched excerpt for " + link }

	articles := in.Fetch(context.Background())
	require.Len(t, articles, 1)
	assert.Equal(t, "fetched excerpt for https://example.com/articles/3", articles[0].Description)
}
