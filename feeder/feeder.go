package feeder

import (
	"context"
	"crypto/tls"
	"net/http"
	"time"

	readability "github.com/go-shiori/go-readability"
	"github.com/mmcdole/gofeed"

	"charity-matcher/logger"
	"charity-matcher/models"
)

// Ledger answers whether an article link was already fully processed.
type Ledger interface {
	Contains(link string) bool
}

// Ingester pulls articles from the configured RSS sources, skipping entries
// the ledger already knows. It never writes to the ledger itself; marking
// happens only after an article was fully processed downstream.
type Ingester struct {
	sources []string
	ledger  Ledger
	parser  *gofeed.Parser

	// EnrichFn fills in a description for entries whose feed carries none.
	// Defaults to a readability excerpt of the linked page; tests may
	// replace or nil it.
	EnrichFn func(link string) string
}

func New(sources []string, ledger Ledger) *Ingester {
	httpClient := &http.Client{
		Timeout: 15 * time.Second,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, // some feeds ship broken cert chains
		},
	}

	fp := gofeed.NewParser()
	fp.Client = httpClient

	return &Ingester{
		sources:  sources,
		ledger:   ledger,
		parser:   fp,
		EnrichFn: readabilityExcerpt,
	}
}

// Fetch returns the newly seen articles across all sources. A failing source
// is logged and skipped so the remaining sources still get processed.
func (in *Ingester) Fetch(ctx context.Context) []models.Article {
	var articles []models.Article
	for _, src := range in.sources {
		feed, err := in.parser.ParseURLWithContext(src, ctx)
		if err != nil {
			logger.ErrorWithFields("failed to fetch rss feed", logger.Fields{
				"source": src,
				"error":  err.Error(),
			})
			continue
		}

		for _, item := range feed.Items {
			if item.Link == "" || (in.ledger != nil && in.ledger.Contains(item.Link)) {
				continue
			}

			var published time.Time
			if item.PublishedParsed != nil {
				published = *item.PublishedParsed
			} else if item.UpdatedParsed != nil {
				published = *item.UpdatedParsed
			}

			description := item.Description
			if description == "" && in.EnrichFn != nil {
				description = in.EnrichFn(item.Link)
			}

			articles = append(articles, models.Article{
				Title:       item.Title,
				Description: description,
				Link:        item.Link,
				PublishedAt: published,
			})
		}
	}
	return articles
}

// readabilityExcerpt fetches the article page and extracts a short excerpt.
// Failures just yield an empty description.
func readabilityExcerpt(link string) string {
	article, err := readability.FromURL(link, 10*time.Second)
	if err != nil {
		logger.DebugWithFields("description enrichment failed", logger.Fields{
			"link":  link,
			"error": err.Error(),
		})
		return ""
	}
	return article.Excerpt
}
