package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"sync"

	"charity-matcher/logger"
)

// Ledger is the persisted set of article links that were fully processed.
// Links are added once and never removed. Persistence is a whole-file
// rewrite on every mutation; this is a single-writer structure, multi-
// process deployments need external coordination.
type Ledger struct {
	mu    sync.Mutex
	path  string
	links map[string]struct{}
}

// OpenLedger loads the ledger file. A missing file starts an empty ledger;
// an unreadable one is logged and also starts empty rather than failing the
// process.
func OpenLedger(path string) *Ledger {
	l := &Ledger{path: path, links: map[string]struct{}{}}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Log.Warnf("failed to read processed-articles file %s: %v", path, err)
		}
		return l
	}

	var links []string
	if err := json.Unmarshal(data, &links); err != nil {
		logger.Log.Warnf("failed to parse processed-articles file %s: %v", path, err)
		return l
	}
	for _, link := range links {
		l.links[link] = struct{}{}
	}
	return l
}

// Contains reports whether the link was already processed.
func (l *Ledger) Contains(link string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.links[link]
	return ok
}

// MarkProcessed adds the link and persists the full set.
func (l *Ledger) MarkProcessed(link string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.links[link] = struct{}{}
	return l.save()
}

// Len returns the number of processed links.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.links)
}

func (l *Ledger) save() error {
	links := make([]string, 0, len(l.links))
	for link := range l.links {
		links = append(links, link)
	}
	sort.Strings(links)

	data, err := json.Marshal(links)
	if err != nil {
		return fmt.Errorf("marshal processed articles: %w", err)
	}
	if err := os.WriteFile(l.path, data, 0o644); err != nil {
		return fmt.Errorf("write processed articles: %w", err)
	}
	return nil
}
