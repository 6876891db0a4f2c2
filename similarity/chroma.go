package similarity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path"
	"sync"

	"charity-matcher/httpclient"
)

// ChromaConfig locates one tenant database on a Chroma server.
type ChromaConfig struct {
	BaseURL  string
	Tenant   string
	Database string
	APIKey   string
}

// Chroma is an HTTP client for the Chroma similarity service. Collection
// ids are resolved by name once and cached for the process lifetime.
type Chroma struct {
	base *httpclient.BaseClient
	cfg  ChromaConfig

	mu          sync.Mutex
	collections map[string]string // name -> id
}

var _ Index = (*Chroma)(nil)

func NewChroma(cfg ChromaConfig) *Chroma {
	return &Chroma{
		base:        httpclient.NewBaseClient(cfg.BaseURL),
		cfg:         cfg,
		collections: map[string]string{},
	}
}

func (c *Chroma) collectionsPath() string {
	return path.Join("/api/v2/tenants", c.cfg.Tenant, "databases", c.cfg.Database, "collections")
}

func (c *Chroma) do(ctx context.Context, method, relPath string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := c.base.NewRequest(ctx, method, relPath, nil, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("x-chroma-token", c.cfg.APIKey)
	}

	resp, err := c.base.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("chroma %s %s: status=%d body=%s", method, relPath, resp.StatusCode, string(snippet))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// resolveCollection turns a collection name into its server-side id.
func (c *Chroma) resolveCollection(ctx context.Context, name string) (string, error) {
	c.mu.Lock()
	if id, ok := c.collections[name]; ok {
		c.mu.Unlock()
		return id, nil
	}
	c.mu.Unlock()

	var listed []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := c.do(ctx, http.MethodGet, c.collectionsPath(), nil, &listed); err != nil {
		return "", fmt.Errorf("list collections: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, col := range listed {
		c.collections[col.Name] = col.ID
	}
	id, ok := c.collections[name]
	if !ok {
		return "", fmt.Errorf("collection %q not found", name)
	}
	return id, nil
}

func (c *Chroma) Get(ctx context.Context, collection string) (*QueryResult, error) {
	id, err := c.resolveCollection(ctx, collection)
	if err != nil {
		return nil, err
	}

	var out struct {
		IDs       []string `json:"ids"`
		Documents []string `json:"documents"`
	}
	payload := map[string]any{"include": []string{"documents"}}
	if err := c.do(ctx, http.MethodPost, path.Join(c.collectionsPath(), id, "get"), payload, &out); err != nil {
		return nil, err
	}
	return &QueryResult{IDs: out.IDs, Documents: out.Documents}, nil
}

func (c *Chroma) Query(ctx context.Context, collection, text string, where map[string]string, n int) (*QueryResult, error) {
	id, err := c.resolveCollection(ctx, collection)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"query_texts": []string{text},
		"n_results":   n,
		"include":     []string{"documents", "distances"},
	}
	if len(where) > 0 {
		filter := map[string]any{}
		for field, value := range where {
			filter[field] = map[string]any{"$eq": value}
		}
		payload["where"] = filter
	}

	// Chroma nests results one level per query text; we always send one.
	var out struct {
		IDs       [][]string  `json:"ids"`
		Documents [][]string  `json:"documents"`
		Distances [][]float64 `json:"distances"`
	}
	if err := c.do(ctx, http.MethodPost, path.Join(c.collectionsPath(), id, "query"), payload, &out); err != nil {
		return nil, err
	}

	res := &QueryResult{}
	if len(out.IDs) > 0 {
		res.IDs = out.IDs[0]
	}
	if len(out.Documents) > 0 {
		res.Documents = out.Documents[0]
	}
	if len(out.Distances) > 0 {
		res.Distances = out.Distances[0]
	}
	return res, nil
}
