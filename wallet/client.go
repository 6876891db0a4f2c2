package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path"

	"charity-matcher/httpclient"
	"charity-matcher/models"
)

// Client is a thin client for the wallet service, the HTTP facade in front
// of the donation smart contract. It is the sole source of truth for
// portfolio allocations; the pipeline never persists them locally.
type Client struct {
	base *httpclient.BaseClient
}

var ErrUserNotFound = fmt.Errorf("wallet user not found")

func New(baseURL string) *Client {
	return &Client{base: httpclient.NewBaseClient(baseURL)}
}

// GetUserPortfolio fetches the on-chain allocation for a user.
// ErrUserNotFound means the user has no wallet entry at all.
func (c *Client) GetUserPortfolio(ctx context.Context, userID string) (*models.Portfolio, error) {
	relPath := path.Join("/api/v1/users", userID, "portfolio")
	req, err := c.base.NewRequest(ctx, http.MethodGet, relPath, nil, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.base.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var p models.Portfolio
		if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
			return nil, fmt.Errorf("decode portfolio: %w", err)
		}
		return &p, nil
	case http.StatusNotFound:
		return nil, ErrUserNotFound
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("wallet GetUserPortfolio: status=%d body=%s", resp.StatusCode, string(body))
	}
}

type setCharitiesRequest struct {
	Addresses   []string  `json:"addresses"`
	Percentages []float64 `json:"percentages"`
}

// SetCharities replaces the user's allocation with the given addresses and
// percentages, aligned by index.
func (c *Client) SetCharities(ctx context.Context, userID string, addresses []string, percentages []float64) error {
	payload, err := json.Marshal(setCharitiesRequest{Addresses: addresses, Percentages: percentages})
	if err != nil {
		return err
	}

	relPath := path.Join("/api/v1/users", userID, "charities")
	req, err := c.base.NewRequest(ctx, http.MethodPut, relPath, nil, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.base.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("wallet SetCharities: status=%d body=%s", resp.StatusCode, string(body))
	}
	return nil
}

// DistributeFunds triggers the contract's split across the user's current
// portfolio.
func (c *Client) DistributeFunds(ctx context.Context, userID string) error {
	relPath := path.Join("/api/v1/users", userID, "distribute")
	req, err := c.base.NewRequest(ctx, http.MethodPost, relPath, nil, nil)
	if err != nil {
		return err
	}

	resp, err := c.base.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("wallet DistributeFunds: status=%d body=%s", resp.StatusCode, string(body))
	}
	return nil
}
