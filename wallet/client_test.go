package wallet_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"charity-matcher/wallet"
)

func TestGetUserPortfolio(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/users/user-1/portfolio":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"addresses":   []string{"0xabc", "0xdef"},
				"percentages": []float64{60, 40},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := wallet.New(srv.URL)

	p, err := c.GetUserPortfolio(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"0xabc", "0xdef"}, p.Addresses)
	assert.Equal(t, []float64{60, 40}, p.Percentages)

	_, err = c.GetUserPortfolio(context.Background(), "ghost")
	assert.ErrorIs(t, err, wallet.ErrUserNotFound)
}

func TestSetCharitiesSendsAlignedArrays(t *testing.T) {
	var got struct {
		Addresses   []string  `json:"addresses"`
		Percentages []float64 `json:"percentages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := wallet.New(srv.URL)
	err := c.SetCharities(context.Background(), "user-1", []string{"0x1", "0x2"}, []float64{70, 30})
	require.NoError(t, err)
	assert.Equal(t, []string{"0x1", "0x2"}, got.Addresses)
	assert.Equal(t, []float64{70, 30}, got.Percentages)
}
