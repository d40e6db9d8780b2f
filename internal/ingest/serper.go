package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const defaultSerperEndpoint = "https://google.serper.dev/search"

// SerperResult is one organic hit from the Serper search API.
type SerperResult struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet"`
	Position int    `json:"position"`
}

type serperResponse struct {
	Organic []SerperResult `json:"organic"`
}

type SerperClient struct {
	hc       *http.Client
	apiKey   string
	endpoint string
}

func NewSerperClient(hc *http.Client, apiKey string) *SerperClient {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &SerperClient{hc: hc, apiKey: apiKey, endpoint: defaultSerperEndpoint}
}

// Search runs one query, restricted to results from the past week. Twenty
// results per query is plenty: job searches repeat daily and dedupe on link.
func (c *SerperClient) Search(ctx context.Context, query string) ([]SerperResult, error) {
	body, err := json.Marshal(map[string]any{
		"q":   query,
		"num": 20,
		"tbs": "qdr:w",
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("serper request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		errText, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("serper api: status %d: %s", resp.StatusCode, bytes.TrimSpace(errText))
	}

	var payload serperResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("serper decode: %w", err)
	}
	return payload.Organic, nil
}
