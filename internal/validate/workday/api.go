package workday

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	pageLimit = 20
	maxPages  = 150

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

type Posting struct {
	ExternalPath  string `json:"externalPath"`
	LocationsText string `json:"locationsText"`
	RemoteType    string `json:"remoteType"`
}

type searchResponse struct {
	JobPostings []Posting `json:"jobPostings"`
	Total       int       `json:"total"`
}

type DetailInfo struct {
	Location            string   `json:"location"`
	AdditionalLocations []string `json:"additionalLocations"`
	RemoteType          string   `json:"remoteType"`
	Posted              *bool    `json:"posted"`
}

type Detail struct {
	JobPostingInfo *DetailInfo `json:"jobPostingInfo"`
}

type Client struct {
	hc      *http.Client
	timeout time.Duration
}

func NewClient(hc *http.Client, timeout time.Duration) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{hc: hc, timeout: timeout}
}

// BoardPostings pages through a board's CXS jobs endpoint and returns every
// posting. Some tenants only answer on /jobs/search, so that is tried when
// /jobs never responds. A nil slice with nil error means both endpoints
// refused, which callers treat as "index unavailable", not "board empty".
func (c *Client) BoardPostings(ctx context.Context, board Board) ([]Posting, error) {
	endpoints := []string{
		fmt.Sprintf("%s/wday/cxs/%s/%s/jobs", board.Origin, board.Tenant, board.Site),
		fmt.Sprintf("%s/wday/cxs/%s/%s/jobs/search", board.Origin, board.Tenant, board.Site),
	}

	for _, endpoint := range endpoints {
		postings := []Posting{}
		offset := 0
		successful := false

		for page := 0; page < maxPages; page++ {
			resp, err := c.searchPage(ctx, endpoint, offset)
			if err != nil {
				return nil, err
			}
			if resp == nil {
				break
			}
			successful = true

			if len(resp.JobPostings) == 0 {
				return postings, nil
			}
			postings = append(postings, resp.JobPostings...)
			offset += pageLimit

			if resp.Total > 0 && len(postings) >= resp.Total {
				return postings, nil
			}
			if len(resp.JobPostings) < pageLimit {
				return postings, nil
			}
		}

		if successful {
			return postings, nil
		}
	}

	return nil, nil
}

// searchPage returns nil without error on a non-2xx status so the caller can
// fall through to the next endpoint.
func (c *Client) searchPage(ctx context.Context, endpoint string, offset int) (*searchResponse, error) {
	body, err := json.Marshal(map[string]any{
		"appliedFacets": map[string]any{},
		"limit":         pageLimit,
		"offset":        offset,
		"searchText":    "",
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("board page fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		io.Copy(io.Discard, resp.Body)
		return nil, nil
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("board page decode: %w", err)
	}
	return &payload, nil
}

// Detail fetches the single-posting CXS endpoint for links that missed the
// board index. Returns nil on any non-2xx status.
func (c *Client) Detail(ctx context.Context, parsed Parsed) (*Detail, error) {
	if parsed.JobPath == "" {
		return nil, nil
	}
	endpoint := fmt.Sprintf("%s/wday/cxs/%s/%s%s",
		parsed.Origin, parsed.Tenant, parsed.Site, parsed.JobPath)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("detail fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		io.Copy(io.Discard, resp.Body)
		return nil, nil
	}

	var payload Detail
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("detail decode: %w", err)
	}
	return &payload, nil
}
