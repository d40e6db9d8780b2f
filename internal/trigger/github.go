// Package trigger fires the repository_dispatch event that starts the
// browser-based validation workflow on GitHub Actions. Ashby and Gem pages
// need a real browser; the workflow runs one and reports results back
// through the worker endpoints.
package trigger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const dispatchEventType = "validate-jobs"

type GitHub struct {
	hc    *http.Client
	token string
	// repo is "owner/name".
	repo    string
	baseURL string
}

func NewGitHub(hc *http.Client, token, repo string) *GitHub {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &GitHub{hc: hc, token: token, repo: repo, baseURL: "https://api.github.com"}
}

// Configured reports whether dispatching is possible. An unset token is
// normal on dev machines; callers skip the trigger instead of failing.
func (g *GitHub) Configured() bool {
	return g != nil && g.token != "" && g.repo != ""
}

// DispatchValidation asks GitHub Actions to run the browser validation
// workflow.
func (g *GitHub) DispatchValidation(ctx context.Context) error {
	if !g.Configured() {
		return fmt.Errorf("github trigger: token or repo not configured")
	}

	body, err := json.Marshal(map[string]string{"event_type": dispatchEventType})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/repos/%s/dispatches", g.baseURL, g.repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+g.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")

	resp, err := g.hc.Do(req)
	if err != nil {
		return fmt.Errorf("github dispatch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		errText, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("github dispatch: status %d: %s", resp.StatusCode, bytes.TrimSpace(errText))
	}
	return nil
}
