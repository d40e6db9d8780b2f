// Package greenhouse validates Greenhouse job pages. Greenhouse serves a
// normal 200 for dead links and redirects to the board root (or another job),
// so the canonical link tag is the strongest removal signal.
package greenhouse

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var jobIDRe = regexp.MustCompile(`/jobs/(\d+)`)

// Page holds the signals validation needs from a fetched Greenhouse page.
type Page struct {
	Location     string
	CanonicalURL string

	lowerBody string
}

func Parse(body string) Page {
	p := Page{lowerBody: strings.ToLower(body)}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return p
	}
	if content, ok := doc.Find(`meta[property="og:description"]`).First().Attr("content"); ok {
		p.Location = strings.TrimSpace(content)
	}
	if href, ok := doc.Find(`link[rel="canonical"]`).First().Attr("href"); ok {
		p.CanonicalURL = strings.TrimSpace(href)
	}
	return p
}

func (p Page) HasErrorCopy() bool {
	return strings.Contains(p.lowerBody, "this job is no longer available") ||
		strings.Contains(p.lowerBody, "not found")
}

// Valid reports whether the page still represents the job that was requested.
// A missing or unparseable canonical tag counts as valid: a malformed
// canonical is not strong evidence of removal, and deletion needs confidence.
func (p Page) Valid(requested *url.URL) bool {
	if p.HasErrorCopy() {
		return false
	}
	if !ValidLocation(p.Location) {
		return false
	}

	if p.CanonicalURL == "" {
		return true
	}
	canonical, err := url.Parse(p.CanonicalURL)
	if err != nil {
		return true
	}

	if canonical.Query().Get("error") == "true" {
		return false
	}

	requestedID := jobID(requested.Path)
	canonicalID := jobID(canonical.Path)

	// Requested a specific job but canonical points at the board root: the
	// platform redirected a dead link.
	if requestedID != "" && canonicalID == "" {
		return false
	}
	if requestedID != "" && canonicalID != "" && requestedID != canonicalID {
		return false
	}
	return true
}

func jobID(path string) string {
	m := jobIDRe.FindStringSubmatch(strings.TrimRight(path, "/"))
	if m == nil {
		return ""
	}
	return m[1]
}

var sfVariations = []string{
	"san francisco",
	"sf bay area",
	"sf bay",
	"bay area",
	"san francisco bay area",
	"san francisco, ca",
	"sf,",
	"sf ", // trailing space avoids matching unrelated words
}

// ValidLocation applies the Greenhouse eligibility rule: any remote role, or
// an explicit San Francisco / Bay Area token. An empty og:description means
// an error page or a board root.
func ValidLocation(location string) bool {
	loc := strings.ToLower(strings.TrimSpace(location))
	if loc == "" {
		return false
	}
	if strings.Contains(loc, "remote") {
		return true
	}
	for _, v := range sfVariations {
		if strings.Contains(loc, v) {
			return true
		}
	}
	return false
}
