// Package rippling validates Rippling ATS job pages. The embedded
// __NEXT_DATA__ payload is the reliable source for work locations; the
// sidebar location icon is the fallback for pages that render it server-side.
package rippling

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var nextDataRe = regexp.MustCompile(`(?is)<script[^>]*id=["']__NEXT_DATA__["'][^>]*>(.*?)</script>`)

type nextData struct {
	Props struct {
		PageProps struct {
			APIData struct {
				WorkLocations []string `json:"workLocations"`
				JobPost       struct {
					WorkLocations []string `json:"workLocations"`
				} `json:"jobPost"`
			} `json:"apiData"`
			WorkLocations []string `json:"workLocations"`
		} `json:"pageProps"`
	} `json:"props"`
}

// WorkLocationsFromNextData pulls workLocations out of the __NEXT_DATA__
// blob, trying the apiData, jobPost, and pageProps placements in that order.
// Returns nil when the blob is absent, unparseable, or carries no locations.
func WorkLocationsFromNextData(body string) []string {
	m := nextDataRe.FindStringSubmatch(body)
	if m == nil {
		return nil
	}

	var payload nextData
	if err := json.Unmarshal([]byte(strings.TrimSpace(m[1])), &payload); err != nil {
		return nil
	}

	pp := payload.Props.PageProps
	candidates := [][]string{
		pp.APIData.WorkLocations,
		pp.APIData.JobPost.WorkLocations,
		pp.WorkLocations,
	}
	for _, locs := range candidates {
		if len(locs) == 0 {
			continue
		}
		var out []string
		for _, l := range locs {
			if strings.TrimSpace(l) != "" {
				out = append(out, l)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

// LocationFromSidebar reads the paragraph next to the LOCATION_OUTLINE icon.
func LocationFromSidebar(body string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return ""
	}

	var out string
	doc.Find(`[data-icon="LOCATION_OUTLINE"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if p := s.Parent().Find("p").First(); p.Length() > 0 {
			out = strings.TrimSpace(p.Text())
			return false
		}
		return true
	})
	return out
}

func HasErrorCopy(body string) bool {
	low := strings.ToLower(body)
	return strings.Contains(low, "the page you're looking for doesn't exist") ||
		strings.Contains(low, "the link you followed may be broken") ||
		strings.Contains(low, "listing may have been removed") ||
		strings.Contains(low, "404 | page not found")
}

var sfVariations = []string{
	"san francisco",
	"sf bay area",
	"sf bay",
	"bay area",
	"san francisco bay area",
	"san francisco,",
	"sf,",
	"sf ",
}

// ValidLocation accepts any remote role or an explicit Bay Area token.
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

// PageValid reports whether the fetched page is a live, eligible posting.
// The "apply now" string doubles as a liveness check since Rippling serves
// its not-found page with a 200.
func PageValid(body string) bool {
	if HasErrorCopy(body) {
		return false
	}
	if !strings.Contains(strings.ToLower(body), "apply now") {
		return false
	}

	if locs := WorkLocationsFromNextData(body); len(locs) > 0 {
		for _, l := range locs {
			if ValidLocation(l) {
				return true
			}
		}
		return false
	}

	return ValidLocation(LocationFromSidebar(body))
}
