// Package ashby validates Ashby job pages. Ashby pages are client-rendered,
// so callers fetch them through the Renderer and wait for the left pane; the
// extractor works on whatever HTML came back, rendered or not.
package ashby

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// WaitSelector is the marker the renderer waits for before snapshotting.
const WaitSelector = ".ashby-job-posting-left-pane"

type LocationInfo struct {
	Location     string
	LocationType string
}

// ExtractLocation reads the "Location" / "Location Type" heading pairs Ashby
// renders as <h2>label</h2><p>value</p>.
func ExtractLocation(body string) LocationInfo {
	var info LocationInfo

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return info
	}

	value := func(label string) string {
		var out string
		doc.Find("h2").EachWithBreak(func(_ int, h *goquery.Selection) bool {
			if !strings.EqualFold(strings.TrimSpace(h.Text()), label) {
				return true
			}
			out = strings.TrimSpace(h.Parent().Find("p").First().Text())
			return false
		})
		return out
	}

	info.Location = value("Location")
	info.LocationType = value("Location Type")
	return info
}

func HasErrorCopy(body string) bool {
	low := strings.ToLower(body)
	return strings.Contains(low, "the job you requested was not found") ||
		strings.Contains(low, "job not found") ||
		strings.Contains(low, "page not found")
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

var usMarkerRe = regexp.MustCompile(`(?i)\bu\.?s\.?a?\b|united states`)

// Valid applies the Ashby eligibility rule. Remote counts only when the
// location text also pins the role to the US or the Bay Area; a bare
// "Remote" could be restricted to any country. An unrecognized location type
// is treated as a negative signal, while no type at all falls back to
// location-token matching.
func (l LocationInfo) Valid() bool {
	if l.Location == "" {
		return false
	}

	loc := strings.ToLower(l.Location)
	lt := strings.ToLower(strings.TrimSpace(l.LocationType))

	hasSF := false
	for _, v := range sfVariations {
		if strings.Contains(loc, v) {
			hasSF = true
			break
		}
	}
	isRemote := strings.Contains(loc, "remote") || lt == "remote"
	remoteInRegion := isRemote && (hasSF || usMarkerRe.MatchString(loc))

	switch lt {
	case "on-site":
		return hasSF
	case "hybrid", "remote":
		return remoteInRegion || hasSF
	case "":
		return hasSF || remoteInRegion
	}
	return false
}
