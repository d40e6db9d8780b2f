// Package gem validates Gem (jobs.gem.com) pages. The pages are
// client-rendered with hashed class names, so extraction keys off the
// iconLabel-N / labelText-N class prefixes and falls back to scanning the
// stripped text for known location and workplace tokens.
package gem

import (
	"regexp"
	"strings"
)

// WaitSelector is the marker the renderer waits for before snapshotting.
const WaitSelector = `[class^="iconLabel"]`

type LocationInfo struct {
	Location      string
	WorkplaceType string
}

var workplaceValues = []string{"hybrid", "remote", "in office", "on-site", "on site", "onsite"}

var (
	tagRe        = regexp.MustCompile(`<[^>]*>`)
	spaceRe      = regexp.MustCompile(`\s+`)
	locationHint = regexp.MustCompile(`(?i)(san francisco|bay area|sf bay|san jose|oakland|berkeley|palo alto|mountain view|redwood city|menlo park|fremont|remote)`)
	locationRe   = regexp.MustCompile(`(?i)\b(san francisco(?:\s*bay\s*area)?|bay area|sf bay(?: area)?|san jose|oakland|berkeley|palo alto|mountain view|redwood city|menlo park|fremont|remote)\b`)
	workplaceRe  = regexp.MustCompile(`(?i)\b(hybrid|remote|in office|on-site|on site|onsite)\b`)
)

func cleanText(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

func classTextValues(body, classPrefix string) []string {
	re := regexp.MustCompile(`(?is)<div\s+class="` + classPrefix + `-\d+"[^>]*>(.*?)</div>`)
	var out []string
	for _, m := range re.FindAllStringSubmatch(body, -1) {
		if v := cleanText(tagRe.ReplaceAllString(m[1], " ")); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func isWorkplaceValue(v string) bool {
	low := strings.ToLower(v)
	for _, w := range workplaceValues {
		if low == w {
			return true
		}
	}
	return false
}

func HasErrorCopy(body string) bool {
	low := strings.ToLower(body)
	for _, phrase := range []string{
		"job not found",
		"the link you followed may be out of date",
		"this job post may have been removed",
		"page not found",
		"this position has been filled",
		"this role has been filled",
		"no longer accepting applications",
	} {
		if strings.Contains(low, phrase) {
			return true
		}
	}
	return false
}

// ExtractLocation pulls location and workplace type out of a Gem page.
// The iconLabel values are preferred; the stripped page text is the fallback
// for either field.
func ExtractLocation(body string) LocationInfo {
	text := cleanText(tagRe.ReplaceAllString(body, " "))

	iconLabels := classTextValues(body, "iconLabel")
	labelTexts := classTextValues(body, "labelText")

	var info LocationInfo
	for _, v := range append(append([]string{}, iconLabels...), labelTexts...) {
		if isWorkplaceValue(v) {
			info.WorkplaceType = v
			break
		}
	}
	if info.WorkplaceType == "" {
		if m := workplaceRe.FindStringSubmatch(text); m != nil {
			info.WorkplaceType = cleanText(m[1])
		}
	}

	for _, v := range iconLabels {
		if isWorkplaceValue(v) {
			continue
		}
		if locationHint.MatchString(v) {
			info.Location = v
			break
		}
	}
	if info.Location == "" {
		if m := locationRe.FindStringSubmatch(text); m != nil {
			info.Location = cleanText(m[1])
		}
	}
	return info
}

var bayAreaVariations = []string{
	"san francisco",
	"sf bay area",
	"sf bay",
	"bay area",
	"san francisco bay area",
	"san francisco,",
	"sf,",
	"sf ",
	"san jose",
	"oakland",
	"berkeley",
	"palo alto",
	"mountain view",
	"redwood city",
	"menlo park",
	"fremont",
}

var nonBayAreaMarkers = []string{
	"new york",
	"athens",
	"greece",
	"canada",
	"london",
	"seattle",
	"austin",
	"boston",
	"los angeles",
}

// Valid applies the Gem eligibility rule. A known non-Bay-Area marker in the
// location text rejects outright. Every recognized workplace type, remote and
// hybrid included, still needs a Bay Area token; an unrecognized type is a
// negative signal, and a missing type falls back to the token match alone.
func (l LocationInfo) Valid() bool {
	if l.Location == "" {
		return false
	}

	loc := strings.ToLower(l.Location)
	wt := strings.ToLower(strings.TrimSpace(l.WorkplaceType))

	for _, marker := range nonBayAreaMarkers {
		if strings.Contains(loc, marker) {
			return false
		}
	}

	hasBayArea := false
	for _, v := range bayAreaVariations {
		if strings.Contains(loc, v) {
			hasBayArea = true
			break
		}
	}

	switch wt {
	case "in office", "on-site", "hybrid", "remote":
		return hasBayArea
	case "":
		return hasBayArea
	}
	return false
}
