package platform

import (
	"regexp"
	"strings"
)

var (
	jobAppPrefixRe  = regexp.MustCompile(`(?i)^Job Application for\s+`)
	jobsSuffixRe    = regexp.MustCompile(`(?i)\s[-|–—]\s(?:jobs?)\.?$`)
	boardSuffixRe   = regexp.MustCompile(`(?i)\s[-|–—]\s(?:greenhouse|lever|ashby|workday|gem|rippling)\.?$`)
	maxSuffixPasses = 3
)

// NormalizeTitle cleans up titles as they come back from search results:
// Greenhouse's "Job Application for" prefix and the board-name suffixes the
// search engine appends ("Role - Greenhouse", "Role - Jobs").
func NormalizeTitle(title, link string) string {
	out := strings.TrimSpace(title)

	if Classify(link) == Greenhouse {
		out = strings.TrimSpace(jobAppPrefixRe.ReplaceAllString(out, ""))
	}

	for i := 0; i < maxSuffixPasses; i++ {
		next := strings.TrimSpace(boardSuffixRe.ReplaceAllString(jobsSuffixRe.ReplaceAllString(out, ""), ""))
		if next == out {
			break
		}
		out = next
	}
	return out
}
