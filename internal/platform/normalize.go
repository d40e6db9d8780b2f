package platform

import (
	"net/url"
	"regexp"
	"strings"
)

var applySuffixRe = regexp.MustCompile(`/(application|apply|career-opportunity)$`)

// NormalizeURL canonicalizes a job link so semantically identical postings
// compare equal: trailing slash dropped, platform apply-page suffixes
// stripped, query and fragment discarded. Unparseable links come back
// unchanged so callers can still key on them.
func NormalizeURL(link string) string {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil || u.Host == "" {
		return link
	}

	pathname := strings.TrimSuffix(u.Path, "/")
	host := strings.ToLower(u.Hostname())

	switch {
	case strings.Contains(host, "ashbyhq"):
		pathname = strings.TrimSuffix(pathname, "/application")
	case strings.Contains(host, "lever"):
		pathname = strings.TrimSuffix(pathname, "/apply")
	default:
		pathname = applySuffixRe.ReplaceAllString(pathname, "")
	}

	return u.Scheme + "://" + u.Host + pathname
}

// HasUnnecessarySuffix reports whether the link still carries an apply-page
// suffix that NormalizeURL would strip.
func HasUnnecessarySuffix(link string) bool {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return false
	}
	return applySuffixRe.MatchString(strings.TrimSuffix(u.Path, "/"))
}
