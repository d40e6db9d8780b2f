package platform

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	uuidRe         = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	trailingDigits = regexp.MustCompile(`\d+$`)
)

// IsValidJobLink asserts the link matches a known job-permalink shape for its
// platform. This is a strict allowlist: anything unparseable, off-platform,
// or shaped like a board/landing page is rejected.
func IsValidJobLink(link string) bool {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil || u.Host == "" {
		return false
	}

	parts := splitPath(u.Path)

	switch Classify(link) {
	case Greenhouse:
		// /jobs/<id> or /<company>/jobs/<id>
		if len(parts) == 0 {
			return false
		}
		return containsSegment(parts, "jobs") && trailingDigits.MatchString(parts[len(parts)-1])
	case Lever:
		// /<company>/<uuid>[/apply]
		return len(parts) >= 2 && isUUID(parts[1])
	case Ashby:
		// /<company>/<uuid>[/application]
		if len(parts) == 2 {
			return isUUID(parts[1])
		}
		return len(parts) == 3 && isUUID(parts[1]) && parts[2] == "application"
	case Workday:
		// .../job/<location>/<title>_<req-id>
		return containsSegment(parts, "job")
	case Gem:
		// /<company>/<posting-token>
		return len(parts) >= 2
	case Rippling:
		// /<company>/jobs/<uuid>
		return containsSegment(parts, "jobs") && isUUID(parts[len(parts)-1])
	}
	return false
}

func splitPath(p string) []string {
	var out []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func containsSegment(parts []string, seg string) bool {
	for _, p := range parts {
		if strings.EqualFold(p, seg) {
			return true
		}
	}
	return false
}

func isUUID(s string) bool {
	return uuidRe.MatchString(strings.ToLower(s))
}
