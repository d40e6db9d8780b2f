package platform

import (
	"net/url"
	"regexp"
	"strings"
)

var atCompanyRe = regexp.MustCompile(`(?i)at\s+(.+?)(?:\s*[-|]|$)`)

// ExtractCompany derives a display company name from the job link (the board
// slug or Workday tenant), falling back to an "... at Company" pattern in the
// title. Returns "" when nothing usable is found.
func ExtractCompany(title, link string) string {
	u, err := url.Parse(strings.TrimSpace(link))
	if err == nil && u.Host != "" {
		host := strings.ToLower(u.Hostname())
		parts := splitPath(u.Path)

		if strings.Contains(host, "myworkdayjobs") {
			// tenant subdomain, e.g. "shipt" from shipt.wd1.myworkdayjobs.com
			if sub, _, ok := strings.Cut(host, "."); ok && sub != "" {
				return titleizeSlug(sub)
			}
		}

		slugHosts := []string{"greenhouse", "lever", "ashbyhq", "jobs.gem.com", "ats.rippling.com"}
		for _, h := range slugHosts {
			if strings.Contains(host, h) && len(parts) > 0 {
				if slug, err := url.PathUnescape(parts[0]); err == nil && slug != "" {
					return titleizeSlug(slug)
				}
				return titleizeSlug(parts[0])
			}
		}
	}

	if m := atCompanyRe.FindStringSubmatch(title); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func titleizeSlug(slug string) string {
	words := strings.Fields(strings.ReplaceAll(slug, "-", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
