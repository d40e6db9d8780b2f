package platform

import (
	"net/url"
	"strings"
)

// Platform identifies which job board a link belongs to.
type Platform string

const (
	Greenhouse Platform = "greenhouse"
	Lever      Platform = "lever"
	Ashby      Platform = "ashby"
	Workday    Platform = "workday"
	Gem        Platform = "gem"
	Rippling   Platform = "rippling"
	Other      Platform = "other"
	Invalid    Platform = "invalid"
)

// Classify maps a job link to its platform by hostname. Malformed URLs
// classify as Invalid, unknown hosts as Other.
func Classify(link string) Platform {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil || u.Host == "" {
		return Invalid
	}
	host := strings.ToLower(u.Hostname())

	switch {
	case strings.Contains(host, "greenhouse"):
		return Greenhouse
	case strings.Contains(host, "lever.co"):
		return Lever
	case strings.Contains(host, "ashbyhq.com"):
		return Ashby
	case strings.Contains(host, "myworkdayjobs.com"):
		return Workday
	case strings.Contains(host, "gem.com"):
		return Gem
	case strings.Contains(host, "rippling.com"):
		return Rippling
	}
	return Other
}

// Source returns the platform domain tag stored alongside a job
// (greenhouse.io, lever.co, ...). Unknown hosts fall back to the bare
// hostname so the dashboard still shows something useful.
func Source(link string) string {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil || u.Host == "" {
		return "unknown"
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")

	switch {
	case strings.Contains(host, "greenhouse"):
		return "greenhouse.io"
	case strings.Contains(host, "lever.co"):
		return "lever.co"
	case strings.Contains(host, "ashbyhq.com"):
		return "ashbyhq.com"
	case strings.Contains(host, "myworkdayjobs"):
		return "myworkdayjobs.com"
	case strings.Contains(host, "gem.com"):
		return "gem.com"
	case strings.Contains(host, "rippling.com"):
		return "rippling.com"
	}
	return host
}

// RequiresRenderer reports whether the platform's job pages are
// client-rendered and need a headless browser (or equivalent) to produce
// meaningful HTML.
func (p Platform) RequiresRenderer() bool {
	switch p {
	case Ashby, Gem:
		return true
	}
	return false
}
