// Package workday validates Workday postings against the tenant's public CXS
// board index. Workday job pages are client-rendered, so instead of scraping
// HTML the validator pulls the full posting list for each board and matches
// the stored link against it by path and requisition token.
package workday

import (
	"net/url"
	"regexp"
	"strings"
)

type Board struct {
	Origin string
	Tenant string
	Site   string
}

// Parsed is a stored job link broken into its board coordinates and the
// path forms used for index lookups.
type Parsed struct {
	Board
	FullPath string
	JobPath  string
}

// NormalizePath lowercases a URL path and drops query, fragment, and
// trailing slashes so stored links and board externalPaths compare equal.
func NormalizePath(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	return strings.ToLower(strings.TrimRight(path, "/"))
}

// JobPathFromPath cuts the path down to the "/job/..." suffix, which is the
// stable part across the different board URL layouts. Empty when the path
// has no job segment.
func JobPathFromPath(path string) string {
	parts := splitPath(NormalizePath(path))
	for i, p := range parts {
		if p == "job" {
			return NormalizePath("/" + strings.Join(parts[i:], "/"))
		}
	}
	return ""
}

// Requisition tokens appear after a _, / or - separator. Workday has no
// single format, so this covers the common R/JR/REQ/JOB prefixed numbers,
// short letter prefixes with long numbers, and bare long numbers. The
// trailing group anchors the token end in place of a lookahead.
var reqIDRe = regexp.MustCompile(`(?i)(?:_|/|-)((?:r[-_ ]?\d{4,}|jr[-_ ]?\d{3,}|req[-_ ]?\d{3,}|job[-_ ]?\d{3,}|[a-z]{1,4}\d{5,}|\d{5,}))($|[_/:\-?&#])`)

var reqIDSepRe = regexp.MustCompile(`[-_ ]+`)

// ExtractReqID pulls a requisition token out of a path and canonicalizes it
// to uppercase with separators stripped. Empty when no token is found.
func ExtractReqID(value string) string {
	if decoded, err := url.PathUnescape(value); err == nil {
		value = decoded
	}
	m := reqIDRe.FindStringSubmatch(value)
	if m == nil {
		return ""
	}
	return strings.ToUpper(reqIDSepRe.ReplaceAllString(m[1], ""))
}

// ParseBoard breaks a stored Workday link into board coordinates. The site
// is the path segment right before "job". Returns false for links that do
// not look like a job detail page.
func ParseBoard(jobLink string) (Parsed, bool) {
	u, err := url.Parse(jobLink)
	if err != nil || u.Hostname() == "" {
		return Parsed{}, false
	}

	tenant := strings.Split(u.Hostname(), ".")[0]
	if tenant == "" {
		return Parsed{}, false
	}

	fullPath := NormalizePath(u.Path)
	if fullPath == "" {
		return Parsed{}, false
	}

	jobPath := JobPathFromPath(fullPath)
	if jobPath == "" {
		return Parsed{}, false
	}

	parts := splitPath(fullPath)
	site := ""
	for i, p := range parts {
		if p == "job" && i > 0 {
			site = parts[i-1]
			break
		}
	}
	if site == "" {
		return Parsed{}, false
	}

	return Parsed{
		Board:    Board{Origin: u.Scheme + "://" + u.Host, Tenant: tenant, Site: site},
		FullPath: fullPath,
		JobPath:  jobPath,
	}, true
}

// Key identifies a board for grouping jobs that share an index fetch.
func (b Board) Key() string {
	return b.Origin + "|" + b.Tenant + "|" + b.Site
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

// Index holds a board's postings keyed three ways, from most to least
// specific: normalized full path, job path, and requisition token.
type Index struct {
	byFullPath map[string]Posting
	byJobPath  map[string]Posting
	byToken    map[string]Posting
}

func BuildIndex(postings []Posting) *Index {
	idx := &Index{
		byFullPath: make(map[string]Posting),
		byJobPath:  make(map[string]Posting),
		byToken:    make(map[string]Posting),
	}
	for _, p := range postings {
		if p.ExternalPath == "" {
			continue
		}
		full := NormalizePath(p.ExternalPath)
		if full != "" {
			idx.byFullPath[full] = p
			if jp := JobPathFromPath(full); jp != "" {
				idx.byJobPath[jp] = p
			}
		}
		if token := ExtractReqID(p.ExternalPath); token != "" {
			idx.byToken[token] = p
		}
	}
	return idx
}

func (idx *Index) Size() int { return len(idx.byFullPath) }

// Match looks the parsed link up by full path, then job path, then
// requisition token.
func (idx *Index) Match(parsed Parsed) (Posting, bool) {
	if p, ok := idx.byFullPath[parsed.FullPath]; ok {
		return p, true
	}
	if parsed.JobPath != "" {
		if p, ok := idx.byJobPath[parsed.JobPath]; ok {
			return p, true
		}
	}
	if token := ExtractReqID(parsed.FullPath); token != "" {
		if p, ok := idx.byToken[token]; ok {
			return p, true
		}
	}
	return Posting{}, false
}
