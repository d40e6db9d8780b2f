// Package lever validates Lever job pages. Live postings always carry an
// "Apply for this job" button; location rides in the twitter card meta pair
// and workplace type in a .workplaceTypes node.
package lever

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

type Page struct {
	Location      string
	WorkplaceType string
	HasApply      bool
}

func Parse(body string) Page {
	p := Page{HasApply: strings.Contains(body, "Apply for this job")}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return p
	}

	// twitter:label1 is "Location" and twitter:data1 carries the value.
	if label, ok := doc.Find(`meta[name="twitter:label1"]`).First().Attr("value"); ok &&
		strings.EqualFold(strings.TrimSpace(label), "Location") {
		if data, ok := doc.Find(`meta[name="twitter:data1"]`).First().Attr("value"); ok {
			p.Location = strings.TrimSpace(data)
		}
	}

	p.WorkplaceType = strings.TrimSpace(doc.Find(".workplaceTypes").First().Text())
	return p
}

// Valid reports whether the page is a live posting in the target region.
// A missing apply button invalidates regardless of location.
func (p Page) Valid() bool {
	if !p.HasApply {
		return false
	}
	return ValidLocation(p.Location, p.WorkplaceType)
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

// ValidLocation applies the Lever eligibility rule. Bare remote is accepted
// here (unlike Ashby/Gem); on-site roles need an explicit Bay Area token. A
// posting with a location but no workplace type at all is kept.
func ValidLocation(location, workplaceType string) bool {
	if location == "" {
		return false
	}

	loc := strings.ToLower(location)
	wt := strings.ToLower(strings.TrimSpace(workplaceType))

	hasSF := false
	for _, v := range sfVariations {
		if strings.Contains(loc, v) {
			hasSF = true
			break
		}
	}
	isRemote := strings.Contains(loc, "remote") || wt == "remote"

	if wt == "" {
		return true
	}
	if wt == "on-site" {
		return hasSF
	}
	return isRemote || hasSF
}
