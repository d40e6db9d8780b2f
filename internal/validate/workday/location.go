package workday

import "strings"

type LocationInfo struct {
	Locations  []string
	RemoteType string
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
	"san jose",
}

// Valid applies the Workday eligibility rule across all listed locations.
// On-site roles need a Bay Area token somewhere; hybrid and remote pass on
// either a remote or Bay Area signal; an unrecognized remoteType is a
// negative signal, and a missing one falls back to the token checks.
func (l LocationInfo) Valid() bool {
	if len(l.Locations) == 0 {
		return false
	}

	rt := strings.ToLower(strings.TrimSpace(l.RemoteType))

	hasSF := false
	isRemote := rt == "remote"
	for _, loc := range l.Locations {
		low := strings.ToLower(loc)
		if strings.Contains(low, "remote") {
			isRemote = true
		}
		for _, v := range sfVariations {
			if strings.Contains(low, v) {
				hasSF = true
				break
			}
		}
	}

	switch rt {
	case "on-site":
		return hasSF
	case "hybrid", "remote":
		return isRemote || hasSF
	case "":
		return hasSF || isRemote
	}
	return false
}

// LocationFromPosting reads the pipe-separated locationsText off a board
// index entry. False when the posting carries no location data.
func LocationFromPosting(p Posting) (LocationInfo, bool) {
	var locations []string
	for _, part := range strings.Split(p.LocationsText, "|") {
		if part = strings.TrimSpace(part); part != "" {
			locations = append(locations, part)
		}
	}
	if len(locations) == 0 {
		return LocationInfo{}, false
	}
	return LocationInfo{Locations: locations, RemoteType: p.RemoteType}, true
}

// LocationFromDetail collects the primary and additional locations from a
// detail response. False when the response carries no location data.
func LocationFromDetail(d *Detail) (LocationInfo, bool) {
	if d == nil || d.JobPostingInfo == nil {
		return LocationInfo{}, false
	}
	info := d.JobPostingInfo

	var locations []string
	if info.Location != "" {
		locations = append(locations, info.Location)
	}
	locations = append(locations, info.AdditionalLocations...)
	if len(locations) == 0 {
		return LocationInfo{}, false
	}
	return LocationInfo{Locations: locations, RemoteType: info.RemoteType}, true
}
