package ashby

import (
	"fmt"
	"testing"
)

func ashbyHTML(location, locationType string) string {
	typeBlock := ""
	if locationType != "" {
		typeBlock = fmt.Sprintf(`<div><h2>Location Type</h2><p>%s</p></div>`, locationType)
	}
	return fmt.Sprintf(`<html><body><div class="ashby-job-posting-left-pane">
<div><h2>Location</h2><p>%s</p></div>
%s
</div></body></html>`, location, typeBlock)
}

func TestExtractLocation(t *testing.T) {
	t.Parallel()

	info := ExtractLocation(ashbyHTML("San Francisco, CA", "Hybrid"))
	if info.Location != "San Francisco, CA" {
		t.Errorf("Location = %q", info.Location)
	}
	if info.LocationType != "Hybrid" {
		t.Errorf("LocationType = %q", info.LocationType)
	}

	info = ExtractLocation(ashbyHTML("Remote - US", ""))
	if info.Location != "Remote - US" || info.LocationType != "" {
		t.Errorf("unexpected info without type block: %+v", info)
	}

	if info := ExtractLocation(`<html><body>nothing</body></html>`); info.Location != "" {
		t.Errorf("expected empty location, got %q", info.Location)
	}
}

func TestHasErrorCopy(t *testing.T) {
	t.Parallel()

	if !HasErrorCopy(`<html><body>The job you requested was not found.</body></html>`) {
		t.Error("not-found copy should be detected")
	}
	if !HasErrorCopy(`<html><body>404 - Page Not Found</body></html>`) {
		t.Error("page-not-found copy should be detected")
	}
	if HasErrorCopy(ashbyHTML("San Francisco", "Hybrid")) {
		t.Error("normal posting must not trip the error copy check")
	}
}

func TestValid(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name         string
		location     string
		locationType string
		want         bool
	}{
		{"missing location", "", "Remote", false},
		{"onsite in SF", "San Francisco, CA", "On-site", true},
		{"onsite elsewhere", "New York, NY", "On-site", false},
		{"hybrid in SF", "San Francisco Bay Area", "Hybrid", true},
		{"hybrid elsewhere", "Austin, TX", "Hybrid", false},
		{"US remote", "Remote - United States", "Remote", true},
		{"bare remote rejected", "Remote", "Remote", false},
		{"non-US remote rejected", "Remote - Europe", "Remote", false},
		{"unknown type rejected", "San Francisco, CA", "Flexible", false},
		{"no type with SF token", "San Francisco, CA", "", true},
		{"no type with US remote", "Remote (USA)", "", true},
		{"no type elsewhere", "Toronto, ON", "", false},
	}

	for _, tc := range cases {
		info := LocationInfo{Location: tc.location, LocationType: tc.locationType}
		if got := info.Valid(); got != tc.want {
			t.Errorf("%s: Valid(%q, %q) = %v, want %v",
				tc.name, tc.location, tc.locationType, got, tc.want)
		}
	}
}
