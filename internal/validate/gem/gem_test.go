package gem

import (
	"fmt"
	"testing"
)

func gemHTML(location, workplaceType string) string {
	return fmt.Sprintf(`<html><body>
<div class="iconLabel-4821"><span>%s</span></div>
<div class="iconLabel-4822">%s</div>
<button>Apply</button>
</body></html>`, location, workplaceType)
}

func TestExtractLocation(t *testing.T) {
	t.Parallel()

	info := ExtractLocation(gemHTML("San Francisco • Oakland", "In office"))
	if info.Location != "San Francisco • Oakland" {
		t.Errorf("Location = %q", info.Location)
	}
	if info.WorkplaceType != "In office" {
		t.Errorf("WorkplaceType = %q", info.WorkplaceType)
	}
}

func TestExtractLocationTextFallback(t *testing.T) {
	t.Parallel()

	body := `<html><body><p>This hybrid role is based in Palo Alto.</p></body></html>`
	info := ExtractLocation(body)
	if info.Location != "Palo Alto" {
		t.Errorf("Location = %q", info.Location)
	}
	if info.WorkplaceType != "hybrid" {
		t.Errorf("WorkplaceType = %q", info.WorkplaceType)
	}
}

func TestHasErrorCopy(t *testing.T) {
	t.Parallel()

	cases := []struct {
		body string
		want bool
	}{
		{`<html><body>This position has been filled.</body></html>`, true},
		{`<html><body>Job not found</body></html>`, true},
		{`<html><body>no longer accepting applications</body></html>`, true},
		{gemHTML("San Francisco", "Hybrid"), false},
	}
	for _, tc := range cases {
		if got := HasErrorCopy(tc.body); got != tc.want {
			t.Errorf("HasErrorCopy(%q) = %v, want %v", tc.body, got, tc.want)
		}
	}
}

func TestValid(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name          string
		location      string
		workplaceType string
		want          bool
	}{
		{"missing location", "", "Remote", false},
		{"sf in office", "San Francisco • Oakland", "In office", true},
		{"deny marker short-circuits", "San Francisco • New York", "In office", false},
		{"remote still needs bay token", "Remote", "Remote", false},
		{"remote with bay token", "Remote • San Jose", "Remote", true},
		{"hybrid in berkeley", "Berkeley, CA", "Hybrid", true},
		{"unrecognized type rejected", "San Francisco", "Flexible", false},
		{"onsite spelling falls through", "San Francisco", "onsite", false},
		{"no type with bay token", "Mountain View, CA", "", true},
		{"no type elsewhere", "Chicago, IL", "", false},
	}

	for _, tc := range cases {
		info := LocationInfo{Location: tc.location, WorkplaceType: tc.workplaceType}
		if got := info.Valid(); got != tc.want {
			t.Errorf("%s: Valid(%q, %q) = %v, want %v",
				tc.name, tc.location, tc.workplaceType, got, tc.want)
		}
	}
}
