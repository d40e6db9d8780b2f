package rippling

import (
	"fmt"
	"testing"
)

func nextDataHTML(locations string) string {
	return fmt.Sprintf(`<html><body>
<script id="__NEXT_DATA__" type="application/json">
{"props":{"pageProps":{"apiData":{"workLocations":%s}}}}
</script>
<button>Apply now</button>
</body></html>`, locations)
}

func TestWorkLocationsFromNextData(t *testing.T) {
	t.Parallel()

	locs := WorkLocationsFromNextData(nextDataHTML(`["San Francisco, CA","Remote (US)"]`))
	if len(locs) != 2 {
		t.Fatalf("expected 2 locations, got %v", locs)
	}

	if WorkLocationsFromNextData(`<html><body>no payload</body></html>`) != nil {
		t.Fatal("missing payload should return nil")
	}
	if WorkLocationsFromNextData(nextDataHTML(`[]`)) != nil {
		t.Fatal("empty workLocations should return nil")
	}
}

func TestWorkLocationsFromJobPostPlacement(t *testing.T) {
	t.Parallel()

	body := `<script id="__NEXT_DATA__">
{"props":{"pageProps":{"apiData":{"jobPost":{"workLocations":["Bay Area"]}}}}}
</script>`
	locs := WorkLocationsFromNextData(body)
	if len(locs) != 1 || locs[0] != "Bay Area" {
		t.Fatalf("unexpected locations: %v", locs)
	}
}

func TestLocationFromSidebar(t *testing.T) {
	t.Parallel()

	body := `<html><body><div>
<span data-icon="LOCATION_OUTLINE"></span>
<p>San Francisco, CA</p>
</div></body></html>`

	if got := LocationFromSidebar(body); got != "San Francisco, CA" {
		t.Fatalf("LocationFromSidebar = %q", got)
	}
}

func TestPageValid(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		body string
		want bool
	}{
		{"sf from next data", nextDataHTML(`["San Francisco, CA"]`), true},
		{"remote from next data", nextDataHTML(`["Remote (US)"]`), true},
		{"elsewhere from next data", nextDataHTML(`["New York, NY"]`), false},
		{"404 copy", `<html><body>404 | Page not found<br/>Apply now</body></html>`, false},
		{"removed copy", `<html><body>This listing may have been removed.</body></html>`, false},
		{"no apply button", `<html><body>nothing here</body></html>`, false},
		{
			"sidebar fallback",
			`<html><body><span data-icon="LOCATION_OUTLINE"></span><p>Bay Area</p>Apply now</body></html>`,
			true,
		},
		{
			"sidebar fallback elsewhere",
			`<html><body><span data-icon="LOCATION_OUTLINE"></span><p>London</p>Apply now</body></html>`,
			false,
		},
	}

	for _, tc := range cases {
		if got := PageValid(tc.body); got != tc.want {
			t.Errorf("%s: PageValid = %v, want %v", tc.name, got, tc.want)
		}
	}
}
