package validate

import (
	"jobfinder-engine/internal/platform"
	"jobfinder-engine/internal/store"
)

// Reason explains a validation verdict. Content reasons are per platform
// (e.g. "greenhouse-content-invalid") so dashboards can tell a dead Lever
// page from a relocated Workday requisition.
type Reason string

const (
	ReasonInvalidURL   Reason = "invalid-url"
	ReasonHTTPError    Reason = "http-error"
	ReasonTimeout      Reason = "timeout"
	ReasonNetworkError Reason = "network-error"
	ReasonNonTarget    Reason = "non-target-source"
	ReasonValidated    Reason = "validated"
)

func ContentInvalid(p platform.Platform) Reason {
	return Reason(string(p) + "-content-invalid")
}

// Verdict is the outcome for a single job. Remove is only set for confident
// negatives; transient failures (timeout, network) keep the row.
type Verdict struct {
	Job    store.Job
	Reason Reason
	Remove bool
}
