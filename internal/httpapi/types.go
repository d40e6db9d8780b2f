package httpapi

// CronStatus tracks the most recent run of each background job for the
// status endpoint.
type CronStatus struct {
	Search   RunStatus `json:"search"`
	Validate RunStatus `json:"validate"`
	Email    RunStatus `json:"email"`
}

type RunStatus struct {
	LastRunAt string `json:"last_run_at"`
	LastOkAt  string `json:"last_ok_at"`
	LastError string `json:"last_error"`
	Running   bool   `json:"running"`
}
